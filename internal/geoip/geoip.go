// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package geoip implements the external geo-IP collaborator of spec §6:
// a binary database mapping country codes to CIDR ranges, read lazily
// and only when a "geo:XX" token appears in the configuration (spec
// §4.4, §9 "lazy geo-IP loading").
//
// The database is a standard MaxMind Country/City-format file, read
// with github.com/oschwald/geoip2-golang (which embeds
// maxminddb-golang). h2sr doesn't do single-address lookups against it;
// it needs the reverse mapping (country -> CIDR list), so it walks the
// whole database once via the maxminddb Networks() iterator.
package geoip

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"go4.org/netipx"

	"grimm.is/h2sr/internal/logging"
)

// Table maps an upper-cased ISO country code to the CIDR prefixes
// tagged with it. It is the Go shape of spec §6's
// `list<{country_code, list<CIDR>}>` contract.
type Table map[string][]netip.Prefix

// Lookup returns the CIDR prefixes for country code (case-insensitive),
// and whether any were found.
func (t Table) Lookup(code string) ([]netip.Prefix, bool) {
	prefixes, ok := t[strings.ToUpper(code)]
	return prefixes, ok
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	RegisteredCountry struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`
}

// Load parses the MaxMind-format database at path into a Table by
// iterating every network record once. It is meant to be called at most
// once per process, lazily, the first time a "geo:" token is seen.
func Load(path string) (Table, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	defer reader.Close()

	table := make(Table)
	networks := reader.Networks()
	for networks.Next() {
		var rec countryRecord
		network, err := networks.Network(&rec)
		if err != nil {
			logging.WithComponent("geoip").Warn("skipping malformed network record", "error", err)
			continue
		}

		code := rec.Country.ISOCode
		if code == "" {
			code = rec.RegisteredCountry.ISOCode
		}
		if code == "" {
			continue
		}

		prefix, ok := netipx.FromStdIPNet(&network)
		if !ok {
			continue
		}
		code = strings.ToUpper(code)
		table[code] = append(table[code], prefix)
	}
	if err := networks.Err(); err != nil {
		return nil, fmt.Errorf("geoip: iterate %s: %w", path, err)
	}

	return table, nil
}
