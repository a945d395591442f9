// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package geoip

import (
	"net/netip"
	"testing"
)

func TestTableLookupCaseInsensitive(t *testing.T) {
	table := Table{
		"US": {netip.MustParsePrefix("3.0.0.0/8")},
	}

	if _, ok := table.Lookup("us"); !ok {
		t.Error("expected lowercase lookup to find the upper-cased key")
	}
	if _, ok := table.Lookup("Us"); !ok {
		t.Error("expected mixed-case lookup to find the upper-cased key")
	}
	if _, ok := table.Lookup("ZZ"); ok {
		t.Error("expected unknown country code to miss")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Error("expected error opening a missing geo-IP database")
	}
}
