// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import (
	"net/netip"
	"strings"

	"grimm.is/h2sr/internal/config"
	"grimm.is/h2sr/internal/errors"
	"grimm.is/h2sr/internal/geoip"
	"grimm.is/h2sr/internal/hosttrie"
	"grimm.is/h2sr/internal/ipset"
	"grimm.is/h2sr/internal/logging"
)

const geoPrefix = "geo:"

// GeoLoader lazily loads a geo-IP database, so Build only pays for it
// when a "geo:XX" token is actually present in the configuration (spec
// §9 "lazy geo-IP loading"). Production callers pass geoip.Load; tests
// can stub it.
type GeoLoader func(path string) (geoip.Table, error)

// Build composes a Policy from a validated Config (spec §4.4). cfg must
// already have passed Config.Validate; Build re-derives the
// direct/proxy xor errors defensively but its primary job is expanding
// each hostname pattern and IP/CIDR/geo token into the compiled
// hosttrie.Trie / ipset.Set the decision engine consults at request
// time.
func Build(cfg *config.Config, load GeoLoader) (*Policy, error) {
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, errors.Wrapf(errs, errors.KindConfig, "policy: invalid configuration")
	}

	blockHosts, err := buildTrie(cfg.BlockDomains)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "policy: blockdomains")
	}

	var geo geoip.Table
	if needsGeo(cfg) {
		if cfg.GeoIPPath == "" {
			return nil, errors.Errorf(errors.KindConfig, "policy: a geo: token is present but geoip_path is not set")
		}
		geo, err = load(cfg.GeoIPPath)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "policy: loading geo-IP database")
		}
	}

	blockIPs, err := buildIPSet(cfg.BlockIPs, geo)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "policy: blockips")
	}

	hr, err := buildHostRule(cfg.DirectDomains, cfg.ProxyDomains)
	if err != nil {
		return nil, err
	}

	ir, err := buildIPRule(cfg.DirectIPs, cfg.ProxyIPs, geo)
	if err != nil {
		return nil, err
	}

	return &Policy{
		blockHosts: blockHosts,
		blockIPs:   blockIPs,
		hostRule:   hr,
		ipRule:     ir,
	}, nil
}

func needsGeo(cfg *config.Config) bool {
	for _, list := range [][]string{cfg.BlockIPs, cfg.DirectIPs, cfg.ProxyIPs} {
		for _, entry := range list {
			if strings.HasPrefix(entry, geoPrefix) {
				return true
			}
		}
	}
	return false
}

func buildTrie(patterns []string) (*hosttrie.Trie, error) {
	t := hosttrie.New()
	for _, p := range patterns {
		if err := t.InsertHost(p); err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "invalid host pattern %q", p)
		}
	}
	t.Finalize()
	return t, nil
}

func buildHostRule(direct, proxy []string) (hostRule, error) {
	if len(direct) > 0 {
		t, err := buildTrie(direct)
		if err != nil {
			return hostRule{}, errors.Wrapf(err, errors.KindConfig, "policy: directdomains")
		}
		return hostRule{mode: ModeDirect, trie: t}, nil
	}
	t, err := buildTrie(proxy)
	if err != nil {
		return hostRule{}, errors.Wrapf(err, errors.KindConfig, "policy: proxydomains")
	}
	return hostRule{mode: ModeProxy, trie: t}, nil
}

func buildIPRule(direct, proxy []string, geo geoip.Table) (ipRule, error) {
	if len(direct) > 0 {
		s, err := buildIPSet(direct, geo)
		if err != nil {
			return ipRule{}, errors.Wrapf(err, errors.KindConfig, "policy: directips")
		}
		return ipRule{mode: ModeDirect, set: s}, nil
	}
	s, err := buildIPSet(proxy, geo)
	if err != nil {
		return ipRule{}, errors.Wrapf(err, errors.KindConfig, "policy: proxyips")
	}
	return ipRule{mode: ModeProxy, set: s}, nil
}

// buildIPSet expands each entry (a CIDR, a bare IP, or a "geo:XX"
// token) into prefixes and compiles them into a simplified ipset.Set
// (spec §4.3). An unknown country code is logged as a warning and
// skipped rather than failing the build (spec §7 GeoUnknown is
// advisory, not fatal), matching the original's "country had no
// entries, route nothing via it" behavior.
func buildIPSet(entries []string, geo geoip.Table) (*ipset.Set, error) {
	var b ipset.Builder
	for _, entry := range entries {
		if code, ok := strings.CutPrefix(entry, geoPrefix); ok {
			prefixes, found := geo.Lookup(code)
			if !found {
				logging.WithComponent("policy").Warn("geo code has no known ranges", "code", code)
				continue
			}
			for _, p := range prefixes {
				b.Add(p)
			}
			continue
		}

		p, err := parseIPEntry(entry)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "invalid IP/CIDR %q", entry)
		}
		b.Add(p)
	}
	return b.Build()
}

// parseIPEntry accepts either CIDR notation ("10.0.0.0/8") or a bare
// address ("10.0.0.5"), the latter treated as a host route (/32 or
// /128).
func parseIPEntry(entry string) (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(entry); err == nil {
		return p, nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, errors.Errorf(errors.KindConfig, "%q is neither a CIDR nor an IP address", entry)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
