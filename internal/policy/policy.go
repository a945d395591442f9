// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package policy implements the policy composer and routing decision
// function of spec §§4.4-4.5: it turns a validated Config into an
// immutable Policy, and the Policy turns a request authority into a
// routing Decision.
//
// A Policy performs no I/O and holds no locks; once built it is shared
// by every connection handler without synchronization (spec §5).
package policy

import (
	"net/netip"

	"grimm.is/h2sr/internal/hosttrie"
	"grimm.is/h2sr/internal/ipset"
	"grimm.is/h2sr/internal/netutil"
)

// Decision is the routing outcome for a connection.
type Decision int

const (
	Block Decision = iota
	Direct
	Socks5
	// Undecided means the host must be resolved to an IP and the
	// decision re-derived from that IP (spec §4.5 step 2c).
	Undecided
)

func (d Decision) String() string {
	switch d {
	case Block:
		return "block"
	case Direct:
		return "direct"
	case Socks5:
		return "socks5"
	default:
		return "undecided"
	}
}

// Mode selects which side of a direct/proxy pair a rule routes matches
// to.
type Mode int

const (
	ModeDirect Mode = iota
	ModeProxy
)

type hostRule struct {
	mode Mode
	trie *hosttrie.Trie
}

func (r hostRule) decision() Decision {
	if r.mode == ModeDirect {
		return Direct
	}
	return Socks5
}

type ipRule struct {
	mode Mode
	set  *ipset.Set
}

// apply implements spec §4.5 step 1b: a Direct-list rule routes listed
// addresses Direct and everything else Socks5; a Proxy-list rule routes
// listed addresses Socks5 and everything else Direct.
func (r ipRule) apply(addr netip.Addr) Decision {
	in := r.set.Contains(addr)
	switch r.mode {
	case ModeDirect:
		if in {
			return Direct
		}
		return Socks5
	default: // ModeProxy
		if in {
			return Socks5
		}
		return Direct
	}
}

// Policy is the compiled, immutable decision engine of spec §4.5. Build
// it once via Build and share it by reference thereafter.
type Policy struct {
	blockHosts *hosttrie.Trie
	blockIPs   *ipset.Set
	hostRule   hostRule
	ipRule     ipRule
}

// RouteIP implements spec §4.5 step 1: the decision for a literal IP
// address (or the IP a hostname resolved to).
func (p *Policy) RouteIP(addr netip.Addr) Decision {
	if p.blockIPs.Contains(addr) {
		return Block
	}
	return p.ipRule.apply(addr)
}

// RouteHost implements spec §4.5 step 2a-2b for a bare hostname (no
// port, already known not to be a literal IP). If the host is neither
// blocked nor matched by the host rule, it reports needsResolve=true so
// the caller can resolve it and call RouteIP.
func (p *Policy) RouteHost(host string) (decision Decision, needsResolve bool) {
	hb := []byte(host)
	if p.blockHosts.Matches(hb) {
		return Block, false
	}
	if p.hostRule.trie.Matches(hb) {
		return p.hostRule.decision(), false
	}
	return Undecided, true
}

// Result is the outcome of routing one request authority.
type Result struct {
	Decision Decision
	// Host is set iff Decision == Undecided: the caller must resolve it
	// to an address and call RouteIP on the first result (spec §4.5
	// step 2c), per the original's "take the first address returned".
	Host string
}

// Route implements the full decision pipeline of spec §4.5 for a
// request authority ("host[:port]"): literal IPs are routed directly
// (step 1); hostnames are routed against the block/host rules (steps
// 2a-2b) or handed back as Undecided for DNS resolution (step 2c).
func (p *Policy) Route(authority string) Result {
	host, _ := netutil.SplitAuthority(authority)

	if addr, ok := netutil.ParseLiteralIP(host); ok {
		return Result{Decision: p.RouteIP(addr)}
	}

	d, needsResolve := p.RouteHost(host)
	if needsResolve {
		return Result{Decision: Undecided, Host: host}
	}
	return Result{Decision: d}
}
