// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netutil holds small, dependency-free helpers for splitting and
// classifying the authority component of a proxied request.
package netutil

import (
	"net"
	"net/netip"
	"strings"
)

// SplitAuthority splits a "host[:port]" authority into host and port. If
// no port is present, port is "". Bracketed IPv6 literals are unwrapped.
func SplitAuthority(authority string) (host, port string) {
	if h, p, err := net.SplitHostPort(authority); err == nil {
		return h, p
	}
	// No port: net.SplitHostPort fails even for a bare IPv6 literal like
	// "::1" (too many colons), so strip brackets by hand.
	h := strings.TrimPrefix(strings.TrimSuffix(authority, "]"), "[")
	return h, ""
}

// ParseLiteralIP reports whether host is a literal IPv4 or IPv6 address
// (as opposed to a DNS hostname), returning the parsed address if so.
func ParseLiteralIP(host string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
