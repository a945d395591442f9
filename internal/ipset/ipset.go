// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ipset implements the IP range set primitive of spec §4.3: a
// compact set of CIDR prefixes per address family, built by add-then-
// simplify and queried in O(log n).
//
// Simplification (coalescing adjacent/contained prefixes into a minimal
// canonical cover) is delegated to go4.org/netipx's IPSetBuilder. The
// simplified prefixes are then loaded into a gaissmai/bart routing table,
// which answers Contains with a popcount-compressed multibit trie walk —
// the fast longest-prefix-match structure the teacher already vendors.
package ipset

import (
	"net/netip"

	"github.com/gaissmai/bart"
	"go4.org/netipx"
)

// Set is an immutable, simplified collection of CIDR prefixes answering
// Contains queries. The zero value is an empty set.
type Set struct {
	table *bart.Table[struct{}]
	n     int
}

// Builder accumulates CIDR prefixes before Build simplifies and compiles
// them into a queryable Set. It is not safe for concurrent use.
type Builder struct {
	b netipx.IPSetBuilder
}

// Add inserts prefix into the set under construction.
func (bd *Builder) Add(prefix netip.Prefix) {
	bd.b.AddPrefix(prefix)
}

// Build simplifies the accumulated prefixes (coalescing adjacent and
// contained ranges into their minimal cover) and compiles the result into
// an immutable Set.
func (bd *Builder) Build() (*Set, error) {
	ipSet, err := bd.b.IPSet()
	if err != nil {
		return nil, err
	}

	prefixes := ipSet.Prefixes()
	table := new(bart.Table[struct{}])
	for _, p := range prefixes {
		table.Insert(p, struct{}{})
	}

	return &Set{table: table, n: len(prefixes)}, nil
}

// Contains reports whether addr falls within any prefix in the set.
func (s *Set) Contains(addr netip.Addr) bool {
	if s == nil || s.table == nil {
		return false
	}
	return s.table.Contains(addr)
}

// Len returns the number of simplified prefixes backing the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

// BuildSet is a convenience wrapper for the common case of building a Set
// from a fixed slice of prefixes in one call.
func BuildSet(prefixes []netip.Prefix) (*Set, error) {
	var bd Builder
	for _, p := range prefixes {
		bd.Add(p)
	}
	return bd.Build()
}
