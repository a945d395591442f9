// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hosttrie implements the compressed host-suffix matcher of
// spec §4.2: an array-backed trie indexed from the last byte of a
// hostname to the first, with 38 slots per node (one per netcodec
// symbol). Each slot packs both "has children" and "is a match
// terminal" into a single word via sentinel arithmetic (spec §3),
// trading one extra comparison per step for halving memory traffic
// versus a separate child-pointer array and terminal bitset.
//
// A Trie is built once via Insert, then Finalize'd into an immutable,
// lock-free matcher. Insert after Finalize panics.
package hosttrie

import (
	"fmt"

	"grimm.is/h2sr/internal/netcodec"
)

// word is the storage unit for one trie slot.
type word = uint32

const wordMax word = ^word(0) // M

// ErrTooManyDomains is returned by Insert when the trie would need to grow
// its child-pointer space past the sentinel boundary.
var ErrTooManyDomains = fmt.Errorf("hosttrie: too many domains: trie exceeded sentinel-safe capacity")

// UnexpectedCharacterError reports a hostname pattern byte outside the
// netcodec alphabet.
type UnexpectedCharacterError struct {
	Char byte
}

func (e *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf("hosttrie: unexpected character %q", e.Char)
}

// Trie is a compressed suffix matcher over a set of hostname patterns.
// Create one with New; the zero value is not usable. Not safe for concurrent use during
// construction; safe for concurrent read-only use after Finalize.
type Trie struct {
	arr      []word
	limit    word // N: sentinel boundary, slots >= limit are reserved
	final    bool
}

// New returns an empty Trie ready for Insert.
func New() *Trie {
	return newWithLimit(wordMax/2 + 1)
}

func newWithLimit(limit word) *Trie {
	return &Trie{
		arr:   []word{limit}, // slot 0: the root/entry slot, starts empty
		limit: limit,
	}
}

// matchFlag returns whether v carries the terminal-match flag: either
// the terminal-only sentinel M, or a child pointer in (N, M).
func (t *Trie) matchFlag(v word) bool {
	return v > t.limit
}

func (t *Trie) isEmpty(v word) bool {
	return v == t.limit
}

func (t *Trie) childBase(v word) word {
	if v > t.limit {
		return v - t.limit
	}
	return v
}

// allocBlock appends a fresh 38-slot block filled with the empty
// sentinel and returns its base index, or ErrTooManyDomains if doing so
// would collide with the sentinel range.
func (t *Trie) allocBlock() (word, error) {
	base := word(len(t.arr))
	if base >= t.limit {
		return 0, ErrTooManyDomains
	}
	for i := 0; i < netcodec.Size; i++ {
		t.arr = append(t.arr, t.limit)
	}
	return base, nil
}

// Insert adds suffix (already case-folded; use InsertHost for raw
// input) as a pattern: later queries match any hostname equal to suffix
// or ending in "."+suffix. Insert after Finalize panics.
//
// Per spec §4.2's subsumption rule, inserting a pattern that is a strict
// suffix of (or a strict extension across a '.' boundary of) an
// already-inserted pattern is a safe no-op in one direction: if a
// shorter, already-terminal pattern is crossed while walking in a
// longer insert and the next byte is '.', the insert stops early
// because the shorter pattern already subsumes it.
func (t *Trie) Insert(suffix []byte) error {
	if t.final {
		panic("hosttrie: Insert after Finalize")
	}

	current := word(0)
	for i := len(suffix) - 1; i >= 0; i-- {
		b := suffix[i]
		v := t.arr[current]

		var base word
		switch {
		case t.isEmpty(v):
			nb, err := t.allocBlock()
			if err != nil {
				return err
			}
			t.arr[current] = nb
			base = nb
		case v == wordMax:
			if b == '.' {
				// The pattern already inserted is a strict suffix of the
				// one being inserted now (or equal up to this point with
				// a '.' boundary) and is therefore strictly more general.
				return nil
			}
			nb, err := t.allocBlock()
			if err != nil {
				return err
			}
			t.arr[current] = nb + t.limit
			base = nb
		default:
			base = t.childBase(v)
		}

		idx, ok := netcodec.Encode(b)
		if !ok {
			return &UnexpectedCharacterError{Char: b}
		}
		current = base + word(idx)
	}

	v := t.arr[current]
	switch {
	case t.isEmpty(v):
		t.arr[current] = wordMax
	case v == wordMax, t.matchFlag(v):
		// already terminal; no-op
	default:
		t.arr[current] = v + t.limit
	}
	return nil
}

// InsertHost lower-cases and inserts a hostname pattern given as a
// string, rejecting empty patterns and bytes outside the codec
// alphabet.
func (t *Trie) InsertHost(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("hosttrie: empty pattern is not permitted")
	}
	buf := make([]byte, len(pattern))
	for i := 0; i < len(pattern); i++ {
		buf[i] = lowerASCII(pattern[i])
	}
	return t.Insert(buf)
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// Finalize trims the backing array to its final size and marks the trie
// read-only. Safe to call more than once.
func (t *Trie) Finalize() {
	if t.final {
		return
	}
	trimmed := make([]word, len(t.arr))
	copy(trimmed, t.arr)
	t.arr = trimmed
	t.final = true
}

// Matches reports whether host matches any inserted pattern p: host == p
// or host ends with "."+p. Case-insensitive over ASCII; any byte outside
// the codec alphabet anywhere in host makes the whole query false.
func (t *Trie) Matches(host []byte) bool {
	current := word(0)
	for i := len(host) - 1; i >= 0; i-- {
		b := lowerASCII(host[i])
		v := t.arr[current]

		if t.matchFlag(v) && b == '.' {
			return true
		}
		if v == wordMax {
			return false
		}
		if t.isEmpty(v) {
			return false
		}

		idx, ok := netcodec.Encode(b)
		if !ok {
			return false
		}
		current = t.childBase(v) + word(idx)
	}
	return t.matchFlag(t.arr[current])
}

// MatchesString is a convenience wrapper around Matches for string
// input.
func (t *Trie) MatchesString(host string) bool {
	return t.Matches([]byte(host))
}

// Len returns the number of words in the backing array (1 + 38k).
func (t *Trie) Len() int {
	return len(t.arr)
}
