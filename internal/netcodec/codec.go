// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netcodec implements the character codec shared by the host
// trie's build and query paths: a total bijection between the 38
// permitted hostname bytes (A-Z, a-z, 0-9, '.', '-') and indices 0..37,
// case-folded.
package netcodec

// Size is the number of slots a trie node occupies: one per codec symbol.
const Size = 38

const invalid = -1

// Encode maps a single hostname byte to its trie slot index 0..37, or
// reports ok=false if b is outside the codec alphabet. Letters fold to
// 0..25 case-insensitively, digits map to 26..35, '.' is 36, '-' is 37.
func Encode(b byte) (idx int, ok bool) {
	switch {
	case 'A' <= b && b <= 'Z':
		return int(b - 'A'), true
	case 'a' <= b && b <= 'z':
		return int(b - 'a'), true
	case '0' <= b && b <= '9':
		return int(b-'0') + 26, true
	case b == '.':
		return 36, true
	case b == '-':
		return 37, true
	default:
		return invalid, false
	}
}

// Valid reports whether every byte of s is in the codec alphabet.
func Valid(s []byte) bool {
	for _, b := range s {
		if _, ok := Encode(b); !ok {
			return false
		}
	}
	return true
}
