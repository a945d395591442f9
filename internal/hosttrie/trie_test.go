// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hosttrie

import (
	"strings"
	"testing"
)

func build(t *testing.T, patterns ...string) *Trie {
	t.Helper()
	trie := New()
	for _, p := range patterns {
		if err := trie.InsertHost(p); err != nil {
			t.Fatalf("InsertHost(%q): %v", p, err)
		}
	}
	trie.Finalize()
	return trie
}

func TestConcreteScenarios(t *testing.T) {
	cases := []struct {
		patterns []string
		query    string
		want     bool
	}{
		{[]string{"google.com"}, "google.com", true},
		{[]string{"google.com"}, "test.google.com", true},
		{[]string{"google.com"}, "testgoogle.com", false},
		{[]string{"google.com"}, "microsoftgoogle.com", false},
		{[]string{"google.com", "testgoogle.com"}, "testgoogle.com", true},
		{[]string{"google.com"}, "baidu.com", false},
		{[]string{"a.b.c"}, "x.a.b.c", true},
		{[]string{"a.b.c"}, "ab.c", false},
	}
	for _, c := range cases {
		trie := build(t, c.patterns...)
		if got := trie.MatchesString(c.query); got != c.want {
			t.Errorf("patterns=%v query=%q: got %v, want %v", c.patterns, c.query, got, c.want)
		}
	}
}

func TestCaseFolding(t *testing.T) {
	trie := build(t, "Example.COM")
	if !trie.MatchesString("example.com") {
		t.Error("expected lowercase query to match mixed-case pattern")
	}
	if !trie.MatchesString("WWW.EXAMPLE.COM") {
		t.Error("expected uppercase query to match")
	}
}

func TestEmptyQuery(t *testing.T) {
	trie := build(t)
	if trie.MatchesString("") {
		t.Error("expected empty query against empty trie to be false")
	}
}

func TestInvalidByteInQueryIsNoMatch(t *testing.T) {
	trie := build(t, "example.com")
	if trie.MatchesString("exa mple.com") {
		t.Error("expected query containing an invalid byte to fail the whole query")
	}
	if trie.MatchesString("example.com ") {
		t.Error("expected trailing invalid byte to fail the whole query")
	}
}

func TestInsertRejectsInvalidByte(t *testing.T) {
	trie := New()
	err := trie.InsertHost("exa mple.com")
	if err == nil {
		t.Fatal("expected error for pattern with invalid byte")
	}
	var uce *UnexpectedCharacterError
	if !isUnexpectedCharacterError(err, &uce) {
		t.Errorf("expected UnexpectedCharacterError, got %T: %v", err, err)
	}
}

func isUnexpectedCharacterError(err error, target **UnexpectedCharacterError) bool {
	if e, ok := err.(*UnexpectedCharacterError); ok {
		*target = e
		return true
	}
	return false
}

func TestInsertRejectsEmptyPattern(t *testing.T) {
	trie := New()
	if err := trie.InsertHost(""); err == nil {
		t.Error("expected error inserting empty pattern")
	}
}

func TestSubsumptionShorterWinsOnDotBoundary(t *testing.T) {
	// Insert shorter pattern first, then a longer one that crosses a '.'
	// boundary into the shorter one: the longer insert is a no-op, but
	// behavior is unchanged either way since the shorter already matches.
	trie := New()
	must(t, trie.InsertHost("example.com"))
	must(t, trie.InsertHost("www.example.com"))
	trie.Finalize()

	if !trie.MatchesString("anything.example.com") {
		t.Error("expected the general, shorter pattern to still match")
	}
	if !trie.MatchesString("www.example.com") {
		t.Error("expected the longer, subsumed pattern to still match (via the shorter one)")
	}
}

func TestGrowPastTerminalOnNonDotByte(t *testing.T) {
	// "com" terminal, then "acom" is a strict extension where the
	// crossing byte (reading backwards, the next byte read at the
	// already-terminal slot) is 'a', not '.' -- so it must grow
	// children while preserving the terminal flag on "com" itself.
	trie := New()
	must(t, trie.InsertHost("com"))
	must(t, trie.InsertHost("acom")) // crosses terminal "com" via 'a'
	trie.Finalize()

	if !trie.MatchesString("com") {
		t.Error("expected bare terminal pattern to still match")
	}
	if !trie.MatchesString("anything.com") {
		t.Error("expected general suffix pattern to still match")
	}
}

func TestIdempotentInsert(t *testing.T) {
	trie := New()
	must(t, trie.InsertHost("example.com"))
	lenAfterFirst := trie.Len()
	must(t, trie.InsertHost("example.com"))
	if trie.Len() != lenAfterFirst {
		t.Errorf("expected re-inserting the same pattern to be a no-op, length changed from %d to %d", lenAfterFirst, trie.Len())
	}
	trie.Finalize()
	if !trie.MatchesString("example.com") {
		t.Error("expected pattern inserted twice to still match")
	}
}

func TestSubsumptionEquivalence(t *testing.T) {
	// trie(P ∪ {q}) behaves like trie(P) when q = x + "." + p for p ∈ P.
	p := New()
	must(t, p.InsertHost("example.com"))
	p.Finalize()

	pq := New()
	must(t, pq.InsertHost("example.com"))
	must(t, pq.InsertHost("shop.example.com"))
	pq.Finalize()

	queries := []string{"example.com", "shop.example.com", "a.example.com", "notexample.com", ""}
	for _, q := range queries {
		if p.MatchesString(q) != pq.MatchesString(q) {
			t.Errorf("subsumption equivalence broken at query %q: P=%v, P∪{q}=%v", q, p.MatchesString(q), pq.MatchesString(q))
		}
	}
}

func TestMonotonicity(t *testing.T) {
	// P ⊆ Q ⇒ trie(Q).matches(h) ⇒ trie(P ∪ Q).matches(h), and converse.
	// Here P = {example.net}.
	q := New()
	must(t, q.InsertHost("google.com"))
	must(t, q.InsertHost("baidu.com"))
	must(t, q.InsertHost("example.net"))
	q.Finalize()

	pUnionQ := New()
	must(t, pUnionQ.InsertHost("google.com"))
	must(t, pUnionQ.InsertHost("baidu.com"))
	must(t, pUnionQ.InsertHost("example.net"))
	pUnionQ.Finalize()

	for _, h := range []string{"google.com", "test.google.com", "baidu.com", "example.net", "other.com"} {
		if q.MatchesString(h) != pUnionQ.MatchesString(h) {
			t.Errorf("monotonicity broken at %q", h)
		}
	}
}

func TestArbitrarySuffixProperty(t *testing.T) {
	trie := build(t, "example.com")
	for _, x := range []string{"a", "b1", "my-app"} {
		if !trie.MatchesString(x + ".example.com") {
			t.Errorf("expected %s.example.com to match via the dot boundary", x)
		}
		// x+p (no dot) only matches if x+p itself is in P or subsumed.
		if trie.MatchesString(x + "example.com") {
			t.Errorf("did not expect %sexample.com (no separator) to match", x)
		}
	}
}

func TestTooManyDomains(t *testing.T) {
	trie := newWithLimit(40) // tiny sentinel boundary to force overflow quickly
	var lastErr error
	for i := 0; i < 50 && lastErr == nil; i++ {
		host := strings.Repeat("a", i+1) + ".example.com"
		lastErr = trie.Insert([]byte(host))
	}
	if lastErr != ErrTooManyDomains {
		t.Errorf("expected ErrTooManyDomains eventually, got %v", lastErr)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
