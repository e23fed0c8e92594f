package finapp

import "testing"

func testCatalog() Catalog {
	return Catalog{
		"alpha growth fund direct plan":  "100001",
		"beta value fund regular growth": "100002",
		"gamma liquid fund":              "100003",
	}
}

func TestResolveExact(t *testing.T) {
	r := NewResolver(testCatalog())

	code, ok := r.Resolve("Alpha Growth Fund Direct Plan")
	if !ok || code != "100001" {
		t.Errorf("Resolve = %q, %v", code, ok)
	}
	// case and surrounding space are ignored
	code, ok = r.Resolve("  GAMMA LIQUID FUND ")
	if !ok || code != "100003" {
		t.Errorf("Resolve = %q, %v", code, ok)
	}
}

func TestResolveFuzzy(t *testing.T) {
	r := NewResolver(testCatalog())

	// small typo still scores above the acceptance threshold
	code, ok := r.Resolve("Alpha Growth Fund Direct Pla")
	if !ok || code != "100001" {
		t.Errorf("Resolve = %q, %v", code, ok)
	}
}

func TestResolveRejectsScoreAtThreshold(t *testing.T) {
	// this pair scores exactly 80; the score must exceed the threshold, since
	// a false binding would never be overwritten on later imports
	r := NewResolver(Catalog{"abcdefghij klmnopqrst": "100009"})
	if code, ok := r.Resolve("abcdefgha"); ok {
		t.Errorf("at-threshold match resolved to %q", code)
	}
}

func TestResolveMiss(t *testing.T) {
	r := NewResolver(testCatalog())

	if code, ok := r.Resolve("Completely Unrelated Equity Scheme XYZ"); ok {
		t.Errorf("unrelated name resolved to %q", code)
	}
	if _, ok := r.Resolve(""); ok {
		t.Error("empty name should not resolve")
	}
}

func TestResolveEmptyCatalog(t *testing.T) {
	r := NewResolver(Catalog{})
	if _, ok := r.Resolve("Alpha Growth Fund"); ok {
		t.Error("empty catalog should never resolve")
	}
}
