package utils

import "testing"

func TestIntern(t *testing.T) {
	s1 := Intern("cg")
	s2 := Intern("cg")
	if s1 != s2 {
		t.Error("equal strings must intern to the same symbol")
	}
	if *s1 != "cg" {
		t.Error("dereferencing a symbol must yield the original string")
	}
	if Intern("cg") == Intern("cs") {
		t.Error("different strings must intern to different symbols")
	}
}

func TestSmallMap(t *testing.T) {
	var m SmallMap
	first := Intern("NM")
	second := Intern("dv")
	m.Set(first, int64(5))
	m.Set(second, 0.25)
	if value, found := m.Get(first); !found || value.(int64) != 5 {
		t.Error("wrong value for the first key")
	}
	m.Set(first, int64(7))
	if value, found := m.Get(first); !found || value.(int64) != 7 {
		t.Error("setting an existing key must overwrite its value")
	}
	if len(m) != 2 {
		t.Error("setting an existing key must not append an entry")
	}
	if m[0].Key != first || m[1].Key != second {
		t.Error("entries must keep their insertion order")
	}
	if _, found := m.Get(Intern("de")); found {
		t.Error("unexpected value for a missing key")
	}
}
