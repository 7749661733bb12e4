package charset

import "testing"

func TestAddRangeInvalid(t *testing.T) {
	s := New()
	if err := s.AddRange('z', 'a'); err == nil {
		t.Fatal("expected InvalidRangeError for lo > hi")
	}
}

func TestContainsAndNormalize(t *testing.T) {
	s := New()
	_ = s.AddRange('a', 'c')
	_ = s.AddRange('b', 'e') // overlaps, should merge
	_ = s.AddRange('x', 'z')

	for _, cp := range []rune{'a', 'c', 'd', 'e', 'x', 'z'} {
		if !s.Contains(cp) {
			t.Errorf("expected set to contain %q", cp)
		}
	}
	for _, cp := range []rune{'f', 'w'} {
		if s.Contains(cp) {
			t.Errorf("expected set to not contain %q", cp)
		}
	}
	if got := len(s.Ranges()); got != 2 {
		t.Fatalf("expected 2 merged ranges, got %d: %v", got, s.Ranges())
	}
}

func TestUnionIntersectDifference(t *testing.T) {
	a := New()
	_ = a.AddRange('a', 'm')
	b := New()
	_ = b.AddRange('g', 'z')

	u := a.Union(b)
	for _, cp := range []rune{'a', 'g', 'z'} {
		if !u.Contains(cp) {
			t.Errorf("union missing %q", cp)
		}
	}

	i := a.Intersect(b)
	if !i.Contains('g') || i.Contains('a') || i.Contains('z') {
		t.Errorf("intersection wrong: %v", i.Ranges())
	}

	d := a.Difference(b)
	if !d.Contains('a') || d.Contains('g') {
		t.Errorf("difference wrong: %v", d.Ranges())
	}
}

func TestComplementAgainstUniverse(t *testing.T) {
	universe := DefaultUniverse()
	digits := New()
	_ = digits.AddRange('0', '9')

	notDigits := digits.Complement().Intersect(universe)
	if notDigits.Contains('5') {
		t.Error("complement should exclude digits")
	}
	if !notDigits.Contains('!') {
		t.Error("complement should include '!'")
	}
}

func TestCategoricalMaterialize(t *testing.T) {
	upper := NewCategorical("Lu", func(cp rune) bool { return cp >= 'A' && cp <= 'Z' })
	m := upper.Materialize(DefaultUniverse())
	if !m.Contains('Q') || m.Contains('q') {
		t.Errorf("materialized categorical set wrong: %v", m.Ranges())
	}
}

func TestDefaultElementFallback(t *testing.T) {
	noLetters := NewCategorical("NoSuchCategory", func(rune) bool { return false }).WithDefault('?')
	cp, ok := noLetters.DefaultElement()
	if !ok || cp != '?' {
		t.Fatalf("expected default element '?', got %q ok=%v", cp, ok)
	}
}

func TestAddFoldedASCII(t *testing.T) {
	s := New()
	s.AddFolded('a', false)
	if !s.Contains('A') || !s.Contains('a') {
		t.Error("ASCII fold should add both cases")
	}
}

func TestAddFoldedUnicode(t *testing.T) {
	s := New()
	s.AddFolded('K', true) // Kelvin sign U+212A simple-folds with k/K
	if !s.Contains('k') {
		t.Error("unicode fold should include lowercase k")
	}
}

func TestCount(t *testing.T) {
	s := New()
	_ = s.AddRange('a', 'e')
	s.Add('z')
	if got := s.Count(); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
	if got := New().Count(); got != 0 {
		t.Fatalf("empty Count = %d, want 0", got)
	}
}
