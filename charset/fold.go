package charset

import "unicode"

// AddFolded adds cp to the set along with its case-folded counterparts.
// When unicodeCase is false, only ASCII folding (A-Z <-> a-z) applies. When
// true, Unicode simple case folding is used via unicode.SimpleFold.
func (s *Set) AddFolded(cp rune, unicodeCase bool) {
	s.Add(cp)
	if !unicodeCase {
		if cp >= 'A' && cp <= 'Z' {
			s.Add(cp + ('a' - 'A'))
		} else if cp >= 'a' && cp <= 'z' {
			s.Add(cp - ('a' - 'A'))
		}
		return
	}
	for f := unicode.SimpleFold(cp); f != cp; f = unicode.SimpleFold(f) {
		s.Add(f)
	}
}

// AddRangeFolded adds [lo, hi] and the case-folded counterpart of every code
// point in the range.
func (s *Set) AddRangeFolded(lo, hi rune, unicodeCase bool) error {
	if err := s.AddRange(lo, hi); err != nil {
		return err
	}
	for cp := lo; cp <= hi; cp++ {
		s.AddFolded(cp, unicodeCase)
	}
	return nil
}
