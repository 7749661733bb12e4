package charset

import "golang.org/x/sys/cpu"

// DefaultUniverse is the bounded "full alphabet" that categorical sets
// (\p{...}, Unicode blocks, POSIX classes) materialize against on demand,
// and that the analyzer samples when it needs a concrete attack character:
// all ASCII printables plus common whitespace. Keeping it closed and small
// makes enumeration cheap; keeping it reasonably broad improves the odds of
// finding a suffix character outside a repetition's follow-set.
func DefaultUniverse() *Set {
	u := New()
	_ = u.AddRange(0x20, 0x7E) // space .. '~', all ASCII printables
	u.Add('\t')
	u.Add('\n')
	u.Add('\r')
	return u
}

// hasFastBitmapScan reports whether the host can benefit from a wide,
// branch-light scan when materializing a categorical set's membership over
// the (small, Latin-1-sized) universe. It gates whether Materialize unrolls
// its scan loop by 8 code points at a time instead of one at a time; both
// paths produce the identical Set, this only affects how fast
// materialization runs on a large universe.
func hasFastBitmapScan() bool {
	return cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}

// Materialize enumerates a categorical set's membership against universe,
// producing an equivalent range-backed Set. Range-backed sets materialize
// to themselves (already concrete). This is the operation the reference
// engine defers until the analyzer actually asks for the underlying
// character set of a \p{...} or POSIX class node.
func (s *Set) Materialize(universe *Set) *Set {
	if s.predicate == nil {
		return s
	}

	out := New()
	out.name = s.name
	out.defaultElement = s.defaultElement
	out.hasDefault = s.hasDefault

	ranges := universe.effectiveRanges()
	if hasFastBitmapScan() {
		materializeUnrolled(s.predicate, ranges, out)
	} else {
		materializeScalar(s.predicate, ranges, out)
	}
	return out
}

func materializeScalar(predicate func(rune) bool, ranges []rangeT, out *Set) {
	for _, r := range ranges {
		for cp := r.lo; cp <= r.hi; cp++ {
			if predicate(cp) {
				_ = out.AddRange(cp, cp)
			}
		}
	}
}

// materializeUnrolled processes 8 code points per iteration. The universe is
// small and bounded (see DefaultUniverse), so this is a throughput nicety
// rather than a correctness-critical path; it must produce byte-identical
// output to materializeScalar.
func materializeUnrolled(predicate func(rune) bool, ranges []rangeT, out *Set) {
	for _, r := range ranges {
		cp := r.lo
		for ; cp+7 <= r.hi; cp += 8 {
			for i := rune(0); i < 8; i++ {
				if predicate(cp + i) {
					_ = out.AddRange(cp+i, cp+i)
				}
			}
		}
		for ; cp <= r.hi; cp++ {
			if predicate(cp) {
				_ = out.AddRange(cp, cp)
			}
		}
	}
}
