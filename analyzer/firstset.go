package analyzer

import (
	"github.com/coregx/redosx/charset"
	"github.com/coregx/redosx/graph"
	"github.com/coregx/redosx/internal/nodeset"
)

// classSet returns the concrete membership of a character-class node within
// the analyzer's universe. Categorical sets are materialized on first use
// and the materialized set is cached back onto the node — the one permitted
// post-parse mutation of the graph; the write is idempotent, so a race
// between concurrent analyses of a shared graph is benign.
func (a *Analyzer) classSet(n *graph.Node) *charset.Set {
	if n.Class.IsCategorical() {
		n.Class = n.Class.Materialize(a.universe)
	}
	out := charset.New()
	for _, r := range a.universe.Ranges() {
		for cp := r[0]; cp <= r[1]; cp++ {
			if n.Class.Contains(cp) != n.Complemented {
				out.Add(cp)
			}
		}
	}
	return out
}

// firstSet computes the set of code points that can begin a match of the
// sub-graph rooted at id, stopping at stop (exclusive). The recursion runs
// on the raw execution edges rather than the flattened DirectNext table,
// because its stop markers — a branch's rejoin, a repetition's controller —
// are exactly the wrapper nodes flattening erases; callers hand it
// side-table entry points (SubNext, DirectNext) instead. Repetition cycles
// are cut by the seen set, so the loop-back edge from a body tail to its
// controller contributes nothing on re-entry.
func (a *Analyzer) firstSet(id, stop graph.ID, seen *nodeset.Visited) *charset.Set {
	if id == stop || !seen.Add(id) {
		return charset.New()
	}
	n := a.g.Node(id)

	switch n.Kind {
	case graph.KindChar:
		s := charset.New()
		s.Add(n.Char)
		if n.CharUp != n.Char {
			s.Add(n.CharUp)
		}
		return s

	case graph.KindSlice, graph.KindSliceBM:
		s := charset.New()
		s.Add(n.Buf[0])
		return s

	case graph.KindCharClass:
		return a.classSet(n)

	case graph.KindAny:
		return a.dotSet

	case graph.KindAnyNL:
		return a.universe

	case graph.KindGroupHead:
		return a.firstSet(n.Body, stop, seen)

	case graph.KindAtomicGroup:
		s := a.firstSet(n.Body, graph.InvalidID, seen)
		if bmin, _ := graph.Study(a.g, n.Body, graph.InvalidID); bmin == 0 {
			s = s.Union(a.firstSet(n.Next, stop, seen))
		}
		return s

	case graph.KindLookahead:
		// A positive look-ahead constrains what the continuation may start
		// with; a negative one subtracts its own first-set from the
		// continuation's.
		rest := a.firstSet(n.Next, stop, seen)
		body := a.firstSet(n.Body, graph.InvalidID, a.newSeen())
		if n.Negative {
			return rest.Difference(body)
		}
		return rest.Intersect(body)

	case graph.KindLookbehind:
		return a.firstSet(n.Next, stop, seen)

	case graph.KindBranch:
		out := charset.New()
		epsilon := false
		for _, arm := range n.Branches {
			out = out.Union(a.firstSet(arm, n.Conn, seen))
			if amin, _ := graph.Study(a.g, arm, n.Conn); amin == 0 {
				epsilon = true
			}
		}
		if epsilon {
			out = out.Union(a.firstSet(n.Conn, stop, seen))
		}
		return out

	case graph.KindQues:
		return a.firstSet(n.Body, id, seen).Union(a.firstSet(n.Next, stop, seen))

	case graph.KindCurly:
		body := a.firstSet(n.Body, id, seen)
		if n.Min > 0 {
			return body
		}
		return body.Union(a.firstSet(n.Next, stop, seen))

	case graph.KindEnd, graph.KindDollar, graph.KindAccept, graph.KindBackRef:
		// Nothing concrete can be said to start here: end anchors admit only
		// end-of-input, and a back-reference's content is runtime-dependent.
		return charset.New()

	default:
		// Zero-width nodes: remaining anchors, bounds, group tails, branch
		// rejoins, loop prologues.
		return a.firstSet(n.Next, stop, seen)
	}
}

// followSet computes the code points the matcher must see immediately after
// the last iteration of repetition R: the first-set of R's attacker-order
// successor, read from the DirectNext side table.
func (a *Analyzer) followSet(R *graph.Node) *charset.Set {
	return a.firstSet(a.g.DirectNext(R.ID), graph.InvalidID, a.newSeen())
}

// repOf picks a representative code point from s, preferring alphanumerics,
// then other graphic characters, then anything in the universe. Candidate
// strings built from representatives stay printable, which keeps findings
// readable in reports.
func (a *Analyzer) repOf(s *charset.Set) (rune, bool) {
	cp, _, ok := a.repOfCard(s)
	return cp, ok
}

func (a *Analyzer) repOfCard(s *charset.Set) (rune, int, bool) {
	s = s.Intersect(a.universe)
	card := s.Count()
	if cp, ok := pickFirst(s, isAlnum); ok {
		return cp, card, true
	}
	if cp, ok := pickFirst(s, isGraphic); ok {
		return cp, card, true
	}
	if cp, ok := pickFirst(s, func(rune) bool { return true }); ok {
		return cp, card, true
	}
	return 0, 0, false
}

// repOutside picks a universe code point not in avoid, preferring graphic
// characters so the synthesized suffix stays printable.
func (a *Analyzer) repOutside(avoid *charset.Set) (rune, bool) {
	for _, r := range a.universe.Ranges() {
		for cp := r[0]; cp <= r[1]; cp++ {
			if isGraphic(cp) && !avoid.Contains(cp) {
				return cp, true
			}
		}
	}
	for _, r := range a.universe.Ranges() {
		for cp := r[0]; cp <= r[1]; cp++ {
			if !avoid.Contains(cp) {
				return cp, true
			}
		}
	}
	return 0, false
}

func pickFirst(s *charset.Set, want func(rune) bool) (rune, bool) {
	for _, r := range s.Ranges() {
		for cp := r[0]; cp <= r[1]; cp++ {
			if want(cp) {
				return cp, true
			}
		}
	}
	return 0, false
}

func isAlnum(cp rune) bool {
	return (cp >= '0' && cp <= '9') || (cp >= 'a' && cp <= 'z') || (cp >= 'A' && cp <= 'Z')
}

func isGraphic(cp rune) bool {
	return cp > 0x20 && cp != 0x7F
}

