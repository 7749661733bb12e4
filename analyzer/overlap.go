package analyzer

import (
	"sort"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/redosx/graph"
)

// wideAlternation is the arm count past which pairwise first-set
// intersection gives way to a single Aho-Corasick scan over the arms'
// literal heads.
const wideAlternation = 8

// overlapPumps proposes pump candidates from alternation arms inside R's
// body whose first-sets overlap — the `(A|A)*` exponential shape. Wide
// alternations with literal-headed arms are screened with an
// Aho-Corasick automaton built over the heads, which finds shared-prefix
// arm pairs in one scan instead of a quadratic pairwise pass; narrow
// alternations and non-literal arms fall back to pairwise first-set
// intersection. Every candidate is validated empirically afterwards, so a
// false positive here costs one budgeted match, never a false finding.
func (a *Analyzer) overlapPumps(R *graph.Node) []pumpCand {
	var out []pumpCand
	a.eachBranch(a.g.SubNext(R.ID), R.ID, func(b *graph.Node) {
		heads := make([]string, len(b.Branches))
		literalArms := 0
		for i, arm := range b.Branches {
			heads[i] = a.literalHead(arm, b.Conn)
			if heads[i] != "" {
				literalArms++
			}
		}

		if literalArms > wideAlternation {
			out = append(out, literalOverlaps(heads)...)
			// Only the non-literal arms still need the set-based pass.
			for i, arm := range b.Branches {
				if heads[i] != "" {
					continue
				}
				out = append(out, a.pairwiseOverlaps(arm, b)...)
			}
			return
		}

		for i := range b.Branches {
			for j := i + 1; j < len(b.Branches); j++ {
				fi := a.firstSet(b.Branches[i], b.Conn, a.newSeen())
				fj := a.firstSet(b.Branches[j], b.Conn, a.newSeen())
				inter := fi.Intersect(fj)
				if cp, card, ok := a.repOfCard(inter); ok {
					out = append(out, pumpCand{string(cp), card})
				}
			}
		}
	})
	return out
}

// pairwiseOverlaps intersects one arm's first-set against every other arm
// of the same branch.
func (a *Analyzer) pairwiseOverlaps(arm graph.ID, b *graph.Node) []pumpCand {
	var out []pumpCand
	f := a.firstSet(arm, b.Conn, a.newSeen())
	for _, other := range b.Branches {
		if other == arm {
			continue
		}
		inter := f.Intersect(a.firstSet(other, b.Conn, a.newSeen()))
		if cp, card, ok := a.repOfCard(inter); ok {
			out = append(out, pumpCand{string(cp), card})
		}
	}
	return out
}

// literalOverlaps finds arms whose literal heads collide: duplicate heads,
// and heads another head is a proper prefix of. Both shapes make the
// alternation ambiguous, so the colliding head itself is the pump.
func literalOverlaps(heads []string) []pumpCand {
	uniq := map[string]bool{}
	var out []pumpCand
	for _, h := range heads {
		if h == "" {
			continue
		}
		if uniq[h] {
			out = append(out, pumpCand{h, 1})
			continue
		}
		uniq[h] = true
	}

	sorted := make([]string, 0, len(uniq))
	for h := range uniq {
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)
	if len(sorted) < 2 {
		return out
	}

	builder := ahocorasick.NewBuilder()
	for _, h := range sorted {
		builder.AddPattern([]byte(h))
	}
	auto, err := builder.Build()
	if err != nil {
		return out
	}
	for _, h := range sorted {
		// A leftmost match that ends before h does means some other arm's
		// head is a proper prefix of h: the input h is consumable two ways.
		if m := auto.Find([]byte(h), 0); m != nil && m.Start == 0 && m.End < len(h) {
			out = append(out, pumpCand{h, 1})
		}
	}
	return out
}

// literalHead extracts the literal run an arm starts with, descending
// through group heads; empty when the arm starts with anything that is not
// a fixed code point.
func (a *Analyzer) literalHead(arm, stop graph.ID) string {
	var sb []rune
	cur := arm
	for guard := 0; cur != graph.InvalidID && cur != stop; guard++ {
		if guard > a.g.NumNodes() {
			break
		}
		n := a.g.Node(cur)
		switch n.Kind {
		case graph.KindChar:
			if n.CharUp != n.Char {
				return string(sb)
			}
			sb = append(sb, n.Char)
			cur = n.Next
		case graph.KindSlice, graph.KindSliceBM:
			if n.SliceFoldCase {
				return string(sb)
			}
			sb = append(sb, n.Buf...)
			cur = n.Next
		case graph.KindGroupHead:
			cur = n.Body
		case graph.KindGroupTail, graph.KindBranchConn, graph.KindLoopPrologue:
			cur = n.Next
		default:
			return string(sb)
		}
	}
	return string(sb)
}

// eachBranch invokes fn for every alternation node in the sub-graph from
// entry, without crossing stop.
func (a *Analyzer) eachBranch(entry, stop graph.ID, fn func(*graph.Node)) {
	seen := a.newSeen()
	stack := []graph.ID{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == stop || !seen.Add(id) {
			continue
		}
		n := a.g.Node(id)
		if n.Kind == graph.KindBranch {
			fn(n)
		}
		stack = append(stack, n.Next)
		switch n.Kind {
		case graph.KindGroupHead, graph.KindAtomicGroup, graph.KindQues,
			graph.KindCurly, graph.KindLookahead, graph.KindLookbehind:
			stack = append(stack, n.Body)
		case graph.KindBranch:
			stack = append(stack, n.Conn)
			stack = append(stack, n.Branches...)
		}
	}
}
