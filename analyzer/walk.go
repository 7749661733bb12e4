package analyzer

import (
	"github.com/coregx/redosx/charset"
	"github.com/coregx/redosx/graph"
)

// optionTaker decides, per optional construct (a Ques or a min-0 Curly),
// whether a synthesized string should take the optional once or skip it.
// Different takers turn one body into several candidate pumps: the minimal
// string, the everything-once string, and one variant per single optional —
// the last shape matters because a blowup often needs exactly one optional
// active (a leading ` ?` taken, a nested group skipped) to make iterations
// ambiguous.
type optionTaker func(graph.ID) bool

func takeNone(graph.ID) bool { return false }
func takeAll(graph.ID) bool  { return true }

const maxEmitDepth = 50

// repeatCap bounds how many mandatory iterations of a nested {m,n} body are
// expanded into a synthesized string; a {1000,} inner bound would otherwise
// dominate the attack length before the pump contributes anything.
const repeatCap = 8

// bodyString synthesizes a concrete string matched by the sub-graph from
// entry up to stop (exclusive). The walk follows the interpreter's own
// execution wiring: group heads descend into their body, group tails flow
// onward, a repetition body's tail edge back to its controller is the stop
// of the nested walk.
func (a *Analyzer) bodyString(entry, stop graph.ID, take optionTaker, depth int) (string, bool) {
	if depth > maxEmitDepth {
		return "", false
	}
	var sb []rune
	cur := entry
	for guard := 0; cur != graph.InvalidID && cur != stop; guard++ {
		if guard > a.g.NumNodes()*4+64 {
			return "", false
		}
		n := a.g.Node(cur)
		switch n.Kind {
		case graph.KindChar:
			sb = append(sb, n.Char)
			cur = n.Next

		case graph.KindSlice, graph.KindSliceBM:
			sb = append(sb, n.Buf...)
			cur = n.Next

		case graph.KindCharClass:
			cp, ok := a.repOf(a.classSet(n))
			if !ok {
				return "", false
			}
			sb = append(sb, cp)
			cur = n.Next

		case graph.KindAny, graph.KindAnyNL:
			cp, ok := a.repOf(a.dotSet)
			if !ok {
				return "", false
			}
			sb = append(sb, cp)
			cur = n.Next

		case graph.KindGroupHead:
			cur = n.Body

		case graph.KindAtomicGroup:
			s, ok := a.bodyString(n.Body, graph.InvalidID, take, depth+1)
			if !ok {
				return "", false
			}
			sb = append(sb, []rune(s)...)
			cur = n.Next

		case graph.KindQues:
			if take(cur) {
				s, ok := a.bodyString(n.Body, cur, take, depth+1)
				if !ok {
					return "", false
				}
				sb = append(sb, []rune(s)...)
			}
			cur = n.Next

		case graph.KindCurly:
			iters := n.Min
			if iters == 0 && take(cur) {
				iters = 1
			}
			if iters > repeatCap {
				iters = repeatCap
			}
			if iters > 0 {
				s, ok := a.bodyString(n.Body, cur, take, depth+1)
				if !ok {
					return "", false
				}
				for i := 0; i < iters; i++ {
					sb = append(sb, []rune(s)...)
				}
			}
			cur = n.Next

		case graph.KindBranch:
			best, bestOK := "", false
			for _, arm := range n.Branches {
				s, ok := a.bodyString(arm, n.Conn, take, depth+1)
				if !ok {
					continue
				}
				if !bestOK || len(s) < len(best) {
					best, bestOK = s, true
				}
			}
			if !bestOK {
				return "", false
			}
			sb = append(sb, []rune(best)...)
			cur = n.Conn

		case graph.KindAccept:
			cur = graph.InvalidID

		default:
			// Zero-width: anchors, bounds, tails, rejoins, prologues,
			// lookarounds, back-references (approximated as empty).
			cur = n.Next
		}
	}
	return string(sb), true
}

// maxOptionVariants bounds how many single-optional pump variants one
// repetition body contributes.
const maxOptionVariants = 6

// optionals collects the optional constructs (Ques, min-0 Curly) inside the
// sub-graph from entry, capped at maxOptionVariants.
func (a *Analyzer) optionals(entry, stop graph.ID) []graph.ID {
	var out []graph.ID
	seen := a.newSeen()
	stack := []graph.ID{entry}
	for len(stack) > 0 && len(out) < maxOptionVariants {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == stop || !seen.Add(id) {
			continue
		}
		n := a.g.Node(id)
		if n.Kind == graph.KindQues || (n.Kind == graph.KindCurly && n.Min == 0) {
			out = append(out, id)
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
	return out
}

// subtreeContains reports whether target is reachable inside the sub-graph
// from entry without crossing stop — used to decide whether the prefix walk
// must descend into a construct or may step over it. It traverses the raw
// execution edges, not the flattened side table: the stop node it must not
// cross is often a wrapper (a rejoin, a controller) that flattening would
// step straight over.
func (a *Analyzer) subtreeContains(entry, stop, target graph.ID) bool {
	seen := a.newSeen()
	stack := []graph.ID{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == stop || !seen.Add(id) {
			continue
		}
		if id == target {
			return true
		}
		n := a.g.Node(id)
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
	return false
}

// buildPrefix walks from the pattern start toward the repetition at target
// along the attacker-order DirectNext edges, emitting one representative
// code point for every node that must consume input on the way. A construct
// whose sub-graph contains target is entered through its SubNext descent
// edge (or the containing alternation arm); everything else is stepped over
// with a minimal match. Because DirectNext flattens group boundaries,
// rejoins, and loop prologues, the walk only ever stands on nodes the
// attacker can observe.
func (a *Analyzer) buildPrefix(target graph.ID) (string, bool) {
	var sb []rune
	cur := graph.FlattenFirst(a.g, a.g.Root)
	for guard := 0; cur != graph.InvalidID && cur != target; guard++ {
		if guard > a.g.NumNodes()*4+64 {
			return "", false
		}
		n := a.g.Node(cur)
		switch n.Kind {
		case graph.KindChar:
			sb = append(sb, n.Char)

		case graph.KindSlice, graph.KindSliceBM:
			sb = append(sb, n.Buf...)

		case graph.KindCharClass:
			cp, ok := a.repOf(a.classSet(n))
			if !ok {
				return "", false
			}
			sb = append(sb, cp)

		case graph.KindAny, graph.KindAnyNL:
			cp, ok := a.repOf(a.dotSet)
			if !ok {
				return "", false
			}
			sb = append(sb, cp)

		case graph.KindQues:
			if a.subtreeContains(n.Body, cur, target) {
				cur = a.g.SubNext(cur)
				continue
			}

		case graph.KindCurly:
			if a.subtreeContains(n.Body, cur, target) {
				cur = a.g.SubNext(cur)
				continue
			}
			if n.Min > 0 {
				s, ok := a.bodyString(a.g.SubNext(cur), cur, takeNone, 0)
				if !ok {
					return "", false
				}
				iters := n.Min
				if iters > repeatCap {
					iters = repeatCap
				}
				for i := 0; i < iters; i++ {
					sb = append(sb, []rune(s)...)
				}
			}

		case graph.KindBranch:
			descended := false
			for _, arm := range n.Branches {
				if a.subtreeContains(arm, n.Conn, target) {
					cur = graph.FlattenFirst(a.g, arm)
					descended = true
					break
				}
			}
			if descended {
				continue
			}
			// Step over the whole alternation with its minimal match.
			best, bestOK := "", false
			for _, arm := range n.Branches {
				s, ok := a.bodyString(arm, n.Conn, takeNone, 0)
				if !ok {
					continue
				}
				if !bestOK || len(s) < len(best) {
					best, bestOK = s, true
				}
			}
			if !bestOK {
				return "", false
			}
			sb = append(sb, []rune(best)...)

		case graph.KindAtomicGroup:
			if a.subtreeContains(n.Body, graph.InvalidID, target) {
				cur = a.g.SubNext(cur)
				continue
			}
			s, ok := a.bodyString(n.Body, graph.InvalidID, takeNone, 0)
			if !ok {
				return "", false
			}
			sb = append(sb, []rune(s)...)

		case graph.KindLookahead, graph.KindLookbehind:
			if a.subtreeContains(n.Body, graph.InvalidID, target) {
				cur = a.g.SubNext(cur)
				continue
			}

		case graph.KindAccept:
			return "", false
		}
		cur = a.g.DirectNext(cur)
	}
	if cur != target {
		return "", false
	}
	return string(sb), true
}

// buildSuffix chooses a continuation-violating tail for repetition R: a
// code point outside both follow(R) and the body's first-set, so
// the continuation rejects it and the loop cannot absorb it either. When
// every universe character is legal after R, the empty string serves
// instead, provided the continuation still requires input — end-of-input is
// then itself the violation.
func (a *Analyzer) buildSuffix(R *graph.Node, bodyFirst *charset.Set) string {
	avoid := a.followSet(R).Union(bodyFirst)
	if cp, ok := a.repOutside(avoid); ok {
		return string(cp)
	}
	if minNext, _ := graph.Study(a.g, a.g.DirectNext(R.ID), graph.InvalidID); minNext > 0 {
		return ""
	}
	if cp, ok := a.repOf(a.universe); ok {
		return string(cp)
	}
	return "!"
}
