package backtrack

import (
	"unicode"

	"github.com/coregx/redosx/graph"
)

// match is the single recursive entry point: each node variant is one case
// of its dispatch switch. Execution walks the
// parser's execution wiring directly (Node.Next/Body/Branches), not the
// analyzer-only DirectNext/SubNext side table — the two exist precisely so
// this hot path stays minimal.
//
// A successful match updates state.last (done once, at Accept or a
// possessive stopAt sentinel) and returns true up the call stack;
// failure returns false with every change this call made to group/loop
// state already unwound before control returns.
func (in *Interpreter) match(state *MatcherState, id graph.ID, pos int) bool {
	if id == graph.InvalidID {
		return false
	}
	in.step(state, id, pos)
	if state.trace != nil {
		state.trace(uint32(id), pos)
	}
	if id == state.stopAt {
		state.last = pos
		return true
	}

	n := in.g.Node(id)
	switch n.Kind {
	case graph.KindChar:
		if pos >= len(state.input) {
			state.hitEnd = true
			return false
		}
		c := state.input[pos]
		if c != n.Char && c != n.CharUp {
			return false
		}
		return in.match(state, n.Next, pos+1)

	case graph.KindCharClass:
		if pos >= len(state.input) {
			state.hitEnd = true
			return false
		}
		if n.Class.Contains(state.input[pos]) == n.Complemented {
			return false
		}
		return in.match(state, n.Next, pos+1)

	case graph.KindAny, graph.KindAnyNL:
		if pos >= len(state.input) {
			state.hitEnd = true
			return false
		}
		if n.Kind == graph.KindAny && state.input[pos] == '\n' {
			return false
		}
		return in.match(state, n.Next, pos+1)

	case graph.KindSlice, graph.KindSliceBM:
		if !matchSlice(state, n, pos) {
			return false
		}
		return in.match(state, n.Next, pos+len(n.Buf))

	case graph.KindBegin:
		if pos != state.from {
			return false
		}
		return in.match(state, n.Next, pos)

	case graph.KindEnd:
		if pos != len(state.input) {
			return false
		}
		state.requireEnd = true
		return in.match(state, n.Next, pos)

	case graph.KindLastMatch:
		if pos != state.from {
			return false
		}
		return in.match(state, n.Next, pos)

	case graph.KindCaret:
		if !matchCaret(state, n, pos) {
			return false
		}
		return in.match(state, n.Next, pos)

	case graph.KindDollar:
		if !matchDollar(state, n, pos) {
			return false
		}
		return in.match(state, n.Next, pos)

	case graph.KindBound:
		if !matchBound(state, n, pos) {
			return false
		}
		return in.match(state, n.Next, pos)

	case graph.KindGroupHead:
		return in.matchGroupHead(state, n, pos)

	case graph.KindGroupTail:
		return in.matchGroupTail(state, n, pos)

	case graph.KindAtomicGroup:
		if in.match(state, n.Body, pos) {
			return in.match(state, n.Next, state.last)
		}
		return false

	case graph.KindQues:
		return in.matchQues(state, n, pos)

	case graph.KindCurly:
		return in.matchCurly(state, n, pos)

	case graph.KindBranch:
		for _, arm := range n.Branches {
			if in.match(state, arm, pos) {
				return true
			}
		}
		return false

	case graph.KindBranchConn:
		return in.match(state, n.Next, pos)

	case graph.KindLoopPrologue:
		// Seed the controller's counter for a fresh run of the loop. Entry
		// from outside always passes through here; the loop-back edge from
		// the body tail bypasses it, so the counter survives across
		// iterations but not across re-entries from an enclosing repetition.
		counterPtr := state.counterSlot(n.LoopCounterSlot)
		lastPos := state.loopPosSlot(n.LoopCounterSlot)
		oldCount, oldPos := *counterPtr, *lastPos
		*counterPtr, *lastPos = 0, -1
		if in.match(state, n.Next, pos) {
			return true
		}
		*counterPtr, *lastPos = oldCount, oldPos
		return false

	case graph.KindBackRef:
		return in.matchBackRef(state, n, pos)

	case graph.KindLookahead:
		return in.matchLookahead(state, n, pos)

	case graph.KindLookbehind:
		return in.matchLookbehind(state, n, pos)

	case graph.KindAccept:
		// Only the graph's global accept enforces entire-input consumption;
		// the local accepts terminating lookaround and atomic-group bodies
		// must not (they end a sub-match, not the match).
		if state.matchEntire && id == in.g.Accept && pos != state.to {
			return false
		}
		state.last = pos
		return true
	}
	return false
}

func matchSlice(state *MatcherState, n *graph.Node, pos int) bool {
	if pos+len(n.Buf) > len(state.input) {
		state.hitEnd = true
		return false
	}
	for i, want := range n.Buf {
		if state.input[pos+i] != want {
			return false
		}
	}
	return true
}

func matchCaret(state *MatcherState, n *graph.Node, pos int) bool {
	if pos == 0 {
		return true
	}
	if !n.Multiline {
		return false
	}
	prev := state.input[pos-1]
	if n.UnixLines {
		return prev == '\n'
	}
	return prev == '\n' || prev == '\r' || prev == 0x2028 || prev == 0x2029 || prev == 0x85
}

func matchDollar(state *MatcherState, n *graph.Node, pos int) bool {
	if pos == len(state.input) {
		return true
	}
	if !n.Multiline {
		return false
	}
	cur := state.input[pos]
	if n.UnixLines {
		return cur == '\n'
	}
	return cur == '\n' || cur == '\r' || cur == 0x2028 || cur == 0x2029 || cur == 0x85
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func matchBound(state *MatcherState, n *graph.Node, pos int) bool {
	left := pos > 0 && isWordRune(state.input[pos-1])
	right := pos < len(state.input) && isWordRune(state.input[pos])
	switch n.Bound {
	case graph.BoundBoth:
		return left != right
	case graph.BoundNone:
		return left == right
	case graph.BoundLeft:
		return left
	case graph.BoundRight:
		return right
	}
	return false
}

func (in *Interpreter) matchGroupHead(state *MatcherState, n *graph.Node, pos int) bool {
	if n.GroupIndex == 0 {
		return in.match(state, n.Body, pos)
	}
	slot := 2 * n.GroupIndex
	old := state.groups[slot]
	state.groups[slot] = pos
	if in.match(state, n.Body, pos) {
		return true
	}
	state.groups[slot] = old
	return false
}

func (in *Interpreter) matchGroupTail(state *MatcherState, n *graph.Node, pos int) bool {
	if n.GroupIndex == 0 {
		return in.match(state, n.Next, pos)
	}
	slot := 2*n.GroupIndex + 1
	old := state.groups[slot]
	state.groups[slot] = pos
	if in.match(state, n.Next, pos) {
		return true
	}
	state.groups[slot] = old
	return false
}

func (in *Interpreter) matchBackRef(state *MatcherState, n *graph.Node, pos int) bool {
	s, e := state.groups[2*n.RefGroup], state.groups[2*n.RefGroup+1]
	if s < 0 || e < 0 {
		return false
	}
	length := e - s
	if pos+length > len(state.input) {
		state.hitEnd = true
		return false
	}
	for i := 0; i < length; i++ {
		a, b := state.input[s+i], state.input[pos+i]
		if a == b {
			continue
		}
		if n.RefCaseFold && unicode.ToLower(a) == unicode.ToLower(b) {
			continue
		}
		return false
	}
	return in.match(state, n.Next, pos+length)
}

// matchLookahead and matchLookbehind rely on the parser having patched the
// assertion body's tail to a dedicated local Accept node (finishLookaround)
// rather than the outer continuation, so a plain match
// call already stops exactly at the body's boundary without any stopAt
// sentinel — the assertion never rejoins the chain it was cut from.
func (in *Interpreter) matchLookahead(state *MatcherState, n *graph.Node, pos int) bool {
	ok := in.match(state, n.Body, pos)
	if n.Negative {
		ok = !ok
	}
	if !ok {
		return false
	}
	return in.match(state, n.Next, pos)
}

func (in *Interpreter) matchLookbehind(state *MatcherState, n *graph.Node, pos int) bool {
	found := false
	for length := n.MaxLen; length >= n.MinLen; length-- {
		start := pos - length
		if start < 0 {
			continue
		}
		if in.match(state, n.Body, start) && state.last == pos {
			found = true
			break
		}
	}
	if n.Negative {
		found = !found
	}
	if !found {
		return false
	}
	return in.match(state, n.Next, pos)
}

// matchBodyOnce runs body with id as a temporary local-accept sentinel,
// used only by possessive Curly/Ques: their body's tail is wired cyclically back
// to the controller node itself (not a dedicated Accept, unlike lookaround/
// atomic-group bodies), so stopAt is what lets one iteration be evaluated
// — with its own internal backtracking among its own alternatives — without
// the outer continuation's success or failure leaking back in and causing
// a "give back an iteration" retry.
func (in *Interpreter) matchBodyOnce(state *MatcherState, body, stopAt graph.ID, pos int) bool {
	saved := state.stopAt
	state.stopAt = stopAt
	ok := in.match(state, body, pos)
	state.stopAt = saved
	return ok
}
