package backtrack

import "github.com/coregx/redosx/graph"

// matchCurly dispatches a {m,n} controller by repetition discipline.
// Greedy and lazy reuse the cyclic wiring the parser gave the node (the
// body's tail Next is this same node's ID, per parser.parseQuantifier): a
// successful body match naturally recurses back into this function with an
// incremented counter, so the "retry with one fewer iteration on downstream
// failure" behavior falls out of plain recursion plus a loop-slot counter,
// with no separate bookkeeping needed. Possessive commits iterations one at
// a time via matchBodyOnce, since it alone must not let the rest of the
// pattern's success or failure influence how many iterations it takes.
func (in *Interpreter) matchCurly(state *MatcherState, n *graph.Node, pos int) bool {
	switch n.Mode {
	case graph.Possessive:
		return in.matchCurlyPossessive(state, n, pos)
	case graph.Lazy:
		return in.matchCurlyLazy(state, n, pos)
	default:
		return in.matchCurlyGreedy(state, n, pos)
	}
}

func (in *Interpreter) matchCurlyGreedy(state *MatcherState, n *graph.Node, pos int) bool {
	counterPtr := state.counterSlot(n.LoopCounterSlot)
	lastPos := state.loopPosSlot(n.LoopCounterSlot)
	count := *counterPtr

	if count < n.Min {
		*counterPtr = count + 1
		ok := in.match(state, n.Body, pos)
		if !ok {
			*counterPtr = count
		}
		return ok
	}
	if n.Max != -1 && count >= n.Max {
		return in.match(state, n.Next, pos)
	}
	if *lastPos == pos && count > n.Min {
		// Re-entering at the same position we last extended from means the
		// body matched zero-length; extending further would loop forever.
		return in.match(state, n.Next, pos)
	}

	oldPos := *lastPos
	*lastPos = pos
	*counterPtr = count + 1
	if in.match(state, n.Body, pos) {
		return true
	}
	*counterPtr = count
	*lastPos = oldPos
	return in.match(state, n.Next, pos)
}

func (in *Interpreter) matchCurlyLazy(state *MatcherState, n *graph.Node, pos int) bool {
	counterPtr := state.counterSlot(n.LoopCounterSlot)
	lastPos := state.loopPosSlot(n.LoopCounterSlot)
	count := *counterPtr

	if count < n.Min {
		*counterPtr = count + 1
		ok := in.match(state, n.Body, pos)
		if !ok {
			*counterPtr = count
		}
		return ok
	}
	if in.match(state, n.Next, pos) {
		return true
	}
	if n.Max != -1 && count >= n.Max {
		return false
	}
	if *lastPos == pos && count > n.Min {
		return false
	}

	oldPos := *lastPos
	*lastPos = pos
	*counterPtr = count + 1
	if in.match(state, n.Body, pos) {
		return true
	}
	*counterPtr = count
	*lastPos = oldPos
	return false
}

func (in *Interpreter) matchCurlyPossessive(state *MatcherState, n *graph.Node, pos int) bool {
	count := 0
	cur := pos
	for n.Max == -1 || count < n.Max {
		if !in.matchBodyOnce(state, n.Body, n.ID, cur) {
			break
		}
		next := state.last
		if next == cur && count >= n.Min {
			break
		}
		cur = next
		count++
	}
	if count < n.Min {
		return false
	}
	return in.match(state, n.Next, cur)
}

// matchQues is Curly specialized to {0,1}: the parser assigns it its own
// LoopCounterSlot so the same "have I already gone through body once" test
// applies, but min is always 0 so there is no mandatory-iteration branch.
func (in *Interpreter) matchQues(state *MatcherState, n *graph.Node, pos int) bool {
	switch n.Mode {
	case graph.Possessive:
		if in.matchBodyOnce(state, n.Body, n.ID, pos) {
			return in.match(state, n.Next, state.last)
		}
		return in.match(state, n.Next, pos)

	case graph.Lazy:
		counterPtr := state.counterSlot(n.LoopCounterSlot)
		if *counterPtr >= 1 {
			return in.match(state, n.Next, pos)
		}
		if in.match(state, n.Next, pos) {
			return true
		}
		*counterPtr = 1
		if in.match(state, n.Body, pos) {
			return true
		}
		*counterPtr = 0
		return false

	default: // Greedy
		counterPtr := state.counterSlot(n.LoopCounterSlot)
		if *counterPtr >= 1 {
			return in.match(state, n.Next, pos)
		}
		*counterPtr = 1
		if in.match(state, n.Body, pos) {
			return true
		}
		*counterPtr = 0
		return in.match(state, n.Next, pos)
	}
}
