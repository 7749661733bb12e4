package graph

// transparent reports whether a node kind is a bookkeeping wrapper the
// analyzer should see through when asking "what's the next real thing here"
// — capturing-group boundaries and the branch-rejoin guard consume no
// input and contribute nothing to a first/follow set of their own.
func transparent(k Kind) bool {
	switch k {
	case KindGroupHead, KindGroupTail, KindBranchConn, KindLoopPrologue:
		return true
	}
	return false
}

// FlattenFirst follows id through transparent wrapper nodes (descending
// into a group's Body rather than stepping over it) until it reaches a node
// the analyzer treats as "real": something that consumes input, asserts a
// position, branches, repeats, or terminates. It is exported so the
// analyzer can also flatten an individual alternation branch arm, which the
// Wire pass does not itself enumerate per-arm.
func FlattenFirst(g *Graph, id ID) ID {
	for i := 0; i < len(g.nodes)+1; i++ {
		if id == InvalidID {
			return InvalidID
		}
		n := g.Node(id)
		if !transparent(n.Kind) {
			return id
		}
		switch n.Kind {
		case KindGroupHead:
			id = n.Body
		default:
			id = n.Next
		}
	}
	return id // defensive: arena exhausted, pattern has an unexpected cycle
}

// Wire performs a single post-parse pass that sets
// DirectNext/SubNext/DirectPrev/DirectParent on every node, so the analyzer
// can walk the pattern the way an attacker experiences it rather than the
// way the interpreter's raw Next/Body pointers are wired for execution.
func Wire(g *Graph) {
	g.ensureWiring()
	// Wire runs again after literal collapsing rewires Next pointers; clear
	// every entry so no stale edge from the first pass survives.
	for i := range g.wiring {
		g.wiring[i] = wireEntry{InvalidID, InvalidID, InvalidID, InvalidID}
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		id := n.ID

		next := n.Next
		if n.Kind == KindBranch {
			// An alternation's own Next is unused (the arms funnel through
			// Conn); the attacker's next step is whatever follows the rejoin.
			next = n.Conn
		}
		directNext := FlattenFirst(g, next)
		g.wiring[id].directNext = directNext
		// Only a "real" node claims the prev edge; a transparent wrapper
		// reaching the same successor would otherwise shadow it.
		if directNext != InvalidID && !transparent(n.Kind) {
			g.wiring[directNext].directPrev = id
		}

		switch n.Kind {
		case KindGroupHead, KindCurly, KindQues, KindAtomicGroup, KindLookahead, KindLookbehind:
			sub := FlattenFirst(g, n.Body)
			g.wiring[id].subNext = sub
			if sub != InvalidID {
				g.wiring[sub].directParent = id
			}
		case KindBranch:
			for _, arm := range n.Branches {
				sub := FlattenFirst(g, arm)
				if sub != InvalidID {
					g.wiring[sub].directParent = id
				}
			}
		}
	}
}
