package graph

// NodeSource is the minimal read interface Study needs, satisfied by both
// *Builder (mid-parse, for look-behind bound validation before Finish) and
// *Graph (post-parse, for the interpreter's unanchored-starter minLength
// optimization). See GLOSSARY: "Study — a static analysis over the graph
// producing minLength, maxLength, maxValid, deterministic".
type NodeSource interface {
	Node(id ID) *Node
}

// Unbounded is the Study sentinel for "no finite upper bound".
const Unbounded = -1

// maxStudyDepth guards against infinite recursion on a cyclic sub-graph (a
// repetition's body pointing back to its own controller) by capping depth
// rather than tracking visited IDs — cycles in a body can only occur
// through nodes Study already treats as a fixed-cost unit (KindCurly/
// KindQues contribute their own bound without recursing into the cycle
// edge), so a generous depth cap is a backstop, not the primary guard.
const maxStudyDepth = 10000

// Study computes the minimum and maximum number of input units a sub-graph
// rooted at head can consume before reaching term (inclusive) or, if term
// is InvalidID, before reaching any terminal (Accept or a dead end). It
// returns Unbounded for max when the consumed length has no finite cap.
func Study(src NodeSource, head, term ID) (min, max int) {
	return study(src, head, term, 0)
}

func study(src NodeSource, id, term ID, depth int) (min, max int) {
	if id == InvalidID || id == term || depth > maxStudyDepth {
		return 0, 0
	}
	n := src.Node(id)

	switch n.Kind {
	case KindChar, KindAny, KindAnyNL, KindCharClass:
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(1, 1, nlo, nhi)
	case KindSlice, KindSliceBM:
		l := len(n.Buf)
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(l, l, nlo, nhi)
	case KindGroupHead:
		// A group's consumed length lives in its body; the body chain flows
		// out through the group tail, so the study continues past the group
		// on its own.
		return study(src, n.Body, term, depth+1)
	case KindBegin, KindEnd, KindCaret, KindDollar, KindBound, KindLastMatch,
		KindGroupTail, KindBranchConn, KindLoopPrologue,
		KindLookahead, KindLookbehind:
		return study(src, n.Next, term, depth+1)
	case KindAtomicGroup:
		bmin, bmax := study(src, n.Body, InvalidID, depth+1)
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(bmin, bmax, nlo, nhi)
	case KindBackRef:
		// A back-reference's length depends on runtime capture content;
		// treat it as variable-but-possibly-empty for static bounds.
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(0, Unbounded, nlo, nhi)
	case KindQues:
		_, bmax := study(src, n.Body, id, depth+1)
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(0, bmax, nlo, nhi)
	case KindCurly:
		bmin, bmax := study(src, n.Body, id, depth+1)
		lo := n.Min * bmin
		var hi int
		if n.Max == Unbounded || bmax == Unbounded {
			hi = Unbounded
		} else {
			hi = n.Max * bmax
		}
		nlo, nhi := study(src, n.Next, term, depth+1)
		return addBound(lo, hi, nlo, nhi)
	case KindBranch:
		lo, hi := Unbounded, 0
		for _, arm := range n.Branches {
			amin, amax := study(src, arm, n.Conn, depth+1)
			if lo == Unbounded || amin < lo {
				lo = amin
			}
			if hi != Unbounded {
				if amax == Unbounded {
					hi = Unbounded
				} else if amax > hi {
					hi = amax
				}
			}
		}
		if lo == Unbounded {
			lo = 0
		}
		connMin, connMax := study(src, n.Conn, term, depth+1)
		return addBound(lo, hi, connMin, connMax)
	case KindAccept:
		return 0, 0
	default:
		return study(src, n.Next, term, depth+1)
	}
}

func addBound(lo1, hi1, lo2, hi2 int) (int, int) {
	lo := lo1 + lo2
	var hi int
	if hi1 == Unbounded || hi2 == Unbounded {
		hi = Unbounded
	} else {
		hi = hi1 + hi2
	}
	return lo, hi
}
