package backtrack

import "github.com/coregx/redosx/graph"

// bmScan finds the next offset at or after from where the Boyer-Moore slice
// at the graph root could match, shifting by the maximum of the parser's
// precomputed bad-character and good-suffix tables. Returns -1 when no
// further candidate start exists. Only unanchored search uses this; an
// anchored match compares the slice in place like any other node.
func bmScan(text []rune, n *graph.Node, from int) int {
	m := len(n.Buf)
	for i := from; i+m <= len(text); {
		j := m - 1
		for j >= 0 && text[i+j] == n.Buf[j] {
			j--
		}
		if j < 0 {
			return i
		}
		shift := j - bmLastOcc(n, text[i+j])
		if good := n.BMGoodSuffix[j+1]; good > shift {
			shift = good
		}
		if shift < 1 {
			shift = 1
		}
		i += shift
	}
	return -1
}

// bmLastOcc looks up the bad-character table. The table is keyed by the
// low-7-bit alias of the rune, so non-ASCII input degrades to a
// conservative shift rather than a wrong one.
func bmLastOcc(n *graph.Node, r rune) int {
	if idx, ok := n.BMLastOcc[r&0x7F]; ok {
		return idx
	}
	return -1
}
