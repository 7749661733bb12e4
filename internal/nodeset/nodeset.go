// Package nodeset tracks which match-graph nodes a traversal has already
// seen.
//
// Analyzer walks revisit nodes constantly: a repetition body's tail edge
// points back at its controller, alternation arms rejoin at a shared
// continuation, and nested constructs share suffixes. Every walk therefore
// needs a "have I been here" check that is cheap to consult and cheap to
// throw away. Visited is that check, sized once to a graph's arena so
// membership, insertion, and reuse are all O(1) with no per-walk clearing
// of the backing array.
package nodeset

import "github.com/coregx/redosx/graph"

// Visited records the node IDs one traversal has entered, in first-visit
// order. The zero value is not usable; size it to the owning graph's arena
// with New.
type Visited struct {
	// slot maps a node ID to its position in order; an entry is only
	// trusted when order[slot[id]] == id, so stale values from earlier
	// walks never need erasing.
	slot  []uint32
	order []graph.ID
}

// New returns a Visited for a graph whose arena holds arenaSize nodes.
func New(arenaSize int) *Visited {
	return &Visited{
		slot:  make([]uint32, arenaSize),
		order: make([]graph.ID, 0, arenaSize),
	}
}

// Has reports whether id was added since the last Reset.
func (v *Visited) Has(id graph.ID) bool {
	if int64(id) >= int64(len(v.slot)) {
		return false
	}
	i := v.slot[id]
	return int(i) < len(v.order) && v.order[i] == id
}

// Add marks id visited and reports whether it was newly added, so walks
// collapse their guard to `if !seen.Add(id) { continue }`. An ID outside
// the arena — including graph.InvalidID — is rejected without panicking.
func (v *Visited) Add(id graph.ID) bool {
	if int64(id) >= int64(len(v.slot)) || v.Has(id) {
		return false
	}
	v.slot[id] = uint32(len(v.order))
	v.order = append(v.order, id)
	return true
}

// Reset empties the set for the next walk over the same graph.
func (v *Visited) Reset() {
	v.order = v.order[:0]
}

// Order returns the visited IDs in first-visit order. The slice is valid
// until the next Add or Reset.
func (v *Visited) Order() []graph.ID {
	return v.order
}
