package backtrack

import (
	"sync"

	"github.com/coregx/redosx/graph"
)

// MatcherState is the per-call scratch object: the input sequence, region
// bounds, capture slots, loop counters, and the instrumentation counters
// the analyzer depends on. Its lifetime is exactly one Matches/Find call —
// never shared between goroutines; one mutable state object per concurrent
// search, pooled rather than allocated fresh each time.
type MatcherState struct {
	input []rune

	from, to int // search region bounds

	first, last int // first/last match indices (last == -1 until a match commits)

	// groups holds [start,end] pairs, indexed 2*groupIndex/2*groupIndex+1.
	// groups[0:2] is the whole match (group 0).
	groups []int

	// counters backs non-deterministic loop controllers keyed by
	// Node.LoopCounterSlot.
	counters []int

	hitEnd     bool
	requireEnd bool

	// matchEntire makes the global Accept node reject unless the whole
	// region is consumed, so Matches backtracks into shorter alternatives
	// instead of settling for a partial match (`a|ab` against "ab" must
	// retry the second arm).
	matchEntire bool

	// lookBehindFloor is reset to 0 for every call and is not otherwise
	// read or written; a look-behind body is bounded by the node's
	// MinLen/MaxLen and the start of the input alone.
	lookBehindFloor int

	stepCount  uint64
	stepBudget uint64

	// trace is the optional instrumentation sink: when
	// non-nil it receives every (nodeID, position) the interpreter visits.
	// The analyzer leaves it nil — it only needs the aggregate step count —
	// but it is threaded through every call so a caller debugging a pattern
	// can attach one without any global state.
	trace func(nodeID uint32, pos int)

	// stopAt, when not graph.InvalidID, makes match() treat that node ID as
	// an immediate local accept rather than dispatching it normally. It
	// implements the possessive "commit, no backtracking into me from
	// outside" discipline: a body is matched against its own internal
	// choices only, bounded by this sentinel, before the caller decides
	// whether to continue. Saved and restored around each such sub-match so
	// nested possessive constructs compose correctly. Atomic groups do not
	// use it; their bodies end at a local Accept node instead.
	stopAt graph.ID

	// loopPos parallels counters: the position at which loop slot i was last
	// entered, used to detect and break zero-width repetition.
	loopPos []int
}

func (s *MatcherState) reset(input []rune, from, to int, numCaptures int) {
	s.input = input
	s.from = from
	s.to = to
	s.first, s.last = -1, -1
	s.hitEnd = false
	s.requireEnd = false
	s.matchEntire = false
	s.lookBehindFloor = 0
	s.stepCount = 0
	s.trace = nil
	s.stopAt = graph.InvalidID

	need := numCaptures * 2
	if cap(s.groups) >= need {
		s.groups = s.groups[:need]
	} else {
		s.groups = make([]int, need)
	}
	for i := range s.groups {
		s.groups[i] = -1
	}
	// counters/loopPos grow lazily in matchCurly/matchQues; just clear what's
	// already there.
	for i := range s.counters {
		s.counters[i] = 0
	}
	for i := range s.loopPos {
		s.loopPos[i] = -1
	}
}

func (s *MatcherState) counterSlot(slot int) *int {
	for len(s.counters) <= slot {
		s.counters = append(s.counters, 0)
	}
	return &s.counters[slot]
}

func (s *MatcherState) loopPosSlot(slot int) *int {
	for len(s.loopPos) <= slot {
		s.loopPos = append(s.loopPos, -1)
	}
	return &s.loopPos[slot]
}

// statePool recycles MatcherState objects the way meta.searchStatePool
// recycles SearchState: per-call state is expensive to zero from scratch
// (capture slots, loop counters) but cheap to reuse across calls on the same
// Interpreter.
type statePool struct {
	pool sync.Pool
}

func newStatePool() *statePool {
	return &statePool{pool: sync.Pool{New: func() any { return &MatcherState{} }}}
}

func (p *statePool) get() *MatcherState {
	return p.pool.Get().(*MatcherState)
}

func (p *statePool) put(s *MatcherState) {
	if s == nil {
		return
	}
	p.pool.Put(s)
}
