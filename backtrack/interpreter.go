// Package backtrack implements a recursive backtracking interpreter: a
// full-featured matcher over a graph.Graph with anchored/unanchored search,
// group capture, lookaround, greedy/lazy/possessive quantifiers,
// back-references, and a per-step instrumentation budget.
//
// Unlike a bounded backtracker built for production matching, this
// interpreter deliberately carries no visited-(state,position) memoization:
// the whole point of this package is to let pathological patterns actually
// explode under a pathological input, so the analyzer can observe and
// confirm that blowup through the step budget rather than have it silently
// capped away.
package backtrack

import (
	"github.com/coregx/redosx/graph"
)

// Interpreter runs one compiled graph.Graph. It is immutable and safe for
// concurrent use — exactly like graph.Graph itself — because all mutable
// per-call state lives in a pooled *MatcherState, never on the Interpreter.
// Every operation takes an explicit step budget; 0 means unlimited.
type Interpreter struct {
	g      *graph.Graph
	states *statePool

	minLen, maxLen int
}

// New builds an Interpreter over g. The graph's minimum consumed length is
// computed once up front; unanchored search uses it to skip start positions
// that cannot possibly yield a match.
func New(g *graph.Graph) *Interpreter {
	minLen, maxLen := graph.Study(g, g.Root, graph.InvalidID)
	return &Interpreter{g: g, states: newStatePool(), minLen: minLen, maxLen: maxLen}
}

// Result is the outcome of a Find call: the matched span plus capture
// groups, indexed [2*i, 2*i+1] = [start, end) for group i (group 0 is the
// whole match), -1 meaning "did not participate".
type Result struct {
	Start, End int
	Groups     []int
}

func (in *Interpreter) newState(input []rune, from, to int) *MatcherState {
	s := in.states.get()
	s.reset(input, from, to, in.g.NumCaptures())
	return s
}

// step is the single instrumentation point: every recursive match call passes
// through it before doing anything else, incrementing the step counter and
// panicking with *BudgetExceededError once the budget trips. Panic/recover
// is the idiomatic way to abort an arbitrarily deep recursive descent
// immediately, mirroring how encoding/json aborts its own recursive decode
// on a depth limit rather than threading an error return through every
// call frame.
func (in *Interpreter) step(state *MatcherState, id graph.ID, pos int) {
	state.stepCount++
	if state.stepBudget != 0 && state.stepCount > state.stepBudget {
		panic(&BudgetExceededError{Steps: state.stepCount, Budget: state.stepBudget})
	}
}

func runBudgeted(state *MatcherState, budget uint64, fn func() bool) (ok bool, err error) {
	state.stepBudget = budget
	defer func() {
		if r := recover(); r != nil {
			if be, isBudget := r.(*BudgetExceededError); isBudget {
				ok, err = false, be
				return
			}
			panic(r)
		}
	}()
	return fn(), nil
}

// Matches anchors at the start of input and succeeds only if the entire
// input is consumed.
func (in *Interpreter) Matches(input string, budget uint64) (bool, error) {
	ok, _, err := in.MatchesSteps(input, budget)
	return ok, err
}

// MatchesSteps is Matches plus the number of match steps the attempt
// consumed, whether it succeeded, failed, or tripped the budget. The
// partial step count on BudgetExceeded is observable by design: it is what
// the analyzer records as a finding's step cost.
func (in *Interpreter) MatchesSteps(input string, budget uint64) (bool, uint64, error) {
	runes := []rune(input)
	state := in.newState(runes, 0, len(runes))
	defer in.states.put(state)

	state.matchEntire = true
	ok, err := runBudgeted(state, budget, func() bool {
		return in.match(state, in.g.Root, 0) && state.last == len(runes)
	})
	return ok, state.stepCount, err
}

// Find searches for the first substring matching at or after from. It
// returns (nil, nil) on a clean non-match.
func (in *Interpreter) Find(input string, from int, budget uint64) (*Result, error) {
	runes := []rune(input)
	if from < 0 {
		from = 0
	}
	state := in.newState(runes, from, len(runes))
	defer in.states.put(state)

	// A pattern whose entry is a Boyer-Moore slice lets unanchored search
	// jump between candidate starts instead of probing every offset.
	var bm *graph.Node
	if root := in.g.Node(in.g.Root); root.Kind == graph.KindSliceBM {
		bm = root
	}

	var found bool
	var result Result
	_, err := runBudgeted(state, budget, func() bool {
		lastStart := len(runes) - in.minLen
		for start := from; start <= len(runes); start++ {
			if bm != nil {
				idx := bmScan(runes, bm, start)
				if idx < 0 {
					break
				}
				start = idx
			}
			if start > lastStart && in.minLen > 0 {
				break
			}
			state.groups[0] = start
			if in.match(state, in.g.Root, start) {
				found = true
				result = Result{Start: start, End: state.last, Groups: append([]int(nil), state.groups...)}
				result.Groups[0], result.Groups[1] = start, state.last
				return true
			}
			for i := range state.groups {
				state.groups[i] = -1
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &result, nil
}

// Stream invokes yield for each non-overlapping match of input in order,
// stopping early when yield returns false. Zero-length matches advance by
// one position so the stream always terminates.
func (in *Interpreter) Stream(input string, budget uint64, yield func(Result) bool) error {
	pos := 0
	n := len([]rune(input))
	for pos <= n {
		r, err := in.Find(input, pos, budget)
		if err != nil {
			return err
		}
		if r == nil {
			return nil
		}
		if !yield(*r) {
			return nil
		}
		if r.End == r.Start {
			pos = r.End + 1
		} else {
			pos = r.End
		}
	}
	return nil
}

// FindAll collects every non-overlapping match in order.
func (in *Interpreter) FindAll(input string, budget uint64) ([]Result, error) {
	var out []Result
	err := in.Stream(input, budget, func(r Result) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// MatchesTraced is Matches with an instrumentation sink attached: trace
// receives every (nodeID, position) the interpreter visits, in order. The
// sink is threaded through the per-call state rather than any global, so
// concurrent traced and untraced calls never interfere.
func (in *Interpreter) MatchesTraced(input string, budget uint64, trace func(nodeID uint32, pos int)) (bool, error) {
	runes := []rune(input)
	state := in.newState(runes, 0, len(runes))
	defer in.states.put(state)

	state.matchEntire = true
	state.trace = trace
	return runBudgeted(state, budget, func() bool {
		return in.match(state, in.g.Root, 0) && state.last == len(runes)
	})
}

// AsPredicate returns a func(string) bool backed by Find with the given
// budget, treating BudgetExceeded as "no".
func (in *Interpreter) AsPredicate(budget uint64) func(string) bool {
	return func(s string) bool {
		r, err := in.Find(s, 0, budget)
		return err == nil && r != nil
	}
}

// Split divides input on every non-overlapping match, the way
// strings.Split divides on a separator.
func (in *Interpreter) Split(input string, budget uint64) ([]string, error) {
	runes := []rune(input)
	var out []string
	pos := 0
	for pos <= len(runes) {
		r, err := in.Find(string(runes[pos:]), 0, budget)
		if err != nil {
			return nil, err
		}
		if r == nil {
			break
		}
		out = append(out, string(runes[pos:pos+r.Start]))
		if r.End == r.Start {
			pos += r.End + 1
		} else {
			pos += r.End
		}
	}
	out = append(out, string(runes[min(pos, len(runes)):]))
	return out, nil
}

// Replace substitutes every non-overlapping match of the pattern in input
// with repl. repl is
// taken literally; capture-group interpolation is left to callers that
// need it, matching the core's stated scope of a matching engine rather
// than a templating one.
func (in *Interpreter) Replace(input, repl string, budget uint64) (string, error) {
	runes := []rune(input)
	var b []rune
	pos := 0
	for pos <= len(runes) {
		r, err := in.Find(string(runes[pos:]), 0, budget)
		if err != nil {
			return "", err
		}
		if r == nil {
			break
		}
		b = append(b, runes[pos:pos+r.Start]...)
		b = append(b, []rune(repl)...)
		if r.End == r.Start {
			if pos+r.End < len(runes) {
				b = append(b, runes[pos+r.End])
			}
			pos += r.End + 1
		} else {
			pos += r.End
		}
	}
	if pos < len(runes) {
		b = append(b, runes[pos:]...)
	}
	return string(b), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
