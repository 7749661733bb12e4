// Package analyzer statically detects catastrophic-backtracking (ReDoS)
// vulnerabilities in a compiled match graph and synthesizes concrete attack
// strings of the form prefix·pump^k·suffix that demonstrate them.
//
// For every non-possessive repetition in the graph the analyzer proposes
// candidate pump strings from the repetition body's structure (overlapping
// alternation arms, nested quantifiers, minimal body matches), builds a
// prefix that steers the matcher to the repetition and a suffix that breaks
// the continuation after it, and then scores each candidate empirically: the
// backtracking interpreter is run over the synthesized input under a step
// budget, and a BudgetExceeded abort is the confirmation that the candidate
// explodes. A non-vulnerable pattern therefore yields an empty finding list,
// never an error.
//
// Basic usage:
//
//	g, err := parser.Parse(`^(a+)+$`, 0, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range analyzer.Analyze(g, 100_000) {
//	    fmt.Printf("pump %q, suffix %q, %d steps\n", f.Pump, f.Suffix, f.Steps)
//	}
package analyzer

import (
	"errors"
	"sort"
	"strings"

	"github.com/coregx/redosx/backtrack"
	"github.com/coregx/redosx/charset"
	"github.com/coregx/redosx/graph"
	"github.com/coregx/redosx/internal/nodeset"
)

// Config controls analysis behavior.
type Config struct {
	// Threshold is the step budget handed to every validation match. A
	// candidate attack is confirmed exactly when the interpreter aborts
	// with BudgetExceeded under this budget; the analyzer swallows the
	// abort and records it as evidence.
	Threshold uint64

	// PumpCount is the initial number of pump repetitions k. Validation
	// doubles k until the budget trips or the attack string would exceed
	// MaxAttackLen, so a small default still confirms slow-growing
	// polynomial blowups.
	PumpCount int

	// MaxAttackLen bounds the length of any synthesized attack string.
	MaxAttackLen int

	// MaxPumpLen discards structurally derived pump candidates longer than
	// this before validation.
	MaxPumpLen int

	// Universe overrides the bounded alphabet that categorical sets
	// materialize against and that attack characters are drawn from. Nil
	// means charset.DefaultUniverse().
	Universe *charset.Set
}

// DefaultConfig returns the analysis defaults: a 100k-step validation
// budget and a starting pump count of 7.
func DefaultConfig() Config {
	return Config{
		Threshold:    100_000,
		PumpCount:    7,
		MaxAttackLen: 4096,
		MaxPumpLen:   64,
	}
}

// Validate reports whether c is usable.
func (c Config) Validate() error {
	if c.Threshold == 0 {
		return errors.New("analyzer: Threshold must be positive; an unlimited budget can never confirm a blowup")
	}
	if c.PumpCount < 1 {
		return errors.New("analyzer: PumpCount must be at least 1")
	}
	if c.MaxAttackLen < c.PumpCount {
		return errors.New("analyzer: MaxAttackLen too small for PumpCount")
	}
	return nil
}

// Finding is one confirmed vulnerability: matching Prefix+Pump^k+Suffix
// drove the interpreter past the configured step budget.
type Finding struct {
	Prefix string
	Pump   string
	Suffix string

	// Steps is the observed step count at the moment the budget tripped.
	Steps uint64

	// NodeSpan is the [begin, end) span in the original pattern text of
	// the repetition the attack targets.
	NodeSpan [2]int
}

// Stats counts what one analysis examined.
type Stats struct {
	RepetitionsExamined int
	CandidatesTried     int
	FindingsCount       int
}

// Analyzer runs the ReDoS analysis for one graph. It owns its interpreter
// invocations and is single-threaded per analysis; analyzing different
// patterns concurrently needs one Analyzer each.
type Analyzer struct {
	g   *graph.Graph
	in  *backtrack.Interpreter
	cfg Config

	universe *charset.Set
	dotSet   *charset.Set

	stats Stats
}

// New builds an Analyzer over g. cfg zero-fields fall back to
// DefaultConfig values.
func New(g *graph.Graph, cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.PumpCount == 0 {
		cfg.PumpCount = def.PumpCount
	}
	if cfg.MaxAttackLen == 0 {
		cfg.MaxAttackLen = def.MaxAttackLen
	}
	if cfg.MaxPumpLen == 0 {
		cfg.MaxPumpLen = def.MaxPumpLen
	}
	universe := cfg.Universe
	if universe == nil {
		universe = charset.DefaultUniverse()
	}
	newline := charset.New()
	newline.Add('\n')
	return &Analyzer{
		g:        g,
		in:       backtrack.New(g),
		cfg:      cfg,
		universe: universe,
		dotSet:   universe.Difference(newline),
	}
}

// Analyze runs a full analysis of g with default configuration and the
// given step threshold (0 meaning the default threshold).
func Analyze(g *graph.Graph, threshold uint64) []Finding {
	cfg := DefaultConfig()
	if threshold != 0 {
		cfg.Threshold = threshold
	}
	return New(g, cfg).Run()
}

// Stats returns what the last Run examined.
func (a *Analyzer) Stats() Stats { return a.stats }

// Run walks the graph, examines every backtracking repetition, and returns
// the confirmed findings ordered by pattern position. A pattern with no
// vulnerable repetition yields an empty (nil) list.
func (a *Analyzer) Run() []Finding {
	a.stats = Stats{}
	var findings []Finding
	// Nested repetitions are often confirmed by the identical attack (the
	// inner and outer loop of `^(a+)+$` both validate against a^k·"!");
	// reporting the triple once keeps one finding per distinct attack.
	reported := map[[3]string]bool{}

	for i := 0; i < a.g.NumNodes(); i++ {
		n := a.g.Node(graph.ID(i))
		if n.Kind != graph.KindCurly || n.Mode == graph.Possessive {
			continue
		}
		if n.Max != graph.Unbounded && n.Max <= 1 {
			continue
		}
		a.stats.RepetitionsExamined++

		prefix, ok := a.buildPrefix(n.ID)
		if !ok {
			continue
		}
		bodyFirst := a.firstSet(a.g.SubNext(n.ID), n.ID, a.newSeen())
		suffix := a.buildSuffix(n, bodyFirst)

		for _, cand := range a.candidatePumps(n) {
			a.stats.CandidatesTried++
			steps, exploded := a.validate(prefix, cand.s, suffix)
			if !exploded {
				continue
			}
			key := [3]string{prefix, cand.s, suffix}
			if reported[key] {
				break
			}
			reported[key] = true
			findings = append(findings, Finding{
				Prefix:   prefix,
				Pump:     cand.s,
				Suffix:   suffix,
				Steps:    steps,
				NodeSpan: [2]int{n.BeginCursor, n.EndCursor},
			})
			a.stats.FindingsCount++
			break
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].NodeSpan[0] < findings[j].NodeSpan[0]
	})
	return findings
}

// validate scores one candidate attack: it matches
// prefix·pump^k·suffix under the configured budget, doubling k while the
// attack stays under MaxAttackLen. The cost of a rejected candidate is
// bounded by Threshold steps per attempt.
func (a *Analyzer) validate(prefix, pump, suffix string) (uint64, bool) {
	if pump == "" {
		return 0, false
	}
	k := a.cfg.PumpCount
	for {
		attack := prefix + strings.Repeat(pump, k) + suffix
		_, steps, err := a.in.MatchesSteps(attack, a.cfg.Threshold)
		if backtrack.IsBudgetExceeded(err) {
			return steps, true
		}
		k *= 2
		if len(prefix)+len(suffix)+k*len(pump) > a.cfg.MaxAttackLen {
			return 0, false
		}
	}
}

// pumpCand pairs a candidate pump with the cardinality of the character set
// it was derived from, the analyzer's second tie-break key.
type pumpCand struct {
	s    string
	card int
}

// candidatePumps proposes pump strings for repetition R, ordered shortest
// first, then by smallest source-set cardinality. The body is entered
// through the SubNext side table, the analyzer's descent edge into a
// repetition body.
func (a *Analyzer) candidatePumps(R *graph.Node) []pumpCand {
	var cands []pumpCand
	body := a.g.SubNext(R.ID)

	cands = append(cands, a.overlapPumps(R)...)

	bodyCard := a.firstSet(body, R.ID, a.newSeen()).Intersect(a.universe).Count()
	if cp, card, ok := a.repOfCard(a.firstSet(body, R.ID, a.newSeen())); ok {
		cands = append(cands, pumpCand{string(cp), card})
	}
	if s, ok := a.bodyString(body, R.ID, takeNone, 0); ok && s != "" {
		cands = append(cands, pumpCand{s, bodyCard})
	}
	if s, ok := a.bodyString(body, R.ID, takeAll, 0); ok && s != "" {
		cands = append(cands, pumpCand{s, bodyCard})
	}
	// One variant per optional construct: exactly that optional taken, the
	// rest skipped. A blowup often needs one specific optional active to
	// make loop iterations ambiguous.
	for _, opt := range a.optionals(body, R.ID) {
		opt := opt
		s, ok := a.bodyString(body, R.ID, func(id graph.ID) bool { return id == opt }, 0)
		if ok && s != "" {
			cands = append(cands, pumpCand{s, bodyCard})
		}
	}

	// Dedup, drop overlong candidates, apply the tie-break order.
	seen := map[string]bool{}
	out := cands[:0]
	for _, c := range cands {
		if c.s == "" || len(c.s) > a.cfg.MaxPumpLen || seen[c.s] {
			continue
		}
		seen[c.s] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].s) != len(out[j].s) {
			return len(out[i].s) < len(out[j].s)
		}
		if out[i].card != out[j].card {
			return out[i].card < out[j].card
		}
		return out[i].s < out[j].s
	})
	return out
}

func (a *Analyzer) newSeen() *nodeset.Visited {
	return nodeset.New(a.g.NumNodes())
}
