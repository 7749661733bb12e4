// Package redosx statically analyzes regular-expression patterns for
// catastrophic backtracking (ReDoS) and synthesizes concrete attack strings
// that demonstrate each vulnerability.
//
// The module carries its own full backtracking engine — tokenizer, parser,
// match-node graph, and an instrumented recursive interpreter — because the
// analysis depends on observing how many steps a backtracking matcher
// actually spends on a synthesized input. Safe linear engines hide exactly
// the blowup this package exists to expose.
//
// Basic usage:
//
//	p, err := redosx.Compile(`^(a+)+$`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range p.Analyze(100_000) {
//	    fmt.Printf("vulnerable: pump %q suffix %q (%d steps)\n", f.Pump, f.Suffix, f.Steps)
//	}
//
// The pattern can also be used as an ordinary (deliberately unprotected)
// matcher:
//
//	ok, err := p.Matches("aaaaaaa", 10_000)
//	if redosx.IsBudgetExceeded(err) {
//	    // the input drove the matcher past 10k steps
//	}
//
// A compiled Pattern is immutable and safe for concurrent use; every match
// call owns its own scratch state.
package redosx

import (
	"github.com/coregx/redosx/analyzer"
	"github.com/coregx/redosx/backtrack"
	"github.com/coregx/redosx/graph"
	"github.com/coregx/redosx/parser"
)

// Flags re-exports the parser's compile-flag bitmask so callers don't need
// to import the parser package for the common case.
type Flags = parser.Flags

const (
	CaseInsensitive  = parser.CaseInsensitive
	Multiline        = parser.Multiline
	DotAll           = parser.DotAll
	UnixLines        = parser.UnixLines
	Comments         = parser.Comments
	Literal          = parser.Literal
	UnicodeCase      = parser.UnicodeCase
	UnicodeCharClass = parser.UnicodeCharClass
	CanonEq          = parser.CanonEq
)

// Pattern is a compiled regular expression bound to the backtracking
// interpreter and the ReDoS analyzer.
type Pattern struct {
	src   string
	graph *graph.Graph
	in    *backtrack.Interpreter
}

// Compile parses pattern with no flags.
func Compile(pattern string) (*Pattern, error) {
	return CompileFlags(pattern, 0)
}

// CompileFlags parses pattern under the given flag mask. Inline (?flags)
// groups override the mask from their position onward.
func CompileFlags(pattern string, flags Flags) (*Pattern, error) {
	g, err := parser.Parse(pattern, flags, nil)
	if err != nil {
		return nil, err
	}
	return &Pattern{src: pattern, graph: g, in: backtrack.New(g)}, nil
}

// MustCompile is Compile for patterns known valid at build time; it panics
// on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern text.
func (p *Pattern) String() string { return p.src }

// Graph exposes the compiled match graph for callers that drive the
// analyzer or interpreter directly.
func (p *Pattern) Graph() *graph.Graph { return p.graph }

// Matches anchors at the start of input and reports whether the entire
// input matches. budget bounds the interpreter's steps; 0 means unlimited.
func (p *Pattern) Matches(input string, budget uint64) (bool, error) {
	return p.in.Matches(input, budget)
}

// Find searches input for the first matching substring at or after from.
// It returns nil on a clean non-match.
func (p *Pattern) Find(input string, from int, budget uint64) (*backtrack.Result, error) {
	return p.in.Find(input, from, budget)
}

// FindAll collects every non-overlapping match.
func (p *Pattern) FindAll(input string, budget uint64) ([]backtrack.Result, error) {
	return p.in.FindAll(input, budget)
}

// Split divides input on every non-overlapping match.
func (p *Pattern) Split(input string, budget uint64) ([]string, error) {
	return p.in.Split(input, budget)
}

// Replace substitutes every non-overlapping match with repl.
func (p *Pattern) Replace(input, repl string, budget uint64) (string, error) {
	return p.in.Replace(input, repl, budget)
}

// Analyze runs the ReDoS analysis with the given validation step threshold
// (0 meaning the analyzer default) and returns the confirmed attacks.
func (p *Pattern) Analyze(threshold uint64) []analyzer.Finding {
	return analyzer.Analyze(p.graph, threshold)
}

// AnalyzeWith runs the ReDoS analysis under an explicit configuration and
// also returns what the analysis examined.
func (p *Pattern) AnalyzeWith(cfg analyzer.Config) ([]analyzer.Finding, analyzer.Stats) {
	a := analyzer.New(p.graph, cfg)
	findings := a.Run()
	return findings, a.Stats()
}

// Analyze is the one-call form: compile pattern and analyze it.
func Analyze(pattern string, threshold uint64) ([]analyzer.Finding, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return p.Analyze(threshold), nil
}

// IsBudgetExceeded reports whether err is the interpreter's step-budget
// abort, re-exported so callers of this package's surface don't need to
// import backtrack.
func IsBudgetExceeded(err error) bool {
	return backtrack.IsBudgetExceeded(err)
}
