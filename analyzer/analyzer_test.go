package analyzer_test

import (
	"strings"
	"testing"

	"github.com/coregx/redosx/analyzer"
	"github.com/coregx/redosx/backtrack"
	"github.com/coregx/redosx/graph"
	"github.com/coregx/redosx/parser"
)

func compile(t *testing.T, pattern string) *graph.Graph {
	t.Helper()
	g, err := parser.Parse(pattern, 0, nil)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}
	return g
}

func TestNestedQuantifierExponential(t *testing.T) {
	g := compile(t, `^(a+)+$`)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1: %+v", len(findings), findings)
	}
	f := findings[0]
	if f.Prefix != "" {
		t.Errorf("prefix = %q, want empty", f.Prefix)
	}
	if f.Pump != "a" {
		t.Errorf("pump = %q, want \"a\"", f.Pump)
	}
	if f.Suffix == "" || strings.ContainsRune(f.Suffix, 'a') {
		t.Errorf("suffix = %q, want a non-empty non-a string", f.Suffix)
	}
	if f.Steps <= 100_000 {
		t.Errorf("steps = %d, want above the threshold", f.Steps)
	}
}

func TestOverlappingAlternationExponential(t *testing.T) {
	g := compile(t, `^(a|a)+$`)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1: %+v", len(findings), findings)
	}
	f := findings[0]
	if f.Pump != "a" || f.Prefix != "" {
		t.Errorf("finding = %+v, want pump \"a\" with empty prefix", f)
	}
}

// Exponential blowups at least double the step count per added pump unit.
func TestExponentialStepDoubling(t *testing.T) {
	g := compile(t, `^(a|a)+$`)
	in := backtrack.New(g)

	var prev uint64
	for n := 9; n <= 13; n++ {
		input := strings.Repeat("a", n) + "!"
		ok, steps, err := in.MatchesSteps(input, 0)
		if ok || err != nil {
			t.Fatalf("MatchesSteps(%d a's) = %v, %v", n, ok, err)
		}
		if prev != 0 && steps < 2*prev-prev/2 {
			t.Fatalf("steps at n=%d is %d, want at least ~2x previous %d", n, steps, prev)
		}
		prev = steps
	}
}

func TestLinearPatternsYieldNoFindings(t *testing.T) {
	patterns := []string{
		`a+`,
		`a*b`,
		`a{3,5}c`,
		`(?>a*)b`,
		`(?>a+)+`, // inner loop is shielded by the atomic group
		`a*+b`,
		`a++b`,
		`abc`,
		``,
		`^`,
		`[^a]+!`,
	}
	for _, p := range patterns {
		g := compile(t, p)
		if findings := analyzer.Analyze(g, 100_000); len(findings) != 0 {
			t.Errorf("Analyze(%q) = %+v, want no findings", p, findings)
		}
	}
}

func TestPolynomialAdjacentStars(t *testing.T) {
	g := compile(t, `^a*a*$`)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) == 0 {
		t.Fatal("adjacent overlapping stars produced no finding")
	}
	if findings[0].Pump != "a" {
		t.Errorf("pump = %q, want \"a\"", findings[0].Pump)
	}
}

func TestCommandFlagPattern(t *testing.T) {
	pattern := `((?:^|[&(])[ \t]*)for(?: ?/[a-z?](?:[ :](?:"[^"]*"|\S+))?)* \S+ in \([^)]+\) do`
	g := compile(t, pattern)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) == 0 {
		t.Fatal("command flag pattern produced no findings")
	}
	flagLike := false
	for _, f := range findings {
		if strings.Contains(f.Pump, "/") {
			flagLike = true
		}
	}
	if !flagLike {
		t.Errorf("no flag-like pump among findings: %+v", findings)
	}
}

func TestFindingSpansPointAtRepetition(t *testing.T) {
	pattern := `^(a+)+$`
	g := compile(t, pattern)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) == 0 {
		t.Fatal("no findings")
	}
	for _, f := range findings {
		if f.NodeSpan[0] < 0 || f.NodeSpan[1] > len(pattern) || f.NodeSpan[0] >= f.NodeSpan[1] {
			t.Fatalf("bad span %v", f.NodeSpan)
		}
		if !strings.Contains(pattern[f.NodeSpan[0]:f.NodeSpan[1]], "+") {
			t.Errorf("span %v = %q does not cover a quantifier", f.NodeSpan, pattern[f.NodeSpan[0]:f.NodeSpan[1]])
		}
	}
}

func TestFindingValidatesAgainstInterpreter(t *testing.T) {
	// Soundness: replaying a finding against the interpreter with the same
	// budget must reproduce the abort.
	g := compile(t, `^(a+)+$`)
	findings := analyzer.Analyze(g, 50_000)
	if len(findings) == 0 {
		t.Fatal("no findings")
	}
	f := findings[0]
	in := backtrack.New(g)
	k := 64
	attack := f.Prefix + strings.Repeat(f.Pump, k) + f.Suffix
	_, err := in.Matches(attack, 50_000)
	if !backtrack.IsBudgetExceeded(err) {
		t.Fatalf("replayed attack did not exceed budget: %v", err)
	}
}

func TestPrefixSteersPastRequiredLiteral(t *testing.T) {
	g := compile(t, `=(x+)+;`)
	findings := analyzer.Analyze(g, 100_000)
	if len(findings) == 0 {
		t.Fatal("no findings")
	}
	f := findings[0]
	if f.Prefix != "=" {
		t.Errorf("prefix = %q, want \"=\"", f.Prefix)
	}
	if f.Pump != "x" {
		t.Errorf("pump = %q, want \"x\"", f.Pump)
	}
	if strings.ContainsAny(f.Suffix, "x;") || f.Suffix == "" {
		t.Errorf("suffix = %q, want a character that is neither x nor ;", f.Suffix)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := analyzer.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	bad := analyzer.Config{Threshold: 0, PumpCount: 7, MaxAttackLen: 4096}
	if err := bad.Validate(); err == nil {
		t.Fatal("zero threshold validated")
	}
	bad = analyzer.Config{Threshold: 1000, PumpCount: 0, MaxAttackLen: 4096}
	if err := bad.Validate(); err == nil {
		t.Fatal("zero pump count validated")
	}
}

func TestStatsAccounting(t *testing.T) {
	g := compile(t, `^(a+)+$`)
	a := analyzer.New(g, analyzer.DefaultConfig())
	findings := a.Run()
	st := a.Stats()
	if st.RepetitionsExamined != 2 {
		t.Errorf("RepetitionsExamined = %d, want 2", st.RepetitionsExamined)
	}
	if st.CandidatesTried == 0 {
		t.Error("CandidatesTried = 0")
	}
	if st.FindingsCount != len(findings) {
		t.Errorf("FindingsCount = %d, want %d", st.FindingsCount, len(findings))
	}
}

func TestPossessiveRepetitionsAreSkipped(t *testing.T) {
	g := compile(t, `^(a+)*+$`)
	a := analyzer.New(g, analyzer.DefaultConfig())
	a.Run()
	// The outer possessive star is skipped; only the inner a+ is examined.
	if st := a.Stats(); st.RepetitionsExamined != 1 {
		t.Errorf("RepetitionsExamined = %d, want 1", st.RepetitionsExamined)
	}
}
