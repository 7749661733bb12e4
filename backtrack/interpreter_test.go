package backtrack_test

import (
	"strings"
	"testing"

	"github.com/coregx/redosx/backtrack"
	"github.com/coregx/redosx/parser"
)

func interp(t *testing.T, pattern string) *backtrack.Interpreter {
	t.Helper()
	g, err := parser.Parse(pattern, 0, nil)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}
	return backtrack.New(g)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern, input string
		want           bool
	}{
		{`abc`, `abc`, true},
		{`abc`, `abx`, false},
		{`abc`, `abcd`, false},
		{``, ``, true},
		{`^$`, ``, true},
		{`a|ab`, `ab`, true}, // entire-match must retry the longer arm
		{`a|ab`, `a`, true},
		{`a*b`, `aaab`, true},
		{`a*b`, `b`, true},
		{`a*?b`, `aaab`, true},
		{`.`, "\n", false},
		{`(?s).`, "\n", true},
		{`[a-c]+`, `abcb`, true},
		{`[^a]`, `b`, true},
		{`[^a]`, `a`, false},
		{`a{2,3}`, `aaa`, true},
		{`a{2,3}`, `aaaa`, false},
		{`a{2,3}`, `a`, false},
		{`(ab)+`, `abab`, true},
		{`(ab)+`, `aba`, false},
		{`(ab+)+`, `aba`, false}, // nested counter must reset per outer iteration
		{`(a?b)+`, `bab`, true},
		{`(a)(b)\2\1`, `abba`, true},
		{`(a)(b)\2\1`, `abab`, false},
		{`(?i)AbC`, `aBc`, true},
		{`a\d+z`, `a123z`, true},
		{`\bfoo\b`, `foo`, true},
		{`(?=ab)a.`, `ab`, true},
		{`(?!ab)a.`, `ax`, true},
		{`(?!ab)a.`, `ab`, false},
		{`x(?<=x)y`, `xy`, true},
		{`x(?<!x)y`, `xy`, false},
		{`a+ab`, `aaab`, true},
		{`(?>a+)ab`, `aaab`, false}, // atomic group never gives back
		{`a*+ab`, `aaab`, false},    // possessive never gives back
		{`(a|b)*c`, `abbac`, true},
		{`(a*)*b`, `b`, true}, // zero-length iterations must not loop forever
		{`(a*)*b`, `aab`, true},
		{`[^\D]`, `5`, true}, // negated complement cancels out
		{`[^\D]`, `x`, false},
		{`(?iu)k`, `K`, true},
	}
	for _, tt := range tests {
		in := interp(t, tt.pattern)
		got, err := in.Matches(tt.input, 0)
		if err != nil {
			t.Errorf("Matches(%q, %q) error: %v", tt.pattern, tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	in := interp(t, `a+b`)
	r, err := in.Find("xxaaabyy", 0, 0)
	if err != nil || r == nil {
		t.Fatalf("Find = %v, %v", r, err)
	}
	if r.Start != 2 || r.End != 6 {
		t.Fatalf("Find span = [%d,%d), want [2,6)", r.Start, r.End)
	}

	if r, err = in.Find("no match here", 0, 0); err != nil || r != nil {
		t.Fatalf("Find on non-matching input = %v, %v; want nil, nil", r, err)
	}
}

func TestFindCaptures(t *testing.T) {
	in := interp(t, `(a+)(b)`)
	r, err := in.Find("caab", 0, 0)
	if err != nil || r == nil {
		t.Fatalf("Find = %v, %v", r, err)
	}
	want := []int{1, 4, 1, 3, 3, 4}
	for i, w := range want {
		if r.Groups[i] != w {
			t.Fatalf("Groups = %v, want %v", r.Groups, want)
		}
	}
}

func TestFindLazyVsGreedy(t *testing.T) {
	greedy := interp(t, `a+`)
	lazy := interp(t, `a+?`)

	rg, err := greedy.Find("aaa", 0, 0)
	if err != nil || rg == nil || rg.End != 3 {
		t.Fatalf("greedy Find = %+v, %v; want end 3", rg, err)
	}
	rl, err := lazy.Find("aaa", 0, 0)
	if err != nil || rl == nil || rl.End != 1 {
		t.Fatalf("lazy Find = %+v, %v; want end 1", rl, err)
	}
}

func TestFindBoyerMooreLiteralRoot(t *testing.T) {
	in := interp(t, `foobarbaz`)
	r, err := in.Find("xxxfoobarbazyy", 0, 0)
	if err != nil || r == nil {
		t.Fatalf("Find = %v, %v", r, err)
	}
	if r.Start != 3 || r.End != 12 {
		t.Fatalf("Find span = [%d,%d), want [3,12)", r.Start, r.End)
	}
	if r, err = in.Find("foobarbax foobarba", 0, 0); err != nil || r != nil {
		t.Fatalf("near-miss Find = %v, %v; want nil, nil", r, err)
	}
}

func TestSplit(t *testing.T) {
	in := interp(t, `,`)
	got, err := in.Split("a,b,,c", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "", "c"}
	if len(got) != len(want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Split = %q, want %q", got, want)
		}
	}
}

func TestReplace(t *testing.T) {
	in := interp(t, `a+`)
	got, err := in.Replace("baaacaad", "X", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bXcXd" {
		t.Fatalf("Replace = %q, want bXcXd", got)
	}
}

func TestFindAllAndStream(t *testing.T) {
	in := interp(t, `\d+`)
	all, err := in.FindAll("a1b22c333", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Start != 1 || all[2].End != 9 {
		t.Fatalf("FindAll = %+v", all)
	}

	var count int
	err = in.Stream("a1b22c333", 0, func(backtrack.Result) bool {
		count++
		return count < 2 // stop early
	})
	if err != nil || count != 2 {
		t.Fatalf("Stream stopped at %d matches, err %v; want 2, nil", count, err)
	}
}

func TestMatchesTraced(t *testing.T) {
	in := interp(t, `ab`)
	var visits int
	ok, err := in.MatchesTraced("ab", 0, func(nodeID uint32, pos int) { visits++ })
	if err != nil || !ok {
		t.Fatalf("MatchesTraced = %v, %v", ok, err)
	}
	if visits == 0 {
		t.Fatal("trace sink received no visits")
	}
}

func TestAsPredicate(t *testing.T) {
	pred := interp(t, `\d+`).AsPredicate(0)
	if !pred("abc123") || pred("abcdef") {
		t.Fatal("AsPredicate gave wrong answers")
	}
}

func TestBudgetExceededOnExponentialPattern(t *testing.T) {
	in := interp(t, `^(a|a)+$`)
	input := strings.Repeat("a", 30) + "!"
	ok, err := in.Matches(input, 10_000)
	if ok {
		t.Fatal("pathological input reported as a match")
	}
	if !backtrack.IsBudgetExceeded(err) {
		t.Fatalf("err = %v, want BudgetExceededError", err)
	}
	var be *backtrack.BudgetExceededError
	if be, ok = err.(*backtrack.BudgetExceededError); !ok || be.Steps <= be.Budget {
		t.Fatalf("budget error = %+v, want observable partial step count above budget", err)
	}
}

func TestFindBudgetOnUnanchoredAlternationScan(t *testing.T) {
	// Unanchored search over a long non-matching input multiplies the
	// per-start cost into super-linear total work; the budget is the only
	// cancellation mechanism.
	in := interp(t, `(a|b)*c`)
	input := strings.Repeat("a", 1500)
	_, err := in.Find(input, 0, 100_000)
	if !backtrack.IsBudgetExceeded(err) {
		t.Fatalf("err = %v, want BudgetExceededError", err)
	}
}

func TestPossessiveStepsStayLinear(t *testing.T) {
	in := interp(t, `a*+b`)
	short := strings.Repeat("a", 500)
	long := strings.Repeat("a", 1000)

	_, stepsShort, err := in.MatchesSteps(short, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, stepsLong, err := in.MatchesSteps(long, 0)
	if err != nil {
		t.Fatal(err)
	}
	if stepsShort > 4*500+50 {
		t.Fatalf("possessive steps on 500 runes = %d, want linear bound", stepsShort)
	}
	if stepsLong > 2*stepsShort+50 {
		t.Fatalf("possessive steps did not scale linearly: %d vs %d", stepsLong, stepsShort)
	}
}

func TestMatchesEqualsFindSpanWhenAnchored(t *testing.T) {
	in := interp(t, `^a+b$`)
	input := "aaab"
	ok, err := in.Matches(input, 0)
	if err != nil || !ok {
		t.Fatalf("Matches = %v, %v", ok, err)
	}
	r, err := in.Find(input, 0, 0)
	if err != nil || r == nil || r.Start != 0 || r.End != len(input) {
		t.Fatalf("Find = %+v, %v; want full span", r, err)
	}
}
