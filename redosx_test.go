package redosx_test

import (
	"strings"
	"testing"

	"github.com/coregx/redosx"
)

func TestCompileAndMatch(t *testing.T) {
	p, err := redosx.Compile(`a+b`)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := p.Matches("aaab", 0)
	if err != nil || !ok {
		t.Fatalf("Matches = %v, %v", ok, err)
	}
	r, err := p.Find("xxaab", 0, 0)
	if err != nil || r == nil || r.Start != 2 {
		t.Fatalf("Find = %+v, %v", r, err)
	}
}

func TestCompileError(t *testing.T) {
	if _, err := redosx.Compile(`(`); err == nil {
		t.Fatal("Compile(\"(\") succeeded")
	}
}

func TestMustCompilePanicsOnBadPattern(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile did not panic")
		}
	}()
	redosx.MustCompile(`a**`)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	findings, err := redosx.Analyze(`^(a+)+$`, 100_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || findings[0].Pump != "a" {
		t.Fatalf("findings = %+v, want one finding with pump \"a\"", findings)
	}

	clean, err := redosx.Analyze(`a*b`, 100_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(clean) != 0 {
		t.Fatalf("a*b findings = %+v, want none", clean)
	}
}

func TestBudgetSurfacesThroughFacade(t *testing.T) {
	p := redosx.MustCompile(`^(a|a)+$`)
	_, err := p.Matches(strings.Repeat("a", 40)+"!", 5_000)
	if !redosx.IsBudgetExceeded(err) {
		t.Fatalf("err = %v, want budget exceeded", err)
	}
}

func TestLiteralFlag(t *testing.T) {
	p, err := redosx.CompileFlags(`a+b`, redosx.Literal)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := p.Matches("a+b", 0); !ok {
		t.Fatal("literal pattern did not match its own text")
	}
	if ok, _ := p.Matches("aab", 0); ok {
		t.Fatal("literal pattern matched as a regex")
	}
}

func TestCaseInsensitiveFlag(t *testing.T) {
	p, err := redosx.CompileFlags(`abc`, redosx.CaseInsensitive)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := p.Matches("AbC", 0); !ok {
		t.Fatal("case-insensitive match failed")
	}
}

func TestSplitRoundTrip(t *testing.T) {
	p := redosx.MustCompile(`,`)
	parts, err := p.Split("x,y,z", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(parts, ","); got != "x,y,z" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestReplaceThroughFacade(t *testing.T) {
	p := redosx.MustCompile(`\d+`)
	got, err := p.Replace("a1b22c333", "#", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a#b#c#" {
		t.Fatalf("Replace = %q, want a#b#c#", got)
	}
}
