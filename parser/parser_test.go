package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/coregx/redosx/graph"
)

func mustParse(t *testing.T, pattern string, flags Flags) *graph.Graph {
	t.Helper()
	g, err := Parse(pattern, flags, nil)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}
	return g
}

func TestParseValidPatterns(t *testing.T) {
	patterns := []string{
		``,
		`a`,
		`abc`,
		`^$`,
		`a|b|c`,
		`(a)(b)\1\2`,
		`(?<x>a)\k<x>`,
		`(?:ab)+`,
		`[a-z]`,
		`[^a-z]`,
		`[a-z&&[^aeiou]]`,
		`[]a]`,
		`[\d\s-]`,
		`[[:alpha:]]+`,
		`a{2}b{2,}c{2,3}`,
		`a+?b*?c??`,
		`a++b*+c?+`,
		`(?i)abc`,
		`(?i:a)b`,
		`(?im-s:x)`,
		`(?=a)b`,
		`(?!a)b`,
		`(?<=ab)c`,
		`(?<!xy)z`,
		`(?>a+)b`,
		`\Qa+b\E`,
		`\x41B\x{43}`,
		`\cA\0101`,
		`\d\D\w\W\s\S\h\H\v\V`,
		`\b\B\A\z\G`,
		`\R`,
		`\p{Lu}+`,
		`\P{Lu}`,
		`.+$`,
	}
	for _, p := range patterns {
		if _, err := Parse(p, 0, nil); err != nil {
			t.Errorf("Parse(%q) = %v, want success", p, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	syntax := func(err error) bool {
		var e *PatternSyntaxError
		return errors.As(err, &e)
	}
	unsupported := func(err error) bool {
		var e *UnsupportedConstructError
		return errors.As(err, &e)
	}
	noGroup := func(err error) bool {
		var e *NoSuchGroupError
		return errors.As(err, &e)
	}

	tests := []struct {
		pattern string
		want    func(error) bool
		name    string
	}{
		{`a**`, syntax, "double quantifier"},
		{`*a`, syntax, "dangling star"},
		{`+`, syntax, "dangling plus"},
		{`(`, syntax, "unmatched paren"},
		{`(a`, syntax, "unclosed group"},
		{`)`, syntax, "stray close paren"},
		{`[a`, syntax, "unclosed class"},
		{`a{3,1}`, syntax, "reversed repetition range"},
		{`\q`, syntax, "unknown escape"},
		{`\p{Foo`, syntax, "unclosed property"},
		{`\p{NoSuchProp}`, syntax, "unknown property"},
		{`(?<=a*)b`, unsupported, "unbounded look-behind"},
		{`(?<=ab|a)c`, unsupported, "mixed-length look-behind"},
		{`[\R]`, unsupported, "line-break class escape"},
		{`\k<nope>x`, noGroup, "undefined named backref"},
		{`\1`, noGroup, "undefined numeric backref"},
		{`(a\1)`, noGroup, "backref to open group"},
		{`(?<d>a)(?<d>b)`, syntax, "duplicate group name"},
		{`(?Z)`, syntax, "unknown inline flag"},
		{`a{2}{3}`, syntax, "quantifier on quantifier"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.pattern, 0, nil)
		if err == nil {
			t.Errorf("%s: Parse(%q) succeeded, want error", tt.name, tt.pattern)
			continue
		}
		if !tt.want(err) {
			t.Errorf("%s: Parse(%q) error kind = %T (%v)", tt.name, tt.pattern, err, err)
		}
	}
}

func TestCanonEqRejected(t *testing.T) {
	_, err := Parse(`a`, CanonEq, nil)
	var e *UnsupportedConstructError
	if !errors.As(err, &e) {
		t.Fatalf("Parse with CanonEq = %v, want UnsupportedConstructError", err)
	}
}

func TestGroupMetadata(t *testing.T) {
	g := mustParse(t, `(a)(?<x>b)(?:c)`, 0)
	if got := g.NumCaptures(); got != 3 {
		t.Fatalf("NumCaptures = %d, want 3", got)
	}
	if idx, ok := g.NamedGroups["x"]; !ok || idx != 2 {
		t.Fatalf("NamedGroups[x] = %d, %v; want 2, true", idx, ok)
	}
	if len(g.Groups) != 2 || g.Groups[0].Name != "" || g.Groups[1].Name != "x" {
		t.Fatalf("Groups = %+v", g.Groups)
	}
}

func TestQuantifierSpans(t *testing.T) {
	pattern := `^(a+)+$`
	g := mustParse(t, pattern, 0)

	var spans []string
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.ID(i))
		if n.Kind == graph.KindCurly {
			if n.BeginCursor < 0 || n.EndCursor > len(pattern) || n.BeginCursor > n.EndCursor {
				t.Fatalf("curly span out of bounds: [%d,%d)", n.BeginCursor, n.EndCursor)
			}
			spans = append(spans, pattern[n.BeginCursor:n.EndCursor])
		}
	}
	if len(spans) != 2 || spans[0] != "a+" || spans[1] != "(a+)+" {
		t.Fatalf("curly spans = %q, want [a+ (a+)+]", spans)
	}
}

func TestLiteralFlagEscapesEverything(t *testing.T) {
	g := mustParse(t, `a+b`, Literal)
	root := g.Node(g.Root)
	if root.Kind != graph.KindSlice || string(root.Buf) != "a+b" {
		t.Fatalf("literal root = kind %v buf %q, want slice \"a+b\"", root.Kind, string(root.Buf))
	}
}

func TestQuotedRunBecomesLiteral(t *testing.T) {
	g := mustParse(t, `\Qa+\E`, 0)
	root := g.Node(g.Root)
	if root.Kind != graph.KindSlice || string(root.Buf) != "a+" {
		t.Fatalf("quoted root = kind %v buf %q, want slice \"a+\"", root.Kind, string(root.Buf))
	}
}

func TestLongLiteralGetsBoyerMooreTables(t *testing.T) {
	g := mustParse(t, `foobarbaz`, 0)
	root := g.Node(g.Root)
	if root.Kind != graph.KindSliceBM {
		t.Fatalf("root kind = %v, want SliceBM", root.Kind)
	}
	if len(root.BMGoodSuffix) != len(root.Buf)+1 {
		t.Fatalf("good-suffix table length = %d, want %d", len(root.BMGoodSuffix), len(root.Buf)+1)
	}
	if len(root.BMLastOcc) == 0 {
		t.Fatal("bad-character table is empty")
	}
}

func TestParseDeterministic(t *testing.T) {
	const pattern = `(ab|cd)+x{2,3}[p-q]`
	g1 := mustParse(t, pattern, 0)
	g2 := mustParse(t, pattern, 0)
	if !reflect.DeepEqual(g1, g2) {
		t.Fatal("two parses of the same pattern produced different graphs")
	}
}

func TestInlineFlagScoping(t *testing.T) {
	// (?i:a) is case-insensitive, the following b is not.
	g := mustParse(t, `(?i:a)b`, 0)
	foundClass, foundChar := false, false
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.ID(i))
		switch n.Kind {
		case graph.KindCharClass:
			foundClass = true
		case graph.KindChar:
			if n.Char == 'b' {
				foundChar = true
			}
		}
	}
	if !foundClass || !foundChar {
		t.Fatalf("inline flag scoping: class=%v charB=%v, want both", foundClass, foundChar)
	}
}
