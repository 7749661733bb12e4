// Package parser implements the pattern tokenizer and recursive-descent
// parser: it turns a pattern string into a graph.Graph with precedence
// alternation < concatenation < quantifier < atom.
package parser

import (
	"fmt"

	"github.com/coregx/redosx/charset"
	"github.com/coregx/redosx/graph"
)

// Parser holds the recursive-descent parsing state for one pattern.
type Parser struct {
	src    string
	c      *cursor
	flags  Flags
	oracle charset.PropertyOracle
	b      *graph.Builder

	hasSupplementary bool
	loopSlots        int

	// closedGroups records which capture indices have seen their ')', so a
	// back-reference to a still-open group (`(a\1)`) is rejected rather than
	// silently compiled to a reference that can never have content.
	closedGroups map[int]bool
}

// nextLoopSlot hands out a fresh index into MatcherState.counters for a
// repetition controller, one
// per Curly/Ques node so greedy/lazy re-entry can tell how many iterations
// of its own body it has already committed to.
func (p *Parser) nextLoopSlot() int {
	s := p.loopSlots
	p.loopSlots++
	return s
}

// frag is a parsed sub-graph with exactly one dangling exit: Tail's Next
// field is InvalidID until the caller patches it to whatever follows. This
// is the standard backpatching technique for building an explicit-pointer
// graph top-down without knowing a construct's continuation in advance.
type frag struct {
	head, tail graph.ID
}

// Parse parses pattern under flags, resolving `\p{...}` / POSIX classes
// through oracle (pass charset.DefaultOracle if the caller has no richer
// catalog). It returns the root match graph, or a *PatternSyntaxError /
// *UnsupportedConstructError / *NoSuchGroupError on failure.
func Parse(pattern string, flags Flags, oracle charset.PropertyOracle) (*graph.Graph, error) {
	if oracle == nil {
		oracle = charset.DefaultOracle
	}
	if flags.has(CanonEq) {
		// Canonical-equivalence preprocessing (NFD expansion of combining
		// marks) is outside this engine's scope.
		return nil, &UnsupportedConstructError{Pattern: pattern, Pos: 0, Reason: "canonical-equivalence mode is not supported"}
	}
	var normalized string
	if flags.has(Literal) {
		normalized = escapeAll(pattern)
	} else {
		normalized = preprocessQuoted(pattern)
	}

	p := &Parser{
		src:          normalized,
		c:            &cursor{src: normalized},
		flags:        flags,
		oracle:       oracle,
		b:            graph.NewBuilder(),
		closedGroups: map[int]bool{},
	}
	for _, r := range normalized {
		if r > 0xFFFF {
			p.hasSupplementary = true
			break
		}
	}

	f, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.c.eof() {
		return nil, p.errorf("unexpected %q", string(p.c.peekByteAsRune()))
	}

	accept := p.b.AddAccept()
	p.b.SetNext(f.tail, accept)

	g := p.b.Finish(normalized, f.head, accept, p.hasSupplementary)
	graph.CollapseLiterals(g)
	return g, nil
}

func (c *cursor) peekByteAsRune() rune {
	r, _ := c.peek()
	return r
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &PatternSyntaxError{Pattern: p.src, Pos: p.c.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *Parser) wrapErr(err error) error {
	return &PatternSyntaxError{Pattern: p.src, Pos: p.c.pos, Reason: err.Error()}
}

func (p *Parser) effectiveUnicodeCase() bool {
	return p.flags.has(CaseInsensitive) && p.flags.has(UnicodeCase)
}

// parseAlternation implements `expr := sequence ('|' sequence)*`, the
// lowest-precedence grammar rule.
func (p *Parser) parseAlternation() (frag, error) {
	first, err := p.parseSequence()
	if err != nil {
		return frag{}, err
	}
	if p.c.peekByte() != '|' {
		return first, nil
	}

	arms := []graph.ID{first.head}
	tails := []graph.ID{first.tail}
	for p.c.accept('|') {
		next, err := p.parseSequence()
		if err != nil {
			return frag{}, err
		}
		arms = append(arms, next.head)
		tails = append(tails, next.tail)
	}

	branch := p.b.AddBranch(arms, graph.InvalidID)
	conn := p.b.Node(branch).Conn
	for _, t := range tails {
		p.b.SetNext(t, conn)
	}
	return frag{head: branch, tail: conn}, nil
}

// parseSequence implements `sequence := atom_with_quantifier*`.
func (p *Parser) parseSequence() (frag, error) {
	var head, tail graph.ID = graph.InvalidID, graph.InvalidID

	for !p.c.eof() && p.c.peekByte() != '|' && p.c.peekByte() != ')' {
		if p.flags.has(Comments) && p.skipCommentOrSpace() {
			continue
		}
		next, err := p.parseQuantifiedAtom()
		if err != nil {
			return frag{}, err
		}
		if head == graph.InvalidID {
			head, tail = next.head, next.tail
			continue
		}
		p.b.SetNext(tail, next.head)
		tail = next.tail
	}

	if head == graph.InvalidID {
		empty := p.b.AddEmpty(graph.InvalidID)
		return frag{head: empty, tail: empty}, nil
	}
	return frag{head: head, tail: tail}, nil
}

// skipCommentOrSpace consumes free-spacing-mode whitespace and `#...` line
// comments when Comments is set. Returns true if it consumed
// anything.
func (p *Parser) skipCommentOrSpace() bool {
	consumed := false
	for {
		switch p.c.peekByte() {
		case ' ', '\t', '\n', '\r', '\f':
			p.c.advance()
			consumed = true
		case '#':
			for !p.c.eof() && p.c.peekByte() != '\n' {
				p.c.advance()
			}
			consumed = true
		default:
			return consumed
		}
	}
}

// parseQuantifiedAtom implements `atom_with_quantifier := atom quantifier?`.
func (p *Parser) parseQuantifiedAtom() (frag, error) {
	begin := p.c.pos
	atom, err := p.parseAtom()
	if err != nil {
		return frag{}, err
	}
	return p.parseQuantifier(atom, begin)
}

// parseQuantifier recognizes `? * + {m,n}` with an optional trailing `?`
// (lazy) or `+` (possessive) suffix. begin is where the quantified
// atom started, so the repetition node's span covers atom and quantifier
// both — the analyzer reports that whole span as the offending fragment.
func (p *Parser) parseQuantifier(atom frag, begin int) (frag, error) {
	var min, max int
	switch p.c.peekByte() {
	case '?':
		p.c.advance()
		min, max = 0, 1
	case '*':
		p.c.advance()
		min, max = 0, -1
	case '+':
		p.c.advance()
		min, max = 1, -1
	case '{':
		save := p.c.pos
		p.c.advance()
		m, n, ok, err := p.parseBraceRange()
		if err != nil {
			return frag{}, err
		}
		if !ok {
			// Not a valid {..} quantifier: treat '{' as a literal atom,
			// per common dialect tie-break (no atom was consumed for it
			// yet, so just restore and return the bare atom unquantified).
			p.c.pos = save
			return atom, nil
		}
		min, max = m, n
	default:
		return atom, nil
	}
	if max != -1 && min > max {
		return frag{}, p.errorf("illegal repetition range {%d,%d}: min > max", min, max)
	}

	mode := graph.Greedy
	if p.c.accept('?') {
		mode = graph.Lazy
	} else if p.c.accept('+') {
		mode = graph.Possessive
	}

	var node graph.ID
	if min == 0 && max == 1 {
		node = p.b.AddQues(atom.head, mode, graph.InvalidID)
	} else {
		node = p.b.AddCurly(atom.head, min, max, mode, graph.InvalidID)
	}
	slot := p.nextLoopSlot()
	p.b.Node(node).Controller = node
	p.b.Node(node).LoopCounterSlot = slot
	p.b.SetNext(atom.tail, node)
	p.b.SetSpan(node, begin, p.c.pos, p.src[begin:p.c.pos])

	// Entry from outside goes through a prologue that zeroes the loop
	// counter; the body tail's loop-back edge re-enters the controller
	// directly. Without this, a nested quantifier's
	// counter would leak across iterations of an enclosing repetition and
	// let `(ab+)+` accept "aba".
	prologue := p.b.AddLoopPrologue(slot, node)
	return p.parseRepeatedQuantifierError(frag{head: prologue, tail: node})
}

// parseRepeatedQuantifierError rejects a second, directly-adjacent
// quantifier (`a**`), which the Java-style dialects this grammar follows
// treat as a syntax error rather than silently double-applying.
func (p *Parser) parseRepeatedQuantifierError(f frag) (frag, error) {
	switch p.c.peekByte() {
	case '*', '+':
		return frag{}, p.errorf("dangling meta character %q", string(rune(p.c.peekByte())))
	case '{':
		save := p.c.pos
		p.c.advance()
		_, _, ok, _ := p.parseBraceRange()
		p.c.pos = save
		if ok {
			return frag{}, p.errorf("dangling meta character '{'")
		}
	}
	return f, nil
}

// parseBraceRange parses `m(',' n?)?` after the opening `{` has been
// consumed, returning ok=false (and restoring nothing itself — the caller
// saves/restores pos) if the content doesn't parse as a repetition range.
func (p *Parser) parseBraceRange() (min, max int, ok bool, err error) {
	start := p.c.pos
	for !p.c.eof() && isDigit(p.c.peekByte()) {
		p.c.advance()
	}
	if p.c.pos == start {
		return 0, 0, false, nil
	}
	min = atoiSpan(p.c.src[start:p.c.pos])
	max = min

	if p.c.accept(',') {
		start2 := p.c.pos
		for !p.c.eof() && isDigit(p.c.peekByte()) {
			p.c.advance()
		}
		if p.c.pos == start2 {
			max = -1 // {m,} unbounded
		} else {
			max = atoiSpan(p.c.src[start2:p.c.pos])
		}
	}
	if !p.c.accept('}') {
		return 0, 0, false, nil
	}
	return min, max, true, nil
}

func atoiSpan(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// parseAtom implements the atom production of the grammar.
func (p *Parser) parseAtom() (frag, error) {
	begin := p.c.pos
	if p.c.eof() {
		return frag{}, p.errorf("unexpected end of pattern")
	}

	switch p.c.peekByte() {
	case '(':
		return p.parseGroup()
	case '[':
		p.c.advance()
		set, negate, err := p.parseClassBody()
		if err != nil {
			return frag{}, err
		}
		node := p.b.AddClass(set, negate, graph.InvalidID)
		p.b.SetSpan(node, begin, p.c.pos, p.src[begin:p.c.pos])
		return frag{head: node, tail: node}, nil
	case '.':
		p.c.advance()
		node := p.b.AddAny(p.flags.has(DotAll), p.flags.has(UnixLines), graph.InvalidID)
		p.b.SetSpan(node, begin, p.c.pos, ".")
		return frag{head: node, tail: node}, nil
	case '^':
		p.c.advance()
		node := p.b.AddAnchor(graph.KindCaret, p.flags.has(Multiline), p.flags.has(UnixLines), graph.InvalidID)
		return frag{head: node, tail: node}, nil
	case '$':
		p.c.advance()
		node := p.b.AddAnchor(graph.KindDollar, p.flags.has(Multiline), p.flags.has(UnixLines), graph.InvalidID)
		return frag{head: node, tail: node}, nil
	case '\\':
		p.c.advance()
		return p.parseEscapeAtom()
	case ')', '|':
		return frag{}, p.errorf("unexpected %q", string(rune(p.c.peekByte())))
	case '*', '+', '?':
		return frag{}, p.errorf("dangling meta character %q", string(rune(p.c.peekByte())))
	default:
		r := p.c.advance()
		node := p.addCharNode(r)
		p.b.SetSpan(node, begin, p.c.pos, string(r))
		return frag{head: node, tail: node}, nil
	}
}

func (p *Parser) addCharNode(r rune) graph.ID {
	up := r
	caseInsensitive := p.flags.has(CaseInsensitive)
	if caseInsensitive {
		set := charset.New()
		set.AddFolded(r, p.effectiveUnicodeCase())
		node := p.b.AddClass(set, false, graph.InvalidID)
		return node
	}
	return p.b.AddChar(r, up, graph.InvalidID)
}

// parseEscapeAtom handles `\` escape, cursor positioned right after the
// backslash, outside a character class.
func (p *Parser) parseEscapeAtom() (frag, error) {
	if p.c.eof() {
		return frag{}, p.errorf("dangling backslash")
	}
	e := p.c.advance()
	switch e {
	case 'd', 'D', 'w', 'W', 's', 'S', 'h', 'H', 'v', 'V':
		set := p.predefinedClass(e)
		node := p.b.AddClass(set, false, graph.InvalidID)
		return frag{head: node, tail: node}, nil
	case 'b':
		return p.oneNode(p.b.AddBound(graph.BoundBoth, graph.InvalidID)), nil
	case 'B':
		return p.oneNode(p.b.AddBound(graph.BoundNone, graph.InvalidID)), nil
	case 'A':
		return p.oneNode(p.b.AddAnchor(graph.KindBegin, false, false, graph.InvalidID)), nil
	case 'Z', 'z':
		return p.oneNode(p.b.AddAnchor(graph.KindEnd, false, false, graph.InvalidID)), nil
	case 'G':
		return p.oneNode(p.b.AddAnchor(graph.KindLastMatch, false, false, graph.InvalidID)), nil
	case 'R':
		set, err := p.lineEndingSet()
		if err != nil {
			return frag{}, err
		}
		node := p.b.AddClass(set, false, graph.InvalidID)
		return p.oneNode(node), nil
	case 'p', 'P':
		set, err := p.parseUnicodeProperty(e == 'P')
		if err != nil {
			return frag{}, err
		}
		node := p.b.AddClass(set, false, graph.InvalidID)
		return p.oneNode(node), nil
	case 'k':
		return p.parseNamedBackref()
	case 'Q', 'E':
		// Already expanded by preprocessQuoted; a bare \E with no opening
		// \Q is simply a no-op per common dialect behavior.
		return p.parseAtomContinue()
	case 'n':
		return p.literalAtom('\n'), nil
	case 'r':
		return p.literalAtom('\r'), nil
	case 't':
		return p.literalAtom('\t'), nil
	case 'f':
		return p.literalAtom('\f'), nil
	case 'a':
		return p.literalAtom('\a'), nil
	case 'e':
		return p.literalAtom(0x1B), nil
	case 'x':
		braced := p.c.accept('{')
		r, err := decodeHex(p.c, braced)
		if err != nil {
			return frag{}, p.wrapErr(err)
		}
		return p.literalAtom(r), nil
	case 'u':
		r, err := decodeUnicode(p.c, false)
		if err != nil {
			return frag{}, p.wrapErr(err)
		}
		// A high surrogate followed by a \uDC00-\uDFFF escape pairs into one
		// supplementary code point.
		if r >= 0xD800 && r < 0xDC00 && p.c.peekByte() == '\\' && p.peekAt(1) == 'u' {
			save := p.c.pos
			p.c.advance()
			p.c.advance()
			lo, loErr := decodeUnicode(p.c, false)
			if loErr == nil && lo >= 0xDC00 && lo < 0xE000 {
				r = 0x10000 + (r-0xD800)<<10 + (lo - 0xDC00)
				p.hasSupplementary = true
			} else {
				p.c.pos = save
			}
		}
		return p.literalAtom(r), nil
	case 'c':
		r, err := decodeControl(p.c)
		if err != nil {
			return frag{}, p.wrapErr(err)
		}
		return p.literalAtom(r), nil
	case '0':
		r, err := decodeOctal(p.c)
		if err != nil {
			return p.literalAtom(0), nil
		}
		return p.literalAtom(r), nil
	default:
		if e >= '1' && e <= '9' {
			return p.parseNumericBackref(e)
		}
		if isMeta(e) {
			return p.literalAtom(e), nil
		}
		return frag{}, p.errorf("unknown escape \\%c", e)
	}
}

func (p *Parser) parseAtomContinue() (frag, error) {
	if p.c.eof() || p.c.peekByte() == '|' || p.c.peekByte() == ')' {
		empty := p.b.AddEmpty(graph.InvalidID)
		return frag{head: empty, tail: empty}, nil
	}
	return p.parseAtom()
}

func (p *Parser) oneNode(id graph.ID) frag { return frag{head: id, tail: id} }

func (p *Parser) literalAtom(r rune) frag {
	node := p.addCharNode(r)
	return frag{head: node, tail: node}
}

// parseNumericBackref greedily consumes digits as long as the referenced
// group exists, else falls back to the shortest resolvable prefix.
func (p *Parser) parseNumericBackref(first rune) (frag, error) {
	digits := string(first)
	for !p.c.eof() && isDigit(p.c.peekByte()) {
		candidate := digits + string(rune(p.c.peekByte()))
		if atoiSpan(candidate) > p.b.NumGroupsDeclared() {
			break
		}
		digits = candidate
		p.c.advance()
	}
	idx := atoiSpan(digits)
	if idx == 0 || !p.closedGroups[idx] {
		return frag{}, &NoSuchGroupError{Pattern: p.src, Pos: p.c.pos, Index: idx}
	}
	node := p.b.AddBackRef(idx, p.flags.has(CaseInsensitive), graph.InvalidID)
	return p.oneNode(node), nil
}

func (p *Parser) parseNamedBackref() (frag, error) {
	if !p.c.accept('<') {
		return frag{}, p.errorf(`expected '<' after \k`)
	}
	start := p.c.pos
	for !p.c.eof() && p.c.peekByte() != '>' {
		p.c.advance()
	}
	name := p.c.src[start:p.c.pos]
	if !p.c.accept('>') {
		return frag{}, p.errorf("unclosed \\k<name>")
	}
	idx, ok := p.b.LookupGroup(name)
	if !ok || !p.closedGroups[idx] {
		return frag{}, &NoSuchGroupError{Pattern: p.src, Pos: p.c.pos, Name: name}
	}
	node := p.b.AddBackRef(idx, p.flags.has(CaseInsensitive), graph.InvalidID)
	return p.oneNode(node), nil
}

func (p *Parser) parseUnicodeProperty(negated bool) (*charset.Set, error) {
	var name string
	if p.c.accept('{') {
		start := p.c.pos
		for !p.c.eof() && p.c.peekByte() != '}' {
			p.c.advance()
		}
		if p.c.eof() {
			return nil, p.errorf("unclosed property name")
		}
		name = p.c.src[start:p.c.pos]
		p.c.advance()
	} else {
		if p.c.eof() {
			return nil, p.errorf("unclosed property name")
		}
		name = string(p.c.advance())
	}
	set, ok := p.oracle.Lookup(name)
	if !ok {
		return nil, p.errorf("unknown Unicode property %q", name)
	}
	if negated {
		set = set.Complement()
	}
	return set, nil
}

func (p *Parser) lineEndingSet() (*charset.Set, error) {
	set := charset.New()
	for _, r := range []rune{'\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029} {
		set.Add(r)
	}
	return set, nil
}

// predefinedClass resolves \d \D \w \W \s \S \h \H \v \V, complementing for
// the uppercase (negated) letter. The ASCII definitions are built in; under
// the UnicodeCharClass flag the oracle's richer categorical sets take over,
// falling back to ASCII for shorthands the oracle does not know.
func (p *Parser) predefinedClass(letter rune) *charset.Set {
	lower := letter
	negate := false
	switch letter {
	case 'D', 'W', 'S', 'H', 'V':
		negate = true
		lower = lower + ('a' - 'A')
	}
	name := map[rune]string{'d': "Digit", 'w': "Word", 's': "Space", 'h': "HorizSpace", 'v': "VertSpace"}[lower]
	set := builtinPredefined(name)
	if p.flags.has(UnicodeCharClass) {
		if oracleSet, ok := p.oracle.Lookup(name); ok {
			set = oracleSet
		}
	}
	if negate {
		return set.Complement()
	}
	return set
}

// builtinPredefined is the ASCII fallback used when the oracle doesn't
// recognize one of the engine's own predefined shorthand names — the
// oracle is only required to know Unicode properties and POSIX classes,
// not this engine's internal shorthand vocabulary.
func builtinPredefined(name string) *charset.Set {
	s := charset.New()
	switch name {
	case "Digit":
		_ = s.AddRange('0', '9')
	case "Word":
		_ = s.AddRange('a', 'z')
		_ = s.AddRange('A', 'Z')
		_ = s.AddRange('0', '9')
		s.Add('_')
	case "Space":
		for _, r := range []rune{' ', '\t', '\n', '\x0B', '\f', '\r'} {
			s.Add(r)
		}
	case "HorizSpace":
		s.Add(' ')
		s.Add('\t')
	case "VertSpace":
		for _, r := range []rune{'\n', '\v', '\f', '\r', 0x85, 0x2028, 0x2029} {
			s.Add(r)
		}
	}
	return s
}
