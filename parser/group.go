package parser

import "github.com/coregx/redosx/graph"

// parseGroup recognizes every `( ... )` form: capturing, non-capturing,
// named, atomic, lookaround, and inline-flag groups. The cursor is
// positioned at the opening `(`.
func (p *Parser) parseGroup() (frag, error) {
	begin := p.c.pos
	p.c.advance() // '('

	savedFlags := p.flags
	restoreFlags := true
	defer func() {
		if restoreFlags {
			p.flags = savedFlags
		}
	}()

	if !p.c.accept('?') {
		return p.finishCapturingGroup(begin, "")
	}

	switch {
	case p.c.accept(':'):
		return p.finishNonCapturingGroup(begin)
	case p.c.accept('='):
		return p.finishLookaround(begin, false, false)
	case p.c.accept('!'):
		return p.finishLookaround(begin, true, false)
	case p.c.acceptString("<="):
		return p.finishLookaround(begin, false, true)
	case p.c.acceptString("<!"):
		return p.finishLookaround(begin, true, true)
	case p.c.accept('>'):
		return p.finishAtomicGroup(begin)
	case p.c.accept('<'):
		return p.finishNamedGroup(begin)
	case p.c.acceptString("P<"):
		return p.finishNamedGroup(begin)
	}

	// (?flags) or (?flags:...) or (?flags-flags) / (?flags-flags:...)
	return p.finishInlineFlags(begin, &restoreFlags)
}

func (p *Parser) finishCapturingGroup(begin int, name string) (frag, error) {
	idx, ok := p.b.DeclareGroup(name)
	if !ok {
		return frag{}, p.errorf("duplicate capture group name %q", name)
	}
	head := p.b.AddGroupHead(idx, name, graph.InvalidID)

	body, err := p.parseAlternation()
	if err != nil {
		return frag{}, err
	}
	p.b.SetBody(head, body.head)

	if !p.c.accept(')') {
		return frag{}, p.errorf("unmatched '(' (missing ')')")
	}
	tail := p.b.AddGroupTail(idx, graph.InvalidID)
	p.b.SetNext(body.tail, tail)
	p.b.SetSpan(head, begin, p.c.pos, p.src[begin:p.c.pos])
	p.closedGroups[idx] = true
	return frag{head: head, tail: tail}, nil
}

func (p *Parser) finishNonCapturingGroup(begin int) (frag, error) {
	head := p.b.AddGroupHead(0, "", graph.InvalidID)
	body, err := p.parseAlternation()
	if err != nil {
		return frag{}, err
	}
	p.b.SetBody(head, body.head)
	if !p.c.accept(')') {
		return frag{}, p.errorf("unmatched '(?:' (missing ')')")
	}
	tail := p.b.AddGroupTail(0, graph.InvalidID)
	p.b.SetNext(body.tail, tail)
	p.b.SetSpan(head, begin, p.c.pos, p.src[begin:p.c.pos])
	return frag{head: head, tail: tail}, nil
}

// finishNamedGroup parses the rest of `(?<name>...)` / `(?P<name>...)`,
// with the cursor already positioned just past the opening '<' delimiter.
func (p *Parser) finishNamedGroup(begin int) (frag, error) {
	start := p.c.pos
	for !p.c.eof() && p.c.peekByte() != '>' {
		p.c.advance()
	}
	name := p.c.src[start:p.c.pos]
	if !p.c.accept('>') {
		return frag{}, p.errorf("unclosed named group")
	}
	return p.finishCapturingGroup(begin, name)
}

// finishLookaround parses `(?=...)`, `(?!...)`, `(?<=...)`, `(?<!...)`. The
// body's exit is patched to a dedicated local Accept node rather than the
// outer continuation, since the assertion is zero-width: the
// interpreter's recursive match call for the body simply returns
// true/false to the Lookahead/Lookbehind node's own handler, it never
// rejoins the outer chain.
func (p *Parser) finishLookaround(begin int, negative, behind bool) (frag, error) {
	body, err := p.parseAlternation()
	if err != nil {
		return frag{}, err
	}
	localAccept := p.b.AddAccept()
	p.b.SetNext(body.tail, localAccept)

	if !p.c.accept(')') {
		return frag{}, p.errorf("unmatched lookaround group (missing ')')")
	}

	var node graph.ID
	if behind {
		minLen, maxLen, err := studyLength(p.b, body.head)
		if err != nil {
			return frag{}, err
		}
		if maxLen < 0 {
			return frag{}, &UnsupportedConstructError{Pattern: p.src, Pos: begin, Reason: "look-behind must have a statically bounded length"}
		}
		if minLen != maxLen {
			return frag{}, &UnsupportedConstructError{Pattern: p.src, Pos: begin, Reason: "look-behind alternatives must all have the same fixed length"}
		}
		node = p.b.AddLookbehind(body.head, negative, minLen, maxLen, graph.InvalidID)
	} else {
		node = p.b.AddLookahead(body.head, negative, graph.InvalidID)
	}
	p.b.SetSpan(node, begin, p.c.pos, p.src[begin:p.c.pos])
	return frag{head: node, tail: node}, nil
}

func (p *Parser) finishAtomicGroup(begin int) (frag, error) {
	body, err := p.parseAlternation()
	if err != nil {
		return frag{}, err
	}
	localAccept := p.b.AddAccept()
	p.b.SetNext(body.tail, localAccept)
	if !p.c.accept(')') {
		return frag{}, p.errorf("unmatched atomic group (missing ')')")
	}
	node := p.b.AddAtomicGroup(body.head, graph.InvalidID)
	p.b.SetSpan(node, begin, p.c.pos, p.src[begin:p.c.pos])
	return frag{head: node, tail: node}, nil
}

// finishInlineFlags parses `(?flags)` / `(?flags-flags)` and their `:body`
// variants. restoreFlags is cleared for the bodyless `(?flags)` form so the
// new flags remain in effect for the rest of the enclosing group: embedded
// flags override the constructor-supplied mask from their position onward.
func (p *Parser) finishInlineFlags(begin int, restoreFlags *bool) (frag, error) {
	add, remove, err := p.parseFlagLetters()
	if err != nil {
		return frag{}, err
	}
	p.flags = (p.flags | add) &^ remove

	if p.c.accept(':') {
		body, err := p.parseAlternation()
		if err != nil {
			return frag{}, err
		}
		if !p.c.accept(')') {
			return frag{}, p.errorf("unmatched '(?flags:' (missing ')')")
		}
		return body, nil
	}
	if !p.c.accept(')') {
		return frag{}, p.errorf("unterminated (?flags) group")
	}
	*restoreFlags = false
	empty := p.b.AddEmpty(graph.InvalidID)
	return frag{head: empty, tail: empty}, nil
}

func (p *Parser) parseFlagLetters() (add, remove Flags, err error) {
	negating := false
	sawAny := false
	for !p.c.eof() {
		b := p.c.peekByte()
		if b == '-' {
			negating = true
			p.c.advance()
			continue
		}
		if b == ':' || b == ')' {
			break
		}
		bit, ok := flagLetter[b]
		if !ok {
			return 0, 0, p.errorf("unrecognized flag %q", string(rune(b)))
		}
		p.c.advance()
		sawAny = true
		if negating {
			remove |= bit
		} else {
			add |= bit
		}
	}
	if !sawAny && !negating {
		return 0, 0, p.errorf("empty (?) flag group")
	}
	return add, remove, nil
}
