package parser

import "github.com/coregx/redosx/charset"

// parseClassBody parses the inside of `[...]`, the cursor positioned just
// after the opening `[`: literal chars, ranges `a-z`, nested classes
// `[...]`, union by
// juxtaposition, intersection `&&`, leading `^` negation, and POSIX
// `[:name:]` classes. The closing `]` is consumed on success.
func (p *Parser) parseClassBody() (*charset.Set, bool, error) {
	negate := false
	if p.c.accept('^') {
		negate = true
	}

	set, err := p.parseClassUnion(true)
	if err != nil {
		return nil, false, err
	}
	if !p.c.accept(']') {
		return nil, false, p.errorf("unclosed character class")
	}
	return set, negate, nil
}

// parseClassUnion parses a sequence of class terms combined by union
// (juxtaposition) and intersection (`&&`), stopping at the class's closing
// `]`. first marks whether a leading `]` should be treated as literal
// (`[]` / `[^]` literal-bracket rule).
func (p *Parser) parseClassUnion(first bool) (*charset.Set, error) {
	result := charset.New()
	haveAny := false

	for {
		if p.c.eof() {
			return nil, p.errorf("unclosed character class")
		}
		if p.c.peekByte() == ']' && !(first && !haveAny) {
			break
		}
		if p.c.acceptString("&&") {
			rhs, err := p.parseClassUnion(false)
			if err != nil {
				return nil, err
			}
			result = result.Intersect(rhs)
			continue
		}

		term, err := p.parseClassTerm(first && !haveAny)
		if err != nil {
			return nil, err
		}
		result = result.Union(term)
		haveAny = true
		first = false
	}
	return result, nil
}

// parseClassTerm parses one literal, range, nested class, escape or POSIX
// class inside a character class.
func (p *Parser) parseClassTerm(literalBracket bool) (*charset.Set, error) {
	if p.c.peekByte() == ']' && literalBracket {
		p.c.advance()
		s := charset.New()
		s.Add(']')
		return s, nil
	}

	if p.c.accept('[') {
		if p.c.peekByte() == ':' {
			return p.parsePosixClass()
		}
		nested, negate, err := p.parseClassBody()
		if err != nil {
			return nil, err
		}
		if negate {
			nested = nested.Complement()
		}
		return nested, nil
	}

	lo, set, err := p.parseClassAtom()
	if err != nil {
		return nil, err
	}
	if set != nil {
		return set, nil // a class-escape (\d, \p{...}, ...), not a single char
	}

	// Range? a-z, but a literal '-' at the end or before ']' stays literal.
	if p.c.peekByte() == '-' && p.peekAt(1) != ']' && p.peekAt(1) != 0 {
		save := p.c.pos
		p.c.advance() // consume '-'
		hi, hiSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if hiSet != nil {
			// `a-\d` is not a valid range; treat '-' as literal instead.
			p.c.pos = save
			out := charset.New()
			out.AddFolded(lo, p.effectiveUnicodeCase())
			return out, nil
		}
		out := charset.New()
		if err := out.AddRangeFolded(lo, hi, p.effectiveUnicodeCase()); err != nil {
			return nil, p.wrapErr(err)
		}
		return out, nil
	}

	out := charset.New()
	out.AddFolded(lo, p.effectiveUnicodeCase())
	return out, nil
}

// parseClassAtom parses a single literal code point or a class-level escape.
// If the escape expands to a whole set (\d, \p{...}, ...) it is returned via
// set and cp is meaningless.
func (p *Parser) parseClassAtom() (cp rune, set *charset.Set, err error) {
	if p.c.peekByte() == '\\' {
		p.c.advance()
		return p.parseClassEscape()
	}
	if p.c.eof() {
		return 0, nil, p.errorf("unclosed character class")
	}
	return p.c.advance(), nil, nil
}

func (p *Parser) parseClassEscape() (cp rune, set *charset.Set, err error) {
	if p.c.eof() {
		return 0, nil, p.errorf("dangling backslash")
	}
	e := p.c.advance()
	switch e {
	case 'd', 'D', 'w', 'W', 's', 'S', 'h', 'H', 'v', 'V':
		return 0, p.predefinedClass(e), nil
	case 'p', 'P':
		s, perr := p.parseUnicodeProperty(e == 'P')
		return 0, s, perr
	case 'R':
		// \R has no class semantics in this dialect; reject it outright.
		return 0, nil, &UnsupportedConstructError{Pattern: p.src, Pos: p.c.pos, Reason: `\R is not supported inside a character class`}
	case 'n':
		return '\n', nil, nil
	case 'r':
		return '\r', nil, nil
	case 't':
		return '\t', nil, nil
	case 'f':
		return '\f', nil, nil
	case 'a':
		return '\a', nil, nil
	case 'e':
		return 0x1B, nil, nil
	case '0':
		r, oerr := decodeOctal(p.c)
		if oerr != nil {
			return '\x00', nil, nil // bare \0
		}
		return r, nil, nil
	case 'x':
		braced := p.c.accept('{')
		r, herr := decodeHex(p.c, braced)
		if herr != nil {
			return 0, nil, p.wrapErr(herr)
		}
		return r, nil, nil
	case 'u':
		r, uerr := decodeUnicode(p.c, false)
		if uerr != nil {
			return 0, nil, p.wrapErr(uerr)
		}
		return r, nil, nil
	case 'c':
		r, cerr := decodeControl(p.c)
		if cerr != nil {
			return 0, nil, p.wrapErr(cerr)
		}
		return r, nil, nil
	default:
		if e >= '1' && e <= '9' {
			return 0, nil, p.errorf("numeric back-reference is not allowed inside a character class")
		}
		if isMeta(e) || e == ']' || e == '-' || e == '&' {
			return e, nil, nil
		}
		return 0, nil, p.errorf("unknown escape \\%c", e)
	}
}

// parsePosixClass parses `[:name:]` / `[:^name:]`, cursor positioned at the
// `:` just after the `[`.
func (p *Parser) parsePosixClass() (*charset.Set, error) {
	p.c.advance() // ':'
	negate := p.c.accept('^')
	start := p.c.pos
	for !p.c.eof() && p.c.peekByte() != ':' {
		p.c.advance()
	}
	name := p.c.src[start:p.c.pos]
	if !p.c.acceptString(":]") {
		return nil, p.errorf("unclosed POSIX class [:%s:]", name)
	}
	set, ok := p.oracle.Lookup(posixCanonicalName(name))
	if !ok {
		return nil, p.errorf("unknown POSIX class %q", name)
	}
	if negate {
		set = set.Complement()
	}
	return set, nil
}

func posixCanonicalName(name string) string {
	if len(name) == 0 {
		return name
	}
	b := []byte(name)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func (p *Parser) peekAt(offset int) byte {
	idx := p.c.pos + offset
	if idx >= len(p.c.src) {
		return 0
	}
	return p.c.src[idx]
}
