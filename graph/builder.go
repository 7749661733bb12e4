package graph

import "github.com/coregx/redosx/charset"

// Builder constructs a Graph incrementally using arena allocation: nodes
// are appended to a slice and referenced by integer index rather than
// pointer, so the cyclic references a repetition's body makes back to its
// controller cost nothing and need no special-case cleanup — the whole
// arena is freed at once or not at all.
type Builder struct {
	nodes       []Node
	groups      []GroupInfo
	namedGroups map[string]int
}

// NewBuilder creates an empty Builder with room for a modest pattern.
func NewBuilder() *Builder {
	return &Builder{
		nodes:       make([]Node, 0, 32),
		namedGroups: map[string]int{},
	}
}

// Node returns a pointer into the in-progress arena, mirroring Graph.Node.
// This lets parser-side helpers (e.g. the look-behind length study) inspect
// nodes before the graph is finalized with Finish.
func (b *Builder) Node(id ID) *Node {
	return &b.nodes[id]
}

func (b *Builder) alloc(n Node) ID {
	id := ID(len(b.nodes))
	n.ID = id
	if n.Next == 0 {
		n.Next = InvalidID
	}
	b.nodes = append(b.nodes, n)
	return id
}

// AddAccept adds the terminal sentinel node.
func (b *Builder) AddAccept() ID {
	return b.alloc(Node{Kind: KindAccept, Next: InvalidID})
}

// AddEmpty adds a zero-width pass-through node, used for empty sequences
// (an empty pattern, an empty alternation arm like the trailing arm of
// `a|`, or a no-op like a bare `(?i)` inline-flag group). It reuses the
// same transparent-relay kind as a branch-rejoin guard, since both do
// nothing but forward control flow.
func (b *Builder) AddEmpty(next ID) ID {
	return b.alloc(Node{Kind: KindBranchConn, Next: next})
}

// AddChar adds a single code-point literal node.
func (b *Builder) AddChar(cp rune, upperPair rune, next ID) ID {
	return b.alloc(Node{Kind: KindChar, Char: cp, CharUp: upperPair, Next: next})
}

// AddClass adds a character-class node over set.
func (b *Builder) AddClass(set *charset.Set, complemented bool, next ID) ID {
	return b.alloc(Node{Kind: KindCharClass, Class: set, Complemented: complemented, Next: next})
}

// AddAny adds a "." node. dotAll selects whether it matches newline too.
func (b *Builder) AddAny(dotAll, unixLines bool, next ID) ID {
	k := KindAny
	if dotAll {
		k = KindAnyNL
	}
	return b.alloc(Node{Kind: k, UnixLines: unixLines, Next: next})
}

// AddAnchor adds one of \A \z ^ $ \G.
func (b *Builder) AddAnchor(kind Kind, multiline, unixLines bool, next ID) ID {
	return b.alloc(Node{Kind: kind, Multiline: multiline, UnixLines: unixLines, Next: next})
}

// AddBound adds a word-boundary node.
func (b *Builder) AddBound(mode BoundMode, next ID) ID {
	return b.alloc(Node{Kind: KindBound, Bound: mode, Next: next})
}

// AddGroupHead begins a capturing or non-capturing group. groupIndex == 0
// means non-capturing. Returns the head ID; the caller fills Body once the
// sub-graph is parsed.
func (b *Builder) AddGroupHead(groupIndex int, name string, next ID) ID {
	return b.alloc(Node{Kind: KindGroupHead, GroupIndex: groupIndex, GroupName: name, Next: next})
}

// AddGroupTail closes a capturing group.
func (b *Builder) AddGroupTail(groupIndex int, next ID) ID {
	return b.alloc(Node{Kind: KindGroupTail, GroupIndex: groupIndex, Next: next})
}

// AddAtomicGroup adds an independent, (?>...) group with no backtracking
// into its body once it succeeds once.
func (b *Builder) AddAtomicGroup(body, next ID) ID {
	return b.alloc(Node{Kind: KindAtomicGroup, Body: body, Next: next})
}

// AddQues adds a 0-or-1 repetition of body.
func (b *Builder) AddQues(body ID, mode RepMode, next ID) ID {
	return b.alloc(Node{Kind: KindQues, Body: body, Mode: mode, Next: next})
}

// AddCurly adds a bounded or unbounded ({m,n} with n == -1) repetition.
func (b *Builder) AddCurly(body ID, min, max int, mode RepMode, next ID) ID {
	return b.alloc(Node{Kind: KindCurly, Body: body, Min: min, Max: max, Mode: mode, Next: next})
}

// AddLoopPrologue adds the counter-seeding half of a loop: entry from
// outside passes through it, the loop-back edge does not.
func (b *Builder) AddLoopPrologue(counterSlot int, next ID) ID {
	return b.alloc(Node{Kind: KindLoopPrologue, LoopCounterSlot: counterSlot, Next: next})
}

// AddBranch adds an alternation over arms, all of which funnel into a
// BranchConn node.
func (b *Builder) AddBranch(arms []ID, next ID) ID {
	conn := b.alloc(Node{Kind: KindBranchConn, Next: next})
	return b.alloc(Node{Kind: KindBranch, Branches: arms, Conn: conn})
}

// AddBackRef adds a back-reference to groupIndex.
func (b *Builder) AddBackRef(groupIndex int, caseFold bool, next ID) ID {
	return b.alloc(Node{Kind: KindBackRef, RefGroup: groupIndex, RefCaseFold: caseFold, Next: next})
}

// AddLookahead adds (?=...) / (?!...).
func (b *Builder) AddLookahead(body ID, negative bool, next ID) ID {
	return b.alloc(Node{Kind: KindLookahead, Body: body, Negative: negative, Next: next})
}

// AddLookbehind adds (?<=...) / (?<!...). minLen/maxLen bound the body's
// consumed length.
func (b *Builder) AddLookbehind(body ID, negative bool, minLen, maxLen int, next ID) ID {
	return b.alloc(Node{Kind: KindLookbehind, Body: body, Negative: negative, MinLen: minLen, MaxLen: maxLen, Next: next})
}

// SetNext rewires an already-allocated node's Next pointer; used to close
// cycles (a repetition body's terminal pointing back to its controller).
func (b *Builder) SetNext(id, next ID) {
	b.nodes[id].Next = next
}

// SetBody rewires an already-allocated node's Body pointer.
func (b *Builder) SetBody(id, body ID) {
	b.nodes[id].Body = body
}

// SetSpan records the pattern-text span [begin, end) that produced id.
func (b *Builder) SetSpan(id ID, begin, end int, self string) {
	b.nodes[id].BeginCursor = begin
	b.nodes[id].EndCursor = end
	b.nodes[id].Self = self
}

// DeclareGroup registers a new capturing group and returns its 1-based
// index. Returns an error via the bool result if name is already taken.
func (b *Builder) DeclareGroup(name string) (index int, ok bool) {
	index = len(b.groups) + 1
	if name != "" {
		if _, taken := b.namedGroups[name]; taken {
			return 0, false
		}
		b.namedGroups[name] = index
	}
	b.groups = append(b.groups, GroupInfo{Index: index, Name: name})
	return index, true
}

// LookupGroup resolves a named group to its index.
func (b *Builder) LookupGroup(name string) (index int, ok bool) {
	index, ok = b.namedGroups[name]
	return
}

// NumGroupsDeclared returns how many capturing groups have been declared so
// far (used by the parser to validate forward back-references).
func (b *Builder) NumGroupsDeclared() int { return len(b.groups) }

// Finish produces the immutable Graph. root is the entry node; accept is
// the terminal sentinel every successful path reaches.
func (b *Builder) Finish(pattern string, root, accept ID, hasSupplementary bool) *Graph {
	g := &Graph{
		nodes:            b.nodes,
		Root:             root,
		Accept:           accept,
		Groups:           b.groups,
		NamedGroups:      b.namedGroups,
		HasSupplementary: hasSupplementary,
		Pattern:          pattern,
	}
	Wire(g)
	return g
}
