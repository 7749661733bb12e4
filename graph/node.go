// Package graph defines the match-node graph produced by the parser and
// walked by both the backtracking interpreter and the ReDoS analyzer.
//
// Nodes are a tagged variant (one struct, a Kind discriminant, and
// kind-specific fields) rather
// than an interface hierarchy with downcasts, and the analyzer-only wiring
// (DirectNext/SubNext/DirectPrev/DirectParent) lives in a side table
// (Wiring) built by a single post-order pass instead of being threaded
// through every node constructor.
package graph

import "github.com/coregx/redosx/charset"

// ID identifies a Node within a Graph's arena. Nodes are never freed
// independently: the whole Graph is live or none of it is.
type ID uint32

// InvalidID marks the absence of a node reference.
const InvalidID ID = 0xFFFFFFFF

// Kind discriminates the Node variants.
type Kind uint8

const (
	KindChar Kind = iota
	KindCharClass
	KindAny       // Dot: any char except newline, unless DotAll
	KindAnyNL     // Dot with DotAll: matches newline too
	KindBegin     // \A
	KindEnd       // \z
	KindCaret     // ^, honors Multiline
	KindDollar    // $, honors Multiline
	KindBound     // \b / \B, Left/Right/Both/None modes
	KindLastMatch // \G
	KindGroupHead
	KindGroupTail
	KindAtomicGroup  // (?>...)
	KindQues         // zero-or-one
	KindCurly        // bounded/unbounded repetition {m,n}
	KindBranch       // alternation
	KindBackRef      // \N or \k<name>
	KindLookahead    // (?=...) / (?!...)
	KindLookbehind   // (?<=...) / (?<!...)
	KindAccept       // terminal sentinel
	KindBranchConn   // alternation-arm rejoin guard
	KindLoopPrologue // seeds a non-deterministic loop counter
	KindSlice        // collapsed run of >=2 literal code points, one-shot compare
	KindSliceBM      // KindSlice with a precomputed Boyer-Moore shift table
)

// RepMode is the backtracking discipline of a repetition node.
type RepMode uint8

const (
	Greedy RepMode = iota
	Lazy
	Possessive
)

// BoundMode selects which side(s) of the cursor \b / \B examines.
type BoundMode uint8

const (
	BoundBoth BoundMode = iota
	BoundLeft
	BoundRight
	BoundNone
)

// Node is one element of the match graph. Exactly the fields relevant to
// Kind are meaningful; see the accessor comments below for which fields
// belong to which Kind.
type Node struct {
	ID   ID
	Kind Kind

	// Next is the successor attempted after this node accepts; it is the
	// execution-order "next" chain (nullable, reaches the Accept sentinel).
	Next ID

	// BeginCursor/EndCursor is the span in the original pattern text that
	// produced this node.
	BeginCursor, EndCursor int

	// Self is a human-readable label of the pattern fragment, used in error
	// messages and the analyzer's diagnostic output.
	Self string

	// --- literal / class payload ---
	Char         rune         // KindChar
	CharUp       rune         // KindChar case-insensitive pair partner, equal to Char when unpaired
	Class        *charset.Set // KindCharClass
	Complemented bool         // KindCharClass: class is negated

	// --- literal run (parser optimization) ---
	Buf           []rune         // KindSlice/KindSliceBM: the literal run
	SliceFoldCase bool           // KindSlice/KindSliceBM: case-insensitive compare
	BMLastOcc     map[rune]int   // KindSliceBM: bad-character table, keyed by low-7-bit alias
	BMGoodSuffix  []int          // KindSliceBM: good-suffix shift table, len(Buf)+1

	// --- anchors ---
	Multiline bool      // KindCaret/KindDollar
	UnixLines bool       // KindCaret/KindDollar/KindAny: only \n ends a line
	Bound     BoundMode  // KindBound

	// --- groups ---
	GroupIndex int    // KindGroupHead/KindGroupTail: 1-based capture index, 0 = non-capturing
	GroupName  string // KindGroupHead: name, "" if unnamed
	Body       ID     // KindGroupHead/KindAtomicGroup/KindLookahead/KindLookbehind/KindCurly/KindQues: sub-graph entry

	// --- repetition ---
	Min, Max int     // KindCurly: Max == -1 means unbounded
	Mode     RepMode // KindCurly/KindQues

	// --- alternation ---
	Branches []ID // KindBranch: arms, tried in source order
	Conn     ID   // KindBranch: BranchConn node all arms funnel into

	// --- back-reference ---
	RefGroup     int  // KindBackRef
	RefCaseFold  bool // KindBackRef: case-insensitive comparison

	// --- lookaround ---
	Negative  bool // KindLookahead/KindLookbehind
	MinLen    int  // KindLookbehind: minimum consumed length of Body
	MaxLen    int  // KindLookbehind: maximum consumed length of Body (always bounded)

	// --- loop controller linkage (prologue/controller cyclic pair) ---
	LoopCounterSlot int // KindLoopPrologue/KindCurly: index into MatcherState.counters
	Controller      ID  // KindCurly: the node its body's terminal Next points back to
}
