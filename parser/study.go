package parser

import "github.com/coregx/redosx/graph"

// studyLength bounds the length of a look-behind body while the graph is
// still under construction (the Builder itself satisfies graph.NodeSource).
// It reports an error only in the sense finishLookaround needs: callers
// detect "unbounded" by checking maxLen == graph.Unbounded, so this wrapper
// never actually produces a non-nil error today, but keeps the call site
// free to evolve independently of graph.Study's own signature.
func studyLength(src graph.NodeSource, head graph.ID) (minLen, maxLen int, err error) {
	minLen, maxLen = graph.Study(src, head, graph.InvalidID)
	return minLen, maxLen, nil
}
