package stats

import (
	"math"

	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// featureInfo is an open feature on the hierarchy stack.
type featureInfo struct {
	name  string
	depth int
}

// tracker keeps the containment state of one pass. Memory is bounded by the
// nesting depth of the document, not by its size.
type tracker struct {
	elements      []xmlstream.QName
	features      []featureInfo
	featureDepths []int
	sentinel      int
}

// newTracker creates a tracker. With an identifier filter nothing is nested
// under an accepted feature until a match occurs, so the sentinel is +inf.
func newTracker(filtered bool) *tracker {
	t := &tracker{}
	if filtered {
		t.sentinel = math.MaxInt
	}
	return t
}

// lastFeatureDepth returns the depth of the innermost accepted feature.
func (t *tracker) lastFeatureDepth() int {
	if n := len(t.featureDepths); n > 0 {
		return t.featureDepths[n-1]
	}
	return t.sentinel
}

func (t *tracker) pushElement(name xmlstream.QName) {
	t.elements = append(t.elements, name)
}

func (t *tracker) popElement() {
	if n := len(t.elements); n > 0 {
		t.elements = t.elements[:n-1]
	}
}

// parent returns the innermost open element.
func (t *tracker) parent() (xmlstream.QName, bool) {
	if n := len(t.elements); n > 0 {
		return t.elements[n-1], true
	}
	return xmlstream.QName{}, false
}

func (t *tracker) pushFeatureDepth(depth int) {
	t.featureDepths = append(t.featureDepths, depth)
}

// pushFeature opens a feature on the hierarchy stack and returns the current
// path, outermost feature first.
func (t *tracker) pushFeature(name string, depth int) []string {
	t.features = append(t.features, featureInfo{name: name, depth: depth})
	path := make([]string, len(t.features))
	for i, f := range t.features {
		path[i] = f.name
	}
	return path
}

// closeElement unwinds the stacks for an end event reported at depth.
// Features opened at depth+1 are closed by it.
func (t *tracker) closeElement(depth int) {
	if n := len(t.features); n > 0 && t.features[n-1].depth == depth+1 {
		t.features = t.features[:n-1]
	}
	if n := len(t.featureDepths); n > 0 && t.featureDepths[n-1] == depth+1 {
		t.featureDepths = t.featureDepths[:n-1]
	}
	t.popElement()
}

// empty reports whether all stacks have unwound.
func (t *tracker) empty() bool {
	return len(t.elements) == 0 && len(t.features) == 0 && len(t.featureDepths) == 0
}
