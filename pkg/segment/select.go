package segment

import "strings"

// Selection is an ordered set of segments used to walk fixed kind paths:
//
//	segment.Select(elem).
//		Children(segment.KindPostTableExpression).
//		Children(segment.KindBracketed).
//		Children(segment.KindHintClause)
type Selection struct {
	nodes []*Segment
}

// Select starts a selection from the given segments. Nil segments are
// dropped.
func Select(nodes ...*Segment) Selection {
	var sel Selection
	for _, n := range nodes {
		if n != nil {
			sel.nodes = append(sel.nodes, n)
		}
	}
	return sel
}

// Children returns the immediate children of every selected segment that
// have one of the given kinds, in document order. With no kinds, all
// children are kept.
func (s Selection) Children(kinds ...Kind) Selection {
	var out Selection
	for _, n := range s.nodes {
		for _, c := range n.children {
			if len(kinds) == 0 || c.Is(kinds...) {
				out.nodes = append(out.nodes, c)
			}
		}
	}
	return out
}

// Filter keeps the segments for which keep returns true.
func (s Selection) Filter(keep func(*Segment) bool) Selection {
	var out Selection
	for _, n := range s.nodes {
		if keep(n) {
			out.nodes = append(out.nodes, n)
		}
	}
	return out
}

// Any reports whether keep returns true for some selected segment.
func (s Selection) Any(keep func(*Segment) bool) bool {
	for _, n := range s.nodes {
		if keep(n) {
			return true
		}
	}
	return false
}

// First returns the first selected segment, or nil.
func (s Selection) First() *Segment {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0]
}

// Len returns the number of selected segments.
func (s Selection) Len() int { return len(s.nodes) }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.nodes) == 0 }

// Nodes returns a copy of the selected segments.
func (s Selection) Nodes() []*Segment {
	return append([]*Segment(nil), s.nodes...)
}

// Raw returns the raw text of each selected segment.
func (s Selection) Raw() []string {
	out := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Raw()
	}
	return out
}

func (s Selection) String() string {
	return strings.Join(s.Raw(), ", ")
}
