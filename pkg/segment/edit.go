package segment

import (
	"errors"
	"fmt"
	"strings"
)

// EditOp is the kind of tree edit.
type EditOp int

// Edit operations.
const (
	InsertAfter EditOp = iota
	InsertBefore
	Replace
)

func (op EditOp) String() string {
	switch op {
	case InsertAfter:
		return "insert_after"
	case InsertBefore:
		return "insert_before"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("edit_op(%d)", int(op))
	}
}

// Edit describes a change to a tree relative to an anchor segment.
// Edits never touch the tree they reference; Apply builds a new tree.
type Edit struct {
	Op       EditOp
	Anchor   *Segment
	Segments []*Segment
}

// Raw returns the concatenated text of the edit payload.
func (e Edit) Raw() string {
	var b strings.Builder
	for _, seg := range e.Segments {
		seg.writeRaw(&b)
	}
	return b.String()
}

// Sentinel errors returned by Apply.
var (
	ErrAnchorNotFound   = errors.New("edit anchor not found in tree")
	ErrOverlappingEdits = errors.New("overlapping edits")
	ErrRootAnchor       = errors.New("edit anchored at the tree root")
	ErrUnknownEditOp    = errors.New("unknown edit operation")
)

// Apply returns a copy of root with the edits applied. Only the segments on
// the path from the root to each anchor are copied; untouched subtrees are
// shared with the original, which is never modified.
//
// Two edits may not share an anchor, and no edit may target a segment
// inside a subtree that another edit replaces.
func Apply(root *Segment, edits ...Edit) (*Segment, error) {
	if len(edits) == 0 {
		return root, nil
	}

	byAnchor := make(map[*Segment]Edit, len(edits))
	for _, e := range edits {
		if e.Anchor == nil {
			return nil, fmt.Errorf("%w: nil anchor", ErrAnchorNotFound)
		}
		if e.Anchor == root {
			return nil, ErrRootAnchor
		}
		switch e.Op {
		case InsertAfter, InsertBefore, Replace:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownEditOp, e.Op)
		}
		if _, dup := byAnchor[e.Anchor]; dup {
			return nil, fmt.Errorf("%w: two edits anchored at %s", ErrOverlappingEdits, e.Anchor.Kind())
		}
		byAnchor[e.Anchor] = e
	}

	a := &applier{edits: byAnchor, applied: make(map[*Segment]bool, len(edits))}
	out, _ := a.rewrite(root)

	for anchor := range byAnchor {
		if a.applied[anchor] {
			continue
		}
		if a.insideReplaced(anchor) {
			return nil, fmt.Errorf("%w: %s lies inside a replaced segment", ErrOverlappingEdits, anchor.Kind())
		}
		return nil, fmt.Errorf("%w: %s", ErrAnchorNotFound, anchor)
	}
	return out, nil
}

type applier struct {
	edits    map[*Segment]Edit
	applied  map[*Segment]bool
	replaced []*Segment
}

// rewrite returns the edited copy of s and whether anything changed.
func (a *applier) rewrite(s *Segment) (*Segment, bool) {
	if s.leaf {
		return s, false
	}

	changed := false
	children := make([]*Segment, 0, len(s.children))
	for _, c := range s.children {
		e, ok := a.edits[c]
		if ok && e.Op == Replace {
			a.applied[c] = true
			a.replaced = append(a.replaced, c)
			children = append(children, e.Segments...)
			changed = true
			continue
		}

		nc, sub := a.rewrite(c)
		changed = changed || sub

		if !ok {
			children = append(children, nc)
			continue
		}
		a.applied[c] = true
		changed = true
		switch e.Op {
		case InsertBefore:
			children = append(children, e.Segments...)
			children = append(children, nc)
		case InsertAfter:
			children = append(children, nc)
			children = append(children, e.Segments...)
		}
	}

	if !changed {
		return s, false
	}
	return &Segment{kind: s.kind, children: children, pos: s.pos}, true
}

func (a *applier) insideReplaced(target *Segment) bool {
	for _, r := range a.replaced {
		found := false
		Walk(r, func(s *Segment) bool {
			if s == target {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}
