// Package segment defines the immutable syntax tree produced by the parser
// and consumed by lint rules.
//
// A tree is built from segments. Leaf segments carry the exact source text
// of one token; composite segments own an ordered list of children. Trees
// are never mutated after construction: fixes are described as Edit values
// and applied with Apply, which returns a new tree.
package segment

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/nolock/pkg/token"
)

// Kind identifies the grammatical role of a segment.
type Kind uint32

// Segment kinds. KindOther covers any token or construct that lint rules
// do not need to interpret.
const (
	KindOther Kind = iota

	// Composite kinds
	KindFile
	KindStatement
	KindFromClause
	KindJoinClause
	KindJoinOnCondition
	KindFromExpression
	KindFromReferenceElement
	KindTableExpression
	KindTableReference
	KindAliasExpression
	KindPostTableExpression
	KindBracketed
	KindHintClause
	KindIdentifierList
	KindFunctionCall
	KindSampleExpression

	// Leaf kinds
	KindKeyword
	KindIdentifier
	KindSymbol
	KindStartBracket
	KindEndBracket
	KindComma
	KindDot
	KindLiteral
	KindOperator
	KindWhitespace
	KindNewline
	KindComment
)

var kindNames = [...]string{
	KindOther:                "other",
	KindFile:                 "file",
	KindStatement:            "statement",
	KindFromClause:           "from_clause",
	KindJoinClause:           "join_clause",
	KindJoinOnCondition:      "join_on_condition",
	KindFromExpression:       "from_expression",
	KindFromReferenceElement: "from_expression_element",
	KindTableExpression:      "table_expression",
	KindTableReference:       "table_reference",
	KindAliasExpression:      "alias_expression",
	KindPostTableExpression:  "post_table_expression",
	KindBracketed:            "bracketed",
	KindHintClause:           "table_hint",
	KindIdentifierList:       "identifier_list",
	KindFunctionCall:         "function",
	KindSampleExpression:     "sample_expression",
	KindKeyword:              "keyword",
	KindIdentifier:           "identifier",
	KindSymbol:               "symbol",
	KindStartBracket:         "start_bracket",
	KindEndBracket:           "end_bracket",
	KindComma:                "comma",
	KindDot:                  "dot",
	KindLiteral:              "literal",
	KindOperator:             "operator",
	KindWhitespace:           "whitespace",
	KindNewline:              "newline",
	KindComment:              "comment",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// IsTrivia reports whether segments of this kind carry no syntax.
func (k Kind) IsTrivia() bool {
	return k == KindWhitespace || k == KindNewline || k == KindComment
}

// Segment is a node of the syntax tree.
// Identity is pointer identity: edits refer to segments by address.
type Segment struct {
	kind     Kind
	raw      string
	children []*Segment
	pos      token.Position
	leaf     bool
}

// NewLeaf creates a leaf segment holding raw source text.
// Synthesized leaves use the zero Position.
func NewLeaf(kind Kind, raw string, pos token.Position) *Segment {
	return &Segment{kind: kind, raw: raw, pos: pos, leaf: true}
}

// NewNode creates a composite segment. The children slice is copied.
// A node's position is the position of its first positioned descendant.
func NewNode(kind Kind, children ...*Segment) *Segment {
	s := &Segment{kind: kind, children: append([]*Segment(nil), children...)}
	for _, c := range s.children {
		if c.pos.IsValid() {
			s.pos = c.pos
			break
		}
	}
	return s
}

// Kind returns the segment kind.
func (s *Segment) Kind() Kind { return s.kind }

// IsLeaf reports whether the segment is a token leaf.
func (s *Segment) IsLeaf() bool { return s.leaf }

// Pos returns the start position in the source, or the zero Position for
// synthesized segments.
func (s *Segment) Pos() token.Position { return s.pos }

// Is reports whether the segment has one of the given kinds.
func (s *Segment) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if s.kind == k {
			return true
		}
	}
	return false
}

// Raw returns the source text of the segment. For composites this is the
// concatenation of all descendant leaves.
func (s *Segment) Raw() string {
	if s.leaf {
		return s.raw
	}
	var b strings.Builder
	s.writeRaw(&b)
	return b.String()
}

func (s *Segment) writeRaw(b *strings.Builder) {
	if s.leaf {
		b.WriteString(s.raw)
		return
	}
	for _, c := range s.children {
		c.writeRaw(b)
	}
}

// Children returns a copy of the child list.
func (s *Segment) Children() []*Segment {
	return append([]*Segment(nil), s.children...)
}

// NumChildren returns the number of children.
func (s *Segment) NumChildren() int { return len(s.children) }

// FirstChild returns the first child with one of the given kinds, or nil.
func (s *Segment) FirstChild(kinds ...Kind) *Segment {
	for _, c := range s.children {
		if c.Is(kinds...) {
			return c
		}
	}
	return nil
}

// HasDescendant reports whether any segment below s has the given kind.
func (s *Segment) HasDescendant(kind Kind) bool {
	for _, c := range s.children {
		if c.kind == kind || c.HasDescendant(kind) {
			return true
		}
	}
	return false
}

// Code returns the non-trivia children.
func (s *Segment) Code() []*Segment {
	var out []*Segment
	for _, c := range s.children {
		if !c.kind.IsTrivia() {
			out = append(out, c)
		}
	}
	return out
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s(%q)", s.kind, s.Raw())
}

// Walk visits root and its descendants depth-first in document order.
// Returning false from fn skips the children of that segment.
func Walk(root *Segment, fn func(*Segment) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, c := range root.children {
		Walk(c, fn)
	}
}
