package nolock

import (
	"github.com/leapstack-labs/nolock/pkg/segment"
	"github.com/leapstack-labs/nolock/pkg/token"
)

// Synthesize builds the edit that adds WITH (NOLOCK) to a from element, or
// returns nil when no safe edit exists:
//   - the element already has a hint clause, whatever its content;
//   - its alias carries a bracketed identifier list, as in `t (NOLOCK)`;
//   - it has neither an alias nor a table expression to anchor on.
//
// The hint goes after the alias when there is one, so the result reads
// `t AS x WITH (NOLOCK)`. A TABLESAMPLE clause must precede table hints,
// so when present the hint goes after it instead. It panics if node is not
// a KindFromReferenceElement segment.
func Synthesize(node *segment.Segment) *segment.Edit {
	mustBeElement(node)

	if !hintClauses(node).Empty() {
		return nil
	}

	anchor := node.FirstChild(segment.KindAliasExpression)
	if anchor != nil && !segment.Select(anchor).Children(segment.KindBracketed).Empty() {
		return nil
	}
	if sample := node.FirstChild(segment.KindSampleExpression); sample != nil {
		anchor = sample
	}
	if anchor == nil {
		anchor = node.FirstChild(segment.KindTableExpression)
	}
	if anchor == nil {
		return nil
	}

	return &segment.Edit{
		Op:       segment.InsertAfter,
		Anchor:   anchor,
		Segments: hintPayload(),
	}
}

// hintPayload returns the segments the parser produces for " WITH (NOLOCK)"
// following a table or alias.
func hintPayload() []*segment.Segment {
	return []*segment.Segment{
		leaf(segment.KindWhitespace, " "),
		segment.NewNode(segment.KindPostTableExpression,
			leaf(segment.KindKeyword, "WITH"),
			leaf(segment.KindWhitespace, " "),
			segment.NewNode(segment.KindBracketed,
				segment.NewNode(segment.KindHintClause,
					leaf(segment.KindStartBracket, "("),
					leaf(segment.KindKeyword, HintKeyword),
					leaf(segment.KindEndBracket, ")"),
				),
			),
		),
	}
}

func leaf(kind segment.Kind, raw string) *segment.Segment {
	return segment.NewLeaf(kind, raw, token.Position{})
}
