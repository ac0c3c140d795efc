package nolock

import (
	"fmt"

	"github.com/leapstack-labs/nolock/pkg/segment"
)

// Description is the message of every violation.
const Description = "Missing table hint NOLOCK"

// HintKeyword is the hint the rule requires. Matching is case-sensitive.
const HintKeyword = "NOLOCK"

// Outcome is the result of evaluating one from element: either Clean or a
// Violation.
type Outcome struct {
	Clean     bool
	Violation *Violation
}

// Violation reports a table reference without the hint. Fix is nil when no
// safe edit is known.
type Violation struct {
	Anchor      *segment.Segment
	Description string
	Fix         *segment.Edit
}

// Matcher decides whether a from element already carries the hint.
type Matcher struct {
	// AcceptAliasHint treats the legacy form `t (NOLOCK)`, which parses as
	// an alias column list, as an existing hint.
	AcceptAliasHint bool
}

// Evaluate checks node with the default Matcher.
func Evaluate(node *segment.Segment) Outcome {
	return Matcher{}.Evaluate(node)
}

// Evaluate checks one from element. It panics if node is not a
// KindFromReferenceElement segment.
func (m Matcher) Evaluate(node *segment.Segment) Outcome {
	mustBeElement(node)

	if !hasTableReference(node) {
		return Outcome{Clean: true}
	}
	if hintKeywords(node).Any(isHintKeyword) {
		return Outcome{Clean: true}
	}
	if m.AcceptAliasHint && isHintKeyword(aliasIdentifiers(node).First()) {
		return Outcome{Clean: true}
	}

	return Outcome{Violation: &Violation{
		Anchor:      node,
		Description: Description,
		Fix:         Synthesize(node),
	}}
}

// hasTableReference reports whether the element names a plain table, as an
// immediate child or inside its table expression. Subqueries, table-valued
// functions and table variables do not.
func hasTableReference(node *segment.Segment) bool {
	sel := segment.Select(node)
	if !sel.Children(segment.KindTableReference).Empty() {
		return true
	}
	return !sel.Children(segment.KindTableExpression).Children(segment.KindTableReference).Empty()
}

// hintClauses selects post_table_expression > bracketed > table_hint.
func hintClauses(node *segment.Segment) segment.Selection {
	return segment.Select(node).
		Children(segment.KindPostTableExpression).
		Children(segment.KindBracketed).
		Children(segment.KindHintClause)
}

func hintKeywords(node *segment.Segment) segment.Selection {
	return hintClauses(node).Children(segment.KindKeyword)
}

// aliasIdentifiers selects alias_expression > bracketed > identifier_list >
// identifier.
func aliasIdentifiers(node *segment.Segment) segment.Selection {
	return segment.Select(node).
		Children(segment.KindAliasExpression).
		Children(segment.KindBracketed).
		Children(segment.KindIdentifierList).
		Children(segment.KindIdentifier)
}

func isHintKeyword(s *segment.Segment) bool {
	return s != nil && s.Raw() == HintKeyword
}

func mustBeElement(node *segment.Segment) {
	if node == nil {
		panic("nolock: nil segment")
	}
	if node.Kind() != segment.KindFromReferenceElement {
		panic(fmt.Sprintf("nolock: expected %s segment, got %s", segment.KindFromReferenceElement, node.Kind()))
	}
}
