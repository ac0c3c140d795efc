package parser

import (
	"strings"

	"github.com/leapstack-labs/nolock/pkg/segment"
	"github.com/leapstack-labs/nolock/pkg/token"
)

// FROM clause parsing: table references, derived tables, table hints, JOINs.
//
// Grammar:
//
//	from_clause      → FROM from_expression ("," from_expression)*
//	from_expression  → from_element join_clause*
//	join_clause      → [INNER | {LEFT|RIGHT|FULL} [OUTER] | CROSS] [LOOP|HASH|MERGE|REMOTE] JOIN
//	                   from_element [ON condition]
//	                 | {CROSS|OUTER} APPLY from_element
//	from_element     → table_expression [alias_expression] [sample_expr] [post_table_expr]
//	table_expression → table_reference | function_call | "(" statement ")"
//	                 | "(" from_expression ")" | @variable
//	table_reference  → identifier ("." identifier)*
//	alias_expression → [AS] identifier ["(" identifier_list ")"]
//	                 | "(" identifier_list ")"            -- legacy t (NOLOCK)
//	sample_expr      → TABLESAMPLE [SYSTEM] "(" ... ")" [REPEATABLE "(" ... ")"]
//	post_table_expr  → WITH "(" hint_clause ")"
//	hint_clause      → hint ("," hint)*

// nonAliasWords are unreserved words that end a from element instead of
// naming an alias: batch separators and statements that may follow a FROM
// clause without a semicolon.
var nonAliasWords = map[string]bool{
	"alter": true, "begin": true, "break": true, "bulk": true, "checkpoint": true,
	"close": true, "commit": true, "continue": true, "create": true, "deallocate": true,
	"declare": true, "deny": true, "drop": true, "exec": true, "execute": true,
	"go": true, "goto": true, "grant": true, "if": true, "open": true, "print": true,
	"raiserror": true, "return": true, "revert": true, "revoke": true, "rollback": true,
	"save": true, "tablesample": true, "throw": true, "truncate": true, "use": true,
	"waitfor": true, "while": true, "window": true,
}

// joinHints are the physical join hints allowed between the join type and JOIN.
var joinHints = map[string]bool{
	"loop": true, "hash": true, "merge": true, "remote": true,
}

// tableHints are the T-SQL table hint words. A bracket holding only these
// right after a table name is a legacy hint, not a function call.
var tableHints = map[string]bool{
	"forceseek": true, "forcescan": true, "holdlock": true, "nolock": true,
	"nowait": true, "paglock": true, "readcommitted": true, "readcommittedlock": true,
	"readpast": true, "readuncommitted": true, "repeatableread": true, "rowlock": true,
	"serializable": true, "snapshot": true, "tablock": true, "tablockx": true,
	"updlock": true, "xlock": true, "noexpand": true,
}

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *segment.Segment {
	from := p.peek()
	children := p.take(nil) // FROM

	if !p.startsTableExpression() {
		p.fail(p.peek().Pos, ErrExpectedTable, from.Literal, describe(p.peek()))
		return segment.NewNode(segment.KindFromClause, children...)
	}

	children = p.trivia(children)
	children = append(children, p.parseFromExpression())

	for p.check(token.COMMA) {
		children = p.take(children)
		children = p.trivia(children)
		children = append(children, p.parseFromExpression())
	}

	return segment.NewNode(segment.KindFromClause, children...)
}

// parseFromExpression parses a from element followed by its joins.
func (p *Parser) parseFromExpression() *segment.Segment {
	children := []*segment.Segment{p.parseFromElement()}

	for p.isJoinStart() {
		children = p.trivia(children)
		children = append(children, p.parseJoinClause())
	}

	return segment.NewNode(segment.KindFromExpression, children...)
}

// parseFromElement parses one table expression with its alias and hints.
func (p *Parser) parseFromElement() *segment.Segment {
	at := p.peek()
	table := p.parseTableExpression()
	if table == nil {
		p.fail(at.Pos, ErrExpectedTable, "FROM", describe(at))
		return segment.NewNode(segment.KindFromReferenceElement)
	}
	children := []*segment.Segment{table}

	switch {
	case p.isAliasStart():
		children = p.trivia(children)
		children = append(children, p.parseAliasExpression())
	case p.check(token.LPAREN) && table.FirstChild(segment.KindTableReference) != nil && p.isIdentList(false):
		children = p.trivia(children)
		children = append(children, segment.NewNode(segment.KindAliasExpression, p.parseIdentifierList()))
	}

	if p.checkWord("tablesample") {
		children = p.trivia(children)
		children = append(children, p.parseSampleExpression())
	}

	if p.check(token.WITH) && p.peekN(1).Type == token.LPAREN {
		children = p.trivia(children)
		children = append(children, p.parsePostTableExpression())
	}

	return segment.NewNode(segment.KindFromReferenceElement, children...)
}

// checkWord reports whether the next token is the unreserved word w.
func (p *Parser) checkWord(w string) bool {
	tok := p.peek()
	return tok.Type == token.IDENT && strings.EqualFold(tok.Literal, w)
}

// parseSampleExpression parses TABLESAMPLE [SYSTEM] (n [PERCENT|ROWS])
// [REPEATABLE (seed)]. It comes before any WITH (...) hint.
func (p *Parser) parseSampleExpression() *segment.Segment {
	at := p.peek()
	children := p.takeAs(nil, segment.KindKeyword) // TABLESAMPLE
	if p.checkWord("system") {
		children = p.takeAs(children, segment.KindKeyword)
	}
	if !p.check(token.LPAREN) {
		p.fail(at.Pos, ErrExpectedSample, describe(p.peek()))
		return segment.NewNode(segment.KindSampleExpression, children...)
	}
	children = p.trivia(children)
	children = append(children, p.parseBracket())

	if p.checkWord("repeatable") && p.peekN(1).Type == token.LPAREN {
		children = p.takeAs(children, segment.KindKeyword)
		children = p.trivia(children)
		children = append(children, p.parseBracket())
	}
	return segment.NewNode(segment.KindSampleExpression, children...)
}

// startsTableExpression reports whether the next token can begin a table
// expression.
func (p *Parser) startsTableExpression() bool {
	t := p.peek().Type
	return isNameStart(t) || t == token.LPAREN || t == token.VARIABLE
}

// parseTableExpression parses a table name, table-valued function call,
// derived table or table variable. Returns nil if none starts here.
func (p *Parser) parseTableExpression() *segment.Segment {
	switch t := p.peek().Type; {
	case t == token.LPAREN:
		return segment.NewNode(segment.KindTableExpression, p.parseFromBracket())

	case isNameStart(t):
		ref := p.parseTableReference()
		if p.checkAdjacent(token.LPAREN) && !p.isIdentList(true) {
			call := append(ref.Children(), p.parseBracket())
			return segment.NewNode(segment.KindTableExpression,
				segment.NewNode(segment.KindFunctionCall, call...))
		}
		return segment.NewNode(segment.KindTableExpression, ref)

	case t == token.VARIABLE:
		return segment.NewNode(segment.KindTableExpression, p.take(nil)...)
	}
	return nil
}

// parseFromBracket parses a parenthesized table expression: a subquery,
// a VALUES list, or a nested join.
func (p *Parser) parseFromBracket() *segment.Segment {
	switch p.peekN(1).Type {
	case token.SELECT, token.WITH, token.VALUES:
		return p.parseBracket()
	}

	open := p.peek()
	children := p.takeAs(nil, segment.KindStartBracket)
	if p.startsTableExpression() {
		children = p.trivia(children)
		children = append(children, p.parseFromExpression())
	}
	children = p.bracketContents(children)
	return segment.NewNode(segment.KindBracketed, p.closeBracket(children, open)...)
}

// parseTableReference parses a possibly qualified name such as
// server.db.dbo.t or db..t.
func (p *Parser) parseTableReference() *segment.Segment {
	children := p.takeAs(nil, segment.KindIdentifier)

	for p.checkAdjacent(token.DOT) {
		children = p.takeAs(children, segment.KindDot)
		next := p.tokens[p.pos].Type
		if isNameStart(next) || token.IsKeyword(next) {
			children = p.takeAs(children, segment.KindIdentifier)
		}
	}

	return segment.NewNode(segment.KindTableReference, children...)
}

// isAliasStart reports whether an alias follows: AS, or a bare identifier
// that is not a statement word.
func (p *Parser) isAliasStart() bool {
	tok := p.peek()
	switch tok.Type {
	case token.AS:
		return true
	case token.QUOTED_IDENT:
		return true
	case token.IDENT:
		return !nonAliasWords[strings.ToLower(tok.Literal)]
	}
	return false
}

// parseAliasExpression parses [AS] alias [(column, ...)].
func (p *Parser) parseAliasExpression() *segment.Segment {
	var children []*segment.Segment

	if p.check(token.AS) {
		children = p.take(children)
	}
	if isNameStart(p.peek().Type) {
		children = p.takeAs(children, segment.KindIdentifier)
	}
	if p.check(token.LPAREN) && p.isIdentList(false) {
		children = p.trivia(children)
		children = append(children, p.parseIdentifierList())
	}

	return segment.NewNode(segment.KindAliasExpression, children...)
}

// isIdentList reports whether the upcoming bracket holds only identifiers
// separated by commas. With hintsOnly, every identifier must also be a
// table hint word.
func (p *Parser) isIdentList(hintsOnly bool) bool {
	if p.peek().Type != token.LPAREN {
		return false
	}
	for i := 1; ; i += 2 {
		id := p.peekN(i)
		if !isNameStart(id.Type) {
			return false
		}
		if hintsOnly && !tableHints[strings.ToLower(id.Literal)] {
			return false
		}
		switch p.peekN(i + 1).Type {
		case token.RPAREN:
			return true
		case token.COMMA:
		default:
			return false
		}
	}
}

// parseIdentifierList parses "(" identifier ("," identifier)* ")".
func (p *Parser) parseIdentifierList() *segment.Segment {
	open := p.peek()
	children := p.takeAs(nil, segment.KindStartBracket)
	children = p.trivia(children)

	var ids []*segment.Segment
	for isNameStart(p.peek().Type) {
		ids = p.takeAs(ids, segment.KindIdentifier)
		if !p.check(token.COMMA) {
			break
		}
		ids = p.take(ids)
	}
	children = append(children, segment.NewNode(segment.KindIdentifierList, ids...))

	return segment.NewNode(segment.KindBracketed, p.closeBracket(children, open)...)
}

// parsePostTableExpression parses WITH (hint, ...).
func (p *Parser) parsePostTableExpression() *segment.Segment {
	children := p.take(nil) // WITH
	children = p.trivia(children)

	open := p.peek()
	hint := p.takeAs(nil, segment.KindStartBracket)
	for {
		t := p.peek().Type
		if t == token.RPAREN || t == token.EOF {
			break
		}
		switch {
		case t == token.LPAREN:
			hint = p.trivia(hint)
			hint = append(hint, p.parseBracket())
		case isNameStart(t) || token.IsKeyword(t):
			hint = p.takeAs(hint, segment.KindKeyword)
		default:
			hint = p.take(hint)
		}
	}
	hint = p.closeBracket(hint, open)

	bracketed := segment.NewNode(segment.KindBracketed, segment.NewNode(segment.KindHintClause, hint...))
	return segment.NewNode(segment.KindPostTableExpression, append(children, bracketed)...)
}

// ---------- Joins ----------

// isJoinStart reports whether a join clause begins at the next token.
func (p *Parser) isJoinStart() bool {
	i := 0
	switch p.peekN(i).Type {
	case token.JOIN:
		return true
	case token.CROSS:
		next := p.peekN(1).Type
		return next == token.JOIN || next == token.APPLY
	case token.OUTER:
		return p.peekN(1).Type == token.APPLY
	case token.INNER:
		i++
	case token.LEFT, token.RIGHT, token.FULL:
		i++
		if p.peekN(i).Type == token.OUTER {
			i++
		}
	default:
		return false
	}

	if p.isJoinHint(p.peekN(i)) {
		i++
	}
	return p.peekN(i).Type == token.JOIN
}

func (p *Parser) isJoinHint(tok token.Token) bool {
	return (tok.Type == token.IDENT || tok.Type == token.MERGE) && joinHints[strings.ToLower(tok.Literal)]
}

// parseJoinClause parses a join keyword sequence, the joined element and
// its ON condition.
func (p *Parser) parseJoinClause() *segment.Segment {
	var children []*segment.Segment

	for {
		t := p.peek().Type
		children = p.takeAs(children, segment.KindKeyword)
		if t == token.JOIN || t == token.APPLY || t == token.EOF {
			break
		}
	}

	if !p.startsTableExpression() {
		p.fail(p.peek().Pos, ErrExpectedTable, "JOIN", describe(p.peek()))
		return segment.NewNode(segment.KindJoinClause, children...)
	}
	children = p.trivia(children)
	children = append(children, p.parseFromElement())

	if p.check(token.ON) {
		children = p.trivia(children)
		children = append(children, p.parseJoinOnCondition())
	}

	return segment.NewNode(segment.KindJoinClause, children...)
}

// parseJoinOnCondition consumes ON and the condition up to the next join
// or clause keyword.
func (p *Parser) parseJoinOnCondition() *segment.Segment {
	children := p.take(nil) // ON
	caseDepth := 0

	for !p.endsCondition(caseDepth) {
		switch p.peek().Type {
		case token.LPAREN:
			children = p.trivia(children)
			children = append(children, p.parseBracket())
			continue
		case token.CASE:
			caseDepth++
		case token.END:
			caseDepth--
		}
		children = p.take(children)
	}

	return segment.NewNode(segment.KindJoinOnCondition, children...)
}

func (p *Parser) endsCondition(caseDepth int) bool {
	tok := p.peek()
	switch tok.Type {
	case token.EOF, token.SEMICOLON, token.RPAREN, token.COMMA,
		token.WHERE, token.GROUP, token.HAVING, token.ORDER, token.OPTION, token.FOR,
		token.UNION, token.EXCEPT, token.INTERSECT,
		token.SELECT, token.INSERT, token.UPDATE, token.DELETE, token.MERGE, token.SET,
		token.PIVOT, token.UNPIVOT, token.FROM:
		return true
	case token.WHEN:
		return caseDepth == 0
	case token.IDENT:
		return nonAliasWords[strings.ToLower(tok.Literal)]
	}
	return p.isJoinStart()
}

// ---------- Helpers ----------

func isNameStart(t token.TokenType) bool {
	return t == token.IDENT || t == token.QUOTED_IDENT
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return "'" + tok.Literal + "'"
}
