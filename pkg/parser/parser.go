// Package parser builds a lossless segment tree from T-SQL text.
//
// # Usage
//
//	tree, err := parser.Parse("SELECT a FROM t AS x WITH (NOLOCK)")
//	if err != nil {
//	    // handle *parser.ParseError
//	}
//	fmt.Print(segment.Render(tree)) // the input, unchanged
//
// # Grammar Overview
//
// The parser only structures what table-level lint rules need. Everything
// else is kept as flat leaves inside the enclosing statement or bracket.
//
//	file            → statement (";" statement)*
//	statement       → any tokens; FROM starts from_clause;
//	                  "(" SELECT ... ")" nests a bracketed statement
//	from_clause     → FROM from_expression ("," from_expression)*
//	from_expression → from_element join_clause*
//
// Whitespace, newlines and comments are kept as leaves wherever they occur,
// so segment.Render(tree) always returns the input text. See parser_from.go
// for the FROM grammar.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/nolock/pkg/lexer"
	"github.com/leapstack-labs/nolock/pkg/segment"
	"github.com/leapstack-labs/nolock/pkg/token"
)

// Parser turns a token stream into a segment tree.
type Parser struct {
	tokens []token.Token
	pos    int // index of the next unconsumed token, trivia included
	err    *ParseError
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	return &Parser{tokens: lexer.Tokenize(sql)}
}

// Parse parses the SQL and returns the root file segment.
func Parse(sql string) (*segment.Segment, error) {
	p := NewParser(sql)
	root := p.parseFile()
	if p.err != nil {
		return nil, p.err
	}
	return root, nil
}

// ---------- Token Helpers ----------

// peekN returns the n-th upcoming non-trivia token (0-based).
func (p *Parser) peekN(n int) token.Token {
	for i := p.pos; i < len(p.tokens); i++ {
		if token.IsTrivia(p.tokens[i].Type) {
			continue
		}
		if n == 0 {
			return p.tokens[i]
		}
		n--
	}
	return p.tokens[len(p.tokens)-1]
}

// peek returns the next non-trivia token.
func (p *Parser) peek() token.Token {
	return p.peekN(0)
}

// check returns true if the next non-trivia token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.peek().Type == t
}

// checkAdjacent returns true if the very next token, with no trivia in
// between, is of the given type.
func (p *Parser) checkAdjacent(t token.TokenType) bool {
	return p.tokens[p.pos].Type == t
}

// trivia moves pending whitespace, newlines and comments into children.
func (p *Parser) trivia(children []*segment.Segment) []*segment.Segment {
	for p.pos < len(p.tokens) && token.IsTrivia(p.tokens[p.pos].Type) {
		children = append(children, leafFor(p.tokens[p.pos], kindOf(p.tokens[p.pos].Type)))
		p.pos++
	}
	return children
}

// take consumes pending trivia and the next token into children, using the
// token's default segment kind.
func (p *Parser) take(children []*segment.Segment) []*segment.Segment {
	return p.takeAs(children, kindOf(p.peek().Type))
}

// takeAs consumes pending trivia and the next token into children as a
// leaf of the given kind.
func (p *Parser) takeAs(children []*segment.Segment, kind segment.Kind) []*segment.Segment {
	children = p.trivia(children)
	tok := p.tokens[p.pos]
	if tok.Type == token.EOF {
		return children
	}
	if tok.Type == token.ILLEGAL {
		p.fail(tok.Pos, "%s", illegalMessage(tok.Literal))
		return children
	}
	p.pos++
	return append(children, leafFor(tok, kind))
}

// fail records the first error and jumps to EOF so every parse loop ends.
func (p *Parser) fail(pos token.Position, format string, args ...any) {
	if p.err == nil {
		p.err = &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
	}
	p.pos = len(p.tokens) - 1
}

func leafFor(tok token.Token, kind segment.Kind) *segment.Segment {
	return segment.NewLeaf(kind, tok.Literal, tok.Pos)
}

// kindOf maps a token type to the segment kind of its leaf.
func kindOf(t token.TokenType) segment.Kind {
	if token.IsKeyword(t) {
		return segment.KindKeyword
	}

	switch t {
	case token.WHITESPACE:
		return segment.KindWhitespace
	case token.NEWLINE:
		return segment.KindNewline
	case token.COMMENT:
		return segment.KindComment
	case token.IDENT, token.QUOTED_IDENT:
		return segment.KindIdentifier
	case token.VARIABLE, token.NUMBER, token.STRING:
		return segment.KindLiteral
	case token.LPAREN:
		return segment.KindStartBracket
	case token.RPAREN:
		return segment.KindEndBracket
	case token.COMMA:
		return segment.KindComma
	case token.DOT:
		return segment.KindDot
	case token.SEMICOLON, token.COLON:
		return segment.KindSymbol
	}

	if token.IsOperator(t) {
		return segment.KindOperator
	}
	return segment.KindOther
}

// ---------- File and Statements ----------

// parseFile parses statements separated by semicolons.
func (p *Parser) parseFile() *segment.Segment {
	var children []*segment.Segment

	for !p.check(token.EOF) {
		if p.check(token.SEMICOLON) {
			children = p.take(children)
			continue
		}
		if p.check(token.RPAREN) {
			p.fail(p.peek().Pos, ErrUnexpectedParen)
			break
		}
		children = p.trivia(children)
		children = append(children, p.parseStatement(false))
	}

	children = p.trivia(children)
	return segment.NewNode(segment.KindFile, children...)
}

// parseStatement consumes tokens up to a semicolon, end of input or, for a
// nested statement, the closing parenthesis of its bracket.
func (p *Parser) parseStatement(nested bool) *segment.Segment {
	var children []*segment.Segment

loop:
	for {
		tok := p.peek()
		switch tok.Type {
		case token.EOF, token.SEMICOLON:
			break loop
		case token.RPAREN:
			if nested {
				break loop
			}
			p.fail(tok.Pos, ErrUnexpectedParen)
			break loop
		case token.FROM:
			if !opensFromClause(children) {
				children = p.take(children)
				continue
			}
			children = p.trivia(children)
			children = append(children, p.parseFromClause())
		case token.DELETE:
			children = p.parseDeleteTarget(children)
		case token.LPAREN:
			children = p.trivia(children)
			children = append(children, p.parseBracket())
		default:
			children = p.take(children)
		}
	}

	return segment.NewNode(segment.KindStatement, children...)
}

// opensFromClause reports whether a FROM following the given statement
// children starts a table source. It does not in IS DISTINCT FROM, in
// cursor fetches and in statements whose FROM names a principal or device.
func opensFromClause(children []*segment.Segment) bool {
	var code []string
	for _, c := range children {
		if c.IsLeaf() && !c.Kind().IsTrivia() {
			code = append(code, strings.ToLower(c.Raw()))
		}
	}
	if len(code) > 0 && (code[0] == "revoke" || code[0] == "restore") {
		return false
	}

	n := len(code)
	switch {
	case n >= 2 && code[n-1] == "distinct" && (code[n-2] == "is" || code[n-2] == "not"):
		return false
	case n >= 1 && code[n-1] == "fetch":
		return false
	case n >= 2 && code[n-2] == "fetch" && cursorDirections[code[n-1]]:
		return false
	case n >= 3 && code[n-3] == "fetch" && (code[n-2] == "absolute" || code[n-2] == "relative"):
		return false
	}
	return true
}

var cursorDirections = map[string]bool{"next": true, "prior": true, "first": true, "last": true}

// parseDeleteTarget parses DELETE [TOP (n)] [FROM] target. The target is a
// bare table reference: table hints are not allowed on it, so it is kept
// outside any from element.
func (p *Parser) parseDeleteTarget(children []*segment.Segment) []*segment.Segment {
	children = p.take(children) // DELETE

	if p.check(token.TOP) {
		children = p.take(children)
		if p.check(token.LPAREN) {
			children = p.trivia(children)
			children = append(children, p.parseBracket())
		}
	}

	if p.check(token.FROM) {
		children = p.take(children)
	}

	if isNameStart(p.peek().Type) {
		children = p.trivia(children)
		children = append(children, p.parseTableReference())
	}
	return children
}

// parseBracket parses a parenthesized group. A group that starts with
// SELECT or WITH holds a nested statement; anything else is kept flat,
// with nested groups parsed recursively.
func (p *Parser) parseBracket() *segment.Segment {
	open := p.peek()
	children := p.takeAs(nil, segment.KindStartBracket)

	if next := p.peek().Type; next == token.SELECT || next == token.WITH {
		children = p.trivia(children)
		children = append(children, p.parseStatement(true))
	} else {
		children = p.bracketContents(children)
	}

	return segment.NewNode(segment.KindBracketed, p.closeBracket(children, open)...)
}

// bracketContents consumes flat tokens up to the closing parenthesis.
func (p *Parser) bracketContents(children []*segment.Segment) []*segment.Segment {
	for {
		switch p.peek().Type {
		case token.EOF, token.RPAREN:
			return children
		case token.LPAREN:
			children = p.trivia(children)
			children = append(children, p.parseBracket())
		default:
			children = p.take(children)
		}
	}
}

// closeBracket consumes the closing parenthesis matching open.
func (p *Parser) closeBracket(children []*segment.Segment, open token.Token) []*segment.Segment {
	if !p.check(token.RPAREN) {
		p.fail(open.Pos, ErrUnclosedParen)
		return children
	}
	return p.takeAs(children, segment.KindEndBracket)
}
