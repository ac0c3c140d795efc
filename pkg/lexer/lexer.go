// Package lexer tokenizes T-SQL into a lossless token stream.
//
// Unlike a classic SQL lexer, whitespace, newlines and comments are
// returned as tokens so that a syntax tree built on top of the stream can
// be rendered back to the exact input text.
package lexer

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/nolock/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)
}

// New creates a new Lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the position of the current character.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token, trivia included.
func (l *Lexer) NextToken() token.Token {
	pos := l.currentPos()
	start := l.pos

	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	var typ token.TokenType

	switch l.ch {
	case ' ', '\t', '\f', '\v':
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' || l.ch == '\v' {
			l.readChar()
		}
		typ = token.WHITESPACE
	case '\r':
		l.readChar()
		if l.ch == '\n' {
			l.readChar()
			typ = token.NEWLINE
		} else {
			typ = token.WHITESPACE
		}
	case '\n':
		l.readChar()
		typ = token.NEWLINE
	case '-':
		if l.peekChar() == '-' {
			l.readLineComment()
			typ = token.COMMENT
		} else {
			typ = l.single(token.MINUS)
		}
	case '/':
		if l.peekChar() == '*' {
			if !l.readBlockComment() {
				typ = token.ILLEGAL
			} else {
				typ = token.COMMENT
			}
		} else {
			typ = l.single(token.SLASH)
		}
	case '+':
		typ = l.single(token.PLUS)
	case '*':
		typ = l.single(token.STAR)
	case '%':
		typ = l.single(token.PERCENT)
	case '&':
		typ = l.single(token.AMP)
	case '|':
		typ = l.single(token.PIPE)
	case '^':
		typ = l.single(token.CARET)
	case '~':
		typ = l.single(token.TILDE)
	case '=':
		typ = l.single(token.EQ)
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			typ = l.single(token.LE)
		case '>':
			l.readChar()
			typ = l.single(token.NE)
		default:
			typ = l.single(token.LT)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			typ = l.single(token.GE)
		} else {
			typ = l.single(token.GT)
		}
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			typ = l.single(token.NE)
		case '<':
			l.readChar()
			typ = l.single(token.GE)
		case '>':
			l.readChar()
			typ = l.single(token.LE)
		default:
			typ = l.single(token.ILLEGAL)
		}
	case '.':
		if isDigit(l.peekChar()) {
			l.readNumber()
			typ = token.NUMBER
		} else {
			typ = l.single(token.DOT)
		}
	case ',':
		typ = l.single(token.COMMA)
	case ';':
		typ = l.single(token.SEMICOLON)
	case ':':
		typ = l.single(token.COLON)
	case '(':
		typ = l.single(token.LPAREN)
	case ')':
		typ = l.single(token.RPAREN)
	case '\'':
		if l.readQuoted('\'') {
			typ = token.STRING
		} else {
			typ = token.ILLEGAL
		}
	case '"':
		if l.readQuoted('"') {
			typ = token.QUOTED_IDENT
		} else {
			typ = token.ILLEGAL
		}
	case '[':
		if l.readQuoted(']') {
			typ = token.QUOTED_IDENT
		} else {
			typ = token.ILLEGAL
		}
	case '@':
		l.readChar()
		if l.ch == '@' {
			l.readChar()
		}
		l.readIdentifierTail()
		typ = token.VARIABLE
	default:
		switch {
		case (l.ch == 'N' || l.ch == 'n') && l.peekChar() == '\'':
			l.readChar() // skip N prefix
			if l.readQuoted('\'') {
				typ = token.STRING
			} else {
				typ = token.ILLEGAL
			}
		case isLetter(l.ch) || l.ch == '_' || l.ch == '#':
			l.readIdentifierTail()
			typ = token.LookupIdent(l.input[start:l.pos])
		case isDigit(l.ch):
			l.readNumber()
			typ = token.NUMBER
		default:
			typ = l.single(token.ILLEGAL)
		}
	}

	return token.Token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}
}

// single consumes the current character and returns typ.
func (l *Lexer) single(typ token.TokenType) token.TokenType {
	l.readChar()
	return typ
}

// readLineComment consumes a -- comment up to, not including, the newline.
func (l *Lexer) readLineComment() {
	for !l.atEOF() && l.ch != '\n' && l.ch != '\r' {
		l.readChar()
	}
}

// readBlockComment consumes a /* */ comment. T-SQL block comments nest.
// Returns false if the comment is unterminated.
func (l *Lexer) readBlockComment() bool {
	l.readChar() // skip '/'
	l.readChar() // skip '*'

	depth := 1
	for !l.atEOF() {
		switch {
		case l.ch == '/' && l.peekChar() == '*':
			depth++
			l.readChar()
		case l.ch == '*' && l.peekChar() == '/':
			depth--
			l.readChar()
			if depth == 0 {
				l.readChar()
				return true
			}
		}
		l.readChar()
	}
	return false
}

// readQuoted consumes a quoted literal whose closing delimiter is escaped
// by doubling it: 'it''s', [a]]b], "col""name".
// Returns false if the literal is unterminated.
func (l *Lexer) readQuoted(closing byte) bool {
	l.readChar() // skip opening delimiter

	for !l.atEOF() {
		if l.ch == closing {
			if l.peekChar() == closing {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readIdentifierTail consumes identifier characters.
func (l *Lexer) readIdentifierTail() {
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '#' || l.ch == '@' || l.ch == '$' {
		l.readChar()
	}
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

// isLetter returns true if ch is a letter.
// Bytes of multi-byte UTF-8 sequences count as letters so non-ASCII
// identifiers stay in one token.
func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}

// Join concatenates token literals. For a full token stream this is the
// original input.
func Join(tokens []token.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Literal)
	}
	return b.String()
}
