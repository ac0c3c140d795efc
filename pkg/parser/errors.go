package parser

import (
	"fmt"

	"github.com/leapstack-labs/nolock/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedIdent   = "unterminated quoted identifier"
	ErrUnterminatedComment = "unterminated block comment"
	ErrUnexpectedChar      = "unexpected character %q"
	ErrUnclosedParen       = "unclosed parenthesis"
	ErrUnexpectedParen     = "unexpected closing parenthesis"
	ErrExpectedTable       = "expected table expression after %s, found %s"
	ErrExpectedSample      = "expected ( after TABLESAMPLE, found %s"
)

// illegalMessage describes an ILLEGAL token produced by the lexer.
func illegalMessage(literal string) string {
	switch {
	case literal == "":
		return fmt.Sprintf(ErrUnexpectedChar, literal)
	case literal[0] == '\'' || (len(literal) > 1 && (literal[0] == 'N' || literal[0] == 'n') && literal[1] == '\''):
		return ErrUnterminatedString
	case literal[0] == '[' || literal[0] == '"':
		return ErrUnterminatedIdent
	case len(literal) > 1 && literal[:2] == "/*":
		return ErrUnterminatedComment
	default:
		return fmt.Sprintf(ErrUnexpectedChar, literal)
	}
}
