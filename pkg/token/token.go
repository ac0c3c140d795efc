// Package token defines the lexical tokens of the T-SQL subset understood
// by the nolock lexer.
//
// The token stream is lossless: whitespace, newlines and comments are
// tokens too, so concatenating every token literal reproduces the input.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // TOKEN_* names are intentionally ALL_CAPS for SQL token conventions
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Trivia
	WHITESPACE // spaces and tabs
	NEWLINE    // \n or \r\n
	COMMENT    // -- line or /* block */

	// Literals
	IDENT        // identifier, #temp, ##global
	QUOTED_IDENT // [name] or "name"
	VARIABLE     // @var, @@rowcount
	NUMBER       // 123, 45.67, 1e10
	STRING       // 'hello', N'hello'

	// Operators and punctuation
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	AMP       // &
	PIPE      // |
	CARET     // ^
	TILDE     // ~
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	LPAREN    // (
	RPAREN    // )

	// Reserved keywords (alphabetical)
	ALL
	AND
	ANY
	APPLY
	AS
	ASC
	BETWEEN
	BY
	CASE
	CROSS
	DELETE
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXISTS
	FETCH
	FOR
	FROM
	FULL
	GROUP
	HAVING
	IN
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	JOIN
	LEFT
	LIKE
	MERGE
	NOT
	NULL
	OFFSET
	ON
	OPTION
	OR
	ORDER
	OUTER
	OVER
	PIVOT
	RIGHT
	SELECT
	SET
	THEN
	TOP
	UNION
	UNPIVOT
	UPDATE
	USING
	VALUES
	WHEN
	WHERE
	WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	WHITESPACE: "WHITESPACE",
	NEWLINE:    "NEWLINE",
	COMMENT:    "COMMENT",

	IDENT:        "IDENT",
	QUOTED_IDENT: "QUOTED_IDENT",
	VARIABLE:     "VARIABLE",
	NUMBER:       "NUMBER",
	STRING:       "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	EQ:        "=",
	NE:        "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	AMP:       "&",
	PIPE:      "|",
	CARET:     "^",
	TILDE:     "~",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	COLON:     ":",
	LPAREN:    "(",
	RPAREN:    ")",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":       ALL,
	"and":       AND,
	"any":       ANY,
	"apply":     APPLY,
	"as":        AS,
	"asc":       ASC,
	"between":   BETWEEN,
	"by":        BY,
	"case":      CASE,
	"cross":     CROSS,
	"delete":    DELETE,
	"desc":      DESC,
	"distinct":  DISTINCT,
	"else":      ELSE,
	"end":       END,
	"except":    EXCEPT,
	"exists":    EXISTS,
	"fetch":     FETCH,
	"for":       FOR,
	"from":      FROM,
	"full":      FULL,
	"group":     GROUP,
	"having":    HAVING,
	"in":        IN,
	"inner":     INNER,
	"insert":    INSERT,
	"intersect": INTERSECT,
	"into":      INTO,
	"is":        IS,
	"join":      JOIN,
	"left":      LEFT,
	"like":      LIKE,
	"merge":     MERGE,
	"not":       NOT,
	"null":      NULL,
	"offset":    OFFSET,
	"on":        ON,
	"option":    OPTION,
	"or":        OR,
	"order":     ORDER,
	"outer":     OUTER,
	"over":      OVER,
	"pivot":     PIVOT,
	"right":     RIGHT,
	"select":    SELECT,
	"set":       SET,
	"then":      THEN,
	"top":       TOP,
	"union":     UNION,
	"unpivot":   UNPIVOT,
	"update":    UPDATE,
	"using":     USING,
	"values":    VALUES,
	"when":      WHEN,
	"where":     WHERE,
	"with":      WITH,
}

func init() {
	for name, t := range keywords {
		tokenNames[t] = strings.ToUpper(name)
	}
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a reserved keyword (case-insensitive), the keyword
// token type is returned. Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a reserved keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITH
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// IsTrivia returns true for tokens that carry no syntax: whitespace,
// newlines and comments.
func IsTrivia(t TokenType) bool {
	return t == WHITESPACE || t == NEWLINE || t == COMMENT
}

// Token represents a lexical token with position information.
// Literal is the exact source text of the token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
