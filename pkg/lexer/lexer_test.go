package lexer_test

import (
	"testing"

	"github.com/leapstack-labs/nolock/pkg/lexer"
	"github.com/leapstack-labs/nolock/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(tokens []token.Token) []token.TokenType {
	out := make([]token.TokenType, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Type)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{
			name:  "simple select",
			input: "SELECT a FROM t",
			want: []token.TokenType{
				token.SELECT, token.WHITESPACE, token.IDENT, token.WHITESPACE,
				token.FROM, token.WHITESPACE, token.IDENT, token.EOF,
			},
		},
		{
			name:  "table hint",
			input: "t WITH (NOLOCK)",
			want: []token.TokenType{
				token.IDENT, token.WHITESPACE, token.WITH, token.WHITESPACE,
				token.LPAREN, token.IDENT, token.RPAREN, token.EOF,
			},
		},
		{
			name:  "bracketed and quoted identifiers",
			input: `[dbo].[my table]."x"`,
			want: []token.TokenType{
				token.QUOTED_IDENT, token.DOT, token.QUOTED_IDENT, token.DOT,
				token.QUOTED_IDENT, token.EOF,
			},
		},
		{
			name:  "temp tables and variables",
			input: "#tmp ##global @id @@rowcount",
			want: []token.TokenType{
				token.IDENT, token.WHITESPACE, token.IDENT, token.WHITESPACE,
				token.VARIABLE, token.WHITESPACE, token.VARIABLE, token.EOF,
			},
		},
		{
			name:  "comments and newlines",
			input: "a -- note\r\n/* b /* nested */ */\nc",
			want: []token.TokenType{
				token.IDENT, token.WHITESPACE, token.COMMENT, token.NEWLINE,
				token.COMMENT, token.NEWLINE, token.IDENT, token.EOF,
			},
		},
		{
			name:  "strings",
			input: "'it''s' N'x'",
			want:  []token.TokenType{token.STRING, token.WHITESPACE, token.STRING, token.EOF},
		},
		{
			name:  "operators",
			input: "a<>b<=c!=d>=e",
			want: []token.TokenType{
				token.IDENT, token.NE, token.IDENT, token.LE, token.IDENT,
				token.NE, token.IDENT, token.GE, token.IDENT, token.EOF,
			},
		},
		{
			name:  "numbers",
			input: "1 2.5 .5 1e10",
			want: []token.TokenType{
				token.NUMBER, token.WHITESPACE, token.NUMBER, token.WHITESPACE,
				token.NUMBER, token.WHITESPACE, token.NUMBER, token.EOF,
			},
		},
		{
			name:  "unterminated string",
			input: "'abc",
			want:  []token.TokenType{token.ILLEGAL, token.EOF},
		},
		{
			name:  "unterminated bracket identifier",
			input: "[abc",
			want:  []token.TokenType{token.ILLEGAL, token.EOF},
		},
		{
			name:  "empty input",
			input: "",
			want:  []token.TokenType{token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := lexer.Tokenize(tt.input)
			assert.Equal(t, tt.want, types(tokens))
			assert.Equal(t, tt.input, lexer.Join(tokens), "token stream must be lossless")
		})
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tokens := lexer.Tokenize("[a]]b] 'it''s'")
	require.Len(t, tokens, 4)
	assert.Equal(t, "[a]]b]", tokens[0].Literal)
	assert.Equal(t, "'it''s'", tokens[2].Literal)
}

func TestTokenizePositions(t *testing.T) {
	tokens := lexer.Tokenize("SELECT *\nFROM t")

	// SELECT, ws, *, newline, FROM, ws, t, EOF
	require.Len(t, tokens, 8)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, tokens[0].Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 8, Offset: 7}, tokens[2].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 1, Offset: 9}, tokens[4].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 6, Offset: 14}, tokens[6].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 7, Offset: 15}, tokens[7].Pos)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	for _, in := range []string{"from", "FROM", "From"} {
		tokens := lexer.Tokenize(in)
		require.Len(t, tokens, 2)
		assert.Equal(t, token.FROM, tokens[0].Type)
		assert.Equal(t, in, tokens[0].Literal)
	}
}
