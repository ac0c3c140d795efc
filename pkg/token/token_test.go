package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenType
	}{
		{"FROM", FROM},
		{"from", FROM},
		{"From", FROM},
		{"WITH", WITH},
		{"apply", APPLY},
		{"NOLOCK", IDENT},
		{"mytable", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.ident))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "FROM", FROM.String())
	assert.Equal(t, "(", LPAREN.String())
	assert.Equal(t, "WHITESPACE", WHITESPACE.String())
	assert.Equal(t, "TOKEN(9999)", TokenType(9999).String())
}

func TestClassification(t *testing.T) {
	assert.True(t, IsKeyword(ALL))
	assert.True(t, IsKeyword(WITH))
	assert.False(t, IsKeyword(IDENT))
	assert.True(t, IsOperator(COMMA))
	assert.False(t, IsOperator(SELECT))
	assert.True(t, IsTrivia(COMMENT))
	assert.False(t, IsTrivia(IDENT))
}

func TestPositionAdvance(t *testing.T) {
	start := Position{Line: 1, Column: 1, Offset: 0}

	p := start.Advance("abc")
	assert.Equal(t, Position{Line: 1, Column: 4, Offset: 3}, p)

	p = start.Advance("ab\ncd")
	assert.Equal(t, Position{Line: 2, Column: 3, Offset: 5}, p)

	assert.Equal(t, "2:3", p.String())
	assert.Equal(t, "-", Position{}.String())
}

func TestSpanContains(t *testing.T) {
	s := Span{
		Start: Position{Line: 1, Column: 1, Offset: 2},
		End:   Position{Line: 1, Column: 5, Offset: 6},
	}
	assert.True(t, s.IsValid())
	assert.True(t, s.Contains(2))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(6))
}
