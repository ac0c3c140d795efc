package parser_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/nolock/pkg/parser"
	"github.com/leapstack-labs/nolock/pkg/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// elements returns every from element in the tree, in document order.
func elements(root *segment.Segment) []*segment.Segment {
	var out []*segment.Segment
	segment.Walk(root, func(s *segment.Segment) bool {
		if s.Kind() == segment.KindFromReferenceElement {
			out = append(out, s)
		}
		return true
	})
	return out
}

func mustParse(t *testing.T, sql string) *segment.Segment {
	t.Helper()
	root, err := parser.Parse(sql)
	require.NoError(t, err)
	return root
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"SELECT 1",
		"SELECT * FROM mytable",
		"SELECT * FROM mytable WITH (NOLOCK)",
		"select *\n  from dbo.mytable as m with (nolock, index(ix_a))\n  where m.id = 1;",
		"SELECT * FROM a INNER JOIN b ON a.id = b.id LEFT OUTER JOIN c WITH (NOLOCK) ON c.id = b.id",
		"SELECT * FROM (SELECT 1 AS x) AS sub",
		"SELECT * FROM t1, t2 x, [db].[dbo].[t3] AS [y]",
		"SELECT * FROM a CROSS APPLY fn(a.id) f OUTER APPLY (SELECT TOP 1 * FROM b) b2",
		"-- comment\r\nSELECT /* c */ a FROM t -- trailing\n",
		"DELETE FROM t WHERE id IN (SELECT id FROM u)",
		"UPDATE t SET a = 1 FROM t JOIN u ON t.id = u.id;\nGO\n",
		"SELECT * FROM mytable (NOLOCK)",
		"SELECT * FROM mytable m (NOLOCK)",
		"WITH cte AS (SELECT a FROM t) SELECT * FROM cte",
		"SELECT * FROM @tbl t",
		"SELECT * FROM (a JOIN b ON a.x = b.x)",
		"SELECT * FROM (VALUES (1), (2)) AS v(n)",
		"SELECT CASE WHEN a = 1 THEN 'x' ELSE 'y' END FROM t JOIN u ON CASE WHEN t.a = 1 THEN 1 END = u.b WHERE 1 = 1",
		"SELECT * FROM a INNER HASH JOIN b ON a.id = b.id",
		"SELECT * FROM t AS x TABLESAMPLE SYSTEM (10 PERCENT) REPEATABLE (3) WITH (NOLOCK)",
	}

	for _, sql := range inputs {
		t.Run(sql, func(t *testing.T) {
			root := mustParse(t, sql)
			assert.Equal(t, segment.KindFile, root.Kind())
			assert.Equal(t, sql, segment.Render(root))
		})
	}
}

func TestParseFromElements(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		want  []string // raw text of each from element
		joins int
	}{
		{name: "single table", sql: "SELECT * FROM mytable", want: []string{"mytable"}},
		{name: "alias and hint", sql: "SELECT * FROM t AS x WITH (NOLOCK) WHERE 1=1", want: []string{"t AS x WITH (NOLOCK)"}},
		{name: "comma list", sql: "SELECT * FROM a, b c", want: []string{"a", "b c"}},
		{
			name:  "joins",
			sql:   "SELECT * FROM a JOIN b ON a.id = b.id LEFT JOIN c x ON x.id = a.id",
			want:  []string{"a", "b", "c x"},
			joins: 2,
		},
		{name: "apply", sql: "SELECT * FROM a CROSS APPLY fn(a.id) f", want: []string{"a", "fn(a.id) f"}, joins: 1},
		{
			name: "derived table",
			sql:  "SELECT * FROM (SELECT a FROM inner_t) AS sub",
			want: []string{"(SELECT a FROM inner_t) AS sub", "inner_t"},
		},
		{name: "bare alias stops at GO", sql: "SELECT * FROM t\nGO", want: []string{"t"}},
		{name: "delete target excluded", sql: "DELETE FROM t WHERE a = 1", want: nil},
		{name: "delete with from", sql: "DELETE t FROM t JOIN u ON t.id = u.id", want: []string{"t", "u"}, joins: 1},
		{name: "is distinct from", sql: "SELECT * FROM t WHERE a IS DISTINCT FROM b", want: []string{"t"}},
		{name: "cursor fetch", sql: "FETCH NEXT FROM cur INTO @a", want: nil},
		{name: "function argument from", sql: "SELECT TRIM(BOTH ' ' FROM a) FROM t", want: []string{"t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.sql)

			var got []string
			for _, e := range elements(root) {
				got = append(got, e.Raw())
			}
			assert.Equal(t, tt.want, got)

			var joins int
			segment.Walk(root, func(s *segment.Segment) bool {
				if s.Kind() == segment.KindJoinClause {
					joins++
				}
				return true
			})
			assert.Equal(t, tt.joins, joins)
		})
	}
}

func TestParseHintShape(t *testing.T) {
	root := mustParse(t, "SELECT * FROM t AS x WITH (NOLOCK, INDEX(ix))")
	elems := elements(root)
	require.Len(t, elems, 1)

	hint := segment.Select(elems[0]).
		Children(segment.KindPostTableExpression).
		Children(segment.KindBracketed).
		Children(segment.KindHintClause)
	require.Equal(t, 1, hint.Len())

	keywords := hint.Children(segment.KindKeyword).Raw()
	assert.Equal(t, []string{"NOLOCK", "INDEX"}, keywords)
	assert.Equal(t, 1, hint.Children(segment.KindBracketed).Len())

	post := elems[0].FirstChild(segment.KindPostTableExpression)
	require.NotNil(t, post)
	assert.Equal(t, "WITH (NOLOCK, INDEX(ix))", post.Raw())

	// whitespace before WITH belongs to the element, not the hint
	children := elems[0].Children()
	assert.Equal(t, segment.KindWhitespace, children[len(children)-2].Kind())
}

func TestParseSampleShape(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		sampleRaw string
		hasHint   bool
	}{
		{name: "percent", sql: "SELECT * FROM t TABLESAMPLE (10 PERCENT)", sampleRaw: "TABLESAMPLE (10 PERCENT)"},
		{name: "system rows with seed", sql: "SELECT * FROM t x tablesample system (50 ROWS) repeatable (9) WHERE 1 = 1", sampleRaw: "tablesample system (50 ROWS) repeatable (9)"},
		{name: "followed by hint", sql: "SELECT * FROM t TABLESAMPLE (1 PERCENT) WITH (NOLOCK)", sampleRaw: "TABLESAMPLE (1 PERCENT)", hasHint: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems := elements(mustParse(t, tt.sql))
			require.Len(t, elems, 1)

			sample := elems[0].FirstChild(segment.KindSampleExpression)
			require.NotNil(t, sample)
			assert.Equal(t, tt.sampleRaw, sample.Raw())
			// TABLESAMPLE is never taken as an alias
			assert.NotContains(t, segment.Select(elems[0]).Children(segment.KindAliasExpression).Raw(), "TABLESAMPLE")
			assert.Equal(t, tt.hasHint, elems[0].FirstChild(segment.KindPostTableExpression) != nil)
		})
	}
}

func TestParseAliasShapes(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		aliasRaw string
		listIDs  []string
	}{
		{name: "as alias", sql: "SELECT * FROM t AS x", aliasRaw: "AS x"},
		{name: "bare alias", sql: "SELECT * FROM t x", aliasRaw: "x"},
		{name: "legacy hint without alias", sql: "SELECT * FROM t (NOLOCK)", aliasRaw: "(NOLOCK)", listIDs: []string{"NOLOCK"}},
		{name: "legacy hint adjacent", sql: "SELECT * FROM t(NOLOCK)", aliasRaw: "(NOLOCK)", listIDs: []string{"NOLOCK"}},
		{name: "legacy hint after alias", sql: "SELECT * FROM t m (NOLOCK)", aliasRaw: "m (NOLOCK)", listIDs: []string{"NOLOCK"}},
		{name: "column list", sql: "SELECT * FROM (SELECT 1, 2) AS v(a, b)", aliasRaw: "AS v(a, b)", listIDs: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.sql)
			elems := elements(root)
			require.NotEmpty(t, elems)

			alias := elems[0].FirstChild(segment.KindAliasExpression)
			require.NotNil(t, alias)
			assert.Equal(t, tt.aliasRaw, alias.Raw())

			ids := segment.Select(alias).
				Children(segment.KindBracketed).
				Children(segment.KindIdentifierList).
				Children(segment.KindIdentifier)
			assert.Equal(t, tt.listIDs, nilIfEmpty(ids.Raw()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestParseTableExpressionKinds(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		hasTable bool
	}{
		{name: "plain table", sql: "SELECT * FROM dbo.t", hasTable: true},
		{name: "three part name", sql: "SELECT * FROM db..t", hasTable: true},
		{name: "subquery", sql: "SELECT * FROM (SELECT 1) s", hasTable: false},
		{name: "table function", sql: "SELECT * FROM dbo.fn(1, 2) f", hasTable: false},
		{name: "table variable", sql: "SELECT * FROM @t", hasTable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.sql)
			elems := elements(root)
			require.NotEmpty(t, elems)

			refs := segment.Select(elems[0]).
				Children(segment.KindTableExpression).
				Children(segment.KindTableReference)
			assert.Equal(t, tt.hasTable, !refs.Empty())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		message string
		line    int
		column  int
	}{
		{name: "unclosed paren", sql: "SELECT (1", message: "unclosed parenthesis", line: 1, column: 8},
		{name: "unexpected paren", sql: "SELECT 1)", message: "unexpected closing parenthesis", line: 1, column: 9},
		{name: "unterminated string", sql: "SELECT 'abc", message: "unterminated string literal", line: 1, column: 8},
		{name: "unterminated identifier", sql: "SELECT *\nFROM [abc", message: "expected table expression", line: 2, column: 6},
		{name: "from without table", sql: "SELECT * FROM", message: "expected table expression after FROM, found end of input", line: 1, column: 14},
		{name: "tablesample without bracket", sql: "SELECT * FROM t TABLESAMPLE 10", message: "expected ( after TABLESAMPLE", line: 1, column: 17},
		{name: "unterminated comment", sql: "SELECT /* x", message: "unterminated block comment", line: 1, column: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql)
			require.Error(t, err)

			var perr *parser.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, perr.Message, tt.message)
			assert.Equal(t, tt.line, perr.Pos.Line)
			assert.Equal(t, tt.column, perr.Pos.Column)
		})
	}
}
