package nolock_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/internal/testutil"
	"github.com/leapstack-labs/nolock/pkg/lint/rules/nolock"
	"github.com/leapstack-labs/nolock/pkg/segment"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantClean bool
		wantFix   bool
	}{
		{name: "hint present", sql: "SELECT a FROM t WITH (NOLOCK)", wantClean: true},
		{name: "hint with alias", sql: "SELECT x.a FROM t AS x WITH (NOLOCK)", wantClean: true},
		{name: "hint among others", sql: "SELECT a FROM t WITH (READPAST, NOLOCK)", wantClean: true},
		{name: "hint after tablesample", sql: "SELECT a FROM t TABLESAMPLE (10 PERCENT) WITH (NOLOCK)", wantClean: true},
		{name: "bare table", sql: "SELECT a FROM t", wantFix: true},
		{name: "tablesample", sql: "SELECT a FROM t AS x TABLESAMPLE (5 PERCENT)", wantFix: true},
		{name: "aliased table", sql: "SELECT x.a FROM t AS x", wantFix: true},
		{name: "bare alias", sql: "SELECT x.a FROM t x", wantFix: true},
		{name: "qualified name", sql: "SELECT a FROM db.dbo.t", wantFix: true},
		{name: "bracketed name", sql: "SELECT a FROM [dbo].[my table]", wantFix: true},
		{name: "other hint", sql: "SELECT a FROM t WITH (UPDLOCK)"},
		{name: "lowercase hint", sql: "SELECT a FROM t WITH (nolock)"},
		{name: "legacy hint", sql: "SELECT a FROM t (NOLOCK)"},
		{name: "legacy hint after alias", sql: "SELECT a FROM t x (NOLOCK)"},
		{name: "derived table", sql: "SELECT a FROM (SELECT 1 AS a) AS d", wantClean: true},
		{name: "table valued function", sql: "SELECT a FROM dbo.f(1) AS f", wantClean: true},
		{name: "table variable", sql: "SELECT a FROM @t AS v", wantClean: true},
		{name: "values list", sql: "SELECT a FROM (VALUES (1), (2)) AS v(a)", wantClean: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, elem := testutil.FirstElement(t, tt.sql)
			out := nolock.Evaluate(elem)

			if tt.wantClean {
				assert.True(t, out.Clean)
				assert.Nil(t, out.Violation)
				return
			}

			assert.False(t, out.Clean)
			require.NotNil(t, out.Violation)
			assert.Same(t, elem, out.Violation.Anchor)
			assert.Equal(t, nolock.Description, out.Violation.Description)
			if tt.wantFix {
				assert.NotNil(t, out.Violation.Fix)
			} else {
				assert.Nil(t, out.Violation.Fix)
			}
		})
	}
}

func TestMatcherAcceptAliasHint(t *testing.T) {
	m := nolock.Matcher{AcceptAliasHint: true}

	tests := []struct {
		sql       string
		wantClean bool
	}{
		{sql: "SELECT a FROM t (NOLOCK)", wantClean: true},
		{sql: "SELECT a FROM t x (NOLOCK)", wantClean: true},
		{sql: "SELECT a FROM t x (nolock)"},
		{sql: "SELECT a FROM t x (ROWLOCK)"},
		{sql: "SELECT a FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, elem := testutil.FirstElement(t, tt.sql)
			assert.Equal(t, tt.wantClean, m.Evaluate(elem).Clean)
		})
	}
}

func TestEvaluatePanicsOnWrongKind(t *testing.T) {
	root := testutil.MustParse(t, "SELECT a FROM t")

	assert.Panics(t, func() { nolock.Evaluate(root) })
	assert.Panics(t, func() { nolock.Evaluate(nil) })
	assert.Panics(t, func() { nolock.Synthesize(root) })
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantAnchor segment.Kind
		want       string
	}{
		{
			name:       "after table",
			sql:        "SELECT a FROM t WHERE a = 1",
			wantAnchor: segment.KindTableExpression,
			want:       "SELECT a FROM t WITH (NOLOCK) WHERE a = 1",
		},
		{
			name:       "after AS alias",
			sql:        "SELECT x.a FROM t AS x",
			wantAnchor: segment.KindAliasExpression,
			want:       "SELECT x.a FROM t AS x WITH (NOLOCK)",
		},
		{
			name:       "after bare alias",
			sql:        "SELECT x.a FROM t x\nWHERE x.a = 1",
			wantAnchor: segment.KindAliasExpression,
			want:       "SELECT x.a FROM t x WITH (NOLOCK)\nWHERE x.a = 1",
		},
		{
			name:       "before trailing comment",
			sql:        "SELECT a FROM t -- source\n",
			wantAnchor: segment.KindTableExpression,
			want:       "SELECT a FROM t WITH (NOLOCK) -- source\n",
		},
		{
			name:       "after tablesample",
			sql:        "SELECT a FROM t TABLESAMPLE (10 PERCENT) WHERE a = 1",
			wantAnchor: segment.KindSampleExpression,
			want:       "SELECT a FROM t TABLESAMPLE (10 PERCENT) WITH (NOLOCK) WHERE a = 1",
		},
		{
			name:       "after aliased tablesample with seed",
			sql:        "SELECT x.a FROM t AS x TABLESAMPLE SYSTEM (100 ROWS) REPEATABLE (42)",
			wantAnchor: segment.KindSampleExpression,
			want:       "SELECT x.a FROM t AS x TABLESAMPLE SYSTEM (100 ROWS) REPEATABLE (42) WITH (NOLOCK)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, elem := testutil.FirstElement(t, tt.sql)

			edit := nolock.Synthesize(elem)
			require.NotNil(t, edit)
			assert.Equal(t, segment.InsertAfter, edit.Op)
			assert.Equal(t, tt.wantAnchor, edit.Anchor.Kind())
			assert.Equal(t, " WITH (NOLOCK)", edit.Raw())

			fixed, err := segment.Apply(root, *edit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, segment.Render(fixed))
			assert.Equal(t, tt.sql, segment.Render(root), "input tree must not change")
		})
	}
}

func TestSynthesizeConservative(t *testing.T) {
	for _, sql := range []string{
		"SELECT a FROM t WITH (NOLOCK)",
		"SELECT a FROM t WITH (UPDLOCK)",
		"SELECT a FROM t WITH (INDEX(ix_a))",
		"SELECT a FROM t (NOLOCK)",
		"SELECT a FROM t x (NOLOCK)",
	} {
		t.Run(sql, func(t *testing.T) {
			_, elem := testutil.FirstElement(t, sql)
			assert.Nil(t, nolock.Synthesize(elem))
		})
	}
}

func TestFixIsIdempotent(t *testing.T) {
	for _, sql := range []string{
		"SELECT a FROM t",
		"SELECT x.a FROM dbo.t AS x",
		"SELECT x.a FROM [t] x JOIN u ON u.id = x.id",
		"SELECT a FROM t TABLESAMPLE (10 PERCENT)",
	} {
		t.Run(sql, func(t *testing.T) {
			root, elem := testutil.FirstElement(t, sql)
			out := nolock.Evaluate(elem)
			require.NotNil(t, out.Violation)
			require.NotNil(t, out.Violation.Fix)

			fixed, err := segment.Apply(root, *out.Violation.Fix)
			require.NoError(t, err)

			// The edited tree itself satisfies the matcher, without re-parsing.
			edited := testutil.FromElements(fixed)[0]
			assert.True(t, nolock.Evaluate(edited).Clean)
			assert.Nil(t, nolock.Synthesize(edited))

			// Re-parsing the rendered text gives the same tree shape.
			reparsed := testutil.MustParse(t, segment.Render(fixed))
			assert.Equal(t, shape(fixed), shape(reparsed))
		})
	}
}

func TestViolationAnchorIsElement(t *testing.T) {
	root := testutil.MustParse(t, "SELECT * FROM a JOIN b ON a.id = b.id, c")
	elems := testutil.FromElements(root)
	require.Len(t, elems, 3)

	for _, elem := range elems {
		out := nolock.Evaluate(elem)
		require.NotNil(t, out.Violation)
		assert.Same(t, elem, out.Violation.Anchor)
	}
}

// shape renders the tree's kinds and leaf text without positions, which
// differ between synthesized and parsed segments.
func shape(s *segment.Segment) string {
	var b strings.Builder
	var walk func(s *segment.Segment, depth int)
	walk = func(s *segment.Segment, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s.Kind().String())
		if s.IsLeaf() {
			b.WriteString(" " + s.Raw())
		}
		b.WriteByte('\n')
		for _, c := range s.Children() {
			walk(c, depth+1)
		}
	}
	walk(s, 0)
	return b.String()
}
