package testcases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/internal/testutil"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// Analyzer returns an analyzer running only the case's rule with the case's
// options. The rule must already be registered.
func (c Case) Analyzer(t testing.TB) *lint.Analyzer {
	t.Helper()

	cfg := lint.NewConfig().EnableOnly(c.Rule)
	if opts := c.RuleOptions(); opts != nil {
		cfg.SetRuleOptions(c.Rule, opts)
	}

	a, err := lint.NewAnalyzer(cfg, lint.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	require.NotEmpty(t, a.Rules(), "rule %s is not registered", c.Rule)
	return a
}

// Run checks one case. See the package documentation for the semantics.
func Run(t *testing.T, c Case) {
	t.Helper()
	a := c.Analyzer(t)

	if c.PassStr != "" {
		diags := a.AnalyzeSQL(c.PassStr)
		assert.Empty(t, diags, "pass_str should lint clean: %q", c.PassStr)
	}

	if c.FailStr == "" {
		return
	}

	diags := a.AnalyzeSQL(c.FailStr)
	require.NotEmpty(t, diags, "fail_str should produce diagnostics: %q", c.FailStr)
	for _, d := range diags {
		require.NotEqual(t, lint.ParseRuleID, d.RuleID, "fail_str does not parse: %s", d.Message)
	}

	res, err := a.Fix(context.Background(), c.FailStr)
	require.NoError(t, err)

	if c.FixStr == "" {
		assert.Equal(t, c.FailStr, res.SQL, "no fix expected")
		assert.Zero(t, res.Applied)
		return
	}

	assert.Equal(t, c.FixStr, res.SQL)
	assert.Empty(t, a.AnalyzeSQL(res.SQL), "fixed text should lint clean: %q", res.SQL)
}

// RunFile runs every case of f as a subtest.
func RunFile(t *testing.T, f *File) {
	t.Helper()
	for _, c := range f.Cases {
		t.Run(c.Name, func(t *testing.T) {
			Run(t, c)
		})
	}
}
