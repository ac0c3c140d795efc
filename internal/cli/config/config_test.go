package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/pkg/lint"
	// Register rules so their default config is merged
	_ "github.com/leapstack-labs/nolock/pkg/lint/rules"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Int("max-fix-loops", DefaultMaxFixLoops, "")
	fs.Int("concurrency", 0, "")
	fs.String("config", "", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultMaxFixLoops, cfg.MaxFixLoops)
	assert.Empty(t, cfg.ConfigFile)

	require.Contains(t, cfg.Lint.Rules, "NL01")
	assert.Equal(t, true, cfg.Lint.Rules["NL01"]["check_from"])
	assert.Equal(t, true, cfg.Lint.Rules["NL01"]["check_join"])
	assert.Equal(t, false, cfg.Lint.Rules["NL01"]["legacy_alias_hint"])
}

func TestLoadConfigFileUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".nolock.yaml"), `
output: json
max_fix_loops: 3
lint:
  disabled: [XX01]
  severity:
    NL01: error
  rules:
    NL01:
      check_join: false
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadConfigFrom(nested, "", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".nolock.yaml"), cfg.ConfigFile)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 3, cfg.MaxFixLoops)
	assert.Equal(t, []string{"XX01"}, cfg.Lint.Disabled)
	assert.Equal(t, lint.SeverityError, cfg.Lint.Severity["NL01"])
	assert.Equal(t, false, cfg.Lint.Rules["NL01"]["check_join"])
	// Keys absent from the file keep their defaults
	assert.Equal(t, true, cfg.Lint.Rules["NL01"]["check_from"])
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "verbose: true\n")
	// Ignored because an explicit file is given
	writeFile(t, filepath.Join(dir, "nolock.yaml"), "output: json\n")

	cfg, err := LoadConfigFrom(dir, path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadConfigFrom(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nolock.yaml"), "output: json\n")

	t.Setenv("NOLOCK_OUTPUT", "markdown")
	t.Setenv("NOLOCK_LINT__RULES__NL01__CHECK_FROM", "false")
	t.Setenv("NOLOCK_LINT__SEVERITY__nl01", "hint")

	cfg, err := LoadConfigFrom(dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.Output)
	assert.Equal(t, "false", cfg.Lint.Rules["NL01"]["check_from"])
	assert.Equal(t, lint.SeverityHint, cfg.Lint.Severity["NL01"])

	opts := cfg.LintConfig().GetRuleOptions("NL01")
	assert.Equal(t, "false", opts["check_from"])
}

func TestLoadFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nolock.yaml"), "output: json\nmax_fix_loops: 4\n")
	t.Setenv("NOLOCK_CONCURRENCY", "2")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"-o", "text", "--concurrency", "8"}))

	cfg, err := LoadConfigFrom(dir, "", fs)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 8, cfg.Concurrency)
	// Unset flag defaults do not override the file
	assert.Equal(t, 4, cfg.MaxFixLoops)
	assert.False(t, cfg.Verbose)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "bad output",
			content: "output: yaml\n",
			errMsg:  "output",
		},
		{
			name:    "zero fix loops",
			content: "max_fix_loops: 0\n",
			errMsg:  "max_fix_loops must be at least 1",
		},
		{
			name:    "negative concurrency",
			content: "concurrency: -1\n",
			errMsg:  "concurrency must not be negative",
		},
		{
			name:    "unknown rule options",
			content: "lint:\n  rules:\n    ZZ99:\n      x: 1\n",
			errMsg:  `unknown rule "ZZ99"`,
		},
		{
			name:    "bad severity",
			content: "lint:\n  severity:\n    NL01: fatal\n",
			errMsg:  "invalid severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "nolock.yaml"), tt.content)

			_, err := LoadConfigFrom(dir, "", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateWrapsErrInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.MaxFixLoops = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	require.NoError(t, Default().Validate())
}

func TestLintConfig(t *testing.T) {
	cfg := Default()
	cfg.Lint = LintConfig{
		Disabled: []string{" nl02 "},
		Severity: map[string]lint.Severity{"nl01": lint.SeverityError},
		Rules: map[string]RuleOptions{
			"NL01": {"check_from": false},
			"nl01": {"check_join": false},
		},
	}

	lc := cfg.LintConfig()
	assert.True(t, lc.IsDisabled("NL02"))
	assert.False(t, lc.IsDisabled("NL01"))
	assert.Equal(t, lint.SeverityError, lc.GetSeverity("NL01", lint.SeverityWarning))
	assert.Equal(t, map[string]any{"check_from": false, "check_join": false}, lc.GetRuleOptions("NL01"))
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NOLOCK_OUTPUT", "output"},
		{"NOLOCK_MAX_FIX_LOOPS", "max_fix_loops"},
		{"NOLOCK_LINT__DISABLED", "lint.disabled"},
		{"NOLOCK_LINT__RULES__nl01__CHECK_JOIN", "lint.rules.NL01.check_join"},
		{"NOLOCK_LINT__SEVERITY__NL01", "lint.severity.NL01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Default(), FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := Default()
	cfg.Verbose = true
	ctx = WithConfig(ctx, cfg)
	assert.Same(t, cfg, FromContext(ctx))

	var buf bytes.Buffer
	ctx = WithLogger(ctx, NewLogger(&buf, false))
	GetLogger(ctx).Info("hidden")
	GetLogger(ctx).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	NewLogger(&buf, true).Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}
