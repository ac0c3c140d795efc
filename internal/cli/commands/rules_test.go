package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/internal/cli/testutil"
)

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules [rule-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"group", "verbose", "format"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRulesCommand_ListMarkdown(t *testing.T) {
	out, _, err := execute(t, NewRulesCommand(), nil, "")
	require.NoError(t, err)

	assert.Contains(t, out, "# Lint Rules")
	assert.Contains(t, out, "| NL01 | nolock.table_hint | nolock | warning |")
	testutil.AssertValidMarkdown(t, out)
}

func TestRulesCommand_ListText(t *testing.T) {
	out, _, err := execute(t, NewRulesCommand(), nil, "", "--format", "text", "-V")
	require.NoError(t, err)

	assert.Contains(t, out, "Lint Rules (1)")
	assert.Contains(t, out, "NL01")
	assert.Contains(t, out, "Why: Reporting queries")
	assert.Contains(t, out, "Use 'nolock rules <rule-id>'")
}

func TestRulesCommand_FilterByGroup(t *testing.T) {
	t.Run("matching group", func(t *testing.T) {
		out, _, err := execute(t, NewRulesCommand(), nil, "", "--group", "nolock", "--format", "json")
		require.NoError(t, err)

		var result RulesJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, 1, result.Count)
		assert.Equal(t, "NL01", result.Rules[0].ID)
	})

	t.Run("unknown group", func(t *testing.T) {
		out, _, err := execute(t, NewRulesCommand(), nil, "", "--group", "nope", "--format", "json")
		require.NoError(t, err)

		var result RulesJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Zero(t, result.Count)
	})
}

func TestRulesCommand_ShowRule(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{
			name:   "markdown",
			format: "markdown",
			want: []string{
				"# NL01 - nolock.table_hint",
				"## Bad Example",
				"```sql",
				"## Configuration",
				"check_join: true",
			},
		},
		{
			name:   "text",
			format: "text",
			want: []string{
				"NL01 - nolock.table_hint",
				"Checks: from_expression_element",
				"How to Fix",
				"legacy_alias_hint: false",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Rule IDs are case-insensitive
			out, _, err := execute(t, NewRulesCommand(), nil, "", "--format", tt.format, "nl01")
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			if tt.format == "markdown" {
				testutil.AssertValidMarkdown(t, out)
			}
		})
	}
}

func TestRulesCommand_ShowRuleJSON(t *testing.T) {
	out, _, err := execute(t, NewRulesCommand(), nil, "", "--format", "json", "NL01")
	require.NoError(t, err)

	var result RuleJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "NL01", result.ID)
	assert.Equal(t, []string{"check_from", "check_join", "legacy_alias_hint"}, result.ConfigKeys)
	assert.Contains(t, result.DefaultConfig, "check_from: true")
}

func TestRulesCommand_UnknownRule(t *testing.T) {
	_, _, err := execute(t, NewRulesCommand(), nil, "", "XX99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "XX99" not found`)
}
