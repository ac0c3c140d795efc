package commands

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nolock/internal/cli/config"
	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the context from the config and logger stored by
// the root command. A non-empty format overrides the configured output mode.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	if format == "" {
		format = cfg.Output
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// RuleSelection narrows the configured rules from the command line.
type RuleSelection struct {
	Disable []string // Rule IDs to disable
	Rules   []string // Run only these rules
}

// LintConfig merges the selection over the configured lint settings.
func (c *CommandContext) LintConfig(sel RuleSelection) (*lint.Config, error) {
	lintCfg := c.Cfg.LintConfig()

	for _, id := range sel.Disable {
		lintCfg.Disable(normalizeRuleID(id))
	}

	if len(sel.Rules) > 0 {
		ids := make([]string, 0, len(sel.Rules))
		for _, id := range sel.Rules {
			id = normalizeRuleID(id)
			if _, ok := lint.GetByID(id); !ok {
				return nil, fmt.Errorf("unknown rule %q", id)
			}
			ids = append(ids, id)
		}
		lintCfg.EnableOnly(ids...)
	}

	return lintCfg, nil
}

// NewAnalyzer creates an analyzer for the configured rules.
func (c *CommandContext) NewAnalyzer(sel RuleSelection) (*lint.Analyzer, error) {
	lintCfg, err := c.LintConfig(sel)
	if err != nil {
		return nil, err
	}
	return lint.NewAnalyzer(lintCfg,
		lint.WithLogger(c.Logger),
		lint.WithMaxFixLoops(c.Cfg.MaxFixLoops))
}

// Concurrency returns the number of files processed in parallel.
func (c *CommandContext) Concurrency() int {
	if c.Cfg.Concurrency > 0 {
		return c.Cfg.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func normalizeRuleID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
