package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// ErrIssuesFound is returned when lint reports at least one diagnostic.
var ErrIssuesFound = errors.New("lint issues found")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Format   string   // Output format: text, markdown, json
	Disable  []string // Rule IDs to disable
	Severity string   // Minimum severity: error, warning, info, hint
	Rules    []string // Run only specific rules
	Watch    bool     // Re-lint when files change
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Check SQL files for table references without WITH (NOLOCK)",
		Long: `Analyze SQL files and report table references in FROM and JOIN clauses
that do not carry the NOLOCK table hint.

Directories are searched recursively for .sql files. Use - to read from
standard input. Files that fail to parse are reported with rule PRS.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint the current directory
  nolock lint

  # Lint specific files and directories
  nolock lint reports/ daily.sql

  # Read from stdin
  cat query.sql | nolock lint -

  # Output as JSON
  nolock lint --format json

  # Only report errors
  nolock lint --severity error

  # Re-run whenever a .sql file changes
  nolock lint --watch ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "hint", "Minimum severity: error, warning, info, hint")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch for changes and re-lint")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"error", "warning", "info", "hint"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLint(cmd *cobra.Command, args []string, opts *LintOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	threshold, ok := lint.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("invalid severity %q: want error, warning, info or hint", opts.Severity)
	}

	analyzer, err := cmdCtx.NewAnalyzer(RuleSelection{Disable: opts.Disable, Rules: opts.Rules})
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		files, err := collectSQLFiles(args)
		if err != nil {
			return err
		}
		results, err := analyzeFiles(ctx, analyzer, files, cmd.InOrStdin(), cmdCtx.Concurrency())
		if err != nil {
			return err
		}
		if renderLintResults(cmdCtx.Renderer, filterBySeverity(results, threshold), len(files)) {
			return ErrIssuesFound
		}
		return nil
	}

	if opts.Watch {
		for _, a := range args {
			if a == stdinPath {
				return errors.New("--watch cannot be used with stdin")
			}
		}
		return watchSQL(cmd.Context(), watchRoots(args), cmdCtx.Logger, func(ctx context.Context) {
			if err := run(ctx); err != nil && !errors.Is(err, ErrIssuesFound) {
				cmdCtx.Renderer.Warn(fmt.Sprintf("lint failed: %v", err))
			}
		})
	}

	return run(cmd.Context())
}

// lintFileResult holds lint results for a single file.
type lintFileResult struct {
	Path        string
	Diagnostics []lint.Diagnostic
}

// analyzeFiles lints files concurrently. Results keep the order of files.
func analyzeFiles(ctx context.Context, analyzer *lint.Analyzer, files []string, stdin io.Reader, limit int) ([]lintFileResult, error) {
	results := make([]lintFileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := readSource(path, stdin)
			if err != nil {
				return err
			}
			results[i] = lintFileResult{
				Path:        displayPath(path),
				Diagnostics: analyzer.AnalyzeSQL(src),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func filterBySeverity(results []lintFileResult, threshold lint.Severity) []lintFileResult {
	var filtered []lintFileResult
	for _, r := range results {
		var diags []lint.Diagnostic
		for _, d := range r.Diagnostics {
			if d.Severity.AtLeast(threshold) {
				diags = append(diags, d)
			}
		}
		if len(diags) > 0 {
			filtered = append(filtered, lintFileResult{
				Path:        r.Path,
				Diagnostics: diags,
			})
		}
	}
	return filtered
}

func summarize(results []lintFileResult, filesAnalyzed int) output.LintSummary {
	summary := output.LintSummary{
		FilesAnalyzed:   filesAnalyzed,
		FilesWithIssues: len(results),
	}
	for _, res := range results {
		summary.TotalIssues += len(res.Diagnostics)
		for _, d := range res.Diagnostics {
			switch d.Severity {
			case lint.SeverityError:
				summary.Errors++
			case lint.SeverityWarning:
				summary.Warnings++
			case lint.SeverityInfo:
				summary.Info++
			case lint.SeverityHint:
				summary.Hints++
			}
			if d.AutoFixable {
				summary.Fixable++
			}
		}
	}
	return summary
}

func toOutputDiagnostics(diags []lint.Diagnostic) []output.LintDiagnostic {
	out := make([]output.LintDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, output.LintDiagnostic{
			RuleID:           d.RuleID,
			Severity:         d.Severity.String(),
			Message:          d.Message,
			Line:             d.Pos.Line,
			Column:           d.Pos.Column,
			EndLine:          d.EndPos.Line,
			EndColumn:        d.EndPos.Column,
			AutoFixable:      d.AutoFixable,
			DocumentationURL: d.DocumentationURL,
		})
	}
	return out
}

// renderLintResults writes results and reports whether there were issues.
func renderLintResults(r *output.Renderer, results []lintFileResult, filesAnalyzed int) bool {
	summary := summarize(results, filesAnalyzed)

	if r.EffectiveMode() == output.ModeJSON {
		jsonOutput := output.LintOutput{
			RunID:   r.RunID(),
			Summary: summary,
			Files:   []output.LintFileResult{},
		}
		for _, res := range results {
			jsonOutput.Files = append(jsonOutput.Files, output.LintFileResult{
				Path:        res.Path,
				Diagnostics: toOutputDiagnostics(res.Diagnostics),
			})
		}
		_ = r.JSON(jsonOutput)
		return len(results) > 0
	}

	if len(results) == 0 {
		r.Success("No lint issues found in " + english.Plural(filesAnalyzed, "file", "files"))
		return false
	}

	for _, res := range results {
		r.Println(r.Styles().Path.Render(res.Path))
		for _, d := range res.Diagnostics {
			loc := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
			if d.Pos.Line == 0 {
				loc = "-"
			}
			msg := d.Message
			if d.AutoFixable {
				msg += " " + r.Styles().Muted.Render("[fixable]")
			}
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-7s", loc)),
				severityStyle(r, d.Severity),
				r.Styles().Bold.Render(d.RuleID),
				msg,
			)
		}
		r.Println("")
	}

	summaryParts := []string{english.Plural(summary.TotalIssues, "issue", "issues")}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, english.Plural(summary.Errors, "error", "errors"))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, english.Plural(summary.Warnings, "warning", "warnings"))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, english.Plural(summary.Info, "info", "info"))
	}
	if summary.Hints > 0 {
		summaryParts = append(summaryParts, english.Plural(summary.Hints, "hint", "hints"))
	}
	r.Printf("Summary: %s in %d of %s\n", strings.Join(summaryParts, ", "), summary.FilesWithIssues, english.Plural(summary.FilesAnalyzed, "file", "files"))
	if summary.Fixable > 0 {
		r.Println(r.Styles().Muted.Render(english.Plural(summary.Fixable, "issue", "issues") + " can be fixed with 'nolock fix'"))
	}

	return true
}

func severityStyle(r *output.Renderer, sev lint.Severity) string {
	switch sev {
	case lint.SeverityError:
		return r.Styles().Error.Render("error  ")
	case lint.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case lint.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	case lint.SeverityHint:
		return r.Styles().Muted.Render("hint   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}

func completeFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	modes := make([]string, len(output.Modes))
	for i, m := range output.Modes {
		modes[i] = string(m)
	}
	return modes, cobra.ShellCompDirectiveNoFileComp
}
