package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// ErrFixFailed is returned when at least one file could not be fixed.
var ErrFixFailed = errors.New("fix failed")

// FixOptions holds options for the fix command.
type FixOptions struct {
	Format  string   // Output format: text, markdown, json
	Disable []string // Rule IDs to disable
	Rules   []string // Run only specific rules
	DryRun  bool     // Report fixes without writing files
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}
	cmd := &cobra.Command{
		Use:   "fix [path...]",
		Short: "Add WITH (NOLOCK) to table references in place",
		Long: `Apply automatic fixes to SQL files.

Fixes are applied in passes: after each pass the file is parsed and linted
again, until no fixable issue remains or --max-fix-loops is reached. Files
are rewritten in place keeping their permissions. SQL read from stdin (-)
is written to stdout.

Issues that cannot be fixed automatically are reported and make the
command fail.`,
		Example: `  # Fix every .sql file below the current directory
  nolock fix

  # Show what would change
  nolock fix --dry-run reports/

  # Fix stdin
  nolock fix - < query.sql > fixed.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report fixes without writing files")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func runFix(cmd *cobra.Command, args []string, opts *FixOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	analyzer, err := cmdCtx.NewAnalyzer(RuleSelection{Disable: opts.Disable, Rules: opts.Rules})
	if err != nil {
		return err
	}

	files, err := collectSQLFiles(args)
	if err != nil {
		return err
	}

	results, err := fixFiles(cmd.Context(), analyzer, files, cmd.InOrStdin(), cmdCtx.Concurrency(), opts.DryRun)
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Error != "" {
			cmdCtx.Logger.Warn("fix failed", "file", res.Path, "error", res.Error)
		}
	}

	if r := cmdCtx.Renderer; r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(output.FixOutput{RunID: r.RunID(), Files: results})
	} else {
		renderFixResults(r, results, opts.DryRun)
	}

	for _, res := range results {
		if res.Error != "" {
			return ErrFixFailed
		}
	}
	for _, res := range results {
		if len(res.Remaining) > 0 {
			return ErrIssuesFound
		}
	}
	return nil
}

// fixFiles fixes files concurrently. Results keep the order of files.
func fixFiles(ctx context.Context, analyzer *lint.Analyzer, files []string, stdin io.Reader, limit int, dryRun bool) ([]output.FixFileResult, error) {
	results := make([]output.FixFileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := fixFile(ctx, analyzer, path, stdin, dryRun)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fixFile fixes one file. A fix loop that hits its limit still writes the
// partially fixed text, since every pass produced SQL that parsed. Errors
// returned abort the whole run; per-file failures are recorded in the result.
func fixFile(ctx context.Context, analyzer *lint.Analyzer, path string, stdin io.Reader, dryRun bool) (output.FixFileResult, error) {
	res := output.FixFileResult{Path: displayPath(path)}

	src, err := readSource(path, stdin)
	if err != nil {
		return res, err
	}

	fixed, err := analyzer.Fix(ctx, src)
	res.Applied = fixed.Applied
	res.Loops = fixed.Loops
	res.Remaining = toOutputDiagnostics(fixed.Remaining)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Error = err.Error()
		if !errors.Is(err, lint.ErrFixLoopLimit) {
			return res, nil
		}
	}

	if path == stdinPath || dryRun {
		res.SQL = fixed.SQL
		return res, nil
	}
	if !fixed.Changed() || fixed.SQL == src {
		return res, nil
	}

	if err := writeFileKeepMode(path, fixed.SQL); err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Written = true
	return res, nil
}

// writeFileKeepMode replaces the contents of path, keeping its permissions.
func writeFileKeepMode(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), info.Mode().Perm())
}

func renderFixResults(r *output.Renderer, results []output.FixFileResult, dryRun bool) {
	var applied, changed int
	for _, res := range results {
		if res.Path == stdinName && res.Error == "" {
			// Fixed SQL goes to stdout as is, anything else to stderr
			_, _ = io.WriteString(r.Writer(), res.SQL)
			for _, d := range res.Remaining {
				r.Warn(fmt.Sprintf("%s:%d:%d: %s %s", res.Path, d.Line, d.Column, d.RuleID, d.Message))
			}
			continue
		}

		switch {
		case res.Error != "":
			r.Warn(fmt.Sprintf("%s: %s", res.Path, res.Error))
		case res.Applied > 0 && dryRun:
			r.Printf("%s  would apply %s\n", r.Styles().Path.Render(res.Path), english.Plural(res.Applied, "fix", "fixes"))
		case res.Written:
			r.Success(fmt.Sprintf("%s: applied %s in %s", res.Path,
				english.Plural(res.Applied, "fix", "fixes"), english.Plural(res.Loops, "pass", "passes")))
		}
		if res.Applied > 0 {
			applied += res.Applied
			changed++
		}

		for _, d := range res.Remaining {
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-7s", fmt.Sprintf("%d:%d", d.Line, d.Column))),
				r.Styles().Warning.Render("unfixed"),
				r.Styles().Bold.Render(d.RuleID),
				d.Message,
			)
		}
	}

	for _, res := range results {
		if res.Path == stdinName {
			return
		}
	}
	if applied == 0 {
		r.Success("Nothing to fix")
		return
	}
	verb := "Fixed"
	if dryRun {
		verb = "Would fix"
	}
	r.Printf("%s %s in %s\n", verb, english.Plural(applied, "issue", "issues"), english.Plural(changed, "file", "files"))
}
