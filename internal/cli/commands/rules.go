package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List all available lint rules with their documentation.

Use --verbose to include each rule's description and rationale, or pass a
rule ID to see its examples, fix guidance and default options.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  nolock rules

  # Show details for a specific rule
  nolock rules NL01

  # List rules in the nolock group
  nolock rules --group nolock

  # Output as JSON
  nolock rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var ids []string
			for _, def := range lint.GetAll() {
				ids = append(ids, def.ID+"\t"+def.Description)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	defs := lint.GetAll()
	if opts.Group != "" {
		defs = lint.GetByGroup(opts.Group)
	}
	rules := make([]lint.RuleInfo, len(defs))
	for i, def := range defs {
		rules[i] = def.Info()
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(RulesJSONOutput{Rules: rules, Count: len(rules)})
	case output.ModeMarkdown:
		listRulesMarkdown(r, rules, opts.Verbose)
	default:
		listRulesText(r, rules, opts.Verbose)
	}
	return nil
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	def, ok := lint.GetByID(normalizeRuleID(ruleID))
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	rule := def.Info()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(RuleJSONOutput{RuleInfo: rule, DefaultConfig: string(def.DefaultConfig)})
	case output.ModeMarkdown:
		showRuleMarkdown(r, rule, def.DefaultConfig)
	default:
		showRuleText(r, rule, def.DefaultConfig)
	}
	return nil
}

func ruleRows(rules []lint.RuleInfo, verbose bool) ([]string, [][]string) {
	header := []string{"ID", "Name", "Group", "Severity"}
	if verbose {
		header = append(header, "Description")
	}
	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		row := []string{rule.ID, rule.Name, rule.Group, rule.DefaultSeverity.String()}
		if verbose {
			row = append(row, rule.Description)
		}
		rows = append(rows, row)
	}
	return header, rows
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []lint.RuleInfo, verbose bool) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Lint Rules (%d)", len(rules))))
	r.Println("")

	r.Table(ruleRows(rules, verbose))

	if verbose {
		r.Println("")
		for _, rule := range rules {
			if rule.Rationale != "" {
				r.Printf("%s  %s\n", styles.Bold.Render(rule.ID), styles.Muted.Render("Why: "+truncateOneLine(rule.Rationale, 80)))
			}
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'nolock rules <rule-id>' for detailed documentation"))
	r.Println("")
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []lint.RuleInfo, verbose bool) {
	r.Println("# Lint Rules")
	r.Println("")
	r.Table(ruleRows(rules, verbose))
	r.Println("")

	if verbose {
		for _, rule := range rules {
			if rule.Rationale != "" {
				r.Printf("## %s\n\n> %s\n\n", rule.ID, strings.ReplaceAll(rule.Rationale, "\n", "\n> "))
			}
		}
	}
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

// RuleJSONOutput is the JSON output structure for a single rule.
type RuleJSONOutput struct {
	lint.RuleInfo
	DefaultConfig string `json:"default_config,omitempty"`
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule lint.RuleInfo, defaults []byte) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), r.Title(rule.Group))
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), severityLipgloss(styles, rule.DefaultSeverity).Render(rule.DefaultSeverity.String()))
	r.Printf("  %s: %s\n", styles.Bold.Render("Checks"), strings.Join(rule.Crawl, ", "))
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		for _, line := range strings.Split(rule.Rationale, "\n") {
			r.Println("  " + line)
		}
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println(styles.Bold.Render("Bad Example"))
		for _, line := range strings.Split(rule.BadExample, "\n") {
			r.Println(styles.Error.Render("  " + line))
		}
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println(styles.Bold.Render("Good Example"))
		for _, line := range strings.Split(rule.GoodExample, "\n") {
			r.Println(styles.Success.Render("  " + line))
		}
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}

	if len(defaults) > 0 {
		r.Println(styles.Bold.Render("Default Configuration"))
		for _, line := range strings.Split(strings.TrimRight(string(defaults), "\n"), "\n") {
			r.Println(styles.Code.Render("  " + line))
		}
		r.Println("")
	}

	r.Printf("  %s: %s\n", styles.Bold.Render("Docs"), styles.Muted.Render(rule.DocURL))
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule lint.RuleInfo, defaults []byte) {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Group:** %s | **Severity:** `%s`\n\n", rule.Group, rule.DefaultSeverity.String())
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println("## Bad Example")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.BadExample)
		r.Println("```")
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println("## Good Example")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.GoodExample)
		r.Println("```")
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}

	if len(defaults) > 0 {
		r.Println("## Configuration")
		r.Println("")
		r.Println("```yaml")
		r.Println(strings.TrimRight(string(defaults), "\n"))
		r.Println("```")
		r.Println("")
	}
}

// Helper functions

func severityLipgloss(styles *output.Styles, sev lint.Severity) lipgloss.Style {
	switch sev {
	case lint.SeverityError:
		return styles.Error
	case lint.SeverityWarning:
		return styles.Warning
	case lint.SeverityInfo:
		return styles.Info
	default:
		return styles.Muted
	}
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
