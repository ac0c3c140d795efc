package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/nolock/pkg/lint"
	_ "github.com/leapstack-labs/nolock/pkg/lint/rules"
)

var title = cases.Title(language.English)

// generateLintDocs writes an index page and one page per rule. Rule pages
// are named the way lint.BuildDocURL links to them.
func generateLintDocs(outDir string) error {
	log.Printf("Generating lint docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := lint.GetAll()

	if err := generateLintIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, rule := range rules {
		name := ruleFileName(rule.ID)
		if err := generateRulePage(outDir, rule); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", rule.ID, err)
		}
		log.Printf("  Generated %s", name)
	}

	return nil
}

// ruleFileName matches the last path element of lint.BuildDocURL.
func ruleFileName(id string) string {
	return filepath.Base(lint.BuildDocURL(id))
}

// generateLintIndex generates the rules overview page.
func generateLintIndex(outDir string, rules []lint.RuleDef) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Lint Rules", "Lint rules checked by nolock")
	w.GeneratedMarker()

	w.Header(1, "Lint Rules")
	w.Paragraph(fmt.Sprintf("nolock checks **%d rules**.", len(rules)))

	var rows [][]string
	for _, rule := range rules {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](%s)", rule.ID, ruleFileName(rule.ID)),
			InlineCode(rule.Name),
			title.String(rule.Group),
			InlineCode(rule.Severity.String()),
			cleanDescription(rule.Description),
		})
	}
	w.Table([]string{"ID", "Name", "Group", "Severity", "Description"}, rows)

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "Critical issue that should be fixed"},
			{InlineCode("warning"), "Potential issue that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
		},
	)

	w.Header(2, "Configuration")
	w.Paragraph("Rules are configured in `nolock.yaml`:")
	w.CodeBlock("yaml", `lint:
  disabled: [NL01]       # disable rules
  severity:
    NL01: error          # override severity
  rules:
    NL01:
      check_join: false  # rule-specific option`)

	w.Paragraph("Files that cannot be parsed are reported with rule " + InlineCode(lint.ParseRuleID) + " and severity " + InlineCode("error") + ".")

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateRulePage writes detailed documentation for a single rule.
func generateRulePage(outDir string, rule lint.RuleDef) error {
	w := NewMarkdownWriter()
	info := rule.Info()

	w.Frontmatter(fmt.Sprintf("%s - %s", info.ID, info.Name), cleanDescription(info.Description))
	w.GeneratedMarker()

	w.Header(1, fmt.Sprintf("%s - %s", info.ID, info.Name))

	w.Line(fmt.Sprintf("%s %s | %s %s | %s %s",
		Bold("Group:"), title.String(info.Group),
		Bold("Severity:"), InlineCode(info.DefaultSeverity.String()),
		Bold("Checks:"), InlineCode(strings.Join(info.Crawl, ", "))))
	w.Newline()

	w.Paragraph(cleanDescription(info.Description))

	if info.Rationale != "" {
		w.Header(2, "Why This Matters")
		w.Paragraph(strings.TrimSpace(info.Rationale))
	}

	if info.BadExample != "" {
		w.Header(2, "Bad")
		w.CodeBlock("sql", info.BadExample)
	}

	if info.GoodExample != "" {
		w.Header(2, "Good")
		w.CodeBlock("sql", info.GoodExample)
	}

	if info.Fix != "" {
		w.Header(2, "How to Fix")
		w.Paragraph(strings.TrimSpace(info.Fix))
	}

	if len(rule.DefaultConfig) > 0 {
		w.Header(2, "Configuration")
		w.Paragraph(fmt.Sprintf("This rule accepts the following configuration options: %s. Defaults:",
			InlineCode(strings.Join(info.ConfigKeys, ", "))))
		w.CodeBlock("yaml", string(rule.DefaultConfig))
	}

	return os.WriteFile(filepath.Join(outDir, ruleFileName(info.ID)), w.Bytes(), 0600)
}
