package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/nolock/internal/cli"
	"github.com/leapstack-labs/nolock/internal/cli/config"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// generateCLIDocs writes an index page and one page per nolock command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	cmds := documentedCommands(root)

	if err := os.WriteFile(filepath.Join(outDir, "index.md"), cliIndex(root, cmds), 0600); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, cmd := range cmds {
		if err := os.WriteFile(filepath.Join(outDir, cmd.Name()+".md"), commandPage(cmd), 0600); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}
	return nil
}

// documentedCommands skips cobra's built-in help and completion commands.
func documentedCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.IsAvailableCommand() && cmd.Name() != "help" && cmd.Name() != "completion" {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func cliIndex(root *cobra.Command, cmds []*cobra.Command) []byte {
	w := NewMarkdownWriter()

	w.Frontmatter("CLI Reference", "Command-line interface reference for nolock")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(cleanDescription(root.Long))
	w.CodeBlock("bash", "go install github.com/leapstack-labs/nolock/cmd/nolock@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range cmds {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](%s.md)", InlineCode(cmd.Name()), cmd.Name()),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Every configuration key can be set with a %s variable. "+
		"A double underscore separates nested keys. Flags take precedence.", InlineCode(config.EnvPrefix)))
	w.Table([]string{"Variable", "Key"}, envRows())

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "No issues"},
		{InlineCode("1"), "Issues remain, or an error occurred (see stderr)"},
	})

	return w.Bytes()
}

// envRows lists the top-level keys and every registered rule option.
func envRows() [][]string {
	keys := []string{"output", "verbose", "max_fix_loops", "concurrency", "lint.disabled"}
	for _, rule := range lint.GetAll() {
		keys = append(keys, "lint.severity."+rule.ID)
		for _, opt := range rule.ConfigKeys {
			keys = append(keys, "lint.rules."+rule.ID+"."+opt)
		}
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		env := config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
		rows = append(rows, []string{InlineCode(env), InlineCode(key)})
	}
	return rows
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()

	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	return w.Bytes()
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if def != "" && f.Value.Type() == "string" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Description"}, rows)
}

// cleanExample strips the indentation shared by all non-blank lines.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
