package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/parser"
	"github.com/leapstack-labs/nolock/pkg/segment"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the segment tree of a SQL file",
		Long: `Parse a SQL file and print its segment tree, one segment per line.

Reads standard input when no file or - is given. Useful to see which
table references the lint rules check.`,
		Example: `  nolock parse query.sql
  echo "SELECT * FROM t" | nolock parse`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd, format)
			if err != nil {
				return err
			}

			path := stdinPath
			if len(args) > 0 {
				path = args[0]
			}
			src, err := readSource(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tree, err := parser.Parse(src)
			if err != nil {
				var perr *parser.ParseError
				if errors.As(err, &perr) {
					return fmt.Errorf("%s:%d:%d: %s", displayPath(path), perr.Pos.Line, perr.Pos.Column, perr.Message)
				}
				return err
			}

			r := cmdCtx.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(ParseOutput{Path: displayPath(path), Tree: segment.DumpString(tree)})
			case output.ModeMarkdown:
				r.Println("```")
				err = segment.Dump(r.Writer(), tree)
				r.Println("```")
				return err
			default:
				return segment.Dump(r.Writer(), tree)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, markdown, json")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// ParseOutput is the JSON output of the parse command.
type ParseOutput struct {
	Path string `json:"path"`
	Tree string `json:"tree"`
}
