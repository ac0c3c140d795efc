// Package output renders command results for terminals, pipes and tools.
//
// The mode decides the format:
//   - text: styled output for a terminal
//   - markdown: plain markdown, the default when stdout is not a terminal
//   - json: machine-readable output
//
// ModeAuto picks text on a terminal and markdown otherwise.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutputMode selects the output format.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted mode names.
var Modes = []OutputMode{ModeAuto, ModeText, ModeMarkdown, ModeJSON}

// ParseMode validates a mode name. The empty string is ModeAuto.
func ParseMode(s string) (OutputMode, error) {
	if s == "" {
		return ModeAuto, nil
	}
	m := OutputMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid output mode %q: want auto, text, markdown or json", s)
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	styles *Styles
	runID  string
	title  cases.Caser
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	r := &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		mode:   mode,
		runID:  uuid.NewString(),
		title:  cases.Title(language.English),
	}

	lr := lipgloss.NewRenderer(out)
	profile := termenv.Ascii
	if isTTY && r.EffectiveMode() == ModeText && !termenv.EnvNoColor() {
		profile = termenv.ANSI256
	}
	lr.SetColorProfile(profile)
	r.styles = NewStyles(lr)
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() OutputMode {
	switch r.mode {
	case ModeText, ModeMarkdown, ModeJSON:
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the styles for text mode. Outside a color terminal they
// render without escape codes.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// RunID identifies this invocation in JSON output.
func (r *Renderer) RunID() string { return r.runID }

// Title returns s in title case, for group headings.
func (r *Renderer) Title(s string) string {
	return r.title.String(strings.ReplaceAll(s, "_", " "))
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Success writes a success message to standard output.
func (r *Renderer) Success(msg string) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return
	case ModeText:
		r.Println(r.styles.Success.Render("✓ " + msg))
	default:
		r.Println(msg)
	}
}

// Warn writes a warning to the error output.
func (r *Renderer) Warn(msg string) {
	if r.EffectiveMode() == ModeText {
		msg = r.styles.Warning.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Table writes rows as a table: box-drawn in text mode, a pipe table in
// markdown mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, col := range header {
		h[i] = col
	}
	t.AppendHeader(h)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
