// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/nolock/internal/cli/output"
)

// Files of the project created by SetupTestProject, relative to its root.
const (
	UnhintedFile = "reports/orders.sql"
	HintedFile   = "reports/customers.sql"
	BrokenFile   = "broken/unclosed.sql"
	HiddenFile   = ".cache/ignored.sql"
)

// UnhintedSQL has two table references without a hint.
const UnhintedSQL = `SELECT o.id, c.name
FROM orders AS o
JOIN customers c ON c.id = o.customer_id
`

// UnhintedFixedSQL is UnhintedSQL after fixing.
const UnhintedFixedSQL = `SELECT o.id, c.name
FROM orders AS o WITH (NOLOCK)
JOIN customers c WITH (NOLOCK) ON c.id = o.customer_id
`

// HintedSQL is already clean.
const HintedSQL = `SELECT id FROM customers WITH (NOLOCK) WHERE active = 1
`

// SetupTestProject creates a temporary directory of SQL files. The file
// that fails to parse is only created when withBroken is set.
func SetupTestProject(t *testing.T, withBroken bool) string {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		UnhintedFile:  UnhintedSQL,
		HintedFile:    HintedSQL,
		HiddenFile:    UnhintedSQL,
		"README.md":   "not sql",
		"notes/a.txt": "SELECT * FROM t",
	}
	if withBroken {
		files[BrokenFile] = "SELECT * FROM (SELECT 1\n"
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// ReadFile returns the contents of a project file.
func ReadFile(t *testing.T, root, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(b)
}
