package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/internal/cli/testutil"
)

func TestCollectSQLFiles(t *testing.T) {
	root := testutil.SetupTestProject(t, true)
	orders := filepath.Join(root, "reports", "orders.sql")
	txt := filepath.Join(root, "notes", "a.txt")
	// Same file as orders, spelled differently
	dotted := filepath.Join(root, "reports") + string(filepath.Separator) + "." + string(filepath.Separator) + "orders.sql"

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "directory",
			paths: []string{root},
			want: []string{
				filepath.Join(root, "broken", "unclosed.sql"),
				filepath.Join(root, "reports", "customers.sql"),
				orders,
			},
		},
		{
			name:  "explicit file of any extension",
			paths: []string{txt},
			want:  []string{txt},
		},
		{
			name:  "duplicates removed",
			paths: []string{orders, filepath.Join(root, "reports"), dotted},
			want:  []string{filepath.Join(root, "reports", "customers.sql"), orders},
		},
		{
			name:  "explicit hidden directory",
			paths: []string{filepath.Join(root, ".cache")},
			want:  []string{filepath.Join(root, ".cache", "ignored.sql")},
		},
		{
			name:  "stdin once",
			paths: []string{"-", "-"},
			want:  []string{"-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectSQLFiles(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectSQLFilesDefaultsToCwd(t *testing.T) {
	root := testutil.SetupTestProject(t, false)
	t.Chdir(filepath.Join(root, "reports"))

	got, err := collectSQLFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers.sql", "orders.sql"}, got)
}

func TestCollectSQLFilesUppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Q.SQL"), []byte("SELECT 1"), 0o644))

	got, err := collectSQLFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "Q.SQL")}, got)
}

func TestReadSource(t *testing.T) {
	src, err := readSource(stdinPath, strings.NewReader("SELECT 1"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", src)

	_, err = readSource(filepath.Join(t.TempDir(), "missing.sql"), nil)
	require.Error(t, err)

	assert.Equal(t, "<stdin>", displayPath(stdinPath))
	assert.Equal(t, "a.sql", displayPath("a.sql"))
}
