package commands

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// stdinPath is the argument that selects standard input.
const stdinPath = "-"

// stdinName is how standard input is shown in output.
const stdinName = "<stdin>"

// isSQLFile reports whether path has a .sql extension.
func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// isHiddenDir reports whether a directory should be skipped while walking.
func isHiddenDir(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

// collectSQLFiles expands paths into a sorted, de-duplicated list of files.
// Directories are walked recursively for .sql files, skipping hidden
// directories. Files named explicitly are kept whatever their extension.
// No paths means the current directory.
func collectSQLFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		if root == stdinPath {
			if !seen[stdinPath] {
				seen[stdinPath] = true
				files = append(files, stdinPath)
			}
			continue
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && isHiddenDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if isSQLFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// readSource reads a file, or stdin for stdinPath.
func readSource(path string, stdin io.Reader) (string, error) {
	if path == stdinPath {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// displayPath is the name shown for path in output.
func displayPath(path string) string {
	if path == stdinPath {
		return stdinName
	}
	return path
}
