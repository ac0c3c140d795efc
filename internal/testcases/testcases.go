// Package testcases loads and runs YAML rule fixtures.
//
// A fixture file names one rule and lists cases in order:
//
//	rule: NL01
//
//	test_fail_missing_hint:
//	  fail_str: SELECT * FROM mytable
//	  fix_str: SELECT * FROM mytable WITH (NOLOCK)
//
//	test_pass_join_disabled:
//	  pass_str: SELECT * FROM a WITH (NOLOCK) JOIN b ON a.id = b.id
//	  configs:
//	    rules:
//	      NL01:
//	        check_join: false
//
// A case with pass_str must produce no diagnostics. A case with fail_str
// must produce at least one; if it also has fix_str, fixing fail_str must
// give exactly fix_str and the fixed text must lint clean. A fail case
// without fix_str asserts that no fix is applied.
package testcases

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Case is one named fixture case.
type Case struct {
	Name    string  `yaml:"-"`
	Rule    string  `yaml:"-"`
	FailStr string  `yaml:"fail_str"`
	PassStr string  `yaml:"pass_str"`
	FixStr  string  `yaml:"fix_str"`
	Configs Configs `yaml:"configs"`
}

// Configs holds per-case configuration.
type Configs struct {
	Rules map[string]map[string]any `yaml:"rules"`
}

// RuleOptions returns the options the case sets for its rule.
func (c Case) RuleOptions() map[string]any {
	return c.Configs.Rules[c.Rule]
}

// File is a loaded fixture file.
type File struct {
	Path  string
	Rule  string
	Cases []Case
}

// Load reads one fixture file, keeping case order.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: expected a mapping at top level", path)
	}

	f := &File{Path: path}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value == "rule" {
			f.Rule = value.Value
			continue
		}

		var c Case
		if err := value.Decode(&c); err != nil {
			return nil, fmt.Errorf("parse %s: case %s: %w", path, key.Value, err)
		}
		c.Name = key.Value
		f.Cases = append(f.Cases, c)
	}

	if f.Rule == "" {
		return nil, fmt.Errorf("parse %s: missing rule", path)
	}
	for i := range f.Cases {
		f.Cases[i].Rule = f.Rule
		if f.Cases[i].FailStr == "" && f.Cases[i].PassStr == "" {
			return nil, fmt.Errorf("parse %s: case %s has neither fail_str nor pass_str", path, f.Cases[i].Name)
		}
	}
	return f, nil
}

// LoadGlob loads every fixture file matching pattern, ordered by path.
func LoadGlob(pattern string) ([]*File, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)

	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
