// Package config loads the nolock CLI configuration.
//
// Sources, lowest precedence first:
//  1. built-in defaults, including each registered rule's default options
//  2. the config file (--config, or nolock.yaml / .nolock.yaml found by
//     searching upward from the working directory)
//  3. NOLOCK_ environment variables; a double underscore separates levels,
//     as in NOLOCK_LINT__RULES__NL01__CHECK_JOIN=false
//  4. command-line flags that were explicitly set
package config

import (
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// Config holds all CLI configuration options.
type Config struct {
	Output      string     `koanf:"output"`
	Verbose     bool       `koanf:"verbose"`
	MaxFixLoops int        `koanf:"max_fix_loops"`
	Concurrency int        `koanf:"concurrency"` // 0 means GOMAXPROCS
	Lint        LintConfig `koanf:"lint"`

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// LintConfig selects rules and their options.
type LintConfig struct {
	// Disabled contains rule IDs to disable
	Disabled []string `koanf:"disabled"`

	// Severity maps rule ID to severity override (error, warning, info, hint)
	Severity map[string]lint.Severity `koanf:"severity"`

	// Rules contains rule-specific options keyed by rule ID
	Rules map[string]RuleOptions `koanf:"rules"`
}

// RuleOptions holds rule-specific configuration options.
type RuleOptions map[string]any

// Default configuration values.
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultMaxFixLoops = lint.DefaultMaxFixLoops
	EnvPrefix          = "NOLOCK_"
)

// ConfigFileNames are searched for, in order, in each directory.
var ConfigFileNames = []string{"nolock.yaml", "nolock.yml", ".nolock.yaml", ".nolock.yml"}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		Output:      DefaultOutput,
		MaxFixLoops: DefaultMaxFixLoops,
	}
}
