package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/nolock/pkg/lint"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names to config keys. Other flags are not config.
var flagKeys = map[string]string{
	"output":        "output",
	"verbose":       "verbose",
	"max-fix-loops": "max_fix_loops",
	"concurrency":   "concurrency",
}

// LoadConfig loads configuration, searching for a config file from the
// working directory. Precedence (highest to lowest): flags > env vars >
// config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return LoadConfigFrom(cwd, cfgFile, flags)
}

// LoadConfigFrom is LoadConfig with an explicit search start directory.
func LoadConfigFrom(dir, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"output":        DefaultOutput,
		"verbose":       false,
		"max_fix_loops": DefaultMaxFixLoops,
		"concurrency":   0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := loadRuleDefaults(k); err != nil {
		return nil, err
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = findConfigUpward(dir)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: NOLOCK_LINT__RULES__NL01__CHECK_JOIN -> lint.rules.NL01.check_join
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadRuleDefaults merges every registered rule's default config fragment.
func loadRuleDefaults(k *koanf.Koanf) error {
	parser := yaml.Parser()
	for _, def := range lint.GetAll() {
		if len(def.DefaultConfig) == 0 {
			continue
		}
		m, err := parser.Unmarshal(def.DefaultConfig)
		if err != nil {
			return fmt.Errorf("default config of rule %s: %w", def.ID, err)
		}
		if err := k.Load(confmap.Provider(m, ""), nil); err != nil {
			return fmt.Errorf("default config of rule %s: %w", def.ID, err)
		}
	}
	return nil
}

// envKey turns an environment variable name into a config key. Rule IDs
// under lint.rules and lint.severity keep upper case.
func envKey(s string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__")
	if len(parts) >= 3 && parts[0] == "lint" && (parts[1] == "rules" || parts[1] == "severity") {
		parts[2] = strings.ToUpper(parts[2])
	}
	return strings.Join(parts, ".")
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// findConfigUpward searches dir and its parents for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(dir string) string {
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// LintConfig builds the analyzer configuration. Rule IDs are matched
// case-insensitively.
func (c *Config) LintConfig() *lint.Config {
	lc := lint.NewConfig()
	for _, id := range c.Lint.Disabled {
		lc.Disable(strings.ToUpper(strings.TrimSpace(id)))
	}
	for id, sev := range c.Lint.Severity {
		lc.SetSeverity(strings.ToUpper(id), sev)
	}
	merged := make(map[string]map[string]any, len(c.Lint.Rules))
	for id, opts := range c.Lint.Rules {
		id = strings.ToUpper(id)
		if merged[id] == nil {
			merged[id] = make(map[string]any, len(opts))
		}
		for k, v := range opts {
			merged[id][k] = v
		}
	}
	for id, opts := range merged {
		lc.SetRuleOptions(id, opts)
	}
	return lc
}
