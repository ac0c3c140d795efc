package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/nolock/internal/cli/output"
	"github.com/leapstack-labs/nolock/pkg/lint"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := output.ParseMode(c.Output); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	if c.MaxFixLoops < 1 {
		errs = append(errs, fmt.Errorf("max_fix_loops must be at least 1, got %d", c.MaxFixLoops))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	for id := range c.Lint.Rules {
		if _, ok := lint.GetByID(strings.ToUpper(id)); !ok {
			errs = append(errs, fmt.Errorf("lint.rules: unknown rule %q", id))
		}
	}
	for id := range c.Lint.Severity {
		if _, ok := lint.GetByID(strings.ToUpper(id)); !ok {
			errs = append(errs, fmt.Errorf("lint.severity: unknown rule %q", id))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
