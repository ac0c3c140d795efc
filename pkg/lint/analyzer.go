package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/nolock/pkg/parser"
	"github.com/leapstack-labs/nolock/pkg/segment"
)

// ParseRuleID identifies diagnostics for input that could not be parsed.
const ParseRuleID = "PRS"

// DefaultMaxFixLoops bounds the number of fix passes in Fix.
const DefaultMaxFixLoops = 10

// ErrFixLoopLimit is returned by Fix when fixable diagnostics remain after
// the maximum number of passes.
var ErrFixLoopLimit = errors.New("fix loop limit reached")

// ParseFunc parses SQL text into a segment tree.
type ParseFunc func(sql string) (*segment.Segment, error)

// Analyzer runs lint rules against parsed SQL.
// An Analyzer is immutable after construction and safe for concurrent use.
type Analyzer struct {
	config      *Config
	logger      *slog.Logger
	maxFixLoops int
	parse       ParseFunc
	rules       []boundRule
}

type boundRule struct {
	def      RuleDef
	severity Severity
	eval     EvalFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for fix-loop tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxFixLoops sets the maximum number of fix passes. Values below one
// keep the default.
func WithMaxFixLoops(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxFixLoops = n
		}
	}
}

// WithParser replaces the parser used by AnalyzeSQL and Fix.
func WithParser(parse ParseFunc) Option {
	return func(a *Analyzer) {
		if parse != nil {
			a.parse = parse
		}
	}
}

// NewAnalyzer creates an analyzer running every registered rule that the
// configuration enables. Each rule is bound to its options once, here.
func NewAnalyzer(config *Config, opts ...Option) (*Analyzer, error) {
	if config == nil {
		config = NewConfig()
	}
	a := &Analyzer{
		config:      config,
		logger:      slog.New(slog.DiscardHandler),
		maxFixLoops: DefaultMaxFixLoops,
		parse:       parser.Parse,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, def := range GetAll() {
		if config.IsDisabled(def.ID) {
			continue
		}
		if def.New == nil {
			return nil, fmt.Errorf("rule %s has no constructor", def.ID)
		}
		eval, err := def.New(config.GetRuleOptions(def.ID))
		if err != nil {
			return nil, fmt.Errorf("configure rule %s: %w", def.ID, err)
		}
		a.rules = append(a.rules, boundRule{
			def:      def,
			severity: config.GetSeverity(def.ID, def.Severity),
			eval:     eval,
		})
	}

	return a, nil
}

// Rules returns the definitions of the rules this analyzer runs.
func (a *Analyzer) Rules() []RuleDef {
	defs := make([]RuleDef, len(a.rules))
	for i, r := range a.rules {
		defs[i] = r.def
	}
	return defs
}

// Analyze runs all bound rules against the tree. Diagnostics are ordered
// by position, then rule ID.
func (a *Analyzer) Analyze(tree *segment.Segment) []Diagnostic {
	if tree == nil {
		return nil
	}

	var diagnostics []Diagnostic
	for _, rule := range a.rules {
		Crawl(tree, rule.def.Crawl, func(node *segment.Segment, parents []*segment.Segment) {
			diags := rule.eval(RuleContext{Segment: node, Parents: parents})
			for i := range diags {
				diags[i].RuleID = rule.def.ID
				diags[i].Severity = rule.severity
				diags[i].AutoFixable = len(diags[i].Fixes) > 0
				if diags[i].DocumentationURL == "" {
					diags[i].DocumentationURL = BuildDocURL(rule.def.ID)
				}
			}
			diagnostics = append(diagnostics, diags...)
		})
	}

	SortDiagnostics(diagnostics)
	return diagnostics
}

// AnalyzeSQL parses and analyzes SQL text. A parse failure is reported as a
// single error diagnostic with rule ID PRS.
func (a *Analyzer) AnalyzeSQL(sql string) []Diagnostic {
	tree, err := a.parse(sql)
	if err != nil {
		return []Diagnostic{ParseErrorDiagnostic(err)}
	}
	return a.Analyze(tree)
}

// ParseErrorDiagnostic converts a parse error into a diagnostic.
func ParseErrorDiagnostic(err error) Diagnostic {
	d := Diagnostic{
		RuleID:   ParseRuleID,
		Severity: SeverityError,
		Message:  err.Error(),
	}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		d.Message = perr.Message
		d.Pos = perr.Pos
	}
	return d
}

// FixResult is the outcome of Fix.
type FixResult struct {
	SQL       string       // Fixed SQL text
	Loops     int          // Number of passes that applied edits
	Applied   int          // Number of fixes applied across all passes
	Remaining []Diagnostic // Diagnostics left in the fixed SQL
}

// Changed reports whether any fix was applied.
func (r FixResult) Changed() bool {
	return r.Applied > 0
}

// Fix applies auto-fixes in passes until no fixable diagnostic remains.
// Each pass re-parses the text produced by the previous one. If fixable
// diagnostics remain after the configured number of passes, the partially
// fixed result is returned together with ErrFixLoopLimit.
func (a *Analyzer) Fix(ctx context.Context, sql string) (FixResult, error) {
	result := FixResult{SQL: sql}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tree, err := a.parse(result.SQL)
		if err != nil {
			if result.Loops > 0 {
				return result, fmt.Errorf("re-parse after fix pass %d: %w", result.Loops, err)
			}
			result.Remaining = []Diagnostic{ParseErrorDiagnostic(err)}
			return result, nil
		}

		diags := a.Analyze(tree)
		edits := collectEdits(diags)
		if len(edits) == 0 {
			result.Remaining = diags
			return result, nil
		}
		if result.Loops >= a.maxFixLoops {
			result.Remaining = diags
			return result, fmt.Errorf("%w after %d passes", ErrFixLoopLimit, result.Loops)
		}

		fixed, err := segment.Apply(tree, edits...)
		if err != nil {
			return result, fmt.Errorf("apply fixes: %w", err)
		}

		next := segment.Render(fixed)
		result.Loops++
		result.Applied += len(edits)
		a.logger.Debug("applied fix pass",
			slog.Int("loop", result.Loops),
			slog.Int("edits", len(edits)),
			slog.Int("diagnostics", len(diags)))

		if next == result.SQL {
			result.Remaining = diags
			return result, nil
		}
		result.SQL = next
	}
}

// collectEdits gathers the first fix of every fixable diagnostic. Edits
// whose anchor is already taken by an earlier diagnostic are left for the
// next pass.
func collectEdits(diags []Diagnostic) []segment.Edit {
	var edits []segment.Edit
	taken := make(map[*segment.Segment]bool)

	for _, d := range diags {
		if len(d.Fixes) == 0 {
			continue
		}
		fix := d.Fixes[0]
		conflict := false
		for _, e := range fix.Edits {
			if taken[e.Anchor] {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		for _, e := range fix.Edits {
			taken[e.Anchor] = true
			edits = append(edits, e)
		}
	}
	return edits
}

// SortDiagnostics orders diagnostics by position, then rule ID.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Pos.Offset != diags[j].Pos.Offset {
			return diags[i].Pos.Offset < diags[j].Pos.Offset
		}
		return diags[i].RuleID < diags[j].RuleID
	})
}
