package nolock

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/nolock/pkg/lint"
	"github.com/leapstack-labs/nolock/pkg/segment"
)

// RuleID is the identifier of the table hint rule.
const RuleID = "NL01"

//go:embed default_config.yaml
var defaultConfig []byte

func init() {
	lint.Register(TableHint)
}

// TableHint requires WITH (NOLOCK) on table references in FROM and JOIN
// clauses.
var TableHint = lint.RuleDef{
	ID:            RuleID,
	Name:          "nolock.table_hint",
	Group:         "nolock",
	Description:   "Table references in FROM and JOIN clauses must carry WITH (NOLOCK).",
	Severity:      lint.SeverityWarning,
	Crawl:         []segment.Kind{segment.KindFromReferenceElement},
	ConfigKeys:    []string{"check_from", "check_join", "legacy_alias_hint"},
	New:           newTableHint,
	DefaultConfig: defaultConfig,

	Rationale: `Reporting queries against busy OLTP tables should not take shared locks
that block writers. Every table read must therefore state its isolation
explicitly with the NOLOCK table hint. Subqueries, table-valued functions
and table variables are not checked because a table hint is not valid there.`,

	BadExample: `SELECT o.id, c.name
FROM orders AS o
JOIN customers c ON c.id = o.customer_id`,

	GoodExample: `SELECT o.id, c.name
FROM orders AS o WITH (NOLOCK)
JOIN customers c WITH (NOLOCK) ON c.id = o.customer_id`,

	Fix: "Add WITH (NOLOCK) after the table name, or after its alias when there is one. " +
		"A reference that already has a different hint clause is reported but left for manual review.",
}

// Options configures the table hint rule.
type Options struct {
	CheckFrom       bool `mapstructure:"check_from" yaml:"check_from"`
	CheckJoin       bool `mapstructure:"check_join" yaml:"check_join"`
	LegacyAliasHint bool `mapstructure:"legacy_alias_hint" yaml:"legacy_alias_hint"`
}

// DefaultOptions returns the options from the embedded default config.
var DefaultOptions = sync.OnceValue(func() Options {
	var doc struct {
		Lint struct {
			Rules map[string]Options `yaml:"rules"`
		} `yaml:"lint"`
	}
	if err := yaml.Unmarshal(defaultConfig, &doc); err != nil {
		panic(fmt.Sprintf("nolock: invalid default_config.yaml: %v", err))
	}
	return doc.Lint.Rules[RuleID]
})

// NewOptions returns the defaults overridden by opts.
func NewOptions(opts map[string]any) (Options, error) {
	o := DefaultOptions()
	if err := lint.DecodeOptions(opts, &o); err != nil {
		return Options{}, err
	}
	return o, nil
}

func newTableHint(opts map[string]any) (lint.EvalFunc, error) {
	o, err := NewOptions(opts)
	if err != nil {
		return nil, err
	}
	return o.Eval, nil
}

// Eval evaluates one crawled from element under these options.
func (o Options) Eval(ctx lint.RuleContext) []lint.Diagnostic {
	if !o.checks(ctx) {
		return nil
	}

	out := Matcher{AcceptAliasHint: o.LegacyAliasHint}.Evaluate(ctx.Segment)
	if out.Clean {
		return nil
	}
	return []lint.Diagnostic{toDiagnostic(out.Violation)}
}

// checks reports whether the element's clause is enabled: elements whose
// nearest clause is a join use CheckJoin, all others CheckFrom.
func (o Options) checks(ctx lint.RuleContext) bool {
	parent := ctx.Parent(segment.KindJoinClause, segment.KindFromExpression)
	if parent != nil && parent.Kind() == segment.KindJoinClause {
		return o.CheckJoin
	}
	return o.CheckFrom
}

func toDiagnostic(v *Violation) lint.Diagnostic {
	d := lint.Diagnostic{
		RuleID:           RuleID,
		Severity:         lint.SeverityWarning,
		Message:          v.Description,
		Pos:              v.Anchor.Pos(),
		EndPos:           segment.End(v.Anchor),
		DocumentationURL: lint.BuildDocURL(RuleID),
		ImpactScore:      lint.ImpactMedium.Int(),
	}
	if v.Fix != nil {
		d.Fixes = []lint.Fix{{
			Description: fmt.Sprintf("Add WITH (%s) after %q", HintKeyword, v.Fix.Anchor.Raw()),
			Edits:       []segment.Edit{*v.Fix},
		}}
		d.AutoFixable = true
	}
	return d
}
