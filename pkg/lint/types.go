package lint

import (
	"github.com/leapstack-labs/nolock/pkg/segment"
	"github.com/leapstack-labs/nolock/pkg/token"
)

// =============================================================================
// Rule Definitions
// =============================================================================

// RuleDef is a data-driven rule definition.
// A rule is bound once per Analyzer: New receives the rule's options from
// configuration and returns the evaluation function used for every crawled
// segment. The returned function must not keep mutable state.
type RuleDef struct {
	ID          string         // Unique identifier, e.g., "NL01"
	Name        string         // Human-readable name, e.g., "nolock.table_hint"
	Group       string         // Category, e.g., "nolock"
	Description string         // Human-readable description
	Severity    Severity       // Default severity
	Crawl       []segment.Kind // Segment kinds the rule is invoked on
	ConfigKeys  []string       // Configuration keys this rule accepts
	New         NewFunc        // Binds options and returns the evaluator

	// DefaultConfig is a YAML fragment in the configuration file schema
	// holding the rule's default options. It is merged under user settings.
	DefaultConfig []byte

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Code showing the anti-pattern
	GoodExample string // Code showing the correct pattern
	Fix         string // How to fix violations (when not obvious)
}

// NewFunc decodes rule options and returns the rule's evaluator.
type NewFunc func(opts map[string]any) (EvalFunc, error)

// EvalFunc evaluates one crawled segment and returns diagnostics.
type EvalFunc func(ctx RuleContext) []Diagnostic

// RuleContext is what a rule sees for one crawled segment.
type RuleContext struct {
	Segment *segment.Segment
	// Parents lists the ancestors of Segment, root first. Only valid
	// during the call.
	Parents []*segment.Segment
}

// Parent returns the nearest ancestor with one of the given kinds, or nil.
func (c RuleContext) Parent(kinds ...segment.Kind) *segment.Segment {
	for i := len(c.Parents) - 1; i >= 0; i-- {
		if c.Parents[i].Is(kinds...) {
			return c.Parents[i]
		}
	}
	return nil
}

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string         `json:"rule_id"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"pos"`
	EndPos   token.Position `json:"end_pos"` // Optional: end of the problematic range
	Fixes    []Fix          `json:"-"`       // Optional: tree edits that resolve the finding

	// Remediation metadata
	DocumentationURL string `json:"documentation_url,omitempty"`
	ImpactScore      int    `json:"impact_score,omitempty"` // 0-100
	AutoFixable      bool   `json:"auto_fixable"`           // true if Fixes can be auto-applied
}

// Fix represents a suggested correction expressed as tree edits.
type Fix struct {
	Description string
	Edits       []segment.Edit
}

// =============================================================================
// Rule Info
// =============================================================================

// RuleInfo provides metadata about a lint rule for documentation/tooling.
type RuleInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Group           string   `json:"group"`
	Description     string   `json:"description"`
	DefaultSeverity Severity `json:"default_severity"`
	ConfigKeys      []string `json:"config_keys,omitempty"`
	Crawl           []string `json:"crawl,omitempty"`

	// Documentation fields
	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	Fix         string `json:"fix,omitempty"`
	DocURL      string `json:"doc_url,omitempty"`
}

// Info extracts documentation metadata from the rule.
func (r RuleDef) Info() RuleInfo {
	crawl := make([]string, len(r.Crawl))
	for i, k := range r.Crawl {
		crawl[i] = k.String()
	}
	return RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Group:           r.Group,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		ConfigKeys:      r.ConfigKeys,
		Crawl:           crawl,
		Rationale:       r.Rationale,
		BadExample:      r.BadExample,
		GoodExample:     r.GoodExample,
		Fix:             r.Fix,
		DocURL:          BuildDocURL(r.ID),
	}
}
