// Package lint provides the rule framework for segment-tree SQL linting.
//
// # Rule Registration
//
// Rules are automatically registered via init() functions when their
// packages are imported:
//
//	import _ "github.com/leapstack-labs/nolock/pkg/lint/rules"
//
// # Crawling
//
// Each rule names the segment kinds it wants to see. The analyzer crawls
// the tree depth-first in document order and calls the rule once per
// matching segment, passing the segment's ancestors along.
//
// # Configuration
//
// Use Config to control which rules are enabled, their severity and their
// options:
//
//	config := lint.NewConfig()
//	config.SetSeverity("NL01", lint.SeverityError)
//	config.SetRuleOptions("NL01", map[string]any{"check_join": false})
//
//	analyzer, err := lint.NewAnalyzer(config)
//
// Options are decoded once, when NewAnalyzer binds each rule.
//
// # Fixing
//
// Diagnostics may carry fixes expressed as segment edits. Analyzer.Fix
// applies them in passes, re-parsing between passes, until the text is
// clean or the pass limit is reached.
//
// # Creating Custom Rules
//
//	var MyRule = lint.RuleDef{
//		ID:          "MY01",
//		Name:        "my.custom_rule",
//		Group:       "custom",
//		Description: "My custom rule description",
//		Severity:    lint.SeverityWarning,
//		Crawl:       []segment.Kind{segment.KindFromReferenceElement},
//		New: func(opts map[string]any) (lint.EvalFunc, error) {
//			return checkMyRule, nil
//		},
//	}
//
//	func init() {
//		lint.Register(MyRule)
//	}
package lint
