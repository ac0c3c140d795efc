// Package rules registers every built-in lint rule.
//
// Import it with a blank identifier to populate the global lint registry:
//
//	import _ "github.com/leapstack-labs/nolock/pkg/lint/rules"
package rules

import (
	// Each rule package registers its rules via init()
	_ "github.com/leapstack-labs/nolock/pkg/lint/rules/nolock"
)
