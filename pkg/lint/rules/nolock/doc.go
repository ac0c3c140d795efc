// Package nolock implements NL01 (nolock.table_hint), which requires the
// WITH (NOLOCK) table hint on every table read in a FROM or JOIN clause.
//
// The rule works on segment trees. Evaluate inspects one from element and
// reports whether a hint is present; Synthesize builds the tree edit that
// inserts one. Neither ever changes the tree it is given.
//
// Options (see default_config.yaml):
//   - check_from: check elements of FROM clauses (default true)
//   - check_join: check elements of JOIN and APPLY clauses (default true)
//   - legacy_alias_hint: accept `t (NOLOCK)` as a hint (default false)
package nolock
