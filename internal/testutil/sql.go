package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nolock/pkg/parser"
	"github.com/leapstack-labs/nolock/pkg/segment"
)

// MustParse parses sql and fails the test on error.
func MustParse(t testing.TB, sql string) *segment.Segment {
	t.Helper()
	root, err := parser.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	return root
}

// FromElements returns every from element in the tree, in document order.
func FromElements(root *segment.Segment) []*segment.Segment {
	var out []*segment.Segment
	segment.Walk(root, func(s *segment.Segment) bool {
		if s.Kind() == segment.KindFromReferenceElement {
			out = append(out, s)
		}
		return true
	})
	return out
}

// FirstElement parses sql and returns the tree and its first from element.
func FirstElement(t testing.TB, sql string) (root, elem *segment.Segment) {
	t.Helper()
	root = MustParse(t, sql)
	elems := FromElements(root)
	require.NotEmpty(t, elems, "no from element in %q", sql)
	return root, elems[0]
}
