package segment

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/nolock/pkg/token"
)

// Render returns the source text of the tree.
func Render(root *Segment) string {
	if root == nil {
		return ""
	}
	return root.Raw()
}

// End returns the position just past the segment, or the zero Position for
// synthesized segments.
func End(s *Segment) token.Position {
	if !s.pos.IsValid() {
		return token.Position{}
	}
	return s.pos.Advance(s.Raw())
}

// SpanOf returns the source range covered by the segment.
func SpanOf(s *Segment) token.Span {
	return token.Span{Start: s.pos, End: End(s)}
}

// Dump writes an indented listing of the tree, one segment per line:
//
//	   1:1    | file:
//	   1:1    |   statement:
//	   1:1    |     keyword:                 'SELECT'
func Dump(w io.Writer, root *Segment) error {
	var err error
	var dump func(s *Segment, depth int)
	dump = func(s *Segment, depth int) {
		if err != nil {
			return
		}
		label := strings.Repeat("  ", depth) + s.kind.String() + ":"
		if s.leaf {
			_, err = fmt.Fprintf(w, "%8s | %-40s %q\n", s.pos, label, s.raw)
			return
		}
		_, err = fmt.Fprintf(w, "%8s | %s\n", s.pos, label)
		for _, c := range s.children {
			dump(c, depth+1)
		}
	}
	dump(root, 0)
	return err
}

// DumpString returns the Dump output as a string.
func DumpString(root *Segment) string {
	var b strings.Builder
	_ = Dump(&b, root)
	return b.String()
}
