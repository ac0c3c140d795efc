package lint

import "github.com/leapstack-labs/nolock/pkg/segment"

// CrawlFunc is called for every crawled segment with its ancestors, root
// first. The parents slice is reused between calls.
type CrawlFunc func(node *segment.Segment, parents []*segment.Segment)

// Crawl visits, depth-first in document order, every segment below and
// including root whose kind is in kinds. Matching segments are still
// descended into, so nested matches (a from element inside a subquery
// inside a from element) are each visited.
func Crawl(root *segment.Segment, kinds []segment.Kind, fn CrawlFunc) {
	if root == nil || len(kinds) == 0 {
		return
	}
	var parents []*segment.Segment
	var visit func(s *segment.Segment)
	visit = func(s *segment.Segment) {
		if s.Is(kinds...) {
			fn(s, parents)
		}
		if s.IsLeaf() {
			return
		}
		parents = append(parents, s)
		for _, c := range s.Children() {
			visit(c)
		}
		parents = parents[:len(parents)-1]
	}
	visit(root)
}
