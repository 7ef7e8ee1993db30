// Package graph holds the traversal shared by the graph stores.
package graph

import (
	"context"
	"iter"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// DefaultMaxDepth is used when a caller passes a non-positive depth.
const DefaultMaxDepth = 999

// ChildrenFunc returns the direct children of a node in link order.
type ChildrenFunc func(ctx context.Context, id string) ([]*node.Node, error)

// Descendants walks the subtree below topID breadth-first. The top node is
// not yielded. Each node is yielded once even when reachable through several
// parents or a cycle. Children are fetched only as the walk reaches them, so
// stopping early stops the reads.
func Descendants(ctx context.Context, topID string, maxDepth int, children ChildrenFunc) iter.Seq2[*node.Node, error] {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return func(yield func(*node.Node, error) bool) {
		type entry struct {
			id    string
			depth int
		}
		seen := map[string]struct{}{topID: {}}
		queue := []entry{{id: topID}}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur.depth >= maxDepth {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			kids, err := children(ctx, cur.id)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, k := range kids {
				if _, ok := seen[k.ID]; ok {
					continue
				}
				seen[k.ID] = struct{}{}
				if !yield(k, nil) {
					return
				}
				queue = append(queue, entry{id: k.ID, depth: cur.depth + 1})
			}
		}
	}
}
