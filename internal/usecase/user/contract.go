package user

import (
	"context"
	"iter"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// Graph is the read side of a graph store.
type Graph interface {
	Get(ctx context.Context, id string) (*node.Node, error)
	FindByName(ctx context.Context, name string) ([]*node.Node, error)
	Descendants(ctx context.Context, topID string, maxDepth int) iter.Seq2[*node.Node, error]
}
