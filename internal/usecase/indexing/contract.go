package indexing

import (
	"context"
	"iter"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// GraphWriter stores nodes and parent/child links.
type GraphWriter interface {
	Put(ctx context.Context, n *node.Node) error
	Link(ctx context.Context, parentID, childID string) error
	All(ctx context.Context) iter.Seq2[*node.Node, error]
}

// Indexer mirrors nodes into a full-text index.
type Indexer interface {
	Put(ctx context.Context, n *node.Node) error
}

// BatchIndexer is an Indexer that writes several nodes per round trip.
// Rebuild uses it when available.
type BatchIndexer interface {
	Indexer
	PutMany(ctx context.Context, ns []*node.Node) error
}

// Resetter is an Indexer that can be emptied. Rebuild resets it first so
// entries of nodes no longer in the graph do not survive.
type Resetter interface {
	Reset(ctx context.Context) error
}
