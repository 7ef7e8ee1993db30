package search

import (
	"context"
	"iter"

	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

// IndexExecutor runs a compiled query against a full-text index. Text-based
// backends read text; structured backends read q. Both describe the same query.
type IndexExecutor interface {
	Execute(ctx context.Context, text string, q *query.Query) ([]index.Hit, error)
}

// NodeFactory materializes nodes, dropping those that fail the visibility predicates.
type NodeFactory interface {
	FromHits(ctx context.Context, hits []index.Hit, v node.Visibility) ([]*node.Node, error)
	FromSeq(ctx context.Context, seq iter.Seq2[*node.Node, error], v node.Visibility) ([]*node.Node, error)
}

// SubtreeLister enumerates the descendants of a top node lazily.
type SubtreeLister interface {
	Descendants(ctx context.Context, topID string, maxDepth int) iter.Seq2[*node.Node, error]
}
