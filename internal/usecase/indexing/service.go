// Package indexing keeps the full-text index in step with the graph.
package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/logger"
)

// MaxBatchSize is the maximum number of items per batch request.
const MaxBatchSize = 100

// Item is one node of a batch write together with its optional parent.
type Item struct {
	Node     *node.Node
	ParentID string
}

// Result is the outcome of a single batch item.
type Result struct {
	ID  string
	Err error
}

// OK reports whether the item was stored and indexed.
func (r Result) OK() bool { return r.Err == nil }

// Service writes nodes to the graph and the index.
type Service struct {
	graph        GraphWriter
	index        Indexer
	maxBatchSize int
}

// New creates an indexing service.
func New(g GraphWriter, idx Indexer) *Service {
	return &Service{graph: g, index: idx, maxBatchSize: MaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Put stores n, links it below parentID when one is given, and indexes it.
// Soft-deleted nodes stay indexed; visibility filters them at search time.
func (s *Service) Put(ctx context.Context, n *node.Node, parentID string) error {
	if n == nil {
		return fmt.Errorf("node is nil: %w", domain.ErrInvalidNode)
	}
	if err := s.graph.Put(ctx, n); err != nil {
		return fmt.Errorf("store node: %w", err)
	}
	if parentID != "" {
		if err := s.graph.Link(ctx, parentID, n.ID); err != nil {
			return fmt.Errorf("link node: %w", err)
		}
	}
	if err := s.index.Put(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// PutBatch stores items in order and reports a result per item. An item
// failure does not stop the batch.
func (s *Service) PutBatch(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	if len(items) > s.maxBatchSize {
		for i, item := range items {
			results[i] = Result{
				ID:  itemID(item),
				Err: fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidNode),
			}
		}
		return results
	}

	for i, item := range items {
		err := s.Put(ctx, item.Node, item.ParentID)
		results[i] = Result{ID: itemID(item), Err: err}
	}
	return results
}

// Rebuild streams every graph node into the index and returns how many
// nodes were written. A Resetter is emptied first and a BatchIndexer
// receives pages of the batch size.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	resetter, reset := s.index.(Resetter)
	if reset {
		if err := resetter.Reset(ctx); err != nil {
			return 0, fmt.Errorf("reset index: %w", err)
		}
	}

	batcher, batched := s.index.(BatchIndexer)
	var page []*node.Node
	count := 0
	flush := func() error {
		if len(page) == 0 {
			return nil
		}
		if err := batcher.PutMany(ctx, page); err != nil {
			return fmt.Errorf("index %d nodes: %w", len(page), err)
		}
		count += len(page)
		page = page[:0]
		return nil
	}

	for n, err := range s.graph.All(ctx) {
		if err != nil {
			return count, fmt.Errorf("read graph: %w", err)
		}
		if batched {
			page = append(page, n)
			if len(page) >= s.maxBatchSize {
				if err := flush(); err != nil {
					return count, err
				}
			}
			continue
		}
		if err := s.index.Put(ctx, n); err != nil {
			return count, fmt.Errorf("index node %s: %w", n.ID, err)
		}
		count++
	}
	if batched {
		if err := flush(); err != nil {
			return count, err
		}
	}

	log.Info("index rebuilt",
		zap.Int("nodes", count),
		zap.Bool("batched", batched),
		zap.Bool("reset", reset),
		zap.Duration("duration", time.Since(start)),
	)
	return count, nil
}

func itemID(item Item) string {
	if item.Node == nil {
		return ""
	}
	return item.Node.ID
}
