// Package nodefactory turns index hits and graph walks into visible nodes.
package nodefactory

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/logger"
)

// GraphReader loads nodes by ID, keeping order and skipping unknown IDs.
type GraphReader interface {
	GetMany(ctx context.Context, ids []string) ([]*node.Node, error)
}

// Factory materializes nodes and applies the visibility predicates.
type Factory struct {
	graph GraphReader
}

// New creates a node factory.
func New(g GraphReader) *Factory {
	return &Factory{graph: g}
}

// FromHits loads hit nodes in hit order. Duplicate hits and hits whose node
// no longer exists are dropped, as are nodes the visibility rejects.
func (f *Factory) FromHits(ctx context.Context, hits []index.Hit, v node.Visibility) ([]*node.Node, error) {
	if len(hits) == 0 {
		return []*node.Node{}, nil
	}
	ids := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, id := range index.IDs(hits) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	loaded, err := f.graph.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load hit nodes: %w", err)
	}
	if stale := len(ids) - len(loaded); stale > 0 {
		logger.FromContext(ctx).Debug("index returned stale hits", zap.Int("stale", stale))
	}

	out := make([]*node.Node, 0, len(loaded))
	for _, n := range loaded {
		if v.Allows(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// FromSeq drains seq, keeping the first occurrence of each visible node.
// The first error from seq aborts the walk.
func (f *Factory) FromSeq(ctx context.Context, seq iter.Seq2[*node.Node, error], v node.Visibility) ([]*node.Node, error) {
	out := []*node.Node{}
	seen := make(map[string]struct{})
	for n, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("walk nodes: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		if v.Allows(n) {
			out = append(out, n)
		}
	}
	return out, nil
}
