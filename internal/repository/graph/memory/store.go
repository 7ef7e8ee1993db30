// Package memory is an in-process graph store.
package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph"
)

// Store keeps nodes and parent/child links in maps. Reads return copies.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*node.Node
	order    []string
	children map[string][]string
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:    make(map[string]*node.Node),
		children: make(map[string][]string),
		now:      time.Now,
	}
}

// Put inserts or replaces a node. A missing ID is generated and a zero
// creation time is set to now; both are written back to n.
func (s *Store) Put(_ context.Context, n *node.Node) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := node.ValidateID(n.ID); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[n.ID]; !ok {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n.Clone()
	return nil
}

// Link appends childID to parentID's children. Linking twice is a no-op.
func (s *Store) Link(_ context.Context, parentID, childID string) error {
	if parentID == childID {
		return fmt.Errorf("link %s to itself", parentID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range []string{parentID, childID} {
		if _, ok := s.nodes[id]; !ok {
			return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
	}
	if slices.Contains(s.children[parentID], childID) {
		return nil
	}
	s.children[parentID] = append(s.children[parentID], childID)
	return nil
}

// Get returns a node by ID.
func (s *Store) Get(_ context.Context, id string) (*node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return n.Clone(), nil
}

// GetMany returns the nodes for ids in the same order, skipping unknown IDs.
func (s *Store) GetMany(_ context.Context, ids []string) ([]*node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

// Children returns the direct children of id in link order.
func (s *Store) Children(_ context.Context, id string) ([]*node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	kids := s.children[id]
	out := make([]*node.Node, 0, len(kids))
	for _, k := range kids {
		out = append(out, s.nodes[k].Clone())
	}
	return out, nil
}

// Descendants lazily walks the subtree below topID.
func (s *Store) Descendants(ctx context.Context, topID string, maxDepth int) iter.Seq2[*node.Node, error] {
	return graph.Descendants(ctx, topID, maxDepth, s.Children)
}

// All yields every node in insertion order. The ID list is snapshotted up
// front; nodes are read one at a time.
func (s *Store) All(ctx context.Context) iter.Seq2[*node.Node, error] {
	return func(yield func(*node.Node, error) bool) {
		s.mu.RLock()
		ids := slices.Clone(s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			s.mu.RLock()
			n, ok := s.nodes[id]
			s.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(n.Clone(), nil) {
				return
			}
		}
	}
}

// FindByName returns nodes with exactly this name, in insertion order.
func (s *Store) FindByName(_ context.Context, name string) ([]*node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*node.Node
	for _, id := range s.order {
		if n := s.nodes[id]; n.Name == name {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
