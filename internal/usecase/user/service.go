package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	domuser "github.com/kailas-cloud/nodesearch/internal/domain/user"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph"
)

// Service resolves user principals from the graph.
type Service struct {
	graph    Graph
	maxDepth int
}

// New creates a user service.
func New(g Graph) *Service {
	return &Service{graph: g, maxDepth: graph.DefaultMaxDepth}
}

// FindByName returns the first User node with exactly this name.
func (s *Service) FindByName(ctx context.Context, name string) (*domuser.User, error) {
	if name == "" {
		return nil, domain.ErrUserNotFound
	}
	nodes, err := s.graph.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", name, err)
	}
	for _, n := range nodes {
		if n.Type == domuser.NodeType {
			return domuser.FromNode(n)
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, domain.ErrUserNotFound)
}

// FindByNameUnder searches the subtree rooted at rootID breadth-first for a
// User with this name. The root itself is considered first.
func (s *Service) FindByNameUnder(ctx context.Context, name, rootID string) (*domuser.User, error) {
	if name == "" {
		return nil, domain.ErrUserNotFound
	}
	root, err := s.graph.Get(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("user root %s: %w", rootID, err)
	}
	if isUserNamed(root, name) {
		return domuser.FromNode(root)
	}
	for n, err := range s.graph.Descendants(ctx, rootID, s.maxDepth) {
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", rootID, err)
		}
		if isUserNamed(n, name) {
			return domuser.FromNode(n)
		}
	}
	return nil, fmt.Errorf("user %q under %s: %w", name, rootID, domain.ErrUserNotFound)
}

// Get resolves a user by node ID.
func (s *Service) Get(ctx context.Context, id string) (*domuser.User, error) {
	n, err := s.graph.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if n.Type != domuser.NodeType {
		return nil, fmt.Errorf("node %s is a %s: %w", id, n.Type, domain.ErrUserNotFound)
	}
	return domuser.FromNode(n)
}

func isUserNamed(n *node.Node, name string) bool {
	return n.Type == domuser.NodeType && n.Name == name
}
