// Package seed loads graph fixtures from YAML.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// Writer is the subset of a graph store the loader needs.
type Writer interface {
	Put(ctx context.Context, n *node.Node) error
	Link(ctx context.Context, parentID, childID string) error
}

// File is the fixture layout.
type File struct {
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

// Node is one fixture node. Parent is a shorthand for an edge.
type Node struct {
	ID         string         `yaml:"id"`
	Parent     string         `yaml:"parent"`
	Type       string         `yaml:"type"`
	Name       string         `yaml:"name"`
	Owner      string         `yaml:"owner"`
	Readers    []string       `yaml:"readers"`
	Public     bool           `yaml:"public"`
	Deleted    bool           `yaml:"deleted"`
	CreatedAt  time.Time      `yaml:"created_at"`
	Properties map[string]any `yaml:"properties"`
}

// Edge links a parent to a child.
type Edge struct {
	Parent string `yaml:"parent"`
	Child  string `yaml:"child"`
}

// Stats reports what a load wrote.
type Stats struct {
	Nodes int
	Edges int
}

// LoadFile reads a fixture file and writes it into w.
func LoadFile(ctx context.Context, path string, w Writer) (Stats, error) {
	f, err := os.Open(path) //nolint:gosec // path from config
	if err != nil {
		return Stats{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(ctx, f, w)
}

// Load decodes a fixture and writes nodes first, then edges, in file order.
func Load(ctx context.Context, r io.Reader, w Writer) (Stats, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return Stats{}, fmt.Errorf("decode seed: %w", err)
	}

	var stats Stats
	edges := make([]Edge, 0, len(file.Edges)+len(file.Nodes))
	for i, fn := range file.Nodes {
		if fn.ID == "" {
			return stats, fmt.Errorf("seed node %d: id is required", i)
		}
		n := &node.Node{
			ID:         fn.ID,
			Type:       fn.Type,
			Name:       fn.Name,
			OwnerID:    fn.Owner,
			Readers:    fn.Readers,
			Public:     fn.Public,
			Deleted:    fn.Deleted,
			CreatedAt:  fn.CreatedAt,
			Properties: fn.Properties,
		}
		if err := w.Put(ctx, n); err != nil {
			return stats, fmt.Errorf("seed node %s: %w", fn.ID, err)
		}
		stats.Nodes++
		if fn.Parent != "" {
			edges = append(edges, Edge{Parent: fn.Parent, Child: fn.ID})
		}
	}
	edges = append(edges, file.Edges...)

	for _, e := range edges {
		if err := w.Link(ctx, e.Parent, e.Child); err != nil {
			return stats, fmt.Errorf("seed edge %s -> %s: %w", e.Parent, e.Child, err)
		}
		stats.Edges++
	}
	return stats, nil
}
