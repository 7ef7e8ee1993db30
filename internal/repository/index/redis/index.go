// Package redis mirrors nodes into Redis hashes and queries them through a
// RediSearch FT index.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/nodesearch/internal/db"
	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultIndexName = "nodesearch:idx"
	DefaultKeyPrefix = "nodesearch:node:"
	DefaultLimit     = 10000
)

// store is the consumer interface over db.Store.
type store interface {
	db.HashStore
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config selects the index layout.
type Config struct {
	IndexName string
	KeyPrefix string
	// TextKeys are indexed as TEXT NOSTEM. Defaults to name and type.
	TextKeys []string
	// NumericKeys are indexed as NUMERIC for range queries.
	// Defaults to created_at (unix milliseconds).
	NumericKeys []string
	// Limit caps the hits fetched per query.
	Limit int
}

// Index is both the search executor and the indexer for a RediSearch backend.
type Index struct {
	store store
	cfg   Config
}

// New creates an index over s. Call EnsureIndex before the first search.
func New(s store, cfg Config) *Index {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if len(cfg.TextKeys) == 0 {
		cfg.TextKeys = []string{node.KeyName, node.KeyType}
	}
	if cfg.NumericKeys == nil {
		cfg.NumericKeys = []string{node.KeyCreatedAt}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Index{store: s, cfg: cfg}
}

// Definition returns the FT index schema for the configured keys.
func (x *Index) Definition() (*db.IndexDefinition, error) {
	b := db.NewIndex(x.cfg.IndexName).Prefix(x.cfg.KeyPrefix)
	for _, k := range x.cfg.TextKeys {
		b.TextWithOpts(k, 0, true, k == node.KeyName)
	}
	for _, k := range x.cfg.NumericKeys {
		b.Numeric(k)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the FT index unless it already exists.
func (x *Index) EnsureIndex(ctx context.Context) error {
	exists, err := x.store.IndexExists(ctx, x.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("look up index %s: %w", x.cfg.IndexName, err)
	}
	if exists {
		return nil
	}
	def, err := x.Definition()
	if err != nil {
		return err
	}
	if err := x.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", x.cfg.IndexName, err)
	}
	return nil
}

// Put mirrors a node into its hash, replacing any previous fields.
func (x *Index) Put(ctx context.Context, n *node.Node) error {
	key := x.key(n.ID)
	if err := x.store.Replace(ctx, key, hashFields(n)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// PutMany mirrors several nodes in one pipeline.
func (x *Index) PutMany(ctx context.Context, ns []*node.Node) error {
	items := make([]db.HashSetItem, len(ns))
	for i, n := range ns {
		items[i] = db.HashSetItem{Key: x.key(n.ID), Fields: hashFields(n)}
	}
	if err := x.store.ReplaceMulti(ctx, items); err != nil {
		return fmt.Errorf("replace %d nodes: %w", len(items), err)
	}
	return nil
}

// Reset drops the FT index together with every mirrored hash and recreates
// it empty.
func (x *Index) Reset(ctx context.Context) error {
	err := x.store.DropIndex(ctx, x.cfg.IndexName, true)
	if err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", x.cfg.IndexName, err)
	}
	return x.EnsureIndex(ctx)
}

// Execute translates q and returns the hits in score order. The text form
// is used only for error context.
func (x *Index) Execute(ctx context.Context, text string, q *query.Query) ([]index.Hit, error) {
	expr, err := Translate(q)
	if err != nil {
		return nil, fmt.Errorf("translate %q: %w", text, err)
	}
	if expr == "" {
		return nil, nil
	}

	res, err := x.store.Search(ctx, &db.TextQuery{
		IndexName:  x.cfg.IndexName,
		Query:      expr,
		Limit:      x.cfg.Limit,
		NoContent:  true,
		WithScores: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", x.cfg.IndexName, err)
	}

	hits := make([]index.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, ok := strings.CutPrefix(e.Key, x.cfg.KeyPrefix)
		if !ok {
			continue
		}
		hits = append(hits, index.Hit{NodeID: id, Score: e.Score})
	}
	return hits, nil
}

// Ping checks that the FT index answers queries.
func (x *Index) Ping(ctx context.Context) error {
	if _, err := x.store.SearchCount(ctx, x.cfg.IndexName, "*"); err != nil {
		return fmt.Errorf("count %s: %w", x.cfg.IndexName, err)
	}
	return nil
}

func (x *Index) key(id string) string {
	return x.cfg.KeyPrefix + id
}

func hashFields(n *node.Node) map[string]string {
	fields := n.TextFields()
	fields[node.KeyID] = n.ID
	if !n.CreatedAt.IsZero() {
		fields[node.KeyCreatedAt] = strconv.FormatInt(n.CreatedAt.UnixMilli(), 10)
	}
	return fields
}
