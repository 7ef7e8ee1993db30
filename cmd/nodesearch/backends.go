package main

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/config"
	dbNeo4j "github.com/kailas-cloud/nodesearch/internal/db/neo4j"
	dbRedis "github.com/kailas-cloud/nodesearch/internal/db/redis"
	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph/memory"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph/sqlite"
	memIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/memory"
	neo4jIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/neo4j"
	redisIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/redis"
)

// graphStore is the method set shared by the graph store drivers.
type graphStore interface {
	Put(ctx context.Context, n *node.Node) error
	Link(ctx context.Context, parentID, childID string) error
	Get(ctx context.Context, id string) (*node.Node, error)
	GetMany(ctx context.Context, ids []string) ([]*node.Node, error)
	Descendants(ctx context.Context, topID string, maxDepth int) iter.Seq2[*node.Node, error]
	All(ctx context.Context) iter.Seq2[*node.Node, error]
	FindByName(ctx context.Context, name string) ([]*node.Node, error)
	Ping(ctx context.Context) error
	Close() error
}

func openGraph(cfg config.GraphConfig) (graphStore, error) {
	switch cfg.Driver {
	case config.GraphSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create graph directory: %w", err)
			}
		}
		return sqlite.New(cfg.Path)
	default:
		return memory.New(), nil
	}
}

// checkpointGraph flushes the write-ahead log of graph stores that keep one.
func checkpointGraph(ctx context.Context, g graphStore) error {
	cp, ok := g.(interface{ Checkpoint(ctx context.Context) error })
	if !ok {
		return nil
	}
	return cp.Checkpoint(ctx)
}

// indexBackend is a full-text index that can search, index and be pinged.
type indexBackend struct {
	executor interface {
		Execute(ctx context.Context, text string, q *query.Query) ([]index.Hit, error)
		Put(ctx context.Context, n *node.Node) error
		Reset(ctx context.Context) error
		Ping(ctx context.Context) error
	}
	close func()
}

func (b *indexBackend) Execute(ctx context.Context, text string, q *query.Query) ([]index.Hit, error) {
	return b.executor.Execute(ctx, text, q)
}

func (b *indexBackend) Put(ctx context.Context, n *node.Node) error {
	return b.executor.Put(ctx, n)
}

// PutMany pipelines the writes when the backend supports it.
func (b *indexBackend) PutMany(ctx context.Context, ns []*node.Node) error {
	if bi, ok := b.executor.(interface {
		PutMany(ctx context.Context, ns []*node.Node) error
	}); ok {
		return bi.PutMany(ctx, ns)
	}
	for _, n := range ns {
		if err := b.executor.Put(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties the backend before a rebuild.
func (b *indexBackend) Reset(ctx context.Context) error {
	return b.executor.Reset(ctx)
}

func (b *indexBackend) Ping(ctx context.Context) error {
	return b.executor.Ping(ctx)
}

func openIndex(ctx context.Context, cfg config.IndexConfig, logger *zap.Logger) (*indexBackend, error) {
	switch cfg.Backend {
	case config.IndexRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		idx := redisIndex.New(store, redisIndex.Config{
			IndexName: cfg.Redis.IndexName,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TextKeys:  cfg.TextKeys,
			Limit:     cfg.Redis.Limit,
		})
		if err := idx.EnsureIndex(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure redis index: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
		return &indexBackend{executor: idx, close: store.Close}, nil

	case config.IndexNeo4j:
		store, err := dbNeo4j.NewStore(dbNeo4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("create neo4j store: %w", err)
		}
		closeStore := func() { _ = store.Close() }
		timeout := time.Duration(cfg.Neo4j.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			closeStore()
			return nil, fmt.Errorf("neo4j not ready: %w", err)
		}
		idx := neo4jIndex.New(store, neo4jIndex.Config{
			IndexName: cfg.Neo4j.IndexName,
			Label:     cfg.Neo4j.Label,
			TextKeys:  cfg.TextKeys,
			Limit:     cfg.Neo4j.Limit,
		})
		if err := idx.EnsureIndex(ctx); err != nil {
			closeStore()
			return nil, fmt.Errorf("ensure neo4j index: %w", err)
		}
		logger.Info("Connected to neo4j", zap.String("uri", cfg.Neo4j.URI))
		return &indexBackend{executor: idx, close: closeStore}, nil

	default:
		return &indexBackend{executor: memIndex.New(), close: func() {}}, nil
	}
}
