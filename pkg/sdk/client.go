package nodesearch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	dbRedis "github.com/kailas-cloud/nodesearch/internal/db/redis"
	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph/memory"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph/sqlite"
	memIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/memory"
	redisIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/redis"
	"github.com/kailas-cloud/nodesearch/internal/repository/nodefactory"
	healthuc "github.com/kailas-cloud/nodesearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/nodesearch/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/nodesearch/internal/usecase/search"
	useruc "github.com/kailas-cloud/nodesearch/internal/usecase/user"
)

const defaultReadinessTimeout = 10 * time.Second

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

// fullTextIndex searches and indexes nodes.
type fullTextIndex interface {
	Execute(ctx context.Context, text string, q *query.Query) ([]index.Hit, error)
	Put(ctx context.Context, n *node.Node) error
	Ping(ctx context.Context) error
}

// Client is the embedded nodesearch entry point. It is safe for concurrent use.
type Client struct {
	graph     graphStore
	searchSvc *searchuc.Service
	userSvc   *useruc.Service
	indexSvc  *indexinguc.Service
	healthSvc *healthuc.Service
	obs       *observer
	closeFns  []func() error
}

// New creates a Client. The provided context bounds backend readiness checks
// and the initial index load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	graph, err := openGraph(cfg)
	if err != nil {
		return nil, err
	}
	c.graph = graph
	c.closeFns = append(c.closeFns, graph.Close)

	idx, persistent, err := c.openIndex(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.wire(cfg, idx)

	if !persistent {
		if _, err := c.Rebuild(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func openGraph(cfg *clientConfig) (graphStore, error) {
	if cfg.sqlitePath == "" {
		return memory.New(), nil
	}
	s, err := sqlite.New(cfg.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("nodesearch: open sqlite graph: %w", err)
	}
	return s, nil
}

// openIndex reports persistent=false for indexes that start empty.
func (c *Client) openIndex(ctx context.Context, cfg *clientConfig) (fullTextIndex, bool, error) {
	if len(cfg.redisAddrs) == 0 {
		return memIndex.New(), false, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, false, fmt.Errorf("nodesearch: create redis store: %w", err)
	}
	c.closeFns = append(c.closeFns, func() error {
		store.Close()
		return nil
	})

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return nil, false, fmt.Errorf("nodesearch: redis not ready: %w", err)
	}
	idx := redisIndex.New(store, redisIndex.Config{
		IndexName: cfg.redisIndexName,
		KeyPrefix: cfg.redisKeyPrefix,
		TextKeys:  cfg.textKeys,
	})
	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, false, fmt.Errorf("nodesearch: ensure redis index: %w", err)
	}
	return idx, true, nil
}

func (c *Client) wire(cfg *clientConfig, idx fullTextIndex) {
	backend := "memory"
	if len(cfg.redisAddrs) > 0 {
		backend = "redis"
	}
	c.searchSvc = searchuc.New(idx, nodefactory.New(c.graph), c.graph,
		searchuc.WithBackend(backend),
		searchuc.WithMaxDepth(cfg.maxDepth),
		searchuc.WithUnionBooleanOr(cfg.unionOr),
		searchuc.WithCaseInsensitiveSort(cfg.caseInsensitive),
	)
	c.userSvc = useruc.New(c.graph)
	c.indexSvc = indexinguc.New(c.graph, idx)
	if cfg.maxBatchSize > 0 {
		c.indexSvc = c.indexSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}
	c.healthSvc = healthuc.New(c.graph, idx)
}

// Close releases the graph store and index connections.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closeFns) - 1; i >= 0; i-- {
		if err := c.closeFns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closeFns = nil
	return errors.Join(errs...)
}

// Health checks the graph store and the index.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
