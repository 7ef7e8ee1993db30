package nodesearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	sqlitePath string

	redisAddrs     []string
	redisPassword  string
	redisIndexName string
	redisKeyPrefix string
	textKeys       []string

	maxDepth        int
	unionOr         bool
	caseInsensitive bool
	maxBatchSize    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite stores the graph in a SQLite database at path.
// Use ":memory:" for a throwaway database. The default is an in-memory graph.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sqlitePath = path
	})
}

// WithRedis indexes nodes in a RediSearch instance instead of in memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithRedisIndex overrides the FT index name and hash key prefix.
func WithRedisIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisIndexName = name
		c.redisKeyPrefix = keyPrefix
	})
}

// WithTextKeys sets the node keys indexed as text by RediSearch.
// Defaults to name and type.
func WithTextKeys(keys ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.textKeys = keys
	})
}

// WithMaxDepth bounds subtree walks. Default: 999.
func WithMaxDepth(depth int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxDepth = depth
	})
}

// WithUnionBooleanOr makes OR flag criteria widen the result set.
// By default they are ignored.
func WithUnionBooleanOr() Option {
	return optionFunc(func(c *clientConfig) {
		c.unionOr = true
	})
}

// WithCaseInsensitiveSort orders results by name ignoring case.
func WithCaseInsensitiveSort() Option {
	return optionFunc(func(c *clientConfig) {
		c.caseInsensitive = true
	})
}

// WithMaxBatchSize sets the maximum number of items per PutBatch call.
// Default: 100.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
