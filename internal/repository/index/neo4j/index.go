// Package neo4j mirrors nodes into a Neo4j label and runs the compiled
// Lucene text against a full-text index over it.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultIndexName = "nodesearch_text"
	DefaultLabel     = "SearchNode"
	DefaultLimit     = 10000
)

// runner is the consumer interface over the neo4j store.
type runner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]*db.Record, error)
	Write(ctx context.Context, cypher string, params map[string]any) error
	Ping(ctx context.Context) error
}

// Config selects the index layout.
type Config struct {
	IndexName string
	Label     string
	// TextKeys are the properties covered by the full-text index.
	TextKeys []string
	Limit    int
}

// Index is both the search executor and the indexer for a Neo4j backend.
type Index struct {
	run runner
	cfg Config
}

// New creates an index over r. Call EnsureIndex before the first search.
func New(r runner, cfg Config) *Index {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	if len(cfg.TextKeys) == 0 {
		cfg.TextKeys = []string{node.KeyName, node.KeyType}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Index{run: r, cfg: cfg}
}

// CreateStatement returns the DDL for the full-text index.
func (x *Index) CreateStatement() string {
	props := make([]string, len(x.cfg.TextKeys))
	for i, k := range x.cfg.TextKeys {
		props[i] = "n." + quote(k)
	}
	return fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
		quote(x.cfg.IndexName), quote(x.cfg.Label), strings.Join(props, ", "))
}

// EnsureIndex creates the full-text index and the uuid constraint.
func (x *Index) EnsureIndex(ctx context.Context) error {
	constraint := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.uuid IS UNIQUE",
		quote(x.cfg.IndexName+"_uuid"), quote(x.cfg.Label))
	for _, stmt := range []string{constraint, x.CreateStatement()} {
		if err := x.run.Write(ctx, stmt, nil); err != nil {
			if strings.Contains(err.Error(), "An equivalent") {
				continue
			}
			return fmt.Errorf("ensure index %s: %w", x.cfg.IndexName, err)
		}
	}
	return nil
}

// Put mirrors a node, replacing all of its previous properties.
func (x *Index) Put(ctx context.Context, n *node.Node) error {
	props := make(map[string]any)
	for k, v := range n.TextFields() {
		props[k] = v
	}
	props["uuid"] = n.ID

	cypher := fmt.Sprintf("MERGE (n:%s {uuid: $uuid}) SET n = $props", quote(x.cfg.Label))
	if err := x.run.Write(ctx, cypher, map[string]any{"uuid": n.ID, "props": props}); err != nil {
		return fmt.Errorf("upsert %s: %w", n.ID, err)
	}
	return nil
}

// Reset removes every mirrored node. The index and constraint are kept.
func (x *Index) Reset(ctx context.Context) error {
	cypher := fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", quote(x.cfg.Label))
	if err := x.run.Write(ctx, cypher, nil); err != nil {
		return fmt.Errorf("reset %s: %w", x.cfg.Label, err)
	}
	return nil
}

// Execute runs the Lucene text verbatim; the structured query is unused.
// Hits come back in descending score order.
func (x *Index) Execute(ctx context.Context, text string, _ *query.Query) ([]index.Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	records, err := x.run.Read(ctx, `
		CALL db.index.fulltext.queryNodes($index, $query, {limit: $limit})
		YIELD node, score
		RETURN node.uuid AS uuid, score`,
		map[string]any{"index": x.cfg.IndexName, "query": text, "limit": x.cfg.Limit},
	)
	if err != nil {
		return nil, fmt.Errorf("fulltext query %s: %w", x.cfg.IndexName, err)
	}
	return hitsFromRecords(records), nil
}

// Ping verifies connectivity.
func (x *Index) Ping(ctx context.Context) error {
	return x.run.Ping(ctx)
}

func hitsFromRecords(records []*db.Record) []index.Hit {
	hits := make([]index.Hit, 0, len(records))
	for _, rec := range records {
		raw, ok := rec.Get("uuid")
		if !ok {
			continue
		}
		id, ok := raw.(string)
		if !ok || id == "" {
			continue
		}
		var score float64
		if s, ok := rec.Get("score"); ok {
			switch v := s.(type) {
			case float64:
				score = v
			case int64:
				score = float64(v)
			}
		}
		hits = append(hits, index.Hit{NodeID: id, Score: score})
	}
	return hits
}

// quote renders a Cypher identifier in backticks.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
