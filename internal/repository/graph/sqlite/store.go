// Package sqlite is a persistent graph store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	owner_id   TEXT NOT NULL DEFAULT '',
	readers    TEXT,
	public     INTEGER NOT NULL DEFAULT 0,
	deleted    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	properties TEXT
);

CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);

CREATE TABLE IF NOT EXISTS edges (
	parent_id TEXT NOT NULL,
	child_id  TEXT NOT NULL,
	position  INTEGER NOT NULL,
	PRIMARY KEY (parent_id, child_id),
	FOREIGN KEY (parent_id) REFERENCES nodes(id),
	FOREIGN KEY (child_id) REFERENCES nodes(id)
);

CREATE INDEX IF NOT EXISTS idx_edges_parent ON edges(parent_id, position);
`

const nodeColumns = `n.id, n.type, n.name, n.owner_id, n.readers, n.public, n.deleted, n.created_at, n.properties`

// allPageSize bounds the rows held in memory by All.
const allPageSize = 256

// Store is a graph store backed by a single SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Put upserts a node. A missing ID is generated and a zero creation time is
// set to now; both are written back to n. Existing links are kept.
func (s *Store) Put(ctx context.Context, n *node.Node) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := node.ValidateID(n.ID); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	readers, err := json.Marshal(n.Readers)
	if err != nil {
		return fmt.Errorf("marshal readers: %w", err)
	}
	var props []byte
	if len(n.Properties) > 0 {
		if props, err = json.Marshal(n.Properties); err != nil {
			return fmt.Errorf("marshal properties: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, type, name, owner_id, readers, public, deleted, created_at, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			owner_id = excluded.owner_id,
			readers = excluded.readers,
			public = excluded.public,
			deleted = excluded.deleted,
			created_at = excluded.created_at,
			properties = excluded.properties`,
		n.ID, n.Type, n.Name, n.OwnerID, string(readers),
		n.Public, n.Deleted, n.CreatedAt.UTC().Format(time.RFC3339Nano), nullable(props),
	)
	if err != nil {
		return fmt.Errorf("put node %s: %w", n.ID, err)
	}
	return nil
}

// Link appends childID to parentID's children. Linking twice is a no-op.
func (s *Store) Link(ctx context.Context, parentID, childID string) error {
	if parentID == childID {
		return fmt.Errorf("link %s to itself", parentID)
	}
	for _, id := range []string{parentID, childID} {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (parent_id, child_id, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM edges WHERE parent_id = ?
		ON CONFLICT(parent_id, child_id) DO NOTHING`,
		parentID, childID, parentID,
	)
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", parentID, childID, err)
	}
	return nil
}

// Get returns a node by ID.
func (s *Store) Get(ctx context.Context, id string) (*node.Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}
	return n, nil
}

// GetMany returns the nodes for ids in the same order, skipping unknown IDs.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]*node.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get nodes: %w", err)
	}
	found, err := collectRows(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*node.Node, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}
	out := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

// Children returns the direct children of id in link order.
func (s *Store) Children(ctx context.Context, id string) ([]*node.Node, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM edges e JOIN nodes n ON n.id = e.child_id
		WHERE e.parent_id = ?
		ORDER BY e.position`, id)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", id, err)
	}
	return collectRows(rows)
}

// Descendants lazily walks the subtree below topID, one children query per
// visited node.
func (s *Store) Descendants(ctx context.Context, topID string, maxDepth int) iter.Seq2[*node.Node, error] {
	return graph.Descendants(ctx, topID, maxDepth, s.Children)
}

// All yields every node in insertion order, reading one page at a time.
func (s *Store) All(ctx context.Context) iter.Seq2[*node.Node, error] {
	return func(yield func(*node.Node, error) bool) {
		var after int64
		for {
			rows, err := s.db.QueryContext(ctx, `
				SELECT n.rowid, `+nodeColumns+` FROM nodes n
				WHERE n.rowid > ? ORDER BY n.rowid LIMIT ?`, after, allPageSize)
			if err != nil {
				yield(nil, fmt.Errorf("list nodes: %w", err))
				return
			}
			page, last, err := collectPage(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, n := range page {
				if !yield(n, nil) {
					return
				}
			}
			if len(page) < allPageSize {
				return
			}
			after = last
		}
	}
}

// FindByName returns nodes with exactly this name, in insertion order.
func (s *Store) FindByName(ctx context.Context, name string) ([]*node.Node, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.name = ? ORDER BY n.rowid`, name)
	if err != nil {
		return nil, fmt.Errorf("find by name: %w", err)
	}
	return collectRows(rows)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrGraphUnavailable, err)
	}
	return nil
}

// Checkpoint truncates the write-ahead log.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(sc scanner, extra ...any) (*node.Node, error) {
	var (
		n         node.Node
		readers   sql.NullString
		props     sql.NullString
		createdAt string
		pub, gone bool
	)
	dest := append(extra, &n.ID, &n.Type, &n.Name, &n.OwnerID, &readers, &pub, &gone, &createdAt, &props)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	n.Public, n.Deleted = pub, gone

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("node %s: parse created_at: %w", n.ID, err)
	}
	n.CreatedAt = t
	if readers.Valid && readers.String != "" && readers.String != "null" {
		if err := json.Unmarshal([]byte(readers.String), &n.Readers); err != nil {
			return nil, fmt.Errorf("node %s: unmarshal readers: %w", n.ID, err)
		}
	}
	if props.Valid && props.String != "" {
		if err := json.Unmarshal([]byte(props.String), &n.Properties); err != nil {
			return nil, fmt.Errorf("node %s: unmarshal properties: %w", n.ID, err)
		}
	}
	return &n, nil
}

func collectRows(rows *sql.Rows) ([]*node.Node, error) {
	defer rows.Close()
	var out []*node.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return out, nil
}

func collectPage(rows *sql.Rows) ([]*node.Node, int64, error) {
	defer rows.Close()
	var (
		out  []*node.Node
		last int64
	)
	for rows.Next() {
		var rowid int64
		n, err := scanNode(rows, &rowid)
		if err != nil {
			return nil, 0, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, n)
		last = rowid
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate nodes: %w", err)
	}
	return out, last, nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
