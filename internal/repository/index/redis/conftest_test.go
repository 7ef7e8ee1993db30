package redis

import (
	"context"
	"maps"

	"github.com/kailas-cloud/nodesearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hashes     map[string]map[string]string
	multiCalls int
	created    []*db.IndexDefinition
	dropped    []string
	exists     bool
	searchFn   func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	count      int
	countErr   error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) Replace(ctx context.Context, key string, fields map[string]string) error {
	return m.ReplaceMulti(ctx, []db.HashSetItem{{Key: key, Fields: fields}})
}

func (m *mockStore) ReplaceMulti(_ context.Context, items []db.HashSetItem) error {
	m.multiCalls++
	for _, it := range items {
		m.hashes[it.Key] = maps.Clone(it.Fields)
	}
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.exists {
		return db.ErrIndexExists
	}
	m.created = append(m.created, def)
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string, deleteDocs bool) error {
	m.dropped = append(m.dropped, name)
	if deleteDocs {
		clear(m.hashes)
	}
	if !m.exists {
		return db.ErrIndexNotFound
	}
	m.exists = false
	return nil
}

func (m *mockStore) IndexExists(context.Context, string) (bool, error) {
	return m.exists, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(context.Context, string, string) (int, error) {
	return m.count, m.countErr
}
