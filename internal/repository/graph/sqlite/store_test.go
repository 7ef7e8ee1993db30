package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGet_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)

	in := &node.Node{
		ID:         "n1",
		Type:       "Folder",
		Name:       "Reports",
		OwnerID:    "u1",
		Readers:    []string{"u2", "u3"},
		Public:     true,
		Deleted:    false,
		CreatedAt:  created,
		Properties: map[string]any{"city": "NYC", "active": true, "size": 3},
	}
	require.NoError(t, s.Put(ctx, in))

	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Folder", got.Type)
	assert.Equal(t, "Reports", got.Name)
	assert.Equal(t, []string{"u2", "u3"}, got.Readers)
	assert.True(t, got.Public)
	assert.False(t, got.Deleted)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "NYC", got.Properties["city"])
	assert.Equal(t, true, got.Properties["active"])
	assert.Equal(t, float64(3), got.Properties["size"])
}

func TestPut_GeneratesIDAndUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n := &node.Node{Name: "first"}
	require.NoError(t, s.Put(ctx, n))
	require.NotEmpty(t, n.ID)

	n.Name = "second"
	n.Deleted = true
	require.NoError(t, s.Put(ctx, n))

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
	assert.True(t, got.Deleted)
}

func TestGet_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLinkChildrenDescendants(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"root", "a", "b", "c", "d"} {
		require.NoError(t, s.Put(ctx, &node.Node{ID: id, Name: id}))
	}
	require.NoError(t, s.Link(ctx, "root", "b"))
	require.NoError(t, s.Link(ctx, "root", "a"))
	require.NoError(t, s.Link(ctx, "root", "b"))
	require.NoError(t, s.Link(ctx, "a", "c"))
	require.NoError(t, s.Link(ctx, "c", "d"))
	require.NoError(t, s.Link(ctx, "d", "root"))

	assert.ErrorIs(t, s.Link(ctx, "root", "zzz"), domain.ErrNotFound)

	kids, err := s.Children(ctx, "root")
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "b", kids[0].ID)
	assert.Equal(t, "a", kids[1].ID)

	var ids []string
	for n, err := range s.Descendants(ctx, "root", 0) {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids)

	ids = nil
	for n, err := range s.Descendants(ctx, "root", 2) {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestGetMany(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, s.Put(ctx, &node.Node{ID: id}))
	}
	got, err := s.GetMany(ctx, []string{"z", "nope", "x", "z"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "z", got[0].ID)
	assert.Equal(t, "x", got[1].ID)
	assert.Equal(t, "z", got[2].ID)

	empty, err := s.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAll_Pages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	total := allPageSize + 10
	for i := range total {
		require.NoError(t, s.Put(ctx, &node.Node{ID: fmt.Sprintf("n%04d", i)}))
	}

	count := 0
	for n, err := range s.All(ctx) {
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("n%04d", count), n.ID)
		count++
	}
	assert.Equal(t, total, count)
}

func TestAll_NestedReads(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &node.Node{ID: "p"}))
	require.NoError(t, s.Put(ctx, &node.Node{ID: "q"}))

	for n, err := range s.All(ctx) {
		require.NoError(t, err)
		_, err = s.Get(ctx, n.ID)
		require.NoError(t, err, "reads inside All must not block on the single connection")
	}
}

func TestFindByName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &node.Node{ID: "u1", Type: "User", Name: "admin"}))
	require.NoError(t, s.Put(ctx, &node.Node{ID: "f1", Type: "Folder", Name: "admin"}))
	require.NoError(t, s.Put(ctx, &node.Node{ID: "u2", Type: "User", Name: "Admin"}))

	got, err := s.FindByName(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].ID)
	assert.Equal(t, "f1", got[1].ID)
}

func TestFileDatabase_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, &node.Node{ID: "keep", Name: "kept"}))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Checkpoint(ctx))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
}
