package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	for _, n := range []*node.Node{
		{ID: "root", Name: "root"},
		{ID: "a", Name: "alpha"},
		{ID: "b", Name: "beta"},
		{ID: "c", Name: "alpha"},
	} {
		require.NoError(t, s.Put(ctx, n))
	}
	require.NoError(t, s.Link(ctx, "root", "a"))
	require.NoError(t, s.Link(ctx, "root", "b"))
	require.NoError(t, s.Link(ctx, "a", "c"))
	return s
}

func TestPut_GeneratesIDAndTimestamp(t *testing.T) {
	s := New()
	n := &node.Node{Name: "x"}
	require.NoError(t, s.Put(context.Background(), n))
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())

	got, err := s.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestPut_RejectsBadID(t *testing.T) {
	assert.Error(t, New().Put(context.Background(), &node.Node{ID: "bad id"}))
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := seed(t)
	n, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	n.Name = "mutated"

	again, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", again.Name)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLink(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Link(ctx, "root", "a"), "duplicate link is a no-op")
	assert.ErrorIs(t, s.Link(ctx, "root", "nope"), domain.ErrNotFound)
	assert.Error(t, s.Link(ctx, "a", "a"))

	kids, err := s.Children(ctx, "root")
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "a", kids[0].ID)
	assert.Equal(t, "b", kids[1].ID)
}

func TestGetMany_PreservesOrder(t *testing.T) {
	s := seed(t)
	got, err := s.GetMany(context.Background(), []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestDescendants(t *testing.T) {
	s := seed(t)
	var ids []string
	for n, err := range s.Descendants(context.Background(), "root", 0) {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	for _, err := range s.Descendants(context.Background(), "missing", 0) {
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestAllAndFindByName(t *testing.T) {
	s := seed(t)
	var ids []string
	for n, err := range s.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"root", "a", "b", "c"}, ids)
	assert.Equal(t, 4, s.Len())

	found, err := s.FindByName(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].ID)
	assert.Equal(t, "c", found[1].ID)
}

func TestConcurrentAccess(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.Put(ctx, &node.Node{Name: "w"})
				return
			}
			for range s.Descendants(ctx, "root", 0) {
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
}
