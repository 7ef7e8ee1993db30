package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

func fakeChildren(edges map[string][]string, calls *int) ChildrenFunc {
	return func(_ context.Context, id string) ([]*node.Node, error) {
		*calls++
		var out []*node.Node
		for _, c := range edges[id] {
			out = append(out, &node.Node{ID: c})
		}
		return out, nil
	}
}

func collect(t *testing.T, seq func(func(*node.Node, error) bool)) []string {
	t.Helper()
	var ids []string
	for n, err := range seq {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	return ids
}

func TestDescendants_BreadthFirst(t *testing.T) {
	edges := map[string][]string{
		"root": {"a", "b"},
		"a":    {"c"},
		"b":    {"d", "a"},
		"c":    {"root"},
	}
	var calls int
	ids := collect(t, Descendants(context.Background(), "root", 0, fakeChildren(edges, &calls)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestDescendants_DepthGuard(t *testing.T) {
	edges := map[string][]string{"r": {"1"}, "1": {"2"}, "2": {"3"}}
	var calls int
	ids := collect(t, Descendants(context.Background(), "r", 2, fakeChildren(edges, &calls)))
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, 2, calls, "nodes at the depth limit must not be expanded")
}

func TestDescendants_StopsEarly(t *testing.T) {
	edges := map[string][]string{"r": {"1", "2"}, "1": {"3"}, "2": {"4"}}
	var calls int
	for n, err := range Descendants(context.Background(), "r", 10, fakeChildren(edges, &calls)) {
		require.NoError(t, err)
		if n.ID == "1" {
			break
		}
	}
	assert.Equal(t, 1, calls)
}

func TestDescendants_Errors(t *testing.T) {
	boom := errors.New("boom")
	seq := Descendants(context.Background(), "r", 5, func(context.Context, string) ([]*node.Node, error) {
		return nil, boom
	})
	for _, err := range seq {
		assert.ErrorIs(t, err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	for _, err := range Descendants(ctx, "r", 5, fakeChildren(nil, &calls)) {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Zero(t, calls)
}
