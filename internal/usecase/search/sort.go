package search

import (
	"slices"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// sortNodes orders nodes by name, creation time and ID. The order is total,
// so repeated runs over the same input agree.
func sortNodes(nodes []*node.Node, caseInsensitive bool) {
	slices.SortStableFunc(nodes, func(a, b *node.Node) int {
		return node.Compare(a, b, caseInsensitive)
	})
}
