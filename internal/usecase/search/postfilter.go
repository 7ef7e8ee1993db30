package search

import (
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
)

// postFilter narrows nodes with the boolean attributes. Each attribute gets
// its own accumulator for this call only; accumulators are then folded into
// the running result in declaration order. OR accumulators are folded only
// when unionOr is set.
func postFilter(nodes []*node.Node, bools []attribute.Boolean, unionOr bool) []*node.Node {
	if len(bools) == 0 {
		return nodes
	}

	acc := make(map[int][]*node.Node, len(bools))
	for _, n := range nodes {
		for i, b := range bools {
			if matchesBoolean(n, b) {
				acc[i] = append(acc[i], n)
			}
		}
	}

	result := nodes
	for i, b := range bools {
		switch b.Operator() {
		case operator.Not:
			result = subtract(result, acc[i])
		case operator.Or:
			if unionOr {
				result = union(result, acc[i])
			}
		default:
			result = intersect(result, acc[i])
		}
	}
	return result
}

// matchesBoolean reports whether the node property equals the attribute
// target. An absent property equals an absent target. NOT attributes use
// the same test; their matches are subtracted during combination.
func matchesBoolean(n *node.Node, b attribute.Boolean) bool {
	target, hasTarget := b.Value()
	if !n.Has(b.Key()) {
		return !hasTarget
	}
	value, isBool := n.Bool(b.Key())
	return hasTarget && isBool && value == target
}

func idSet(nodes []*node.Node) map[string]struct{} {
	set := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		set[n.ID] = struct{}{}
	}
	return set
}

func intersect(running, acc []*node.Node) []*node.Node {
	keep := idSet(acc)
	out := make([]*node.Node, 0, len(running))
	for _, n := range running {
		if _, ok := keep[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

func subtract(running, acc []*node.Node) []*node.Node {
	drop := idSet(acc)
	out := make([]*node.Node, 0, len(running))
	for _, n := range running {
		if _, ok := drop[n.ID]; !ok {
			out = append(out, n)
		}
	}
	return out
}

func union(running, acc []*node.Node) []*node.Node {
	seen := idSet(running)
	out := append(make([]*node.Node, 0, len(running)+len(acc)), running...)
	for _, n := range acc {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}
