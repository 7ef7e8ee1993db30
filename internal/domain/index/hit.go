package index

// Hit is one full-text index match, in executor order.
type Hit struct {
	NodeID string
	Score  float64
}

// IDs returns the node IDs of hits, keeping order and duplicates.
func IDs(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.NodeID
	}
	return out
}
