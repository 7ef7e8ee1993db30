package nodesearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	indexinguc "github.com/kailas-cloud/nodesearch/internal/usecase/indexing"
)

// Put stores n below parentID (skipped when empty) and indexes it. The
// stored node is returned with its generated ID and creation time.
func (c *Client) Put(ctx context.Context, n Node, parentID string) (Node, error) {
	start := time.Now()
	dn := n.toDomain()
	err := c.indexSvc.Put(ctx, dn, parentID)
	c.obs.observe("put", start, err, "id", dn.ID)
	if err != nil {
		return Node{}, err
	}
	return nodeFromDomain(dn), nil
}

// PutBatch stores items in order and reports a result per item. A failed
// item does not stop the batch.
func (c *Client) PutBatch(ctx context.Context, items []BatchItem) []BatchResult {
	start := time.Now()
	in := make([]indexinguc.Item, len(items))
	for i, it := range items {
		in[i] = indexinguc.Item{Node: it.Node.toDomain(), ParentID: it.Parent}
	}

	res := c.indexSvc.PutBatch(ctx, in)
	out := make([]BatchResult, len(res))
	failed := 0
	for i, r := range res {
		out[i] = BatchResult{ID: r.ID, Err: r.Err}
		if !r.OK() {
			failed++
		}
	}
	c.obs.observe("put_batch", start, nil, "items", len(items), "failed", failed)
	return out
}

// Rebuild re-indexes every node of the graph and returns the node count.
func (c *Client) Rebuild(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := c.indexSvc.Rebuild(ctx)
	c.obs.observe("rebuild", start, err, "nodes", count)
	return count, err
}

// Descendants lists the subtree below topID in name order, filtered by v.
// A missing top node yields ErrNotFound.
func (c *Client) Descendants(ctx context.Context, topID string, v Visibility) ([]Node, error) {
	start := time.Now()
	vis := node.Visibility{IncludeDeleted: v.IncludeDeleted, PublicOnly: v.PublicOnly}
	if v.User != nil {
		vis.User = v.User.toDomain()
	}

	if _, err := c.graph.Get(ctx, topID); err != nil {
		c.obs.observe("descendants", start, err, "top", topID)
		return nil, err
	}
	nodes, err := c.searchSvc.Descendants(ctx, topID, vis, v.MaxDepth)
	c.obs.observe("descendants", start, err, "top", topID)
	if err != nil {
		return nil, err
	}
	return nodesFromDomain(nodes), nil
}

// FindUser returns the first user node named name.
func (c *Client) FindUser(ctx context.Context, name string) (User, error) {
	start := time.Now()
	u, err := c.userSvc.FindByName(ctx, name)
	c.obs.observe("find_user", start, err)
	if err != nil {
		return User{}, err
	}
	return userFromDomain(u), nil
}

// FindUserUnder returns the user named name that is rootID itself or one of
// its descendants.
func (c *Client) FindUserUnder(ctx context.Context, name, rootID string) (User, error) {
	start := time.Now()
	u, err := c.userSvc.FindByNameUnder(ctx, name, rootID)
	c.obs.observe("find_user", start, err, "root", rootID)
	if err != nil {
		return User{}, err
	}
	return userFromDomain(u), nil
}
