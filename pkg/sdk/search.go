package nodesearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/request"
)

// SearchBuilder is a fluent builder for structured searches.
type SearchBuilder struct {
	c *Client

	user           *User
	top            string
	includeDeleted bool
	publicOnly     bool
	criteria       []Criterion
}

// Search starts a search. Without textual criteria or a top node it
// matches nothing.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{c: c}
}

// As runs the search on behalf of u; only nodes u may read are returned.
func (b *SearchBuilder) As(u User) *SearchBuilder {
	b.user = &u
	return b
}

// Under scopes a search without textual criteria to the subtree of topID.
// Searches with textual criteria always query the whole index.
func (b *SearchBuilder) Under(topID string) *SearchBuilder {
	b.top = topID
	return b
}

// IncludeDeleted returns soft-deleted nodes too.
func (b *SearchBuilder) IncludeDeleted() *SearchBuilder {
	b.includeDeleted = true
	return b
}

// PublicOnly keeps public nodes only.
func (b *SearchBuilder) PublicOnly() *SearchBuilder {
	b.publicOnly = true
	return b
}

// Where appends criteria.
func (b *SearchBuilder) Where(cs ...Criterion) *SearchBuilder {
	b.criteria = append(b.criteria, cs...)
	return b
}

// Do runs the search. Backend failures yield an empty result, not an error;
// only malformed requests fail.
func (b *SearchBuilder) Do(ctx context.Context) ([]Node, error) {
	start := time.Now()
	req, err := request.New(b.user.toDomain(), b.top, b.includeDeleted, b.publicOnly, toAttributes(b.criteria))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidAttribute, err)
		b.c.obs.observe("search", start, err)
		return nil, err
	}

	nodes := b.c.searchSvc.Search(ctx, req)
	b.c.obs.observe("search", start, nil, "results", len(nodes))
	return nodesFromDomain(nodes), nil
}

// Explain compiles the criteria without running the search.
func (b *SearchBuilder) Explain() Explanation {
	plan := b.c.searchSvc.Explain(toAttributes(b.criteria))
	ex := Explanation{Query: plan.Text}
	for _, s := range plan.Skipped {
		ex.Skipped = append(ex.Skipped, s.Path+": "+s.Reason)
	}
	return ex
}
