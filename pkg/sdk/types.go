package nodesearch

import (
	"maps"
	"slices"
	"time"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	domuser "github.com/kailas-cloud/nodesearch/internal/domain/user"
)

// Node is a graph vertex as seen by the client.
type Node struct {
	ID         string
	Type       string
	Name       string
	OwnerID    string
	Readers    []string
	Public     bool
	Deleted    bool
	CreatedAt  time.Time
	Properties map[string]any
}

// User is the principal a search or listing runs on behalf of.
type User struct {
	ID        string
	Name      string
	Superuser bool
}

// Visibility narrows subtree listings. A nil User disables the read check.
type Visibility struct {
	User           *User
	IncludeDeleted bool
	PublicOnly     bool
	// MaxDepth bounds the walk; zero uses the client default.
	MaxDepth int
}

// BatchItem is one node of a PutBatch call, linked below Parent when set.
type BatchItem struct {
	Node   Node
	Parent string
}

// BatchResult reports the outcome of one batch item.
type BatchResult struct {
	ID  string
	Err error
}

// OK reports whether the item was stored and indexed.
func (r BatchResult) OK() bool { return r.Err == nil }

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Explanation shows how criteria compile without running a search.
type Explanation struct {
	// Query is the full-text query sent to the index. Empty when the
	// criteria carry no textual part.
	Query string
	// Skipped lists ignored criteria as "path: reason".
	Skipped []string
}

type criterionKind int

const (
	kindText criterionKind = iota
	kindFlag
	kindGroup
)

// Criterion is one search condition. Criteria combine with AND unless
// marked with Or or Not.
type Criterion struct {
	kind     criterionKind
	key      string
	text     string
	flag     *bool
	children []Criterion
	op       operator.Operator
}

// Text matches nodes whose key contains every word of value, each word as
// a prefix or a whole value. Quoted phrases and bracketed ranges are passed
// to the index unchanged.
func Text(key, value string) Criterion {
	return Criterion{kind: kindText, key: key, text: value, op: operator.And}
}

// Flag matches nodes whose boolean property key equals value.
func Flag(key string, value bool) Criterion {
	return Criterion{kind: kindFlag, key: key, flag: &value, op: operator.And}
}

// Group nests criteria so they combine before joining their siblings.
func Group(children ...Criterion) Criterion {
	return Criterion{kind: kindGroup, children: slices.Clone(children), op: operator.And}
}

// Or marks the criterion as an alternative to its siblings.
func (c Criterion) Or() Criterion {
	c.op = operator.Or
	return c
}

// Not excludes nodes matching the criterion.
func (c Criterion) Not() Criterion {
	c.op = operator.Not
	return c
}

func (c Criterion) toAttribute() attribute.Attribute {
	switch c.kind {
	case kindFlag:
		return attribute.NewBoolean(c.key, c.flag, c.op)
	case kindGroup:
		return attribute.NewGroup(c.op, toAttributes(c.children)...)
	default:
		return attribute.NewTextual(c.key, c.text, c.op)
	}
}

func toAttributes(cs []Criterion) []attribute.Attribute {
	out := make([]attribute.Attribute, len(cs))
	for i, c := range cs {
		out[i] = c.toAttribute()
	}
	return out
}

func (n Node) toDomain() *node.Node {
	return &node.Node{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		OwnerID:    n.OwnerID,
		Readers:    slices.Clone(n.Readers),
		Public:     n.Public,
		Deleted:    n.Deleted,
		CreatedAt:  n.CreatedAt,
		Properties: maps.Clone(n.Properties),
	}
}

func nodeFromDomain(n *node.Node) Node {
	return Node{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		OwnerID:    n.OwnerID,
		Readers:    slices.Clone(n.Readers),
		Public:     n.Public,
		Deleted:    n.Deleted,
		CreatedAt:  n.CreatedAt,
		Properties: maps.Clone(n.Properties),
	}
}

func nodesFromDomain(ns []*node.Node) []Node {
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = nodeFromDomain(n)
	}
	return out
}

func (u *User) toDomain() *domuser.User {
	if u == nil {
		return nil
	}
	return &domuser.User{ID: u.ID, Name: u.Name, Superuser: u.Superuser}
}

func userFromDomain(u *domuser.User) User {
	return User{ID: u.ID, Name: u.Name, Superuser: u.Superuser}
}
