package request

import (
	"fmt"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/user"
)

// MaxAttributes bounds the number of top-level search attributes.
const MaxAttributes = 256

// Request is one search call: criteria plus the visibility flags.
type Request struct {
	user           *user.User
	topNodeID      string
	includeDeleted bool
	publicOnly     bool
	attributes     []attribute.Attribute
}

// New validates a search request. A nil user disables the read check.
func New(
	u *user.User,
	topNodeID string,
	includeDeleted, publicOnly bool,
	attrs []attribute.Attribute,
) (Request, error) {
	if len(attrs) > MaxAttributes {
		return Request{}, fmt.Errorf("too many attributes (max %d)", MaxAttributes)
	}
	if topNodeID != "" {
		if err := node.ValidateID(topNodeID); err != nil {
			return Request{}, fmt.Errorf("top node: %w", err)
		}
	}
	return Request{
		user:           u,
		topNodeID:      topNodeID,
		includeDeleted: includeDeleted,
		publicOnly:     publicOnly,
		attributes:     append([]attribute.Attribute(nil), attrs...),
	}, nil
}

// User returns the requesting principal, or nil.
func (r Request) User() *user.User { return r.user }

// TopNodeID returns the subtree scope used when there is no textual criterion.
func (r Request) TopNodeID() string { return r.topNodeID }

// IncludeDeleted reports whether soft-deleted nodes are returned.
func (r Request) IncludeDeleted() bool { return r.includeDeleted }

// PublicOnly reports whether only public nodes are returned.
func (r Request) PublicOnly() bool { return r.publicOnly }

// Attributes returns the search criteria in declaration order.
func (r Request) Attributes() []attribute.Attribute {
	return append([]attribute.Attribute(nil), r.attributes...)
}

// Visibility returns the materialization predicate triple.
func (r Request) Visibility() node.Visibility {
	v := node.Visibility{IncludeDeleted: r.includeDeleted, PublicOnly: r.publicOnly}
	if r.user != nil {
		v.User = r.user
	}
	return v
}
