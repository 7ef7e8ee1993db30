package node

import "slices"

// Principal is the requesting identity used for read checks.
type Principal interface {
	PrincipalID() string
	IsSuperuser() bool
}

// ReadableBy reports whether p may read n: superusers, public nodes, the
// owner and listed readers are allowed.
func (n *Node) ReadableBy(p Principal) bool {
	if p.IsSuperuser() || n.Public {
		return true
	}
	id := p.PrincipalID()
	if id == "" {
		return false
	}
	return n.OwnerID == id || slices.Contains(n.Readers, id)
}

// Visibility is the predicate triple applied during materialization.
type Visibility struct {
	User           Principal
	IncludeDeleted bool
	PublicOnly     bool
}

// Allows reports whether n passes every predicate.
func (v Visibility) Allows(n *Node) bool {
	if n == nil {
		return false
	}
	if v.User != nil && !n.ReadableBy(v.User) {
		return false
	}
	if !v.IncludeDeleted && n.Deleted {
		return false
	}
	if v.PublicOnly && !n.Public {
		return false
	}
	return true
}
