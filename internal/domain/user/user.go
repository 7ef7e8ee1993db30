package user

import (
	"fmt"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

// NodeType is the graph node type that carries user principals.
const NodeType = "User"

// KeySuperuser is the node property flagging an administrator.
const KeySuperuser = "superuser"

// User is the principal a search runs on behalf of.
type User struct {
	ID        string
	Name      string
	Superuser bool
}

// FromNode converts a graph node of type User into a principal.
func FromNode(n *node.Node) (*User, error) {
	if n == nil {
		return nil, fmt.Errorf("user node is nil")
	}
	if n.Type != NodeType {
		return nil, fmt.Errorf("node %s has type %q, want %q", n.ID, n.Type, NodeType)
	}
	super, _ := n.Bool(KeySuperuser)
	return &User{ID: n.ID, Name: n.Name, Superuser: super}, nil
}

// PrincipalID implements node.Principal.
func (u *User) PrincipalID() string { return u.ID }

// IsSuperuser implements node.Principal.
func (u *User) IsSuperuser() bool { return u.Superuser }
