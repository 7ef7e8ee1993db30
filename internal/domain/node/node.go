package node

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/nodesearch/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxIDLength is the maximum node ID length.
const MaxIDLength = 256

// Well-known property keys resolved from the node header.
const (
	KeyID        = "id"
	KeyType      = "type"
	KeyName      = "name"
	KeyOwner     = "owner"
	KeyPublic    = "public"
	KeyDeleted   = "deleted"
	KeyCreatedAt = "created_at"
)

// Node is a graph vertex materialized for search results.
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

// ValidateID checks the node identifier format.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("node ID is required: %w", domain.ErrInvalidNode)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("node ID too long (max %d): %w", MaxIDLength, domain.ErrInvalidNode)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("node ID must match %s: %w", idRegex.String(), domain.ErrInvalidNode)
	}
	return nil
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Readers = slices.Clone(n.Readers)
	if n.Properties != nil {
		c.Properties = make(map[string]any, len(n.Properties))
		for k, v := range n.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

// Property resolves a key against the header fields first, then free properties.
func (n *Node) Property(key string) (any, bool) {
	switch key {
	case KeyID:
		return n.ID, n.ID != ""
	case KeyType:
		return n.Type, n.Type != ""
	case KeyName:
		return n.Name, n.Name != ""
	case KeyOwner:
		return n.OwnerID, n.OwnerID != ""
	case KeyPublic:
		return n.Public, true
	case KeyDeleted:
		return n.Deleted, true
	case KeyCreatedAt:
		return n.CreatedAt, !n.CreatedAt.IsZero()
	}
	v, ok := n.Properties[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether the property is present.
func (n *Node) Has(key string) bool {
	_, ok := n.Property(key)
	return ok
}

// Bool returns the boolean value of a property. ok is false when the
// property is absent or not a boolean. The strings "true" and "false" are
// accepted since hash-backed stores keep everything as text.
func (n *Node) Bool(key string) (value, ok bool) {
	v, present := n.Property(key)
	if !present {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch b {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// TextFields flattens the node into field/text pairs for full-text indexers.
// Non-scalar properties are skipped.
func (n *Node) TextFields() map[string]string {
	out := make(map[string]string, len(n.Properties)+2)
	if n.Name != "" {
		out[KeyName] = n.Name
	}
	if n.Type != "" {
		out[KeyType] = n.Type
	}
	for k, v := range n.Properties {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case fmt.Stringer:
			out[k] = val.String()
		}
	}
	return out
}

// Compare orders nodes by name, then creation time, then ID. With
// caseInsensitive set, names are compared folded first and the exact name
// breaks ties.
func Compare(a, b *Node, caseInsensitive bool) int {
	if caseInsensitive {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
