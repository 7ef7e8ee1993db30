// Package attribute defines the search criteria a caller hands to the engine.
//
// Attribute is a closed sum type: Textual, Boolean and Group are the only
// implementations, and consumers switch over them exhaustively. All variants
// are immutable values, so one attribute list can be reused across searches.
package attribute

import (
	"slices"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
)

// Attribute is a single search criterion.
type Attribute interface {
	Key() string
	Operator() operator.Operator
	sealed()
}

// Textual matches a full-text indexed property.
type Textual struct {
	key   string
	value string
	op    operator.Operator
}

// NewTextual creates a textual criterion. The value is kept verbatim.
func NewTextual(key, value string, op operator.Operator) Textual {
	return Textual{key: key, value: value, op: op}
}

// Key returns the property name.
func (t Textual) Key() string { return t.key }

// Value returns the raw search value.
func (t Textual) Value() string { return t.value }

// Operator returns the connective.
func (t Textual) Operator() operator.Operator { return t.op }

func (Textual) sealed() {}

// Boolean filters materialized nodes by a boolean property.
type Boolean struct {
	key   string
	value *bool
	op    operator.Operator
}

// NewBoolean creates a boolean criterion. A nil value means "property absent".
func NewBoolean(key string, value *bool, op operator.Operator) Boolean {
	b := Boolean{key: key, op: op}
	if value != nil {
		v := *value
		b.value = &v
	}
	return b
}

// Key returns the property name.
func (b Boolean) Key() string { return b.key }

// Value returns the target value and whether one was set.
func (b Boolean) Value() (value, ok bool) {
	if b.value == nil {
		return false, false
	}
	return *b.value, true
}

// Operator returns the connective.
func (b Boolean) Operator() operator.Operator { return b.op }

func (Boolean) sealed() {}

// Group is a parenthesized sub-expression.
type Group struct {
	op       operator.Operator
	children []Attribute
}

// NewGroup creates a group. The children slice is copied.
func NewGroup(op operator.Operator, children ...Attribute) Group {
	return Group{op: op, children: slices.Clone(children)}
}

// Key is always empty for groups.
func (Group) Key() string { return "" }

// Operator returns the connective that links the group to its parent.
func (g Group) Operator() operator.Operator { return g.op }

// Children returns the grouped attributes in declaration order.
func (g Group) Children() []Attribute { return slices.Clone(g.children) }

func (Group) sealed() {}

// Bool returns a pointer to v, for building Boolean criteria inline.
func Bool(v bool) *bool { return &v }
