package operator

import (
	"fmt"
	"strings"
)

// Operator is the boolean connective attached to a search attribute.
type Operator string

// Operator constants.
const (
	And Operator = "AND"
	Or  Operator = "OR"
	Not Operator = "NOT"
)

// Occur is the clause tag of a compiled boolean query.
type Occur int

// Clause tags.
const (
	Must Occur = iota
	Should
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "MUST"
	case Should:
		return "SHOULD"
	case MustNot:
		return "MUST_NOT"
	default:
		return fmt.Sprintf("Occur(%d)", int(o))
	}
}

// All returns the operators in declaration order.
func All() []Operator { return []Operator{And, Or, Not} }

// Parse converts a keyword (case-insensitive) into an Operator. Empty input means AND.
func Parse(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	case "NOT":
		return Not, nil
	default:
		return "", fmt.Errorf("unknown search operator %q", s)
	}
}

// IsValid reports whether o is one of the supported operators.
func (o Operator) IsValid() bool {
	return o == And || o == Or || o == Not
}

// Occur maps the operator to its clause tag. Unknown operators default to MUST.
func (o Operator) Occur() Occur {
	switch o {
	case Or:
		return Should
	case Not:
		return MustNot
	default:
		return Must
	}
}

// Keyword reports whether s begins with one of the operator keywords.
// Matching is a plain case-sensitive prefix test.
func Keyword(s string) bool {
	for _, op := range All() {
		if strings.HasPrefix(s, string(op)) {
			return true
		}
	}
	return false
}
