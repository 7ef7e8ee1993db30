// Package query holds the structured boolean query produced by the compiler.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
)

// Kind says how a term value is matched.
type Kind int

// Term kinds.
const (
	// Prefix matches any token starting with Value.
	Prefix Kind = iota
	// Exact matches Value as a phrase.
	Exact
	// Raw carries caller-supplied query syntax.
	Raw
)

func (k Kind) String() string {
	switch k {
	case Prefix:
		return "prefix"
	case Exact:
		return "exact"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Term is a single field match.
type Term struct {
	Field string
	Value string
	Kind  Kind
}

// String renders the term in term-colon-value syntax.
func (t Term) String() string {
	switch t.Kind {
	case Prefix:
		return t.Field + ":" + t.Value + "*"
	case Exact:
		return t.Field + ":\"" + t.Value + "\""
	default:
		return t.Field + ":" + t.Value
	}
}

// Clause is one tagged element of a Query. Exactly one of Term and Sub is set.
type Clause struct {
	Occur operator.Occur
	Term  *Term
	Sub   *Query
}

// Query is an ordered list of clauses.
type Query struct {
	clauses []Clause
}

// New returns an empty query.
func New() *Query { return &Query{} }

// AddTerm appends a term clause.
func (q *Query) AddTerm(occur operator.Occur, t Term) *Query {
	q.clauses = append(q.clauses, Clause{Occur: occur, Term: &t})
	return q
}

// AddSub appends a nested query clause.
func (q *Query) AddSub(occur operator.Occur, sub *Query) *Query {
	if sub == nil {
		sub = New()
	}
	q.clauses = append(q.clauses, Clause{Occur: occur, Sub: sub})
	return q
}

// Clauses returns a copy of the clause list.
func (q *Query) Clauses() []Clause {
	if q == nil {
		return nil
	}
	out := make([]Clause, len(q.clauses))
	copy(out, q.clauses)
	return out
}

// IsEmpty reports whether q has no term anywhere in its tree.
func (q *Query) IsEmpty() bool {
	if q == nil {
		return true
	}
	for _, c := range q.clauses {
		if c.Term != nil {
			return false
		}
		if !c.Sub.IsEmpty() {
			return false
		}
	}
	return true
}

// Matches evaluates q with boolean-query semantics: every MUST clause
// matches, no MUST_NOT clause matches and, without MUST clauses, at least
// one SHOULD clause matches. Empty sub-queries are ignored. A query with no
// positive clause matches nothing.
func (q *Query) Matches(match func(Term) bool) bool {
	if q == nil {
		return false
	}
	var hasMust, anyShould bool
	for _, c := range q.clauses {
		if c.Term == nil && c.Sub.IsEmpty() {
			continue
		}
		var ok bool
		if c.Term != nil {
			ok = match(*c.Term)
		} else {
			ok = c.Sub.Matches(match)
		}
		switch c.Occur {
		case operator.MustNot:
			if ok {
				return false
			}
		case operator.Should:
			anyShould = anyShould || ok
		default:
			if !ok {
				return false
			}
			hasMust = true
		}
	}
	return hasMust || anyShould
}

// String renders q in Lucene prefix-occur notation (+must -mustnot should).
// It is meant for logs and explain output.
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	parts := make([]string, 0, len(q.clauses))
	for _, c := range q.clauses {
		var body string
		if c.Term != nil {
			body = c.Term.String()
		} else {
			body = "(" + c.Sub.String() + ")"
		}
		switch c.Occur {
		case operator.Must:
			body = "+" + body
		case operator.MustNot:
			body = "-" + body
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, " ")
}
