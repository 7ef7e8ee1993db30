// Package memory is an in-process full-text index that evaluates the
// structured query directly.
package memory

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/kailas-cloud/nodesearch/internal/domain/index"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

type document struct {
	raw    map[string]string
	tokens map[string][]string
}

// Index holds tokenized node fields. Tokens are lowercased runs of letters
// and digits.
type Index struct {
	mu    sync.RWMutex
	docs  map[string]document
	order []string
}

// New creates an empty index.
func New() *Index {
	return &Index{docs: make(map[string]document)}
}

// Put indexes or re-indexes a node.
func (x *Index) Put(_ context.Context, n *node.Node) error {
	fields := n.TextFields()
	doc := document{raw: make(map[string]string, len(fields)), tokens: make(map[string][]string, len(fields))}
	for k, v := range fields {
		doc.raw[k] = v
		doc.tokens[k] = tokenize(v)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.docs[n.ID]; !ok {
		x.order = append(x.order, n.ID)
	}
	x.docs[n.ID] = doc
	return nil
}

// Reset empties the index.
func (x *Index) Reset(context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	clear(x.docs)
	x.order = nil
	return nil
}

// Execute returns the nodes matching q in indexing order. The text form is
// not parsed.
func (x *Index) Execute(ctx context.Context, _ string, q *query.Query) ([]index.Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []index.Hit
	for _, id := range x.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := x.docs[id]
		var score float64
		matched := q.Matches(func(t query.Term) bool {
			ok := doc.match(t)
			if ok {
				score++
			}
			return ok
		})
		if matched {
			hits = append(hits, index.Hit{NodeID: id, Score: score})
		}
	}
	return hits, nil
}

// Len returns the number of indexed nodes.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Ping always succeeds.
func (x *Index) Ping(context.Context) error { return nil }

func (d document) match(t query.Term) bool {
	tokens := d.tokens[t.Field]
	if len(tokens) == 0 {
		return false
	}
	switch t.Kind {
	case query.Prefix:
		return containsPhrase(tokens, tokenize(t.Value), true)
	case query.Exact:
		return containsPhrase(tokens, tokenize(t.Value), false)
	default:
		return d.matchRaw(t.Field, t.Value)
	}
}

// matchRaw handles caller syntax: "quoted phrase", [lo TO hi] ranges, and
// anything else as a plain phrase.
func (d document) matchRaw(field, value string) bool {
	if lo, hi, ok := parseRange(value); ok {
		v := strings.ToLower(d.raw[field])
		return (lo == "*" || v >= lo) && (hi == "*" || v <= hi)
	}
	return containsPhrase(d.tokens[field], tokenize(strings.Trim(value, `"`)), false)
}

func parseRange(value string) (lo, hi string, ok bool) {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return "", "", false
	}
	lo, hi, ok = strings.Cut(value[1:len(value)-1], " TO ")
	if !ok {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(lo)), strings.ToLower(strings.TrimSpace(hi)), true
}

// containsPhrase reports whether phrase occurs as consecutive tokens. With
// prefix set, the last phrase token only needs to prefix its counterpart.
func containsPhrase(tokens, phrase []string, prefix bool) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	last := len(phrase) - 1
	for i := 0; i+last < len(tokens); i++ {
		ok := true
		for j, p := range phrase {
			tok := tokens[i+j]
			if j == last && prefix {
				ok = strings.HasPrefix(tok, p)
			} else {
				ok = tok == p
			}
			if !ok {
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
