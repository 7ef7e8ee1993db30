package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

// Sentinel is a token that never occurs in indexed data. Blank textual
// values compile to an exact match on it, so searching for nothing matches
// nothing rather than everything.
const Sentinel = "xeHfc6OG30o3YQzX57_8____r-Wx-RW_70r84_71D-g--P9-3K"

// Plan is the compiled form of an attribute list. Query and Text describe
// the same boolean combination and are built together.
type Plan struct {
	Query    *query.Query
	Text     string
	Booleans []attribute.Boolean
	Skipped  []Skipped
}

// Skipped records an attribute the compiler ignored.
type Skipped struct {
	Path   string
	Reason string
}

// HasText reports whether the plan needs the full-text index.
func (p Plan) HasText() bool {
	return strings.TrimSpace(p.Text) != ""
}

// Compile turns attributes into an index query and partitions out the
// boolean attributes for post-filtering.
func Compile(attrs []attribute.Attribute) Plan {
	var p Plan
	sc := compileScope(attrs, "attributes", &p, true)
	p.Query = sc.build()
	p.Text = sc.render()
	return p
}

// part is one clause of a scope, in rendered and structured form. Exactly
// one of term and sub is set.
type part struct {
	op     operator.Operator
	text   string
	atomic bool
	term   *query.Term
	sub    *query.Query
}

type scope struct {
	parts []part
}

func compileScope(attrs []attribute.Attribute, path string, plan *Plan, top bool) *scope {
	sc := &scope{}
	for i, a := range attrs {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch attr := a.(type) {
		case attribute.Textual:
			sc.addTextual(attr, at, plan)
		case attribute.Boolean:
			if !top {
				plan.skip(at, "boolean attribute inside group")
				continue
			}
			plan.Booleans = append(plan.Booleans, attr)
		case attribute.Group:
			if !top {
				plan.skip(at, "nested group")
				continue
			}
			children := attr.Children()
			if len(children) == 0 {
				continue
			}
			sub := compileScope(children, at+".children", plan, false)
			if text := sub.render(); strings.TrimSpace(text) != "" {
				sc.parts = append(sc.parts, part{
					op:     attr.Operator(),
					text:   "( " + text + " )",
					atomic: true,
					sub:    sub.build(),
				})
			}
		case nil:
			plan.skip(at, "nil attribute")
		}
	}
	return sc
}

func (sc *scope) addTextual(attr attribute.Textual, at string, plan *Plan) {
	key := strings.TrimSpace(attr.Key())
	if key == "" {
		plan.skip(at, "blank key")
		return
	}
	op := attr.Operator()
	value := strings.TrimSpace(attr.Value())

	switch {
	case value == "" || value == `""`:
		sc.parts = append(sc.parts, part{
			op:     op,
			text:   key + ":" + Sentinel,
			atomic: true,
			term:   &query.Term{Field: key, Value: Sentinel, Kind: query.Exact},
		})

	case isRaw(value):
		sc.parts = append(sc.parts, part{
			op:     op,
			text:   key + ":" + value,
			atomic: isEnclosed(value),
			term:   &query.Term{Field: key, Value: value, Kind: query.Raw},
		})

	default:
		words := strings.Fields(value)
		if len(words) == 1 {
			sc.parts = append(sc.parts, part{op: op, text: wordText(key, words[0]), sub: wordQuery(key, words[0])})
			return
		}
		sub := query.New()
		texts := make([]string, len(words))
		for i, w := range words {
			sub.AddSub(operator.Must, wordQuery(key, w))
			texts[i] = "(" + wordText(key, w) + ")"
		}
		sc.parts = append(sc.parts, part{op: op, text: strings.Join(texts, " AND "), sub: sub})
	}
}

// build assembles the structured query with the tags a Lucene query parser
// gives the rendered text. A clause takes the tag of its connective and the
// leading clause, rendered without one, is optional. An AND makes the clause
// before it required unless that clause is negated.
func (sc *scope) build() *query.Query {
	occurs := make([]operator.Occur, len(sc.parts))
	for i, p := range sc.parts {
		op := connective(p.op)
		occurs[i] = op.Occur()
		if i == 0 && op != operator.Not {
			occurs[i] = operator.Should
		}
		if i > 0 && op == operator.And && occurs[i-1] != operator.MustNot {
			occurs[i-1] = operator.Must
		}
	}

	q := query.New()
	for i, p := range sc.parts {
		if p.term != nil {
			q.AddTerm(occurs[i], *p.term)
			continue
		}
		q.AddSub(occurs[i], p.sub)
	}
	return q
}

// render joins the scope's clauses. The first clause drops its connective
// unless it is a NOT. A lone clause without connective renders bare; any
// other compound clause is parenthesized.
func (sc *scope) render() string {
	if len(sc.parts) == 1 && sc.parts[0].op != operator.Not {
		return sc.parts[0].text
	}
	var b strings.Builder
	for i, p := range sc.parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i > 0 || p.op == operator.Not {
			b.WriteString(string(connective(p.op)))
			b.WriteByte(' ')
		}
		if p.atomic {
			b.WriteString(p.text)
		} else {
			b.WriteString("(" + p.text + ")")
		}
	}
	return b.String()
}

func (p *Plan) skip(path, reason string) {
	p.Skipped = append(p.Skipped, Skipped{Path: path, Reason: reason})
}

// wordQuery matches a word as a token prefix or an exact token.
func wordQuery(key, word string) *query.Query {
	return query.New().
		AddTerm(operator.Should, query.Term{Field: key, Value: word, Kind: query.Prefix}).
		AddTerm(operator.Should, query.Term{Field: key, Value: word, Kind: query.Exact})
}

func wordText(key, word string) string {
	return key + ":" + word + "* OR " + key + `:"` + word + `"`
}

// isRaw reports whether the caller wrote query syntax themselves.
func isRaw(value string) bool {
	return strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "[") || operator.Keyword(value)
}

func isEnclosed(value string) bool {
	if len(value) < 2 {
		return false
	}
	return (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '[' && value[len(value)-1] == ']')
}

func connective(op operator.Operator) operator.Operator {
	if !op.IsValid() {
		return operator.And
	}
	return op
}
