package search

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

func textual(key, value string, op operator.Operator) attribute.Attribute {
	return attribute.NewTextual(key, value, op)
}

func TestCompile_Text(t *testing.T) {
	tests := []struct {
		name  string
		attrs []attribute.Attribute
		want  string
	}{
		{
			name:  "multi word expansion",
			attrs: []attribute.Attribute{textual("name", "jon smith", operator.And)},
			want:  `(name:jon* OR name:"jon") AND (name:smith* OR name:"smith")`,
		},
		{
			name: "group as sole attribute",
			attrs: []attribute.Attribute{
				attribute.NewGroup(operator.Or, textual("city", "NYC", operator.And)),
			},
			want: `( city:NYC* OR city:"NYC" )`,
		},
		{
			name:  "single word alone renders bare",
			attrs: []attribute.Attribute{textual("name", "jon", operator.Or)},
			want:  `name:jon* OR name:"jon"`,
		},
		{
			name: "two clauses are parenthesized",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				textual("city", "NYC", operator.Or),
			},
			want: `(name:jon* OR name:"jon") OR (city:NYC* OR city:"NYC")`,
		},
		{
			name:  "leading NOT keeps its connective",
			attrs: []attribute.Attribute{textual("type", "User", operator.Not)},
			want:  `NOT (type:User* OR type:"User")`,
		},
		{
			name:  "blank value uses sentinel",
			attrs: []attribute.Attribute{textual("name", "   ", operator.And)},
			want:  "name:" + Sentinel,
		},
		{
			name:  "empty quotes use sentinel",
			attrs: []attribute.Attribute{textual("name", `""`, operator.And)},
			want:  "name:" + Sentinel,
		},
		{
			name:  "quoted value is raw",
			attrs: []attribute.Attribute{textual("name", `"jon smith"`, operator.And)},
			want:  `name:"jon smith"`,
		},
		{
			name: "range value is raw and atomic",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				textual("created", "[2020 TO 2021]", operator.And),
			},
			want: `(name:jon* OR name:"jon") AND created:[2020 TO 2021]`,
		},
		{
			name: "operator-prefixed value is raw",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				textual("city", "ORLANDO", operator.And),
			},
			want: `(name:jon* OR name:"jon") AND (city:ORLANDO)`,
		},
		{
			name: "group after clause carries its connective",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				attribute.NewGroup(operator.Not,
					textual("city", "NYC", operator.And),
					textual("city", "LA", operator.Or),
				),
			},
			want: `(name:jon* OR name:"jon") NOT ( (city:NYC* OR city:"NYC") OR (city:LA* OR city:"LA") )`,
		},
		{
			name: "blank key is a no-op",
			attrs: []attribute.Attribute{
				textual(" ", "jon", operator.And),
				textual("city", "NYC", operator.And),
			},
			want: `city:NYC* OR city:"NYC"`,
		},
		{
			name:  "no attributes",
			attrs: nil,
			want:  "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := Compile(tc.attrs)
			if plan.Text != tc.want {
				t.Errorf("Text =\n  %s\nwant\n  %s", plan.Text, tc.want)
			}
		})
	}
}

// doc is a node reduced to one token per field.
type doc map[string]string

func (d doc) match(t query.Term) bool {
	v, ok := d[t.Field]
	if !ok {
		return false
	}
	if t.Kind == query.Prefix {
		return strings.HasPrefix(v, t.Value)
	}
	return v == t.Value
}

func TestCompile_TextAndStructureAgree(t *testing.T) {
	var (
		jon    = doc{"name": "jon"}
		nyc    = doc{"city": "NYC"}
		la     = doc{"city": "LA"}
		jonNYC = doc{"name": "jon", "city": "NYC"}
		jonLA  = doc{"name": "jon", "city": "LA"}
		none   = doc{}
	)
	tests := []struct {
		name      string
		attrs     []attribute.Attribute
		text      string
		structure string
		matches   []doc
		misses    []doc
	}{
		{
			name: "leading AND followed by OR",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				textual("city", "NYC", operator.Or),
			},
			text:      `(name:jon* OR name:"jon") OR (city:NYC* OR city:"NYC")`,
			structure: `(name:jon* name:"jon") (city:NYC* city:"NYC")`,
			matches:   []doc{jon, nyc, jonNYC},
			misses:    []doc{la, none},
		},
		{
			name: "leading OR followed by AND",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.Or),
				textual("city", "NYC", operator.And),
			},
			text:      `(name:jon* OR name:"jon") AND (city:NYC* OR city:"NYC")`,
			structure: `+(name:jon* name:"jon") +(city:NYC* city:"NYC")`,
			matches:   []doc{jonNYC},
			misses:    []doc{jon, nyc, jonLA},
		},
		{
			name: "group after clause",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				attribute.NewGroup(operator.Or,
					textual("city", "NYC", operator.And),
					textual("city", "LA", operator.Or),
				),
			},
			text:      `(name:jon* OR name:"jon") OR ( (city:NYC* OR city:"NYC") OR (city:LA* OR city:"LA") )`,
			structure: `(name:jon* name:"jon") ((city:NYC* city:"NYC") (city:LA* city:"LA"))`,
			matches:   []doc{jon, nyc, la},
			misses:    []doc{none},
		},
		{
			name: "AND binds the clause before it",
			attrs: []attribute.Attribute{
				textual("city", "LA", operator.And),
				textual("city", "NYC", operator.Or),
				textual("name", "jon", operator.And),
			},
			text:      `(city:LA* OR city:"LA") OR (city:NYC* OR city:"NYC") AND (name:jon* OR name:"jon")`,
			structure: `(city:LA* city:"LA") +(city:NYC* city:"NYC") +(name:jon* name:"jon")`,
			matches:   []doc{jonNYC},
			misses:    []doc{jonLA, nyc, jon},
		},
		{
			name: "leading NOT group keeps its connective",
			attrs: []attribute.Attribute{
				attribute.NewGroup(operator.Not, textual("city", "NYC", operator.And)),
				textual("name", "jon", operator.And),
			},
			text:      `NOT ( city:NYC* OR city:"NYC" ) AND (name:jon* OR name:"jon")`,
			structure: `-((city:NYC* city:"NYC")) +(name:jon* name:"jon")`,
			matches:   []doc{jon, jonLA},
			misses:    []doc{jonNYC, nyc},
		},
		{
			name: "NOT is never promoted by a following AND",
			attrs: []attribute.Attribute{
				textual("name", "jon", operator.And),
				textual("city", "NYC", operator.Not),
				textual("city", "LA", operator.And),
			},
			text:      `(name:jon* OR name:"jon") NOT (city:NYC* OR city:"NYC") AND (city:LA* OR city:"LA")`,
			structure: `(name:jon* name:"jon") -(city:NYC* city:"NYC") +(city:LA* city:"LA")`,
			matches:   []doc{jonLA, la},
			misses:    []doc{jonNYC, jon},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := Compile(tc.attrs)
			if plan.Text != tc.text {
				t.Errorf("Text =\n  %s\nwant\n  %s", plan.Text, tc.text)
			}
			if got := plan.Query.String(); got != tc.structure {
				t.Errorf("Query =\n  %s\nwant\n  %s", got, tc.structure)
			}
			for _, d := range tc.matches {
				if !plan.Query.Matches(d.match) {
					t.Errorf("%v should match", d)
				}
			}
			for _, d := range tc.misses {
				if plan.Query.Matches(d.match) {
					t.Errorf("%v should not match", d)
				}
			}
		})
	}
}

func TestCompile_QueryStructure_MultiWord(t *testing.T) {
	plan := Compile([]attribute.Attribute{textual("name", "jon smith", operator.And)})

	clauses := plan.Query.Clauses()
	if len(clauses) != 1 || clauses[0].Occur != operator.Should || clauses[0].Sub == nil {
		t.Fatalf("top clauses = %+v", clauses)
	}
	words := clauses[0].Sub.Clauses()
	if len(words) != 2 {
		t.Fatalf("expected 2 word clauses, got %d", len(words))
	}
	for i, w := range []string{"jon", "smith"} {
		if words[i].Occur != operator.Must {
			t.Errorf("word %d occur = %s", i, words[i].Occur)
		}
		terms := words[i].Sub.Clauses()
		if len(terms) != 2 {
			t.Fatalf("word %d: expected 2 terms, got %d", i, len(terms))
		}
		if *terms[0].Term != (query.Term{Field: "name", Value: w, Kind: query.Prefix}) || terms[0].Occur != operator.Should {
			t.Errorf("word %d prefix clause = %+v", i, terms[0])
		}
		if *terms[1].Term != (query.Term{Field: "name", Value: w, Kind: query.Exact}) || terms[1].Occur != operator.Should {
			t.Errorf("word %d exact clause = %+v", i, terms[1])
		}
	}
}

func TestCompile_QueryStructure_Group(t *testing.T) {
	plan := Compile([]attribute.Attribute{
		attribute.NewGroup(operator.Or, textual("city", "NYC", operator.And)),
	})

	clauses := plan.Query.Clauses()
	if len(clauses) != 1 || clauses[0].Occur != operator.Should || clauses[0].Sub == nil {
		t.Fatalf("group clause = %+v", clauses)
	}
	inner := clauses[0].Sub.Clauses()
	if len(inner) != 1 || inner[0].Occur != operator.Should {
		t.Fatalf("inner clauses = %+v", inner)
	}
}

func TestCompile_SentinelNeverMatches(t *testing.T) {
	plan := Compile([]attribute.Attribute{textual("name", "", operator.And)})

	clauses := plan.Query.Clauses()
	if len(clauses) != 1 || clauses[0].Term == nil {
		t.Fatalf("clauses = %+v", clauses)
	}
	if got := *clauses[0].Term; got != (query.Term{Field: "name", Value: Sentinel, Kind: query.Exact}) {
		t.Errorf("term = %+v", got)
	}

	realValues := map[string]bool{"jon": true, "": true, "smith": true}
	matched := plan.Query.Matches(func(term query.Term) bool { return realValues[term.Value] })
	if matched {
		t.Error("sentinel query must not match real values")
	}
}

func TestCompile_RawTerm(t *testing.T) {
	plan := Compile([]attribute.Attribute{textual("name", "NOT jon", operator.Or)})
	clauses := plan.Query.Clauses()
	if len(clauses) != 1 || clauses[0].Term == nil {
		t.Fatalf("clauses = %+v", clauses)
	}
	if clauses[0].Term.Kind != query.Raw || clauses[0].Term.Value != "NOT jon" || clauses[0].Occur != operator.Should {
		t.Errorf("raw clause = %+v %+v", clauses[0], clauses[0].Term)
	}
	if plan.Text != "name:NOT jon" {
		t.Errorf("Text = %q", plan.Text)
	}
}

func TestCompile_PartitionsBooleans(t *testing.T) {
	active := attribute.NewBoolean("active", attribute.Bool(true), operator.And)
	archived := attribute.NewBoolean("archived", nil, operator.Not)

	plan := Compile([]attribute.Attribute{
		active,
		textual("name", "jon", operator.And),
		archived,
	})

	if len(plan.Booleans) != 2 || plan.Booleans[0].Key() != "active" || plan.Booleans[1].Key() != "archived" {
		t.Errorf("Booleans = %+v", plan.Booleans)
	}
	if len(plan.Query.Clauses()) != 1 {
		t.Errorf("boolean attributes must not be compiled, query has %d clauses", len(plan.Query.Clauses()))
	}
}

func TestCompile_GroupChildrenBoundary(t *testing.T) {
	plan := Compile([]attribute.Attribute{
		attribute.NewGroup(operator.And,
			attribute.NewBoolean("active", attribute.Bool(true), operator.And),
			attribute.NewGroup(operator.Or, textual("city", "NYC", operator.And)),
		),
	})

	if plan.Text != "" {
		t.Errorf("Text = %q, want blank", plan.Text)
	}
	if plan.HasText() {
		t.Error("HasText() should be false")
	}
	if len(plan.Booleans) != 0 {
		t.Error("booleans inside groups must not reach the post-filter")
	}
	if len(plan.Skipped) != 2 {
		t.Fatalf("Skipped = %+v", plan.Skipped)
	}
	if plan.Skipped[0].Path != "attributes[0].children[0]" || plan.Skipped[1].Reason != "nested group" {
		t.Errorf("Skipped = %+v", plan.Skipped)
	}
	// A group that renders blank is not linked.
	if len(plan.Query.Clauses()) != 0 {
		t.Errorf("query = %s (len %d)", plan.Query, len(plan.Query.Clauses()))
	}
}

func TestCompile_EmptyGroupAddsNothing(t *testing.T) {
	plan := Compile([]attribute.Attribute{attribute.NewGroup(operator.And)})
	if len(plan.Query.Clauses()) != 0 || plan.Text != "" {
		t.Errorf("empty group compiled to %q / %d clauses", plan.Text, len(plan.Query.Clauses()))
	}
}

func TestCompile_Deterministic(t *testing.T) {
	attrs := []attribute.Attribute{
		textual("name", "jon smith", operator.And),
		attribute.NewGroup(operator.Or, textual("city", "NYC", operator.And), textual("city", "", operator.Or)),
		textual("type", `"User"`, operator.Not),
	}
	first := Compile(attrs)
	for range 5 {
		again := Compile(attrs)
		if again.Text != first.Text || again.Query.String() != first.Query.String() {
			t.Fatal("compilation is not deterministic")
		}
	}
}
