package redis

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
	"github.com/kailas-cloud/nodesearch/internal/usecase/search"
)

func term(field, value string, kind query.Kind) query.Term {
	return query.Term{Field: field, Value: value, Kind: kind}
}

func TestTranslate_CompiledAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs []attribute.Attribute
		want  string
	}{
		{
			name:  "single word",
			attrs: []attribute.Attribute{attribute.NewTextual("name", "jon", operator.And)},
			want:  `(@name:jon* | @name:"jon")`,
		},
		{
			name:  "multi word",
			attrs: []attribute.Attribute{attribute.NewTextual("name", "jon smith", operator.And)},
			want:  `((@name:jon* | @name:"jon") (@name:smith* | @name:"smith"))`,
		},
		{
			name: "exclusion",
			attrs: []attribute.Attribute{
				attribute.NewTextual("name", "jon", operator.And),
				attribute.NewTextual("city", `"LA"`, operator.Not),
			},
			want: `(@name:jon* | @name:"jon") -@city:"LA"`,
		},
		{
			name: "leading AND followed by OR",
			attrs: []attribute.Attribute{
				attribute.NewTextual("name", "jon", operator.And),
				attribute.NewTextual("city", "NYC", operator.Or),
			},
			want: `(@name:jon* | @name:"jon") | (@city:NYC* | @city:"NYC")`,
		},
		{
			name: "leading OR followed by AND",
			attrs: []attribute.Attribute{
				attribute.NewTextual("name", "jon", operator.Or),
				attribute.NewTextual("city", "NYC", operator.And),
			},
			want: `(@name:jon* | @name:"jon") (@city:NYC* | @city:"NYC")`,
		},
		{
			name:  "sentinel",
			attrs: []attribute.Attribute{attribute.NewTextual("name", " ", operator.And)},
			want:  `@name:"` + search.Sentinel + `"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Translate(search.Compile(tc.attrs).Query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Translate =\n  %s\nwant\n  %s", got, tc.want)
			}
		})
	}
}

func TestTranslate_Occurs(t *testing.T) {
	a := term("f", "a", query.Exact)
	b := term("f", "b", query.Exact)
	c := term("f", "c", query.Exact)

	optional := query.New().AddTerm(operator.Must, a).AddTerm(operator.Should, b).AddTerm(operator.Should, c)
	if got, _ := Translate(optional); got != `@f:"a" ~(@f:"b" | @f:"c")` {
		t.Errorf("must+should = %s", got)
	}

	either := query.New().AddTerm(operator.Should, a).AddTerm(operator.Should, b).AddTerm(operator.MustNot, c)
	if got, _ := Translate(either); got != `(@f:"a" | @f:"b") -@f:"c"` {
		t.Errorf("should+mustnot = %s", got)
	}
}

func TestTranslate_NeverMatches(t *testing.T) {
	a := term("f", "a", query.Exact)

	tests := map[string]*query.Query{
		"nil":             nil,
		"empty":           query.New(),
		"purely negative": query.New().AddTerm(operator.MustNot, a),
		"negative must sub": query.New().
			AddTerm(operator.Should, a).
			AddSub(operator.Must, query.New().AddTerm(operator.MustNot, a)),
	}
	for name, q := range tests {
		got, err := Translate(q)
		if err != nil || got != "" {
			t.Errorf("%s: Translate = %q, %v; want empty", name, got, err)
		}
	}

	// An empty sub-query is ignored rather than poisoning its parent.
	q := query.New().AddTerm(operator.Must, a).AddSub(operator.Must, query.New())
	if got, _ := Translate(q); got != `@f:"a"` {
		t.Errorf("empty sub = %q", got)
	}
}

func TestTranslate_Raw(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"[2020 TO 2021]", "@created_at:[2020 2021]"},
		{"[* TO 1700000000000]", "@created_at:[-inf 1700000000000]"},
		{"[5 TO *]", "@created_at:[5 +inf]"},
		{`"new york"`, `@created_at:"new york"`},
		{"plain words", `@created_at:"plain words"`},
		{"NOT jon", `@created_at:"NOT jon"`},
	}
	for _, tc := range tests {
		q := query.New().AddTerm(operator.Must, term("created_at", tc.value, query.Raw))
		got, err := Translate(q)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.value, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.value, got, tc.want)
		}
	}

	q := query.New().AddTerm(operator.Must, term("created", "[a TO b]", query.Raw))
	if _, err := Translate(q); !errors.Is(err, ErrUnsupportedRange) {
		t.Errorf("lexical range: expected ErrUnsupportedRange, got %v", err)
	}
}

func TestTranslate_Escaping(t *testing.T) {
	q := query.New().
		AddTerm(operator.Must, term("first-name", "o'brien", query.Prefix)).
		AddTerm(operator.Must, term("motto", `say "hi"`, query.Exact))
	got, err := Translate(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `@first\-name:o\'brien* @motto:"say \"hi\""`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
