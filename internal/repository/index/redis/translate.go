package redis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/query"
)

// ErrUnsupportedRange is returned for range values RediSearch cannot express.
var ErrUnsupportedRange = errors.New("range bounds must be numeric or *")

// Translate renders q as a dialect 2 RediSearch query. An empty string with a
// nil error means q cannot match anything and no search should be issued.
func Translate(q *query.Query) (string, error) {
	expr, never, err := render(q)
	if err != nil || never {
		return "", err
	}
	return expr, nil
}

// render returns never=true for queries without a positive clause.
func render(q *query.Query) (expr string, never bool, err error) {
	var musts, shoulds, nots []string
	for _, c := range q.Clauses() {
		if c.Term == nil && c.Sub.IsEmpty() {
			continue
		}

		var part string
		var partNever bool
		if c.Term != nil {
			part, err = renderTerm(*c.Term)
		} else {
			part, partNever, err = render(c.Sub)
			part = "(" + part + ")"
		}
		if err != nil {
			return "", false, err
		}

		switch c.Occur {
		case operator.MustNot:
			if !partNever {
				nots = append(nots, "-"+part)
			}
		case operator.Should:
			if !partNever {
				shoulds = append(shoulds, part)
			}
		default:
			if partNever {
				return "", true, nil
			}
			musts = append(musts, part)
		}
	}
	if len(musts) == 0 && len(shoulds) == 0 {
		return "", true, nil
	}

	parts := musts
	switch {
	case len(shoulds) == 0:
	case len(musts) > 0:
		parts = append(parts, "~("+strings.Join(shoulds, " | ")+")")
	case len(nots) == 0 || len(shoulds) == 1:
		parts = append(parts, strings.Join(shoulds, " | "))
	default:
		parts = append(parts, "("+strings.Join(shoulds, " | ")+")")
	}
	parts = append(parts, nots...)
	return strings.Join(parts, " "), false, nil
}

func renderTerm(t query.Term) (string, error) {
	field := "@" + escapeField(t.Field) + ":"
	switch t.Kind {
	case query.Prefix:
		return field + queryEscaper.Replace(t.Value) + "*", nil
	case query.Exact:
		return field + phrase(t.Value), nil
	}

	v := strings.TrimSpace(t.Value)
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		lo, hi, ok := strings.Cut(v[1:len(v)-1], " TO ")
		if !ok {
			return "", fmt.Errorf("%s: %w", v, ErrUnsupportedRange)
		}
		from, err := bound(lo, "-inf")
		if err != nil {
			return "", err
		}
		to, err := bound(hi, "+inf")
		if err != nil {
			return "", err
		}
		return field + "[" + from + " " + to + "]", nil
	}
	return field + phrase(strings.Trim(v, `"`)), nil
}

func bound(s, open string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "*" {
		return open, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedRange)
	}
	return s, nil
}

func phrase(s string) string {
	return `"` + phraseEscaper.Replace(s) + `"`
}

func escapeField(name string) string {
	var b strings.Builder
	for _, r := range name {
		isWord := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isWord {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
	`.`, `\.`,
	`/`, `\/`,
	`&`, `\&`,
	`#`, `\#`,
	`?`, `\?`,
)
