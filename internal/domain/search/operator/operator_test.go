package operator

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Operator
		wantErr bool
	}{
		{"", And, false},
		{"and", And, false},
		{" Or ", Or, false},
		{"NOT", Not, false},
		{"xor", "", true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOccur(t *testing.T) {
	if And.Occur() != Must {
		t.Errorf("AND -> %s", And.Occur())
	}
	if Or.Occur() != Should {
		t.Errorf("OR -> %s", Or.Occur())
	}
	if Not.Occur() != MustNot {
		t.Errorf("NOT -> %s", Not.Occur())
	}
	if Operator("bogus").Occur() != Must {
		t.Error("unknown operator should default to MUST")
	}
}

func TestKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"NOT deleted", true},
		{"AND", true},
		{"ORLANDO", true},
		{"Oregon", false},
		{"and more", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := Keyword(tc.in); got != tc.want {
			t.Errorf("Keyword(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOccurString(t *testing.T) {
	if MustNot.String() != "MUST_NOT" {
		t.Errorf("got %q", MustNot.String())
	}
	if Occur(9).String() != "Occur(9)" {
		t.Errorf("got %q", Occur(9).String())
	}
}
