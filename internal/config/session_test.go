package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSession_Valid(t *testing.T) {
	yaml := `
types:
  hello:
    primitive: hello
  answer:
    primitive: 42
  three:
    ordinal: 3
  point:
    ordinal: n + 1
    entries:
      x: hello
      "<5": void
      "#brand": answer
  either:
    union: [hello, three]
  empty: {}
  token:
    branded: true
    entries:
      x: hello
queries:
  - name: order
    subtype: [three, point]
    expect: "true"
  - property: [hello, length]
  - lt: ["3", Pi]
    expect: "true"
  - le: [n, n + 1]
    expect: "true"
  - eq:
      - {op: "+", args: [n, n]}
      - "2*n"
    expect: "true"
  - invoke: [get, hello, answer]
    expect: never
`
	s, err := ParseSession([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Types) != 7 {
		t.Fatalf("expected 7 types, got %d", len(s.Types))
	}
	if got := s.Types["hello"].Primitive; got != "hello" {
		t.Errorf("hello primitive = %#v, want \"hello\"", got)
	}
	if got := s.Types["answer"].Primitive; got != 42 {
		t.Errorf("answer primitive = %#v, want 42", got)
	}
	point := s.Types["point"]
	if point.Ordinal == nil || point.Ordinal.Text != "n + 1" {
		t.Errorf("point ordinal = %+v, want n + 1", point.Ordinal)
	}
	wantEntries := map[string]string{"x": "hello", "<5": "void", "#brand": "answer"}
	if diff := cmp.Diff(wantEntries, point.Entries); diff != "" {
		t.Errorf("point entries mismatch (-want +got):\n%s", diff)
	}
	if !s.Types["token"].Branded || s.Types["point"].Branded {
		t.Errorf("branded flags: token %v, point %v", s.Types["token"].Branded, s.Types["point"].Branded)
	}

	wantOps := []string{OpSubtype, OpProperty, OpLt, OpLe, OpEq, OpInvoke}
	var gotOps []string
	for i := range s.Queries {
		gotOps = append(gotOps, s.Queries[i].Op())
	}
	if diff := cmp.Diff(wantOps, gotOps); diff != "" {
		t.Errorf("query ops mismatch (-want +got):\n%s", diff)
	}

	wantEq := []PivotSpec{
		{Op: "+", Args: []PivotSpec{{Text: "n"}, {Text: "n"}}},
		{Text: "2*n"},
	}
	if diff := cmp.Diff(wantEq, s.Queries[4].Eq); diff != "" {
		t.Errorf("eq pivots mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "redefined void",
			yaml: "types:\n  void: {}\n",
			want: "predeclared",
		},
		{
			name: "primitive and union",
			yaml: "types:\n  t:\n    primitive: a\n    union: [x]\n",
			want: "mutually exclusive",
		},
		{
			name: "primitive with entries",
			yaml: "types:\n  t:\n    primitive: a\n    entries: {x: void}\n",
			want: "only combine",
		},
		{
			name: "branded never",
			yaml: "types:\n  t:\n    never: true\n    branded: true\n",
			want: "only combine",
		},
		{
			name: "negative exact",
			yaml: "types:\n  t:\n    exact: -1\n",
			want: "non-negative",
		},
		{
			name: "bare bound key",
			yaml: "types:\n  t:\n    entries: {\"<\": void}\n",
			want: "invalid entry key",
		},
		{
			name: "list primitive",
			yaml: "types:\n  t:\n    primitive: [1, 2]\n",
			want: "string or a number",
		},
		{
			name: "no operation",
			yaml: "queries:\n  - expect: \"true\"\n",
			want: "exactly one of",
		},
		{
			name: "two operations",
			yaml: "queries:\n  - subtype: [a, b]\n    lt: [\"1\", \"2\"]\n",
			want: "exactly one of",
		},
		{
			name: "subtype arity",
			yaml: "queries:\n  - subtype: [a]\n",
			want: "two types",
		},
		{
			name: "subtype expect",
			yaml: "queries:\n  - subtype: [a, b]\n    expect: unknown\n",
			want: "true or false",
		},
		{
			name: "lt arity",
			yaml: "queries:\n  - lt: [\"1\"]\n",
			want: "two pivots",
		},
		{
			name: "le arity",
			yaml: "queries:\n  - le: [\"1\", \"2\", \"3\"]\n",
			want: "two pivots",
		},
		{
			name: "eq expect",
			yaml: "queries:\n  - eq: [\"1\", \"1\"]\n    expect: maybe\n",
			want: "true, false or unknown",
		},
		{
			name: "empty invoke",
			yaml: "queries:\n  - invoke: []\n",
			want: "needs a function",
		},
		{
			name: "unknown operator",
			yaml: "queries:\n  - lt:\n      - {op: \"^\", args: [\"1\"]}\n      - \"2\"\n",
			want: "unknown pivot operator",
		},
		{
			name: "operator without args",
			yaml: "queries:\n  - lt:\n      - {op: \"+\"}\n      - \"2\"\n",
			want: "needs arguments",
		},
		{
			name: "empty pivot",
			yaml: "queries:\n  - lt: [\"\", \"2\"]\n",
			want: "empty pivot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSession([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseSession_ValidationErrorType(t *testing.T) {
	_, err := ParseSession([]byte("types:\n  never: {}\n"), "s.yaml")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a *ValidationError", err)
	}
	if verr.Path != "s.yaml" || verr.Where != "types.never" {
		t.Errorf("validation error = %+v", verr)
	}
}

func TestLoadSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path, []byte("types:\n  a: {primitive: a}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Types["a"]; !ok {
		t.Errorf("type a not loaded")
	}

	if _, err := LoadSession(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestPivotSpecString(t *testing.T) {
	p := PivotSpec{Op: "*", Args: []PivotSpec{{Text: "2"}, {Op: "+", Args: []PivotSpec{{Text: "n"}, {Text: "1"}}}}}
	if got, want := p.String(), "(2 * (n + 1))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIsSessionFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.yaml": true,
		"a.yml":  true,
		"a.json": false,
		"yaml":   false,
	} {
		if got := IsSessionFile(path); got != want {
			t.Errorf("IsSessionFile(%q) = %v, want %v", path, got, want)
		}
	}
}
