package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Session is the top-level model of a session file: a set of named type
// declarations and the queries to run against them.
type Session struct {
	// Types maps a type name to its declaration. Names are referenced from
	// namespace entries, unions and queries. "void" and "never" are
	// predeclared and may not be redefined.
	Types map[string]TypeSpec `yaml:"types"`

	// Queries run in order.
	Queries []Query `yaml:"queries"`
}

// TypeSpec declares one type. At most one of Primitive, Exact, Union and
// Never may be set; Ordinal, Entries and Branded combine into a namespace.
// A declaration with nothing set is Void.
type TypeSpec struct {
	// Primitive is a string, integer or float payload.
	Primitive any `yaml:"primitive,omitempty"`

	// Exact is the nominal encoding of a non-negative integer, the same
	// value string length projection produces.
	Exact *int `yaml:"exact,omitempty"`

	// Ordinal makes the namespace an ordinal with this bound.
	Ordinal *PivotSpec `yaml:"ordinal,omitempty"`

	// Entries maps keys to type names. A key starting with "<" is a bound
	// key whose remainder is a pivot expression, a key starting with "#" is
	// a nominal tag, anything else is a literal.
	Entries map[string]string `yaml:"entries,omitempty"`

	// Union lists member type names.
	Union []string `yaml:"union,omitempty"`

	Never bool `yaml:"never,omitempty"`

	// Branded adds a fresh nominal key to the namespace, so the declaration
	// is distinct from every other one even when its entries match.
	Branded bool `yaml:"branded,omitempty"`
}

// Query is a single check. Exactly one operation field must be set.
type Query struct {
	// Name labels the query in the report. Defaults to its index.
	Name string `yaml:"name,omitempty"`

	// Subtype is [a, b]: is a a subtype of b.
	Subtype []string `yaml:"subtype,omitempty"`

	// Property is [type, key]. The key uses the entry key syntax.
	Property []string `yaml:"property,omitempty"`

	// Lt, Le and Eq compare two pivots with the oracle.
	Lt []PivotSpec `yaml:"lt,omitempty"`
	Le []PivotSpec `yaml:"le,omitempty"`
	Eq []PivotSpec `yaml:"eq,omitempty"`

	// Invoke is [function, args...]. The function is a declared type or a
	// native function name.
	Invoke []string `yaml:"invoke,omitempty"`

	// Expect is the expected verdict: "true" or "false" for subtype,
	// "true", "false" or "unknown" for lt, le and eq, and a type name for
	// property and invoke. Empty means the result is only reported.
	Expect string `yaml:"expect,omitempty"`
}

// Query operations.
const (
	OpSubtype  = "subtype"
	OpProperty = "property"
	OpLt       = "lt"
	OpLe       = "le"
	OpEq       = "eq"
	OpInvoke   = "invoke"
)

// Predeclared type names.
const (
	VoidTypeName  = "void"
	NeverTypeName = "never"
)

// Entry key prefixes.
const (
	BoundKeyPrefix   = "<"
	NominalKeyPrefix = NominalMark
)

// Op returns the operation a query performs, or "" when none or several
// are set.
func (q *Query) Op() string {
	var ops []string
	if q.Subtype != nil {
		ops = append(ops, OpSubtype)
	}
	if q.Property != nil {
		ops = append(ops, OpProperty)
	}
	if q.Lt != nil {
		ops = append(ops, OpLt)
	}
	if q.Le != nil {
		ops = append(ops, OpLe)
	}
	if q.Eq != nil {
		ops = append(ops, OpEq)
	}
	if q.Invoke != nil {
		ops = append(ops, OpInvoke)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// PivotSpec is a pivot as written in a session file: either a scalar
// expression such as "n + 1" or "22/7", or a mapping {op, args} for an
// explicit expression tree.
type PivotSpec struct {
	Text string
	Op   string
	Args []PivotSpec
}

func (p *PivotSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if strings.TrimSpace(node.Value) == "" {
			return fmt.Errorf("line %d: empty pivot", node.Line)
		}
		p.Text = node.Value
		return nil
	case yaml.MappingNode:
		var raw struct {
			Op   string      `yaml:"op"`
			Args []PivotSpec `yaml:"args"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		switch raw.Op {
		case "+", "-", "*", "/":
		default:
			return fmt.Errorf("line %d: unknown pivot operator %q", node.Line, raw.Op)
		}
		if len(raw.Args) == 0 {
			return fmt.Errorf("line %d: operator %q needs arguments", node.Line, raw.Op)
		}
		p.Op, p.Args = raw.Op, raw.Args
		return nil
	}
	return fmt.Errorf("line %d: pivot must be a scalar or a mapping", node.Line)
}

func (p PivotSpec) String() string {
	if p.Op == "" {
		return p.Text
	}
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, " "+p.Op+" ") + ")"
}

// ValidationError reports a semantic problem in a session file.
type ValidationError struct {
	Path    string
	Where   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Where, e.Message)
}

func NewValidationError(path, where, format string, a ...interface{}) *ValidationError {
	return &ValidationError{Path: path, Where: where, Message: fmt.Sprintf(format, a...)}
}

// LoadSession reads and parses a session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}
	return ParseSession(data, path)
}

// ParseSession parses session content from bytes.
// The path argument is used only for error messages.
func ParseSession(data []byte, path string) (*Session, error) {
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(path); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the session for errors that do not need the kernel:
// shape of declarations, query arity and expectation values. Type name
// resolution happens when the session is built.
func (s *Session) Validate(path string) error {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		where := fmt.Sprintf("types.%s", name)
		if name == VoidTypeName || name == NeverTypeName {
			return NewValidationError(path, where, "%q is predeclared", name)
		}
		spec := s.Types[name]
		exclusive := 0
		if spec.Primitive != nil {
			exclusive++
			switch spec.Primitive.(type) {
			case string, int, int64, float64:
			default:
				return NewValidationError(path, where, "primitive must be a string or a number, got %T", spec.Primitive)
			}
		}
		if spec.Exact != nil {
			exclusive++
			if *spec.Exact < 0 {
				return NewValidationError(path, where, "exact must be non-negative")
			}
		}
		if spec.Union != nil {
			exclusive++
		}
		if spec.Never {
			exclusive++
		}
		if exclusive > 1 {
			return NewValidationError(path, where, "primitive, exact, union and never are mutually exclusive")
		}
		if exclusive == 1 && (spec.Ordinal != nil || spec.Entries != nil || spec.Branded) {
			return NewValidationError(path, where, "ordinal, entries and branded only combine with each other")
		}
		for key := range spec.Entries {
			if key == "" || key == BoundKeyPrefix || key == NominalKeyPrefix {
				return NewValidationError(path, where, "invalid entry key %q", key)
			}
		}
	}

	for i := range s.Queries {
		q := &s.Queries[i]
		where := fmt.Sprintf("queries[%d]", i)
		if q.Name != "" {
			where += " (" + q.Name + ")"
		}
		op := q.Op()
		switch op {
		case "":
			return NewValidationError(path, where, "exactly one of subtype, property, lt, le, eq or invoke is required")
		case OpSubtype:
			if len(q.Subtype) != 2 {
				return NewValidationError(path, where, "subtype takes two types")
			}
			if !oneOf(q.Expect, "", "true", "false") {
				return NewValidationError(path, where, "subtype expects true or false, got %q", q.Expect)
			}
		case OpProperty:
			if len(q.Property) != 2 {
				return NewValidationError(path, where, "property takes a type and a key")
			}
		case OpLt, OpLe, OpEq:
			args := q.Lt
			switch op {
			case OpLe:
				args = q.Le
			case OpEq:
				args = q.Eq
			}
			if len(args) != 2 {
				return NewValidationError(path, where, "%s takes two pivots", op)
			}
			if !oneOf(q.Expect, "", "true", "false", "unknown") {
				return NewValidationError(path, where, "%s expects true, false or unknown, got %q", op, q.Expect)
			}
		case OpInvoke:
			if len(q.Invoke) == 0 {
				return NewValidationError(path, where, "invoke needs a function")
			}
		}
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// IsSessionFile reports whether path has a session file extension.
func IsSessionFile(path string) bool {
	for _, ext := range SessionFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
