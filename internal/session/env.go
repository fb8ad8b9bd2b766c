// Package session turns a parsed session file into interned kernel values
// and runs its queries.
package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/evaluator"
	"github.com/funvibe/morf/internal/pivot"
	"github.com/funvibe/morf/internal/typesystem"
)

// UnknownTypeError reports a reference to an undeclared type name.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Name)
}

func NewUnknownTypeError(name string) *UnknownTypeError {
	return &UnknownTypeError{Name: name}
}

// CycleError reports type declarations that refer to themselves. Types are
// values, so a declaration can only use names that are already built.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic type declaration: " + strings.Join(e.Path, " -> ")
}

// Env holds the interned values of one session.
type Env struct {
	Types   *typesystem.Interner
	Eval    *evaluator.Evaluator
	Natives map[string]*typesystem.TypeFunction

	specs    map[string]config.TypeSpec
	named    map[string]typesystem.MorfType
	visiting []string
}

// NewEnv creates an empty environment with its own interner. Effects raised
// by invocations go to effect.
func NewEnv(effect evaluator.EffectHandler) *Env {
	types := typesystem.NewInterner()
	eval := evaluator.New(types, effect)
	return &Env{
		Types:   types,
		Eval:    eval,
		Natives: evaluator.Builtins(eval),
		specs:   map[string]config.TypeSpec{},
		named:   map[string]typesystem.MorfType{},
	}
}

// Build interns every type declared in s. Declarations are built in name
// order; references are resolved on demand.
func Build(s *config.Session, effect evaluator.EffectHandler) (*Env, error) {
	env := NewEnv(effect)
	for name, spec := range s.Types {
		env.specs[name] = spec
	}
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := env.Lookup(name); err != nil {
			return nil, fmt.Errorf("types.%s: %w", name, err)
		}
	}
	return env, nil
}

// Lookup resolves a type name. Declared names shadow native functions.
func (env *Env) Lookup(name string) (typesystem.MorfType, error) {
	if t, ok := env.named[name]; ok {
		return t, nil
	}
	switch name {
	case config.VoidTypeName:
		return env.Types.Void(), nil
	case config.NeverTypeName:
		return env.Types.Never(), nil
	}
	spec, ok := env.specs[name]
	if !ok {
		if fn, ok := env.Natives[name]; ok {
			return fn, nil
		}
		return nil, NewUnknownTypeError(name)
	}

	for i, v := range env.visiting {
		if v == name {
			path := append(append([]string{}, env.visiting[i:]...), name)
			return nil, &CycleError{Path: path}
		}
	}
	env.visiting = append(env.visiting, name)
	defer func() { env.visiting = env.visiting[:len(env.visiting)-1] }()

	t, err := env.build(spec)
	if err != nil {
		return nil, err
	}
	env.named[name] = t
	return t, nil
}

// Names returns the names built so far, in order.
func (env *Env) Names() []string {
	names := make([]string, 0, len(env.named))
	for name := range env.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (env *Env) build(spec config.TypeSpec) (typesystem.MorfType, error) {
	switch {
	case spec.Primitive != nil:
		return env.Types.InternPrimitive(spec.Primitive), nil
	case spec.Exact != nil:
		return env.Types.Exact(*spec.Exact), nil
	case spec.Never:
		return env.Types.Never(), nil
	case spec.Union != nil:
		members := make([]typesystem.MorfType, 0, len(spec.Union))
		for _, name := range spec.Union {
			m, err := env.Lookup(name)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return env.Types.InternUnion(members...), nil
	}

	var ordinal pivot.Pivot
	if spec.Ordinal != nil {
		p, err := ParsePivot(*spec.Ordinal)
		if err != nil {
			return nil, err
		}
		ordinal = p
	}
	entries := make(map[*typesystem.Key]typesystem.MorfType, len(spec.Entries))
	for text, name := range spec.Entries {
		key, err := env.ParseKey(text)
		if err != nil {
			return nil, err
		}
		v, err := env.Lookup(name)
		if err != nil {
			return nil, err
		}
		entries[key] = v
	}
	if spec.Branded {
		entries[env.Types.FreshNominal()] = env.Types.InternPrimitive(config.NominalProof)
	}
	return env.Types.InternNamespace(entries, ordinal), nil
}

// ParseKey reads a key in session syntax: "<p" is the bound key Lt<p>,
// "#tag" a nominal key, anything else a literal.
func (env *Env) ParseKey(text string) (*typesystem.Key, error) {
	switch {
	case strings.HasPrefix(text, config.BoundKeyPrefix):
		p, err := pivot.Parse(text[len(config.BoundKeyPrefix):])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", text, err)
		}
		return env.Types.LtKey(p), nil
	case strings.HasPrefix(text, config.NominalKeyPrefix):
		return env.Types.NominalKey(text), nil
	}
	return env.Types.Key(text), nil
}

// ParsePivot converts a session pivot into a kernel pivot.
func ParsePivot(spec config.PivotSpec) (pivot.Pivot, error) {
	if spec.Op == "" {
		return pivot.Parse(spec.Text)
	}
	args := make([]pivot.Pivot, len(spec.Args))
	for i, a := range spec.Args {
		p, err := ParsePivot(a)
		if err != nil {
			return nil, err
		}
		args[i] = p
	}
	return pivot.Expr{Op: spec.Op, Args: args}, nil
}
