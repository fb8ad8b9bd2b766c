package typesystem

import (
	"strconv"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/pivot"
)

// Projection names the rule that resolved a property access.
type Projection int

const (
	ProjectAbsent  Projection = iota // nothing known, Void
	ProjectDirect                    // explicit namespace entry
	ProjectLength                    // virtual .length of a string
	ProjectIndex                     // virtual .i of a string
	ProjectImplied                   // ordinal already below the queried bound, Void
	ProjectLegacy                    // an existing Lt entry at or below the queried bound, Void
)

func (p Projection) String() string {
	switch p {
	case ProjectDirect:
		return "direct"
	case ProjectLength:
		return "length"
	case ProjectIndex:
		return "index"
	case ProjectImplied:
		return "implied"
	case ProjectLegacy:
		return "legacy"
	}
	return "absent"
}

// GetProperty looks key up on t. It is total: anything it cannot resolve
// is Void.
func (in *Interner) GetProperty(t MorfType, key *Key) MorfType {
	v, _ := in.Project(t, key)
	return v
}

// Project is GetProperty that also reports which rule fired. String
// length and indices count Unicode code points, not UTF-16 units.
func (in *Interner) Project(t MorfType, key *Key) (MorfType, Projection) {
	switch t := t.(type) {
	case *Primitive:
		if s, ok := t.Text(); ok {
			return in.projectString(s, key)
		}
	case *Namespace:
		return in.projectNamespace(t, key)
	}
	// Unions are not distributed over.
	return in.void, ProjectAbsent
}

func (in *Interner) projectString(s string, key *Key) (MorfType, Projection) {
	if !key.IsLiteral() {
		return in.void, ProjectAbsent
	}
	runes := []rune(s)
	if key.Literal() == config.LengthKey {
		return in.Exact(len(runes)), ProjectLength
	}
	if i, ok := parseIndex(key.Literal()); ok && i < len(runes) {
		return in.InternPrimitive(string(runes[i])), ProjectIndex
	}
	return in.void, ProjectAbsent
}

func (in *Interner) projectNamespace(ns *Namespace, key *Key) (MorfType, Projection) {
	if v, ok := ns.entries[key]; ok {
		return v, ProjectDirect
	}
	q, isBound := key.Bound()
	if !isBound {
		return in.void, ProjectAbsent
	}
	if ord, ok := ns.Ordinal(); ok && pivot.CompareLt(ord, q) == pivot.True {
		return in.void, ProjectImplied
	}
	for k := range ns.entries {
		if p, ok := k.Bound(); ok && atMost(p, q) {
			return in.void, ProjectLegacy
		}
	}
	return in.void, ProjectAbsent
}

// Exact returns the nominal encoding of the integer n:
// { __nominal__: { #n: NominalProof } }.
func (in *Interner) Exact(n int) *Namespace {
	proof := in.InternPrimitive(config.NominalProof)
	tag := in.NominalKey(config.NominalMark + strconv.Itoa(n))
	inner := in.InternNamespace(map[*Key]MorfType{tag: proof}, nil)
	return in.InternNamespace(map[*Key]MorfType{in.Key(config.NominalKey): inner}, nil)
}

// parseIndex accepts a non-empty run of ASCII digits.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
