package typesystem

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/morf/internal/pivot"
)

// Kind discriminates the MorfType variants.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNamespace
	KindUnion
	KindNever
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindNamespace:
		return "Namespace"
	case KindUnion:
		return "Union"
	case KindNever:
		return "Never"
	case KindFunction:
		return "TypeFunction"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MorfType is the canonical value/type representation. Values are only
// created through an Interner, so == on two MorfTypes from the same Interner
// is structural equality.
type MorfType interface {
	Kind() Kind
	Hash() Hash
	String() string
	morf()
}

// KeyKind discriminates KeyRaw.
type KeyKind int

const (
	KeyLiteral KeyKind = iota // verbatim scalar, e.g. "length" or "0"
	KeyLt                     // upper bound predicate Lt<Pivot>
	KeyNominal                // opaque identity marker, e.g. "#3"
)

// KeyRaw is the structural description of a Key. Literal is set for
// KeyLiteral, Pivot for KeyLt and Tag for KeyNominal.
type KeyRaw struct {
	Kind    KeyKind
	Literal string
	Pivot   pivot.Pivot
	Tag     string
}

func (r KeyRaw) hash() Hash {
	switch r.Kind {
	case KeyLiteral:
		return Mix(HashString("lit"), HashString(r.Literal))
	case KeyLt:
		return Mix(HashString("lt"), HashPivot(r.Pivot))
	case KeyNominal:
		return Mix(HashString("nominal"), HashString(r.Tag))
	}
	return 0
}

func (r KeyRaw) equal(o KeyRaw) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case KeyLiteral:
		return r.Literal == o.Literal
	case KeyLt:
		if r.Pivot == nil || o.Pivot == nil {
			return r.Pivot == nil && o.Pivot == nil
		}
		return pivot.Equal(r.Pivot, o.Pivot)
	case KeyNominal:
		return r.Tag == o.Tag
	}
	return false
}

func (r KeyRaw) String() string {
	switch r.Kind {
	case KeyLt:
		if r.Pivot == nil {
			return "Lt<?>"
		}
		return "Lt<" + r.Pivot.String() + ">"
	case KeyNominal:
		return r.Tag
	}
	return r.Literal
}

// Key is an interned namespace key. Compare Keys with ==.
type Key struct {
	raw  KeyRaw
	hash Hash
}

func (k *Key) Raw() KeyRaw     { return k.raw }
func (k *Key) Hash() Hash      { return k.hash }
func (k *Key) String() string  { return k.raw.String() }
func (k *Key) IsLiteral() bool { return k.raw.Kind == KeyLiteral }
func (k *Key) Literal() string { return k.raw.Literal }
func (k *Key) IsNominal() bool { return k.raw.Kind == KeyNominal }

// Bound returns q for an Lt<q> key.
func (k *Key) Bound() (pivot.Pivot, bool) {
	if k.raw.Kind != KeyLt || k.raw.Pivot == nil {
		return nil, false
	}
	return k.raw.Pivot, true
}

// Primitive wraps an opaque scalar. Payloads are string, bool, int64,
// float64, *big.Int or Opaque.
type Primitive struct {
	Value any
	hash  Hash
}

func (*Primitive) morf()        {}
func (*Primitive) Kind() Kind   { return KindPrimitive }
func (p *Primitive) Hash() Hash { return p.hash }

func (p *Primitive) String() string {
	if s, ok := p.Value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(p.Value)
}

// Text returns the payload when it is a string.
func (p *Primitive) Text() (string, bool) {
	s, ok := p.Value.(string)
	return s, ok
}

// Opaque is the payload of a value the interner has no scalar model for.
// It is interned by its fmt text but never equals a string.
type Opaque string

func primitiveHash(v any) Hash {
	switch v := v.(type) {
	case string:
		return Mix(HashString("str"), HashString(v))
	case bool:
		return Mix(HashString("bool"), HashString(strconv.FormatBool(v)))
	case int64:
		return Mix(HashString("int"), HashNumber(v))
	case float64:
		return Mix(HashString("float"), HashNumber(v))
	case *big.Int:
		return Mix(HashString("bigint"), HashBigInt(v))
	case Opaque:
		return Mix(HashString("opaque"), HashString(string(v)))
	}
	return 0
}

func primitiveEqual(a, b any) bool {
	switch a := a.(type) {
	case *big.Int:
		b, ok := b.(*big.Int)
		return ok && a.Cmp(b) == 0
	case float64:
		// Bitwise, so that -0 and 0 stay apart like their hashes.
		b, ok := b.(float64)
		return ok && math.Float64bits(a) == math.Float64bits(b)
	case string, bool, int64, Opaque:
		return a == b
	}
	return false
}

// Namespace maps Keys to MorfTypes, optionally carrying an ordinal that
// marks it as a magnitude.
type Namespace struct {
	entries map[*Key]MorfType
	ordinal pivot.Pivot
	hash    Hash
}

func (*Namespace) morf()        {}
func (*Namespace) Kind() Kind   { return KindNamespace }
func (n *Namespace) Hash() Hash { return n.hash }
func (n *Namespace) Len() int   { return len(n.entries) }

// Lookup returns the explicit entry for k.
func (n *Namespace) Lookup(k *Key) (MorfType, bool) {
	v, ok := n.entries[k]
	return v, ok
}

// Ordinal returns the ordinal pivot, if any.
func (n *Namespace) Ordinal() (pivot.Pivot, bool) {
	return n.ordinal, n.ordinal != nil
}

// Entry is one namespace binding.
type Entry struct {
	Key   *Key
	Value MorfType
}

// Entries returns the bindings sorted by key text for deterministic output.
func (n *Namespace) Entries() []Entry {
	out := make([]Entry, 0, len(n.entries))
	for k, v := range n.entries {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.raw.Kind != b.raw.Kind {
			return a.raw.Kind < b.raw.Kind
		}
		return a.String() < b.String()
	})
	return out
}

func (n *Namespace) String() string {
	parts := []string{}
	if n.ordinal != nil {
		parts = append(parts, "ordinal "+n.ordinal.String())
	}
	for _, e := range n.Entries() {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Key, e.Value))
	}
	if len(parts) == 0 {
		return "Void"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Union is one of its members.
type Union struct {
	members []MorfType
	hash    Hash
}

func (*Union) morf()        {}
func (*Union) Kind() Kind   { return KindUnion }
func (u *Union) Hash() Hash { return u.hash }

// Members returns the union members. The slice must not be modified.
func (u *Union) Members() []MorfType { return u.members }

func (u *Union) String() string {
	parts := make([]string, len(u.members))
	for i, m := range u.members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// Never is the bottom type. There is one per Interner.
type Never struct{}

func (*Never) morf()          {}
func (*Never) Kind() Kind     { return KindNever }
func (*Never) Hash() Hash     { return neverHash }
func (*Never) String() string { return "Never" }

var neverHash = HashString("Never")

// Bindings maps parameter names to arguments for TypeFunction.Apply.
type Bindings map[string]MorfType

// ApplyFunc is the body of a native or evaluated function. It may return an
// error or panic; Invoke absorbs both.
type ApplyFunc func(Bindings) (MorfType, error)

// TypeFunction is a callable. Functions are compared by identity.
type TypeFunction struct {
	Name       string
	Params     []string
	IsVariadic bool
	Apply      ApplyFunc
	hash       Hash
}

func (*TypeFunction) morf()        {}
func (*TypeFunction) Kind() Kind   { return KindFunction }
func (f *TypeFunction) Hash() Hash { return f.hash }

func (f *TypeFunction) String() string {
	params := append([]string{}, f.Params...)
	if f.IsVariadic && len(params) > 0 {
		params[len(params)-1] = "..." + params[len(params)-1]
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(params, ", "))
}

func functionHash(name string, params []string, variadic bool) Hash {
	h := Mix(HashString("fn"), HashString(name))
	for _, p := range params {
		h = Mix(h, HashString(p))
	}
	return Mix(h, HashString(strconv.FormatBool(variadic)))
}
