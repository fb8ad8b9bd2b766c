package typesystem

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/google/uuid"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/pivot"
)

// Interner hash-conses every MorfType and Key of one evaluation session.
// Structurally equal construction requests return the same pointer, so
// callers compare with ==.
//
// An Interner is not safe for concurrent use.
type Interner struct {
	types map[Hash][]MorfType
	keys  map[Hash][]*Key
	void  *Namespace
	never *Never
	stats Stats
}

// Stats counts table lookups. A collision is a miss on a non-empty bucket.
type Stats struct {
	Hits       int
	Misses     int
	Collisions int
}

func NewInterner() *Interner {
	in := &Interner{
		types: make(map[Hash][]MorfType),
		keys:  make(map[Hash][]*Key),
		never: &Never{},
	}
	in.void = in.InternNamespace(nil, nil)
	return in
}

// Void is the empty namespace: the default for absent data and the top of
// the namespace order.
func (in *Interner) Void() *Namespace { return in.void }

// Never is the bottom type.
func (in *Interner) Never() *Never { return in.never }

func (in *Interner) Stats() Stats { return in.stats }

// Key interns a literal key.
func (in *Interner) Key(lit string) *Key {
	return in.InternKey(KeyRaw{Kind: KeyLiteral, Literal: lit})
}

// LtKey interns the predicate key Lt<p>.
func (in *Interner) LtKey(p pivot.Pivot) *Key {
	return in.InternKey(KeyRaw{Kind: KeyLt, Pivot: p})
}

// NominalKey interns a nominal tag such as "#3".
func (in *Interner) NominalKey(tag string) *Key {
	return in.InternKey(KeyRaw{Kind: KeyNominal, Tag: tag})
}

// FreshNominal returns a nominal key no other request can produce by
// accident.
func (in *Interner) FreshNominal() *Key {
	return in.NominalKey(config.NominalMark + uuid.NewString())
}

func (in *Interner) InternKey(raw KeyRaw) *Key {
	h := raw.hash()
	bucket := in.keys[h]
	for _, k := range bucket {
		if k.raw.equal(raw) {
			in.stats.Hits++
			return k
		}
	}
	in.miss(len(bucket))
	k := &Key{raw: raw, hash: h}
	in.keys[h] = append(bucket, k)
	return k
}

// InternPrimitive interns a scalar payload. Integer kinds widen to int64
// (unsigned values past MaxInt64 to *big.Int), float32 to float64, every
// NaN to one canonical NaN, and *big.Int is copied. Any other payload is
// interned as an Opaque of its fmt text.
func (in *Interner) InternPrimitive(v any) *Primitive {
	v = normalizePayload(v)
	h := primitiveHash(v)
	if found := in.find(h, func(c MorfType) bool {
		p, ok := c.(*Primitive)
		return ok && primitiveEqual(p.Value, v)
	}); found != nil {
		return found.(*Primitive)
	}
	p := &Primitive{Value: v, hash: h}
	in.insert(h, p)
	return p
}

func normalizePayload(v any) any {
	switch v := v.(type) {
	case string, bool, int64, Opaque:
		return v
	case float64:
		return canonicalFloat(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return unsignedPayload(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return unsignedPayload(v)
	case uintptr:
		return unsignedPayload(uint64(v))
	case float32:
		return canonicalFloat(float64(v))
	case *big.Int:
		return new(big.Int).Set(v)
	}
	return Opaque(fmt.Sprint(v))
}

func unsignedPayload(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return new(big.Int).SetUint64(u)
}

func canonicalFloat(f float64) float64 {
	if math.IsNaN(f) {
		return math.NaN()
	}
	return f
}

// InternNamespace interns a namespace. The entries map is copied; a nil
// value is stored as Void. ordinal may be nil.
func (in *Interner) InternNamespace(entries map[*Key]MorfType, ordinal pivot.Pivot) *Namespace {
	own := make(map[*Key]MorfType, len(entries))
	hs := make([]Hash, 0, len(entries))
	for k, v := range entries {
		if v == nil {
			v = in.void
		}
		own[k] = v
		hs = append(hs, Mix(k.hash, v.Hash()))
	}
	h := Mix(HashString("ns"), CombineUnordered(hs...))
	if ordinal != nil {
		h = Mix(h, HashPivot(ordinal))
	}

	if found := in.find(h, func(c MorfType) bool {
		ns, ok := c.(*Namespace)
		return ok && namespaceEqual(ns, own, ordinal)
	}); found != nil {
		return found.(*Namespace)
	}
	ns := &Namespace{entries: own, ordinal: ordinal, hash: h}
	in.insert(h, ns)
	return ns
}

// Ordinal interns the bare magnitude p.
func (in *Interner) Ordinal(p pivot.Pivot) *Namespace {
	return in.InternNamespace(nil, p)
}

func namespaceEqual(ns *Namespace, entries map[*Key]MorfType, ordinal pivot.Pivot) bool {
	if (ns.ordinal == nil) != (ordinal == nil) {
		return false
	}
	if ordinal != nil && !pivot.Equal(ns.ordinal, ordinal) {
		return false
	}
	if len(ns.entries) != len(entries) {
		return false
	}
	for k, v := range entries {
		// Children are canonical, so identity is deep equality.
		if w, ok := ns.entries[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// InternUnion interns the union of members. Nested unions are flattened,
// Never members dropped and duplicates removed; an empty result is Never
// and a single member is returned as itself.
func (in *Interner) InternUnion(members ...MorfType) MorfType {
	seen := make(map[MorfType]bool)
	flat := []MorfType{}
	var add func(m MorfType)
	add = func(m MorfType) {
		switch m := m.(type) {
		case nil, *Never:
			return
		case *Union:
			for _, inner := range m.members {
				add(inner)
			}
			return
		}
		if !seen[m] {
			seen[m] = true
			flat = append(flat, m)
		}
	}
	for _, m := range members {
		add(m)
	}

	switch len(flat) {
	case 0:
		return in.never
	case 1:
		return flat[0]
	}

	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].Hash() != flat[j].Hash() {
			return flat[i].Hash() < flat[j].Hash()
		}
		return flat[i].String() < flat[j].String()
	})
	hs := make([]Hash, len(flat))
	for i, m := range flat {
		hs[i] = m.Hash()
	}
	h := Mix(HashString("union"), CombineUnordered(hs...))

	if found := in.find(h, func(c MorfType) bool {
		u, ok := c.(*Union)
		if !ok || len(u.members) != len(flat) {
			return false
		}
		for _, m := range u.members {
			if !seen[m] {
				return false
			}
		}
		return true
	}); found != nil {
		return found
	}
	u := &Union{members: flat, hash: h}
	in.insert(h, u)
	return u
}

// NewFunction creates a function value. Functions carry an ordered content
// hash but are not hash-consed: each call returns a new identity.
func (in *Interner) NewFunction(name string, params []string, variadic bool, apply ApplyFunc) *TypeFunction {
	return &TypeFunction{
		Name:       name,
		Params:     append([]string{}, params...),
		IsVariadic: variadic,
		Apply:      apply,
		hash:       functionHash(name, params, variadic),
	}
}

func (in *Interner) find(h Hash, eq func(MorfType) bool) MorfType {
	bucket := in.types[h]
	for _, c := range bucket {
		if eq(c) {
			in.stats.Hits++
			return c
		}
	}
	in.miss(len(bucket))
	return nil
}

func (in *Interner) insert(h Hash, t MorfType) {
	in.types[h] = append(in.types[h], t)
}

func (in *Interner) miss(bucketLen int) {
	in.stats.Misses++
	if bucketLen > 0 {
		in.stats.Collisions++
	}
}
