package typesystem

import "github.com/funvibe/morf/internal/pivot"

// IsSubtype decides a <: b. The first matching rule wins:
//
//  1. a == b (identity is structural equality under interning)
//  2. a is Never
//  3. b is Never: false
//  4. a is a union: every member must be a subtype of b
//  5. b is a union: a must be a subtype of some member
//  6. two namespaces: ordinal and structural rules
//  7. two primitives: invariant, already decided by 1
//  8. otherwise false
func (in *Interner) IsSubtype(a, b MorfType) bool {
	if a == b {
		return true
	}
	if _, ok := a.(*Never); ok {
		return true
	}
	if _, ok := b.(*Never); ok {
		return false
	}
	if u, ok := a.(*Union); ok {
		for _, m := range u.members {
			if !in.IsSubtype(m, b) {
				return false
			}
		}
		return true
	}
	if u, ok := b.(*Union); ok {
		for _, m := range u.members {
			if in.IsSubtype(a, m) {
				return true
			}
		}
		return false
	}

	switch a := a.(type) {
	case *Namespace:
		if b, ok := b.(*Namespace); ok {
			return in.isNamespaceSubtype(a, b)
		}
	case *Primitive:
		return false
	}
	return false
}

// isNamespaceSubtype is width and depth subtyping on entries plus an
// ordinal check when b is a magnitude. Void is top.
func (in *Interner) isNamespaceSubtype(a, b *Namespace) bool {
	if b == in.void {
		return true
	}

	if bound, ok := b.Ordinal(); ok {
		if ord, ok := a.Ordinal(); ok {
			if !atMost(ord, bound) {
				return false
			}
		} else if !hasBoundAtMost(a, bound) {
			return false
		}
	}

	for k, want := range b.entries {
		if !in.IsSubtype(in.GetProperty(a, k), want) {
			return false
		}
	}
	return true
}

// atMost reports whether the oracle proves p <= q.
func atMost(p, q pivot.Pivot) bool {
	return pivot.CompareLe(p, q) == pivot.True
}

// hasBoundAtMost reports whether a carries some Lt<q> entry with q <= bound.
func hasBoundAtMost(a *Namespace, bound pivot.Pivot) bool {
	for k := range a.entries {
		if q, ok := k.Bound(); ok && atMost(q, bound) {
			return true
		}
	}
	return false
}
