package pivot

import (
	"math/big"

	"github.com/funvibe/morf/internal/config"
)

// Tri is a three-valued truth value. Unknown means the oracle cannot decide,
// never that the answer is false.
type Tri int

const (
	Unknown Tri = iota
	True
	False
)

func (t Tri) String() string {
	switch t {
	case True:
		return "True"
	case False:
		return "False"
	default:
		return "Unknown"
	}
}

// IsTrue reports t == True.
func (t Tri) IsTrue() bool { return t == True }

func triOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

var (
	piLower = mustRat(config.PiLowerBound)
	piUpper = mustRat(config.PiUpperBound)
)

func mustRat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("pivot: bad rational constant " + s)
	}
	return r
}

func isInfinity(p Pivot) bool {
	s, ok := p.(Sym)
	return ok && s.Name == config.InfinitySymbol
}

func isPi(p Pivot) bool {
	s, ok := p.(Sym)
	return ok && s.Name == config.PiSymbol
}

// CompareLt decides a < b.
func CompareLt(a, b Pivot) Tri {
	ra, aRat := a.(Rat)
	rb, bRat := b.(Rat)
	if aRat && bRat {
		if !ra.Valid() || !rb.Valid() {
			return Unknown
		}
		return triOf(crossCmp(ra, rb) < 0)
	}

	// Infinity is top.
	if isInfinity(a) {
		return False
	}
	if isInfinity(b) {
		return True
	}

	sa, aSym := a.(Sym)
	sb, bSym := b.(Sym)
	if aSym && bSym {
		if sa.Name == sb.Name {
			return False
		}
		return Unknown
	}

	if f, err := Linearize(Sub(a, b)); err == nil && f.IsConst() {
		return triOf(f.Const.Sign() < 0)
	}

	return comparePiLt(a, b)
}

// comparePiLt brackets Pi between two decimals when the other side is a
// rational.
func comparePiLt(a, b Pivot) Tri {
	if r, ok := a.(Rat); ok && r.Valid() && isPi(b) {
		v := r.Rat()
		switch {
		case v.Cmp(piLower) <= 0:
			return True
		case v.Cmp(piUpper) >= 0:
			return False
		}
		return Unknown
	}
	if r, ok := b.(Rat); ok && r.Valid() && isPi(a) {
		v := r.Rat()
		switch {
		case v.Cmp(piUpper) >= 0:
			return True
		case v.Cmp(piLower) <= 0:
			return False
		}
		return Unknown
	}
	return Unknown
}

// CompareEq decides a == b. Outside of two rationals or two symbols it only
// ever proves equality; a non-zero difference is reported as Unknown.
func CompareEq(a, b Pivot) Tri {
	ra, aRat := a.(Rat)
	rb, bRat := b.(Rat)
	if aRat && bRat {
		if !ra.Valid() || !rb.Valid() {
			return Unknown
		}
		return triOf(crossCmp(ra, rb) == 0)
	}

	sa, aSym := a.(Sym)
	sb, bSym := b.(Sym)
	if aSym && bSym {
		return triOf(sa.Name == sb.Name)
	}

	if f, err := Linearize(Sub(a, b)); err == nil && f.IsConst() && f.Const.Sign() == 0 {
		return True
	}
	return Unknown
}

// CompareLe is CompareLt or CompareEq: True if either proves it.
func CompareLe(a, b Pivot) Tri {
	lt := CompareLt(a, b)
	if lt == True {
		return True
	}
	if CompareEq(a, b) == True {
		return True
	}
	if lt == False && CompareEq(a, b) == False {
		return False
	}
	return Unknown
}
