// Package pivot implements the ordering domain of the kernel: exact rationals,
// named symbolic constants and symbolic expressions over them, together with
// a sound but incomplete oracle deciding < and == between them.
package pivot

import (
	"fmt"
	"math/big"
	"strings"
)

// Pivot is a value in the ordering domain: Rat, Sym or Expr.
type Pivot interface {
	String() string
	pivot()
}

// Rat is an exact rational. It is kept as constructed; reduction to lowest
// terms happens when it is compared or hashed.
type Rat struct {
	N *big.Int
	D *big.Int
}

// Sym is a named symbolic constant such as Pi or Infinity.
type Sym struct {
	Name string
}

// Expr is a symbolic expression node. Op is one of + - * /.
type Expr struct {
	Op   string
	Args []Pivot
}

const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
)

func (Rat) pivot()  {}
func (Sym) pivot()  {}
func (Expr) pivot() {}

func NewRat(n, d int64) Rat {
	return Rat{N: big.NewInt(n), D: big.NewInt(d)}
}

func Int(n int64) Rat {
	return NewRat(n, 1)
}

// RatFromBig copies n and d.
func RatFromBig(n, d *big.Int) Rat {
	return Rat{N: new(big.Int).Set(n), D: new(big.Int).Set(d)}
}

func ratFromBigRat(r *big.Rat) Rat {
	return RatFromBig(r.Num(), r.Denom())
}

func S(name string) Sym {
	return Sym{Name: name}
}

func Add(args ...Pivot) Expr { return Expr{Op: OpAdd, Args: args} }
func Sub(a, b Pivot) Expr    { return Expr{Op: OpSub, Args: []Pivot{a, b}} }
func Neg(a Pivot) Expr       { return Expr{Op: OpSub, Args: []Pivot{a}} }
func Mul(args ...Pivot) Expr { return Expr{Op: OpMul, Args: args} }
func Div(a, b Pivot) Expr    { return Expr{Op: OpDiv, Args: []Pivot{a, b}} }

// Valid reports whether the denominator is non-zero.
func (r Rat) Valid() bool {
	return r.N != nil && r.D != nil && r.D.Sign() != 0
}

// Reduced returns r in lowest terms with a positive denominator.
// The receiver is not modified. r must be Valid.
func (r Rat) Reduced() Rat {
	n := new(big.Int).Set(r.N)
	d := new(big.Int).Set(r.D)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	if g.Sign() != 0 && g.Cmp(big.NewInt(1)) != 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	return Rat{N: n, D: d}
}

// Rat returns r as a big.Rat. r must be Valid.
func (r Rat) Rat() *big.Rat {
	return new(big.Rat).SetFrac(r.N, r.D)
}

func (r Rat) String() string {
	if !r.Valid() {
		return fmt.Sprintf("%v/%v", r.N, r.D)
	}
	red := r.Reduced()
	if red.D.IsInt64() && red.D.Int64() == 1 {
		return red.N.String()
	}
	return red.N.String() + "/" + red.D.String()
}

func (s Sym) String() string { return s.Name }

func (e Expr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	if e.Op == OpSub && len(e.Args) == 1 {
		return "(-" + parts[0] + ")"
	}
	return "(" + strings.Join(parts, " "+e.Op+" ") + ")"
}

// Equal is structural equality: rationals by value, symbols by name,
// expressions by operator and arguments in order.
func Equal(a, b Pivot) bool {
	switch a := a.(type) {
	case Rat:
		b, ok := b.(Rat)
		if !ok {
			return false
		}
		if !a.Valid() || !b.Valid() {
			return a.Valid() == b.Valid() && fmt.Sprint(a.N, a.D) == fmt.Sprint(b.N, b.D)
		}
		return crossCmp(a, b) == 0
	case Sym:
		b, ok := b.(Sym)
		return ok && a.Name == b.Name
	case Expr:
		b, ok := b.(Expr)
		if !ok || a.Op != b.Op || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// crossCmp compares two valid rationals by cross-multiplication after
// normalizing both denominators positive.
func crossCmp(a, b Rat) int {
	a, b = a.Reduced(), b.Reduced()
	left := new(big.Int).Mul(a.N, b.D)
	right := new(big.Int).Mul(b.N, a.D)
	return left.Cmp(right)
}
