package pivot

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// LinearForm is sum(Terms[name] * name) + Const.
// Terms never holds a zero coefficient.
type LinearForm struct {
	Terms map[string]*big.Rat
	Const *big.Rat
}

// NonLinearError reports a pivot that has no linear form.
type NonLinearError struct {
	Pivot  Pivot
	Reason string
}

func (e *NonLinearError) Error() string {
	return fmt.Sprintf("not linear: %s: %s", e.Pivot, e.Reason)
}

func NewNonLinearError(p Pivot, reason string) *NonLinearError {
	return &NonLinearError{Pivot: p, Reason: reason}
}

func constForm(r *big.Rat) LinearForm {
	return LinearForm{Terms: map[string]*big.Rat{}, Const: r}
}

// IsConst reports whether no symbol terms remain.
func (f LinearForm) IsConst() bool {
	return len(f.Terms) == 0
}

func (f LinearForm) String() string {
	names := make([]string, 0, len(f.Terms))
	for name := range f.Terms {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		parts = append(parts, f.Terms[name].RatString()+"*"+name)
	}
	if f.Const.Sign() != 0 || len(parts) == 0 {
		parts = append(parts, f.Const.RatString())
	}
	return strings.Join(parts, " + ")
}

func (f LinearForm) add(g LinearForm) LinearForm {
	out := constForm(new(big.Rat).Add(f.Const, g.Const))
	for name, c := range f.Terms {
		out.Terms[name] = new(big.Rat).Set(c)
	}
	for name, c := range g.Terms {
		if prev, ok := out.Terms[name]; ok {
			sum := new(big.Rat).Add(prev, c)
			if sum.Sign() == 0 {
				delete(out.Terms, name)
			} else {
				out.Terms[name] = sum
			}
			continue
		}
		out.Terms[name] = new(big.Rat).Set(c)
	}
	return out
}

func (f LinearForm) scale(k *big.Rat) LinearForm {
	out := constForm(new(big.Rat).Mul(f.Const, k))
	if k.Sign() == 0 {
		return out
	}
	for name, c := range f.Terms {
		out.Terms[name] = new(big.Rat).Mul(c, k)
	}
	return out
}

func (f LinearForm) neg() LinearForm {
	return f.scale(big.NewRat(-1, 1))
}

// Linearize reduces p to a linear form over its symbols. Products of two
// symbolic operands, division by a symbolic or zero divisor, malformed
// rationals and unknown operators yield a *NonLinearError.
func Linearize(p Pivot) (LinearForm, error) {
	switch p := p.(type) {
	case Rat:
		if !p.Valid() {
			return LinearForm{}, NewNonLinearError(p, "zero denominator")
		}
		return constForm(p.Rat()), nil
	case Sym:
		return LinearForm{
			Terms: map[string]*big.Rat{p.Name: big.NewRat(1, 1)},
			Const: new(big.Rat),
		}, nil
	case Expr:
		return linearizeExpr(p)
	}
	return LinearForm{}, NewNonLinearError(p, "unknown pivot")
}

func linearizeExpr(e Expr) (LinearForm, error) {
	forms := make([]LinearForm, len(e.Args))
	for i, a := range e.Args {
		f, err := Linearize(a)
		if err != nil {
			return LinearForm{}, err
		}
		forms[i] = f
	}

	switch e.Op {
	case OpAdd:
		acc := constForm(new(big.Rat))
		for _, f := range forms {
			acc = acc.add(f)
		}
		return acc, nil

	case OpSub:
		switch len(forms) {
		case 0:
			return LinearForm{}, NewNonLinearError(e, "empty subtraction")
		case 1:
			return forms[0].neg(), nil
		}
		acc := forms[0]
		for _, f := range forms[1:] {
			acc = acc.add(f.neg())
		}
		return acc, nil

	case OpMul:
		acc := constForm(big.NewRat(1, 1))
		symbolic := false
		for _, f := range forms {
			if f.IsConst() {
				acc = acc.scale(f.Const)
				continue
			}
			if symbolic {
				return LinearForm{}, NewNonLinearError(e, "product of two symbolic operands")
			}
			symbolic = true
			acc = f.scale(acc.Const)
		}
		return acc, nil

	case OpDiv:
		if len(forms) != 2 {
			return LinearForm{}, NewNonLinearError(e, "division needs two operands")
		}
		if !forms[1].IsConst() {
			return LinearForm{}, NewNonLinearError(e, "symbolic divisor")
		}
		if forms[1].Const.Sign() == 0 {
			return LinearForm{}, NewNonLinearError(e, "division by zero")
		}
		return forms[0].scale(new(big.Rat).Inv(forms[1].Const)), nil
	}
	return LinearForm{}, NewNonLinearError(e, "unknown operator "+e.Op)
}
