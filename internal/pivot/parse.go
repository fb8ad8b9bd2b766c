package pivot

import (
	"fmt"
	"math/big"
	"unicode"
)

// Parse reads a pivot from text: decimal literals ("3", "-2.5"), identifiers
// ("Pi", "n"), and infix + - * / with the usual precedence and parentheses.
// A quotient or negation of literals folds into a single Rat, so "1/2" is
// Rat{1, 2} rather than an Expr.
func Parse(text string) (Pivot, error) {
	p := &parser{src: []rune(text)}
	v, err := p.sum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("pivot %q: unexpected %q at %d", text, string(p.src[p.pos]), p.pos)
	}
	return v, nil
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) sum() (Pivot, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			left = Add(left, right)
		} else {
			left = Sub(left, right)
		}
	}
}

func (p *parser) product() (Pivot, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '*' {
			left = Mul(left, right)
			continue
		}
		if q, ok := foldQuotient(left, right); ok {
			left = q
			continue
		}
		left = Div(left, right)
	}
}

func (p *parser) unary() (Pivot, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.unary()
		if err != nil {
			return nil, err
		}
		if r, ok := v.(Rat); ok {
			return RatFromBig(new(big.Int).Neg(r.N), r.D), nil
		}
		return Neg(v), nil
	}
	return p.atom()
}

func (p *parser) atom() (Pivot, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, fmt.Errorf("pivot: unexpected end of input")
	case c == '(':
		p.pos++
		v, err := p.sum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("pivot: missing ) at %d", p.pos)
		}
		p.pos++
		return v, nil
	case unicode.IsDigit(c) || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		lit := string(p.src[start:p.pos])
		r, ok := new(big.Rat).SetString(lit)
		if !ok {
			return nil, fmt.Errorf("pivot: bad number %q", lit)
		}
		return ratFromBigRat(r), nil
	case unicode.IsLetter(c) || c == '_':
		start := p.pos
		for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
			p.pos++
		}
		return S(string(p.src[start:p.pos])), nil
	}
	return nil, fmt.Errorf("pivot: unexpected %q at %d", string(c), p.pos)
}

func foldQuotient(a, b Pivot) (Pivot, bool) {
	ra, ok := a.(Rat)
	if !ok {
		return nil, false
	}
	rb, ok := b.(Rat)
	if !ok || !rb.Valid() || rb.N.Sign() == 0 {
		return nil, false
	}
	q := new(big.Rat).Quo(ra.Rat(), rb.Rat())
	return ratFromBigRat(q), true
}
