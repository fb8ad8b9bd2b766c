package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/evaluator"
	"github.com/funvibe/morf/internal/pivot"
	"github.com/funvibe/morf/internal/typesystem"
)

// Verdict is the outcome of one query.
type Verdict struct {
	Name   string
	Op     string
	Result string
	// Expect is empty when the query only reports its result.
	Expect string
	// Passed is false when Err is set or the result differs from Expect.
	Passed bool
	// Err is set when the query could not be evaluated, for example
	// because it names an unknown type.
	Err error
	// Effects are the effects raised while evaluating an invoke query.
	Effects []string
}

func (v Verdict) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%s: %s: %v", v.Name, v.Op, v.Err)
	}
	if v.Expect == "" || v.Passed {
		return fmt.Sprintf("%s: %s = %s", v.Name, v.Op, v.Result)
	}
	return fmt.Sprintf("%s: %s = %s, want %s", v.Name, v.Op, v.Result, v.Expect)
}

// Run evaluates every query of s against env, in order.
func (env *Env) Run(s *config.Session) []Verdict {
	verdicts := make([]Verdict, 0, len(s.Queries))
	for i := range s.Queries {
		verdicts = append(verdicts, env.RunQuery(i, &s.Queries[i]))
	}
	return verdicts
}

// RunQuery evaluates a single query. index names the query when it has no
// name of its own.
func (env *Env) RunQuery(index int, q *config.Query) Verdict {
	v := Verdict{Name: q.Name, Op: q.Op(), Expect: q.Expect}
	if v.Name == "" {
		v.Name = "#" + strconv.Itoa(index)
	}

	switch v.Op {
	case config.OpSubtype:
		v.Err = env.subtype(&v, q.Subtype[0], q.Subtype[1])
	case config.OpProperty:
		v.Err = env.property(&v, q.Property[0], q.Property[1])
	case config.OpLt:
		v.Err = env.compare(&v, pivot.CompareLt, q.Lt[0], q.Lt[1])
	case config.OpLe:
		v.Err = env.compare(&v, pivot.CompareLe, q.Le[0], q.Le[1])
	case config.OpEq:
		v.Err = env.compare(&v, pivot.CompareEq, q.Eq[0], q.Eq[1])
	case config.OpInvoke:
		v.Err = env.invoke(&v, q.Invoke[0], q.Invoke[1:])
	default:
		v.Err = fmt.Errorf("no operation")
	}
	return v
}

func (env *Env) subtype(v *Verdict, a, b string) error {
	ta, err := env.Lookup(a)
	if err != nil {
		return err
	}
	tb, err := env.Lookup(b)
	if err != nil {
		return err
	}
	v.Result = strconv.FormatBool(env.Types.IsSubtype(ta, tb))
	v.Passed = v.Expect == "" || v.Result == v.Expect
	return nil
}

func (env *Env) property(v *Verdict, target, keyText string) error {
	t, err := env.Lookup(target)
	if err != nil {
		return err
	}
	key, err := env.ParseKey(keyText)
	if err != nil {
		return err
	}
	got, reason := env.Types.Project(t, key)
	v.Result = fmt.Sprintf("%s (%s)", got, reason)
	return env.expectType(v, got)
}

func (env *Env) compare(v *Verdict, cmp func(a, b pivot.Pivot) pivot.Tri, a, b config.PivotSpec) error {
	pa, err := ParsePivot(a)
	if err != nil {
		return err
	}
	pb, err := ParsePivot(b)
	if err != nil {
		return err
	}
	v.Result = strings.ToLower(cmp(pa, pb).String())
	v.Passed = v.Expect == "" || v.Result == v.Expect
	return nil
}

func (env *Env) invoke(v *Verdict, fnName string, argNames []string) error {
	fn, err := env.Lookup(fnName)
	if err != nil {
		return err
	}
	args := make([]typesystem.MorfType, len(argNames))
	for i, name := range argNames {
		if args[i], err = env.Lookup(name); err != nil {
			return err
		}
	}

	// Collect effects for this call only, then restore the session handler.
	prev := env.Eval.Effect
	env.Eval.Effect = func(kind evaluator.EffectKind, payload any) {
		v.Effects = append(v.Effects, fmt.Sprintf("%s: %v", kind, payload))
		if prev != nil {
			prev(kind, payload)
		}
	}
	defer func() { env.Eval.Effect = prev }()

	got := env.Eval.Invoke(fn, args)
	v.Result = got.String()
	return env.expectType(v, got)
}

// expectType compares got with the type named by v.Expect by identity.
func (env *Env) expectType(v *Verdict, got typesystem.MorfType) error {
	if v.Expect == "" {
		v.Passed = true
		return nil
	}
	want, err := env.Lookup(v.Expect)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	v.Passed = want == got
	return nil
}

// Failed counts the verdicts that did not pass.
func Failed(verdicts []Verdict) int {
	n := 0
	for _, v := range verdicts {
		if !v.Passed {
			n++
		}
	}
	return n
}
