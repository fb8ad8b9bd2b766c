package evaluator

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/morf/internal/typesystem"
)

type effect struct {
	Kind    EffectKind
	Message string
}

// recorder collects effects for assertions.
type recorder struct {
	effects []effect
}

func (r *recorder) handle(kind EffectKind, payload any) {
	msg := ""
	if err, ok := payload.(error); ok {
		msg = err.Error()
	} else if payload != nil {
		msg = payload.(string)
	}
	r.effects = append(r.effects, effect{Kind: kind, Message: msg})
}

// sameType compares MorfTypes by identity; interned values carry
// unexported state that cmp cannot walk.
var sameType = cmp.Comparer(func(a, b typesystem.MorfType) bool { return a == b })

func newTestEvaluator() (*Evaluator, *recorder) {
	rec := &recorder{}
	return New(typesystem.NewInterner(), rec.handle), rec
}

// capture returns a function whose body stores its bindings.
func capture(e *Evaluator, params []string, variadic bool, into *typesystem.Bindings) *typesystem.TypeFunction {
	return e.Types.NewFunction("f", params, variadic, func(b typesystem.Bindings) (typesystem.MorfType, error) {
		*into = b
		return e.Types.Void(), nil
	})
}

func TestBindFixedArityDefaultsToVoid(t *testing.T) {
	e, rec := newTestEvaluator()
	a := e.Types.InternPrimitive("a")

	var got typesystem.Bindings
	f := capture(e, []string{"x", "y"}, false, &got)
	e.Invoke(f, []typesystem.MorfType{a})

	if got["x"] != a {
		t.Errorf("x = %v, want %s", got["x"], a)
	}
	if got["y"] != e.Types.Void() {
		t.Errorf("y = %v, want Void", got["y"])
	}
	if len(rec.effects) != 0 {
		t.Errorf("unexpected effects: %v", rec.effects)
	}
}

func TestBindFixedArityIgnoresExtraArguments(t *testing.T) {
	e, _ := newTestEvaluator()
	a, b := e.Types.InternPrimitive("a"), e.Types.InternPrimitive("b")
	f := e.Types.NewFunction("f", []string{"x"}, false, nil)

	got := e.BindArguments(f, []typesystem.MorfType{a, b})
	if diff := cmp.Diff(typesystem.Bindings{"x": a}, got, sameType); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestBindVariadic(t *testing.T) {
	e, _ := newTestEvaluator()
	in := e.Types
	a, b, c := in.InternPrimitive("a"), in.InternPrimitive("b"), in.InternPrimitive("c")
	f := in.NewFunction("f", []string{"first", "rest"}, true, nil)

	got := e.BindArguments(f, []typesystem.MorfType{a, b, c})

	rest := in.InternNamespace(map[*typesystem.Key]typesystem.MorfType{
		in.Key("0"): b,
		in.Key("1"): c,
	}, nil)
	want := typesystem.Bindings{
		"first": a,
		"rest":  rest,
		"0":     b,
		"1":     c,
	}
	if diff := cmp.Diff(want, got, sameType); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestBindVariadicRestIsPositional(t *testing.T) {
	e, _ := newTestEvaluator()
	in := e.Types
	a, b := in.InternPrimitive("a"), in.InternPrimitive("b")
	f := in.NewFunction("f", []string{"rest"}, true, nil)

	ab := e.BindArguments(f, []typesystem.MorfType{a, b})["rest"]
	ba := e.BindArguments(f, []typesystem.MorfType{b, a})["rest"]
	if ab == ba {
		t.Errorf("rest namespaces for (a, b) and (b, a) should differ")
	}
	if got := in.GetProperty(ab, in.Key("1")); got != b {
		t.Errorf("rest.1 = %s, want %s", got, b)
	}
}

func TestBindVariadicWithoutRestArguments(t *testing.T) {
	e, _ := newTestEvaluator()
	f := e.Types.NewFunction("f", []string{"x", "rest"}, true, nil)

	got := e.BindArguments(f, nil)
	want := typesystem.Bindings{"x": e.Types.Void(), "rest": e.Types.Void()}
	if diff := cmp.Diff(want, got, sameType); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestInvokeNonFunction(t *testing.T) {
	e, rec := newTestEvaluator()
	never := e.Types.Never()

	got := e.Invoke(never, nil)
	if got != typesystem.MorfType(never) {
		t.Errorf("Invoke(Never) = %s, want Never", got)
	}
	if len(rec.effects) != 1 || rec.effects[0].Kind != EffectError {
		t.Fatalf("effects = %v, want exactly one error", rec.effects)
	}
	if !strings.Contains(rec.effects[0].Message, "not a function") {
		t.Errorf("message = %q", rec.effects[0].Message)
	}

	rec.effects = nil
	e.Invoke(e.Types.InternPrimitive("f"), nil)
	e.Invoke(nil, nil)
	if len(rec.effects) != 2 {
		t.Errorf("effects = %v, want two errors", rec.effects)
	}
}

func TestInvokeContainsFailures(t *testing.T) {
	tests := []struct {
		name string
		body typesystem.ApplyFunc
		want string
	}{
		{
			name: "error",
			body: func(typesystem.Bindings) (typesystem.MorfType, error) {
				return nil, errors.New("boom")
			},
			want: "f: boom",
		},
		{
			name: "panic with string",
			body: func(typesystem.Bindings) (typesystem.MorfType, error) {
				panic("kaboom")
			},
			want: "f: kaboom",
		},
		{
			name: "panic with error",
			body: func(typesystem.Bindings) (typesystem.MorfType, error) {
				panic(errors.New("wrapped"))
			},
			want: "f: wrapped",
		},
		{
			name: "runtime panic",
			body: func(b typesystem.Bindings) (typesystem.MorfType, error) {
				var ns *typesystem.Namespace
				return ns.Entries()[0].Value, nil
			},
			want: "f: runtime error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newTestEvaluator()
			f := e.Types.NewFunction("f", nil, false, tt.body)

			got := e.Invoke(f, nil)
			if got != typesystem.MorfType(e.Types.Never()) {
				t.Errorf("Invoke = %s, want Never", got)
			}
			if len(rec.effects) != 1 {
				t.Fatalf("effects = %v, want exactly one", rec.effects)
			}
			if rec.effects[0].Kind != EffectError || !strings.HasPrefix(rec.effects[0].Message, tt.want) {
				t.Errorf("effect = %+v, want error starting with %q", rec.effects[0], tt.want)
			}
		})
	}
}

func TestInvokeNilResultIsVoid(t *testing.T) {
	e, _ := newTestEvaluator()
	f := e.Types.NewFunction("f", nil, false, func(typesystem.Bindings) (typesystem.MorfType, error) {
		return nil, nil
	})
	if got := e.Invoke(f, nil); got != typesystem.MorfType(e.Types.Void()) {
		t.Errorf("Invoke = %s, want Void", got)
	}
}

func TestEffectsFallBackToLogger(t *testing.T) {
	var buf bytes.Buffer
	e := New(typesystem.NewInterner(), nil)
	e.Logger = log.New(&buf, "", 0)

	e.Invoke(e.Types.Void(), nil)
	e.Log("hello")

	out := buf.String()
	if !strings.Contains(out, "error: not a function") {
		t.Errorf("log output %q lacks the error", out)
	}
	if !strings.Contains(out, "log: hello") {
		t.Errorf("log output %q lacks the log effect", out)
	}
}
