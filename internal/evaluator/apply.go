package evaluator

import (
	"fmt"
	"strconv"

	"github.com/funvibe/morf/internal/typesystem"
)

// Invoke applies fn to args. It never panics and never returns an error:
// calling a non-function, an Apply error, or a panic inside Apply raises
// exactly one error effect and yields Never.
func (e *Evaluator) Invoke(fn typesystem.MorfType, args []typesystem.MorfType) (result typesystem.MorfType) {
	f, ok := fn.(*typesystem.TypeFunction)
	if !ok {
		return e.fail(newError("", "not a function: %s", describe(fn)))
	}
	if f == nil {
		return e.fail(newError("", "not a function: nil"))
	}
	if f.Apply == nil {
		return e.fail(newError(f.Name, "function has no body"))
	}

	bindings := e.BindArguments(f, args)

	defer func() {
		if r := recover(); r != nil {
			result = e.fail(newError(f.Name, "%s", panicMessage(r)))
		}
	}()

	out, err := f.Apply(bindings)
	if err != nil {
		return e.fail(newError(f.Name, "%s", err.Error()))
	}
	if out == nil {
		return e.Types.Void()
	}
	return out
}

// BindArguments zips f's parameters with args. Missing arguments bind to
// Void. For a variadic function the last parameter binds to a namespace
// {"0": args[k], "1": args[k+1], ...} of the remaining arguments, which are
// also bound flat under "0", "1", ... for native bodies. Named parameters
// win over the flat aliases.
func (e *Evaluator) BindArguments(f *typesystem.TypeFunction, args []typesystem.MorfType) typesystem.Bindings {
	bindings := make(typesystem.Bindings, len(f.Params))
	void := e.Types.Void()

	arg := func(i int) typesystem.MorfType {
		if i < len(args) && args[i] != nil {
			return args[i]
		}
		return void
	}

	fixed := f.Params
	variadic := f.IsVariadic && len(f.Params) > 0
	if variadic {
		fixed = f.Params[:len(f.Params)-1]
	}

	var rest typesystem.MorfType
	if variadic {
		entries := map[*typesystem.Key]typesystem.MorfType{}
		for i := len(fixed); i < len(args); i++ {
			index := strconv.Itoa(i - len(fixed))
			v := arg(i)
			entries[e.Types.Key(index)] = v
			bindings[index] = v
		}
		rest = e.Types.InternNamespace(entries, nil)
	}

	for i, name := range fixed {
		bindings[name] = arg(i)
	}
	if variadic {
		bindings[f.Params[len(f.Params)-1]] = rest
	}
	return bindings
}

func describe(t typesystem.MorfType) string {
	if t == nil {
		return "nil"
	}
	return fmt.Sprintf("%s %s", t.Kind(), t)
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	}
	return fmt.Sprint(r)
}
