package evaluator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/typesystem"
)

// Builtins returns the native functions of the kernel, keyed by name.
// They are created fresh for e so each session owns its own values.
func Builtins(e *Evaluator) map[string]*typesystem.TypeFunction {
	types := e.Types
	return map[string]*typesystem.TypeFunction{
		config.GetFuncName: types.NewFunction(config.GetFuncName, []string{"target", "key"}, false,
			func(b typesystem.Bindings) (typesystem.MorfType, error) {
				prim, ok := b["key"].(*typesystem.Primitive)
				if !ok {
					return nil, fmt.Errorf("key must be a string, got %s", b["key"])
				}
				name, ok := prim.Text()
				if !ok {
					return nil, fmt.Errorf("key must be a string, got %s", prim)
				}
				return types.GetProperty(b["target"], types.Key(name)), nil
			}),

		// union reads the flat "0", "1", ... aliases of its rest parameter.
		config.UnionFuncName: types.NewFunction(config.UnionFuncName, []string{"members"}, true,
			func(b typesystem.Bindings) (typesystem.MorfType, error) {
				var members []typesystem.MorfType
				for i := 0; ; i++ {
					m, ok := b[strconv.Itoa(i)]
					if !ok {
						break
					}
					members = append(members, m)
				}
				return types.InternUnion(members...), nil
			}),

		config.FailFuncName: types.NewFunction(config.FailFuncName, []string{"message"}, false,
			func(b typesystem.Bindings) (typesystem.MorfType, error) {
				if prim, ok := b["message"].(*typesystem.Primitive); ok {
					if text, ok := prim.Text(); ok {
						return nil, errors.New(text)
					}
				}
				return nil, errors.New("failed")
			}),

		config.LogFuncName: types.NewFunction(config.LogFuncName, []string{"message"}, false,
			func(b typesystem.Bindings) (typesystem.MorfType, error) {
				msg := b["message"]
				if prim, ok := msg.(*typesystem.Primitive); ok {
					if text, ok := prim.Text(); ok {
						e.Log(text)
						return types.Void(), nil
					}
				}
				e.Log(msg.String())
				return types.Void(), nil
			}),
	}
}
