// Package evaluator is the kernel's call boundary: it binds arguments to a
// function's parameters, applies it, and reports failures on an effect
// channel instead of propagating them.
package evaluator

import (
	"fmt"
	"log"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/typesystem"
)

// EffectKind names an effect channel.
type EffectKind string

const (
	EffectLog   EffectKind = config.EffectLog
	EffectError EffectKind = config.EffectError
)

// EffectHandler receives effects raised during invocation.
type EffectHandler func(kind EffectKind, payload any)

type Evaluator struct {
	// Types owns every value the evaluator produces.
	Types *typesystem.Interner
	// Effect receives log and error effects. When nil they go to Logger.
	Effect EffectHandler
	// Logger is the fallback sink for effects.
	Logger *log.Logger
}

func New(types *typesystem.Interner, effect EffectHandler) *Evaluator {
	return &Evaluator{
		Types:  types,
		Effect: effect,
		Logger: log.Default(),
	}
}

// Log raises a log effect.
func (e *Evaluator) Log(payload any) {
	e.emit(EffectLog, payload)
}

func (e *Evaluator) emit(kind EffectKind, payload any) {
	if e.Effect != nil {
		e.Effect(kind, payload)
		return
	}
	logger := e.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("%s: %v", kind, payload)
}

// fail raises err on the error channel and yields Never.
func (e *Evaluator) fail(err *Error) typesystem.MorfType {
	e.emit(EffectError, err)
	return e.Types.Never()
}

// Error is the payload of an error effect.
type Error struct {
	Function string // empty when the callee was not a function
	Message  string
}

func (err *Error) Error() string {
	if err.Function == "" {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", err.Function, err.Message)
}

func newError(function, format string, a ...interface{}) *Error {
	return &Error{Function: function, Message: fmt.Sprintf(format, a...)}
}
