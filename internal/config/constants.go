// Package config holds the kernel's named constants and the session file
// model.
package config

// SessionFileExtensions are all recognized session file extensions
var SessionFileExtensions = []string{".yaml", ".yml"}

// Virtual projection names
const (
	LengthKey    = "length"      // synthesized on string primitives
	NominalKey   = "__nominal__" // wraps the exact (nominal) encoding of a value
	NominalProof = "NominalProof"
	NominalMark  = "#"
)

// Distinguished pivot symbols
const (
	InfinitySymbol = "Infinity"
	PiSymbol       = "Pi"
)

// Decimal bracket around Pi used by the oracle fallback.
// Lower < Pi < Upper.
const (
	PiLowerBound = "3.14159"
	PiUpperBound = "3.14160"
)

// Effect channel names
const (
	EffectLog   = "log"
	EffectError = "error"
)

// Native function names
const (
	GetFuncName   = "get"
	UnionFuncName = "union"
	FailFuncName  = "fail"
	LogFuncName   = "log"
)
