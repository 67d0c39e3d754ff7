package builtins

import (
	"protoshape/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Array", "String", "Symbol")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime installs the module's constructors and prototype methods into a realm
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The VM instance
	VM *vm.VM

	// The realm being populated; its intrinsic prototypes already exist
	Realm *vm.Realm

	// Define a global value (writable, non-enumerable, configurable)
	DefineGlobal func(name string, value vm.Value) error
}

// Priority constants for initialization order
const (
	PriorityGlobals  = -1 // globalThis, undefined, NaN, Infinity
	PriorityObject   = 0  // Object must be first (base prototype)
	PriorityFunction = 1  // Function second (inherits from Object)
	PrioritySymbol   = 2  // Symbol before anything that installs symbol-keyed methods
	PriorityArray    = 3  // Array (inherits from Object)
	PriorityString   = 10 // String primitives
	PriorityError    = 20 // Error constructors
)
