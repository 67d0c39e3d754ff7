package builtins

import "sort"

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	var initializers []BuiltinInitializer

	// Global constants
	initializers = append(initializers, &GlobalsInitializer{})

	// Core builtins
	initializers = append(initializers, &ObjectInitializer{})
	initializers = append(initializers, &FunctionInitializer{})
	initializers = append(initializers, &SymbolInitializer{})
	initializers = append(initializers, &ArrayInitializer{})

	initializers = append(initializers, &StringInitializer{})
	initializers = append(initializers, &ErrorInitializer{})

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}
