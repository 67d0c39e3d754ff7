package builtins

import (
	"protoshape/pkg/vm"
)

type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	return defineMethods(ctx.Realm.FunctionPrototype, []nativeMethod{
		// Function.prototype.call
		{"call", 1, func(call vm.FunctionCall) (vm.Value, error) {
			var args []vm.Value
			if len(call.Arguments) > 1 {
				args = call.Arguments[1:]
			}
			return call.VM.Call(call.This, call.Argument(0), args...)
		}},
		// Function.prototype.apply
		{"apply", 2, func(call vm.FunctionCall) (vm.Value, error) {
			if !call.This.IsCallable() {
				return vm.Undefined, call.VM.ThrowTypeError("Function.prototype.apply was called on %s, which is not a function", call.This.Inspect())
			}
			argArray := call.Argument(1)
			if argArray.IsNullish() {
				return call.VM.Call(call.This, call.Argument(0))
			}
			args, err := createListFromArrayLike(call, argArray)
			if err != nil {
				return vm.Undefined, err
			}
			return call.VM.Call(call.This, call.Argument(0), args...)
		}},
	})
}

const maxArgumentCount = 1 << 16

// createListFromArrayLike reads elements 0..length-1 of an array-like object
func createListFromArrayLike(call vm.FunctionCall, v vm.Value) ([]vm.Value, error) {
	o, err := requireObject(call, v, "CreateListFromArrayLike")
	if err != nil {
		return nil, err
	}
	length, err := o.LengthOfArrayLike()
	if err != nil {
		return nil, err
	}
	if length > maxArgumentCount {
		return nil, call.VM.ThrowRangeError("Too many arguments in function call (only %d allowed)", maxArgumentCount)
	}
	list := make([]vm.Value, length)
	for i := range list {
		if list[i], err = o.Get(indexKey(int64(i))); err != nil {
			return nil, err
		}
	}
	return list, nil
}
