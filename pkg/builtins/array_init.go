package builtins

import (
	"math"
	"strings"

	"protoshape/pkg/vm"
)

// maxSafeLength is 2^53-1, the largest length an array-like may reach
const maxSafeLength = 1<<53 - 1

var lengthKey = vm.NewStringKey("length")

type ArrayInitializer struct{}

func (a *ArrayInitializer) Name() string {
	return "Array"
}

func (a *ArrayInitializer) Priority() int {
	return PriorityArray
}

func (a *ArrayInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	arrayProto := realm.ArrayPrototype

	err := defineMethods(arrayProto, []nativeMethod{
		{"push", 1, arrayPush},
		{"pop", 0, arrayPop},
		{"join", 1, arrayJoin},
		{"indexOf", 1, arrayIndexOf},
		{"toString", 0, arrayToString},
	})
	if err != nil {
		return err
	}

	arrayCtor := realm.NewNativeFunction("Array", 1, func(call vm.FunctionCall) (vm.Value, error) {
		r := call.VM.CurrentRealm()
		if len(call.Arguments) == 1 && call.Arguments[0].IsNumber() {
			arr := r.NewArray()
			// the array exotic validates the length and throws RangeError
			if _, err := arr.Set(lengthKey, call.Arguments[0], true); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(arr), nil
		}
		return vm.ObjectValue(r.NewArray(call.Arguments...)), nil
	})

	err = defineMethods(arrayCtor, []nativeMethod{
		{"isArray", 1, func(call vm.FunctionCall) (vm.Value, error) {
			v := call.Argument(0)
			return vm.BooleanValue(v.IsObject() && v.AsObject().IsArray()), nil
		}},
	})
	if err != nil {
		return err
	}

	return installConstructor(ctx, "Array", arrayCtor, arrayProto)
}

func arrayPush(call vm.FunctionCall) (vm.Value, error) {
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	length, err := o.LengthOfArrayLike()
	if err != nil {
		return vm.Undefined, err
	}
	if length+int64(len(call.Arguments)) > maxSafeLength {
		return vm.Undefined, call.VM.ThrowTypeError("Pushing %d elements on an array-like of length %d is disallowed", len(call.Arguments), length)
	}
	for _, item := range call.Arguments {
		if _, err := o.Set(indexKey(length), item, true); err != nil {
			return vm.Undefined, err
		}
		length++
	}
	newLength := vm.NumberValue(float64(length))
	if _, err := o.Set(lengthKey, newLength, true); err != nil {
		return vm.Undefined, err
	}
	return newLength, nil
}

func arrayPop(call vm.FunctionCall) (vm.Value, error) {
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	length, err := o.LengthOfArrayLike()
	if err != nil {
		return vm.Undefined, err
	}
	if length == 0 {
		_, err := o.Set(lengthKey, vm.NumberValue(0), true)
		return vm.Undefined, err
	}
	key := indexKey(length - 1)
	element, err := o.Get(key)
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := o.DeleteProperty(key, true); err != nil {
		return vm.Undefined, err
	}
	if _, err := o.Set(lengthKey, vm.NumberValue(float64(length-1)), true); err != nil {
		return vm.Undefined, err
	}
	return element, nil
}

func arrayJoin(call vm.FunctionCall) (vm.Value, error) {
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	length, err := o.LengthOfArrayLike()
	if err != nil {
		return vm.Undefined, err
	}
	sep := ","
	if s := call.Argument(0); !s.IsUndefined() {
		if sep, err = call.VM.ToString(s); err != nil {
			return vm.Undefined, err
		}
	}
	var sb strings.Builder
	for i := int64(0); i < length; i++ {
		if i > 0 {
			sb.WriteString(sep)
		}
		element, err := o.Get(indexKey(i))
		if err != nil {
			return vm.Undefined, err
		}
		if element.IsNullish() {
			continue
		}
		s, err := call.VM.ToString(element)
		if err != nil {
			return vm.Undefined, err
		}
		sb.WriteString(s)
	}
	return vm.NewString(sb.String()), nil
}

func arrayIndexOf(call vm.FunctionCall) (vm.Value, error) {
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	length, err := o.LengthOfArrayLike()
	if err != nil {
		return vm.Undefined, err
	}
	if length == 0 {
		return vm.NumberValue(-1), nil
	}
	n, err := call.VM.ToIntegerOrInfinity(call.Argument(1))
	if err != nil {
		return vm.Undefined, err
	}
	if math.IsInf(n, 1) {
		return vm.NumberValue(-1), nil
	}
	target := call.Argument(0)
	for k := relativeIndex(n, length); k < length; k++ {
		key := indexKey(k)
		if !o.HasProperty(key) {
			continue
		}
		element, err := o.Get(key)
		if err != nil {
			return vm.Undefined, err
		}
		if element.StrictlyEquals(target) {
			return vm.NumberValue(float64(k)), nil
		}
	}
	return vm.NumberValue(-1), nil
}

// arrayToString joins through the receiver's own join, falling back to
// Object.prototype.toString when join is not callable.
func arrayToString(call vm.FunctionCall) (vm.Value, error) {
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	join, err := o.Get(vm.NewStringKey("join"))
	if err != nil {
		return vm.Undefined, err
	}
	if !join.IsCallable() {
		return objectToString(vm.FunctionCall{VM: call.VM, This: vm.ObjectValue(o), Callee: call.Callee})
	}
	return call.VM.Call(join, vm.ObjectValue(o))
}
