package builtins

import (
	"protoshape/pkg/vm"
)

// ErrorInitializer implements the native error constructors and Error.prototype.toString
type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm

	// Error.prototype.toString()
	err := defineMethods(realm.ErrorPrototype(vm.ErrorKindError), []nativeMethod{
		{"toString", 0, func(call vm.FunctionCall) (vm.Value, error) {
			o, err := requireObject(call, call.This, "Error.prototype.toString")
			if err != nil {
				return vm.Undefined, err
			}
			name, err := stringProperty(call, o, "name", "Error")
			if err != nil {
				return vm.Undefined, err
			}
			message, err := stringProperty(call, o, "message", "")
			if err != nil {
				return vm.Undefined, err
			}
			switch {
			case name == "":
				return vm.NewString(message), nil
			case message == "":
				return vm.NewString(name), nil
			default:
				return vm.NewString(name + ": " + message), nil
			}
		}},
	})
	if err != nil {
		return err
	}

	var baseCtor *vm.Object
	for _, kind := range vm.ErrorKinds() {
		kind := kind
		ctor := realm.NewNativeFunction(kind.String(), 1, func(call vm.FunctionCall) (vm.Value, error) {
			message := ""
			if m := call.Argument(0); !m.IsUndefined() {
				s, err := call.VM.ToString(m)
				if err != nil {
					return vm.Undefined, err
				}
				message = s
			}
			return vm.ObjectValue(call.VM.CurrentRealm().NewError(kind, message)), nil
		})
		// TypeError.__proto__ === Error
		if kind == vm.ErrorKindError {
			baseCtor = ctor
		} else if _, err := ctor.SetPrototype(baseCtor, true); err != nil {
			return err
		}
		if err := installConstructor(ctx, kind.String(), ctor, realm.ErrorPrototype(kind)); err != nil {
			return err
		}
	}
	return nil
}

// stringProperty reads o[name] as a string, using fallback when it is undefined
func stringProperty(call vm.FunctionCall, o *vm.Object, name, fallback string) (string, error) {
	v, err := o.Get(vm.NewStringKey(name))
	if err != nil {
		return "", err
	}
	if v.IsUndefined() {
		return fallback, nil
	}
	return call.VM.ToString(v)
}
