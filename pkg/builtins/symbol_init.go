package builtins

import (
	"protoshape/pkg/vm"
)

type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string {
	return "Symbol"
}

func (s *SymbolInitializer) Priority() int {
	return PrioritySymbol
}

func (s *SymbolInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	symbolProto := realm.SymbolPrototype

	err := defineMethods(symbolProto, []nativeMethod{
		{"toString", 0, func(call vm.FunctionCall) (vm.Value, error) {
			sym, err := thisSymbolValue(call, "toString")
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NewString(sym.String()), nil
		}},
		{"valueOf", 0, func(call vm.FunctionCall) (vm.Value, error) {
			sym, err := thisSymbolValue(call, "valueOf")
			if err != nil {
				return vm.Undefined, err
			}
			return vm.SymbolValue(sym), nil
		}},
	})
	if err != nil {
		return err
	}

	_, err = symbolProto.DefineNativeAccessor(vm.NewStringKey("description"), func(call vm.FunctionCall) (vm.Value, error) {
		sym, err := thisSymbolValue(call, "description")
		if err != nil {
			return vm.Undefined, err
		}
		if desc, ok := sym.Description(); ok {
			return vm.NewString(desc), nil
		}
		return vm.Undefined, nil
	}, nil, vm.AttrConfigurable)
	if err != nil {
		return err
	}
	if _, err := symbolProto.DefineProperty(vm.NewSymbolKey(vm.SymbolToStringTag), vm.DataDescriptor(vm.NewString("Symbol"), vm.AttrConfigurable), true); err != nil {
		return err
	}

	symbolCtor := realm.NewNativeFunction("Symbol", 0, func(call vm.FunctionCall) (vm.Value, error) {
		desc := call.Argument(0)
		if desc.IsUndefined() {
			return vm.SymbolValue(vm.NewAnonymousSymbol()), nil
		}
		s, err := call.VM.ToString(desc)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewSymbol(s), nil
	})

	err = defineMethods(symbolCtor, []nativeMethod{
		{"for", 1, func(call vm.FunctionCall) (vm.Value, error) {
			key, err := call.VM.ToString(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			return vm.SymbolValue(call.VM.SymbolFor(key)), nil
		}},
		{"keyFor", 1, func(call vm.FunctionCall) (vm.Value, error) {
			v := call.Argument(0)
			if !v.IsSymbol() {
				return vm.Undefined, call.VM.ThrowTypeError("%s is not a symbol", v.Inspect())
			}
			if key, ok := call.VM.KeyForSymbol(v.AsSymbol()); ok {
				return vm.NewString(key), nil
			}
			return vm.Undefined, nil
		}},
	})
	if err != nil {
		return err
	}

	wellKnown := map[string]*vm.Symbol{
		"iterator":    vm.SymbolIterator,
		"toPrimitive": vm.SymbolToPrimitive,
		"toStringTag": vm.SymbolToStringTag,
	}
	for _, name := range []string{"iterator", "toPrimitive", "toStringTag"} {
		desc := vm.DataDescriptor(vm.SymbolValue(wellKnown[name]), vm.AttrNone)
		if _, err := symbolCtor.DefineProperty(vm.NewStringKey(name), desc, true); err != nil {
			return err
		}
	}

	return installConstructor(ctx, "Symbol", symbolCtor, symbolProto)
}

// thisSymbolValue unwraps a symbol receiver or a Symbol wrapper object
func thisSymbolValue(call vm.FunctionCall, method string) (*vm.Symbol, error) {
	this := call.This
	if this.IsSymbol() {
		return this.AsSymbol(), nil
	}
	if this.IsObject() {
		if p, ok := this.AsObject().PrimitiveValue(); ok && p.IsSymbol() {
			return p.AsSymbol(), nil
		}
	}
	return nil, call.VM.ThrowTypeError("Symbol.prototype.%s requires that 'this' be a Symbol", method)
}
