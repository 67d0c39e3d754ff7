package builtins

import (
	"protoshape/pkg/vm"
)

// ObjectInitializer implements the Object builtin
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject // Must be first (base prototype)
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	objectProto := realm.ObjectPrototype

	err := defineMethods(objectProto, []nativeMethod{
		{"hasOwnProperty", 1, func(call vm.FunctionCall) (vm.Value, error) {
			key, err := call.VM.ToPropertyKey(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			this, err := call.VM.ToObject(call.This)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.BooleanValue(this.HasOwnProperty(key)), nil
		}},
		{"isPrototypeOf", 1, func(call vm.FunctionCall) (vm.Value, error) {
			v := call.Argument(0)
			if !v.IsObject() {
				return vm.False, nil
			}
			this, err := call.VM.ToObject(call.This)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.BooleanValue(v.AsObject().HasPrototype(this)), nil
		}},
		{"propertyIsEnumerable", 1, func(call vm.FunctionCall) (vm.Value, error) {
			key, err := call.VM.ToPropertyKey(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			this, err := call.VM.ToObject(call.This)
			if err != nil {
				return vm.Undefined, err
			}
			desc, found, err := this.GetOwnPropertyDescriptor(key)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.BooleanValue(found && desc.Enumerable.Bool()), nil
		}},
		{"toString", 0, objectToString},
		{"valueOf", 0, func(call vm.FunctionCall) (vm.Value, error) {
			this, err := call.VM.ToObject(call.This)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(this), nil
		}},
	})
	if err != nil {
		return err
	}

	_, err = objectProto.DefineNativeAccessor(vm.NewStringKey("__proto__"),
		func(call vm.FunctionCall) (vm.Value, error) {
			this, err := call.VM.ToObject(call.This)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(this.Prototype()), nil
		},
		func(call vm.FunctionCall) (vm.Value, error) {
			if err := requireObjectCoercible(call, call.This, "Object.prototype.__proto__"); err != nil {
				return vm.Undefined, err
			}
			proto := call.Argument(0)
			if !(proto.IsObject() || proto.IsNull()) || !call.This.IsObject() {
				return vm.Undefined, nil
			}
			var target *vm.Object
			if proto.IsObject() {
				target = proto.AsObject()
			}
			_, err := call.This.AsObject().SetPrototype(target, true)
			return vm.Undefined, err
		},
		vm.AttrConfigurable)
	if err != nil {
		return err
	}

	objectCtor := realm.NewNativeFunction("Object", 1, func(call vm.FunctionCall) (vm.Value, error) {
		v := call.Argument(0)
		if v.IsNullish() {
			return vm.ObjectValue(call.VM.CurrentRealm().NewObject()), nil
		}
		o, err := call.VM.ToObject(v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(o), nil
	})

	err = defineMethods(objectCtor, []nativeMethod{
		{"defineProperty", 3, func(call vm.FunctionCall) (vm.Value, error) {
			o, err := requireObject(call, call.Argument(0), "Object.defineProperty")
			if err != nil {
				return vm.Undefined, err
			}
			key, err := call.VM.ToPropertyKey(call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			if _, err := o.DefinePropertyFromObject(key, call.Argument(2), true); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(o), nil
		}},
		{"defineProperties", 2, func(call vm.FunctionCall) (vm.Value, error) {
			o, err := requireObject(call, call.Argument(0), "Object.defineProperties")
			if err != nil {
				return vm.Undefined, err
			}
			if err := defineProperties(call.VM, o, call.Argument(1)); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(o), nil
		}},
		{"getOwnPropertyDescriptor", 2, func(call vm.FunctionCall) (vm.Value, error) {
			o, err := call.VM.ToObject(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			key, err := call.VM.ToPropertyKey(call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			desc, found, err := o.GetOwnPropertyDescriptor(key)
			if err != nil || !found {
				return vm.Undefined, err
			}
			result, err := call.VM.CurrentRealm().FromPropertyDescriptor(desc)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(result), nil
		}},
		{"getOwnPropertyNames", 1, ownKeysFunction(vm.OwnKeysStringOnly)},
		{"getOwnPropertySymbols", 1, ownKeysFunction(vm.OwnKeysSymbolOnly)},
		{"keys", 1, enumerableOwnFunction(vm.PropertyKindKey)},
		{"values", 1, enumerableOwnFunction(vm.PropertyKindValue)},
		{"entries", 1, enumerableOwnFunction(vm.PropertyKindKeyAndValue)},
		{"create", 2, func(call vm.FunctionCall) (vm.Value, error) {
			proto, err := objectOrNull(call, call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			o := call.VM.CurrentRealm().NewObjectWithPrototype(proto)
			if props := call.Argument(1); !props.IsUndefined() {
				if err := defineProperties(call.VM, o, props); err != nil {
					return vm.Undefined, err
				}
			}
			return vm.ObjectValue(o), nil
		}},
		{"getPrototypeOf", 1, func(call vm.FunctionCall) (vm.Value, error) {
			o, err := call.VM.ToObject(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(o.Prototype()), nil
		}},
		{"setPrototypeOf", 2, func(call vm.FunctionCall) (vm.Value, error) {
			target := call.Argument(0)
			if err := requireObjectCoercible(call, target, "Object.setPrototypeOf"); err != nil {
				return vm.Undefined, err
			}
			proto, err := objectOrNull(call, call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			if !target.IsObject() {
				return target, nil
			}
			if _, err := target.AsObject().SetPrototype(proto, true); err != nil {
				return vm.Undefined, err
			}
			return target, nil
		}},
		{"preventExtensions", 1, func(call vm.FunctionCall) (vm.Value, error) {
			if v := call.Argument(0); v.IsObject() {
				v.AsObject().PreventExtensions()
			}
			return call.Argument(0), nil
		}},
		{"isExtensible", 1, func(call vm.FunctionCall) (vm.Value, error) {
			v := call.Argument(0)
			return vm.BooleanValue(v.IsObject() && v.AsObject().IsExtensible()), nil
		}},
		{"freeze", 1, setIntegrityFunction(vm.IntegrityFrozen, "freeze")},
		{"seal", 1, setIntegrityFunction(vm.IntegritySealed, "seal")},
		{"isFrozen", 1, testIntegrityFunction(vm.IntegrityFrozen)},
		{"isSealed", 1, testIntegrityFunction(vm.IntegritySealed)},
		{"assign", 2, func(call vm.FunctionCall) (vm.Value, error) {
			to, err := call.VM.ToObject(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			for _, source := range call.Arguments[min(1, len(call.Arguments)):] {
				if source.IsNullish() {
					continue
				}
				from, err := call.VM.ToObject(source)
				if err != nil {
					return vm.Undefined, err
				}
				for _, key := range from.OwnPropertyKeys(vm.OwnKeysAll) {
					desc, found, err := from.GetOwnPropertyDescriptor(key)
					if err != nil {
						return vm.Undefined, err
					}
					if !found || !desc.Enumerable.Bool() {
						continue
					}
					v, err := from.Get(key)
					if err != nil {
						return vm.Undefined, err
					}
					if _, err := to.Set(key, v, true); err != nil {
						return vm.Undefined, err
					}
				}
			}
			return vm.ObjectValue(to), nil
		}},
	})
	if err != nil {
		return err
	}

	return installConstructor(ctx, "Object", objectCtor, objectProto)
}

// objectToString implements Object.prototype.toString: "[object <tag>]"
func objectToString(call vm.FunctionCall) (vm.Value, error) {
	switch {
	case call.This.IsUndefined():
		return vm.NewString("[object Undefined]"), nil
	case call.This.IsNull():
		return vm.NewString("[object Null]"), nil
	}
	o, err := call.VM.ToObject(call.This)
	if err != nil {
		return vm.Undefined, err
	}
	builtinTag := "Object"
	switch {
	case o.IsArray():
		builtinTag = "Array"
	case o.IsCallable():
		builtinTag = "Function"
	case o.Class() == "Error" || o.Class() == "Boolean" || o.Class() == "Number" || o.Class() == "String":
		builtinTag = o.Class()
	}
	tag, err := o.Get(vm.NewSymbolKey(vm.SymbolToStringTag))
	if err != nil {
		return vm.Undefined, err
	}
	if tag.IsString() {
		builtinTag = tag.AsString()
	}
	return vm.NewString("[object " + builtinTag + "]"), nil
}

// defineProperties reads every enumerable own property of props as a descriptor
// first and only then defines them on o.
func defineProperties(machine *vm.VM, o *vm.Object, props vm.Value) error {
	source, err := machine.ToObject(props)
	if err != nil {
		return err
	}
	type pending struct {
		key  vm.PropertyKey
		desc vm.PropertyDescriptor
	}
	var descriptors []pending
	for _, key := range source.OwnPropertyKeys(vm.OwnKeysAll) {
		own, found, err := source.GetOwnPropertyDescriptor(key)
		if err != nil {
			return err
		}
		if !found || !own.Enumerable.Bool() {
			continue
		}
		descObj, err := source.Get(key)
		if err != nil {
			return err
		}
		desc, err := machine.ToPropertyDescriptor(descObj)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, pending{key, desc})
	}
	for _, p := range descriptors {
		if _, err := o.DefineProperty(p.key, p.desc, true); err != nil {
			return err
		}
	}
	return nil
}

func ownKeysFunction(filter vm.OwnKeysFilter) vm.NativeFunction {
	return func(call vm.FunctionCall) (vm.Value, error) {
		o, err := call.VM.ToObject(call.Argument(0))
		if err != nil {
			return vm.Undefined, err
		}
		return keysToArray(call.VM.CurrentRealm(), o.OwnPropertyKeys(filter)), nil
	}
}

func enumerableOwnFunction(kind vm.PropertyKind) vm.NativeFunction {
	return func(call vm.FunctionCall) (vm.Value, error) {
		o, err := call.VM.ToObject(call.Argument(0))
		if err != nil {
			return vm.Undefined, err
		}
		values, err := o.GetEnumerableOwnPropertyNames(kind)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(call.VM.CurrentRealm().NewArray(values...)), nil
	}
}

func setIntegrityFunction(level vm.IntegrityLevel, verb string) vm.NativeFunction {
	return func(call vm.FunctionCall) (vm.Value, error) {
		v := call.Argument(0)
		if !v.IsObject() {
			return v, nil
		}
		if ok, err := v.AsObject().SetIntegrityLevel(level); err != nil {
			return vm.Undefined, err
		} else if !ok {
			return vm.Undefined, call.VM.ThrowTypeError("Cannot %s object", verb)
		}
		return v, nil
	}
}

func testIntegrityFunction(level vm.IntegrityLevel) vm.NativeFunction {
	return func(call vm.FunctionCall) (vm.Value, error) {
		v := call.Argument(0)
		if !v.IsObject() {
			return vm.True, nil
		}
		return vm.BooleanValue(v.AsObject().TestIntegrityLevel(level)), nil
	}
}
