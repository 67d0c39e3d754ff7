package builtins

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"protoshape/pkg/vm"
)

// methodAttributes is what builtin methods and constructors are installed with
const methodAttributes = vm.AttrWritable | vm.AttrConfigurable

var posInf = math.Inf(1)

// InitRealm installs the standard builtins into realm
func InitRealm(realm *vm.Realm) error {
	return InitRealmWith(realm, GetStandardInitializers())
}

// InitRealmWith runs initializers against realm in the order given
func InitRealmWith(realm *vm.Realm, initializers []BuiltinInitializer) error {
	ctx := &RuntimeContext{
		VM:    realm.VM(),
		Realm: realm,
		DefineGlobal: func(name string, value vm.Value) error {
			_, err := realm.GlobalObject.DefineProperty(vm.NewStringKey(name), vm.DataDescriptor(value, methodAttributes), true)
			return err
		},
	}
	for _, init := range initializers {
		if err := init.InitRuntime(ctx); err != nil {
			return fmt.Errorf("initializing %s builtins: %w", init.Name(), err)
		}
		realm.VM().Logger().Debug("builtins installed", slog.String("module", init.Name()), slog.Int("realm", realm.ID()))
	}
	return nil
}

// nativeMethod describes one builtin function
type nativeMethod struct {
	name   string
	length int
	fn     vm.NativeFunction
}

func defineMethods(target *vm.Object, methods []nativeMethod) error {
	for _, m := range methods {
		if _, err := target.DefineNativeFunction(vm.NewStringKey(m.name), m.length, m.fn, methodAttributes); err != nil {
			return fmt.Errorf("installing %s: %w", m.name, err)
		}
	}
	return nil
}

// installConstructor links ctor and proto through "prototype" and "constructor",
// records ctor on the realm and publishes it as a global.
func installConstructor(ctx *RuntimeContext, name string, ctor, proto *vm.Object) error {
	if _, err := ctor.DefineProperty(vm.NewStringKey("prototype"), vm.DataDescriptor(vm.ObjectValue(proto), vm.AttrNone), true); err != nil {
		return err
	}
	if _, err := proto.DefineProperty(vm.NewStringKey("constructor"), vm.DataDescriptor(vm.ObjectValue(ctor), methodAttributes), true); err != nil {
		return err
	}
	ctx.Realm.Constructors[name] = ctor
	return ctx.DefineGlobal(name, vm.ObjectValue(ctor))
}

// requireObject returns v as an object or throws a TypeError naming the caller
func requireObject(call vm.FunctionCall, v vm.Value, caller string) (*vm.Object, error) {
	if !v.IsObject() {
		return nil, call.VM.ThrowTypeError("%s called on non-object", caller)
	}
	return v.AsObject(), nil
}

// requireObjectCoercible rejects undefined and null receivers
func requireObjectCoercible(call vm.FunctionCall, v vm.Value, caller string) error {
	if v.IsNullish() {
		return call.VM.ThrowTypeError("%s called on null or undefined", caller)
	}
	return nil
}

// objectOrNull accepts an object or null as a prototype argument
func objectOrNull(call vm.FunctionCall, v vm.Value) (*vm.Object, error) {
	switch {
	case v.IsNull():
		return nil, nil
	case v.IsObject():
		return v.AsObject(), nil
	default:
		return nil, call.VM.ThrowTypeError("Object prototype may only be an Object or null: %s", v.Inspect())
	}
}

// indexKey builds the property key for an array-like position, which may lie past
// the array index range.
func indexKey(i int64) vm.PropertyKey {
	if i >= 0 && i <= vm.MaxArrayIndex {
		return vm.NewIndexKey(uint32(i))
	}
	return vm.NewStringKey(strconv.FormatInt(i, 10))
}

// relativeIndex resolves a possibly negative relative position against length,
// clamping into [0, length].
func relativeIndex(rel float64, length int64) int64 {
	if rel < 0 {
		if rel+float64(length) <= 0 {
			return 0
		}
		return int64(rel) + length
	}
	return clampIndex(rel, length)
}

// clampIndex clamps an integral position into [0, length]
func clampIndex(pos float64, length int64) int64 {
	switch {
	case pos <= 0:
		return 0
	case pos >= float64(length):
		return length
	default:
		return int64(pos)
	}
}

func keysToArray(realm *vm.Realm, keys []vm.PropertyKey) vm.Value {
	values := make([]vm.Value, len(keys))
	for i, k := range keys {
		values[i] = k.ToValue()
	}
	return vm.ObjectValue(realm.NewArray(values...))
}
