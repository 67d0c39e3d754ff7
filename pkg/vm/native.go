package vm

import "unsafe"

// NativeGetter produces the value of a native property
type NativeGetter func(vm *VM, this Value) (Value, error)

// NativeSetter receives writes to a native property
type NativeSetter func(vm *VM, this Value, value Value) error

// nativeProperty is the slot content of a host-backed data property. Reads and
// writes run host code but the property reports itself as a data property.
type nativeProperty struct {
	get NativeGetter
	set NativeSetter
}

func nativePropertyValue(get NativeGetter, set NativeSetter) Value {
	return Value{typ: TypeNativeProperty, obj: unsafe.Pointer(&nativeProperty{get: get, set: set})}
}

func (v Value) asNativeProperty() *nativeProperty { return (*nativeProperty)(v.obj) }

// DefineNativeFunction installs a host function under key. Builtins usually pass
// AttrWritable|AttrConfigurable.
func (o *Object) DefineNativeFunction(key PropertyKey, length int, fn NativeFunction, attrs Attributes) (*Object, error) {
	f := o.Realm().NewNativeFunction(key.functionName(), length, fn)
	if _, err := o.DefineProperty(key, DataDescriptor(ObjectValue(f), attrs), true); err != nil {
		return nil, err
	}
	return f, nil
}

// DefineNativeProperty installs a host-backed data property. It follows the same
// rules as defining a data property: a non-configurable existing property is kept.
func (o *Object) DefineNativeProperty(key PropertyKey, get NativeGetter, set NativeSetter, attrs Attributes) (bool, error) {
	if _, current, ok := o.getOwnSlot(key); ok && !current.Configurable() {
		return o.reject(true, "Cannot redefine property: %s", key)
	}
	if !o.HasOwnProperty(key) && !o.extensible {
		return o.reject(true, "Cannot define property %s, object is not extensible", key)
	}
	if err := o.storeOwn(key, nativePropertyValue(get, set), attrs); err != nil {
		return false, err
	}
	return true, nil
}

// DefineNativeAccessor installs an accessor whose getter and setter are host functions,
// named "get <key>" and "set <key>". Either may be nil.
func (o *Object) DefineNativeAccessor(key PropertyKey, getter, setter NativeFunction, attrs Attributes) (bool, error) {
	realm := o.Realm()
	var g, s *Object
	if getter != nil {
		g = realm.NewNativeFunction("get "+key.functionName(), 0, getter)
	}
	if setter != nil {
		s = realm.NewNativeFunction("set "+key.functionName(), 1, setter)
	}
	return o.DefineAccessor(key, g, s, attrs, true)
}
