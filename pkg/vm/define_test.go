package vm

import (
	"testing"
)

func TestDefineProperty_Idempotent(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	key := NewStringKey("k")
	desc := DataDescriptor(NumberValue(1), AttrEnumerable)

	mustDefine(t, o, key, desc)
	shape := o.Shape()
	version := vm.Shapes().Get(shape).Version()
	mustDefine(t, o, key, desc)

	if o.Shape() != shape || vm.Shapes().Get(shape).Version() != version {
		t.Error("redefining with an identical descriptor must not touch the shape")
	}
	got, _, _ := o.GetOwnPropertyDescriptor(key)
	if got.Attributes() != AttrEnumerable || got.Value.AsFloat() != 1 {
		t.Errorf("unexpected descriptor after redefinition: %v", got)
	}
}

func TestDefineProperty_NonConfigurableRules(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	getter := realm.NewNativeFunction("g", 0, func(FunctionCall) (Value, error) { return Undefined, nil })
	key := NewStringKey("k")

	tests := []struct {
		name    string
		initial PropertyDescriptor
		update  PropertyDescriptor
		allowed bool
	}{
		{"make configurable", DataDescriptor(NumberValue(1), AttrWritable), PropertyDescriptor{Configurable: FlagTrue}, false},
		{"flip enumerable", DataDescriptor(NumberValue(1), AttrWritable), PropertyDescriptor{Enumerable: FlagTrue}, false},
		{"data to accessor", DataDescriptor(NumberValue(1), AttrWritable), PropertyDescriptor{Getter: ObjectValue(getter)}, false},
		{"writable value change", DataDescriptor(NumberValue(1), AttrWritable), ValueOnly(NumberValue(2)), true},
		{"drop writable", DataDescriptor(NumberValue(1), AttrWritable), PropertyDescriptor{Writable: FlagFalse}, true},
		{"restore writable", DataDescriptor(NumberValue(1), AttrNone), PropertyDescriptor{Writable: FlagTrue}, false},
		{"read-only value change", DataDescriptor(NumberValue(1), AttrNone), ValueOnly(NumberValue(2)), false},
		{"read-only same value", DataDescriptor(NumberValue(1), AttrNone), ValueOnly(NumberValue(1)), true},
		{"read-only NaN", DataDescriptor(NaN, AttrNone), ValueOnly(NaN), true},
		{"read-only zero sign", DataDescriptor(NumberValue(0), AttrNone), ValueOnly(NumberValue(negZero())), false},
		{"accessor swap getter", AccessorDescriptor(getter, nil, AttrNone), PropertyDescriptor{Getter: Undefined}, false},
		{"accessor same getter", AccessorDescriptor(getter, nil, AttrNone), PropertyDescriptor{Getter: ObjectValue(getter)}, true},
		{"generic empty", DataDescriptor(NumberValue(1), AttrNone), PropertyDescriptor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := realm.NewObject()
			mustDefine(t, o, key, tt.initial)
			ok, err := o.DefineProperty(key, tt.update, false)
			if err != nil {
				t.Fatalf("lenient define returned an error: %v", err)
			}
			if ok != tt.allowed {
				t.Errorf("expected allowed=%v, got %v", tt.allowed, ok)
			}
			if !tt.allowed {
				_, err := o.DefineProperty(key, tt.update, true)
				expectThrow(t, err, ErrorKindTypeError, "Cannot redefine property: k")
			}
		})
	}
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestDefineProperty_GenericKeepsValue(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	key := NewStringKey("k")
	mustDefine(t, o, key, DataDescriptor(NewString("v"), DefaultAttributes))
	mustDefine(t, o, key, PropertyDescriptor{Enumerable: FlagFalse})

	desc, _, _ := o.GetOwnPropertyDescriptor(key)
	if desc.Value.AsString() != "v" {
		t.Errorf("generic descriptor must keep the value, got %v", desc.Value.Inspect())
	}
	if desc.Attributes() != AttrWritable|AttrConfigurable {
		t.Errorf("expected [W-C], got %v", desc.Attributes())
	}
}

func TestDefineProperty_NewPropertyDefaultsToFalse(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	key := NewStringKey("k")
	mustDefine(t, o, key, ValueOnly(NumberValue(3)))

	desc, _, _ := o.GetOwnPropertyDescriptor(key)
	if desc.Attributes() != AttrNone {
		t.Errorf("absent fields must default to false, got %v", desc.Attributes())
	}

	mustDefine(t, o, NewStringKey("empty"), PropertyDescriptor{})
	v, found, _ := o.Lookup(NewStringKey("empty"), ObjectValue(o), AllowSideEffects)
	if !found || !v.IsUndefined() {
		t.Errorf("empty descriptor should create an undefined data property, got %v found=%v", v.Inspect(), found)
	}
}

func TestDefineProperty_AccessorDataConversion(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	o := realm.NewObject()
	key := NewStringKey("k")
	getter := realm.NewNativeFunction("g", 0, func(FunctionCall) (Value, error) { return NewString("from getter"), nil })

	mustDefine(t, o, key, DataDescriptor(NumberValue(1), AttrWritable|AttrEnumerable|AttrConfigurable))
	mustDefine(t, o, key, PropertyDescriptor{Getter: ObjectValue(getter)})
	desc, _, _ := o.GetOwnPropertyDescriptor(key)
	if !desc.IsAccessorDescriptor() || desc.GetterObject() != getter || !desc.Setter.IsUndefined() {
		t.Fatalf("expected accessor with only a getter, got %v", desc)
	}
	if desc.Attributes() != AttrEnumerable|AttrConfigurable {
		t.Errorf("conversion must keep enumerable and configurable, got %v", desc.Attributes())
	}
	if v := mustGet(t, o, key); v.AsString() != "from getter" {
		t.Errorf("getter not used: %v", v.Inspect())
	}

	mustDefine(t, o, key, ValueOnly(NumberValue(2)))
	desc, _, _ = o.GetOwnPropertyDescriptor(key)
	if !desc.IsDataDescriptor() || desc.Writable.Bool() {
		t.Errorf("accessor to data conversion should produce a non-writable data property, got %v", desc)
	}
}

func TestDefineAccessor_KeepsOtherHalf(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	o := realm.NewObject()
	key := NewStringKey("k")
	getter := realm.NewNativeFunction("g", 0, func(FunctionCall) (Value, error) { return Undefined, nil })
	setter := realm.NewNativeFunction("s", 1, func(FunctionCall) (Value, error) { return Undefined, nil })

	o.DefineAccessor(key, getter, nil, DefaultAttributes, true)
	o.DefineAccessor(key, nil, setter, DefaultAttributes, true)

	desc, _, _ := o.GetOwnPropertyDescriptor(key)
	if desc.GetterObject() != getter || desc.SetterObject() != setter {
		t.Errorf("expected both halves, got %v", desc)
	}
}

func TestDefineProperty_NonExtensible(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	mustDefine(t, o, NewStringKey("old"), DataDescriptor(NumberValue(1), DefaultAttributes))
	o.PreventExtensions()

	if ok, err := o.DefineProperty(NewStringKey("new"), ValueOnly(True), false); ok || err != nil {
		t.Errorf("expected lenient refusal, got ok=%v err=%v", ok, err)
	}
	_, err := o.DefineProperty(NewStringKey("new"), ValueOnly(True), true)
	expectThrow(t, err, ErrorKindTypeError, "not extensible")

	mustDefine(t, o, NewStringKey("old"), ValueOnly(NumberValue(2)))
	if ok, _ := o.Set(NewIndexKey(0), True, false); ok {
		t.Error("indexed addition must also be refused")
	}
}

func TestToPropertyDescriptor(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	fn := realm.NewNativeFunction("f", 0, func(FunctionCall) (Value, error) { return Undefined, nil })

	build := func(fields map[string]Value) Value {
		o := realm.NewObject()
		for k, v := range fields {
			o.Set(NewStringKey(k), v, true)
		}
		return ObjectValue(o)
	}

	desc, err := vm.ToPropertyDescriptor(build(map[string]Value{"value": NumberValue(1), "writable": True}))
	if err != nil || !desc.IsDataDescriptor() || desc.Enumerable.IsSet() || !desc.Writable.Bool() {
		t.Errorf("unexpected data descriptor %v (err=%v)", desc, err)
	}
	desc, err = vm.ToPropertyDescriptor(build(map[string]Value{"get": ObjectValue(fn), "set": Undefined}))
	if err != nil || !desc.IsAccessorDescriptor() || !desc.Setter.IsUndefined() {
		t.Errorf("unexpected accessor descriptor %v (err=%v)", desc, err)
	}

	_, err = vm.ToPropertyDescriptor(NumberValue(1))
	expectThrow(t, err, ErrorKindTypeError, "Property description must be an object")
	_, err = vm.ToPropertyDescriptor(build(map[string]Value{"get": NumberValue(1)}))
	expectThrow(t, err, ErrorKindTypeError, "Getter must be a function")
	_, err = vm.ToPropertyDescriptor(build(map[string]Value{"get": ObjectValue(fn), "value": NumberValue(1)}))
	expectThrow(t, err, ErrorKindTypeError, "Invalid property descriptor")
}

func TestToPropertyDescriptor_RunsGetters(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	descObj := realm.NewObject()
	calls := 0
	descObj.DefineNativeAccessor(NewStringKey("value"), func(FunctionCall) (Value, error) {
		calls++
		return NewString("computed"), nil
	}, nil, DefaultAttributes)

	target := realm.NewObject()
	if _, err := target.DefinePropertyFromObject(NewStringKey("k"), ObjectValue(descObj), true); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected the descriptor getter to run once, ran %d times", calls)
	}
	if v := mustGet(t, target, NewStringKey("k")); v.AsString() != "computed" {
		t.Errorf("unexpected value %v", v.Inspect())
	}
}

func TestFromPropertyDescriptor(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	obj, err := realm.FromPropertyDescriptor(DataDescriptor(NumberValue(5), AttrWritable))
	if err != nil {
		t.Fatal(err)
	}
	keys, _ := obj.GetOwnProperties(PropertyKindKey, OwnKeysAll, true)
	want := []string{"value", "writable", "enumerable", "configurable"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %d keys", want, len(keys))
	}
	for i, k := range keys {
		if k.AsString() != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], k.AsString())
		}
	}
	if v := mustGet(t, obj, NewStringKey("enumerable")); v.AsBoolean() {
		t.Error("expected enumerable: false")
	}
}
