package vm

import "strings"

// PropertyDescriptor is a partial description of a property, as accepted by
// DefineProperty and produced by GetOwnPropertyDescriptor.
// Value, Getter and Setter hold Empty (the zero Value) when the field is absent;
// an explicit `get: undefined` is Undefined, not Empty.
type PropertyDescriptor struct {
	Value Value

	Writable, Enumerable, Configurable Flag

	Getter, Setter Value
}

// DataDescriptor returns a complete data descriptor
func DataDescriptor(value Value, attrs Attributes) PropertyDescriptor {
	return PropertyDescriptor{
		Value:        value,
		Writable:     ToFlag(attrs.Writable()),
		Enumerable:   ToFlag(attrs.Enumerable()),
		Configurable: ToFlag(attrs.Configurable()),
	}
}

// AccessorDescriptor returns a complete accessor descriptor. A nil getter or setter
// is stored as undefined.
func AccessorDescriptor(getter, setter *Object, attrs Attributes) PropertyDescriptor {
	return PropertyDescriptor{
		Enumerable:   ToFlag(attrs.Enumerable()),
		Configurable: ToFlag(attrs.Configurable()),
		Getter:       objectOrUndefined(getter),
		Setter:       objectOrUndefined(setter),
	}
}

// ValueOnly returns a descriptor that only sets [[Value]]
func ValueOnly(value Value) PropertyDescriptor {
	return PropertyDescriptor{Value: value}
}

func objectOrUndefined(o *Object) Value {
	if o == nil {
		return Undefined
	}
	return ObjectValue(o)
}

func (d PropertyDescriptor) hasValue() bool  { return !d.Value.IsEmpty() }
func (d PropertyDescriptor) hasGetter() bool { return !d.Getter.IsEmpty() }
func (d PropertyDescriptor) hasSetter() bool { return !d.Setter.IsEmpty() }

func (d PropertyDescriptor) IsAccessorDescriptor() bool {
	return d.hasGetter() || d.hasSetter()
}

func (d PropertyDescriptor) IsDataDescriptor() bool {
	return d.hasValue() || d.Writable.IsSet()
}

func (d PropertyDescriptor) IsGenericDescriptor() bool {
	return !d.IsAccessorDescriptor() && !d.IsDataDescriptor()
}

func (d PropertyDescriptor) isEmpty() bool {
	return d.IsGenericDescriptor() && !d.Enumerable.IsSet() && !d.Configurable.IsSet()
}

// Attributes returns the attribute bits of the descriptor, absent flags read as false
func (d PropertyDescriptor) Attributes() Attributes {
	var a Attributes
	a = a.with(AttrWritable, d.Writable.Bool())
	a = a.with(AttrEnumerable, d.Enumerable.Bool())
	a = a.with(AttrConfigurable, d.Configurable.Bool())
	return a
}

func (d PropertyDescriptor) GetterObject() *Object {
	if d.Getter.IsObject() {
		return d.Getter.AsObject()
	}
	return nil
}

func (d PropertyDescriptor) SetterObject() *Object {
	if d.Setter.IsObject() {
		return d.Setter.AsObject()
	}
	return nil
}

func (d PropertyDescriptor) String() string {
	var parts []string
	if d.hasValue() {
		parts = append(parts, "value: "+d.Value.Inspect())
	}
	for _, f := range []struct {
		name string
		flag Flag
	}{{"writable", d.Writable}, {"enumerable", d.Enumerable}, {"configurable", d.Configurable}} {
		if f.flag.IsSet() {
			if f.flag.Bool() {
				parts = append(parts, f.name+": true")
			} else {
				parts = append(parts, f.name+": false")
			}
		}
	}
	if d.hasGetter() {
		parts = append(parts, "get: "+d.Getter.Inspect())
	}
	if d.hasSetter() {
		parts = append(parts, "set: "+d.Setter.Inspect())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// ToPropertyDescriptor reads a descriptor object. Each field is fetched with a full
// [[Get]], so getters on the descriptor object run and may throw.
func (vm *VM) ToPropertyDescriptor(v Value) (PropertyDescriptor, error) {
	var desc PropertyDescriptor
	if !v.IsObject() {
		return desc, vm.ThrowTypeError("Property description must be an object: %s", v.Inspect())
	}
	obj := v.AsObject()

	readFlag := func(name string, into *Flag) error {
		key := NewStringKey(name)
		if !obj.HasProperty(key) {
			return nil
		}
		val, err := obj.Get(key)
		if err != nil {
			return err
		}
		*into = ToFlag(val.IsTruthy())
		return nil
	}
	if err := readFlag("enumerable", &desc.Enumerable); err != nil {
		return desc, err
	}
	if err := readFlag("configurable", &desc.Configurable); err != nil {
		return desc, err
	}
	if key := NewStringKey("value"); obj.HasProperty(key) {
		val, err := obj.Get(key)
		if err != nil {
			return desc, err
		}
		desc.Value = val
	}
	if err := readFlag("writable", &desc.Writable); err != nil {
		return desc, err
	}
	for _, acc := range []struct {
		name string
		into *Value
	}{{"get", &desc.Getter}, {"set", &desc.Setter}} {
		key := NewStringKey(acc.name)
		if !obj.HasProperty(key) {
			continue
		}
		fn, err := obj.Get(key)
		if err != nil {
			return desc, err
		}
		if !fn.IsUndefined() && !fn.IsCallable() {
			return desc, vm.ThrowTypeError("%s must be a function: %s", strings.ToUpper(acc.name[:1])+acc.name[1:]+"ter", fn.Inspect())
		}
		*acc.into = fn
	}
	if desc.IsAccessorDescriptor() && desc.IsDataDescriptor() {
		return desc, vm.ThrowTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}
	return desc, nil
}

// FromPropertyDescriptor materializes desc as a plain object of the realm.
func (r *Realm) FromPropertyDescriptor(desc PropertyDescriptor) (*Object, error) {
	obj := r.NewObject()
	add := func(name string, v Value) error {
		_, err := obj.CreateDataProperty(NewStringKey(name), v)
		return err
	}
	if desc.hasValue() {
		if err := add("value", desc.Value); err != nil {
			return nil, err
		}
	}
	if desc.Writable.IsSet() {
		if err := add("writable", BooleanValue(desc.Writable.Bool())); err != nil {
			return nil, err
		}
	}
	if desc.hasGetter() {
		if err := add("get", desc.Getter); err != nil {
			return nil, err
		}
	}
	if desc.hasSetter() {
		if err := add("set", desc.Setter); err != nil {
			return nil, err
		}
	}
	if desc.Enumerable.IsSet() {
		if err := add("enumerable", BooleanValue(desc.Enumerable.Bool())); err != nil {
			return nil, err
		}
	}
	if desc.Configurable.IsSet() {
		if err := add("configurable", BooleanValue(desc.Configurable.Bool())); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
