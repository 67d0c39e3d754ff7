package vm

// DefineProperty implements [[DefineOwnProperty]]. A refused definition returns false,
// or raises a TypeError when throw is set. Exotic objects route through their hook.
func (o *Object) DefineProperty(key PropertyKey, desc PropertyDescriptor, throw bool) (bool, error) {
	if o.exotic != nil && o.exotic.defineOwnProperty != nil {
		return o.exotic.defineOwnProperty(o, key, desc, throw)
	}
	return o.ordinaryDefineOwnProperty(key, desc, throw)
}

// DefinePropertyFromObject defines key from a descriptor object such as the third
// argument of Object.defineProperty.
func (o *Object) DefinePropertyFromObject(key PropertyKey, descObj Value, throw bool) (bool, error) {
	desc, err := o.vm.ToPropertyDescriptor(descObj)
	if err != nil {
		return false, err
	}
	return o.DefineProperty(key, desc, throw)
}

// CreateDataProperty defines a writable, enumerable, configurable data property
func (o *Object) CreateDataProperty(key PropertyKey, value Value) (bool, error) {
	return o.DefineProperty(key, DataDescriptor(value, DefaultAttributes), false)
}

// DefineDataProperty defines a data property with the given attributes and throws on refusal
func (o *Object) DefineDataProperty(key PropertyKey, value Value, attrs Attributes) error {
	_, err := o.DefineProperty(key, DataDescriptor(value, attrs), true)
	return err
}

// DefineAccessor installs a getter and/or setter. A nil half keeps the existing half
// of an accessor already stored under key.
func (o *Object) DefineAccessor(key PropertyKey, getter, setter *Object, attrs Attributes, throw bool) (bool, error) {
	desc := PropertyDescriptor{
		Enumerable:   ToFlag(attrs.Enumerable()),
		Configurable: ToFlag(attrs.Configurable()),
	}
	if getter != nil {
		desc.Getter = ObjectValue(getter)
	}
	if setter != nil {
		desc.Setter = ObjectValue(setter)
	}
	if getter == nil && setter == nil {
		desc.Getter = Undefined
	}
	return o.DefineProperty(key, desc, throw)
}

// DefinePropertyWithoutTransition defines a data property without creating shared
// transitions, for objects with many one-off properties such as globals.
func (o *Object) DefinePropertyWithoutTransition(key PropertyKey, value Value, attrs Attributes) error {
	enabled := o.transitionsEnabled
	o.transitionsEnabled = false
	defer func() { o.transitionsEnabled = enabled }()
	return o.DefineDataProperty(key, value, attrs)
}

func (o *Object) reject(throw bool, format string, args ...any) (bool, error) {
	if throw {
		return false, o.vm.ThrowTypeError(format, args...)
	}
	return false, nil
}

// ordinaryDefineOwnProperty validates desc against the current property and applies it.
func (o *Object) ordinaryDefineOwnProperty(key PropertyKey, desc PropertyDescriptor, throw bool) (bool, error) {
	slot, attrs, found := o.getOwnSlot(key)
	if !found {
		if !o.extensible {
			return o.reject(throw, "Cannot define property %s, object is not extensible", key)
		}
		if desc.IsAccessorDescriptor() {
			attrs = AttrNone.with(AttrEnumerable, desc.Enumerable.Bool()).with(AttrConfigurable, desc.Configurable.Bool())
			return o.commit(key, accessorValue(desc.GetterObject(), desc.SetterObject()), attrs)
		}
		return o.commit(key, desc.Value.OrUndefined(), desc.Attributes())
	}

	if desc.isEmpty() {
		return true, nil
	}

	// A native property's current value is only needed for the SameValue check.
	// Reading it runs host code, so the slot is looked up again afterwards.
	current := slot
	if slot.isNativeProperty() && desc.hasValue() && !attrs.Configurable() && !attrs.Writable() {
		v, _, err := o.readSlot(slot, ObjectValue(o), AllowSideEffects)
		if err != nil {
			return false, err
		}
		slot, attrs, found = o.getOwnSlot(key)
		if !found {
			return o.ordinaryDefineOwnProperty(key, desc, throw)
		}
		current = v
	}

	isAccessor := slot.isAccessor()
	if !attrs.Configurable() {
		if desc.Configurable == FlagTrue {
			return o.reject(throw, "Cannot redefine property: %s", key)
		}
		if desc.Enumerable.IsSet() && desc.Enumerable.Bool() != attrs.Enumerable() {
			return o.reject(throw, "Cannot redefine property: %s", key)
		}
		switch {
		case desc.IsGenericDescriptor():
		case isAccessor != desc.IsAccessorDescriptor():
			return o.reject(throw, "Cannot redefine property: %s", key)
		case isAccessor:
			acc := slot.asAccessor()
			if desc.hasGetter() && desc.GetterObject() != acc.getter ||
				desc.hasSetter() && desc.SetterObject() != acc.setter {
				return o.reject(throw, "Cannot redefine property: %s", key)
			}
		case !attrs.Writable():
			if desc.Writable == FlagTrue {
				return o.reject(throw, "Cannot redefine property: %s", key)
			}
			if desc.hasValue() && !SameValue(desc.Value, current) {
				return o.reject(throw, "Cannot redefine property: %s", key)
			}
		}
	}

	newAttrs := attrs
	if desc.Enumerable.IsSet() {
		newAttrs = newAttrs.with(AttrEnumerable, desc.Enumerable.Bool())
	}
	if desc.Configurable.IsSet() {
		newAttrs = newAttrs.with(AttrConfigurable, desc.Configurable.Bool())
	}

	newSlot := slot
	switch {
	case desc.IsGenericDescriptor():
	case isAccessor && !desc.IsAccessorDescriptor():
		newSlot = desc.Value.OrUndefined()
		newAttrs = newAttrs.with(AttrWritable, desc.Writable.Bool())
	case !isAccessor && desc.IsAccessorDescriptor():
		newSlot = accessorValue(desc.GetterObject(), desc.SetterObject())
		newAttrs = newAttrs.with(AttrWritable, false)
	case isAccessor:
		acc := slot.asAccessor()
		getter, setter := acc.getter, acc.setter
		if desc.hasGetter() {
			getter = desc.GetterObject()
		}
		if desc.hasSetter() {
			setter = desc.SetterObject()
		}
		if getter != acc.getter || setter != acc.setter {
			newSlot = accessorValue(getter, setter)
		}
	default:
		if desc.hasValue() {
			newSlot = desc.Value
		}
		if desc.Writable.IsSet() {
			newAttrs = newAttrs.with(AttrWritable, desc.Writable.Bool())
		}
	}
	return o.commit(key, newSlot, newAttrs)
}

func (o *Object) commit(key PropertyKey, slot Value, attrs Attributes) (bool, error) {
	if err := o.storeOwn(key, slot, attrs); err != nil {
		return false, err
	}
	return true, nil
}

// validateAgainst checks desc against a fixed current property without applying it.
// Exotic objects with immutable virtual properties use it.
func (o *Object) validateAgainst(key PropertyKey, current Value, attrs Attributes, desc PropertyDescriptor, throw bool) (bool, error) {
	if desc.Configurable == FlagTrue && !attrs.Configurable() ||
		desc.Enumerable.IsSet() && desc.Enumerable.Bool() != attrs.Enumerable() ||
		desc.IsAccessorDescriptor() ||
		desc.Writable == FlagTrue && !attrs.Writable() ||
		desc.hasValue() && !SameValue(desc.Value, current) {
		return o.reject(throw, "Cannot redefine property: %s", key)
	}
	return true, nil
}
