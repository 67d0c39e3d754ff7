package vm

import (
	"slices"
	"unsafe"
)

// SideEffects selects whether a property read may run script or host code
type SideEffects uint8

const (
	AllowSideEffects SideEffects = iota
	// NoSideEffects never invokes a getter or native property; such lookups report absent
	NoSideEffects
)

// accessor is the slot content of an accessor property
type accessor struct {
	getter *Object
	setter *Object
}

func accessorValue(getter, setter *Object) Value {
	return Value{typ: TypeAccessor, obj: unsafe.Pointer(&accessor{getter: getter, setter: setter})}
}

func (v Value) asAccessor() *accessor { return (*accessor)(v.obj) }

// Object is a script object. Named properties live in storage at offsets described
// by the object's Shape; integer-keyed properties live in indexed. The invariant
// len(storage) == shape.SlotCount() holds between operations.
type Object struct {
	vm                 *VM
	shape              ShapeID
	storage            []Value
	indexed            IndexedProperties
	extensible         bool
	transitionsEnabled bool

	class  string
	exotic *exoticHooks
	call   NativeFunction
	// primitive holds internal data: [[StringData]], [[SymbolData]], ...
	primitive Value
}

func (vm *VM) allocateObject(shape ShapeID, class string) *Object {
	return &Object{
		vm:                 vm,
		shape:              shape,
		storage:            make([]Value, vm.shapes.Get(shape).SlotCount()),
		indexed:            newIndexedProperties(vm.opts.SparseThreshold),
		extensible:         true,
		transitionsEnabled: true,
		class:              class,
	}
}

func (o *Object) VM() *VM { return o.vm }

// Shape returns the current shape id of the object
func (o *Object) Shape() ShapeID { return o.shape }

func (o *Object) shapeRef() *Shape { return o.vm.shapes.Get(o.shape) }

// Realm returns the realm the object was created in
func (o *Object) Realm() *Realm { return o.shapeRef().realm }

func (o *Object) Class() string { return o.class }

func (o *Object) IsCallable() bool { return o.call != nil }

func (o *Object) IsArray() bool { return o.exotic == arrayExotic }

// PrimitiveValue returns the wrapped primitive of a String or Symbol wrapper object
func (o *Object) PrimitiveValue() (Value, bool) {
	if o.primitive.IsEmpty() {
		return Undefined, false
	}
	return o.primitive, true
}

// Indexed exposes the indexed property store
func (o *Object) Indexed() *IndexedProperties { return &o.indexed }

// getOwnSlot reads the raw slot for key without running any code.
func (o *Object) getOwnSlot(key PropertyKey) (Value, Attributes, bool) {
	if key.IsIndex() {
		if o.exotic != nil && o.exotic.getOwnIndexed != nil {
			if v, attrs, ok := o.exotic.getOwnIndexed(o, key.Index()); ok {
				return v, attrs, true
			}
		}
		e, ok := o.indexed.Get(key.Index())
		if !ok {
			return Empty, AttrNone, false
		}
		return e.Value, e.Attributes, true
	}
	m, ok := o.vm.shapes.Lookup(o.shape, key)
	if !ok {
		return Empty, AttrNone, false
	}
	return o.storage[m.Offset], m.Attributes, true
}

// readSlot turns a raw slot into a value, running the getter for accessor and
// native slots unless side effects are disallowed.
func (o *Object) readSlot(slot Value, receiver Value, side SideEffects) (Value, bool, error) {
	switch {
	case slot.isAccessor():
		if side == NoSideEffects {
			return Undefined, false, nil
		}
		getter := slot.asAccessor().getter
		if getter == nil {
			return Undefined, true, nil
		}
		v, err := o.vm.Call(ObjectValue(getter), receiver)
		return v, true, err
	case slot.isNativeProperty():
		if side == NoSideEffects {
			return Undefined, false, nil
		}
		np := slot.asNativeProperty()
		if np.get == nil {
			return Undefined, true, nil
		}
		v, err := np.get(o.vm, receiver)
		if err != nil {
			return Undefined, true, o.vm.normalizeError(err)
		}
		return v, true, nil
	default:
		return slot, true, nil
	}
}

// Lookup walks the prototype chain for key. The bool result is false when the
// property is absent, or when it is an accessor and side is NoSideEffects.
func (o *Object) Lookup(key PropertyKey, receiver Value, side SideEffects) (Value, bool, error) {
	for cur := o; cur != nil; cur = cur.Prototype() {
		slot, _, ok := cur.getOwnSlot(key)
		if !ok {
			continue
		}
		return cur.readSlot(slot, receiver, side)
	}
	return Undefined, false, nil
}

// Get returns the value of key with the object itself as receiver; absent reads as undefined
func (o *Object) Get(key PropertyKey) (Value, error) {
	v, _, err := o.Lookup(key, ObjectValue(o), AllowSideEffects)
	return v, err
}

// GetWithoutSideEffects is for diagnostics and formatting: it never runs code.
func (o *Object) GetWithoutSideEffects(key PropertyKey) Value {
	v, _, _ := o.Lookup(key, ObjectValue(o), NoSideEffects)
	return v
}

// GetByName is shorthand for Get(NewStringKey(name))
func (o *Object) GetByName(name string) (Value, error) {
	return o.Get(NewStringKey(name))
}

func (o *Object) HasOwnProperty(key PropertyKey) bool {
	_, _, ok := o.getOwnSlot(key)
	return ok
}

func (o *Object) HasProperty(key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.Prototype() {
		if cur.HasOwnProperty(key) {
			return true
		}
	}
	return false
}

// GetOwnPropertyDescriptor returns a complete descriptor for an own property.
// Native properties are reported as data properties, which runs their getter.
func (o *Object) GetOwnPropertyDescriptor(key PropertyKey) (PropertyDescriptor, bool, error) {
	slot, attrs, ok := o.getOwnSlot(key)
	if !ok {
		return PropertyDescriptor{}, false, nil
	}
	switch {
	case slot.isAccessor():
		acc := slot.asAccessor()
		return AccessorDescriptor(acc.getter, acc.setter, attrs), true, nil
	case slot.isNativeProperty():
		v, _, err := o.readSlot(slot, ObjectValue(o), AllowSideEffects)
		if err != nil {
			return PropertyDescriptor{}, true, err
		}
		return DataDescriptor(v, attrs), true, nil
	default:
		return DataDescriptor(slot, attrs), true, nil
	}
}

// Put implements [[Set]]: it finds key along the prototype chain, calls a setter if
// one is found, refuses non-writable data properties, and otherwise creates or
// overwrites an own data property on receiver. It returns false on refusal.
func (o *Object) Put(key PropertyKey, value Value, receiver Value) (bool, error) {
	for cur := o; cur != nil; cur = cur.Prototype() {
		slot, attrs, ok := cur.getOwnSlot(key)
		if !ok {
			continue
		}
		switch {
		case slot.isAccessor():
			setter := slot.asAccessor().setter
			if setter == nil {
				return false, nil
			}
			if _, err := o.vm.Call(ObjectValue(setter), receiver, value); err != nil {
				return false, err
			}
			return true, nil
		case slot.isNativeProperty():
			np := slot.asNativeProperty()
			if !attrs.Writable() || np.set == nil {
				return false, nil
			}
			if err := np.set(o.vm, receiver, value); err != nil {
				return false, o.vm.normalizeError(err)
			}
			return true, nil
		default:
			if !attrs.Writable() {
				return false, nil
			}
			return setOnReceiver(key, value, receiver)
		}
	}
	return setOnReceiver(key, value, receiver)
}

// setOnReceiver creates or updates the own data property of the receiver
func setOnReceiver(key PropertyKey, value Value, receiver Value) (bool, error) {
	if !receiver.IsObject() {
		return false, nil
	}
	r := receiver.AsObject()
	slot, attrs, ok := r.getOwnSlot(key)
	if !ok {
		return r.DefineProperty(key, DataDescriptor(value, DefaultAttributes), false)
	}
	if slot.isAccessor() || !attrs.Writable() {
		return false, nil
	}
	if slot.isNativeProperty() {
		np := slot.asNativeProperty()
		if np.set == nil {
			return false, nil
		}
		if err := np.set(r.vm, receiver, value); err != nil {
			return false, r.vm.normalizeError(err)
		}
		return true, nil
	}
	return r.DefineProperty(key, ValueOnly(value), false)
}

// Set is Put with the object as receiver. When throw is set a refused write raises
// a TypeError, as a strict-mode assignment would.
func (o *Object) Set(key PropertyKey, value Value, throw bool) (bool, error) {
	ok, err := o.Put(key, value, ObjectValue(o))
	if err != nil {
		return false, err
	}
	if !ok && throw {
		return false, o.vm.ThrowTypeError("Cannot assign to read only property '%s' of %s", key, ObjectValue(o).Inspect())
	}
	return ok, nil
}

// SetByName is shorthand for Set(NewStringKey(name), value, true)
func (o *Object) SetByName(name string, value Value) error {
	_, err := o.Set(NewStringKey(name), value, true)
	return err
}

// Invoke calls the method stored under key with the object as this
func (o *Object) Invoke(key PropertyKey, args ...Value) (Value, error) {
	fn, err := o.Get(key)
	if err != nil {
		return Undefined, err
	}
	if !fn.IsCallable() {
		return Undefined, o.vm.ThrowTypeError("%s is not a function", key)
	}
	return o.vm.Call(fn, ObjectValue(o), args...)
}

// EnsureShapeIsUnique moves the object onto its own mutable shape
func (o *Object) EnsureShapeIsUnique() error {
	if o.shapeRef().unique {
		return nil
	}
	id, err := o.vm.shapes.MakeUnique(o.shape)
	if err != nil {
		return o.vm.allocationFailure(err)
	}
	o.shape = id
	return nil
}

// DisableTransitions makes later property additions mutate a unique shape instead
// of following or creating shared transitions.
func (o *Object) DisableTransitions() { o.transitionsEnabled = false }

func (o *Object) EnableTransitions() { o.transitionsEnabled = true }

func (o *Object) TransitionsEnabled() bool { return o.transitionsEnabled }

// storeOwn writes a validated slot. Named keys follow a transition on addition and
// reconfigure through a unique shape when attributes change.
func (o *Object) storeOwn(key PropertyKey, slot Value, attrs Attributes) error {
	if key.IsIndex() {
		o.indexed.Put(key.Index(), slot, attrs)
		return nil
	}
	shapes := o.vm.shapes
	if m, ok := shapes.Lookup(o.shape, key); ok {
		if m.Attributes != attrs {
			if err := o.EnsureShapeIsUnique(); err != nil {
				return err
			}
			shapes.reconfigureUnique(o.shape, key, attrs)
		}
		o.storage[m.Offset] = slot
		return nil
	}
	if limit := o.vm.opts.MaxStorageSlots; limit > 0 && len(o.storage) >= limit {
		return o.vm.allocationFailure(&AllocationError{What: "property storage", Limit: limit})
	}
	if !o.transitionsEnabled || o.shapeRef().unique {
		if err := o.EnsureShapeIsUnique(); err != nil {
			return err
		}
		shapes.addUnique(o.shape, key, attrs)
		o.storage = append(o.storage, slot)
		return nil
	}
	next, err := shapes.Transition(o.shape, key, attrs)
	if err != nil {
		return o.vm.allocationFailure(err)
	}
	o.shape = next
	o.storage = append(o.storage, slot)
	return nil
}

// defineIntrinsic adds a property to a freshly built object. It is exempt from the
// shape limit so that creating functions, arrays and strings cannot fail halfway.
func (o *Object) defineIntrinsic(key PropertyKey, slot Value, attrs Attributes) {
	next, _ := o.vm.shapes.transition(o.shape, key, attrs, false)
	o.shape = next
	o.storage = append(o.storage, slot)
}

// removeOwn deletes an own slot that the caller already checked is configurable
func (o *Object) removeOwn(key PropertyKey) error {
	if key.IsIndex() {
		o.indexed.Remove(key.Index())
		return nil
	}
	if err := o.EnsureShapeIsUnique(); err != nil {
		return err
	}
	offset := o.vm.shapes.removeUnique(o.shape, key)
	o.storage = slices.Delete(o.storage, offset, offset+1)
	return nil
}

// DeleteProperty removes an own property. Non-configurable properties are kept and
// false is returned, or a TypeError raised when forceThrow is set.
func (o *Object) DeleteProperty(key PropertyKey, forceThrow bool) (bool, error) {
	_, attrs, ok := o.getOwnSlot(key)
	if !ok {
		return true, nil
	}
	if !attrs.Configurable() {
		if forceThrow {
			return false, o.vm.ThrowTypeError("Cannot delete property '%s' of %s", key, ObjectValue(o).Inspect())
		}
		return false, nil
	}
	if err := o.removeOwn(key); err != nil {
		return false, err
	}
	return true, nil
}
