package vm

// IntegrityLevel is the target of Object.seal / Object.freeze
type IntegrityLevel uint8

const (
	IntegritySealed IntegrityLevel = iota
	IntegrityFrozen
)

func (l IntegrityLevel) String() string {
	if l == IntegrityFrozen {
		return "frozen"
	}
	return "sealed"
}

// Prototype returns the [[Prototype]] of the object, nil for null
func (o *Object) Prototype() *Object { return o.shapeRef().prototype }

// SetPrototype implements [[SetPrototypeOf]]. It refuses non-extensible objects and
// prototype cycles. The object moves to a unique shape carrying the new prototype.
func (o *Object) SetPrototype(proto *Object, throw bool) (bool, error) {
	if o.Prototype() == proto {
		return true, nil
	}
	if !o.extensible {
		return o.reject(throw, "%s is not extensible", ObjectValue(o).Inspect())
	}
	for p := proto; p != nil; p = p.Prototype() {
		if p == o {
			return o.reject(throw, "Cyclic __proto__ value")
		}
	}
	if err := o.EnsureShapeIsUnique(); err != nil {
		return false, err
	}
	o.vm.shapes.setPrototypeUnique(o.shape, proto)
	return true, nil
}

// HasPrototype reports whether proto appears anywhere on the object's prototype chain
func (o *Object) HasPrototype(proto *Object) bool {
	if proto == nil {
		return false
	}
	for p := o.Prototype(); p != nil; p = p.Prototype() {
		if p == proto {
			return true
		}
	}
	return false
}

func (o *Object) IsExtensible() bool { return o.extensible }

// PreventExtensions is monotonic: an object never becomes extensible again
func (o *Object) PreventExtensions() bool {
	o.extensible = false
	return true
}

// SetIntegrityLevel prevents extensions and then makes every own property
// non-configurable, and data properties non-writable for IntegrityFrozen.
// Keys are captured first; properties removed while the level is applied are skipped.
func (o *Object) SetIntegrityLevel(level IntegrityLevel) (bool, error) {
	if !o.PreventExtensions() {
		return false, nil
	}
	keys := o.OwnPropertyKeys(OwnKeysAll)
	for _, key := range keys {
		desc := PropertyDescriptor{Configurable: FlagFalse}
		if level == IntegrityFrozen {
			slot, _, ok := o.getOwnSlot(key)
			if !ok {
				continue
			}
			if !slot.isAccessor() {
				desc.Writable = FlagFalse
			}
		}
		if _, err := o.DefineProperty(key, desc, true); err != nil {
			return false, err
		}
	}
	return true, nil
}

// TestIntegrityLevel reports whether the object is at least at level. It has no side effects.
func (o *Object) TestIntegrityLevel(level IntegrityLevel) bool {
	if o.extensible {
		return false
	}
	for _, key := range o.OwnPropertyKeys(OwnKeysAll) {
		slot, attrs, ok := o.getOwnSlot(key)
		if !ok {
			continue
		}
		if attrs.Configurable() {
			return false
		}
		if level == IntegrityFrozen && !slot.isAccessor() && attrs.Writable() {
			return false
		}
	}
	return true
}
