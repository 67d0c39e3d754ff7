package vm

import "math"

// exoticHooks overrides parts of the ordinary property protocol for one kind of object.
// A nil hook means the ordinary behaviour.
type exoticHooks struct {
	name string
	// getOwnIndexed reports virtual indexed properties that are not in storage
	getOwnIndexed func(o *Object, index uint32) (Value, Attributes, bool)
	// ownIndices lists the virtual indices in ascending order
	ownIndices        func(o *Object) []uint32
	defineOwnProperty func(o *Object, key PropertyKey, desc PropertyDescriptor, throw bool) (bool, error)
}

var (
	arrayExotic  = &exoticHooks{name: "Array"}
	stringExotic = &exoticHooks{name: "String"}
)

func init() {
	arrayExotic.defineOwnProperty = arrayDefineOwnProperty
	stringExotic.getOwnIndexed = stringGetOwnIndexed
	stringExotic.ownIndices = stringOwnIndices
	stringExotic.defineOwnProperty = stringDefineOwnProperty
}

var lengthKey = NewStringKey("length")

// --- Array ---

func (o *Object) arrayLength() uint32 {
	m, ok := o.vm.shapes.Lookup(o.shape, lengthKey)
	if !ok {
		return 0
	}
	return uint32(o.storage[m.Offset].AsFloat())
}

func (o *Object) lengthAttributes() Attributes {
	m, _ := o.vm.shapes.Lookup(o.shape, lengthKey)
	return m.Attributes
}

// setArrayLengthSlot writes length directly; the caller has validated writability
func (o *Object) setArrayLengthSlot(n uint32) {
	m, _ := o.vm.shapes.Lookup(o.shape, lengthKey)
	o.storage[m.Offset] = NumberValue(float64(n))
}

func arrayDefineOwnProperty(o *Object, key PropertyKey, desc PropertyDescriptor, throw bool) (bool, error) {
	if key == lengthKey {
		return o.arraySetLength(desc, throw)
	}
	if !key.IsIndex() {
		return o.ordinaryDefineOwnProperty(key, desc, throw)
	}
	index := key.Index()
	oldLen := o.arrayLength()
	if index >= oldLen && !o.lengthAttributes().Writable() {
		return o.reject(throw, "Cannot add property %d, array length is not writable", index)
	}
	ok, err := o.ordinaryDefineOwnProperty(key, desc, throw)
	if err != nil || !ok {
		return ok, err
	}
	if index >= oldLen {
		o.setArrayLengthSlot(index + 1)
	}
	return true, nil
}

// arraySetLength implements ArraySetLength. Shrinking deletes trailing elements from
// the end and stops at the first one that cannot be deleted.
func (o *Object) arraySetLength(desc PropertyDescriptor, throw bool) (bool, error) {
	if !desc.hasValue() {
		return o.ordinaryDefineOwnProperty(lengthKey, desc, throw)
	}
	number, err := o.vm.ToNumber(desc.Value)
	if err != nil {
		return false, err
	}
	newLen, ok := toArrayLength(number)
	if !ok {
		return false, o.vm.ThrowRangeError("Invalid array length")
	}
	// ToNumber may have run user code; read length again
	oldLen := o.arrayLength()
	lengthAttrs := o.lengthAttributes()
	newDesc := desc
	newDesc.Value = NumberValue(float64(newLen))
	if newLen >= oldLen {
		ok, err := o.ordinaryDefineOwnProperty(lengthKey, newDesc, throw)
		if ok && err == nil {
			o.indexed.SetArrayLikeSize(max(newLen, o.indexed.ArrayLikeSize()))
		}
		return ok, err
	}
	if !lengthAttrs.Writable() {
		return o.reject(throw, "Cannot assign to read only property 'length' of array")
	}
	makeReadOnly := desc.Writable == FlagFalse
	newDesc.Writable = FlagNotSet
	if ok, err := o.ordinaryDefineOwnProperty(lengthKey, newDesc, throw); !ok || err != nil {
		return ok, err
	}

	indices := o.indexed.Indices()
	for i := len(indices) - 1; i >= 0 && indices[i] >= newLen; i-- {
		idx := indices[i]
		entry, present := o.indexed.Get(idx)
		if !present {
			continue
		}
		if !entry.Attributes.Configurable() {
			o.setArrayLengthSlot(idx + 1)
			if makeReadOnly {
				o.ordinaryDefineOwnProperty(lengthKey, PropertyDescriptor{Writable: FlagFalse}, false)
			}
			o.indexed.SetArrayLikeSize(idx + 1)
			return o.reject(throw, "Cannot delete array element %d", idx)
		}
		o.indexed.Remove(idx)
	}
	o.indexed.SetArrayLikeSize(newLen)
	if makeReadOnly {
		return o.ordinaryDefineOwnProperty(lengthKey, PropertyDescriptor{Writable: FlagFalse}, throw)
	}
	return true, nil
}

// toArrayLength checks that number is a valid array length (ToUint32(n) == n)
func toArrayLength(number float64) (uint32, bool) {
	if math.IsNaN(number) || math.IsInf(number, 0) || number < 0 || number > math.MaxUint32 || number != math.Trunc(number) {
		return 0, false
	}
	return uint32(number), true
}

// --- String ---

func (o *Object) stringData() string {
	if o.primitive.IsString() {
		return o.primitive.AsString()
	}
	return ""
}

func stringGetOwnIndexed(o *Object, index uint32) (Value, Attributes, bool) {
	units := utf16Units(o.stringData())
	if int64(index) >= int64(len(units)) {
		return Empty, AttrNone, false
	}
	return NewString(StringFromUnits(units[index : index+1])), AttrEnumerable, true
}

func stringOwnIndices(o *Object) []uint32 {
	n := utf16Length(o.stringData())
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

func stringDefineOwnProperty(o *Object, key PropertyKey, desc PropertyDescriptor, throw bool) (bool, error) {
	if key.IsIndex() {
		if current, attrs, ok := stringGetOwnIndexed(o, key.Index()); ok {
			return o.validateAgainst(key, current, attrs, desc, throw)
		}
	}
	return o.ordinaryDefineOwnProperty(key, desc, throw)
}
