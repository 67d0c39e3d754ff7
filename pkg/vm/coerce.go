package vm

import (
	"math"
	"strconv"
	"strings"
)

// PreferredType is the hint passed to ToPrimitive
type PreferredType uint8

const (
	HintDefault PreferredType = iota
	HintNumber
	HintString
)

func (h PreferredType) String() string {
	switch h {
	case HintNumber:
		return "number"
	case HintString:
		return "string"
	default:
		return "default"
	}
}

var (
	valueOfKey  = NewStringKey("valueOf")
	toStringKey = NewStringKey("toString")
)

// ToPrimitive converts v to a primitive, consulting @@toPrimitive before falling
// back to OrdinaryToPrimitive.
func (vm *VM) ToPrimitive(v Value, hint PreferredType) (Value, error) {
	if !v.IsObject() {
		return v.OrUndefined(), nil
	}
	o := v.AsObject()
	exotic, err := o.Get(NewSymbolKey(SymbolToPrimitive))
	if err != nil {
		return Undefined, err
	}
	if !exotic.IsNullish() {
		if !exotic.IsCallable() {
			return Undefined, vm.ThrowTypeError("Symbol.toPrimitive is not a function")
		}
		result, err := vm.Call(exotic, v, NewString(hint.String()))
		if err != nil {
			return Undefined, err
		}
		if result.IsObject() {
			return Undefined, vm.ThrowTypeError("Cannot convert object to primitive value")
		}
		return result, nil
	}
	if hint == HintDefault {
		hint = HintNumber
	}
	return o.OrdinaryToPrimitive(hint)
}

// OrdinaryToPrimitive tries valueOf and toString in the order the hint selects and
// returns the first primitive result.
func (o *Object) OrdinaryToPrimitive(hint PreferredType) (Value, error) {
	order := [2]PropertyKey{valueOfKey, toStringKey}
	if hint == HintString {
		order = [2]PropertyKey{toStringKey, valueOfKey}
	}
	for _, key := range order {
		method, err := o.Get(key)
		if err != nil {
			return Undefined, err
		}
		if !method.IsCallable() {
			continue
		}
		result, err := o.vm.Call(method, ObjectValue(o))
		if err != nil {
			return Undefined, err
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return Undefined, o.vm.ThrowTypeError("Cannot convert object to primitive value")
}

// ValueOf returns the wrapped primitive of a wrapper object or the object itself
func (o *Object) ValueOf() Value {
	if p, ok := o.PrimitiveValue(); ok {
		return p
	}
	return ObjectValue(o)
}

// ToString implements the abstract ToString operation
func (vm *VM) ToString(v Value) (string, error) {
	switch v.typ {
	case TypeString:
		return v.AsString(), nil
	case TypeUndefined, TypeEmpty:
		return "undefined", nil
	case TypeNull:
		return "null", nil
	case TypeBoolean:
		if v.AsBoolean() {
			return "true", nil
		}
		return "false", nil
	case TypeNumber:
		return NumberToString(v.AsFloat()), nil
	case TypeSymbol:
		return "", vm.ThrowTypeError("Cannot convert a Symbol value to a string")
	case TypeObject:
		prim, err := vm.ToPrimitive(v, HintString)
		if err != nil {
			return "", err
		}
		return vm.ToString(prim)
	default:
		return "", vm.ThrowInternalError("cannot convert %s to a string", v.typ)
	}
}

// ToNumber implements the abstract ToNumber operation
func (vm *VM) ToNumber(v Value) (float64, error) {
	switch v.typ {
	case TypeNumber:
		return v.AsFloat(), nil
	case TypeUndefined, TypeEmpty:
		return math.NaN(), nil
	case TypeNull:
		return 0, nil
	case TypeBoolean:
		if v.AsBoolean() {
			return 1, nil
		}
		return 0, nil
	case TypeString:
		return StringToNumber(v.AsString()), nil
	case TypeSymbol:
		return 0, vm.ThrowTypeError("Cannot convert a Symbol value to a number")
	case TypeObject:
		prim, err := vm.ToPrimitive(v, HintNumber)
		if err != nil {
			return 0, err
		}
		return vm.ToNumber(prim)
	default:
		return 0, vm.ThrowInternalError("cannot convert %s to a number", v.typ)
	}
}

// StringToNumber parses a numeric string literal. Whitespace is trimmed, the empty
// string is 0, and anything malformed is NaN.
func StringToNumber(s string) float64 {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0
	}

	if len(str) > 2 && str[0] == '0' {
		base := 0
		switch str[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(str[2:], '_') {
				return math.NaN()
			}
			if i, err := strconv.ParseUint(str[2:], base, 64); err == nil {
				return float64(i)
			}
			return math.NaN()
		}
	}

	// "Infinity" is case-sensitive here, unlike strconv.ParseFloat
	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	for _, c := range str {
		if !(c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-') {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		// out of range still parses to ±Inf
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// ToPropertyKey converts v to a property key; symbols map to symbol keys and
// canonical array index strings to index keys.
func (vm *VM) ToPropertyKey(v Value) (PropertyKey, error) {
	switch v.typ {
	case TypeSymbol:
		return NewSymbolKey(v.AsSymbol()), nil
	case TypeNumber:
		f := v.AsFloat()
		if f >= 0 && f <= MaxArrayIndex && f == math.Trunc(f) && !(f == 0 && math.Signbit(f)) {
			return NewIndexKey(uint32(f)), nil
		}
	case TypeObject:
		prim, err := vm.ToPrimitive(v, HintString)
		if err != nil {
			return PropertyKey{}, err
		}
		return vm.ToPropertyKey(prim)
	}
	s, err := vm.ToString(v)
	if err != nil {
		return PropertyKey{}, err
	}
	return NewStringKey(s), nil
}

// ToObject wraps primitives in the running realm. undefined and null are a TypeError.
func (vm *VM) ToObject(v Value) (*Object, error) {
	r := vm.CurrentRealm()
	switch v.typ {
	case TypeObject:
		return v.AsObject(), nil
	case TypeUndefined, TypeNull, TypeEmpty:
		return nil, vm.ThrowTypeError("Cannot convert undefined or null to object")
	case TypeString:
		return r.NewStringObject(v.AsString()), nil
	case TypeSymbol:
		return r.NewSymbolObject(v.AsSymbol()), nil
	default:
		// Boolean and Number wrappers carry their primitive without extra behaviour
		o := r.NewObject()
		o.primitive = v
		if v.IsNumber() {
			o.class = "Number"
		} else {
			o.class = "Boolean"
		}
		return o, nil
	}
}

// ToIntegerOrInfinity truncates ToNumber(v); NaN becomes 0
func (vm *VM) ToIntegerOrInfinity(v Value) (float64, error) {
	f, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, nil
	}
	if math.IsInf(f, 0) {
		return f, nil
	}
	return math.Trunc(f) + 0, nil
}

// ToUint32 wraps ToNumber(v) modulo 2^32
func (vm *VM) ToUint32(v Value) (uint32, error) {
	f, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	m := math.Mod(math.Trunc(f), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m), nil
}

// ToLength clamps ToIntegerOrInfinity(v) to [0, 2^53-1]
func (vm *VM) ToLength(v Value) (int64, error) {
	f, err := vm.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, nil
	}
	return int64(math.Min(f, 1<<53-1)), nil
}

// LengthOfArrayLike reads "length" from o and applies ToLength
func (o *Object) LengthOfArrayLike() (int64, error) {
	v, err := o.Get(lengthKey)
	if err != nil {
		return 0, err
	}
	return o.vm.ToLength(v)
}
