package vm

import (
	"math"
	"testing"
)

func TestStringToNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"", 0},
		{"   ", 0},
		{" 12 ", 12},
		{"+5", 5},
		{"-3.5", -3.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"0x1_0", math.NaN()},
		{"0x", math.NaN()},
		{"-0x10", math.NaN()},
		{"1_000", math.NaN()},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"infinity", math.NaN()},
		{"inf", math.NaN()},
		{"1e1000", math.Inf(1)},
		{"12px", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			floatsEqual(t, tt.expected, StringToNumber(tt.input), "input", tt.input)
		})
	}
}

func TestToPrimitive_Exotic(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	o.DefineNativeFunction(NewSymbolKey(SymbolToPrimitive), 1, func(call FunctionCall) (Value, error) {
		return call.Argument(0), nil
	}, DefaultAttributes)

	for _, hint := range []PreferredType{HintDefault, HintNumber, HintString} {
		v, err := vm.ToPrimitive(ObjectValue(o), hint)
		if err != nil {
			t.Fatal(err)
		}
		if v.AsString() != hint.String() {
			t.Errorf("expected hint %q, got %v", hint, v.Inspect())
		}
	}

	bad := vm.CurrentRealm().NewObject()
	bad.Set(NewSymbolKey(SymbolToPrimitive), NumberValue(1), true)
	_, err := vm.ToPrimitive(ObjectValue(bad), HintDefault)
	expectThrow(t, err, ErrorKindTypeError, "Symbol.toPrimitive is not a function")

	returnsObject := vm.CurrentRealm().NewObject()
	returnsObject.DefineNativeFunction(NewSymbolKey(SymbolToPrimitive), 1, func(call FunctionCall) (Value, error) {
		return call.This, nil
	}, DefaultAttributes)
	_, err = vm.ToPrimitive(ObjectValue(returnsObject), HintNumber)
	expectThrow(t, err, ErrorKindTypeError, "Cannot convert object to primitive value")
}

func TestOrdinaryToPrimitive_Order(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	var calls []string
	o.DefineNativeFunction(valueOfKey, 0, func(FunctionCall) (Value, error) {
		calls = append(calls, "valueOf")
		return NumberValue(42), nil
	}, DefaultAttributes)
	o.DefineNativeFunction(toStringKey, 0, func(FunctionCall) (Value, error) {
		calls = append(calls, "toString")
		return NewString("str"), nil
	}, DefaultAttributes)

	n, err := vm.ToNumber(ObjectValue(o))
	if err != nil || n != 42 {
		t.Errorf("ToNumber: got %v (err=%v)", n, err)
	}
	s, err := vm.ToString(ObjectValue(o))
	if err != nil || s != "str" {
		t.Errorf("ToString: got %q (err=%v)", s, err)
	}
	if len(calls) != 2 || calls[0] != "valueOf" || calls[1] != "toString" {
		t.Errorf("unexpected call order %v", calls)
	}

	key, err := vm.ToPropertyKey(ObjectValue(o))
	if err != nil || key != NewStringKey("str") {
		t.Errorf("ToPropertyKey should prefer toString, got %v (err=%v)", key, err)
	}
}

func TestOrdinaryToPrimitive_FallsThrough(t *testing.T) {
	vm := NewVM()
	o := vm.CurrentRealm().NewObject()
	o.Set(valueOfKey, NumberValue(1), true)
	o.DefineNativeFunction(toStringKey, 0, func(FunctionCall) (Value, error) {
		return NewString("7"), nil
	}, DefaultAttributes)

	n, err := vm.ToNumber(ObjectValue(o))
	if err != nil || n != 7 {
		t.Errorf("non-callable valueOf should be skipped, got %v (err=%v)", n, err)
	}

	opaque := vm.CurrentRealm().NewObject()
	self := func(call FunctionCall) (Value, error) { return call.This, nil }
	opaque.DefineNativeFunction(valueOfKey, 0, self, DefaultAttributes)
	opaque.DefineNativeFunction(toStringKey, 0, self, DefaultAttributes)
	_, err = vm.ToString(ObjectValue(opaque))
	expectThrow(t, err, ErrorKindTypeError, "Cannot convert object to primitive value")
}

func TestToPropertyKey(t *testing.T) {
	vm := NewVM()
	sym := NewSymbolWithDescription("k")
	tests := []struct {
		name     string
		input    Value
		expected PropertyKey
	}{
		{"integer", NumberValue(3), NewIndexKey(3)},
		{"negative zero", NumberValue(math.Copysign(0, -1)), NewIndexKey(0)},
		{"fraction", NumberValue(1.5), NewStringKey("1.5")},
		{"negative", NumberValue(-1), NewStringKey("-1")},
		{"beyond index range", NumberValue(4294967295), NewStringKey("4294967295")},
		{"index string", NewString("7"), NewIndexKey(7)},
		{"leading zero", NewString("07"), NewStringKey("07")},
		{"boolean", True, NewStringKey("true")},
		{"undefined", Undefined, NewStringKey("undefined")},
		{"symbol", SymbolValue(sym), NewSymbolKey(sym)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := vm.ToPropertyKey(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if key != tt.expected {
				t.Errorf("expected %v (%d), got %v (%d)", tt.expected, tt.expected.Kind(), key, key.Kind())
			}
		})
	}
	if NewStringKey("4294967295").IsIndex() {
		t.Error("2^32-1 is not an array index")
	}
}

func TestToString_Primitives(t *testing.T) {
	vm := NewVM()
	tests := []struct {
		input    Value
		expected string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{True, "true"},
		{NumberValue(-0.0), "0"},
		{NumberValue(1e21), "1e+21"},
		{NaN, "NaN"},
		{NewString("x"), "x"},
	}
	for _, tt := range tests {
		s, err := vm.ToString(tt.input)
		if err != nil || s != tt.expected {
			t.Errorf("ToString(%s): expected %q, got %q (err=%v)", tt.input.Inspect(), tt.expected, s, err)
		}
	}

	_, err := vm.ToString(NewSymbol("s"))
	expectThrow(t, err, ErrorKindTypeError, "Cannot convert a Symbol value to a string")
	_, err = vm.ToNumber(NewSymbol("s"))
	expectThrow(t, err, ErrorKindTypeError, "Cannot convert a Symbol value to a number")
}

func TestToUint32AndLength(t *testing.T) {
	vm := NewVM()
	uintCases := []struct {
		input    Value
		expected uint32
	}{
		{NumberValue(-1), 4294967295},
		{NumberValue(4294967301), 5},
		{NumberValue(3.9), 3},
		{NaN, 0},
		{NumberValue(math.Inf(1)), 0},
		{NewString("12"), 12},
	}
	for _, tt := range uintCases {
		got, err := vm.ToUint32(tt.input)
		if err != nil || got != tt.expected {
			t.Errorf("ToUint32(%s): expected %d, got %d (err=%v)", tt.input.Inspect(), tt.expected, got, err)
		}
	}

	lengthCases := []struct {
		input    Value
		expected int64
	}{
		{NumberValue(-5), 0},
		{NumberValue(2.7), 2},
		{NumberValue(math.Inf(1)), 1<<53 - 1},
		{Undefined, 0},
		{NewString("8"), 8},
	}
	for _, tt := range lengthCases {
		got, err := vm.ToLength(tt.input)
		if err != nil || got != tt.expected {
			t.Errorf("ToLength(%s): expected %d, got %d (err=%v)", tt.input.Inspect(), tt.expected, got, err)
		}
	}

	n, _ := vm.ToIntegerOrInfinity(NumberValue(-0.5))
	if n != 0 || math.Signbit(n) {
		t.Errorf("ToIntegerOrInfinity(-0.5) should be +0, got %v", n)
	}
}

func TestToObject(t *testing.T) {
	vm := NewVM()

	_, err := vm.ToObject(Null)
	expectThrow(t, err, ErrorKindTypeError, "Cannot convert undefined or null to object")

	s, err := vm.ToObject(NewString("ab"))
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := s.PrimitiveValue(); !ok || p.AsString() != "ab" {
		t.Error("string wrapper lost its primitive")
	}
	if n, _ := s.LengthOfArrayLike(); n != 2 {
		t.Errorf("expected wrapper length 2, got %d", n)
	}

	num, _ := vm.ToObject(NumberValue(4))
	if num.Class() != "Number" || num.ValueOf().AsFloat() != 4 {
		t.Errorf("unexpected number wrapper %s", ObjectValue(num).Inspect())
	}
	if ObjectValue(num).Inspect() != "[Number: 4]" {
		t.Errorf("unexpected inspect output %q", ObjectValue(num).Inspect())
	}

	plain := vm.CurrentRealm().NewObject()
	if same, _ := vm.ToObject(ObjectValue(plain)); same != plain {
		t.Error("objects convert to themselves")
	}
	if plain.ValueOf().AsObject() != plain {
		t.Error("ValueOf of a plain object is the object")
	}
}

func TestLengthOfArrayLike(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	if n, _ := realm.NewArray(True, True, True).LengthOfArrayLike(); n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
	o := realm.NewObject()
	o.Set(lengthKey, NewString("2"), true)
	if n, _ := o.LengthOfArrayLike(); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}
