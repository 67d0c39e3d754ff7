package vm

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
	"unsafe"
)

// cleanExponentialFormat removes leading zeros from exponent to match JS format
// e.g., "1e-07" -> "1e-7", "1e+25" -> "1e+25"
func cleanExponentialFormat(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				sign := s[i+1]
				j := i + 2
				for j < len(s) && s[j] == '0' {
					j++
				}
				if j >= len(s) {
					return s[:i+2] + "0"
				}
				return s[:i+1] + string(sign) + s[j:]
			}
			break
		}
	}
	return s
}

type ValueType uint8

const (
	TypeEmpty ValueType = iota // Internal marker for "no value"; the zero Value

	TypeUndefined
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeSymbol
	TypeObject

	TypeAccessor       // Internal slot content: getter/setter pair
	TypeNativeProperty // Internal slot content: host-backed data property
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case TypeEmpty:
		return "<empty>"
	case TypeAccessor:
		return "<accessor>"
	case TypeNativeProperty:
		return "<native property>"
	default:
		return fmt.Sprintf("<unknown type: %d>", vt)
	}
}

type stringCell struct {
	value string
}

// Symbol is a unique property key. Two symbols are equal only by identity.
type Symbol struct {
	description    string
	hasDescription bool
}

// NewSymbolWithDescription creates a fresh symbol
func NewSymbolWithDescription(description string) *Symbol {
	return &Symbol{description: description, hasDescription: true}
}

// NewAnonymousSymbol creates a symbol whose description is undefined
func NewAnonymousSymbol() *Symbol {
	return &Symbol{}
}

func (s *Symbol) Description() (string, bool) { return s.description, s.hasDescription }

func (s *Symbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.description)
}

// Value is a tagged script value. Object, string and symbol payloads live behind obj.
type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	Empty     = Value{typ: TypeEmpty}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int) Value {
	return NumberValue(float64(value))
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&stringCell{value: value})}
}

func SymbolValue(sym *Symbol) Value {
	return Value{typ: TypeSymbol, obj: unsafe.Pointer(sym)}
}

// NewSymbol creates a new symbol value with the given description
func NewSymbol(description string) Value {
	return SymbolValue(NewSymbolWithDescription(description))
}

func ObjectValue(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{typ: TypeObject, obj: unsafe.Pointer(o)}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNullish() bool   { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsSymbol() bool    { return v.typ == TypeSymbol }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsEmpty() bool     { return v.typ == TypeEmpty }

func (v Value) isAccessor() bool       { return v.typ == TypeAccessor }
func (v Value) isNativeProperty() bool { return v.typ == TypeNativeProperty }

// IsPrimitive reports whether v is a language value that is not an object
func (v Value) IsPrimitive() bool {
	return v.typ >= TypeUndefined && v.typ <= TypeSymbol
}

// IsCallable reports whether v is an object with a [[Call]] behaviour
func (v Value) IsCallable() bool {
	return v.typ == TypeObject && v.AsObject().IsCallable()
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload != 0
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeNumber {
		panic("value is not a number")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*stringCell)(v.obj).value
}

func (v Value) AsSymbol() *Symbol {
	if v.typ != TypeSymbol {
		panic("value is not a symbol")
	}
	return (*Symbol)(v.obj)
}

func (v Value) AsObject() *Object {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return (*Object)(v.obj)
}

// OrUndefined maps the internal Empty marker to undefined
func (v Value) OrUndefined() Value {
	if v.typ == TypeEmpty {
		return Undefined
	}
	return v
}

// IsTruthy implements ToBoolean
func (v Value) IsTruthy() bool {
	switch v.typ {
	case TypeUndefined, TypeNull, TypeEmpty:
		return false
	case TypeBoolean:
		return v.payload != 0
	case TypeNumber:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case TypeString:
		return v.AsString() != ""
	default:
		return true
	}
}

// TypeName returns the result of the typeof operator
func (v Value) TypeName() string {
	switch v.typ {
	case TypeObject:
		if v.AsObject().IsCallable() {
			return "function"
		}
		return "object"
	case TypeNull:
		return "object"
	default:
		return v.typ.String()
	}
}

// NumberToString formats a number following ECMAScript Number::toString
func NumberToString(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		return "0"
	}
	absF := math.Abs(f)
	if absF < 1e-6 || absF >= 1e21 {
		return cleanExponentialFormat(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SameValue implements the ECMAScript SameValue algorithm: NaN is NaN, +0 is not -0.
func SameValue(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull, TypeEmpty:
		return true
	case TypeBoolean:
		return a.payload == b.payload
	case TypeNumber:
		af, bf := a.AsFloat(), b.AsFloat()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		if af == 0 && bf == 0 {
			return math.Signbit(af) == math.Signbit(bf)
		}
		return af == bf
	case TypeString:
		return a.AsString() == b.AsString()
	default:
		return a.obj == b.obj
	}
}

// Is compares two values with SameValueZero: like SameValue but +0 equals -0.
func (v Value) Is(other Value) bool {
	if v.typ == TypeNumber && other.typ == TypeNumber {
		vf, of := v.AsFloat(), other.AsFloat()
		if math.IsNaN(vf) && math.IsNaN(of) {
			return true
		}
		return vf == of
	}
	return SameValue(v, other)
}

// StrictlyEquals implements ===
func (v Value) StrictlyEquals(other Value) bool {
	if v.typ == TypeNumber && other.typ == TypeNumber {
		return v.AsFloat() == other.AsFloat()
	}
	return SameValue(v, other)
}

// utf16Units returns the UTF-16 code units of s, the unit JS string indices count in.
func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// utf16Length returns the number of UTF-16 code units in s without allocating
func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// StringFromUnits converts UTF-16 code units back to a Go string. Lone surrogates become U+FFFD.
func StringFromUnits(units []uint16) string {
	return string(utf16.Decode(units))
}

// StringLength returns the JS length (UTF-16 code units) of s
func StringLength(s string) int { return utf16Length(s) }

// StringUnits exposes the UTF-16 view of s to builtins
func StringUnits(s string) []uint16 { return utf16Units(s) }
