package vm

import (
	"fmt"
	"strconv"
)

// KeyKind distinguishes the three disjoint property key spaces
type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
	KeyKindIndex
)

// MaxArrayIndex is the largest integer that is stored as an indexed property (2^32 - 2).
const MaxArrayIndex = 4294967294

// PropertyKey names an own property. Canonical array-index strings are normalized to
// KeyKindIndex on construction, so a string key never holds an integer index.
// PropertyKey is comparable and usable as a map key.
type PropertyKey struct {
	kind  KeyKind
	name  string
	index uint32
	sym   *Symbol
}

// NewStringKey constructs a key for a string-named property.
func NewStringKey(name string) PropertyKey {
	if idx, ok := tryParseArrayIndex(name); ok {
		return PropertyKey{kind: KeyKindIndex, index: idx}
	}
	return PropertyKey{kind: KeyKindString, name: name}
}

// NewIndexKey constructs a key for an integer-indexed property.
// 2^32-1 is not an array index and becomes the string key "4294967295".
func NewIndexKey(index uint32) PropertyKey {
	if index > MaxArrayIndex {
		return PropertyKey{kind: KeyKindString, name: strconv.FormatUint(uint64(index), 10)}
	}
	return PropertyKey{kind: KeyKindIndex, index: index}
}

// NewSymbolKey constructs a key for a symbol-named property.
func NewSymbolKey(sym *Symbol) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, sym: sym}
}

func (k PropertyKey) Kind() KeyKind   { return k.kind }
func (k PropertyKey) IsString() bool  { return k.kind == KeyKindString }
func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }
func (k PropertyKey) IsIndex() bool   { return k.kind == KeyKindIndex }
func (k PropertyKey) Index() uint32   { return k.index }
func (k PropertyKey) Symbol() *Symbol { return k.sym }

// Name returns the string form of a string or index key. Symbol keys return "".
func (k PropertyKey) Name() string {
	switch k.kind {
	case KeyKindIndex:
		return strconv.FormatUint(uint64(k.index), 10)
	case KeyKindString:
		return k.name
	default:
		return ""
	}
}

// ToValue returns the key as a script value: a string for string and index keys,
// the symbol itself otherwise.
func (k PropertyKey) ToValue() Value {
	if k.kind == KeyKindSymbol {
		return SymbolValue(k.sym)
	}
	return NewString(k.Name())
}

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		return k.sym.String()
	}
	return k.Name()
}

// functionName derives the "name" a function gets when installed under this key
func (k PropertyKey) functionName() string {
	if k.kind == KeyKindSymbol {
		if desc, ok := k.sym.Description(); ok {
			return fmt.Sprintf("[%s]", desc)
		}
		return ""
	}
	return k.Name()
}

// tryParseArrayIndex checks if a string is a canonical array index ("0", "1", ..., "4294967294").
func tryParseArrayIndex(key string) (uint32, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	// Leading zeros not allowed (except "0" itself)
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	var idx uint64
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		idx = idx*10 + uint64(ch-'0')
	}
	if idx > MaxArrayIndex {
		return 0, false
	}
	return uint32(idx), true
}
