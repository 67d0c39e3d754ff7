package vm

import "strings"

// Attributes is the writable/enumerable/configurable bit set of a stored property.
// Accessor properties ignore the writable bit.
type Attributes uint8

const (
	AttrWritable Attributes = 1 << iota
	AttrEnumerable
	AttrConfigurable

	AttrNone Attributes = 0
	// DefaultAttributes is what a plain assignment creates
	DefaultAttributes = AttrWritable | AttrEnumerable | AttrConfigurable
)

func (a Attributes) Writable() bool     { return a&AttrWritable != 0 }
func (a Attributes) Enumerable() bool   { return a&AttrEnumerable != 0 }
func (a Attributes) Configurable() bool { return a&AttrConfigurable != 0 }

func (a Attributes) with(bit Attributes, on bool) Attributes {
	if on {
		return a | bit
	}
	return a &^ bit
}

// String renders the attributes as e.g. "[W-C]"
func (a Attributes) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, f := range []struct {
		bit Attributes
		ch  byte
	}{{AttrWritable, 'W'}, {AttrEnumerable, 'E'}, {AttrConfigurable, 'C'}} {
		if a&f.bit != 0 {
			sb.WriteByte(f.ch)
		} else {
			sb.WriteByte('-')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Flag is a tri-state descriptor field: absent, false or true.
type Flag uint8

const (
	FlagNotSet Flag = iota
	FlagFalse
	FlagTrue
)

func ToFlag(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) IsSet() bool { return f != FlagNotSet }
func (f Flag) Bool() bool  { return f == FlagTrue }

// orElse returns the flag's value or def when it is absent
func (f Flag) orElse(def bool) bool {
	if f == FlagNotSet {
		return def
	}
	return f == FlagTrue
}
