package vm

import (
	"fmt"
	"strconv"
	"strings"
)

const inspectMaxDepth = 4

// Inspect returns a developer-friendly representation of Value, similar to a REPL.
// It never runs getters or native properties.
func (v Value) Inspect() string {
	return v.inspectWithDepth(false, 0, nil)
}

// InspectNested is used for nested contexts where strings should be quoted
func (v Value) InspectNested() string {
	return v.inspectWithDepth(true, 0, nil)
}

func (v Value) inspectWithDepth(nested bool, depth int, seen []*Object) string {
	switch v.typ {
	case TypeEmpty:
		return "<empty>"
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return NumberToString(v.AsFloat())
	case TypeString:
		if nested {
			return strconv.Quote(v.AsString())
		}
		return v.AsString()
	case TypeSymbol:
		return v.AsSymbol().String()
	case TypeAccessor:
		acc := v.asAccessor()
		switch {
		case acc.getter != nil && acc.setter != nil:
			return "[Getter/Setter]"
		case acc.getter != nil:
			return "[Getter]"
		case acc.setter != nil:
			return "[Setter]"
		default:
			return "[Accessor]"
		}
	case TypeNativeProperty:
		return "[Native]"
	case TypeObject:
		return v.AsObject().inspect(depth, seen)
	default:
		return fmt.Sprintf("<unknown %d>", v.typ)
	}
}

func (o *Object) inspect(depth int, seen []*Object) string {
	for _, s := range seen {
		if s == o {
			return "[Circular]"
		}
	}
	if o.IsCallable() {
		if name := o.FunctionName(); name != "" {
			return fmt.Sprintf("[Function: %s]", name)
		}
		return "[Function (anonymous)]"
	}
	if o.class == "Error" {
		return describeThrown(ObjectValue(o))
	}
	if depth >= inspectMaxDepth {
		if o.IsArray() {
			return "[Array]"
		}
		return "[Object]"
	}
	seen = append(seen, o)

	var parts []string
	for _, key := range o.OwnPropertyKeys(OwnKeysAll) {
		if o.IsArray() && key == lengthKey {
			continue
		}
		slot, attrs, ok := o.getOwnSlot(key)
		if !ok || !attrs.Enumerable() {
			continue
		}
		value := slot.inspectWithDepth(true, depth+1, seen)
		if o.IsArray() && key.IsIndex() {
			parts = append(parts, value)
			continue
		}
		name := key.String()
		if key.IsSymbol() {
			name = "[" + name + "]"
		}
		parts = append(parts, name+": "+value)
	}

	switch {
	case o.IsArray():
		return "[" + strings.Join(parts, ", ") + "]"
	case o.primitive.IsString() || o.primitive.IsSymbol() || o.primitive.IsNumber() || o.primitive.IsBoolean():
		wrapped := fmt.Sprintf("[%s: %s]", o.class, o.primitive.inspectWithDepth(true, depth+1, seen))
		if o.primitive.IsString() {
			// character indices are already shown by the wrapped string
			parts = parts[:0]
			for _, key := range o.vm.shapes.Keys(o.shape) {
				if slot, attrs, ok := o.getOwnSlot(key); ok && attrs.Enumerable() {
					parts = append(parts, key.String()+": "+slot.inspectWithDepth(true, depth+1, seen))
				}
			}
		}
		if len(parts) == 0 {
			return wrapped
		}
		return wrapped + " {" + strings.Join(parts, ", ") + "}"
	default:
		if len(parts) == 0 {
			return "{}"
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
