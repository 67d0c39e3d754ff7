package builtins

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"protoshape/pkg/vm"
)

// maxStringLength bounds strings built by repeat and padding, in UTF-16 units
const maxStringLength = 1<<29 - 24

type StringInitializer struct{}

func (s *StringInitializer) Name() string {
	return "String"
}

func (s *StringInitializer) Priority() int {
	return PriorityString
}

// stringOp implements a String.prototype method on the coerced receiver
type stringOp func(call vm.FunctionCall, s string) (vm.Value, error)

func stringMethod(name string, length int, op stringOp) nativeMethod {
	return nativeMethod{name, length, func(call vm.FunctionCall) (vm.Value, error) {
		if call.This.IsNullish() {
			return vm.Undefined, call.VM.ThrowTypeError("String.prototype.%s called on null or undefined", name)
		}
		s, err := call.VM.ToString(call.This)
		if err != nil {
			return vm.Undefined, err
		}
		return op(call, s)
	}}
}

func (s *StringInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	stringProto := realm.StringPrototype
	collators := make(map[language.Tag]*collate.Collator)

	methods := []nativeMethod{
		stringMethod("charAt", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			pos, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			if pos < 0 || pos >= float64(len(units)) {
				return vm.NewString(""), nil
			}
			return vm.NewString(vm.StringFromUnits(units[int(pos) : int(pos)+1])), nil
		}),
		stringMethod("charCodeAt", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			pos, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			if pos < 0 || pos >= float64(len(units)) {
				return vm.NaN, nil
			}
			return vm.NumberValue(float64(units[int(pos)])), nil
		}),
		stringMethod("codePointAt", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			pos, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			if pos < 0 || pos >= float64(len(units)) {
				return vm.Undefined, nil
			}
			i := int(pos)
			if i+1 < len(units) && utf16.IsSurrogate(rune(units[i])) {
				if r := utf16.DecodeRune(rune(units[i]), rune(units[i+1])); r != unicode.ReplacementChar {
					return vm.NumberValue(float64(r)), nil
				}
			}
			return vm.NumberValue(float64(units[i])), nil
		}),
		stringMethod("at", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			rel, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			k := rel
			if rel < 0 {
				k = float64(len(units)) + rel
			}
			if k < 0 || k >= float64(len(units)) {
				return vm.Undefined, nil
			}
			return vm.NewString(vm.StringFromUnits(units[int(k) : int(k)+1])), nil
		}),
		stringMethod("repeat", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			n, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			if n < 0 || math.IsInf(n, 1) {
				return vm.Undefined, call.VM.ThrowRangeError("Invalid count value: %s", vm.NumberToString(n))
			}
			if n == 0 || s == "" {
				return vm.NewString(""), nil
			}
			if float64(vm.StringLength(s))*n > maxStringLength {
				return vm.Undefined, call.VM.ThrowRangeError("Invalid string length")
			}
			return vm.NewString(strings.Repeat(s, int(n))), nil
		}),
		stringMethod("startsWith", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			search, err := call.VM.ToString(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			pos, err := call.VM.ToIntegerOrInfinity(call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			start := clampIndex(pos, int64(len(units)))
			return vm.BooleanValue(hasUnitsAt(units, vm.StringUnits(search), int(start))), nil
		}),
		stringMethod("endsWith", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			search, err := call.VM.ToString(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			end := int64(len(units))
			if e := call.Argument(1); !e.IsUndefined() {
				pos, err := call.VM.ToIntegerOrInfinity(e)
				if err != nil {
					return vm.Undefined, err
				}
				end = clampIndex(pos, end)
			}
			searchUnits := vm.StringUnits(search)
			start := int(end) - len(searchUnits)
			return vm.BooleanValue(start >= 0 && hasUnitsAt(units, searchUnits, start)), nil
		}),
		stringMethod("includes", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			idx, err := stringIndexOf(call, s)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.BooleanValue(idx >= 0), nil
		}),
		stringMethod("indexOf", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			idx, err := stringIndexOf(call, s)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NumberValue(float64(idx)), nil
		}),
		stringMethod("lastIndexOf", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			search, err := call.VM.ToString(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			numPos, err := call.VM.ToNumber(call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			pos := math.Inf(1)
			if !math.IsNaN(numPos) {
				pos = math.Trunc(numPos)
			}
			searchUnits := vm.StringUnits(search)
			start := min(int(clampIndex(pos, int64(len(units)))), len(units)-len(searchUnits))
			for i := start; i >= 0; i-- {
				if hasUnitsAt(units, searchUnits, i) {
					return vm.NumberValue(float64(i)), nil
				}
			}
			return vm.NumberValue(-1), nil
		}),
		stringMethod("toLowerCase", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return vm.NewString(cases.Lower(language.Und).String(s)), nil
		}),
		stringMethod("toUpperCase", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return vm.NewString(cases.Upper(language.Und).String(s)), nil
		}),
		stringMethod("toLocaleLowerCase", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			tag, err := localeArgument(call, call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NewString(cases.Lower(tag).String(s)), nil
		}),
		stringMethod("toLocaleUpperCase", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			tag, err := localeArgument(call, call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NewString(cases.Upper(tag).String(s)), nil
		}),
		{"toString", 0, thisStringValueFunction("toString")},
		{"valueOf", 0, thisStringValueFunction("valueOf")},
		stringMethod("padStart", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return stringPad(call, s, true)
		}),
		stringMethod("padEnd", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return stringPad(call, s, false)
		}),
		stringMethod("trim", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return vm.NewString(strings.TrimFunc(s, isJSWhitespace)), nil
		}),
		stringMethod("trimStart", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return vm.NewString(strings.TrimLeftFunc(s, isJSWhitespace)), nil
		}),
		stringMethod("trimEnd", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			return vm.NewString(strings.TrimRightFunc(s, isJSWhitespace)), nil
		}),
		stringMethod("concat", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			var sb strings.Builder
			sb.WriteString(s)
			for _, arg := range call.Arguments {
				part, err := call.VM.ToString(arg)
				if err != nil {
					return vm.Undefined, err
				}
				sb.WriteString(part)
			}
			return vm.NewString(sb.String()), nil
		}),
		stringMethod("slice", 2, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			length := int64(len(units))
			start, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			from, to := relativeIndex(start, length), length
			if e := call.Argument(1); !e.IsUndefined() {
				end, err := call.VM.ToIntegerOrInfinity(e)
				if err != nil {
					return vm.Undefined, err
				}
				to = relativeIndex(end, length)
			}
			if from >= to {
				return vm.NewString(""), nil
			}
			return vm.NewString(vm.StringFromUnits(units[from:to])), nil
		}),
		stringMethod("substring", 2, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			length := int64(len(units))
			start, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			intStart, intEnd := clampIndex(start, length), length
			if e := call.Argument(1); !e.IsUndefined() {
				end, err := call.VM.ToIntegerOrInfinity(e)
				if err != nil {
					return vm.Undefined, err
				}
				intEnd = clampIndex(end, length)
			}
			from, to := min(intStart, intEnd), max(intStart, intEnd)
			return vm.NewString(vm.StringFromUnits(units[from:to])), nil
		}),
		stringMethod("substr", 2, func(call vm.FunctionCall, s string) (vm.Value, error) {
			units := vm.StringUnits(s)
			length := int64(len(units))
			start, err := call.VM.ToIntegerOrInfinity(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			from := relativeIndex(start, length)
			count := length
			if l := call.Argument(1); !l.IsUndefined() {
				n, err := call.VM.ToIntegerOrInfinity(l)
				if err != nil {
					return vm.Undefined, err
				}
				count = clampIndex(n, length)
			}
			to := min(from+count, length)
			if from >= to {
				return vm.NewString(""), nil
			}
			return vm.NewString(vm.StringFromUnits(units[from:to])), nil
		}),
		stringMethod("split", 2, stringSplit),
		stringMethod("match", 1, stringMatch),
		stringMethod("search", 1, stringSearch),
		stringMethod("replace", 2, stringReplace),
		stringMethod("localeCompare", 1, func(call vm.FunctionCall, s string) (vm.Value, error) {
			that, err := call.VM.ToString(call.Argument(0))
			if err != nil {
				return vm.Undefined, err
			}
			tag, err := localeArgument(call, call.Argument(1))
			if err != nil {
				return vm.Undefined, err
			}
			c, ok := collators[tag]
			if !ok {
				c = collate.New(tag)
				collators[tag] = c
			}
			return vm.NumberValue(float64(c.CompareString(s, that))), nil
		}),
		stringMethod("normalize", 0, func(call vm.FunctionCall, s string) (vm.Value, error) {
			name := "NFC"
			if f := call.Argument(0); !f.IsUndefined() {
				var err error
				if name, err = call.VM.ToString(f); err != nil {
					return vm.Undefined, err
				}
			}
			form, ok := normalizationForms[name]
			if !ok {
				return vm.Undefined, call.VM.ThrowRangeError("The normalization form should be one of NFC, NFD, NFKC, NFKD.")
			}
			return vm.NewString(form.String(s)), nil
		}),
	}
	methods = append(methods, htmlMethods()...)
	if err := defineMethods(stringProto, methods); err != nil {
		return err
	}

	// trimLeft and trimRight are the same function objects as trimStart and trimEnd
	for alias, target := range map[string]string{"trimLeft": "trimStart", "trimRight": "trimEnd"} {
		fn := stringProto.GetWithoutSideEffects(vm.NewStringKey(target))
		if _, err := stringProto.DefineProperty(vm.NewStringKey(alias), vm.DataDescriptor(fn, methodAttributes), true); err != nil {
			return err
		}
	}

	stringCtor := realm.NewNativeFunction("String", 1, func(call vm.FunctionCall) (vm.Value, error) {
		if len(call.Arguments) == 0 {
			return vm.NewString(""), nil
		}
		v := call.Arguments[0]
		if v.IsSymbol() {
			return vm.NewString(v.AsSymbol().String()), nil
		}
		s, err := call.VM.ToString(v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewString(s), nil
	})

	err := defineMethods(stringCtor, []nativeMethod{
		{"fromCharCode", 1, func(call vm.FunctionCall) (vm.Value, error) {
			units := make([]uint16, len(call.Arguments))
			for i, arg := range call.Arguments {
				code, err := call.VM.ToUint32(arg)
				if err != nil {
					return vm.Undefined, err
				}
				units[i] = uint16(code & 0xFFFF) // Mask to 16 bits like JS
			}
			return vm.NewString(vm.StringFromUnits(units)), nil
		}},
		{"fromCodePoint", 1, func(call vm.FunctionCall) (vm.Value, error) {
			runes := make([]rune, len(call.Arguments))
			for i, arg := range call.Arguments {
				n, err := call.VM.ToNumber(arg)
				if err != nil {
					return vm.Undefined, err
				}
				if n != math.Trunc(n) || n < 0 || n > 0x10FFFF {
					return vm.Undefined, call.VM.ThrowRangeError("Invalid code point %s", vm.NumberToString(n))
				}
				runes[i] = rune(n)
			}
			return vm.NewString(string(runes)), nil
		}},
		{"raw", 1, stringRaw},
	})
	if err != nil {
		return err
	}

	return installConstructor(ctx, "String", stringCtor, stringProto)
}

var normalizationForms = map[string]norm.Form{
	"NFC":  norm.NFC,
	"NFD":  norm.NFD,
	"NFKC": norm.NFKC,
	"NFKD": norm.NFKD,
}

// thisStringValueFunction implements toString/valueOf, which refuse anything that
// is not a string or a String wrapper
func thisStringValueFunction(method string) vm.NativeFunction {
	return func(call vm.FunctionCall) (vm.Value, error) {
		if call.This.IsString() {
			return call.This, nil
		}
		if call.This.IsObject() {
			if p, ok := call.This.AsObject().PrimitiveValue(); ok && p.IsString() {
				return p, nil
			}
		}
		return vm.Undefined, call.VM.ThrowTypeError("String.prototype.%s requires that 'this' be a String", method)
	}
}

// localeArgument parses an optional BCP 47 locale argument
func localeArgument(call vm.FunctionCall, v vm.Value) (language.Tag, error) {
	if v.IsUndefined() {
		return language.Und, nil
	}
	s, err := call.VM.ToString(v)
	if err != nil {
		return language.Und, err
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, call.VM.ThrowRangeError("Incorrect locale information provided")
	}
	return tag, nil
}

// isJSWhitespace matches the WhiteSpace and LineTerminator productions
func isJSWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// hasUnitsAt reports whether search occurs in units at position start
func hasUnitsAt(units, search []uint16, start int) bool {
	if start < 0 || start+len(search) > len(units) {
		return false
	}
	for i, u := range search {
		if units[start+i] != u {
			return false
		}
	}
	return true
}

// indexOfUnits finds search in units at or after from, -1 when absent
func indexOfUnits(units, search []uint16, from int) int {
	for i := from; i+len(search) <= len(units); i++ {
		if hasUnitsAt(units, search, i) {
			return i
		}
	}
	return -1
}

func stringIndexOf(call vm.FunctionCall, s string) (int, error) {
	units := vm.StringUnits(s)
	search, err := call.VM.ToString(call.Argument(0))
	if err != nil {
		return -1, err
	}
	pos, err := call.VM.ToIntegerOrInfinity(call.Argument(1))
	if err != nil {
		return -1, err
	}
	return indexOfUnits(units, vm.StringUnits(search), int(clampIndex(pos, int64(len(units))))), nil
}

func stringPad(call vm.FunctionCall, s string, atStart bool) (vm.Value, error) {
	intMaxLength, err := call.VM.ToLength(call.Argument(0))
	if err != nil {
		return vm.Undefined, err
	}
	units := vm.StringUnits(s)
	if intMaxLength <= int64(len(units)) {
		return vm.NewString(s), nil
	}
	filler := " "
	if f := call.Argument(1); !f.IsUndefined() {
		if filler, err = call.VM.ToString(f); err != nil {
			return vm.Undefined, err
		}
	}
	if filler == "" {
		return vm.NewString(s), nil
	}
	if intMaxLength > maxStringLength {
		return vm.Undefined, call.VM.ThrowRangeError("Invalid string length")
	}
	fillUnits := vm.StringUnits(filler)
	padding := make([]uint16, 0, int(intMaxLength)-len(units))
	for len(padding) < cap(padding) {
		n := min(len(fillUnits), cap(padding)-len(padding))
		padding = append(padding, fillUnits[:n]...)
	}
	if atStart {
		return vm.NewString(vm.StringFromUnits(padding) + s), nil
	}
	return vm.NewString(s + vm.StringFromUnits(padding)), nil
}

func stringSplit(call vm.FunctionCall, s string) (vm.Value, error) {
	realm := call.VM.CurrentRealm()
	lim := uint32(math.MaxUint32)
	if l := call.Argument(1); !l.IsUndefined() {
		var err error
		if lim, err = call.VM.ToUint32(l); err != nil {
			return vm.Undefined, err
		}
	}
	separator := call.Argument(0)
	sep, err := call.VM.ToString(separator)
	if err != nil {
		return vm.Undefined, err
	}
	if lim == 0 {
		return vm.ObjectValue(realm.NewArray()), nil
	}
	if separator.IsUndefined() {
		return vm.ObjectValue(realm.NewArray(vm.NewString(s))), nil
	}

	units := vm.StringUnits(s)
	sepUnits := vm.StringUnits(sep)
	if len(units) == 0 {
		if len(sepUnits) > 0 {
			return vm.ObjectValue(realm.NewArray(vm.NewString(s))), nil
		}
		return vm.ObjectValue(realm.NewArray()), nil
	}

	var parts []vm.Value
	if len(sepUnits) == 0 {
		for i := 0; i < len(units) && uint32(len(parts)) < lim; i++ {
			parts = append(parts, vm.NewString(vm.StringFromUnits(units[i:i+1])))
		}
		return vm.ObjectValue(realm.NewArray(parts...)), nil
	}

	p := 0
	for {
		q := indexOfUnits(units, sepUnits, p)
		if q < 0 {
			break
		}
		parts = append(parts, vm.NewString(vm.StringFromUnits(units[p:q])))
		if uint32(len(parts)) == lim {
			return vm.ObjectValue(realm.NewArray(parts...)), nil
		}
		p = q + len(sepUnits)
	}
	parts = append(parts, vm.NewString(vm.StringFromUnits(units[p:])))
	return vm.ObjectValue(realm.NewArray(parts...)), nil
}

// stringReplace replaces the first literal occurrence of the search string. A
// callable replacement receives (matched, position, string).
func stringReplace(call vm.FunctionCall, s string) (vm.Value, error) {
	search, err := call.VM.ToString(call.Argument(0))
	if err != nil {
		return vm.Undefined, err
	}
	replaceValue := call.Argument(1)
	functional := replaceValue.IsCallable()
	var template string
	if !functional {
		if template, err = call.VM.ToString(replaceValue); err != nil {
			return vm.Undefined, err
		}
	}

	units := vm.StringUnits(s)
	searchUnits := vm.StringUnits(search)
	pos := indexOfUnits(units, searchUnits, 0)
	if pos < 0 {
		return vm.NewString(s), nil
	}
	before := vm.StringFromUnits(units[:pos])
	after := vm.StringFromUnits(units[pos+len(searchUnits):])

	var replacement string
	if functional {
		result, err := call.VM.Call(replaceValue, vm.Undefined, vm.NewString(search), vm.NumberValue(float64(pos)), vm.NewString(s))
		if err != nil {
			return vm.Undefined, err
		}
		if replacement, err = call.VM.ToString(result); err != nil {
			return vm.Undefined, err
		}
	} else {
		replacement = getSubstitution(search, before, after, template)
	}
	return vm.NewString(before + replacement + after), nil
}

// getSubstitution expands $$, $&, $` and $' in a replacement template
func getSubstitution(matched, before, after, template string) string {
	if !strings.Contains(template, "$") {
		return template
	}
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			sb.WriteByte(c)
			continue
		}
		switch template[i+1] {
		case '$':
			sb.WriteByte('$')
		case '&':
			sb.WriteString(matched)
		case '`':
			sb.WriteString(before)
		case '\'':
			sb.WriteString(after)
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}
	return sb.String()
}

func stringRaw(call vm.FunctionCall) (vm.Value, error) {
	cooked, err := call.VM.ToObject(call.Argument(0))
	if err != nil {
		return vm.Undefined, err
	}
	rawValue, err := cooked.Get(vm.NewStringKey("raw"))
	if err != nil {
		return vm.Undefined, err
	}
	raw, err := call.VM.ToObject(rawValue)
	if err != nil {
		return vm.Undefined, err
	}
	literalCount, err := raw.LengthOfArrayLike()
	if err != nil {
		return vm.Undefined, err
	}
	var substitutions []vm.Value
	if len(call.Arguments) > 1 {
		substitutions = call.Arguments[1:]
	}
	var sb strings.Builder
	for i := int64(0); i < literalCount; i++ {
		segment, err := raw.Get(indexKey(i))
		if err != nil {
			return vm.Undefined, err
		}
		str, err := call.VM.ToString(segment)
		if err != nil {
			return vm.Undefined, err
		}
		sb.WriteString(str)
		if i+1 == literalCount || i >= int64(len(substitutions)) {
			continue
		}
		sub, err := call.VM.ToString(substitutions[i])
		if err != nil {
			return vm.Undefined, err
		}
		sb.WriteString(sub)
	}
	return vm.NewString(sb.String()), nil
}

// htmlMethods builds the Annex B String.prototype HTML methods
func htmlMethods() []nativeMethod {
	specs := []struct {
		name, tag, attribute string
	}{
		{"anchor", "a", "name"},
		{"big", "big", ""},
		{"blink", "blink", ""},
		{"bold", "b", ""},
		{"fixed", "tt", ""},
		{"fontcolor", "font", "color"},
		{"fontsize", "font", "size"},
		{"italics", "i", ""},
		{"link", "a", "href"},
		{"small", "small", ""},
		{"strike", "strike", ""},
		{"sub", "sub", ""},
		{"sup", "sup", ""},
	}
	methods := make([]nativeMethod, 0, len(specs))
	for _, spec := range specs {
		spec := spec
		length := 0
		if spec.attribute != "" {
			length = 1
		}
		methods = append(methods, stringMethod(spec.name, length, func(call vm.FunctionCall, s string) (vm.Value, error) {
			var sb strings.Builder
			sb.WriteString("<" + spec.tag)
			if spec.attribute != "" {
				value, err := call.VM.ToString(call.Argument(0))
				if err != nil {
					return vm.Undefined, err
				}
				sb.WriteString(" " + spec.attribute + `="` + strings.ReplaceAll(value, `"`, "&quot;") + `"`)
			}
			sb.WriteString(">" + s + "</" + spec.tag + ">")
			return vm.NewString(sb.String()), nil
		}))
	}
	return methods
}
