package builtins

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"protoshape/pkg/vm"
)

// regexpMatchTimeout bounds a single match
const regexpMatchTimeout = time.Second

// compilePattern compiles the first argument of match/search as an ECMAScript
// pattern. Undefined matches the empty string.
func compilePattern(call vm.FunctionCall) (*regexp2.Regexp, error) {
	pattern := ""
	if p := call.Argument(0); !p.IsUndefined() {
		var err error
		if pattern, err = call.VM.ToString(p); err != nil {
			return nil, err
		}
	}
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, call.VM.ThrowError(vm.ErrorKindSyntaxError, "Invalid regular expression: /%s/: %v", pattern, err)
	}
	re.MatchTimeout = regexpMatchTimeout
	return re, nil
}

func findMatch(call vm.FunctionCall, re *regexp2.Regexp, s string) (*regexp2.Match, error) {
	m, err := re.FindStringMatch(s)
	if err != nil {
		// regexp2 only fails a match on timeout
		return nil, call.VM.ThrowInternalError("Regular expression match exceeded %s: %v", regexpMatchTimeout, err)
	}
	return m, nil
}

// unitOffset converts a rune offset into s to a UTF-16 code unit offset
func unitOffset(s string, runeIndex int) int {
	units := 0
	for _, r := range s {
		if runeIndex == 0 {
			break
		}
		units += utf16Width(r)
		runeIndex--
	}
	return units
}

func utf16Width(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// stringMatch returns the first match as an array of captures carrying index,
// input and groups, or null when nothing matches.
func stringMatch(call vm.FunctionCall, s string) (vm.Value, error) {
	re, err := compilePattern(call)
	if err != nil {
		return vm.Undefined, err
	}
	m, err := findMatch(call, re, s)
	if err != nil || m == nil {
		return vm.Null, err
	}

	realm := call.VM.CurrentRealm()
	groups := m.Groups()
	captures := make([]vm.Value, len(groups))
	var named *vm.Object
	for i, g := range groups {
		captures[i] = vm.Undefined
		if len(g.Captures) > 0 {
			captures[i] = vm.NewString(g.String())
		}
		if _, numeric := strconv.Atoi(g.Name); numeric == nil {
			continue
		}
		if named == nil {
			named = realm.NewObjectWithPrototype(nil)
		}
		if _, err := named.CreateDataProperty(vm.NewStringKey(g.Name), captures[i]); err != nil {
			return vm.Undefined, err
		}
	}

	result := realm.NewArray(captures...)
	fields := []struct {
		name  string
		value vm.Value
	}{
		{"index", vm.NumberValue(float64(unitOffset(s, m.Index)))},
		{"input", vm.NewString(s)},
		{"groups", vm.ObjectValue(named)},
	}
	if named == nil {
		fields[2].value = vm.Undefined
	}
	for _, f := range fields {
		if _, err := result.CreateDataProperty(vm.NewStringKey(f.name), f.value); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(result), nil
}

// stringSearch returns the UTF-16 offset of the first match, or -1
func stringSearch(call vm.FunctionCall, s string) (vm.Value, error) {
	re, err := compilePattern(call)
	if err != nil {
		return vm.Undefined, err
	}
	m, err := findMatch(call, re, s)
	if err != nil {
		return vm.Undefined, err
	}
	if m == nil {
		return vm.NumberValue(-1), nil
	}
	return vm.NumberValue(float64(unitOffset(s, m.Index))), nil
}
