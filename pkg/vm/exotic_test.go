package vm

import (
	"testing"
)

func lengthOf(t *testing.T, a *Object) float64 {
	t.Helper()
	return mustGet(t, a, lengthKey).AsFloat()
}

func TestArray_IndexWriteGrowsLength(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray()
	if !a.IsArray() || lengthOf(t, a) != 0 {
		t.Fatal("expected empty array")
	}
	a.Set(NewIndexKey(0), NewString("x"), true)
	a.Set(NewIndexKey(9), NewString("y"), true)
	if got := lengthOf(t, a); got != 10 {
		t.Errorf("expected length 10, got %v", got)
	}
	if a.HasOwnProperty(NewIndexKey(5)) {
		t.Error("hole should not be an own property")
	}
	keys := a.OwnPropertyKeys(OwnKeysAll)
	if len(keys) != 3 || keys[0].Index() != 0 || keys[1].Index() != 9 || keys[2] != lengthKey {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestArray_SparseWriteConvertsStorage(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray(NumberValue(1))
	if !a.Indexed().IsSimple() {
		t.Fatal("new array should use dense storage")
	}
	a.Set(NewIndexKey(100000), True, true)
	if a.Indexed().IsSimple() {
		t.Error("far write should switch to sparse storage")
	}
	if got := lengthOf(t, a); got != 100001 {
		t.Errorf("expected length 100001, got %v", got)
	}
	if v := mustGet(t, a, NewIndexKey(0)); v.AsFloat() != 1 {
		t.Errorf("conversion lost element 0: %v", v.Inspect())
	}
}

func TestArray_TruncateDeletesTrailing(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray(NumberValue(0), NumberValue(1), NumberValue(2), NumberValue(3))
	if ok, err := a.Set(lengthKey, NumberValue(2), true); !ok || err != nil {
		t.Fatalf("truncate failed: ok=%v err=%v", ok, err)
	}
	if got := lengthOf(t, a); got != 2 {
		t.Errorf("expected length 2, got %v", got)
	}
	if a.HasOwnProperty(NewIndexKey(2)) || a.HasOwnProperty(NewIndexKey(3)) {
		t.Error("elements past the new length must be deleted")
	}
	a.Set(lengthKey, NumberValue(4), true)
	if a.HasOwnProperty(NewIndexKey(3)) {
		t.Error("growing length must not resurrect elements")
	}
}

func TestArray_TruncateStopsAtNonConfigurable(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray(NumberValue(0), NumberValue(1), NumberValue(2), NumberValue(3))
	mustDefine(t, a, NewIndexKey(1), PropertyDescriptor{Configurable: FlagFalse})

	ok, err := a.DefineProperty(lengthKey, ValueOnly(NumberValue(0)), false)
	if ok || err != nil {
		t.Errorf("expected lenient refusal, got ok=%v err=%v", ok, err)
	}
	if got := lengthOf(t, a); got != 2 {
		t.Errorf("length should stop just past the non-configurable element, got %v", got)
	}
	if !a.HasOwnProperty(NewIndexKey(1)) || a.HasOwnProperty(NewIndexKey(2)) {
		t.Error("expected elements above the blocker to be gone and the blocker to stay")
	}

	_, err = a.DefineProperty(lengthKey, ValueOnly(NumberValue(0)), true)
	expectThrow(t, err, ErrorKindTypeError, "Cannot delete array element 1")
}

func TestArray_NonWritableLength(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray(NumberValue(0), NumberValue(1))
	mustDefine(t, a, lengthKey, PropertyDescriptor{Writable: FlagFalse})

	if ok, _ := a.Set(NewIndexKey(2), True, false); ok {
		t.Error("non-writable length must block growth")
	}
	_, err := a.DefineProperty(NewIndexKey(5), ValueOnly(True), true)
	expectThrow(t, err, ErrorKindTypeError, "array length is not writable")
	if ok, err := a.Set(NewIndexKey(0), True, true); !ok || err != nil {
		t.Errorf("writes below length are still allowed: ok=%v err=%v", ok, err)
	}
	if ok, _ := a.Set(lengthKey, NumberValue(0), false); ok {
		t.Error("non-writable length must not shrink")
	}
}

func TestArray_TruncateWithReadOnly(t *testing.T) {
	vm := NewVM()
	a := vm.CurrentRealm().NewArray(NumberValue(0), NumberValue(1), NumberValue(2))
	mustDefine(t, a, lengthKey, PropertyDescriptor{Value: NumberValue(1), Writable: FlagFalse})

	desc, _, _ := a.GetOwnPropertyDescriptor(lengthKey)
	if desc.Value.AsFloat() != 1 || desc.Writable.Bool() {
		t.Errorf("expected length 1 and read-only, got %v", desc)
	}
	if a.HasOwnProperty(NewIndexKey(1)) {
		t.Error("trailing elements must be deleted before length becomes read-only")
	}
}

func TestArray_InvalidLength(t *testing.T) {
	vm := NewVM()
	for _, v := range []Value{NumberValue(-1), NumberValue(1.5), NaN, NumberValue(4294967296), NewString("abc")} {
		a := vm.CurrentRealm().NewArray()
		_, err := a.Set(lengthKey, v, false)
		expectThrow(t, err, ErrorKindRangeError, "Invalid array length")
	}

	a := vm.CurrentRealm().NewArray(True, True, True)
	if ok, err := a.Set(lengthKey, NewString("1"), true); !ok || err != nil {
		t.Errorf("numeric string length should be accepted: ok=%v err=%v", ok, err)
	}
	if got := lengthOf(t, a); got != 1 {
		t.Errorf("expected length 1, got %v", got)
	}
}

func TestStringObject_VirtualIndices(t *testing.T) {
	vm := NewVM()
	s := vm.CurrentRealm().NewStringObject("héy")

	if v := mustGet(t, s, NewIndexKey(1)); v.AsString() != "é" {
		t.Errorf("expected é, got %v", v.Inspect())
	}
	if _, found, _ := s.Lookup(NewIndexKey(3), ObjectValue(s), AllowSideEffects); found {
		t.Error("index past the end should be absent")
	}
	if got := lengthOf(t, s); got != 3 {
		t.Errorf("expected length 3, got %v", got)
	}

	desc, found, _ := s.GetOwnPropertyDescriptor(NewIndexKey(0))
	if !found || desc.Attributes() != AttrEnumerable {
		t.Errorf("character index should be enumerable and read-only, got %v", desc)
	}
	if ok, _ := s.Set(NewIndexKey(0), NewString("z"), false); ok {
		t.Error("character index must not be writable")
	}
	if ok, _ := s.DeleteProperty(NewIndexKey(0), false); ok {
		t.Error("character index must not be deletable")
	}
	if ok, _ := s.DefineProperty(NewIndexKey(0), ValueOnly(NewString("h")), false); !ok {
		t.Error("redefining with the same value should be accepted")
	}
	if ok, _ := s.Set(lengthKey, NumberValue(0), false); ok {
		t.Error("length must not be writable")
	}

	s.Set(NewIndexKey(10), True, true)
	keys := s.OwnPropertyKeys(OwnKeysAll)
	want := []string{"0", "1", "2", "10", "length"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], k)
		}
	}
}

func TestStringObject_SurrogatePairs(t *testing.T) {
	vm := NewVM()
	s := vm.CurrentRealm().NewStringObject("a😀")
	if got := lengthOf(t, s); got != 3 {
		t.Errorf("expected UTF-16 length 3, got %v", got)
	}
	if got := len(s.OwnPropertyKeys(OwnKeysAll)); got != 4 {
		t.Errorf("expected 3 indices plus length, got %d keys", got)
	}
}
