package vm

import (
	"testing"
)

func TestHeap_NewHeap(t *testing.T) {
	heap := NewHeap(10)
	if heap.Size() != 0 {
		t.Errorf("Expected new heap size to be 0, got %d", heap.Size())
	}
	if len(heap.values) != 10 {
		t.Errorf("Expected heap capacity to be 10, got %d", len(heap.values))
	}
}

func TestHeap_SetAndGet(t *testing.T) {
	heap := NewHeap(5)

	testValue := NewString("test")
	if err := heap.Set(2, testValue); err != nil {
		t.Errorf("Unexpected error setting value: %v", err)
	}

	value, exists := heap.Get(2)
	if !exists {
		t.Error("Expected value to exist at index 2")
	}
	if value.Type() != TypeString || value.AsString() != "test" {
		t.Errorf("Expected string 'test', got %v", value.Inspect())
	}
	if heap.Size() != 3 {
		t.Errorf("Expected heap size to be 3, got %d", heap.Size())
	}
	// slots below the written one read as undefined, not empty
	if v, _ := heap.Get(0); !v.IsUndefined() {
		t.Errorf("Expected index 0 to be undefined, got %v", v.Type())
	}
}

func TestHeap_AutoResize(t *testing.T) {
	heap := NewHeap(2)

	if err := heap.Set(5, NumberValue(42)); err != nil {
		t.Errorf("Unexpected error setting value: %v", err)
	}
	if len(heap.values) <= 5 {
		t.Errorf("Expected heap to be resized to accommodate index 5, capacity is %d", len(heap.values))
	}
	if heap.Size() != 6 {
		t.Errorf("Expected heap size to be 6, got %d", heap.Size())
	}
	value, exists := heap.Get(5)
	if !exists {
		t.Error("Expected value to exist at index 5")
	}
	if value.Type() != TypeNumber || value.AsFloat() != 42 {
		t.Errorf("Expected number 42, got %v", value.Inspect())
	}
}

func TestHeap_GetOutOfBounds(t *testing.T) {
	heap := NewHeap(5)
	heap.Set(2, NewString("test"))

	if _, exists := heap.Get(-1); exists {
		t.Error("Expected negative index to return false")
	}
	if _, exists := heap.Get(10); exists {
		t.Error("Expected out-of-bounds index to return false")
	}
	if err := heap.Set(-1, Undefined); err == nil {
		t.Error("Expected error setting a negative index")
	}
}

func TestHeap_SetByName(t *testing.T) {
	heap := NewHeap(1)

	a := heap.SetByName("a", NewString("first"))
	b := heap.SetByName("b", NewString("second"))
	again := heap.SetByName("a", NewString("third"))

	if a != 0 || b != 1 {
		t.Errorf("Expected slots 0 and 1, got %d and %d", a, b)
	}
	if again != a {
		t.Errorf("Expected rebinding 'a' to reuse slot %d, got %d", a, again)
	}
	if v, ok := heap.GetByName("a"); !ok || v.AsString() != "third" {
		t.Errorf("Expected 'a' to be \"third\", got %v (ok=%v)", v.Inspect(), ok)
	}
	if _, ok := heap.GetByName("missing"); ok {
		t.Error("Expected unknown name to report false")
	}
	names := heap.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected names [a b], got %v", names)
	}
}

func TestHeap_Resize(t *testing.T) {
	heap := NewHeap(2)
	heap.Set(1, NewString("test"))

	heap.Resize(10)
	if len(heap.values) != 10 {
		t.Errorf("Expected heap capacity to be 10, got %d", len(heap.values))
	}
	if heap.Size() != 10 {
		t.Errorf("Expected heap size to be 10, got %d", heap.Size())
	}
	value, exists := heap.Get(1)
	if !exists || value.Type() != TypeString {
		t.Error("Expected existing value to be preserved after resize")
	}
	for i := 2; i < 10; i++ {
		value, exists := heap.Get(i)
		if !exists || value.Type() != TypeUndefined {
			t.Errorf("Expected index %d to be Undefined after resize, got %v", i, value.Type())
		}
	}
}

// recordingVisitor collects the direct edges of one object
type recordingVisitor struct {
	objects []*Object
	shapes  []ShapeID
}

func (r *recordingVisitor) VisitObject(o *Object) { r.objects = append(r.objects, o) }
func (r *recordingVisitor) VisitShape(id ShapeID) { r.shapes = append(r.shapes, id) }

func (r *recordingVisitor) sawObject(o *Object) bool {
	for _, seen := range r.objects {
		if seen == o {
			return true
		}
	}
	return false
}

func TestObject_VisitEdges(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()

	proto := realm.NewObject()
	o := realm.NewObjectWithPrototype(proto)
	named := realm.NewObject()
	element := realm.NewObject()
	getter := realm.NewNativeFunction("g", 0, func(FunctionCall) (Value, error) { return Undefined, nil })
	setter := realm.NewNativeFunction("s", 1, func(FunctionCall) (Value, error) { return Undefined, nil })

	mustDefine(t, o, NewStringKey("named"), DataDescriptor(ObjectValue(named), DefaultAttributes))
	mustDefine(t, o, NewIndexKey(3), DataDescriptor(ObjectValue(element), DefaultAttributes))
	if _, err := o.DefineAccessor(NewStringKey("acc"), getter, setter, AttrConfigurable, true); err != nil {
		t.Fatalf("DefineAccessor failed: %v", err)
	}

	rec := &recordingVisitor{}
	o.VisitEdges(rec)

	for name, want := range map[string]*Object{"prototype": proto, "named": named, "element": element, "getter": getter, "setter": setter} {
		if !rec.sawObject(want) {
			t.Errorf("VisitEdges did not report the %s", name)
		}
	}
	if len(rec.shapes) != 1 || rec.shapes[0] != o.Shape() {
		t.Errorf("Expected VisitEdges to report shape %d, got %v", o.Shape(), rec.shapes)
	}
}

func TestVM_MarkReachesHeapRoots(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()

	rooted := realm.NewObject()
	child := realm.NewObject()
	mustDefine(t, rooted, NewStringKey("child"), DataDescriptor(ObjectValue(child), DefaultAttributes))
	vm.Heap().SetByName("rooted", ObjectValue(rooted))
	loose := realm.NewObject()

	result := vm.Mark()
	if !result.IsObjectMarked(rooted) || !result.IsObjectMarked(child) {
		t.Error("Expected rooted object and its child to be marked")
	}
	if result.IsObjectMarked(loose) {
		t.Error("Expected unrooted object to stay unmarked")
	}
	if !result.IsShapeMarked(rooted.Shape()) {
		t.Error("Expected shape of rooted object to be marked")
	}
	if !result.IsObjectMarked(realm.ObjectPrototype) {
		t.Error("Expected realm intrinsics to be marked")
	}
}

func TestVM_CollectShapes(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	root := realm.RootShape(realm.ObjectPrototype)

	kept := realm.NewObject()
	mustDefine(t, kept, NewStringKey("kept"), DataDescriptor(NumberValue(1), DefaultAttributes))
	vm.Heap().SetByName("kept", ObjectValue(kept))

	dropped := realm.NewObject()
	mustDefine(t, dropped, NewStringKey("dropped"), DataDescriptor(NumberValue(1), DefaultAttributes))
	transitionsBefore := vm.Shapes().Get(root).TransitionCount()

	freed := vm.CollectShapes()
	if freed < 1 {
		t.Fatalf("Expected at least one shape to be freed, got %d", freed)
	}
	if got := vm.Shapes().Get(root).TransitionCount(); got != transitionsBefore-1 {
		t.Errorf("Expected root transitions to drop from %d to %d, got %d", transitionsBefore, transitionsBefore-1, got)
	}
	if v, err := kept.Get(NewStringKey("kept")); err != nil || v.AsFloat() != 1 {
		t.Errorf("Expected rooted object to keep working, got %v (err=%v)", v.Inspect(), err)
	}
}

func TestVM_CollectShapesFreesUnreachablePrototypes(t *testing.T) {
	vm := NewVM()
	realm := vm.CurrentRealm()
	vm.Heap().SetByName("anchor", ObjectValue(realm.NewObject()))
	vm.CollectShapes()
	before := vm.Shapes().Count()

	var roots []ShapeID
	var protos []*Object
	for i := 0; i < 100; i++ {
		proto := realm.NewObject()
		obj := realm.NewObjectWithPrototype(proto)
		roots = append(roots, obj.Shape())
		protos = append(protos, proto)
	}
	if got := vm.Shapes().Count(); got != before+100 {
		t.Fatalf("Expected one root shape per prototype, got %d shapes (was %d)", got, before)
	}

	result := vm.Mark()
	if result.IsObjectMarked(protos[0]) {
		t.Error("Expected an unreachable prototype to stay unmarked")
	}
	if result.IsShapeMarked(roots[0]) {
		t.Error("Expected the root shape of an unreachable prototype to stay unmarked")
	}

	if freed := vm.CollectShapes(); freed != 100 {
		t.Errorf("Expected 100 root shapes to be freed, got %d", freed)
	}
	if got := vm.Shapes().Count(); got != before {
		t.Errorf("Expected shape count back at %d, got %d", before, got)
	}
	for _, id := range roots {
		if vm.Shapes().IsLive(id) {
			t.Fatalf("Expected root shape %d to be freed", id)
		}
	}
	for _, proto := range protos {
		if _, ok := realm.rootShapes[proto]; ok {
			t.Fatal("Expected swept root shapes to leave the realm cache")
		}
	}

	// a prototype that is still rooted gets a fresh root after its old one was swept
	proto := protos[0]
	vm.Heap().SetByName("proto", ObjectValue(proto))
	obj := realm.NewObjectWithPrototype(proto)
	if obj.Prototype() != proto {
		t.Error("Expected the new object to inherit from the rooted prototype")
	}
	vm.Heap().SetByName("obj", ObjectValue(obj))
	vm.CollectShapes()
	if !vm.Shapes().IsLive(obj.Shape()) {
		t.Error("Expected the root shape of a reachable object to survive")
	}
	if again := realm.NewObjectWithPrototype(proto); again.Shape() != obj.Shape() {
		t.Error("Expected the surviving root shape to be reused")
	}
}
