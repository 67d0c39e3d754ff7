package vm

import (
	"fmt"
	"log/slog"
	"sort"
)

// Heap is the VM's root set: a growable array of value slots, optionally named.
// Everything reachable from the heap, the realms or the pending exception is
// live for CollectShapes.
type Heap struct {
	values []Value // The actual root values
	size   int     // Current size of the heap
	// optional name -> index map to enable GetByName
	nameToIndex map[string]int
}

// NewHeap creates a new heap with the specified initial capacity
func NewHeap(initialCapacity int) *Heap {
	return &Heap{
		values: make([]Value, initialCapacity),
		size:   0,
	}
}

// Resize ensures the heap can accommodate at least the specified size
func (h *Heap) Resize(newSize int) {
	if newSize > len(h.values) {
		newValues := make([]Value, newSize)
		copy(newValues, h.values)
		for i := len(h.values); i < newSize; i++ {
			newValues[i] = Undefined
		}
		h.values = newValues
	}
	if newSize > h.size {
		for i := h.size; i < newSize; i++ {
			if h.values[i].IsEmpty() {
				h.values[i] = Undefined
			}
		}
		h.size = newSize
	}
}

// Get retrieves a value from the heap at the specified index
func (h *Heap) Get(index int) (Value, bool) {
	if index < 0 || index >= h.size {
		return Undefined, false
	}
	return h.values[index], true
}

// Set stores a value in the heap at the specified index
func (h *Heap) Set(index int, value Value) error {
	if index < 0 {
		return fmt.Errorf("heap index cannot be negative: %d", index)
	}
	if index >= h.size {
		h.Resize(index + 1)
	}
	h.values[index] = value
	return nil
}

// Size returns the current size of the heap
func (h *Heap) Size() int {
	return h.size
}

// SetByName stores value in the slot registered for name, allocating one on first use
func (h *Heap) SetByName(name string, value Value) int {
	if h.nameToIndex == nil {
		h.nameToIndex = make(map[string]int)
	}
	idx, ok := h.nameToIndex[name]
	if !ok {
		idx = h.size
		h.nameToIndex[name] = idx
	}
	h.Set(idx, value)
	return idx
}

// GetByName returns the value stored under name
func (h *Heap) GetByName(name string) (Value, bool) {
	idx, ok := h.nameToIndex[name]
	if !ok {
		return Undefined, false
	}
	return h.Get(idx)
}

// Names returns the registered names in slot order
func (h *Heap) Names() []string {
	names := make([]string, 0, len(h.nameToIndex))
	for name := range h.nameToIndex {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return h.nameToIndex[names[i]] < h.nameToIndex[names[j]] })
	return names
}

// EdgeVisitor receives the outgoing references of objects, shapes and realms
type EdgeVisitor interface {
	VisitObject(o *Object)
	VisitShape(id ShapeID)
}

// visitSlot reports the references held by one stored slot
func visitSlot(slot Value, v EdgeVisitor) {
	switch {
	case slot.IsObject():
		v.VisitObject(slot.AsObject())
	case slot.isAccessor():
		acc := slot.asAccessor()
		if acc.getter != nil {
			v.VisitObject(acc.getter)
		}
		if acc.setter != nil {
			v.VisitObject(acc.setter)
		}
	}
}

// VisitEdges reports every reference the object holds: its shape, prototype,
// named and indexed values, and internal data.
func (o *Object) VisitEdges(v EdgeVisitor) {
	v.VisitShape(o.shape)
	if proto := o.Prototype(); proto != nil {
		v.VisitObject(proto)
	}
	for _, slot := range o.storage {
		visitSlot(slot, v)
	}
	o.indexed.VisitEdges(v)
	visitSlot(o.primitive, v)
}

// MarkResult is the reachable set computed by Mark
type MarkResult struct {
	objects map[*Object]struct{}
	shapes  map[ShapeID]struct{}
}

func (m *MarkResult) IsObjectMarked(o *Object) bool {
	_, ok := m.objects[o]
	return ok
}

func (m *MarkResult) IsShapeMarked(id ShapeID) bool {
	_, ok := m.shapes[id]
	return ok
}

func (m *MarkResult) ObjectCount() int { return len(m.objects) }
func (m *MarkResult) ShapeCount() int  { return len(m.shapes) }

type marker struct {
	vm      *VM
	result  *MarkResult
	pending []*Object
}

func (m *marker) VisitObject(o *Object) {
	if _, seen := m.result.objects[o]; seen {
		return
	}
	m.result.objects[o] = struct{}{}
	m.pending = append(m.pending, o)
}

func (m *marker) VisitShape(id ShapeID) {
	if _, seen := m.result.shapes[id]; seen {
		return
	}
	m.result.shapes[id] = struct{}{}
	m.vm.shapes.VisitEdges(id, m)
}

// Mark traces everything reachable from the heap, the realms and the pending exception
func (vm *VM) Mark() *MarkResult {
	m := &marker{vm: vm, result: &MarkResult{
		objects: make(map[*Object]struct{}),
		shapes:  make(map[ShapeID]struct{}),
	}}
	for _, v := range vm.heap.values[:vm.heap.size] {
		visitSlot(v, m)
	}
	for _, r := range vm.realms {
		r.VisitEdges(m)
	}
	visitSlot(vm.exception, m)
	for len(m.pending) > 0 {
		o := m.pending[len(m.pending)-1]
		m.pending = m.pending[:len(m.pending)-1]
		o.VisitEdges(m)
	}
	return m.result
}

// CollectShapes frees every shape not reachable from the roots and returns how
// many were freed. Objects held only by Go code must be stored in the Heap first.
func (vm *VM) CollectShapes() int {
	result := vm.Mark()
	freed := vm.shapes.Sweep(result.IsShapeMarked)
	if freed > 0 {
		for _, r := range vm.realms {
			r.pruneRootShapes()
		}
		vm.resetStaleCaches()
	}
	vm.logger.Debug("collected shapes",
		slog.Int("objects", result.ObjectCount()),
		slog.Int("shapes", result.ShapeCount()),
		slog.Int("freed", freed))
	return freed
}
