package vm

import (
	"maps"
	"slices"
)

// ValueAndAttributes is one indexed slot
type ValueAndAttributes struct {
	Value      Value
	Attributes Attributes
}

// IndexedStorage holds integer-keyed properties. Implementations differ in density
// and in whether they can record per-element attributes.
type IndexedStorage interface {
	Has(index uint32) bool
	Get(index uint32) (ValueAndAttributes, bool)
	Put(index uint32, value Value, attrs Attributes)
	Remove(index uint32)
	// ArrayLikeSize is one past the highest index ever stored or the truncation point
	ArrayLikeSize() uint32
	SetArrayLikeSize(size uint32)
	// Indices returns the occupied indices in ascending order
	Indices() []uint32
	IsSimple() bool
}

// simpleIndexedStorage is a dense slice where every element has DefaultAttributes.
// Empty marks a hole.
type simpleIndexedStorage struct {
	packed []Value
}

func (s *simpleIndexedStorage) Has(index uint32) bool {
	return int64(index) < int64(len(s.packed)) && !s.packed[index].IsEmpty()
}

func (s *simpleIndexedStorage) Get(index uint32) (ValueAndAttributes, bool) {
	if !s.Has(index) {
		return ValueAndAttributes{}, false
	}
	return ValueAndAttributes{Value: s.packed[index], Attributes: DefaultAttributes}, true
}

func (s *simpleIndexedStorage) Put(index uint32, value Value, _ Attributes) {
	if int(index) >= len(s.packed) {
		s.packed = append(s.packed, make([]Value, int(index)+1-len(s.packed))...)
	}
	s.packed[index] = value
}

func (s *simpleIndexedStorage) Remove(index uint32) {
	if int(index) < len(s.packed) {
		s.packed[index] = Empty
	}
}

func (s *simpleIndexedStorage) ArrayLikeSize() uint32 { return uint32(len(s.packed)) }

func (s *simpleIndexedStorage) SetArrayLikeSize(size uint32) {
	if int(size) <= len(s.packed) {
		clear(s.packed[size:])
		s.packed = s.packed[:size]
		return
	}
	s.packed = append(s.packed, make([]Value, int(size)-len(s.packed))...)
}

func (s *simpleIndexedStorage) Indices() []uint32 {
	out := make([]uint32, 0, len(s.packed))
	for i, v := range s.packed {
		if !v.IsEmpty() {
			out = append(out, uint32(i))
		}
	}
	return out
}

func (s *simpleIndexedStorage) IsSimple() bool { return true }

// genericIndexedStorage is a sparse map that records attributes per element
type genericIndexedStorage struct {
	sparse map[uint32]ValueAndAttributes
	size   uint32
}

func newGenericStorage(from *simpleIndexedStorage) *genericIndexedStorage {
	g := &genericIndexedStorage{sparse: make(map[uint32]ValueAndAttributes)}
	if from != nil {
		for i, v := range from.packed {
			if !v.IsEmpty() {
				g.sparse[uint32(i)] = ValueAndAttributes{Value: v, Attributes: DefaultAttributes}
			}
		}
		g.size = uint32(len(from.packed))
	}
	return g
}

func (g *genericIndexedStorage) Has(index uint32) bool {
	_, ok := g.sparse[index]
	return ok
}

func (g *genericIndexedStorage) Get(index uint32) (ValueAndAttributes, bool) {
	v, ok := g.sparse[index]
	return v, ok
}

func (g *genericIndexedStorage) Put(index uint32, value Value, attrs Attributes) {
	g.sparse[index] = ValueAndAttributes{Value: value, Attributes: attrs}
	if index >= g.size {
		g.size = index + 1
	}
}

func (g *genericIndexedStorage) Remove(index uint32) {
	delete(g.sparse, index)
}

func (g *genericIndexedStorage) ArrayLikeSize() uint32 { return g.size }

func (g *genericIndexedStorage) SetArrayLikeSize(size uint32) {
	if size < g.size {
		maps.DeleteFunc(g.sparse, func(i uint32, _ ValueAndAttributes) bool { return i >= size })
	}
	g.size = size
}

func (g *genericIndexedStorage) Indices() []uint32 {
	out := make([]uint32, 0, len(g.sparse))
	for i := range g.sparse {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (g *genericIndexedStorage) IsSimple() bool { return false }

// IndexedProperties wraps the active storage and switches from the dense to the
// sparse representation when a write needs it.
type IndexedProperties struct {
	storage         IndexedStorage
	sparseThreshold uint32
}

func newIndexedProperties(sparseThreshold uint32) IndexedProperties {
	return IndexedProperties{storage: &simpleIndexedStorage{}, sparseThreshold: sparseThreshold}
}

func (p *IndexedProperties) Storage() IndexedStorage { return p.storage }

func (p *IndexedProperties) Has(index uint32) bool { return p.storage.Has(index) }

func (p *IndexedProperties) Get(index uint32) (ValueAndAttributes, bool) {
	return p.storage.Get(index)
}

// Put stores value at index, converting to sparse storage for non-default attributes
// or for writes far beyond the current size.
func (p *IndexedProperties) Put(index uint32, value Value, attrs Attributes) {
	if simple, ok := p.storage.(*simpleIndexedStorage); ok {
		farAway := uint64(index) >= uint64(simple.ArrayLikeSize())+uint64(p.sparseThreshold)
		if attrs != DefaultAttributes || farAway {
			p.storage = newGenericStorage(simple)
		}
	}
	p.storage.Put(index, value, attrs)
}

func (p *IndexedProperties) Remove(index uint32) { p.storage.Remove(index) }

func (p *IndexedProperties) Indices() []uint32 { return p.storage.Indices() }

func (p *IndexedProperties) ArrayLikeSize() uint32 { return p.storage.ArrayLikeSize() }

// SetArrayLikeSize grows or truncates the storage. Growing a dense store past the
// sparse threshold converts it first.
func (p *IndexedProperties) SetArrayLikeSize(size uint32) {
	if simple, ok := p.storage.(*simpleIndexedStorage); ok {
		if uint64(size) >= uint64(simple.ArrayLikeSize())+uint64(p.sparseThreshold) {
			p.storage = newGenericStorage(simple)
		}
	}
	p.storage.SetArrayLikeSize(size)
}

func (p *IndexedProperties) IsSimple() bool { return p.storage.IsSimple() }

// VisitEdges reports every object stored in an element
func (p *IndexedProperties) VisitEdges(v EdgeVisitor) {
	for _, idx := range p.storage.Indices() {
		e, _ := p.storage.Get(idx)
		visitSlot(e.Value, v)
	}
}
