package vm

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
)

// ShapeID addresses a Shape inside a ShapeTable. Parent and transition links are IDs,
// so the shape graph has no pointer cycles.
type ShapeID uint32

// NoShape is the parent of root and unique shapes
const NoShape ShapeID = math.MaxUint32

// PropertyMetadata is where a named property lives in an object's storage and how it behaves
type PropertyMetadata struct {
	Offset     int
	Attributes Attributes
}

// TransitionKey identifies a forward transition: adding Key with Attributes
type TransitionKey struct {
	Key        PropertyKey
	Attributes Attributes
}

// Shape describes the layout of an object's named properties. Shared shapes form a
// transition tree and are immutable; unique shapes belong to exactly one object and
// are mutated in place.
type Shape struct {
	id        ShapeID
	parent    ShapeID
	realm     *Realm
	prototype *Object

	// key and attributes of the property added by the transition that created this shape
	key        PropertyKey
	attributes Attributes
	offset     int
	hasKey     bool

	unique    bool
	version   uint64
	slotCount int

	transitions map[TransitionKey]ShapeID

	// table and order are built lazily for shared shapes
	table map[PropertyKey]PropertyMetadata
	order []PropertyKey
}

func (s *Shape) ID() ShapeID          { return s.id }
func (s *Shape) Parent() ShapeID      { return s.parent }
func (s *Shape) Realm() *Realm        { return s.realm }
func (s *Shape) Prototype() *Object   { return s.prototype }
func (s *Shape) IsUnique() bool       { return s.unique }
func (s *Shape) Version() uint64      { return s.version }
func (s *Shape) SlotCount() int       { return s.slotCount }
func (s *Shape) TransitionCount() int { return len(s.transitions) }

// AllocationError reports that an arena or storage limit was hit
type AllocationError struct {
	What  string
	Limit int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("out of memory: %s limit of %d reached", e.What, e.Limit)
}

// ShapeTable is the arena that owns every Shape of a VM
type ShapeTable struct {
	shapes         []*Shape
	free           []ShapeID
	live           int
	maxShapes      int
	maxTransitions int
	nextVersion    uint64
	logger         *slog.Logger
}

func NewShapeTable(maxShapes, maxTransitions int, logger *slog.Logger) *ShapeTable {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &ShapeTable{
		maxShapes:      maxShapes,
		maxTransitions: maxTransitions,
		logger:         logger,
	}
}

// Get returns the shape for id. Looking up a freed or unknown id is a bug.
func (t *ShapeTable) Get(id ShapeID) *Shape {
	if int(id) >= len(t.shapes) || t.shapes[id] == nil {
		panic(fmt.Sprintf("invalid shape id %d", id))
	}
	return t.shapes[id]
}

// IsLive reports whether id addresses a shape that has not been swept
func (t *ShapeTable) IsLive(id ShapeID) bool {
	return int(id) < len(t.shapes) && t.shapes[id] != nil
}

// Count returns the number of live shapes
func (t *ShapeTable) Count() int { return t.live }

func (t *ShapeTable) bumpVersion() uint64 {
	t.nextVersion++
	return t.nextVersion
}

func (t *ShapeTable) alloc(s *Shape, limited bool) (ShapeID, error) {
	if limited && t.maxShapes > 0 && t.live >= t.maxShapes {
		return NoShape, &AllocationError{What: "shape", Limit: t.maxShapes}
	}
	s.version = t.bumpVersion()
	var id ShapeID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
		t.shapes[id] = s
	} else {
		id = ShapeID(len(t.shapes))
		t.shapes = append(t.shapes, s)
	}
	s.id = id
	t.live++
	return id, nil
}

// NewRoot creates an empty shape with the given prototype. Realms cache one per
// prototype, so roots are not counted against the shape limit.
func (t *ShapeTable) NewRoot(realm *Realm, proto *Object) ShapeID {
	id, _ := t.alloc(&Shape{
		parent:    NoShape,
		realm:     realm,
		prototype: proto,
		table:     map[PropertyKey]PropertyMetadata{},
	}, false)
	return id
}

// Transition returns the shape reached from `from` by adding key with attrs. An existing
// child is reused; otherwise a new one is created and registered when `from` still
// accepts transitions.
func (t *ShapeTable) Transition(from ShapeID, key PropertyKey, attrs Attributes) (ShapeID, error) {
	return t.transition(from, key, attrs, true)
}

func (t *ShapeTable) transition(from ShapeID, key PropertyKey, attrs Attributes, limited bool) (ShapeID, error) {
	parent := t.Get(from)
	tk := TransitionKey{Key: key, Attributes: attrs}
	if child, ok := parent.transitions[tk]; ok {
		return child, nil
	}
	child := &Shape{
		parent:     from,
		realm:      parent.realm,
		prototype:  parent.prototype,
		key:        key,
		attributes: attrs,
		offset:     parent.slotCount,
		hasKey:     true,
		slotCount:  parent.slotCount + 1,
	}
	id, err := t.alloc(child, limited)
	if err != nil {
		return NoShape, err
	}
	if t.acceptsTransitions(parent) {
		if parent.transitions == nil {
			parent.transitions = make(map[TransitionKey]ShapeID)
		}
		parent.transitions[tk] = id
	}
	t.logger.Debug("shape transition",
		slog.Uint64("from", uint64(from)),
		slog.Uint64("to", uint64(id)),
		slog.String("key", key.String()),
		slog.String("attributes", attrs.String()))
	return id, nil
}

func (t *ShapeTable) acceptsTransitions(s *Shape) bool {
	if s.unique {
		return false
	}
	return t.maxTransitions <= 0 || len(s.transitions) < t.maxTransitions
}

// MakeUnique clones a shape into a detached unique shape with a materialized table.
func (t *ShapeTable) MakeUnique(from ShapeID) (ShapeID, error) {
	src := t.Get(from)
	t.materialize(src)
	clone := &Shape{
		parent:    NoShape,
		realm:     src.realm,
		prototype: src.prototype,
		unique:    true,
		slotCount: src.slotCount,
		table:     maps.Clone(src.table),
		order:     slices.Clone(src.order),
	}
	id, err := t.alloc(clone, true)
	if err != nil {
		return NoShape, err
	}
	t.logger.Debug("unique shape", slog.Uint64("from", uint64(from)), slog.Uint64("to", uint64(id)))
	return id, nil
}

// materialize builds the property table of a shared shape from its ancestor chain
func (t *ShapeTable) materialize(s *Shape) {
	if s.table != nil {
		return
	}
	var chain []*Shape
	cur := s
	for cur.table == nil {
		chain = append(chain, cur)
		cur = t.Get(cur.parent)
	}
	table := maps.Clone(cur.table)
	order := slices.Clone(cur.order)
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		table[c.key] = PropertyMetadata{Offset: c.offset, Attributes: c.attributes}
		order = append(order, c.key)
	}
	s.table = table
	s.order = order
}

// Lookup finds the metadata for key in shape id
func (t *ShapeTable) Lookup(id ShapeID, key PropertyKey) (PropertyMetadata, bool) {
	s := t.Get(id)
	// Fast path: the most recently added key needs no table
	if s.hasKey && s.table == nil && s.key == key {
		return PropertyMetadata{Offset: s.offset, Attributes: s.attributes}, true
	}
	t.materialize(s)
	m, ok := s.table[key]
	return m, ok
}

// Keys returns a snapshot of the shape's keys in insertion order
func (t *ShapeTable) Keys(id ShapeID) []PropertyKey {
	s := t.Get(id)
	t.materialize(s)
	return slices.Clone(s.order)
}

// PropertyCount returns the number of named properties described by the shape
func (t *ShapeTable) PropertyCount(id ShapeID) int {
	s := t.Get(id)
	t.materialize(s)
	return len(s.order)
}

func (t *ShapeTable) mustBeUnique(id ShapeID) *Shape {
	s := t.Get(id)
	if !s.unique {
		panic(fmt.Sprintf("shape %d is shared and cannot be mutated", id))
	}
	return s
}

// addUnique appends key to a unique shape and returns its slot
func (t *ShapeTable) addUnique(id ShapeID, key PropertyKey, attrs Attributes) int {
	s := t.mustBeUnique(id)
	offset := s.slotCount
	s.table[key] = PropertyMetadata{Offset: offset, Attributes: attrs}
	s.order = append(s.order, key)
	s.slotCount++
	s.version = t.bumpVersion()
	return offset
}

// reconfigureUnique changes the attributes of an existing key in place
func (t *ShapeTable) reconfigureUnique(id ShapeID, key PropertyKey, attrs Attributes) {
	s := t.mustBeUnique(id)
	m, ok := s.table[key]
	if !ok {
		panic(fmt.Sprintf("reconfigure of missing key %s", key))
	}
	m.Attributes = attrs
	s.table[key] = m
	s.version = t.bumpVersion()
}

// removeUnique drops key and compacts the offsets after it. It returns the freed slot.
func (t *ShapeTable) removeUnique(id ShapeID, key PropertyKey) int {
	s := t.mustBeUnique(id)
	m, ok := s.table[key]
	if !ok {
		panic(fmt.Sprintf("remove of missing key %s", key))
	}
	delete(s.table, key)
	s.order = slices.DeleteFunc(s.order, func(k PropertyKey) bool { return k == key })
	for k, meta := range s.table {
		if meta.Offset > m.Offset {
			meta.Offset--
			s.table[k] = meta
		}
	}
	s.slotCount--
	s.version = t.bumpVersion()
	return m.Offset
}

// setPrototypeUnique changes the prototype recorded on a unique shape
func (t *ShapeTable) setPrototypeUnique(id ShapeID, proto *Object) {
	s := t.mustBeUnique(id)
	s.prototype = proto
	s.version = t.bumpVersion()
}

// VisitEdges reports the objects and shapes a shape keeps alive
func (t *ShapeTable) VisitEdges(id ShapeID, v EdgeVisitor) {
	s := t.Get(id)
	if s.prototype != nil {
		v.VisitObject(s.prototype)
	}
	if s.parent != NoShape {
		v.VisitShape(s.parent)
	}
}

// Sweep frees every shape for which marked returns false and prunes transition
// entries that point at freed shapes. It returns the number of shapes freed.
func (t *ShapeTable) Sweep(marked func(ShapeID) bool) int {
	freed := 0
	for i, s := range t.shapes {
		if s == nil || marked(ShapeID(i)) {
			continue
		}
		t.shapes[i] = nil
		t.free = append(t.free, ShapeID(i))
		t.live--
		freed++
	}
	if freed == 0 {
		return 0
	}
	for _, s := range t.shapes {
		if s == nil {
			continue
		}
		for tk, child := range s.transitions {
			if t.shapes[child] == nil {
				delete(s.transitions, tk)
			}
		}
	}
	t.logger.Debug("shape sweep", slog.Int("freed", freed), slog.Int("live", t.live))
	return freed
}
