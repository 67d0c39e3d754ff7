package vm

import "slices"

// PropertyKind selects what enumeration produces for each property
type PropertyKind uint8

const (
	PropertyKindKey PropertyKind = iota
	PropertyKindValue
	PropertyKindKeyAndValue
)

// OwnKeysFilter restricts which key spaces OwnPropertyKeys reports
type OwnKeysFilter uint8

const (
	OwnKeysAll OwnKeysFilter = iota
	OwnKeysStringOnly
	OwnKeysSymbolOnly
)

// ownIndices merges exotic and stored indices in ascending order
func (o *Object) ownIndices() []uint32 {
	indices := o.indexed.Indices()
	if o.exotic == nil || o.exotic.ownIndices == nil {
		return indices
	}
	virtual := o.exotic.ownIndices(o)
	if len(virtual) == 0 {
		return indices
	}
	merged := append(virtual, indices...)
	slices.Sort(merged)
	return slices.Compact(merged)
}

// OwnPropertyKeys returns a snapshot of the own keys: integer indices ascending,
// then string keys in creation order, then symbol keys in creation order.
func (o *Object) OwnPropertyKeys(filter OwnKeysFilter) []PropertyKey {
	var keys []PropertyKey
	if filter != OwnKeysSymbolOnly {
		for _, idx := range o.ownIndices() {
			keys = append(keys, NewIndexKey(idx))
		}
	}
	named := o.vm.shapes.Keys(o.shape)
	if filter != OwnKeysSymbolOnly {
		for _, k := range named {
			if k.IsString() {
				keys = append(keys, k)
			}
		}
	}
	if filter != OwnKeysStringOnly {
		for _, k := range named {
			if k.IsSymbol() {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

type keyAndAttributes struct {
	key   PropertyKey
	attrs Attributes
}

func (o *Object) ownPropertySnapshot(filter OwnKeysFilter) []keyAndAttributes {
	keys := o.OwnPropertyKeys(filter)
	out := make([]keyAndAttributes, 0, len(keys))
	for _, k := range keys {
		if _, attrs, ok := o.getOwnSlot(k); ok {
			out = append(out, keyAndAttributes{key: k, attrs: attrs})
		}
	}
	return out
}

// entryFor builds the result element for kind
func (o *Object) entryFor(kind PropertyKind, key PropertyKey, value Value) Value {
	switch kind {
	case PropertyKindKey:
		return key.ToValue()
	case PropertyKindValue:
		return value
	default:
		return ObjectValue(o.Realm().NewArray(key.ToValue(), value))
	}
}

// GetOwnProperties enumerates the keys and attributes captured before any getter
// runs. Values are re-read one at a time; a property deleted by an earlier getter
// reads as absent (undefined) rather than being skipped.
func (o *Object) GetOwnProperties(kind PropertyKind, filter OwnKeysFilter, enumerableOnly bool) ([]Value, error) {
	snapshot := o.ownPropertySnapshot(filter)
	out := make([]Value, 0, len(snapshot))
	for _, entry := range snapshot {
		if enumerableOnly && !entry.attrs.Enumerable() {
			continue
		}
		if kind == PropertyKindKey {
			out = append(out, entry.key.ToValue())
			continue
		}
		value := Undefined
		if slot, _, ok := o.getOwnSlot(entry.key); ok {
			v, _, err := o.readSlot(slot, ObjectValue(o), AllowSideEffects)
			if err != nil {
				return nil, err
			}
			value = v
		}
		out = append(out, o.entryFor(kind, entry.key, value))
	}
	return out, nil
}

// GetEnumerableOwnPropertyNames implements EnumerableOwnPropertyNames: string keys
// only, and each property is re-validated right before it is read, so properties
// deleted or made non-enumerable by an earlier getter are skipped.
func (o *Object) GetEnumerableOwnPropertyNames(kind PropertyKind) ([]Value, error) {
	keys := o.OwnPropertyKeys(OwnKeysStringOnly)
	out := make([]Value, 0, len(keys))
	for _, key := range keys {
		_, attrs, ok := o.getOwnSlot(key)
		if !ok || !attrs.Enumerable() {
			continue
		}
		if kind == PropertyKindKey {
			out = append(out, key.ToValue())
			continue
		}
		value, err := o.Get(key)
		if err != nil {
			return nil, err
		}
		out = append(out, o.entryFor(kind, key, value))
	}
	return out, nil
}
