package vm

import (
	"fmt"
	"io"
)

// PropCacheState represents the different states of inline cache
type PropCacheState uint8

const (
	CacheStateUninitialized PropCacheState = iota
	CacheStateMonomorphic                  // Single shape cached
	CacheStatePolymorphic                  // Multiple shapes cached (up to 4)
	CacheStateMegamorphic                  // Too many shapes, fallback to full lookup
)

func (s PropCacheState) String() string {
	switch s {
	case CacheStateMonomorphic:
		return "MONOMORPHIC"
	case CacheStatePolymorphic:
		return "POLYMORPHIC"
	case CacheStateMegamorphic:
		return "MEGAMORPHIC"
	default:
		return "UNINITIALIZED"
	}
}

// PropCacheEntry is valid while the object's shape id and version both match.
// Unique shapes bump their version on every in-place mutation.
type PropCacheEntry struct {
	shape   ShapeID
	version uint64
	offset  int
}

// PropInlineCache caches own named data property offsets for one access site
type PropInlineCache struct {
	state      PropCacheState
	entries    [4]PropCacheEntry // Support up to 4 shapes (polymorphic)
	entryCount int               // Number of active entries
	hitCount   uint32            // For debugging/metrics
	missCount  uint32            // For debugging/metrics
}

func (ic *PropInlineCache) State() PropCacheState { return ic.state }
func (ic *PropInlineCache) Hits() uint32          { return ic.hitCount }
func (ic *PropInlineCache) Misses() uint32        { return ic.missCount }

// ICacheStats holds statistics about inline cache performance
type ICacheStats struct {
	TotalHits       uint64
	TotalMisses     uint64
	MonomorphicHits uint64
	PolymorphicHits uint64
}

// lookupInCache performs a property lookup using the inline cache
func (ic *PropInlineCache) lookupInCache(shape ShapeID, version uint64) (int, bool) {
	switch ic.state {
	case CacheStateMonomorphic:
		e := ic.entries[0]
		if e.shape == shape && e.version == version {
			ic.hitCount++
			return e.offset, true
		}
	case CacheStatePolymorphic:
		for i := 0; i < ic.entryCount; i++ {
			e := ic.entries[i]
			if e.shape == shape && e.version == version {
				ic.hitCount++
				// Move hit entry to front for better cache locality
				if i > 0 {
					copy(ic.entries[1:i+1], ic.entries[0:i])
					ic.entries[0] = e
				}
				return e.offset, true
			}
		}
	}
	ic.missCount++
	return -1, false
}

// updateCache updates the inline cache with a new shape+offset entry
func (ic *PropInlineCache) updateCache(shape ShapeID, version uint64, offset int) {
	entry := PropCacheEntry{shape: shape, version: version, offset: offset}
	switch ic.state {
	case CacheStateUninitialized:
		ic.state = CacheStateMonomorphic
		ic.entries[0] = entry
		ic.entryCount = 1
	case CacheStateMonomorphic:
		if ic.entries[0].shape == shape {
			ic.entries[0] = entry
			return
		}
		ic.state = CacheStatePolymorphic
		ic.entries[1] = entry
		ic.entryCount = 2
	case CacheStatePolymorphic:
		for i := 0; i < ic.entryCount; i++ {
			if ic.entries[i].shape == shape {
				ic.entries[i] = entry
				return
			}
		}
		if ic.entryCount < len(ic.entries) {
			ic.entries[ic.entryCount] = entry
			ic.entryCount++
		} else {
			ic.state = CacheStateMegamorphic
			ic.entryCount = 0
		}
	case CacheStateMegamorphic:
		// Don't cache in megamorphic state
	}
}

// resetCache clears the inline cache
func (ic *PropInlineCache) resetCache() {
	ic.state = CacheStateUninitialized
	ic.entryCount = 0
}

// refersToFreed reports whether any entry names a shape the table no longer holds
func (ic *PropInlineCache) refersToFreed(shapes *ShapeTable) bool {
	for i := 0; i < ic.entryCount; i++ {
		if !shapes.IsLive(ic.entries[i].shape) {
			return true
		}
	}
	return false
}

// NewPropCache creates an inline cache for one access site. The VM resets it when
// a shape collection frees a shape it refers to.
func (vm *VM) NewPropCache() *PropInlineCache {
	ic := &PropInlineCache{}
	vm.propCaches = append(vm.propCaches, ic)
	return ic
}

func (vm *VM) resetStaleCaches() {
	for _, ic := range vm.propCaches {
		if ic.refersToFreed(vm.shapes) {
			ic.resetCache()
		}
	}
}

// GetCached reads key through the inline cache ic. Only own named properties are
// cached; everything else takes the ordinary Get path.
func (o *Object) GetCached(key PropertyKey, ic *PropInlineCache) (Value, error) {
	vm := o.vm
	if key.IsIndex() {
		return o.Get(key)
	}
	shape := o.shapeRef()
	if offset, ok := ic.lookupInCache(o.shape, shape.version); ok {
		vm.cacheStats.TotalHits++
		if ic.state == CacheStateMonomorphic {
			vm.cacheStats.MonomorphicHits++
		} else {
			vm.cacheStats.PolymorphicHits++
		}
		v, _, err := o.readSlot(o.storage[offset], ObjectValue(o), AllowSideEffects)
		return v, err
	}
	vm.cacheStats.TotalMisses++
	if m, ok := vm.shapes.Lookup(o.shape, key); ok {
		ic.updateCache(o.shape, shape.version, m.Offset)
	}
	return o.Get(key)
}

// GetCacheStats returns the current inline cache statistics
func (vm *VM) GetCacheStats() ICacheStats {
	return vm.cacheStats
}

// PrintCacheStats writes cache performance information
func (vm *VM) PrintCacheStats(w io.Writer) {
	stats := vm.cacheStats
	total := stats.TotalHits + stats.TotalMisses
	if total == 0 {
		fmt.Fprintf(w, "IC Stats: No cache activity\n")
		return
	}
	hitRate := float64(stats.TotalHits) / float64(total) * 100.0
	fmt.Fprintf(w, "IC Stats: Total: %d, Hits: %d (%.1f%%), Misses: %d\n",
		total, stats.TotalHits, hitRate, stats.TotalMisses)
	fmt.Fprintf(w, "  Monomorphic: %d, Polymorphic: %d\n",
		stats.MonomorphicHits, stats.PolymorphicHits)
	fmt.Fprintf(w, "  Live shapes: %d\n", vm.shapes.Count())
}
