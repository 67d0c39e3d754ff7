package vm

import (
	"io"
	"log/slog"
	"math"
)

// Options bounds the resources a VM may use. Zero values mean "no limit" for the
// Max fields.
type Options struct {
	MaxShapes              int    `yaml:"max_shapes"`
	MaxStorageSlots        int    `yaml:"max_storage_slots"`
	MaxTransitionsPerShape int    `yaml:"max_transitions_per_shape"`
	SparseThreshold        uint32 `yaml:"sparse_threshold"`
	MaxCallDepth           int    `yaml:"max_call_depth"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns the limits used by NewVM
func DefaultOptions() Options {
	return Options{
		MaxShapes:              1 << 20,
		MaxStorageSlots:        1 << 16,
		MaxTransitionsPerShape: 64,
		SparseThreshold:        200,
		MaxCallDepth:           512,
	}
}

// VM owns the shape arena, the realms and the root set. It is single-threaded:
// objects must not be shared between goroutines.
type VM struct {
	opts   Options
	logger *slog.Logger
	shapes *ShapeTable
	heap   *Heap

	realms []*Realm
	realm  *Realm // running realm

	// global symbol registry for Symbol.for / Symbol.keyFor, shared across realms
	symbolRegistry map[string]*Symbol

	exception Value
	callDepth int

	cacheStats ICacheStats
	propCaches []*PropInlineCache
}

// NewVM creates a VM with default options and one realm
func NewVM() *VM {
	return NewVMWithOptions(DefaultOptions())
}

func NewVMWithOptions(opts Options) *VM {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	vm := &VM{
		opts:   opts,
		logger: logger,
		shapes: NewShapeTable(opts.MaxShapes, opts.MaxTransitionsPerShape, logger.With(slog.String("component", "shapes"))),
		heap:   NewHeap(64),

		symbolRegistry: make(map[string]*Symbol),
	}
	vm.NewRealm()
	return vm
}

func (vm *VM) Options() Options { return vm.opts }

func (vm *VM) Logger() *slog.Logger { return vm.logger }

func (vm *VM) Shapes() *ShapeTable { return vm.shapes }

// Heap is the root set: values stored there survive CollectShapes
func (vm *VM) Heap() *Heap { return vm.heap }

// CurrentRealm is the realm of the running function, or the first realm at top level
func (vm *VM) CurrentRealm() *Realm { return vm.realm }

func (vm *VM) Realms() []*Realm { return vm.realms }

// SymbolFor returns the registered symbol for key, creating it on first use
func (vm *VM) SymbolFor(key string) *Symbol {
	if sym, ok := vm.symbolRegistry[key]; ok {
		return sym
	}
	sym := NewSymbolWithDescription(key)
	vm.symbolRegistry[key] = sym
	return sym
}

// KeyForSymbol reports the registry key of sym, if it was created by SymbolFor
func (vm *VM) KeyForSymbol(sym *Symbol) (string, bool) {
	desc, ok := sym.Description()
	if !ok {
		return "", false
	}
	if registered, found := vm.symbolRegistry[desc]; found && registered == sym {
		return desc, true
	}
	return "", false
}
