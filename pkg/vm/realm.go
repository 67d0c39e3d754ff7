package vm

// ErrorKind names the native error constructors a realm provides
type ErrorKind uint8

const (
	ErrorKindError ErrorKind = iota
	ErrorKindTypeError
	ErrorKindRangeError
	ErrorKindInternalError
	ErrorKindSyntaxError
)

var errorKindNames = [...]string{
	ErrorKindError:         "Error",
	ErrorKindTypeError:     "TypeError",
	ErrorKindRangeError:    "RangeError",
	ErrorKindInternalError: "InternalError",
	ErrorKindSyntaxError:   "SyntaxError",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// ErrorKinds lists every native error kind in declaration order
func ErrorKinds() []ErrorKind {
	return []ErrorKind{ErrorKindError, ErrorKindTypeError, ErrorKindRangeError, ErrorKindInternalError, ErrorKindSyntaxError}
}

// Well-known symbols are shared by every realm of every VM
var (
	SymbolIterator    = NewSymbolWithDescription("Symbol.iterator")
	SymbolToPrimitive = NewSymbolWithDescription("Symbol.toPrimitive")
	SymbolToStringTag = NewSymbolWithDescription("Symbol.toStringTag")
)

// Realm represents an isolated JavaScript execution environment.
// Each realm has its own global object, built-in prototypes, and intrinsics.
type Realm struct {
	// Identity
	id int
	vm *VM

	// Global environment
	GlobalObject *Object

	// Built-in prototypes
	ObjectPrototype   *Object
	FunctionPrototype *Object
	ArrayPrototype    *Object
	StringPrototype   *Object
	SymbolPrototype   *Object
	errorPrototypes   [len(errorKindNames)]*Object

	// Constructors, filled in by builtin initializers
	Constructors map[string]*Object

	// rootShapes caches the empty shape per prototype. It does not keep either alive:
	// entries whose shape was swept are dropped by pruneRootShapes.
	rootShapes  map[*Object]ShapeID
	errorShapes [len(errorKindNames)]ShapeID
}

// NewRealm creates a realm with fresh intrinsics and registers it with the VM
func (vm *VM) NewRealm() *Realm {
	r := &Realm{
		id:           len(vm.realms),
		vm:           vm,
		Constructors: make(map[string]*Object),
		rootShapes:   make(map[*Object]ShapeID),
	}
	vm.realms = append(vm.realms, r)
	if vm.realm == nil {
		vm.realm = r
	}

	r.ObjectPrototype = r.newObjectWithShape(nil, "Object")

	r.FunctionPrototype = r.newObjectWithShape(r.ObjectPrototype, "Function")
	r.FunctionPrototype.call = func(FunctionCall) (Value, error) { return Undefined, nil }
	r.FunctionPrototype.defineIntrinsic(lengthKey, NumberValue(0), AttrConfigurable)
	r.FunctionPrototype.defineIntrinsic(nameKey, NewString(""), AttrConfigurable)

	r.ArrayPrototype = r.newObjectWithShape(r.ObjectPrototype, "Array")
	r.ArrayPrototype.exotic = arrayExotic
	r.ArrayPrototype.defineIntrinsic(lengthKey, NumberValue(0), AttrWritable)

	r.StringPrototype = r.newObjectWithShape(r.ObjectPrototype, "String")
	r.StringPrototype.exotic = stringExotic
	r.StringPrototype.primitive = NewString("")
	r.StringPrototype.defineIntrinsic(lengthKey, NumberValue(0), AttrNone)

	r.SymbolPrototype = r.newObjectWithShape(r.ObjectPrototype, "Symbol")

	messageKey := NewStringKey("message")
	for _, kind := range ErrorKinds() {
		parent := r.ObjectPrototype
		if kind != ErrorKindError {
			parent = r.errorPrototypes[ErrorKindError]
		}
		proto := r.newObjectWithShape(parent, "Object")
		proto.defineIntrinsic(nameKey, NewString(kind.String()), AttrWritable|AttrConfigurable)
		proto.defineIntrinsic(messageKey, NewString(""), AttrWritable|AttrConfigurable)
		r.errorPrototypes[kind] = proto
		// Error instances get a prebuilt shape so throwing never allocates one
		r.errorShapes[kind], _ = vm.shapes.transition(r.RootShape(proto), messageKey, AttrWritable|AttrConfigurable, false)
	}

	r.GlobalObject = r.newObjectWithShape(r.ObjectPrototype, "Object")
	r.GlobalObject.DisableTransitions()
	return r
}

func (r *Realm) ID() int { return r.id }

func (r *Realm) VM() *VM { return r.vm }

// ErrorPrototype returns the intrinsic prototype for kind
func (r *Realm) ErrorPrototype(kind ErrorKind) *Object { return r.errorPrototypes[kind] }

// RootShape returns the shared empty shape for objects created with proto
func (r *Realm) RootShape(proto *Object) ShapeID {
	if id, ok := r.rootShapes[proto]; ok {
		return id
	}
	id := r.vm.shapes.NewRoot(r, proto)
	r.rootShapes[proto] = id
	return id
}

func (r *Realm) newObjectWithShape(proto *Object, class string) *Object {
	return r.vm.allocateObject(r.RootShape(proto), class)
}

// NewObject creates an ordinary object inheriting from Object.prototype
func (r *Realm) NewObject() *Object {
	return r.newObjectWithShape(r.ObjectPrototype, "Object")
}

// NewObjectWithPrototype creates an ordinary object with the given prototype; nil means null
func (r *Realm) NewObjectWithPrototype(proto *Object) *Object {
	return r.newObjectWithShape(proto, "Object")
}

// NewArray creates an array exotic object holding values
func (r *Realm) NewArray(values ...Value) *Object {
	a := r.newObjectWithShape(r.ArrayPrototype, "Array")
	a.exotic = arrayExotic
	a.defineIntrinsic(lengthKey, NumberValue(float64(len(values))), AttrWritable)
	for i, v := range values {
		a.indexed.Put(uint32(i), v, DefaultAttributes)
	}
	return a
}

// NewStringObject creates a String wrapper with read-only character indices
func (r *Realm) NewStringObject(s string) *Object {
	o := r.newObjectWithShape(r.StringPrototype, "String")
	o.exotic = stringExotic
	o.primitive = NewString(s)
	o.defineIntrinsic(lengthKey, NumberValue(float64(utf16Length(s))), AttrNone)
	return o
}

// NewSymbolObject creates a Symbol wrapper object
func (r *Realm) NewSymbolObject(sym *Symbol) *Object {
	o := r.newObjectWithShape(r.SymbolPrototype, "Symbol")
	o.primitive = SymbolValue(sym)
	return o
}

// NewError creates an error object of kind with the given message. It never
// allocates a shape, so it is safe to use while reporting allocation failures.
func (r *Realm) NewError(kind ErrorKind, message string) *Object {
	o := r.vm.allocateObject(r.errorShapes[kind], "Error")
	o.storage[0] = NewString(message)
	return o
}

// pruneRootShapes forgets cached roots that a sweep freed
func (r *Realm) pruneRootShapes() {
	for proto, id := range r.rootShapes {
		if !r.vm.shapes.IsLive(id) {
			delete(r.rootShapes, proto)
		}
	}
}

// VisitEdges reports everything the realm keeps alive
func (r *Realm) VisitEdges(v EdgeVisitor) {
	v.VisitObject(r.GlobalObject)
	v.VisitObject(r.ObjectPrototype)
	v.VisitObject(r.FunctionPrototype)
	v.VisitObject(r.ArrayPrototype)
	v.VisitObject(r.StringPrototype)
	v.VisitObject(r.SymbolPrototype)
	for _, proto := range r.errorPrototypes {
		v.VisitObject(proto)
	}
	for _, ctor := range r.Constructors {
		v.VisitObject(ctor)
	}
	for _, id := range r.errorShapes {
		v.VisitShape(id)
	}
}
