package vm

// NativeFunction is the Go implementation behind a callable object
type NativeFunction func(call FunctionCall) (Value, error)

// FunctionCall carries the receiver and arguments of one invocation
type FunctionCall struct {
	VM        *VM
	This      Value
	Arguments []Value
	Callee    *Object
}

// Argument returns the i-th argument or undefined when it was not passed
func (c FunctionCall) Argument(i int) Value {
	if i < len(c.Arguments) {
		return c.Arguments[i]
	}
	return Undefined
}

// Realm is the realm the callee was created in
func (c FunctionCall) Realm() *Realm { return c.Callee.Realm() }

// NewNativeFunction creates a function object whose "length" and "name" are
// non-writable, non-enumerable and configurable.
func (r *Realm) NewNativeFunction(name string, length int, fn NativeFunction) *Object {
	f := r.newObjectWithShape(r.FunctionPrototype, "Function")
	f.call = fn
	f.defineIntrinsic(lengthKey, NumberValue(float64(length)), AttrConfigurable)
	f.defineIntrinsic(nameKey, NewString(name), AttrConfigurable)
	return f
}

var nameKey = NewStringKey("name")

// Call invokes fn with the given receiver. It fails with a TypeError when fn is not
// callable and a RangeError when the call depth limit is reached.
func (vm *VM) Call(fn Value, this Value, args ...Value) (Value, error) {
	if !fn.IsCallable() {
		return Undefined, vm.ThrowTypeError("%s is not a function", fn.Inspect())
	}
	if vm.opts.MaxCallDepth > 0 && vm.callDepth >= vm.opts.MaxCallDepth {
		return Undefined, vm.ThrowRangeError("Maximum call stack size exceeded")
	}
	callee := fn.AsObject()
	vm.callDepth++
	previous := vm.realm
	vm.realm = callee.Realm()
	defer func() {
		vm.callDepth--
		vm.realm = previous
	}()
	result, err := callee.call(FunctionCall{VM: vm, This: this, Arguments: args, Callee: callee})
	if err != nil {
		return Undefined, vm.normalizeError(err)
	}
	return result.OrUndefined(), nil
}

// FunctionName returns the "name" of a callable without running code
func (o *Object) FunctionName() string {
	v := o.GetWithoutSideEffects(nameKey)
	if v.IsString() {
		return v.AsString()
	}
	return ""
}
