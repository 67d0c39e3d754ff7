package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"protoshape/pkg/errors"
	"protoshape/pkg/vm"
)

type operation struct {
	minArgs int
	maxArgs int  // -1 for variadic
	options bool // accepts a mapping instead of a list
	run     func(r *Runner, step *Step) (vm.Value, error)
}

func (op operation) arity() string {
	switch {
	case op.maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", op.minArgs)
	case op.minArgs == op.maxArgs:
		return fmt.Sprintf("%d arguments", op.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", op.minArgs, op.maxArgs)
	}
}

var operations = map[string]operation{
	// values
	"new":      {0, 1, true, opNew},
	"array":    {0, -1, false, opArray},
	"string":   {1, 1, false, opString},
	"symbol":   {0, 1, false, opSymbol},
	"function": {0, 0, true, opFunction},
	"let":      {1, 1, false, opLet},

	// property protocol
	"get":        {2, 2, false, opGet},
	"put":        {3, 4, false, opPut},
	"set":        {3, 3, false, opSet},
	"has":        {2, 2, false, opHas},
	"has_own":    {2, 2, false, opHasOwn},
	"define":     {3, 4, false, opDefine},
	"delete":     {2, 3, false, opDelete},
	"descriptor": {2, 2, false, opDescriptor},
	"keys":       {1, 3, false, opKeys},

	// integrity
	"prevent_extensions": {1, 1, false, opPreventExtensions},
	"freeze":             {1, 1, false, integrity(vm.IntegrityFrozen)},
	"seal":               {1, 1, false, integrity(vm.IntegritySealed)},
	"is_frozen":          {1, 1, false, testIntegrity(vm.IntegrityFrozen)},
	"is_sealed":          {1, 1, false, testIntegrity(vm.IntegritySealed)},
	"is_extensible":      {1, 1, false, opIsExtensible},

	// prototypes
	"set_prototype": {2, 2, false, opSetPrototype},
	"prototype":     {1, 1, false, opPrototype},

	// calls
	"invoke": {2, -1, false, opInvoke},
	"call":   {1, -1, false, opCall},

	// shapes
	"disable_transitions": {1, 1, false, opDisableTransitions},
	"same_shape":          {2, 2, false, opSameShape},
	"shape_count":         {0, 0, false, opShapeCount},
	"gc":                  {0, 0, false, opGC},
}

func (r *Runner) arg(step *Step, i int) (vm.Value, error) {
	if i >= len(step.Args) {
		return vm.Undefined, nil
	}
	return r.value(step.Args[i], nil)
}

func (r *Runner) args(step *Step, from int) ([]vm.Value, error) {
	var out []vm.Value
	for i := from; i < len(step.Args); i++ {
		v, err := r.value(step.Args[i], nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Runner) object(step *Step, i int) (*vm.Object, error) {
	v, err := r.arg(step, i)
	if err != nil {
		return nil, err
	}
	if !v.IsObject() {
		return nil, r.vm.ThrowTypeError("%s is not an object", v.InspectNested())
	}
	return v.AsObject(), nil
}

// objectOrNull accepts an object or null, as prototypes do
func (r *Runner) objectOrNull(step *Step, i int) (*vm.Object, error) {
	v, err := r.arg(step, i)
	if err != nil {
		return nil, err
	}
	switch {
	case v.IsNull():
		return nil, nil
	case v.IsObject():
		return v.AsObject(), nil
	}
	return nil, r.vm.ThrowTypeError("Object prototype may only be an Object or null: %s", v.InspectNested())
}

func (r *Runner) key(step *Step, i int) (vm.PropertyKey, error) {
	v, err := r.arg(step, i)
	if err != nil {
		return vm.PropertyKey{}, err
	}
	return r.vm.ToPropertyKey(v)
}

func (r *Runner) flag(step *Step, i int) (bool, error) {
	v, err := r.arg(step, i)
	if err != nil {
		return false, err
	}
	return v.IsTruthy(), nil
}

// targetAndKey evaluates the usual [object, key] leading arguments
func (r *Runner) targetAndKey(step *Step) (*vm.Object, vm.PropertyKey, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	key, err := r.key(step, 1)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	return o, key, nil
}

func opNew(r *Runner, step *Step) (vm.Value, error) {
	if step.Options != nil {
		return r.value(step.Options, nil)
	}
	if len(step.Args) == 0 {
		return vm.ObjectValue(r.realm.NewObject()), nil
	}
	proto, err := r.objectOrNull(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(r.realm.NewObjectWithPrototype(proto)), nil
}

func opArray(r *Runner, step *Step) (vm.Value, error) {
	values, err := r.args(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(r.realm.NewArray(values...)), nil
}

func opString(r *Runner, step *Step) (vm.Value, error) {
	v, err := r.arg(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	s, err := r.vm.ToString(v)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(r.realm.NewStringObject(s)), nil
}

func opSymbol(r *Runner, step *Step) (vm.Value, error) {
	if len(step.Args) == 0 {
		return vm.SymbolValue(vm.NewAnonymousSymbol()), nil
	}
	v, err := r.arg(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	desc, err := r.vm.ToString(v)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NewSymbol(desc), nil
}

func opLet(r *Runner, step *Step) (vm.Value, error) {
	return r.arg(step, 0)
}

func opGet(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	return o.GetCached(key, r.getSite(key))
}

// opPut performs a lenient [[Set]]; a fourth argument overrides the receiver
func opPut(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	v, err := r.arg(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	receiver := vm.ObjectValue(o)
	if len(step.Args) > 3 {
		if receiver, err = r.arg(step, 3); err != nil {
			return vm.Undefined, err
		}
	}
	ok, err := o.Put(key, v, receiver)
	return vm.BooleanValue(ok), err
}

// opSet is a strict-mode assignment: a refused write throws
func opSet(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	v, err := r.arg(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	ok, err := o.Set(key, v, true)
	return vm.BooleanValue(ok), err
}

func opHas(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(o.HasProperty(key)), nil
}

func opHasOwn(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(o.HasOwnProperty(key)), nil
}

// opDefine takes a descriptor object; a truthy fourth argument makes a refusal throw
func opDefine(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	descObj, err := r.arg(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	desc, err := r.vm.ToPropertyDescriptor(descObj)
	if err != nil {
		return vm.Undefined, err
	}
	throw, err := r.flag(step, 3)
	if err != nil {
		return vm.Undefined, err
	}
	ok, err := o.DefineProperty(key, desc, throw)
	return vm.BooleanValue(ok), err
}

func opDelete(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	throw, err := r.flag(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	ok, err := o.DeleteProperty(key, throw)
	return vm.BooleanValue(ok), err
}

func opDescriptor(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	desc, found, err := o.GetOwnPropertyDescriptor(key)
	if err != nil || !found {
		return vm.Undefined, err
	}
	d, err := r.realm.FromPropertyDescriptor(desc)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(d), nil
}

var keyFilters = map[string]vm.OwnKeysFilter{
	"all":     vm.OwnKeysAll,
	"strings": vm.OwnKeysStringOnly,
	"symbols": vm.OwnKeysSymbolOnly,
}

var propertyKinds = map[string]vm.PropertyKind{
	"keys":    vm.PropertyKindKey,
	"values":  vm.PropertyKindValue,
	"entries": vm.PropertyKindKeyAndValue,
}

// opKeys lists own keys. The second argument selects the listing:
//
//	all, strings, symbols       own keys of that space
//	keys, values, entries       snapshot enumeration; the third argument false includes non-enumerable properties
//	names, name_values          enumerable string names, re-validated before every read
func opKeys(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	mode := "all"
	if len(step.Args) > 1 {
		v, err := r.arg(step, 1)
		if err != nil {
			return vm.Undefined, err
		}
		if mode, err = r.vm.ToString(v); err != nil {
			return vm.Undefined, err
		}
	}

	var out []vm.Value
	if filter, ok := keyFilters[mode]; ok {
		for _, key := range o.OwnPropertyKeys(filter) {
			out = append(out, key.ToValue())
		}
		return vm.ObjectValue(r.realm.NewArray(out...)), nil
	}
	switch mode {
	case "names":
		out, err = o.GetEnumerableOwnPropertyNames(vm.PropertyKindKey)
	case "name_values":
		out, err = o.GetEnumerableOwnPropertyNames(vm.PropertyKindValue)
	default:
		kind, ok := propertyKinds[mode]
		if !ok {
			return vm.Undefined, errors.NewSyntaxError(position(r.file, step.Args[1]), "unknown key listing %q", mode)
		}
		enumerableOnly := true
		if len(step.Args) > 2 {
			if enumerableOnly, err = r.flag(step, 2); err != nil {
				return vm.Undefined, err
			}
		}
		out, err = o.GetOwnProperties(kind, vm.OwnKeysAll, enumerableOnly)
	}
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(r.realm.NewArray(out...)), nil
}

func opPreventExtensions(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(o.PreventExtensions()), nil
}

func integrity(level vm.IntegrityLevel) func(*Runner, *Step) (vm.Value, error) {
	return func(r *Runner, step *Step) (vm.Value, error) {
		o, err := r.object(step, 0)
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.SetIntegrityLevel(level)
		return vm.BooleanValue(ok), err
	}
}

func testIntegrity(level vm.IntegrityLevel) func(*Runner, *Step) (vm.Value, error) {
	return func(r *Runner, step *Step) (vm.Value, error) {
		o, err := r.object(step, 0)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(o.TestIntegrityLevel(level)), nil
	}
}

func opIsExtensible(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(o.IsExtensible()), nil
}

func opSetPrototype(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	proto, err := r.objectOrNull(step, 1)
	if err != nil {
		return vm.Undefined, err
	}
	ok, err := o.SetPrototype(proto, false)
	return vm.BooleanValue(ok), err
}

func opPrototype(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o.Prototype()), nil
}

func opInvoke(r *Runner, step *Step) (vm.Value, error) {
	o, key, err := r.targetAndKey(step)
	if err != nil {
		return vm.Undefined, err
	}
	args, err := r.args(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	return o.Invoke(key, args...)
}

func opCall(r *Runner, step *Step) (vm.Value, error) {
	fn, err := r.arg(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	this, err := r.arg(step, 1)
	if err != nil {
		return vm.Undefined, err
	}
	args, err := r.args(step, 2)
	if err != nil {
		return vm.Undefined, err
	}
	return r.vm.Call(fn, this, args...)
}

func opDisableTransitions(r *Runner, step *Step) (vm.Value, error) {
	o, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	o.DisableTransitions()
	return vm.Undefined, nil
}

func opSameShape(r *Runner, step *Step) (vm.Value, error) {
	a, err := r.object(step, 0)
	if err != nil {
		return vm.Undefined, err
	}
	b, err := r.object(step, 1)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(a.Shape() == b.Shape()), nil
}

func opShapeCount(r *Runner, step *Step) (vm.Value, error) {
	return vm.NumberValue(float64(r.vm.Shapes().Count())), nil
}

func opGC(r *Runner, step *Step) (vm.Value, error) {
	return vm.NumberValue(float64(r.vm.CollectShapes())), nil
}

// hostFunction describes a function defined by a scenario. Field nodes are kept
// unevaluated and read on every call with "this" bound to the receiver.
type hostFunction struct {
	name        string
	length      int
	returns     *yaml.Node
	throws      *yaml.Node
	deletes     *yaml.Node
	puts        *yaml.Node
	captureThis string
	captureArgs string
	counter     string
}

func opFunction(r *Runner, step *Step) (vm.Value, error) {
	if step.Options == nil {
		return vm.Undefined, errors.NewSyntaxError(step.Pos, "function takes a mapping with at least a name")
	}
	hf, err := parseHostFunction(r.file, step.Options)
	if err != nil {
		return vm.Undefined, err
	}
	fn := r.realm.NewNativeFunction(hf.name, hf.length, func(call vm.FunctionCall) (vm.Value, error) {
		return r.callHost(hf, call)
	})
	return vm.ObjectValue(fn), nil
}

func parseHostFunction(file string, node *yaml.Node) (*hostFunction, error) {
	hf := &hostFunction{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "name":
			hf.name = value.Value
		case "length":
			if err := value.Decode(&hf.length); err != nil {
				return nil, errors.NewSyntaxError(position(file, value), "length must be an integer")
			}
		case "returns":
			hf.returns = value
		case "throws":
			hf.throws = value
		case "delete", "put":
			want := 2
			if key.Value == "put" {
				want = 3
			}
			if value.Kind != yaml.SequenceNode || len(value.Content) != want {
				return nil, errors.NewSyntaxError(position(file, value), "%s takes %d arguments", key.Value, want)
			}
			if key.Value == "delete" {
				hf.deletes = value
			} else {
				hf.puts = value
			}
		case "capture_this":
			hf.captureThis = value.Value
		case "capture_args":
			hf.captureArgs = value.Value
		case "counter":
			hf.counter = value.Value
		default:
			return nil, errors.NewSyntaxError(position(file, key), "unknown function field %q", key.Value)
		}
	}
	if hf.name == "" {
		return nil, errors.NewSyntaxError(position(file, node), "function needs a name")
	}
	return hf, nil
}

// callHost runs the side effects of a scenario function in a fixed order:
// counter, captures, delete, put, then throws or returns.
func (r *Runner) callHost(hf *hostFunction, call vm.FunctionCall) (vm.Value, error) {
	sc := &scope{this: call.This}
	heap := r.vm.Heap()

	if hf.counter != "" {
		n := 0.0
		if v, ok := heap.GetByName(hf.counter); ok && v.IsNumber() {
			n = v.AsFloat()
		}
		heap.SetByName(hf.counter, vm.NumberValue(n+1))
	}
	if hf.captureThis != "" {
		heap.SetByName(hf.captureThis, call.This)
	}
	if hf.captureArgs != "" {
		heap.SetByName(hf.captureArgs, vm.ObjectValue(r.realm.NewArray(call.Arguments...)))
	}
	if hf.deletes != nil {
		target, key, err := r.hostTargetAndKey(hf.deletes, sc)
		if err != nil {
			return vm.Undefined, err
		}
		if _, err := target.DeleteProperty(key, false); err != nil {
			return vm.Undefined, err
		}
	}
	if hf.puts != nil {
		target, key, err := r.hostTargetAndKey(hf.puts, sc)
		if err != nil {
			return vm.Undefined, err
		}
		v, err := r.value(hf.puts.Content[2], sc)
		if err != nil {
			return vm.Undefined, err
		}
		if _, err := target.Put(key, v, vm.ObjectValue(target)); err != nil {
			return vm.Undefined, err
		}
	}
	if hf.throws != nil {
		if isQuoted(hf.throws) {
			return vm.Undefined, r.vm.ThrowError(vm.ErrorKindError, "%s", hf.throws.Value)
		}
		v, err := r.value(hf.throws, sc)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.Undefined, r.vm.Throw(v)
	}
	if hf.returns != nil {
		return r.value(hf.returns, sc)
	}
	return vm.Undefined, nil
}

func (r *Runner) hostTargetAndKey(args *yaml.Node, sc *scope) (*vm.Object, vm.PropertyKey, error) {
	t, err := r.value(args.Content[0], sc)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	if !t.IsObject() {
		return nil, vm.PropertyKey{}, r.vm.ThrowTypeError("%s is not an object", t.InspectNested())
	}
	k, err := r.value(args.Content[1], sc)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	key, err := r.vm.ToPropertyKey(k)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	return t.AsObject(), key, nil
}
