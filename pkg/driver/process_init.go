package driver

import (
	"io"
	"os"
	"runtime"
	"strings"

	"protoshape/pkg/builtins"
	"protoshape/pkg/vm"
)

// ProcessInitializer installs the host "process" global: command-line arguments,
// environment, output streams and a live view of the VM's shape table.
// It is not part of the standard builtins and only the driver installs it.
type ProcessInitializer struct {
	argv   []string
	stdout io.Writer
	stderr io.Writer
	exit   func(code int)
}

// NewProcessInitializer creates a ProcessInitializer with the given argv
func NewProcessInitializer(argv []string, stdout, stderr io.Writer) *ProcessInitializer {
	return &ProcessInitializer{argv: argv, stdout: stdout, stderr: stderr, exit: os.Exit}
}

func (p *ProcessInitializer) Name() string {
	return "process"
}

func (p *ProcessInitializer) Priority() int {
	return 300 // After standard builtins
}

func (p *ProcessInitializer) InitRuntime(ctx *builtins.RuntimeContext) error {
	realm := ctx.Realm
	machine := ctx.VM

	argv := make([]vm.Value, len(p.argv))
	for i, arg := range p.argv {
		argv[i] = vm.NewString(arg)
	}

	env := realm.NewObject()
	env.DisableTransitions()
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if _, err := env.CreateDataProperty(vm.NewStringKey(key), vm.NewString(value)); err != nil {
			return err
		}
	}

	stdout, err := p.stream(realm, p.stdout)
	if err != nil {
		return err
	}
	stderr, err := p.stream(realm, p.stderr)
	if err != nil {
		return err
	}

	process := realm.NewObject()
	fields := []struct {
		name  string
		value vm.Value
	}{
		{"argv", vm.ObjectValue(realm.NewArray(argv...))},
		{"platform", vm.NewString(runtime.GOOS)},
		{"arch", vm.NewString(runtime.GOARCH)},
		{"pid", vm.NumberValue(float64(os.Getpid()))},
		{"env", vm.ObjectValue(env)},
		{"stdout", vm.ObjectValue(stdout)},
		{"stderr", vm.ObjectValue(stderr)},
	}
	for _, f := range fields {
		if err := process.DefineDataProperty(vm.NewStringKey(f.name), f.value, vm.DefaultAttributes); err != nil {
			return err
		}
	}

	// process.shapes reads the live shape count without allocating
	_, err = process.DefineNativeProperty(vm.NewStringKey("shapes"), func(m *vm.VM, this vm.Value) (vm.Value, error) {
		return vm.NumberValue(float64(m.Shapes().Count())), nil
	}, nil, vm.AttrEnumerable)
	if err != nil {
		return err
	}

	methods := []struct {
		name   string
		length int
		fn     vm.NativeFunction
	}{
		{"cwd", 0, func(call vm.FunctionCall) (vm.Value, error) {
			cwd, err := os.Getwd()
			if err != nil {
				return vm.NewString(""), nil
			}
			return vm.NewString(cwd), nil
		}},
		{"exit", 1, func(call vm.FunctionCall) (vm.Value, error) {
			code := 0
			if arg := call.Argument(0); arg.IsNumber() {
				code = int(arg.AsFloat())
			}
			p.exit(code)
			return vm.Undefined, nil
		}},
		{"memoryUsage", 0, func(call vm.FunctionCall) (vm.Value, error) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			r := call.VM.CurrentRealm()
			result := r.NewObject()
			for _, entry := range []struct {
				name  string
				value uint64
			}{{"heapUsed", m.HeapAlloc}, {"heapTotal", m.HeapSys}, {"rss", m.Sys}} {
				if _, err := result.CreateDataProperty(vm.NewStringKey(entry.name), vm.NumberValue(float64(entry.value))); err != nil {
					return vm.Undefined, err
				}
			}
			if _, err := result.CreateDataProperty(vm.NewStringKey("objects"), vm.NumberValue(float64(call.VM.Mark().ObjectCount()))); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(result), nil
		}},
	}
	for _, m := range methods {
		if _, err := process.DefineNativeFunction(vm.NewStringKey(m.name), m.length, m.fn, vm.AttrWritable|vm.AttrConfigurable); err != nil {
			return err
		}
	}

	machine.Logger().Debug("process global installed")
	return ctx.DefineGlobal("process", vm.ObjectValue(process))
}

// stream builds a {write, isTTY} object writing to w
func (p *ProcessInitializer) stream(realm *vm.Realm, w io.Writer) (*vm.Object, error) {
	stream := realm.NewObject()
	write := func(call vm.FunctionCall) (vm.Value, error) {
		s, err := call.VM.ToString(call.Argument(0))
		if err != nil {
			return vm.Undefined, err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return vm.Undefined, call.VM.ThrowInternalError("write failed: %v", err)
		}
		return vm.True, nil
	}
	if _, err := stream.DefineNativeFunction(vm.NewStringKey("write"), 1, write, vm.AttrWritable|vm.AttrConfigurable); err != nil {
		return nil, err
	}
	isTTY := false
	if f, ok := w.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			isTTY = info.Mode()&os.ModeCharDevice != 0
		}
	}
	if err := stream.DefineDataProperty(vm.NewStringKey("isTTY"), vm.BooleanValue(isTTY), vm.DefaultAttributes); err != nil {
		return nil, err
	}
	return stream, nil
}
