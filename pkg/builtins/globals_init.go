package builtins

import (
	"protoshape/pkg/vm"
)

type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "Globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	global := ctx.Realm.GlobalObject

	if err := ctx.DefineGlobal("globalThis", vm.ObjectValue(global)); err != nil {
		return err
	}

	// Value properties of the global object are frozen
	constants := []struct {
		name  string
		value vm.Value
	}{
		{"undefined", vm.Undefined},
		{"NaN", vm.NaN},
		{"Infinity", vm.NumberValue(posInf)},
	}
	for _, c := range constants {
		if _, err := global.DefineProperty(vm.NewStringKey(c.name), vm.DataDescriptor(c.value, vm.AttrNone), true); err != nil {
			return err
		}
	}
	return nil
}
