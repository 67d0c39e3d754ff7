package scenario

import (
	"log/slog"
	"strings"

	"protoshape/pkg/errors"
	"protoshape/pkg/vm"
)

// Runner executes scenario steps against one realm. Variables bound with "as" or
// "let" live in the VM heap, so they stay reachable across shape sweeps.
type Runner struct {
	vm     *vm.VM
	realm  *vm.Realm
	file   string
	logger *slog.Logger

	// getSites holds one inline cache per property name read by "get" steps
	getSites map[vm.PropertyKey]*vm.PropInlineCache
}

func NewRunner(realm *vm.Realm) *Runner {
	return &Runner{
		vm:       realm.VM(),
		realm:    realm,
		logger:   realm.VM().Logger(),
		getSites: make(map[vm.PropertyKey]*vm.PropInlineCache),
	}
}

// getSite returns the inline cache shared by every "get" of key
func (r *Runner) getSite(key vm.PropertyKey) *vm.PropInlineCache {
	ic, ok := r.getSites[key]
	if !ok {
		ic = r.vm.NewPropCache()
		r.getSites[key] = ic
	}
	return ic
}

// Realm returns the realm steps run in
func (r *Runner) Realm() *vm.Realm { return r.realm }

// Variable returns a value bound by an earlier step
func (r *Runner) Variable(name string) (vm.Value, bool) {
	return r.vm.Heap().GetByName(name)
}

// Run executes every step of s in order and stops at the first failure.
func (r *Runner) Run(s *Scenario) error {
	previous := r.file
	r.file = s.File
	defer func() { r.file = previous }()

	r.logger.Debug("running scenario", slog.String("name", s.Name), slog.Int("steps", len(s.Steps)))
	for _, step := range s.Steps {
		if _, err := r.RunStep(step); err != nil {
			return err
		}
	}
	return nil
}

// RunStep executes one step, binds its result and checks its expectation.
// A step that expects an error returns undefined once the error matched.
func (r *Runner) RunStep(step *Step) (vm.Value, error) {
	op, ok := operations[step.Op]
	if !ok {
		return vm.Undefined, errors.NewSyntaxError(step.Pos, "unknown operation %q", step.Op)
	}
	if step.Options != nil {
		if !op.options {
			return vm.Undefined, errors.NewSyntaxError(step.Pos, "%s takes a list of arguments, not a mapping", step.Op)
		}
	} else if len(step.Args) < op.minArgs || (op.maxArgs >= 0 && len(step.Args) > op.maxArgs) {
		return vm.Undefined, errors.NewSyntaxError(step.Pos, "%s takes %s", step.Op, op.arity())
	}

	result, err := op.run(r, step)
	r.logger.Debug("step", slog.String("op", step.Op), slog.String("pos", step.Pos.String()))

	if step.ExpectError != nil {
		return vm.Undefined, r.checkThrown(step, err)
	}
	if err != nil {
		if _, thrown := vm.AsException(err); thrown {
			r.vm.ClearException()
			return vm.Undefined, errors.NewRuntimeError(step.Pos, "%s threw %s", step.Op, err.Error()).CausedBy(err)
		}
		return vm.Undefined, err
	}

	if step.Bind != "" {
		r.vm.Heap().SetByName(step.Bind, result)
	}
	if step.Expect != nil {
		want, err := r.value(step.Expect, nil)
		if err != nil {
			return vm.Undefined, err
		}
		if !vm.SameValue(result, want) {
			return vm.Undefined, errors.NewRuntimeError(step.Pos, "%s: expected %s, got %s", step.Op, want.InspectNested(), result.InspectNested())
		}
	}
	if step.ExpectInspect != nil {
		if got := result.Inspect(); got != *step.ExpectInspect {
			return vm.Undefined, errors.NewRuntimeError(step.Pos, "%s: expected %s, got %s", step.Op, *step.ExpectInspect, got)
		}
	}
	return result, nil
}

func (r *Runner) checkThrown(step *Step, err error) error {
	if err == nil {
		return errors.NewRuntimeError(step.Pos, "%s: expected an error containing %q, but it succeeded", step.Op, *step.ExpectError)
	}
	if _, thrown := vm.AsException(err); !thrown {
		return err
	}
	r.vm.ClearException()
	if !strings.Contains(err.Error(), *step.ExpectError) {
		return errors.NewRuntimeError(step.Pos, "%s: expected an error containing %q, got %q", step.Op, *step.ExpectError, err.Error()).CausedBy(err)
	}
	return nil
}
