package driver

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"protoshape/pkg/builtins"
	"protoshape/pkg/errors"
	"protoshape/pkg/scenario"
	"protoshape/pkg/source"
	"protoshape/pkg/vm"
)

const debugDriver = false

func debugPrintf(format string, args ...interface{}) {
	if debugDriver {
		fmt.Printf(format, args...)
	}
}

// Session is a persistent VM with the standard builtins and the process global
// installed. Variables bound by one scenario or step stay visible to later ones.
type Session struct {
	config Config
	vm     *vm.VM
	realm  *vm.Realm
	runner *scenario.Runner
	out    io.Writer
	errOut io.Writer
}

// NewSession creates a session writing results to stdout and errors to stderr
func NewSession(cfg Config, argv []string) (*Session, error) {
	return NewSessionWithOutput(cfg, argv, os.Stdout, os.Stderr)
}

// NewSessionWithOutput creates a session with explicit output writers. Logs go to
// errOut unless cfg.VM.Logger is set.
func NewSessionWithOutput(cfg Config, argv []string, out, errOut io.Writer) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := cfg.VM
	if opts.Logger == nil {
		opts.Logger = cfg.NewLogger(errOut)
	}
	machine := vm.NewVMWithOptions(opts)
	realm := machine.CurrentRealm()

	initializers := append(builtins.GetStandardInitializers(), NewProcessInitializer(argv, out, errOut))
	if err := builtins.InitRealmWith(realm, initializers); err != nil {
		return nil, fmt.Errorf("initializing builtins: %w", err)
	}
	debugPrintf("[driver] session ready: %d shapes\n", machine.Shapes().Count())

	return &Session{
		config: cfg,
		vm:     machine,
		realm:  realm,
		runner: scenario.NewRunner(realm),
		out:    out,
		errOut: errOut,
	}, nil
}

func (s *Session) VM() *vm.VM               { return s.vm }
func (s *Session) Realm() *vm.Realm         { return s.realm }
func (s *Session) Runner() *scenario.Runner { return s.runner }
func (s *Session) Config() Config           { return s.config }

// RunScenario runs an already parsed scenario in this session
func (s *Session) RunScenario(sc *scenario.Scenario) error {
	s.vm.Logger().Info("scenario", slog.String("name", sc.Name), slog.String("file", sc.File))
	return s.runner.Run(sc)
}

// RunFile loads and runs a scenario file, printing a PASS line or the failure.
// Returns true if every step held.
func (s *Session) RunFile(path string) bool {
	sc, err := scenario.LoadFile(path)
	if err != nil {
		return s.DisplayResult("", vm.Undefined, err)
	}
	if err := s.RunScenario(sc); err != nil {
		s.DisplayResult(sc.Source.Content, vm.Undefined, err)
		fmt.Fprintf(s.out, "FAIL %s\n", describe(sc))
		return false
	}
	fmt.Fprintf(s.out, "PASS %s (%d steps)\n", describe(sc), len(sc.Steps))
	return true
}

func describe(sc *scenario.Scenario) string {
	if sc.Name == "" {
		return sc.File
	}
	return fmt.Sprintf("%s: %s", sc.File, sc.Name)
}

// RunStep parses and runs a single step typed at the REPL
func (s *Session) RunStep(src string) (vm.Value, error) {
	return s.RunSource(source.NewReplSource(src))
}

// RunSource parses and runs the single step held by sf
func (s *Session) RunSource(sf *source.SourceFile) (vm.Value, error) {
	step, err := scenario.ParseStep(sf.Name, sf.Content)
	if err != nil {
		return vm.Undefined, err
	}
	return s.runner.RunStep(step)
}

// DisplayResult prints the value, or the error with its source line.
// Returns true if there was no error.
func (s *Session) DisplayResult(src string, value vm.Value, err error) bool {
	if err != nil {
		if pe, ok := errors.AsProtoshapeError(err); ok {
			errors.DisplayErrors(s.errOut, src, []errors.ProtoshapeError{pe})
		} else {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}
		return false
	}

	// Only print non-undefined results in REPL-like contexts
	if !value.IsUndefined() {
		fmt.Fprintln(s.out, value.Inspect())
	}
	return true
}

// CollectShapes sweeps unreachable shapes and reports how many were freed and
// how many remain.
func (s *Session) CollectShapes() (swept, live int) {
	swept = s.vm.CollectShapes()
	return swept, s.vm.Shapes().Count()
}

// PrintCacheStats writes the inline cache counters to the session output
func (s *Session) PrintCacheStats() {
	s.vm.PrintCacheStats(s.out)
}
