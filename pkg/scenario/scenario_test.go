package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"protoshape/pkg/builtins"
	"protoshape/pkg/errors"
	"protoshape/pkg/vm"
)

const scenarioDebug = false

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	realm := vm.NewVM().CurrentRealm()
	if err := builtins.InitRealm(realm); err != nil {
		t.Fatalf("InitRealm failed: %v", err)
	}
	return NewRunner(realm)
}

func TestScenarios(t *testing.T) {
	scenarioDir := "testdata"
	files, err := os.ReadDir(scenarioDir)
	if err != nil {
		t.Fatalf("Failed to read scenario directory %q: %v", scenarioDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(scenarioDir, file.Name())
		t.Run(file.Name(), func(t *testing.T) {
			s, err := LoadFile(path)
			if err != nil {
				t.Fatalf("Failed to load %s: %v", path, err)
			}
			if len(s.Steps) == 0 {
				t.Fatalf("%s has no steps", path)
			}
			if scenarioDebug {
				t.Logf("running %q: %d steps", s.Name, len(s.Steps))
			}
			r := newTestRunner(t)
			if err := r.Run(s); err != nil {
				var cause string
				if pe, ok := errors.AsProtoshapeError(err); ok && pe.Unwrap() != nil {
					cause = "\n  caused by: " + pe.Unwrap().Error()
				}
				t.Fatalf("%v%s", err, cause)
			}
			if _, pending := r.vm.Exception(); pending {
				t.Errorf("exception left pending after %s", path)
			}
		})
	}
}

func runSource(t *testing.T, src string) error {
	t.Helper()
	s, err := Parse("inline.yaml", []byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return newTestRunner(t).Run(s)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
		line    int
	}{
		{"not a mapping", "- get: [o, 1]\n", "scenario must be a mapping", 1},
		{"unknown field", "name: x\nsetup: []\n", "unknown scenario field \"setup\"", 2},
		{"steps not a list", "steps: {get: 1}\n", "steps must be a list", 1},
		{"unknown operation", "steps:\n  - fetch: [o, 1]\n", "unknown operation \"fetch\"", 2},
		{"no operation", "steps:\n  - expect: 1\n", "step has no operation", 2},
		{"two operations", "steps:\n  - get: [o, 1]\n    has: [o, 1]\n", "more than one operation", 2},
		{"expect and expect_error", "steps:\n  - get: [o, 1]\n    expect: 1\n    expect_error: x\n", "mutually exclusive", 2},
		{"step not a mapping", "steps:\n  - get\n", "step must be a mapping", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.src))
			if err == nil {
				t.Fatalf("expected an error containing %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
			pe, ok := errors.AsProtoshapeError(err)
			if !ok {
				t.Fatalf("expected a positioned error, got %T", err)
			}
			if pe.Kind() != "Syntax" {
				t.Errorf("kind = %s, want Syntax", pe.Kind())
			}
			if pe.Pos().Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Pos().Line, tt.line)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse("broken.yaml", []byte("steps: [\n"))
	pe, ok := errors.AsProtoshapeError(err)
	if !ok || pe.Kind() != "Load" {
		t.Fatalf("expected a load error, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "cannot read scenario") {
		t.Fatalf("expected a read error, got %v", err)
	}
	if le, ok := err.(*errors.LoadError); !ok || !os.IsNotExist(le.Cause) {
		t.Errorf("cause should be a not-exist error, got %#v", err)
	}
}

func TestParseKeepsSource(t *testing.T) {
	s, err := Parse("cases/one.yaml", []byte("name: one\nsteps:\n  - new: {}\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Source.Name != "one.yaml" || s.Source.Line(3) != "  - new: {}" {
		t.Errorf("source = %q, line 3 = %q", s.Source.Name, s.Source.Line(3))
	}
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep("<repl>", `{put: [o, "x", 1], as: ok, expect: true}`)
	if err != nil {
		t.Fatalf("ParseStep failed: %v", err)
	}
	if step.Op != "put" || len(step.Args) != 3 || step.Bind != "ok" || step.Expect == nil {
		t.Errorf("unexpected step: %+v", step)
	}
	if step.String() != "put at <repl>:1:2" {
		t.Errorf("String() = %q", step.String())
	}

	step, err = ParseStep("<repl>", "{keys: o}")
	if err != nil {
		t.Fatalf("ParseStep failed: %v", err)
	}
	if len(step.Args) != 1 || step.Args[0].Value != "o" {
		t.Errorf("a scalar argument should become the only argument, got %+v", step.Args)
	}

	if _, err := ParseStep("<repl>", ""); err == nil {
		t.Error("an empty step should be rejected")
	}
}

func TestRunnerFailures(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
		line    int
	}{
		{
			"expectation mismatch",
			"steps:\n  - new: {x: 1}\n    as: o\n  - get: [o, \"x\"]\n    expect: 2\n",
			"get: expected 2, got 1", 4,
		},
		{
			"string mismatch is quoted",
			"steps:\n  - let: \"a\"\n    expect: \"b\"\n",
			`let: expected "b", got "a"`, 2,
		},
		{
			"inspect mismatch",
			"steps:\n  - array: [1, 2]\n    expect_inspect: \"[1]\"\n",
			"array: expected [1], got [1, 2]", 2,
		},
		{
			"uncaught throw",
			"steps:\n  - new:\n    as: o\n  - get: [o, \"x\"]\n  - invoke: [o, \"missing\"]\n",
			"invoke threw TypeError: missing is not a function", 5,
		},
		{
			"expected error did not happen",
			"steps:\n  - new:\n    expect_error: boom\n",
			"expected an error containing \"boom\", but it succeeded", 2,
		},
		{
			"wrong error",
			"steps:\n  - new: [1]\n    expect_error: \"cyclic\"\n",
			"Object prototype may only be an Object or null", 2,
		},
		{
			"arity",
			"steps:\n  - get: [o]\n",
			"get takes 2 arguments", 2,
		},
		{
			"mapping where a list is expected",
			"steps:\n  - get: {o: 1}\n",
			"get takes a list of arguments, not a mapping", 2,
		},
		{
			"unknown variable",
			"steps:\n  - let: nothingHere\n",
			"unknown variable \"nothingHere\"", 2,
		},
		{
			"unsupported expression",
			"steps:\n  - let: 1 + 2\n",
			"unsupported expression", 2,
		},
		{
			"unparsable literal",
			"steps:\n  - let: \"{\"\n  - let: )(\n",
			"invalid literal", 3,
		},
		{
			"this outside a function",
			"steps:\n  - let: this\n",
			"this is only available inside a function", 2,
		},
		{
			"unknown key listing",
			"steps:\n  - new:\n    as: o\n  - keys: [o, \"everything\"]\n",
			"unknown key listing \"everything\"", 4,
		},
		{
			"function without a name",
			"steps:\n  - function: {returns: 1}\n",
			"function needs a name", 2,
		},
		{
			"unknown function field",
			"steps:\n  - function: {name: f, yields: 1}\n",
			"unknown function field \"yields\"", 2,
		},
		{
			"function side effect arity",
			"steps:\n  - function: {name: f, put: [this, \"x\"]}\n",
			"put takes 3 arguments", 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runSource(t, tt.src)
			if err == nil {
				t.Fatalf("expected an error containing %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
			if pe, ok := errors.AsProtoshapeError(err); !ok {
				t.Errorf("expected a positioned error, got %T", err)
			} else if pe.Pos().Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Pos().Line, tt.line)
			}
		})
	}
}

func TestLiteralValues(t *testing.T) {
	r := newTestRunner(t)
	r.vm.Heap().SetByName("answer", vm.NumberValue(42))

	tests := []struct {
		src     string
		want    string
		wantErr string
	}{
		{src: "1", want: "1"},
		{src: "-1.5", want: "-1.5"},
		{src: `+"3"`, want: "3"},
		{src: "0x10", want: "16"},
		{src: "true", want: "true"},
		{src: "!0", want: "true"},
		{src: "null", want: "null"},
		{src: "undefined", want: "undefined"},
		{src: "NaN", want: "NaN"},
		{src: "-Infinity", want: "-Infinity"},
		{src: "typeof answer", want: "number"},
		{src: "typeof Object", want: "function"},
		{src: "answer", want: "42"},
		{src: `[1, "two", [3]]`, want: `[1, "two", [3]]`},
		{src: "[1, , 3]", want: "[1, 3]"},
		{src: "{a: 1, 'b': {c: null}}", want: "{a: 1, b: {c: null}}"},
		{src: "{a: answer}", want: "{a: 42}"},
		{src: "'plain string'", want: "plain string"},
		{src: `"x".length`, want: "1"},
		{src: "[7, 8][1]", want: "8"},
		{src: "Array.prototype.join.name", want: "join"},
		{src: "globalThis.Object === undefined", wantErr: "unsupported expression"},
		{src: "{get x() { return 1 }}", wantErr: "accessors are not supported"},
		{src: "missing", wantErr: `unknown variable "missing"`},
		{src: "1 2", wantErr: "invalid literal"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: tt.src, Line: 1, Column: 1}
			got, err := r.value(node, nil)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("%s: expected an error containing %q, got %v", tt.src, tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: %v", tt.src, err)
			}
			if got.Inspect() != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got.Inspect(), tt.want)
			}
		})
	}
}

func TestLiteralArrayHoles(t *testing.T) {
	r := newTestRunner(t)
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: "[1, , 3]"}
	v, err := r.value(node, nil)
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	arr := v.AsObject()
	if arr.HasOwnProperty(vm.NewIndexKey(1)) {
		t.Error("a hole should not become an own property")
	}
	n, err := arr.LengthOfArrayLike()
	if err != nil || n != 3 {
		t.Errorf("length = %d, %v; want 3", n, err)
	}
}

func TestQuotedScalarsAreStrings(t *testing.T) {
	r := newTestRunner(t)
	for _, src := range []string{`{let: "1"}`, `{let: '1'}`} {
		step, err := ParseStep("<test>", src)
		if err != nil {
			t.Fatalf("ParseStep(%s) failed: %v", src, err)
		}
		got, err := r.RunStep(step)
		if err != nil {
			t.Fatalf("RunStep(%s) failed: %v", src, err)
		}
		if !got.IsString() || got.AsString() != "1" {
			t.Errorf("%s should produce the string \"1\", got %s", src, got.InspectNested())
		}
	}
}

func TestVariablesSurviveShapeCollection(t *testing.T) {
	if err := runSource(t, ""); err != nil {
		t.Fatalf("empty scenario failed: %v", err)
	}

	r := newTestRunner(t)
	s, err := Parse("gc.yaml", []byte(`
steps:
  - new: {kept: 1}
    as: kept
  - new: {dropped: 1, other: 2}
  - gc:
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := r.Run(s); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	v, ok := r.Variable("kept")
	if !ok || !v.IsObject() {
		t.Fatalf("variable kept was not bound")
	}
	got, err := v.AsObject().Get(vm.NewStringKey("kept"))
	if err != nil || !vm.SameValue(got, vm.NumberValue(1)) {
		t.Errorf("kept.kept = %s, %v; want 1", got.Inspect(), err)
	}
	if _, ok := r.Variable("dropped"); ok {
		t.Error("unbound results should not become variables")
	}
}

func TestHostFunctionThrowsNonError(t *testing.T) {
	r := newTestRunner(t)
	s, err := Parse("throw.yaml", []byte(`
steps:
  - function: {name: f, throws: 7, counter: calls}
    as: f
  - call: [f, null]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	err = r.Run(s)
	if err == nil || !strings.Contains(err.Error(), "call threw Uncaught 7") {
		t.Fatalf("expected the thrown number to surface, got %v", err)
	}
	thrown, ok := vm.AsException(err)
	if !ok || !vm.SameValue(thrown, vm.NumberValue(7)) {
		t.Errorf("cause should carry the thrown value, got %v", thrown.Inspect())
	}
	if _, pending := r.vm.Exception(); pending {
		t.Error("a reported throw should not stay pending")
	}
	if calls, _ := r.Variable("calls"); !vm.SameValue(calls, vm.NumberValue(1)) {
		t.Errorf("calls = %s, want 1", calls.Inspect())
	}
}
