package scenario

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"protoshape/pkg/errors"
	"protoshape/pkg/source"
)

// Scenario is one YAML document: a named list of steps sharing a set of variables.
type Scenario struct {
	Name        string
	Description string
	File        string
	Source      *source.SourceFile
	Steps       []*Step
}

// Step is one operation with its arguments and an optional expectation.
//
// Operation arguments are YAML nodes. A quoted scalar is a string; a plain scalar is
// a JavaScript literal expression (number, boolean, null, undefined, unary minus,
// array or object literal, or a variable name); a sequence is an array and a
// mapping is an object.
type Step struct {
	Op      string
	Args    []*yaml.Node
	Options *yaml.Node // mapping argument, for operations that take named fields

	Bind          string // "as": variable receiving the result
	Expect        *yaml.Node
	ExpectInspect *string
	ExpectError   *string

	Pos errors.Position
}

func (s *Step) String() string {
	return fmt.Sprintf("%s at %s", s.Op, s.Pos)
}

// LoadFile reads and parses a scenario file
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewLoadError(errors.Position{File: path}, "cannot read scenario").CausedBy(err)
	}
	return Parse(path, data)
}

// Parse decodes a scenario document. The file name is only used for positions.
func Parse(file string, data []byte) (*Scenario, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, errors.NewLoadError(errors.Position{File: file}, "invalid YAML").CausedBy(err)
	}
	s := &Scenario{File: file, Source: source.FromFile(file, string(data))}
	if len(root.Content) == 0 {
		return s, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.NewSyntaxError(position(file, doc), "scenario must be a mapping with name and steps")
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "name":
			s.Name = value.Value
		case "description":
			s.Description = value.Value
		case "steps":
			if value.Kind != yaml.SequenceNode {
				return nil, errors.NewSyntaxError(position(file, value), "steps must be a list")
			}
			for _, item := range value.Content {
				step, err := parseStep(file, item)
				if err != nil {
					return nil, err
				}
				s.Steps = append(s.Steps, step)
			}
		default:
			return nil, errors.NewSyntaxError(position(file, key), "unknown scenario field %q", key.Value)
		}
	}
	return s, nil
}

// ParseStep parses a single step written as a YAML mapping, e.g. a flow mapping
// typed at the REPL: {get: [o, "x"], expect: 1}
func ParseStep(file, src string) (*Step, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		return nil, errors.NewSyntaxError(errors.Position{File: file}, "invalid YAML").CausedBy(err)
	}
	if len(root.Content) == 0 {
		return nil, errors.NewSyntaxError(errors.Position{File: file, Line: 1, Column: 1}, "empty step")
	}
	return parseStep(file, root.Content[0])
}

func parseStep(file string, node *yaml.Node) (*Step, error) {
	pos := position(file, node)
	if node.Kind != yaml.MappingNode {
		return nil, errors.NewSyntaxError(pos, "step must be a mapping")
	}
	step := &Step{Pos: pos}
	var ops []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "as":
			step.Bind = value.Value
		case "expect":
			step.Expect = value
		case "expect_inspect":
			text := value.Value
			step.ExpectInspect = &text
		case "expect_error":
			text := value.Value
			step.ExpectError = &text
		default:
			if _, ok := operations[key.Value]; !ok {
				return nil, errors.NewSyntaxError(position(file, key), "unknown operation %q (known: %s)", key.Value, strings.Join(operationNames(), ", "))
			}
			ops = append(ops, key.Value)
			step.Op = key.Value
			step.Pos = position(file, key)
			switch value.Kind {
			case yaml.SequenceNode:
				step.Args = value.Content
			case yaml.MappingNode:
				step.Options = value
			case yaml.AliasNode:
				step.Args = []*yaml.Node{value.Alias}
			default:
				if !isEmptyScalar(value) {
					step.Args = []*yaml.Node{value}
				}
			}
		}
	}
	switch len(ops) {
	case 0:
		return nil, errors.NewSyntaxError(pos, "step has no operation")
	case 1:
	default:
		return nil, errors.NewSyntaxError(pos, "step has more than one operation: %s", strings.Join(ops, ", "))
	}
	if step.Expect != nil && step.ExpectError != nil {
		return nil, errors.NewSyntaxError(pos, "expect and expect_error are mutually exclusive")
	}
	return step, nil
}

func isEmptyScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null" && (n.Value == "" || n.Value == "~")
}

func position(file string, n *yaml.Node) errors.Position {
	return errors.Position{File: file, Line: n.Line, Column: n.Column}
}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
