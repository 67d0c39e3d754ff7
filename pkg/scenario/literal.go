package scenario

import (
	"fmt"
	"math"

	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/parser"
	"github.com/robertkrimen/otto/token"
	"gopkg.in/yaml.v3"

	"protoshape/pkg/errors"
	"protoshape/pkg/vm"
)

// scope carries the receiver of a host function call while its fields are evaluated
type scope struct {
	this vm.Value
}

func isQuoted(n *yaml.Node) bool {
	return n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0
}

// value converts an argument node into a script value
func (r *Runner) value(n *yaml.Node, sc *scope) (vm.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return r.value(n.Alias, sc)
	case yaml.SequenceNode:
		values := make([]vm.Value, len(n.Content))
		for i, item := range n.Content {
			v, err := r.value(item, sc)
			if err != nil {
				return vm.Undefined, err
			}
			values[i] = v
		}
		return vm.ObjectValue(r.realm.NewArray(values...)), nil
	case yaml.MappingNode:
		o := r.realm.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := r.value(n.Content[i+1], sc)
			if err != nil {
				return vm.Undefined, err
			}
			if _, err := o.CreateDataProperty(vm.NewStringKey(n.Content[i].Value), v); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	}

	if isQuoted(n) {
		return vm.NewString(n.Value), nil
	}
	if isEmptyScalar(n) {
		return vm.Undefined, nil
	}
	expr, err := parseExpression(n.Value)
	if err != nil {
		return vm.Undefined, errors.NewSyntaxError(r.position(n), "invalid literal %q", n.Value).CausedBy(err)
	}
	v, err := r.eval(expr, sc)
	if err != nil {
		if _, thrown := vm.AsException(err); thrown {
			return vm.Undefined, err
		}
		return vm.Undefined, errors.NewSyntaxError(r.position(n), "%s", err.Error())
	}
	return v, nil
}

// parseExpression parses src as a single JavaScript expression
func parseExpression(src string) (ast.Expression, error) {
	// parenthesized so that "{...}" is an object literal rather than a block
	program, err := parser.ParseFile(nil, "", "("+src+")", 0)
	if err != nil {
		return nil, err
	}
	if len(program.Body) != 1 {
		return nil, fmt.Errorf("expected one expression, got %d statements", len(program.Body))
	}
	stmt, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, fmt.Errorf("expected an expression")
	}
	return stmt.Expression, nil
}

func (r *Runner) eval(expr ast.Expression, sc *scope) (vm.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		switch n := e.Value.(type) {
		case int64:
			return vm.NumberValue(float64(n)), nil
		case float64:
			return vm.NumberValue(n), nil
		default:
			return vm.Undefined, fmt.Errorf("invalid number literal %s", e.Literal)
		}
	case *ast.StringLiteral:
		return vm.NewString(e.Value), nil
	case *ast.BooleanLiteral:
		return vm.BooleanValue(e.Value), nil
	case *ast.NullLiteral:
		return vm.Null, nil
	case *ast.ThisExpression:
		if sc == nil {
			return vm.Undefined, fmt.Errorf("this is only available inside a function")
		}
		return sc.this, nil
	case *ast.Identifier:
		return r.lookup(e.Name)
	case *ast.DotExpression:
		return r.member(e.Left, vm.NewString(e.Identifier.Name), sc)
	case *ast.BracketExpression:
		k, err := r.eval(e.Member, sc)
		if err != nil {
			return vm.Undefined, err
		}
		return r.member(e.Left, k, sc)
	case *ast.UnaryExpression:
		operand, err := r.eval(e.Operand, sc)
		if err != nil {
			return vm.Undefined, err
		}
		switch e.Operator {
		case token.MINUS, token.PLUS:
			n, err := r.vm.ToNumber(operand)
			if err != nil {
				return vm.Undefined, err
			}
			if e.Operator == token.MINUS {
				n = -n
			}
			return vm.NumberValue(n), nil
		case token.NOT:
			return vm.BooleanValue(!operand.IsTruthy()), nil
		case token.TYPEOF:
			return vm.NewString(operand.TypeName()), nil
		}
		return vm.Undefined, fmt.Errorf("unsupported operator %s", e.Operator)
	case *ast.ArrayLiteral:
		arr := r.realm.NewArray()
		for i, item := range e.Value {
			if item == nil {
				continue // hole
			}
			v, err := r.eval(item, sc)
			if err != nil {
				return vm.Undefined, err
			}
			if _, err := arr.CreateDataProperty(vm.NewIndexKey(uint32(i)), v); err != nil {
				return vm.Undefined, err
			}
		}
		if _, err := arr.Set(vm.NewStringKey("length"), vm.NumberValue(float64(len(e.Value))), true); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	case *ast.ObjectLiteral:
		o := r.realm.NewObject()
		for _, prop := range e.Value {
			if prop.Kind != "value" && prop.Kind != "init" {
				return vm.Undefined, fmt.Errorf("%s accessors are not supported in literals, use define", prop.Kind)
			}
			v, err := r.eval(prop.Value, sc)
			if err != nil {
				return vm.Undefined, err
			}
			if _, err := o.CreateDataProperty(vm.NewStringKey(prop.Key), v); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	default:
		return vm.Undefined, fmt.Errorf("unsupported expression %T", expr)
	}
}

// member reads left[k] with a full [[Get]], so getters run
func (r *Runner) member(left ast.Expression, k vm.Value, sc *scope) (vm.Value, error) {
	base, err := r.eval(left, sc)
	if err != nil {
		return vm.Undefined, err
	}
	o, err := r.vm.ToObject(base)
	if err != nil {
		return vm.Undefined, err
	}
	key, err := r.vm.ToPropertyKey(k)
	if err != nil {
		return vm.Undefined, err
	}
	return o.Get(key)
}

// lookup resolves a name: the value constants, then scenario variables, then globals
func (r *Runner) lookup(name string) (vm.Value, error) {
	switch name {
	case "undefined":
		return vm.Undefined, nil
	case "NaN":
		return vm.NaN, nil
	case "Infinity":
		return vm.NumberValue(math.Inf(1)), nil
	}
	if v, ok := r.vm.Heap().GetByName(name); ok {
		return v, nil
	}
	key := vm.NewStringKey(name)
	if r.realm.GlobalObject.HasProperty(key) {
		return r.realm.GlobalObject.Get(key)
	}
	return vm.Undefined, fmt.Errorf("unknown variable %q", name)
}

func (r *Runner) position(n *yaml.Node) errors.Position {
	return position(r.file, n)
}
