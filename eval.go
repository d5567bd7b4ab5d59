package exprnode

import (
	"strconv"
)

// Eval evaluates the expression with values[i] bound to the variable named
// bindings[i]. Arithmetic follows IEEE-754, so e.g. 1/0 is +Inf and 0/0 is
// NaN.
//
// Eval panics if bindings and values have different lengths or if the
// expression uses a name missing from bindings. Either means the caller has
// lost track of its bindings; substituting a value would hide that.
func (e *Expr) Eval(bindings []string, values []float64) float64 {
	if len(bindings) != len(values) {
		panic("exprnode: " + strconv.Itoa(len(bindings)) + " bindings but " + strconv.Itoa(len(values)) + " values")
	}
	return e.n.eval(bindings, values)
}

// eval computes the value of the node.
func (n *node) eval(bindings []string, values []float64) float64 {
	switch n.kind {
	case nodeNum:
		return n.num
	case nodeName:
		for i, name := range bindings {
			if name == n.name {
				return values[i]
			}
		}
		panic("exprnode: unbound variable " + strconv.Quote(n.name) + " (bindings out of sync with expression?)")
	case nodeNeg:
		return -n.left.eval(bindings, values)
	case nodeNop:
		return n.left.eval(bindings, values)
	case nodeAdd:
		return n.left.eval(bindings, values) + n.right.eval(bindings, values)
	case nodeSub:
		return n.left.eval(bindings, values) - n.right.eval(bindings, values)
	case nodeMul:
		return n.left.eval(bindings, values) * n.right.eval(bindings, values)
	case nodeDiv:
		return n.left.eval(bindings, values) / n.right.eval(bindings, values)
	default:
		panic("exprnode: invalid AST node " + n.kind.String())
	}
}

// EvalString is a shortcut to parse and evaluate an expression with no
// variables. It returns an error if the expression fails to parse or uses
// any variable.
func EvalString(src string) (float64, error) {
	e, err := ParseString(src)
	if err != nil {
		return 0, err
	}
	if names := e.Bindings(); len(names) != 0 {
		return 0, &NameError{Name: names[0]}
	}
	return e.Eval(nil, nil), nil
}

// NameError is an error from evaluating a variable with no value, where the
// caller asked for an error instead of a panic.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
