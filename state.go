package exprnode

import (
	"log/slog"
	"strconv"
)

// Node is the state of an expression node in a graph: the text the user is
// editing, the last expression that parsed, and one value per variable.
// Bindings and values always have the same length, and the bindings are
// exactly the variables of the expression.
//
// A Node is not safe for concurrent use. Hosts that share one between
// goroutines must serialize all calls.
type Node struct {
	text   string
	expr   *Expr
	names  []string
	values []float64
	err    error
	log    *slog.Logger
}

// NodeOption is an option used when creating a node.
type NodeOption interface {
	nodeOption(*Node)
}

type logopt struct {
	l *slog.Logger
}

func (o logopt) nodeOption(n *Node) {
	if o.l != nil {
		n.log = o.l
	}
}

// WithLogger sets the logger a node uses to report rejected text and binding
// changes, at debug level. The default is slog.Default.
func WithLogger(l *slog.Logger) NodeOption {
	return logopt{l}
}

// NewNode creates a node with the text "0" and no bindings.
func NewNode(opts ...NodeOption) *Node {
	n := Node{
		text: "0",
		expr: Literal(0),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.nodeOption(&n)
		}
	}
	return &n
}

// SetText replaces the node's text. If the new text parses and uses a
// different list of variables than before, the node reconciles its bindings,
// returning the patch and true so that the caller can update pins and wires.
// Otherwise the result is an empty patch and false.
//
// Text that fails to parse is still stored, but the expression, bindings,
// and values stay as they were, and Err reports the parse error.
func (n *Node) SetText(text string) (Patch, bool) {
	if text == n.text {
		return Patch{}, false
	}
	n.text = text
	e, err := ParseString(text)
	if err != nil {
		n.err = err
		n.log.Debug("expression not yet valid", slog.String("text", text), slog.Any("err", err))
		return Patch{}, false
	}
	n.err = nil
	names := e.Bindings()
	if samenames(names, n.names) {
		n.expr = e
		return Patch{}, false
	}
	p := Reconcile(n.names, n.values, names)
	n.expr, n.names, n.values = e, names, p.Values()
	n.log.Debug("bindings changed", slog.String("text", text), slog.String("patch", p.String()))
	return p, true
}

func samenames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Text returns the node's text, which may not be a valid expression.
func (n *Node) Text() string {
	return n.text
}

// Expr returns the last expression that parsed successfully.
func (n *Node) Expr() *Expr {
	return n.expr
}

// Err returns the error from parsing the current text, or nil if the current
// text is the expression returned by Expr.
func (n *Node) Err() error {
	return n.err
}

// Len returns the number of bindings.
func (n *Node) Len() int {
	return len(n.names)
}

// Bindings returns a copy of the variable names, in pin order.
func (n *Node) Bindings() []string {
	return append([]string(nil), n.names...)
}

// Values returns a copy of the values, aligned with Bindings.
func (n *Node) Values() []float64 {
	return append([]float64(nil), n.values...)
}

// Index returns the binding index of a name, or -1 if the expression does not
// use it.
func (n *Node) Index(name string) int {
	for i, s := range n.names {
		if s == name {
			return i
		}
	}
	return -1
}

// Value returns the value of the binding at index i.
func (n *Node) Value(i int) float64 {
	n.check(i)
	return n.values[i]
}

// SetValue sets the value of the binding at index i. Changing a value never
// changes the bindings.
func (n *Node) SetValue(i int, v float64) {
	n.check(i)
	n.values[i] = v
}

// SetValueOf sets the value of the named binding. The result is false if the
// expression does not use the name.
func (n *Node) SetValueOf(name string, v float64) bool {
	i := n.Index(name)
	if i < 0 {
		return false
	}
	n.values[i] = v
	return true
}

func (n *Node) check(i int) {
	if i < 0 || i >= len(n.values) {
		panic("exprnode: binding index " + strconv.Itoa(i) + " out of range with " + strconv.Itoa(len(n.values)) + " bindings")
	}
}

// Eval evaluates the node's expression with its current values.
func (n *Node) Eval() float64 {
	return n.expr.Eval(n.names, n.values)
}
