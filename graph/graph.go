// Package graph is a small in-memory node graph built around expression
// nodes. It owns the pins and wires that exprnode.Patch describes: when an
// expression's variables change, wires follow their names to new pins or are
// severed with the pins that disappear.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/zephyrtronium/exprnode"
)

var (
	// ErrNoPin is returned for a node or pin that does not exist.
	ErrNoPin = errors.New("graph: no such pin")
	// ErrIncompatible is returned when a wire would join pins of different
	// types.
	ErrIncompatible = errors.New("graph: incompatible pins")
	// ErrCycle is returned when a wire would make a node depend on itself.
	ErrCycle = errors.New("graph: connection would create a cycle")
	// ErrDriven is returned when editing an input that a wire supplies.
	ErrDriven = errors.New("graph: input is driven by a wire")
)

// Kind is the kind of a graph node.
type Kind int8

const (
	// Number has one number output and no inputs.
	Number Kind = iota + 1
	// String has one text output and no inputs.
	String
	// Expression has a text input on pin 0, one number input per variable on
	// pins 1 and up, and one number output.
	Expression
	// Sink has one number input and no outputs.
	Sink
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "Number"
	case String:
		return "String"
	case Expression:
		return "Expression"
	case Sink:
		return "Sink"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// NodeID identifies a node in a graph.
type NodeID int

// InPin identifies an input pin.
type InPin struct {
	Node  NodeID
	Input int
}

// OutPin identifies an output pin.
type OutPin struct {
	Node   NodeID
	Output int
}

type entry struct {
	kind Kind
	num  float64
	str  string
	expr *exprnode.Node
}

// inputs returns the number of input pins on the node.
func (e *entry) inputs() int {
	switch e.kind {
	case Expression:
		return 1 + e.expr.Len()
	case Sink:
		return 1
	default:
		return 0
	}
}

// outputs returns the number of output pins on the node.
func (e *entry) outputs() int {
	if e.kind == Sink {
		return 0
	}
	return 1
}

// Graph is a set of nodes and the wires between them. Each input pin has at
// most one wire. A Graph is not safe for concurrent use.
type Graph struct {
	nodes map[NodeID]*entry
	wires map[InPin]OutPin
	next  NodeID
	log   *slog.Logger
}

// Option is an option used when creating a graph.
type Option interface {
	graphOption(*Graph)
}

type logopt struct {
	l *slog.Logger
}

func (o logopt) graphOption(g *Graph) {
	if o.l != nil {
		g.log = o.l
	}
}

// WithLogger sets the logger for the graph and the expression nodes it
// creates. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return logopt{l}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := Graph{
		nodes: make(map[NodeID]*entry),
		wires: make(map[InPin]OutPin),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.graphOption(&g)
		}
	}
	return &g
}

func (g *Graph) add(e *entry) NodeID {
	g.next++
	g.nodes[g.next] = e
	g.log.Debug("add node", slog.Int("node", int(g.next)), slog.String("kind", e.kind.String()))
	return g.next
}

// AddNumber adds a number node with an initial value.
func (g *Graph) AddNumber(v float64) NodeID {
	return g.add(&entry{kind: Number, num: v})
}

// AddString adds a string node with initial text.
func (g *Graph) AddString(s string) NodeID {
	return g.add(&entry{kind: String, str: s})
}

// AddExpression adds an expression node with the text "0".
func (g *Graph) AddExpression() NodeID {
	return g.add(&entry{kind: Expression, expr: exprnode.NewNode(exprnode.WithLogger(g.log))})
}

// AddSink adds a sink node.
func (g *Graph) AddSink() NodeID {
	return g.add(&entry{kind: Sink})
}

// Kind returns the kind of a node, or 0 if there is no such node.
func (g *Graph) Kind(id NodeID) Kind {
	if e := g.nodes[id]; e != nil {
		return e.kind
	}
	return 0
}

// Expression returns the state of an expression node, or nil if id is not an
// expression node. Changing the returned node's text directly bypasses wire
// updates; use SetText instead.
func (g *Graph) Expression(id NodeID) *exprnode.Node {
	if e := g.nodes[id]; e != nil {
		return e.expr
	}
	return nil
}

// Inputs returns the number of input pins on a node.
func (g *Graph) Inputs(id NodeID) int {
	if e := g.nodes[id]; e != nil {
		return e.inputs()
	}
	return 0
}

// Remove deletes a node and every wire attached to it.
func (g *Graph) Remove(id NodeID) {
	if g.nodes[id] == nil {
		return
	}
	delete(g.nodes, id)
	for to, from := range g.wires {
		if to.Node == id || from.Node == id {
			delete(g.wires, to)
		}
	}
	g.log.Debug("remove node", slog.Int("node", int(id)))
}

// Connect wires an output to an input, replacing any wire already on the
// input. Text outputs may only feed the text pin of an expression, and number
// outputs only its variable pins or a sink.
func (g *Graph) Connect(from OutPin, to InPin) error {
	src := g.nodes[from.Node]
	if src == nil || from.Output < 0 || from.Output >= src.outputs() {
		return fmt.Errorf("connecting output %v: %w", from, ErrNoPin)
	}
	dst := g.nodes[to.Node]
	if dst == nil || to.Input < 0 || to.Input >= dst.inputs() {
		return fmt.Errorf("connecting input %v: %w", to, ErrNoPin)
	}
	if !compatible(src.kind, dst.kind, to.Input) {
		return fmt.Errorf("connecting %v output to %v input %d: %w", src.kind, dst.kind, to.Input, ErrIncompatible)
	}
	if g.reaches(from.Node, to.Node) {
		return fmt.Errorf("connecting node %d to node %d: %w", from.Node, to.Node, ErrCycle)
	}
	g.wires[to] = from
	g.log.Debug("connect", slog.Any("from", from), slog.Any("to", to))
	return nil
}

func compatible(src, dst Kind, input int) bool {
	switch dst {
	case Expression:
		if input == 0 {
			return src == String
		}
		return src == Number || src == Expression
	case Sink:
		return src == Number || src == Expression
	default:
		return false
	}
}

// reaches reports whether the output of node from depends on node to, or is
// node to.
func (g *Graph) reaches(from, to NodeID) bool {
	seen := map[NodeID]bool{}
	stack := []NodeID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		for in, out := range g.wires {
			if in.Node == id {
				stack = append(stack, out.Node)
			}
		}
	}
	return false
}

// Disconnect removes the wire on an input. The result is false if there was
// none.
func (g *Graph) Disconnect(to InPin) bool {
	if _, ok := g.wires[to]; !ok {
		return false
	}
	delete(g.wires, to)
	g.log.Debug("disconnect", slog.Any("to", to))
	return true
}

// Remote returns the output wired to an input.
func (g *Graph) Remote(to InPin) (OutPin, bool) {
	from, ok := g.wires[to]
	return from, ok
}

// SetNumber sets the value of a number node.
func (g *Graph) SetNumber(id NodeID, v float64) error {
	e := g.nodes[id]
	if e == nil || e.kind != Number {
		return fmt.Errorf("setting number on node %d: %w", id, ErrNoPin)
	}
	e.num = v
	return nil
}

// SetString sets the text of a string node. Expressions it feeds pick up the
// new text when they are next evaluated.
func (g *Graph) SetString(id NodeID, s string) error {
	e := g.nodes[id]
	if e == nil || e.kind != String {
		return fmt.Errorf("setting string on node %d: %w", id, ErrNoPin)
	}
	e.str = s
	return nil
}

// SetText edits the text of an expression node and updates its pins and
// wires. The result reports whether the node's variables changed. It is an
// error to edit text that a string node supplies.
func (g *Graph) SetText(id NodeID, text string) (bool, error) {
	e := g.nodes[id]
	if e == nil || e.kind != Expression {
		return false, fmt.Errorf("setting text on node %d: %w", id, ErrNoPin)
	}
	if _, ok := g.wires[InPin{id, 0}]; ok {
		return false, fmt.Errorf("setting text on node %d: %w", id, ErrDriven)
	}
	return g.settext(id, e, text), nil
}

func (g *Graph) settext(id NodeID, e *entry, text string) bool {
	p, changed := e.expr.SetText(text)
	if changed {
		g.apply(id, p)
	}
	return changed
}

// apply moves and severs wires on an expression node's variable pins to match
// a patch. Moved wires are not revalidated: they connect the same two nodes as
// before.
func (g *Graph) apply(id NodeID, p exprnode.Patch) {
	lifted := make(map[int]OutPin)
	for _, s := range p.Steps {
		switch {
		case s.Op == exprnode.Insert:
			continue
		case s.Op == exprnode.Keep && !s.Moved():
			// Unmoved wires stay put.
			continue
		}
		pin := InPin{id, exprnode.PinOf(s.Old)}
		if from, ok := g.wires[pin]; ok {
			delete(g.wires, pin)
			lifted[s.Old] = from
			if s.Op == exprnode.Drop {
				g.log.Debug("sever", slog.String("name", s.Name), slog.Any("from", from), slog.Any("to", pin))
			}
		}
	}
	// Place moved wires only after lifting all of them, so that a wire moving
	// onto a pin another wire is leaving doesn't get clobbered.
	for _, s := range p.Moved() {
		from, ok := lifted[s.Old]
		if !ok {
			continue
		}
		pin := InPin{id, exprnode.PinOf(s.New)}
		g.wires[pin] = from
		g.log.Debug("move", slog.String("name", s.Name), slog.Any("from", from), slog.Int("pin", pin.Input))
	}
}

// SetValue sets the value of an expression node's variable by binding index.
// It is an error to set a value that a wire supplies.
func (g *Graph) SetValue(id NodeID, binding int, v float64) error {
	e := g.nodes[id]
	if e == nil || e.kind != Expression || binding < 0 || binding >= e.expr.Len() {
		return fmt.Errorf("setting binding %d on node %d: %w", binding, id, ErrNoPin)
	}
	if _, ok := g.wires[InPin{id, exprnode.PinOf(binding)}]; ok {
		return fmt.Errorf("setting binding %d on node %d: %w", binding, id, ErrDriven)
	}
	e.expr.SetValue(binding, v)
	return nil
}

// Eval computes the value of a number output. Wired inputs are evaluated
// first: a string node wired to an expression's text pin replaces its text,
// and number outputs wired to variable pins replace their values.
func (g *Graph) Eval(out OutPin) (float64, error) {
	e := g.nodes[out.Node]
	if e == nil || out.Output < 0 || out.Output >= e.outputs() {
		return 0, fmt.Errorf("evaluating %v: %w", out, ErrNoPin)
	}
	return g.eval(out.Node, e)
}

func (g *Graph) eval(id NodeID, e *entry) (float64, error) {
	switch e.kind {
	case Number:
		return e.num, nil
	case Expression:
		if from, ok := g.wires[InPin{id, 0}]; ok {
			g.settext(id, e, g.nodes[from.Node].str)
		}
		for i := 0; i < e.expr.Len(); i++ {
			from, ok := g.wires[InPin{id, exprnode.PinOf(i)}]
			if !ok {
				continue
			}
			v, err := g.eval(from.Node, g.nodes[from.Node])
			if err != nil {
				return 0, err
			}
			e.expr.SetValue(i, v)
		}
		return e.expr.Eval(), nil
	default:
		return 0, fmt.Errorf("evaluating %v node %d: %w", e.kind, id, ErrIncompatible)
	}
}

// SinkValue evaluates the output wired to a sink. The second result is false
// if the sink has no wire.
func (g *Graph) SinkValue(id NodeID) (float64, bool, error) {
	e := g.nodes[id]
	if e == nil || e.kind != Sink {
		return 0, false, fmt.Errorf("reading sink %d: %w", id, ErrNoPin)
	}
	from, ok := g.wires[InPin{id, 0}]
	if !ok {
		return 0, false, nil
	}
	v, err := g.Eval(from)
	return v, true, err
}
