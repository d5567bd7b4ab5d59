package exprnode

import (
	"strconv"
	"strings"
)

// Op is the fate of one binding across a change of expression.
type Op int8

const (
	// Keep means a name persists. Its value moves to the new index.
	Keep Op = iota + 1
	// Drop means a name is gone. Any wire on its pin must be severed.
	Drop
	// Insert means a name is new. Its pin starts unwired with value 0.
	Insert
)

func (op Op) String() string {
	switch op {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	case Insert:
		return "insert"
	default:
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Step describes what happens to one binding.
type Step struct {
	Op   Op
	Name string
	// Old is the binding index before the change, or -1 for Insert.
	Old int
	// New is the binding index after the change, or -1 for Drop.
	New int
	// Value is the carried value for Keep, 0 for Insert, and the discarded
	// value for Drop.
	Value float64
}

// Moved reports whether the step keeps a binding at a different index, so
// that a wire on its pin must move.
func (s Step) Moved() bool {
	return s.Op == Keep && s.Old != s.New
}

func (s Step) String() string {
	switch s.Op {
	case Keep:
		return "keep " + s.Name + " " + strconv.Itoa(s.Old) + "->" + strconv.Itoa(s.New)
	case Drop:
		return "drop " + s.Name + " " + strconv.Itoa(s.Old)
	case Insert:
		return "insert " + s.Name + " " + strconv.Itoa(s.New)
	default:
		return s.Op.String() + " " + s.Name
	}
}

// Patch is the difference between two binding lists. It is a pure description;
// applying it to pins and wires is up to the owner of the graph.
type Patch struct {
	// Steps holds one step per old binding, in old order, followed by one
	// Insert per new name that has no old binding, in new order.
	Steps []Step

	names []string
}

// Reconcile computes the patch that turns the old bindings into the new ones.
// Names that appear in both lists keep their old values. The lists must not
// contain duplicates. Panics if oldNames and oldValues have different lengths.
func Reconcile(oldNames []string, oldValues []float64, newNames []string) Patch {
	if len(oldNames) != len(oldValues) {
		panic("exprnode: reconcile " + strconv.Itoa(len(oldNames)) + " names with " + strconv.Itoa(len(oldValues)) + " values")
	}
	idx := make(map[string]int, len(oldNames))
	p := Patch{
		Steps: make([]Step, len(oldNames), len(oldNames)+len(newNames)),
		names: append([]string(nil), newNames...),
	}
	for i, name := range oldNames {
		idx[name] = i
		p.Steps[i] = Step{Op: Drop, Name: name, Old: i, New: -1, Value: oldValues[i]}
	}
	for j, name := range newNames {
		i, ok := idx[name]
		if !ok {
			p.Steps = append(p.Steps, Step{Op: Insert, Name: name, Old: -1, New: j})
			continue
		}
		p.Steps[i].Op = Keep
		p.Steps[i].New = j
	}
	return p
}

// Names returns the new binding list.
func (p Patch) Names() []string {
	return append([]string(nil), p.names...)
}

// Values returns the new values, aligned with Names.
func (p Patch) Values() []float64 {
	v := make([]float64, len(p.names))
	for _, s := range p.Steps {
		if s.New >= 0 {
			v[s.New] = s.Value
		}
	}
	return v
}

// Moved returns the Keep steps whose index changes.
func (p Patch) Moved() []Step {
	return p.filter(Step.Moved)
}

// Dropped returns the Drop steps.
func (p Patch) Dropped() []Step {
	return p.filter(func(s Step) bool { return s.Op == Drop })
}

// Inserted returns the Insert steps.
func (p Patch) Inserted() []Step {
	return p.filter(func(s Step) bool { return s.Op == Insert })
}

func (p Patch) filter(f func(Step) bool) []Step {
	var r []Step
	for _, s := range p.Steps {
		if f(s) {
			r = append(r, s)
		}
	}
	return r
}

// Identity reports whether applying the patch changes nothing: every binding
// is kept at its own index and none are added.
func (p Patch) Identity() bool {
	if len(p.Steps) != len(p.names) {
		return false
	}
	for _, s := range p.Steps {
		if s.Op != Keep || s.Old != s.New {
			return false
		}
	}
	return true
}

func (p Patch) String() string {
	var b strings.Builder
	for i, s := range p.Steps {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// PinOf returns the pin index of the binding at index i. Pin 0 is the text
// input, so binding i is on pin i+1.
func PinOf(i int) int {
	return i + 1
}

// BindingOf returns the binding index on a pin, or -1 for the text pin.
func BindingOf(pin int) int {
	if pin < 1 {
		return -1
	}
	return pin - 1
}
