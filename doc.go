// Package exprnode implements the arithmetic behind an expression node in a
// node graph.
//
// The user types text like "a + b*2". The node parses it, finds the variables
// it uses, and exposes one input pin per variable, in order of first use.
// When the text changes, Reconcile maps the old variables onto the new ones so
// that values and wires follow their names: "a + b" edited to "b - a" keeps
// both inputs and swaps their pins, while "a + c" drops b and adds c with a
// value of 0. Text that doesn't parse is kept for further editing but leaves
// the node evaluating the last expression that did.
//
// Expressions are sums, differences, products, and quotients of float64
// numbers and variables, with optional signs and parentheses.
package exprnode
