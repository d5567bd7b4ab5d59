package exprnode

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. Nodes are never
// modified after the parser returns them.
type node struct {
	kind nodeKind

	// name is the variable name for nodeName and the source text for nodeNum.
	name string
	num  float64

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // push num
	nodeName // push lookup(name)

	nodeNeg // evaluate left, then negate
	nodeNop // evaluate left
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
)

//go:generate stringer -type=nodeKind -trimprefix=node

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, !square)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, !square)
		}
		b.WriteByte('$')
	case nodeNum:
		if n.name != "" {
			b.WriteString(n.name)
		} else {
			b.WriteString(strconv.FormatFloat(n.num, 'g', -1, 64))
		}
	case nodeName:
		b.WriteString(n.name)
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, !square)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, !square)
	case nodeAdd:
		n.left.fmt(b, !square)
		b.WriteString(" + ")
		n.right.fmt(b, !square)
	case nodeSub:
		n.left.fmt(b, !square)
		b.WriteString(" - ")
		n.right.fmt(b, !square)
	case nodeMul:
		n.left.fmt(b, !square)
		b.WriteString(" * ")
		n.right.fmt(b, !square)
	case nodeDiv:
		n.left.fmt(b, !square)
		b.WriteString(" / ")
		n.right.fmt(b, !square)
	default:
		panic("exprnode: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// equal reports whether two trees have the same shape, names, and literal
// values. Literals compare by value, not by source text, so 1 and 1.0 are
// equal.
func (n *node) equal(m *node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.kind != m.kind {
		return false
	}
	switch n.kind {
	case nodeNum:
		// NaN can't be written as a literal, so == is enough.
		return n.num == m.num
	case nodeName:
		return n.name == m.name
	case nodeNeg, nodeNop:
		return n.left.equal(m.left)
	default:
		return n.left.equal(m.left) && n.right.equal(m.right)
	}
}

// bindings appends the variable names in n which are not already in names,
// in depth-first left-to-right order.
func (n *node) bindings(names []string) []string {
	switch n.kind {
	case nodeNum:
		return names
	case nodeName:
		for _, s := range names {
			if s == n.name {
				return names
			}
		}
		return append(names, n.name)
	case nodeNeg, nodeNop:
		return n.left.bindings(names)
	case nodeAdd, nodeSub, nodeMul, nodeDiv:
		names = n.left.bindings(names)
		return n.right.bindings(names)
	default:
		panic("exprnode: invalid AST node " + n.kind.String())
	}
}
