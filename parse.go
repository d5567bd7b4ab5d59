package exprnode

import (
	"errors"
	"io"
	"strconv"
	"strings"
)

// Expr = Unary { Binop Unary }
// Unary = [ '+' | '-' ] Atom
// Atom = num | name | '(' Expr ')'
// Binop = '+' | '-' | '*' | '/'

// Expr is a parsed expression. An Expr is immutable and safe to share.
type Expr struct {
	// n is the root node of the expression.
	n *node
}

// Literal returns an expression which evaluates to v.
func Literal(v float64) *Expr {
	return &Expr{n: &node{kind: nodeNum, num: v}}
}

// Parse parses an expression. The entire input must form a single expression.
// Every error resulting from invalid input implements InputError and matches
// ErrSyntax.
func Parse(src io.RuneScanner) (*Expr, error) {
	scan := lex(src)
	n, err := parseterm(scan, exprprec)
	if err != nil {
		return nil, err
	}
	if tok := scan.must(); tok.kind != tokenEOF {
		return nil, itShouldNotHaveEndedThisWay(tok)
	}
	return &Expr{n: n}, nil
}

// ParseString is a shortcut to parse a string expression.
func ParseString(src string) (*Expr, error) {
	return Parse(strings.NewReader(src))
}

// parseterm parses a chain of unary terms joined by operators which bind more
// tightly than until. If there is no error, then parseterm pushes the last
// token it scans, which is an operator, a close bracket, or EOF.
func parseterm(scan *lexer, until operator) (*node, error) {
	n, err := parseunary(scan)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				// Let the caller finish its looser chain first:
				// a*b + c -> (a*b) + c
				scan.push(tok)
				return n, nil
			}
			// a + b*c -> a + (b*c)
			rhs, err := parseterm(scan, prec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenClose, tokenEOF:
			scan.push(tok)
			return n, nil
		case tokenNum, tokenIdent, tokenOpen:
			// There is no implicit multiplication.
			return nil, &TokenError{Col: tok.pos, Token: tok.text, Want: "operator"}
		default:
			panic("exprnode: unknown token: " + tok.String())
		}
	}
}

// parseunary parses an atom with an optional leading sign.
func parseunary(scan *lexer) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOp {
		scan.push(tok)
		return parseatom(scan)
	}
	prec := unop(tok.text)
	if prec.op == nodeNone {
		return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
	}
	n, err := parseatom(scan)
	if err != nil {
		return nil, err
	}
	return &node{kind: prec.op, left: n}, nil
}

// parseatom parses a number, a name, or a parenthesized expression.
func parseatom(scan *lexer) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		v, err := parsenum(tok)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeNum, name: tok.text, num: v}, nil
	case tokenIdent:
		return &node{kind: nodeName, name: tok.text}, nil
	case tokenOpen:
		n, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		if end := scan.must(); end.kind != tokenClose {
			return nil, itShouldNotHaveEndedThisWay(end)
		}
		return n, nil
	case tokenOp:
		// A sign after a sign, e.g. --x.
		return nil, &TokenError{Col: tok.pos, Token: tok.text, Want: "number, name, or ("}
	case tokenClose:
		return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("exprnode: unknown token: " + tok.String())
	}
}

// parsenum converts a number token to its value. Literals too large for a
// float64 become infinities.
func parsenum(tok lexToken) (float64, error) {
	v, err := strconv.ParseFloat(tok.text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, &LexError{Text: tok.text, Kind: "number", Col: tok.pos}
	}
	return v, nil
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression.
func itShouldNotHaveEndedThisWay(tok lexToken) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: "("}
	case tokenClose:
		return &BracketError{Col: tok.pos, Right: tok.text}
	default:
		panic("exprnode: it really should not have ended this way: " + tok.String())
	}
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	return e.n.String()
}

// Equal reports whether two expressions have the same structure. Literals are
// compared by value.
func (e *Expr) Equal(f *Expr) bool {
	if e == nil || f == nil {
		return e == f
	}
	return e.n.equal(f.n)
}

// Bindings returns the variable names used in the expression, without
// duplicates, in the order of their first occurrence reading left to right.
// The result is a new slice on each call.
func (e *Expr) Bindings() []string {
	return e.n.bindings(nil)
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
