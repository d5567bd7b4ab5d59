package graph_test

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprnode/graph"
)

// exprWith adds an expression node with the given text.
func exprWith(t *testing.T, g *graph.Graph, text string) graph.NodeID {
	t.Helper()
	id := g.AddExpression()
	_, err := g.SetText(id, text)
	require.NoError(t, err)
	return id
}

func out(id graph.NodeID) graph.OutPin {
	return graph.OutPin{Node: id, Output: 0}
}

func in(id graph.NodeID, pin int) graph.InPin {
	return graph.InPin{Node: id, Input: pin}
}

func TestAddNodes(t *testing.T) {
	g := graph.New()
	n := g.AddNumber(1)
	s := g.AddString("x")
	e := g.AddExpression()
	k := g.AddSink()
	assert.Equal(t, graph.Number, g.Kind(n))
	assert.Equal(t, graph.String, g.Kind(s))
	assert.Equal(t, graph.Expression, g.Kind(e))
	assert.Equal(t, graph.Sink, g.Kind(k))
	assert.Equal(t, graph.Kind(0), g.Kind(100))
	assert.Equal(t, 0, g.Inputs(n))
	assert.Equal(t, 1, g.Inputs(e), "new expression has only its text pin")
	assert.Equal(t, 1, g.Inputs(k))
	assert.Equal(t, "0", g.Expression(e).Text())
	assert.Nil(t, g.Expression(n))
	assert.Equal(t, "Kind(9)", graph.Kind(9).String())
}

func TestConnect(t *testing.T) {
	cases := []struct {
		name string
		// build returns the pins to connect.
		build func(g *graph.Graph) (graph.OutPin, graph.InPin)
		err   error
	}{
		{
			name: "number-to-var",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				e := g.AddExpression()
				g.SetText(e, "x")
				return out(g.AddNumber(1)), in(e, 1)
			},
		},
		{
			name: "expr-to-var",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				e := g.AddExpression()
				g.SetText(e, "x")
				return out(g.AddExpression()), in(e, 1)
			},
		},
		{
			name: "string-to-text",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddString("1")), in(g.AddExpression(), 0)
			},
		},
		{
			name: "expr-to-sink",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddExpression()), in(g.AddSink(), 0)
			},
		},
		{
			name: "number-to-text",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddNumber(1)), in(g.AddExpression(), 0)
			},
			err: graph.ErrIncompatible,
		},
		{
			name: "string-to-var",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				e := g.AddExpression()
				g.SetText(e, "x")
				return out(g.AddString("1")), in(e, 1)
			},
			err: graph.ErrIncompatible,
		},
		{
			name: "string-to-sink",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddString("1")), in(g.AddSink(), 0)
			},
			err: graph.ErrIncompatible,
		},
		{
			name: "missing-var",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddNumber(1)), in(g.AddExpression(), 1)
			},
			err: graph.ErrNoPin,
		},
		{
			name: "missing-node",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(50), in(g.AddSink(), 0)
			},
			err: graph.ErrNoPin,
		},
		{
			name: "sink-output",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				return out(g.AddSink()), in(g.AddSink(), 0)
			},
			err: graph.ErrNoPin,
		},
		{
			name: "self",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				e := g.AddExpression()
				g.SetText(e, "x")
				return out(e), in(e, 1)
			},
			err: graph.ErrCycle,
		},
		{
			name: "loop",
			build: func(g *graph.Graph) (graph.OutPin, graph.InPin) {
				a := g.AddExpression()
				g.SetText(a, "x")
				b := g.AddExpression()
				g.SetText(b, "y")
				if err := g.Connect(out(a), in(b, 1)); err != nil {
					panic(err)
				}
				return out(b), in(a, 1)
			},
			err: graph.ErrCycle,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := graph.New()
			from, to := c.build(g)
			err := g.Connect(from, to)
			if c.err != nil {
				require.ErrorIs(t, err, c.err)
				_, ok := g.Remote(to)
				assert.False(t, ok, "failed connect left a wire")
				return
			}
			require.NoError(t, err)
			got, ok := g.Remote(to)
			require.True(t, ok)
			assert.Equal(t, from, got)
		})
	}
}

func TestConnectReplaces(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "x")
	a, b := g.AddNumber(1), g.AddNumber(2)
	require.NoError(t, g.Connect(out(a), in(e, 1)))
	require.NoError(t, g.Connect(out(b), in(e, 1)))
	got, ok := g.Remote(in(e, 1))
	require.True(t, ok)
	assert.Equal(t, out(b), got)
	assert.True(t, g.Disconnect(in(e, 1)))
	assert.False(t, g.Disconnect(in(e, 1)))
}

func TestWiresFollowBindings(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "a + b + c")
	na, nb, nc := g.AddNumber(1), g.AddNumber(2), g.AddNumber(3)
	require.NoError(t, g.Connect(out(na), in(e, 1)))
	require.NoError(t, g.Connect(out(nb), in(e, 2)))
	require.NoError(t, g.Connect(out(nc), in(e, 3)))

	// c moves to binding 0, a stays at 2, b goes away, d is new.
	changed, err := g.SetText(e, "c + d + a")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"c", "d", "a"}, g.Expression(e).Bindings())
	assert.Equal(t, 4, g.Inputs(e))

	from, ok := g.Remote(in(e, 1))
	require.True(t, ok, "c's wire did not move")
	assert.Equal(t, out(nc), from)
	_, ok = g.Remote(in(e, 2))
	assert.False(t, ok, "new binding d is wired")
	from, ok = g.Remote(in(e, 3))
	require.True(t, ok, "a's wire did not move")
	assert.Equal(t, out(na), from)

	v, err := g.Eval(out(e))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestWiresStayPut(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "a + b")
	na := g.AddNumber(5)
	require.NoError(t, g.Connect(out(na), in(e, 1)))

	changed, err := g.SetText(e, "a * c")
	require.NoError(t, err)
	require.True(t, changed)
	from, ok := g.Remote(in(e, 1))
	require.True(t, ok)
	assert.Equal(t, out(na), from)
	_, ok = g.Remote(in(e, 2))
	assert.False(t, ok, "b's replacement inherited a wire")
}

func TestWireSevered(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "x + y")
	ny := g.AddNumber(5)
	require.NoError(t, g.Connect(out(ny), in(e, 2)))
	changed, err := g.SetText(e, "x")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 2, g.Inputs(e))
	_, ok := g.Remote(in(e, 2))
	assert.False(t, ok)

	// Bringing y back does not bring back its wire.
	_, err = g.SetText(e, "x + y")
	require.NoError(t, err)
	_, ok = g.Remote(in(e, 2))
	assert.False(t, ok)
}

func TestInvalidTextKeepsWires(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "x * 2")
	nx := g.AddNumber(3)
	require.NoError(t, g.Connect(out(nx), in(e, 1)))
	for _, text := range []string{"x * 2 +", "x * 2 + (", "x * 2 + (y"} {
		changed, err := g.SetText(e, text)
		require.NoError(t, err)
		assert.False(t, changed, text)
		assert.Error(t, g.Expression(e).Err(), text)
		_, ok := g.Remote(in(e, 1))
		assert.True(t, ok, text)
		v, err := g.Eval(out(e))
		require.NoError(t, err)
		assert.Equal(t, 6.0, v, text)
	}
}

func TestEvalChain(t *testing.T) {
	g := graph.New()
	inner := exprWith(t, g, "a * 2")
	outer := exprWith(t, g, "b + 1")
	n := g.AddNumber(4)
	k := g.AddSink()
	require.NoError(t, g.Connect(out(n), in(inner, 1)))
	require.NoError(t, g.Connect(out(inner), in(outer, 1)))
	require.NoError(t, g.Connect(out(outer), in(k, 0)))

	v, ok, err := g.SinkValue(k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, v)

	require.NoError(t, g.SetNumber(n, 0.5))
	v, _, err = g.SinkValue(k)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, []float64{0.5}, g.Expression(inner).Values(), "wired value not stored")
}

func TestStringDrivesText(t *testing.T) {
	g := graph.New()
	s := g.AddString("x + 1")
	e := g.AddExpression()
	require.NoError(t, g.Connect(out(s), in(e, 0)))

	_, err := g.SetText(e, "2")
	require.ErrorIs(t, err, graph.ErrDriven)

	v, err := g.Eval(out(e))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "x + 1", g.Expression(e).Text())
	assert.Equal(t, 2, g.Inputs(e))

	n := g.AddNumber(10)
	require.NoError(t, g.Connect(out(n), in(e, 1)))
	require.NoError(t, g.SetString(s, "2 * x"))
	v, err = g.Eval(out(e))
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	_, ok := g.Remote(in(e, 1))
	assert.True(t, ok, "x kept its wire across a driven edit")

	require.ErrorIs(t, g.SetString(n, "y"), graph.ErrNoPin)
	require.ErrorIs(t, g.SetNumber(s, 1), graph.ErrNoPin)
}

func TestSetValue(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "x - y")
	require.NoError(t, g.SetValue(e, 0, 5))
	require.NoError(t, g.SetValue(e, 1, 3))
	v, err := g.Eval(out(e))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	require.NoError(t, g.Connect(out(g.AddNumber(1)), in(e, 2)))
	assert.ErrorIs(t, g.SetValue(e, 1, 0), graph.ErrDriven)
	assert.ErrorIs(t, g.SetValue(e, 2, 0), graph.ErrNoPin)
	assert.ErrorIs(t, g.SetValue(g.AddNumber(0), 0, 0), graph.ErrNoPin)
}

func TestSinkValue(t *testing.T) {
	g := graph.New()
	k := g.AddSink()
	_, ok, err := g.SinkValue(k)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Connect(out(exprWith(t, g, "1/0")), in(k, 0)))
	v, ok, err := g.SinkValue(k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	_, _, err = g.SinkValue(g.AddNumber(1))
	assert.ErrorIs(t, err, graph.ErrNoPin)
}

func TestEvalErrors(t *testing.T) {
	g := graph.New()
	_, err := g.Eval(out(g.AddString("1")))
	assert.ErrorIs(t, err, graph.ErrIncompatible)
	_, err = g.Eval(out(g.AddSink()))
	assert.ErrorIs(t, err, graph.ErrNoPin)
	_, err = g.Eval(graph.OutPin{Node: g.AddNumber(1), Output: 1})
	assert.ErrorIs(t, err, graph.ErrNoPin)
}

func TestRemove(t *testing.T) {
	g := graph.New()
	e := exprWith(t, g, "x")
	n := g.AddNumber(1)
	k := g.AddSink()
	require.NoError(t, g.Connect(out(n), in(e, 1)))
	require.NoError(t, g.Connect(out(e), in(k, 0)))
	g.Remove(e)
	assert.Equal(t, graph.Kind(0), g.Kind(e))
	_, ok := g.Remote(in(k, 0))
	assert.False(t, ok)
	_, ok = g.Remote(in(e, 1))
	assert.False(t, ok)
	g.Remove(e)
}

func TestGraphLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g := graph.New(graph.WithLogger(l))
	e := exprWith(t, g, "a + b")
	require.NoError(t, g.Connect(out(g.AddNumber(1)), in(e, 2)))
	_, err := g.SetText(e, "b")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=move")
	assert.Contains(t, buf.String(), "name=b")
	assert.Contains(t, buf.String(), "bindings changed", "expression nodes share the graph logger")
}
