package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/zephyrtronium/exprnode"
	"github.com/zephyrtronium/exprnode/graph"
)

// session drives one expression node in a graph from lines of input.
type session struct {
	g      *graph.Graph
	id     graph.NodeID
	out    io.Writer
	format string
	echo   bool
}

func newSession(cfg config, logger *slog.Logger, out io.Writer) *session {
	g := graph.New(graph.WithLogger(logger))
	s := &session{
		g:      g,
		id:     g.AddExpression(),
		out:    out,
		format: cfg.Format + "\n",
	}
	if _, err := g.SetText(s.id, cfg.Text); err != nil {
		// Only possible if the node is driven, which a fresh one isn't.
		panic(err)
	}
	if err := s.node().Err(); err != nil {
		logger.Warn("initial expression is not valid", slog.String("text", cfg.Text), slog.Any("err", err))
	}
	names := make([]string, 0, len(cfg.Values))
	for name := range cfg.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !s.node().SetValueOf(name, cfg.Values[name]) {
			logger.Warn("config sets a value for an unused variable", slog.String("name", name))
		}
	}
	return s
}

func (s *session) node() *exprnode.Node {
	return s.g.Expression(s.id)
}

const help = `Enter an expression to replace the node's text, or:
  name = value      set a variable (value may be any constant expression)
  :wire name value  feed a variable from a new number node
  :unwire name      remove the wire feeding a variable
  :vars             list the input pins
  :tree             print the parse tree
  :text             print the current text
  :help             show this message
  :quit             exit`

// line handles one line of input. The result is true if the session should
// end.
func (s *session) line(text string) bool {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return false
	case strings.HasPrefix(text, ":"):
		return s.command(strings.Fields(text[1:]))
	case strings.Contains(text, "="):
		name, val, _ := strings.Cut(text, "=")
		s.assign(strings.TrimSpace(name), strings.TrimSpace(val))
		return false
	}
	changed, err := s.g.SetText(s.id, text)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	if err := s.node().Err(); err != nil {
		fmt.Fprintln(s.out, "not yet valid:", err)
		return false
	}
	if changed {
		s.vars()
	}
	s.result()
	return false
}

func (s *session) command(f []string) bool {
	if len(f) == 0 {
		fmt.Fprintln(s.out, help)
		return false
	}
	switch f[0] {
	case "quit", "q", "exit":
		return true
	case "help", "h":
		fmt.Fprintln(s.out, help)
	case "vars":
		s.vars()
	case "tree":
		fmt.Fprintln(s.out, s.node().Expr())
	case "text":
		fmt.Fprintln(s.out, s.node().Text())
	case "wire":
		if len(f) != 3 {
			fmt.Fprintln(s.out, "usage: :wire name value")
			return false
		}
		s.wire(f[1], f[2])
	case "unwire":
		if len(f) != 2 {
			fmt.Fprintln(s.out, "usage: :unwire name")
			return false
		}
		s.unwire(f[1])
	default:
		fmt.Fprintf(s.out, "unknown command :%s (try :help)\n", f[0])
	}
	return false
}

// pin finds the input pin of a variable, printing a message if there is none.
func (s *session) pin(name string) (graph.InPin, bool) {
	i := s.node().Index(name)
	if i < 0 {
		fmt.Fprintf(s.out, "no variable named %s\n", name)
		return graph.InPin{}, false
	}
	return graph.InPin{Node: s.id, Input: exprnode.PinOf(i)}, true
}

func (s *session) assign(name, val string) {
	v, err := exprnode.EvalString(val)
	if err != nil {
		fmt.Fprintf(s.out, "bad value for %s: %v\n", name, err)
		return
	}
	pin, ok := s.pin(name)
	if !ok {
		return
	}
	if err := s.g.SetValue(s.id, exprnode.BindingOf(pin.Input), v); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.result()
}

func (s *session) wire(name, val string) {
	v, err := exprnode.EvalString(val)
	if err != nil {
		fmt.Fprintf(s.out, "bad value for %s: %v\n", name, err)
		return
	}
	pin, ok := s.pin(name)
	if !ok {
		return
	}
	if old, ok := s.g.Remote(pin); ok {
		s.g.Remove(old.Node)
	}
	n := s.g.AddNumber(v)
	if err := s.g.Connect(graph.OutPin{Node: n}, pin); err != nil {
		s.g.Remove(n)
		fmt.Fprintln(s.out, err)
		return
	}
	s.result()
}

func (s *session) unwire(name string) {
	pin, ok := s.pin(name)
	if !ok {
		return
	}
	old, ok := s.g.Remote(pin)
	if !ok {
		fmt.Fprintf(s.out, "%s is not wired\n", name)
		return
	}
	// The number node only exists to feed this pin.
	s.g.Remove(old.Node)
	s.result()
}

// vars prints one line per input pin.
func (s *session) vars() {
	// Evaluate first so that wired values are current.
	s.g.Eval(graph.OutPin{Node: s.id})
	n := s.node()
	if n.Len() == 0 {
		fmt.Fprintln(s.out, "no variables")
		return
	}
	for i, name := range n.Bindings() {
		pin := graph.InPin{Node: s.id, Input: exprnode.PinOf(i)}
		wired := ""
		if _, ok := s.g.Remote(pin); ok {
			wired = " (wired)"
		}
		fmt.Fprintf(s.out, "  pin %d: %s = %g%s\n", pin.Input, name, n.Value(i), wired)
	}
}

func (s *session) result() {
	if s.echo {
		fmt.Fprintf(s.out, "%v : ", s.node().Expr())
	}
	v, err := s.g.Eval(graph.OutPin{Node: s.id})
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	fmt.Fprintf(s.out, s.format, v)
}
