package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/zephyrtronium/exprnode"
)

func main() {
	log.SetFlags(0)
	var (
		cfgname, verb string
		with          [][2]string
		verbose, echo bool
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&cfgname, "config", "", "YAML configuration file")
	flag.StringVar(&verb, "fmt", "", "result formatting string (default %g)")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.BoolVar(&verbose, "v", false, "log binding changes to stderr")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.Parse()

	cfg, err := loadConfig(cfgname)
	if err != nil {
		log.Fatal(err)
	}
	cfg.applyEnv()
	if verb != "" {
		cfg.Format = verb
	}
	if verbose {
		cfg.Verbose = true
	}
	if flag.NArg() > 0 {
		cfg.Text = strings.Join(flag.Args(), " ")
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s := newSession(cfg, logger, os.Stdout)
	s.echo = echo
	for _, d := range with {
		v, err := exprnode.EvalString(d[1])
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		if !s.node().SetValueOf(d[0], v) {
			log.Fatalf("setting %s: expression has no such variable", d[0])
		}
	}

	if flag.NArg() > 0 {
		// One-shot: evaluate the expression from the command line.
		if err := s.node().Err(); err != nil {
			log.Fatal(err)
		}
		s.result()
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		runPipe(s, os.Stdin)
		return
	}
	runREPL(s, cfg)
}

// runPipe handles non-TTY input, one command or expression per line.
func runPipe(s *session, in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if s.line(sc.Text()) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
}

// runREPL edits the node interactively with line editing and history.
func runREPL(s *session, cfg config) {
	fmt.Println("exprnode (Ctrl+D to exit, :help for commands)")
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if cfg.History != "" {
		if f, err := os.Open(cfg.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt(cfg.Prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(os.Stderr, err)
			}
			fmt.Println()
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if s.line(line) {
			break
		}
	}

	// Persist history (best-effort)
	if cfg.History != "" {
		if f, err := os.Create(cfg.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
}
