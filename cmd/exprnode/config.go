package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// config holds the driver's settings. Later sources override earlier ones:
// defaults, then the YAML file, then the environment, then flags.
type config struct {
	// Text is the initial expression.
	Text string `yaml:"text"`
	// Values gives initial values to variables of the initial expression.
	Values map[string]float64 `yaml:"values"`
	// Format is the fmt verb used to print results.
	Format string `yaml:"format"`
	// Prompt is the interactive prompt.
	Prompt string `yaml:"prompt"`
	// History is the file to keep interactive history in. Empty disables it.
	History string `yaml:"history"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

func defaultConfig() config {
	c := config{
		Text:   "0",
		Format: "%g",
		Prompt: "expr> ",
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.History = filepath.Join(home, ".exprnode_history")
	}
	return c
}

// loadConfig reads the defaults overlaid with a YAML file. An empty path
// gives just the defaults.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, nil
}

// applyEnv overrides settings from EXPRNODE_* environment variables.
func (c *config) applyEnv() {
	c.Format = env.Str("EXPRNODE_FORMAT", c.Format)
	c.Prompt = env.Str("EXPRNODE_PROMPT", c.Prompt)
	c.History = env.Str("EXPRNODE_HISTORY", c.History)
	if env.Has("EXPRNODE_VERBOSE") {
		c.Verbose = env.Bool("EXPRNODE_VERBOSE")
	}
}
