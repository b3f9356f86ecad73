// Package ui renders live crawl progress to a terminal, falling back to
// plain line-oriented output for pipes and CI. Adapted from the indexing
// progress renderer this project started from, repurposed around a BFS
// crawl's flatter progress model (no fixed pipeline stages, no known total
// up front).
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/coderag/docrag/internal/crawler"
)

// Summary contains final crawl statistics shown on completion.
type Summary struct {
	PagesCrawled     int
	PagesFailed      int
	DocumentsCreated int
	ChunksCreated    int
	Duration         time.Duration
}

// Renderer displays live crawl progress.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Update reflects the crawler's latest progress snapshot.
	Update(p crawler.Progress)

	// Complete marks rendering as complete with a summary.
	Complete(s Summary)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	ProjectDir string
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithProjectDir sets the project directory shown in the header.
func WithProjectDir(dir string) ConfigOption {
	return func(c *Config) { c.ProjectDir = dir }
}

// NewConfig builds a Config from the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks a TUI renderer for interactive terminals and a plain
// renderer for pipes, CI, or when ForcePlain is set.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain {
		return NewPlainRenderer(cfg)
	}
	if !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}
	if DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor reports whether NO_COLOR is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI reports whether the process looks like it's running in CI.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
