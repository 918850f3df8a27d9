// Package goscript implements the engine's compiler capability for Go
// snippets, backed by the yaegi interpreter. Each session wraps one
// persistent interpreter, so later snippets extend the types,
// functions, and variables defined by earlier ones.
package goscript

import (
	"io"
	"log/slog"
	"os"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// Name is the backend identifier used in configuration.
const Name = "go"

// Options holds compiler configuration.
type Options struct {
	// Stdout and Stderr receive output from evaluated code
	// (default os.Stdout / os.Stderr).
	Stdout io.Writer
	Stderr io.Writer

	// Logger is the structured logger (optional, discard if nil).
	Logger *slog.Logger
}

// Compiler is the Go-snippet compiler capability.
type Compiler struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// NewCompiler creates a Go-snippet compiler.
func NewCompiler(opts Options) *Compiler {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{stdout: stdout, stderr: stderr, logger: logger}
}

// Name identifies the backend.
func (c *Compiler) Name() string {
	return Name
}

// Classify splits a Go snippet into code-shape buckets.
func (c *Compiler) Classify(src string) (*engine.ParsedCode, error) {
	return classify(src)
}
