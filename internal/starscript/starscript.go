// Package starscript implements the engine's compiler capability for
// Starlark snippets on go.starlark.net. A session accumulates the
// globals of every executed chunk, so later snippets see the
// functions and values defined by earlier ones.
package starscript

import (
	"log/slog"
	"strings"

	"go.starlark.net/syntax"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// Name is the backend identifier used in configuration.
const Name = "starlark"

// Options holds compiler configuration.
type Options struct {
	// Print receives output from Starlark print() calls (default:
	// dropped).
	Print func(msg string)

	// Logger is the structured logger (optional, discard if nil).
	Logger *slog.Logger
}

// Compiler is the Starlark-snippet compiler capability.
type Compiler struct {
	print  func(string)
	logger *slog.Logger
}

// NewCompiler creates a Starlark-snippet compiler.
func NewCompiler(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{print: opts.Print, logger: logger}
}

// Name identifies the backend.
func (c *Compiler) Name() string {
	return Name
}

// Classify splits a Starlark snippet into code-shape buckets: def
// statements become bodies, assignments and loads become
// declarations, and the remaining statements form the trailing
// evaluable unit in original order. Starlark has no separate
// signature declarations, so the prototype bucket stays empty.
func (c *Compiler) Classify(src string) (*engine.ParsedCode, error) {
	parsed := &engine.ParsedCode{}
	if strings.TrimSpace(src) == "" {
		return parsed, nil
	}

	f, err := syntax.Parse("<scriptcs>", src, 0) //nolint:staticcheck // SA1019: will migrate to ParseOptions later
	if err != nil {
		return nil, &engine.ClassifyError{Snippet: src, Message: err.Error()}
	}

	lines := strings.Split(src, "\n")
	slice := func(stmt syntax.Stmt) string {
		start, end := stmt.Span()
		if start.Line < 1 || int(end.Line) > len(lines) {
			return ""
		}
		return strings.TrimRight(strings.Join(lines[start.Line-1:end.Line], "\n"), "\n")
	}

	var evalParts []string
	for _, stmt := range f.Stmts {
		text := slice(stmt)
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch stmt.(type) {
		case *syntax.DefStmt:
			parsed.Bodies = append(parsed.Bodies, text)
		case *syntax.AssignStmt, *syntax.LoadStmt:
			parsed.Declarations = append(parsed.Declarations, text)
		default:
			evalParts = append(evalParts, text)
		}
	}
	if len(evalParts) > 0 {
		parsed.Evaluable = strings.Join(evalParts, "\n")
	}
	return parsed, nil
}
