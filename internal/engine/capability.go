package engine

import "fmt"

// Compiler is the incremental compile/run/evaluate capability the
// executor orchestrates. Implementations wrap a real interpreter
// runtime; tests inject an in-memory fake. A Compiler must tolerate
// concurrent sessions, but an individual Session is single-threaded.
type Compiler interface {
	// Name identifies the backend ("go", "starlark").
	Name() string

	// Classify splits raw source into ordered code-shape buckets.
	// The split is syntactic only; a chunk that cannot be bucketed
	// yields a *ClassifyError.
	Classify(src string) (*ParsedCode, error)

	// NewSession creates a fresh incremental session with the host
	// bound into it. The host is visible to every snippet evaluated
	// in the session for its whole lifetime.
	NewSession(host *Host) (Session, error)
}

// Session is one persistent incremental-compilation state. All
// methods mutate the session in place; callers must not interleave
// calls to the same session from multiple goroutines.
type Session interface {
	// Compile submits a declaration unit (type, prototype, or body)
	// to the session.
	Compile(unit string) error

	// Evaluate runs the trailing evaluable unit. produced is false
	// when the unit was a void statement and no value exists.
	Evaluate(expr string) (value any, produced bool, err error)

	// LoadLibrary loads script source from path into a reusable
	// handle without referencing it into the session.
	LoadLibrary(path string) (Library, error)

	// Reference makes a loaded library's symbols available to later
	// snippets in this session.
	Reference(lib Library) error

	// Import applies the given import paths to the session in one
	// batched synthetic compile.
	Import(paths []string) error

	// VariableDump returns the session's live top-level variable
	// names, newline-delimited.
	VariableDump() (string, error)
}

// ParsedCode is the ordered code-shape split of one submitted snippet:
// declarations first, then prototypes (signatures preceding bodies),
// then bodies, then at most one trailing evaluable unit. Later phases
// may reference symbols from earlier ones, so the order is fixed.
type ParsedCode struct {
	Declarations []string
	Prototypes   []string
	Bodies       []string

	// Evaluable is the trailing expression or statement block, empty
	// when the snippet contains only declarations.
	Evaluable string
}

// Empty reports whether the snippet contributed nothing at all.
func (p *ParsedCode) Empty() bool {
	return len(p.Declarations) == 0 && len(p.Prototypes) == 0 &&
		len(p.Bodies) == 0 && p.Evaluable == ""
}

// ClassifyError reports a snippet that could not be split into code
// shapes. The executor converts it into an error Result rather than
// letting it escape.
type ClassifyError struct {
	Snippet string
	Message string
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("cannot classify snippet: %s", e.Message)
}

// WrappedError transports a failure across an execution boundary
// (a recovered panic, an interpreter's internal wrapper). The
// executor surfaces Cause to the caller, never the wrapper itself.
// Unwrapping is single-level: a WrappedError inside a WrappedError is
// not recursed into.
type WrappedError struct {
	Op    string
	Cause error
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// rootCause strips one transport wrapper, if any.
func rootCause(err error) error {
	if w, ok := err.(*WrappedError); ok && w.Cause != nil {
		return w.Cause
	}
	return err
}
