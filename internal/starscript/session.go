package starscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// Session is one persistent Starlark evaluation state. Globals
// accumulate across chunks; the host surface and referenced libraries
// live in the predeclared environment.
type Session struct {
	thread      *starlark.Thread
	globals     starlark.StringDict
	predeclared starlark.StringDict
}

// NewSession creates a session with the host bound in as the
// "scriptcs" module.
func (c *Compiler) NewSession(host *engine.Host) (engine.Session, error) {
	print := c.print
	thread := &starlark.Thread{
		Name: "scriptcs-session",
		Print: func(_ *starlark.Thread, msg string) {
			if print != nil {
				print(msg)
			}
		},
	}
	return &Session{
		thread:      thread,
		globals:     make(starlark.StringDict),
		predeclared: starlark.StringDict{"scriptcs": hostModule(host)},
	}, nil
}

// hostModule exposes script arguments and the active context IDs.
func hostModule(host *engine.Host) *starlarkstruct.Module {
	args := make([]starlark.Value, 0)
	for _, a := range host.Args() {
		args = append(args, starlark.String(a))
	}
	contexts := starlark.NewBuiltin("contexts", func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
		var ids []starlark.Value
		for _, sc := range host.Contexts() {
			ids = append(ids, starlark.String(sc.ID))
		}
		return starlark.NewList(ids), nil
	})
	return &starlarkstruct.Module{
		Name: "scriptcs",
		Members: starlark.StringDict{
			"args":     starlark.NewList(args),
			"contexts": contexts,
		},
	}
}

// env builds the environment for one chunk: accumulated globals shadow
// the predeclared names.
func (s *Session) env() starlark.StringDict {
	combined := make(starlark.StringDict, len(s.predeclared)+len(s.globals))
	for k, v := range s.predeclared {
		combined[k] = v
	}
	for k, v := range s.globals {
		combined[k] = v
	}
	return combined
}

// Compile executes a chunk and merges its globals into the session.
func (s *Session) Compile(unit string) error {
	globals, err := starlark.ExecFile(s.thread, "<scriptcs>", unit, s.env()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return translate(err)
	}
	for name, value := range globals {
		s.globals[name] = value
	}
	return nil
}

// Evaluate runs the trailing unit. An expression produces its value
// (None counts as no value); a statement block produces nothing.
func (s *Session) Evaluate(expr string) (any, bool, error) {
	if _, err := syntax.ParseExpr("<scriptcs>", expr, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to ParseExprOptions later
		// Not a single expression; run it as statements.
		if err := s.Compile(expr); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	v, err := starlark.Eval(s.thread, "<scriptcs>", expr, s.env()) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return nil, false, translate(err)
	}
	if v == starlark.None {
		return nil, false, nil
	}
	return FromStarlark(v), true, nil
}

// LoadLibrary reads a .star file into a handle.
func (s *Session) LoadLibrary(path string) (engine.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".star")
	return &Library{name: name, source: string(data)}, nil
}

// Reference executes a library and exposes its exports as a module
// named after the file, the same auto-namespacing used for imports.
func (s *Session) Reference(lib engine.Library) error {
	l, ok := lib.(*Library)
	if !ok {
		return fmt.Errorf("foreign library handle %q", lib.Name())
	}
	return s.loadNamespace(l.name, l.source)
}

// Import loads each path as a namespaced .star module.
func (s *Session) Import(paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), ".star")
		if err := s.loadNamespace(name, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// loadNamespace executes source and binds its exports (names not
// starting with _) under the namespace.
func (s *Session) loadNamespace(namespace, source string) error {
	globals, err := starlark.ExecFile(s.thread, namespace+".star", source, s.env()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return translate(err)
	}
	exports := make(starlark.StringDict)
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}
	s.globals[namespace] = &starlarkstruct.Module{Name: namespace, Members: exports}
	return nil
}

// VariableDump returns the session's global names, newline-delimited.
func (s *Session) VariableDump() (string, error) {
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

// translate converts a Starlark evaluation failure into a transport
// wrapper carrying the root message, so the engine surfaces the cause
// rather than a backtrace-laden wrapper.
func translate(err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &engine.WrappedError{Op: "starlark", Cause: errors.New(evalErr.Msg)}
	}
	return err
}

// Library is Starlark source loaded from disk.
type Library struct {
	name   string
	source string
}

// Name identifies the library.
func (l *Library) Name() string {
	return l.name
}
