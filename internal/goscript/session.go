package goscript

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// hostImport is the synthetic package evaluated code uses to reach the
// host surface (scriptcs.Args(), scriptcs.Contexts()).
const hostImport = "scriptcs"

// Session wraps one persistent yaegi interpreter. Not safe for
// interleaved use; the engine guarantees per-context serialization.
type Session struct {
	interp *interp.Interpreter

	varNames []string
	varSeen  map[string]struct{}
}

// NewSession creates a session with the Go standard library symbols
// and the host bound in.
func (c *Compiler) NewSession(host *engine.Host) (engine.Session, error) {
	i := interp.New(interp.Options{Stdout: c.stdout, Stderr: c.stderr})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := i.Use(hostExports(host)); err != nil {
		return nil, fmt.Errorf("binding host: %w", err)
	}
	s := &Session{interp: i, varSeen: make(map[string]struct{})}
	if _, err := s.eval(fmt.Sprintf("import %q", hostImport)); err != nil {
		return nil, fmt.Errorf("importing host package: %w", err)
	}
	return s, nil
}

// hostExports exposes the host as an importable package inside the
// interpreter.
func hostExports(host *engine.Host) interp.Exports {
	return interp.Exports{
		hostImport + "/" + hostImport: {
			"Args":     reflect.ValueOf(host.Args),
			"Contexts": reflect.ValueOf(host.Contexts),
		},
	}
}

// Compile submits a declaration unit. A body-less function prototype
// is compiled as a panicking stub; the body phase redefines it.
func (s *Session) Compile(unit string) error {
	src, names := prepareDecl(unit)
	if _, err := s.eval(src); err != nil {
		return err
	}
	s.recordVars(names)
	return nil
}

// Evaluate runs the trailing evaluable unit and reports whether it
// produced a value. Assignments and void calls produce none.
func (s *Session) Evaluate(expr string) (any, bool, error) {
	v, err := s.eval(expr)
	if err != nil {
		return nil, false, err
	}
	s.recordVars(assignedNames(expr))
	if !v.IsValid() || !v.CanInterface() {
		return nil, false, nil
	}
	return v.Interface(), true, nil
}

// LoadLibrary reads Go source from a file or directory into a handle.
func (s *Session) LoadLibrary(path string) (engine.Library, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".go")
	return &Library{name: name, source: src}, nil
}

// Reference evaluates a loaded library's source into the session.
func (s *Session) Reference(lib engine.Library) error {
	l, ok := lib.(*Library)
	if !ok {
		return fmt.Errorf("foreign library handle %q", lib.Name())
	}
	_, err := s.eval(l.source)
	return err
}

// Import applies the import paths in one batched compile.
func (s *Session) Import(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("import (\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	b.WriteString(")")
	_, err := s.eval(b.String())
	return err
}

// VariableDump returns the session's variable names in definition
// order, newline-delimited.
func (s *Session) VariableDump() (string, error) {
	return strings.Join(s.varNames, "\n"), nil
}

// eval runs source through the interpreter, converting panics and the
// interpreter's panic wrapper into transportable errors.
func (s *Session) eval(src string) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &engine.WrappedError{Op: "interpreter panic", Cause: fmt.Errorf("%v", r)}
		}
	}()
	v, err = s.interp.Eval(src)
	if err != nil {
		var p interp.Panic
		if errors.As(err, &p) {
			err = &engine.WrappedError{Op: "script panic", Cause: fmt.Errorf("%v", p.Value)}
		}
	}
	return v, err
}

func (s *Session) recordVars(names []string) {
	for _, n := range names {
		if n == "" || n == "_" {
			continue
		}
		if _, ok := s.varSeen[n]; ok {
			continue
		}
		s.varSeen[n] = struct{}{}
		s.varNames = append(s.varNames, n)
	}
}

// prepareDecl rewrites prototypes into panicking stubs and collects
// the variable names a declaration unit introduces.
func prepareDecl(unit string) (string, []string) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "snippet.go", "package scriptcs\n"+unit, 0)
	if err != nil {
		// The engine classified this already; let the interpreter
		// report whatever is wrong.
		return unit, nil
	}
	var names []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Body == nil {
				return unit + fmt.Sprintf(" { panic(%q) }", "not implemented: "+d.Name.Name), nil
			}
		case *ast.GenDecl:
			if d.Tok == token.VAR || d.Tok == token.CONST {
				for _, spec := range d.Specs {
					if vs, ok := spec.(*ast.ValueSpec); ok {
						for _, ident := range vs.Names {
							names = append(names, ident.Name)
						}
					}
				}
			}
		}
	}
	return unit, names
}

// assignedNames extracts the names a statement block defines with :=
// or a var declaration.
func assignedNames(src string) []string {
	fset := token.NewFileSet()
	wrapped := "package scriptcs\nfunc _() {\n" + src + "\n}"
	file, err := parser.ParseFile(fset, "snippet.go", wrapped, 0)
	if err != nil {
		return nil
	}
	var names []string
	ast.Inspect(file, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			if stmt.Tok == token.DEFINE {
				for _, lhs := range stmt.Lhs {
					if ident, ok := lhs.(*ast.Ident); ok {
						names = append(names, ident.Name)
					}
				}
			}
		case *ast.DeclStmt:
			if gd, ok := stmt.Decl.(*ast.GenDecl); ok && gd.Tok == token.VAR {
				for _, spec := range gd.Specs {
					if vs, ok := spec.(*ast.ValueSpec); ok {
						for _, ident := range vs.Names {
							names = append(names, ident.Name)
						}
					}
				}
			}
		}
		return true
	})
	return names
}

// readSource loads Go source from a file, or from every .go file of a
// directory in name order.
func readSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return stripPackageClause(string(data)), nil
	}
	files, err := filepath.Glob(filepath.Join(path, "*.go"))
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	var parts []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, stripPackageClause(string(data)))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no Go source in %s", path)
	}
	return strings.Join(parts, "\n"), nil
}

// stripPackageClause drops a leading package clause so library source
// evaluates into the session's own scope.
func stripPackageClause(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "package ") {
			return strings.Join(lines[i+1:], "\n")
		}
		break
	}
	return src
}

// Library is Go source loaded from disk, evaluated into a session on
// Reference.
type Library struct {
	name   string
	source string
}

// Name identifies the library.
func (l *Library) Name() string {
	return l.name
}
