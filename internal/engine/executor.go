// Package engine drives a persistent incremental interpreter session
// per script context. Successive snippets extend previously defined
// symbols without re-evaluating earlier ones; references and imports
// accumulate monotonically and only deltas are ever applied.
package engine

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrNilContext is returned by Execute when no script context is
// supplied. It is the only failure Execute reports as a Go error;
// everything user code does wrong comes back inside the Result.
var ErrNilContext = errors.New("script context is required")

// Config holds executor configuration.
type Config struct {
	// Compiler is the backend capability. Required.
	Compiler Compiler

	// ReferencePaths are library paths seeded into every new session.
	ReferencePaths []string

	// Imports are import paths applied to every new session.
	Imports []string

	// PreloadScripts are compiled into every new session after the
	// seed references and imports, in order. Module packs contribute
	// these.
	PreloadScripts []string

	// Logger is the structured logger (optional, discard if nil).
	Logger *slog.Logger
}

// Executor looks up or creates the session behind a script context,
// applies only the incremental reference/import delta, classifies the
// submitted code, and runs its phases in fixed order.
//
// Calls against the same context must not interleave; the executor
// takes no lock around session state. Distinct contexts are
// independent and may execute concurrently.
type Executor struct {
	compiler    Compiler
	baseRefs    References
	baseImports []string
	preload     []string
	logger      *slog.Logger

	mu     sync.Mutex
	active map[string]*ScriptContext
}

// New creates an executor for the given compiler backend.
func New(cfg Config) (*Executor, error) {
	if cfg.Compiler == nil {
		return nil, errors.New("engine: compiler is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		compiler:    cfg.Compiler,
		baseRefs:    NewReferences(cfg.ReferencePaths),
		baseImports: append([]string(nil), cfg.Imports...),
		preload:     append([]string(nil), cfg.PreloadScripts...),
		logger:      logger,
		active:      make(map[string]*ScriptContext),
	}, nil
}

// Compiler returns the backend the executor drives.
func (e *Executor) Compiler() Compiler {
	return e.compiler
}

// ActiveContexts returns the contexts that currently hold a session.
func (e *Executor) ActiveContexts() []*ScriptContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*ScriptContext, 0, len(e.active))
	for _, sc := range e.active {
		out = append(out, sc)
	}
	return out
}

// Execute runs one snippet against the context's session, creating the
// session on first use. Exactly one Result is returned for every call
// with a valid context: compilation and runtime failures from user
// code never escape as Go errors, they come back as an error Result
// and leave the session usable. Already-applied references and
// imports are never rolled back; a later call applies only the
// remaining delta.
func (e *Executor) Execute(code string, args []string, refs References, imports []string, sc *ScriptContext) (Result, error) {
	if sc == nil {
		return Result{}, ErrNilContext
	}

	// Merge context-contributed references and imports into the call's.
	requestedRefs := refs.Union(sc.References)
	requestedImports := mergeImports(imports, sc.Imports)

	st, ok := lookupSession(sc)
	if !ok {
		// NoSession -> SessionActive, exactly once per context. The
		// session is seeded with the executor's base references and
		// imports on top of what this call requested.
		requestedRefs = e.baseRefs.Union(requestedRefs)
		requestedImports = mergeImports(e.baseImports, requestedImports)

		sess, err := e.compiler.NewSession(NewHost(args, e.ActiveContexts))
		if err != nil {
			return ErrorResult(rootCause(err)), nil
		}
		st = newSessionState(sess)
		storeSession(sc, st)
		e.track(sc)
		e.logger.Debug("session created", "context", sc.ID, "backend", e.compiler.Name())
	}

	if res, failed := e.seed(st, requestedRefs, requestedImports); failed {
		return res, nil
	}

	parsed, err := e.compiler.Classify(code)
	if err != nil {
		// The session stays intact; the caller keeps prompting.
		return ErrorResult(err), nil
	}

	// Fixed phase order: declarations, prototypes, bodies, evaluable.
	for _, phase := range [][]string{parsed.Declarations, parsed.Prototypes, parsed.Bodies} {
		for _, unit := range phase {
			if err := st.session.Compile(unit); err != nil {
				return ErrorResult(rootCause(err)), nil
			}
		}
	}

	if parsed.Evaluable == "" {
		return EmptyResult(), nil
	}
	value, produced, err := st.session.Evaluate(parsed.Evaluable)
	if err != nil {
		return ErrorResult(rootCause(err)), nil
	}
	if !produced {
		return EmptyResult(), nil
	}
	return ValueResult(value), nil
}

// ListVariables returns the live top-level variable names of the
// context's session, in the order the backend reports them. A context
// with no session yet has no variables; that is not a failure.
func (e *Executor) ListVariables(sc *ScriptContext) ([]string, error) {
	st, ok := lookupSession(sc)
	if !ok {
		return nil, nil
	}
	dump, err := st.session.VariableDump()
	if err != nil {
		return nil, err
	}
	return splitDump(dump), nil
}

// seed applies the reference and import delta to the session. On
// failure the successfully applied part is kept and the failure is
// returned as an error Result (failed=true).
func (e *Executor) seed(st *sessionState, requestedRefs References, requestedImports []string) (Result, bool) {
	if err := e.applyReferences(st, requestedRefs); err != nil {
		return ErrorResult(rootCause(err)), true
	}
	if err := e.applyImports(st, requestedImports); err != nil {
		return ErrorResult(rootCause(err)), true
	}
	if err := e.applyPreload(st); err != nil {
		return ErrorResult(rootCause(err)), true
	}
	return Result{}, false
}

// applyReferences loads and references exactly the subset of requested
// not already applied: one LoadLibrary per new path, one Reference per
// new handle. Afterwards the applied set is replaced wholesale by the
// union of previous-applied and requested, so contributions from both
// the call and the context are captured.
func (e *Executor) applyReferences(st *sessionState, requested References) error {
	delta := requested.Except(st.refs)
	for _, path := range delta.Paths() {
		lib, err := st.session.LoadLibrary(path)
		if err != nil {
			return err
		}
		if err := st.session.Reference(lib); err != nil {
			return err
		}
		st.refs.addPath(path)
		st.refs.addLibrary(lib)
		e.logger.Debug("library loaded", "path", path, "name", lib.Name())
	}
	for _, lib := range delta.Libraries() {
		if err := st.session.Reference(lib); err != nil {
			return err
		}
		st.refs.addLibrary(lib)
	}
	st.refs = st.refs.Union(requested)
	return nil
}

// applyImports applies the not-yet-imported subset in one batched
// Import call. Already-imported paths are never re-imported.
func (e *Executor) applyImports(st *sessionState, requested []string) error {
	var delta []string
	for _, p := range requested {
		if _, ok := st.imported[p]; !ok {
			delta = append(delta, p)
		}
	}
	if len(delta) == 0 {
		return nil
	}
	if err := st.session.Import(delta); err != nil {
		// Imports the backend accepted before failing stay applied;
		// retrying the whole delta next call is harmless because the
		// backend's import is idempotent.
		return err
	}
	for _, p := range delta {
		st.imported[p] = struct{}{}
	}
	return nil
}

// applyPreload compiles module-contributed scripts into a fresh
// session, once each.
func (e *Executor) applyPreload(st *sessionState) error {
	if st.preloaded {
		return nil
	}
	st.preloaded = true
	for _, src := range e.preload {
		if err := st.session.Compile(src); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) track(sc *ScriptContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[sc.ID] = sc
}

// Release discards the context's session and stops tracking it, so a
// retired context no longer shows up in ActiveContexts. A later
// Execute on the same context starts a fresh session.
func (e *Executor) Release(sc *ScriptContext) {
	if sc == nil {
		return
	}
	e.mu.Lock()
	delete(e.active, sc.ID)
	e.mu.Unlock()
	if sc.Items != nil {
		delete(sc.Items, SessionKey)
	}
}

// splitDump turns a newline-delimited variable dump into names,
// skipping blank lines. An empty or whitespace-only dump yields an
// empty slice, never a single blank entry.
func splitDump(dump string) []string {
	var names []string
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}

// mergeImports concatenates import lists preserving first-seen order
// and dropping duplicates and blanks.
func mergeImports(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
