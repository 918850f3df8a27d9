package engine

import "github.com/google/uuid"

// ScriptContext is the caller-scoped execution context. It carries
// references and imports the caller wants every snippet in the
// context to see, plus a generic state map that engines (this one and
// any others sharing the context) use for their own bookkeeping.
//
// A context and its session are single-threaded: calls against the
// same context must not interleave. Distinct contexts are fully
// independent and may execute concurrently.
type ScriptContext struct {
	// ID uniquely identifies the context.
	ID string

	// References are libraries contributed by the context itself,
	// merged into every Execute call's references.
	References References

	// Imports are import paths contributed by the context.
	Imports []string

	// Items is the generic key/state mapping. The engine stores its
	// session state here under SessionKey; other engines use their
	// own keys.
	Items map[string]any
}

// NewScriptContext returns an empty context with a fresh ID.
func NewScriptContext() *ScriptContext {
	return &ScriptContext{
		ID:    uuid.NewString(),
		Items: make(map[string]any),
	}
}
