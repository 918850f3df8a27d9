package engine

// Host is the surface exposed to evaluated code. It is constructed
// once per session and bound into the session at creation, so every
// later snippet reads the same host. Binding it per session (rather
// than through a process-wide global) keeps concurrent session
// creation safe.
type Host struct {
	args     []string
	contexts func() []*ScriptContext
}

// NewHost builds a host surface from script arguments and a live view
// of the executor's contexts.
func NewHost(args []string, contexts func() []*ScriptContext) *Host {
	return &Host{args: args, contexts: contexts}
}

// Args returns the script arguments the session was created with, in
// order.
func (h *Host) Args() []string {
	out := make([]string, len(h.args))
	copy(out, h.args)
	return out
}

// Contexts returns the script contexts currently active on the owning
// executor.
func (h *Host) Contexts() []*ScriptContext {
	if h.contexts == nil {
		return nil
	}
	return h.contexts()
}
