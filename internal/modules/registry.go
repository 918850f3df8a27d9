package modules

import "sync"

var (
	regMu    sync.Mutex
	builtins []Candidate
)

// Register adds a compiled-in module. Built-ins are appended to every
// loader's candidate list after directory packs.
func Register(mod Module) {
	regMu.Lock()
	defer regMu.Unlock()
	builtins = append(builtins, Candidate{Module: mod, Meta: mod.Metadata()})
}

// Builtins returns a copy of the registered compiled-in modules.
func Builtins() []Candidate {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]Candidate, len(builtins))
	copy(out, builtins)
	return out
}
