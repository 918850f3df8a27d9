package engine

// SessionKey is the reserved key under which the engine stores its
// session state in a ScriptContext's Items map. Other engines sharing
// the same map must use different keys.
const SessionKey = "scriptcs.session"

// sessionState is the per-context record behind SessionKey. It
// exclusively owns its Session handle (created once, mutated in place
// for the context's lifetime), the set of imports already applied,
// and the last-applied reference set. It is never copied.
type sessionState struct {
	session   Session
	refs      References
	imported  map[string]struct{}
	preloaded bool
}

func newSessionState(sess Session) *sessionState {
	return &sessionState{
		session:  sess,
		imported: make(map[string]struct{}),
	}
}

// lookupSession returns the stored session state for the context, if
// one exists.
func lookupSession(sc *ScriptContext) (*sessionState, bool) {
	if sc == nil || sc.Items == nil {
		return nil, false
	}
	st, ok := sc.Items[SessionKey].(*sessionState)
	return st, ok
}

// storeSession records the session state under the reserved key.
func storeSession(sc *ScriptContext, st *sessionState) {
	if sc.Items == nil {
		sc.Items = make(map[string]any)
	}
	sc.Items[SessionKey] = st
}
