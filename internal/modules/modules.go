// Package modules discovers and activates module packs: directories
// carrying a module.yaml manifest that contribute references, imports,
// and preload scripts to the engine builder. Discovery goes through a
// narrow path-resolver contract so hosts can swap the scanning
// strategy.
package modules

import (
	"strings"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// Metadata describes a module for matching. An empty field never
// matches on that field.
type Metadata struct {
	// Name is the module's exact-match activation name.
	Name string `yaml:"name"`

	// Extensions is a comma-separated list of script extension tokens
	// the module serves (e.g. "go,star").
	Extensions string `yaml:"extensions"`
}

// ExtensionList returns the trimmed, non-empty extension tokens.
func (m Metadata) ExtensionList() []string {
	if m.Extensions == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(m.Extensions, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Module is an activatable unit. Initialize runs exactly once per
// matched module per load.
type Module interface {
	Metadata() Metadata
	Initialize(b *engine.Builder, debug, repl bool) error
}

// Candidate pairs a module with its metadata.
type Candidate struct {
	Module Module
	Meta   Metadata
}

// Matches reports whether a module activates for the requested
// extension token or module name: the extension list contains the
// token, or the name matches exactly. Empty metadata fields and empty
// request fields never match.
func Matches(meta Metadata, extension, name string) bool {
	if extension != "" {
		for _, tok := range meta.ExtensionList() {
			if tok == extension {
				return true
			}
		}
	}
	if name != "" && meta.Name != "" && meta.Name == name {
		return true
	}
	return false
}
