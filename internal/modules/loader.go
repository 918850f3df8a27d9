package modules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// ManifestName is the file each module pack directory must carry.
const ManifestName = "module.yaml"

// PathResolver resolves a module directory into manifest paths. The
// loader invokes it exactly once per Load with the configured
// directory.
type PathResolver interface {
	Paths(dir string) ([]string, error)
}

// GlobResolver is the default resolver: every immediate subdirectory
// holding a module.yaml.
type GlobResolver struct{}

// Paths scans dir for module manifests. A missing directory yields no
// paths rather than an error.
func (GlobResolver) Paths(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access modules directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*", ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to scan modules directory: %w", err)
	}
	return paths, nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithResolver swaps the path resolver.
func WithResolver(r PathResolver) Option {
	return func(l *Loader) { l.resolver = r }
}

// WithPathHook registers a callback invoked once per resolved path.
func WithPathHook(fn func(path string)) Option {
	return func(l *Loader) { l.onPath = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// Loader scans one module directory and holds the resulting
// candidates.
type Loader struct {
	dir      string
	resolver PathResolver
	onPath   func(path string)
	logger   *slog.Logger

	candidates []Candidate
}

// NewLoader creates a loader for the given module directory.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, resolver: GlobResolver{}}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	return l
}

// Load resolves the module directory and parses every manifest into a
// candidate. Built-in registry modules are appended after the
// directory packs.
func (l *Loader) Load() error {
	paths, err := l.resolver.Paths(l.dir)
	if err != nil {
		return err
	}
	l.candidates = nil
	for _, path := range paths {
		if l.onPath != nil {
			l.onPath(path)
		}
		mod, err := loadPack(path)
		if err != nil {
			return err
		}
		l.candidates = append(l.candidates, Candidate{Module: mod, Meta: mod.Metadata()})
		l.logger.Debug("module discovered", "path", path, "name", mod.Metadata().Name)
	}
	l.candidates = append(l.candidates, Builtins()...)
	return nil
}

// Candidates returns the modules discovered by the last Load.
func (l *Loader) Candidates() []Candidate {
	return l.candidates
}

// Activate initializes every candidate matching the extension token or
// module name, each exactly once, and returns the activated names.
func (l *Loader) Activate(b *engine.Builder, extension, name string, debug, repl bool) ([]string, error) {
	var activated []string
	for _, cand := range l.candidates {
		if !Matches(cand.Meta, extension, name) {
			continue
		}
		if err := cand.Module.Initialize(b, debug, repl); err != nil {
			return activated, fmt.Errorf("initializing module %q: %w", cand.Meta.Name, err)
		}
		activated = append(activated, cand.Meta.Name)
		l.logger.Debug("module activated", "name", cand.Meta.Name)
	}
	return activated, nil
}

// manifest is the on-disk module.yaml shape.
type manifest struct {
	Metadata   `yaml:",inline"`
	Imports    []string `yaml:"imports"`
	References []string `yaml:"references"`
	Scripts    []string `yaml:"scripts"`
}

// ManifestError reports an unreadable or invalid module manifest.
type ManifestError struct {
	Path    string
	Message string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// loadPack parses a module.yaml into a script-pack module.
func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Message: fmt.Sprintf("failed to read manifest: %v", err)}
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestError{Path: path, Message: fmt.Sprintf("invalid manifest: %v", err)}
	}
	return &Pack{dir: filepath.Dir(path), manifest: m}, nil
}

// Pack is a manifest-declared module: on activation it contributes
// the manifest's imports, reference paths (resolved relative to the
// pack directory), and preload scripts to the builder.
type Pack struct {
	dir      string
	manifest manifest
}

// Metadata returns the pack's matching metadata.
func (p *Pack) Metadata() Metadata {
	return p.manifest.Metadata
}

// Initialize contributes the pack's contents to the builder.
func (p *Pack) Initialize(b *engine.Builder, _, _ bool) error {
	for _, imp := range p.manifest.Imports {
		b.AddImport(imp)
	}
	for _, ref := range p.manifest.References {
		b.AddReferencePath(p.resolve(ref))
	}
	for _, script := range p.manifest.Scripts {
		src, err := os.ReadFile(p.resolve(script))
		if err != nil {
			return &ManifestError{Path: p.dir, Message: fmt.Sprintf("failed to read script %s: %v", script, err)}
		}
		b.AddPreloadScript(string(src))
	}
	return nil
}

func (p *Pack) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.dir, path)
}
