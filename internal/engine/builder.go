package engine

import "log/slog"

// Builder accumulates executor configuration from the host
// application and from activated module packs, then builds the
// executor. Module initialization receives the builder and
// contributes references, imports, and preload scripts through it.
type Builder struct {
	compiler Compiler
	refPaths []string
	imports  []string
	preload  []string
	logger   *slog.Logger
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithCompiler sets the backend capability.
func (b *Builder) WithCompiler(c Compiler) *Builder {
	b.compiler = c
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// AddReferencePath adds library paths seeded into every new session.
func (b *Builder) AddReferencePath(paths ...string) *Builder {
	b.refPaths = append(b.refPaths, paths...)
	return b
}

// AddImport adds import paths applied to every new session.
func (b *Builder) AddImport(paths ...string) *Builder {
	b.imports = append(b.imports, paths...)
	return b
}

// AddPreloadScript adds script source compiled into every new session
// after the seed references and imports.
func (b *Builder) AddPreloadScript(src string) *Builder {
	if src != "" {
		b.preload = append(b.preload, src)
	}
	return b
}

// Build constructs the executor.
func (b *Builder) Build() (*Executor, error) {
	return New(Config{
		Compiler:       b.compiler,
		ReferencePaths: b.refPaths,
		Imports:        b.imports,
		PreloadScripts: b.preload,
		Logger:         b.logger,
	})
}
