// Package commands implements the scriptcs CLI subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/toddmeinershagen/scriptcs/internal/cli/config"
	"github.com/toddmeinershagen/scriptcs/internal/cli/output"
	"github.com/toddmeinershagen/scriptcs/internal/engine"
	"github.com/toddmeinershagen/scriptcs/internal/goscript"
	"github.com/toddmeinershagen/scriptcs/internal/modules"
	"github.com/toddmeinershagen/scriptcs/internal/starscript"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Loader   *modules.Loader
	Renderer *output.Renderer
}

// NewCommandContext collects config, logger, module loader, and
// renderer for a command invocation. The module directory is scanned
// eagerly so every command sees the same candidate set.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	logger := config.GetLogger(cmd.Context())

	loader := modules.NewLoader(cfg.ModulesDir, modules.WithLogger(logger))
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load module packs: %w", err)
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Loader:   loader,
		Renderer: r,
	}, nil
}

// newCompiler constructs the configured backend capability.
func newCompiler(cfg *config.Config, logger *slog.Logger, out, errOut io.Writer) (engine.Compiler, error) {
	switch cfg.Engine {
	case goscript.Name:
		return goscript.NewCompiler(goscript.Options{
			Stdout: out,
			Stderr: errOut,
			Logger: logger,
		}), nil
	case starscript.Name:
		return starscript.NewCompiler(starscript.Options{
			Print: func(msg string) {
				_, _ = fmt.Fprintln(out, msg)
			},
			Logger: logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (supported: go, starlark)", cfg.Engine)
	}
}

// buildExecutor assembles an executor: base imports and references
// from config, then contributions from module packs matching the
// script extension or an explicitly requested module name.
func (cc *CommandContext) buildExecutor(out, errOut io.Writer, extension, moduleName string, repl bool) (*engine.Executor, []string, error) {
	compiler, err := newCompiler(cc.Cfg, cc.Logger, out, errOut)
	if err != nil {
		return nil, nil, err
	}

	b := engine.NewBuilder().
		WithCompiler(compiler).
		WithLogger(cc.Logger).
		AddReferencePath(cc.Cfg.References...).
		AddImport(cc.Cfg.Imports...)

	activated, err := cc.Loader.Activate(b, extension, moduleName, cc.Cfg.Verbose, repl)
	if err != nil {
		return nil, nil, err
	}

	exec, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return exec, activated, nil
}
