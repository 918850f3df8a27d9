package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// RunOptions holds flags for the run command. Files are the script
// paths before a "--" separator; ScriptArgs is everything after it,
// exposed to scripts through the host.
type RunOptions struct {
	Isolate    bool
	Watch      bool
	Module     string
	Files      []string
	ScriptArgs []string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <script>...",
		Short: "Execute one or more script files",
		Long: `Execute script files against a persistent session. By default all
files share one context, so declarations from earlier files are
visible to later ones. With --isolate each file runs concurrently in
its own context.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			opts.Files = args
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				opts.Files = args[:at]
				opts.ScriptArgs = args[at:]
			}
			if len(opts.Files) == 0 {
				return fmt.Errorf("requires at least one script file before \"--\"")
			}
			if opts.Watch {
				return runWatch(cmd, cc, opts)
			}
			return runOnce(cmd, cc, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Isolate, "isolate", false, "Run each file concurrently in its own context")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-run scripts when they change")
	cmd.Flags().StringVarP(&opts.Module, "module", "m", "", "Activate module packs by name in addition to extension matching")

	return cmd
}

func runOnce(cmd *cobra.Command, cc *CommandContext, opts *RunOptions) error {
	if opts.Isolate {
		return runIsolated(cmd, cc, opts)
	}
	return runShared(cmd, cc, opts)
}

// runShared executes every file in one context, in order.
func runShared(cmd *cobra.Command, cc *CommandContext, opts *RunOptions) error {
	ext := scriptExtension(opts.Files[0])
	exec, activated, err := cc.buildExecutor(cmd.OutOrStdout(), cmd.ErrOrStderr(), ext, opts.Module, false)
	if err != nil {
		return err
	}
	logActivated(cc, activated)

	sc := engine.NewScriptContext()
	for _, path := range opts.Files {
		if err := runFile(cmd, cc, exec, sc, path, opts.ScriptArgs); err != nil {
			return err
		}
	}
	return nil
}

// runIsolated executes each file concurrently in its own context.
func runIsolated(cmd *cobra.Command, cc *CommandContext, opts *RunOptions) error {
	ext := scriptExtension(opts.Files[0])
	exec, activated, err := cc.buildExecutor(cmd.OutOrStdout(), cmd.ErrOrStderr(), ext, opts.Module, false)
	if err != nil {
		return err
	}
	logActivated(cc, activated)

	g, _ := errgroup.WithContext(cmd.Context())
	for _, path := range opts.Files {
		g.Go(func() error {
			return runFile(cmd, cc, exec, engine.NewScriptContext(), path, opts.ScriptArgs)
		})
	}
	return g.Wait()
}

// runFile executes a single script file in the given context.
func runFile(cmd *cobra.Command, cc *CommandContext, exec *engine.Executor, sc *engine.ScriptContext, path string, scriptArgs []string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", path, err)
	}

	cc.Logger.Debug("executing script", "path", path, "context", sc.ID)
	res, err := exec.Execute(string(src), scriptArgs, engine.References{}, nil, sc)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%s: %w", path, res.Err())
	}
	if v, ok := res.Value(); ok {
		styles := cc.Renderer.Styles()
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), styles.Value.Render(fmt.Sprintf("%v", v)))
	}
	return nil
}

// runWatch re-executes the scripts whenever one of them changes.
func runWatch(cmd *cobra.Command, cc *CommandContext, opts *RunOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(opts.Files))
	for _, path := range opts.Files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		// Watch the directory: editors often replace files on save,
		// which drops per-file watches.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	run := func() {
		if err := runOnce(cmd, cc, opts); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	run()

	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes (Ctrl+C to stop)...")

	var debounceTimer *time.Timer
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				cc.Logger.Debug("script changed, re-running", "file", event.Name)
				run()
			})

		case err := <-watcher.Errors:
			cc.Logger.Error("watcher error", "error", err)
		}
	}
}

func logActivated(cc *CommandContext, activated []string) {
	if len(activated) > 0 {
		cc.Logger.Debug("modules activated", "modules", strings.Join(activated, ","))
	}
}

// scriptExtension returns the extension without the leading dot.
func scriptExtension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
