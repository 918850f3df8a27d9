package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var moduleName string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start a read-eval-print loop against a persistent session.
Declarations accumulate across submissions; a trailing expression
prints its value. Type :help for commands, :quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runREPL(cmd, cc, moduleName)
		},
	}

	cmd.Flags().StringVarP(&moduleName, "module", "m", "", "Activate module packs by name")

	return cmd
}

func runREPL(cmd *cobra.Command, cc *CommandContext, moduleName string) error {
	exec, activated, err := cc.buildExecutor(cmd.OutOrStdout(), cmd.ErrOrStderr(), "", moduleName, true)
	if err != nil {
		return err
	}
	logActivated(cc, activated)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "scriptcs> ",
		HistoryFile:     cc.Cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	styles := cc.Renderer.Styles()
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "scriptcs REPL (engine: %s)\n", cc.Cfg.Engine)
	_, _ = fmt.Fprintln(out, "Type :help for commands, :quit to exit")
	_, _ = fmt.Fprintln(out)

	sc := engine.NewScriptContext()
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt("scriptcs> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 && trimmed == "" {
			continue
		}

		// Colon commands only at the start of a submission
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			quit, reset := handleColonCommand(cmd, cc, exec, sc, trimmed)
			if quit {
				break
			}
			if reset {
				exec.Release(sc)
				sc = engine.NewScriptContext()
			}
			continue
		}

		// Accumulate until delimiters balance
		buf.WriteString(line)
		buf.WriteString("\n")
		if openDelims(buf.String()) > 0 {
			rl.SetPrompt("     ...> ")
			continue
		}
		rl.SetPrompt("scriptcs> ")

		code := buf.String()
		buf.Reset()

		res, err := exec.Execute(code, nil, engine.References{}, nil, sc)
		if err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), styles.Error.Render(fmt.Sprintf("Error: %v", err)))
			continue
		}
		if res.IsError() {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), styles.Error.Render(fmt.Sprintf("Error: %v", res.Err())))
			continue
		}
		if v, ok := res.Value(); ok {
			_, _ = fmt.Fprintln(out, styles.Value.Render(fmt.Sprintf("%v", v)))
		}
	}

	return nil
}

// handleColonCommand dispatches REPL commands. It reports whether the
// loop should exit and whether the context should be reset.
func handleColonCommand(cmd *cobra.Command, cc *CommandContext, exec *engine.Executor, sc *engine.ScriptContext, line string) (quit, reset bool) {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ":quit", ":exit":
		return true, false

	case ":help":
		printREPLHelp(cmd.OutOrStdout())

	case ":vars":
		if err := printVariables(cmd.OutOrStdout(), exec, sc); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ":reset":
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session reset")
		return false, true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command %s (type :help)\n", line)
	}
	return false, false
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  :help    Show this help")
	_, _ = fmt.Fprintln(w, "  :vars    List session variables")
	_, _ = fmt.Fprintln(w, "  :reset   Discard the session and start fresh")
	_, _ = fmt.Fprintln(w, "  :quit    Exit the REPL")
}

func printVariables(w io.Writer, exec *engine.Executor, sc *engine.ScriptContext) error {
	vars, err := exec.ListVariables(sc)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		_, _ = fmt.Fprintln(w, "(no variables)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Variable"})
	for i, v := range vars {
		t.AppendRow(table.Row{i + 1, v})
	}
	t.Render()
	return nil
}

// openDelims returns the count of unclosed braces, brackets, and
// parens in src, ignoring delimiters inside strings and comments. A
// negative count (unbalanced closers) is treated as complete so the
// engine can report the error.
func openDelims(src string) int {
	depth := 0
	var quote byte
	inLineComment := false
	inBlockComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case quote != 0:
			if c == '\\' && quote != '`' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			inLineComment = true
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlockComment = true
			i++
		case c == '#':
			inLineComment = true
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		}
	}
	return depth
}
