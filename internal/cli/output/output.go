// Package output provides terminal rendering helpers for the CLI.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode controls how command output is rendered.
type Mode string

const (
	// ModeAuto picks text when stdout is a TTY, plain otherwise.
	ModeAuto Mode = "auto"
	// ModeText renders with color and styling.
	ModeText Mode = "text"
	// ModePlain renders without any styling.
	ModePlain Mode = "plain"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Prompt   lipgloss.Style
	Value    lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Header   lipgloss.Style
	Disabled lipgloss.Style
}

func newStyles() *Styles {
	return &Styles{
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// plainStyles returns styles with no attributes set, so rendering is a
// pass-through.
func plainStyles() *Styles {
	return &Styles{}
}

// Renderer writes styled or plain output depending on mode and TTY
// detection.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	styles *Styles
	styled bool
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	styled := false
	switch mode {
	case ModeText:
		styled = true
	case ModePlain:
		styled = false
	default:
		styled = stdoutIsTTY() && termenv.ColorProfile() != termenv.Ascii
	}

	r := &Renderer{out: out, errOut: errOut, styled: styled}
	if styled {
		r.styles = newStyles()
	} else {
		r.styles = plainStyles()
	}
	return r
}

// Out returns the output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// ErrOut returns the error writer.
func (r *Renderer) ErrOut() io.Writer { return r.errOut }

// Styles returns the active style set.
func (r *Renderer) Styles() *Styles { return r.styles }

// Styled reports whether color output is active.
func (r *Renderer) Styled() bool { return r.styled }

func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
