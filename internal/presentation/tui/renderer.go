package tui

import (
	"os"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// Auto style picks a light or dark theme from the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SessionRenderer renders a finished session for display.
// On a terminal the markdown answer is rendered with glamour; otherwise the
// raw answer is returned so output stays pipeable.
func SessionRenderer(tty bool) func(*domain.Session) (string, error) {
	render := NewRenderer()
	return func(s *domain.Session) (string, error) {
		out := s.FinalAnswer
		if tty {
			rendered, err := render(out)
			if err != nil {
				return "", err
			}
			out = rendered
		}
		return out + "\n" + ConfidenceLine(s.FinalConfidence, tty), nil
	}
}
