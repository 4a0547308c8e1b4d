package report

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"charm.land/glamour/v2"
	"github.com/mattn/go-isatty"
)

// DefaultWordWrap is the terminal width used when rendering Markdown.
const DefaultWordWrap = 100

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RenderTerminal renders the Markdown report to out with ANSI styling.
func RenderTerminal(out io.Writer, report *RunReport, wordWrap int) error {
	if wordWrap <= 0 {
		wordWrap = DefaultWordWrap
	}

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	rendered, err := renderer.Render(buf.String())
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
