package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
)

// ErrShellRender indicates the document shell could not be rendered.
var ErrShellRender = errors.New("document shell rendering failed")

// ShellData fills a document shell.
type ShellData struct {
	Title        string
	PlatformName string
	Theme        string
	Lang         string
	Body         template.HTML // extracted platform HTML, emitted verbatim
}

// ShellRenderer wraps HTML fragments into a standalone document.
type ShellRenderer struct {
	tmpl *template.Template
}

// NewShellRenderer parses a shell template.
// Returns error if the template cannot be parsed.
func NewShellRenderer(tmplContent string) (*ShellRenderer, error) {
	tmpl, err := template.New("shell").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing shell template: %w", err)
	}
	return &ShellRenderer{tmpl: tmpl}, nil
}

// Wrap renders fragment inside the shell.
func (s *ShellRenderer) Wrap(ctx context.Context, fragment string, data ShellData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data.Lang == "" {
		data.Lang = "zh-CN"
	}
	data.Body = template.HTML(fragment) // #nosec G203 -- fragment is the editor's own output

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrShellRender, err)
	}
	return buf.String(), nil
}
