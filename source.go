package mdnice

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-mdnice/internal/fileutil"
)

// Source is a resolved conversion input.
type Source struct {
	Markdown string
	Path     string // file the Markdown came from; empty for raw content
}

// SourceResolver turns a path-like input into Markdown.
type SourceResolver interface {
	Resolve(ctx context.Context, input string) (Source, error)
}

// FileResolver reads inputs naming an existing .md or .markdown file and
// treats everything else as raw Markdown.
type FileResolver struct{}

var _ SourceResolver = FileResolver{}

// Resolve implements SourceResolver.
func (FileResolver) Resolve(ctx context.Context, input string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	if !fileutil.IsMarkdownPath(input) || !fileutil.FileExists(input) {
		return Source{Markdown: input}, nil
	}
	data, err := os.ReadFile(input) // #nosec G304 -- input path is user-provided
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrReadMarkdown, input, err)
	}
	return Source{Markdown: string(data), Path: input}, nil
}
