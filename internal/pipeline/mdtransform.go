package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// crlfOrCR matches Windows and classic Mac line endings.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// leadingBOM is the UTF-8 byte order mark some editors write.
const leadingBOM = "\uFEFF"

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// EditorPreprocessor prepares Markdown for the browser editor, whose
// document model compares and stores text with "\n" line endings.
type EditorPreprocessor struct{}

// PreprocessMarkdown applies all transformations before injection.
// Only encoding artifacts change; blank lines and code blocks are kept.
func (p *EditorPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	// Check for cancellation before processing
	if ctx.Err() != nil {
		return content
	}

	content = strings.TrimPrefix(content, leadingBOM)
	return normalizeLineEndings(content)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
