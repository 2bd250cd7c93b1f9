package pipeline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// titleParser parses Markdown the way GitHub does, without rendering.
var titleParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// Title returns the plain text of the first heading in markdown, preferring
// the shallowest level. Returns "" when the document has no heading.
func Title(markdown string) string {
	src := []byte(markdown)
	doc := titleParser.Parse(text.NewReader(src))

	best, bestLevel := "", 7
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < bestLevel {
			if t := strings.TrimSpace(plainText(h, src)); t != "" {
				best, bestLevel = t, h.Level
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return best
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
