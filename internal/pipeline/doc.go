// Package pipeline holds the local text stages around a browser conversion.
//
// Before the editor sees a document:
//   - Markdown normalization (line endings, blank line runs)
//   - Title discovery from the first heading, via Goldmark's AST
//
// After the editor produced platform HTML:
//   - An audit of <img> sources a publishing platform cannot fetch
//   - Wrapping the fragment into a standalone document shell
//
// Rendering Markdown itself is the editor's job; nothing here produces
// styled HTML from Markdown.
package pipeline
