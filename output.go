package mdnice

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdnice/internal/fileutil"
	"github.com/alnah/go-mdnice/internal/pipeline"
)

// OutputName returns the file name for one converted item: the source stem
// with a platform suffix, or a timestamped article name for raw content.
func OutputName(platform Platform, sourcePath string, now time.Time) string {
	if sourcePath != "" {
		base := filepath.Base(sourcePath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return stem + "_" + string(platform) + ".html"
	}
	return fmt.Sprintf("article_%s_%d.html", platform, now.Unix())
}

// outputWriter persists the items of one batch.
type outputWriter struct {
	dir   string
	shell *pipeline.ShellRenderer
	now   func() time.Time
	used  map[string]bool
}

func newOutputWriter(dir string, shell *pipeline.ShellRenderer) *outputWriter {
	return &outputWriter{dir: dir, shell: shell, now: time.Now, used: make(map[string]bool)}
}

// document is what gets written for one item.
type document struct {
	html       string
	platform   Platform
	theme      string
	sourcePath string
	markdown   string
	wrap       bool
}

// save writes doc below w.dir and returns the path. Names already used in
// this batch get a numeric suffix.
func (w *outputWriter) save(ctx context.Context, doc document) (string, error) {
	content := doc.html
	if doc.wrap {
		wrapped, err := w.shell.Wrap(ctx, doc.html, pipeline.ShellData{
			Title:        documentTitle(doc.markdown, doc.sourcePath),
			PlatformName: doc.platform.DisplayName(),
			Theme:        doc.theme,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrWriteHTML, err)
		}
		content = wrapped
	}

	name := w.unique(OutputName(doc.platform, doc.sourcePath, w.now()))
	path, err := fileutil.WriteFile(w.dir, name, []byte(content))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteHTML, err)
	}
	return path, nil
}

func (w *outputWriter) unique(name string) string {
	if !w.used[name] {
		w.used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !w.used[candidate] {
			w.used[candidate] = true
			return candidate
		}
	}
}

// documentTitle picks the shell title: the first Markdown heading, then the
// source file stem, then a generic title.
func documentTitle(markdown, sourcePath string) string {
	if t := pipeline.Title(markdown); t != "" {
		return t
	}
	if sourcePath != "" {
		base := filepath.Base(sourcePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "文章"
}
