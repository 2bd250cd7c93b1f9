package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mdnice "github.com/alnah/go-mdnice"
	"github.com/alnah/go-mdnice/internal/config"
)

// Sentinel errors for input discovery.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrNoMarkdownFiles    = errors.New("no markdown files found")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// stdinInput is the positional argument that reads Markdown from stdin.
const stdinInput = "-"

// inputItem is one Markdown document to convert.
type inputItem struct {
	Label    string // shown in results
	Source   string // file path, resolved by the library
	Markdown string // raw content (stdin)
}

// request builds the library request for one platform.
func (in inputItem) request(platform mdnice.Platform, theme mdnice.ThemeSelector, wrap bool) mdnice.Request {
	return mdnice.Request{
		Markdown: in.Markdown,
		Source:   in.Source,
		Platform: platform,
		Theme:    theme,
		Wrap:     wrap,
	}
}

// resolveInputs turns positional arguments into input items. Without
// arguments the config's default input directory is used.
func resolveInputs(args []string, cfg *config.Config, stdin io.Reader) ([]inputItem, error) {
	if len(args) == 0 {
		if cfg.Input.DefaultDir == "" {
			return nil, ErrNoInput
		}
		args = []string{cfg.Input.DefaultDir}
	}

	var items []inputItem
	for _, arg := range args {
		if arg == stdinInput {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("%w: stdin: %v", mdnice.ErrReadMarkdown, err)
			}
			items = append(items, inputItem{Label: "stdin", Markdown: string(data)})
			continue
		}
		found, err := discoverFiles(arg)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	return items, nil
}

// discoverFiles finds all markdown files below inputPath, in lexical order.
func discoverFiles(inputPath string) ([]inputItem, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		return []inputItem{{Label: inputPath, Source: inputPath}}, nil
	}

	var files []inputItem
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || validateMarkdownExtension(path) != nil {
			return nil
		}
		files = append(files, inputItem{Label: path, Source: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMarkdownFiles, inputPath)
	}
	return files, nil
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdnice.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdnice.MaxPoolSize)
	}
	return nil
}
