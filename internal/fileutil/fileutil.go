// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Permissions used for everything the module writes.
const (
	DirPerm  = 0o750
	FilePerm = 0o644
)

// Sentinel errors for file utility operations.
var (
	ErrNameEmpty         = errors.New("file name cannot be empty")
	ErrNamePathTraversal = errors.New("file name contains path separator or null byte")
)

// markdownExts lists the extensions recognized as Markdown sources.
var markdownExts = []string{".md", ".markdown"}

// imageExts lists the extensions recognized as images.
var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg"}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsMarkdownPath reports whether path has a Markdown extension (case-insensitive).
func IsMarkdownPath(path string) bool {
	return slices.Contains(markdownExts, strings.ToLower(filepath.Ext(path)))
}

// IsImagePath reports whether path has an image extension (case-insensitive).
// Query strings and fragments are ignored.
func IsImagePath(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// IsURL returns true if the string looks like an HTTP(S) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ValidateName checks that name is a bare file name, safe to join to a directory.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrNamePathTraversal, name)
	}
	return nil
}

// WriteFile writes data to dir/name, creating dir as needed.
// Returns the written path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, FilePerm); err != nil { // #nosec G306 -- output files are meant to be readable
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
