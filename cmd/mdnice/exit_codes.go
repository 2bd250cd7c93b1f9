package main

import (
	"context"
	"errors"
	"os"

	mdnice "github.com/alnah/go-mdnice"
	"github.com/alnah/go-mdnice/internal/config"
)

// Exit codes for the mdnice CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // Every item converted
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, or validation
	ExitIO         = 3 // File not found, permission denied
	ExitBrowser    = 4 // Browser session, editor load or editor UI errors
	ExitExtraction = 5 // Editor produced no usable HTML
	ExitPartial    = 6 // Some items converted, some failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrPartialFailure) {
		return ExitPartial
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdnice.ErrSession) ||
		errors.Is(err, mdnice.ErrLoad) ||
		errors.Is(err, mdnice.ErrUI) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitBrowser
	}

	if errors.Is(err, mdnice.ErrExtraction) {
		return ExitExtraction
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdnice.ErrReadMarkdown) ||
		errors.Is(err, mdnice.ErrWriteHTML) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoMarkdownFiles) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdnice.ErrEmptyMarkdown) ||
		errors.Is(err, mdnice.ErrInvalidPlatform) ||
		errors.Is(err, mdnice.ErrInvalidTheme) ||
		errors.Is(err, mdnice.ErrInvalidUploadMode) ||
		errors.Is(err, mdnice.ErrInvalidProtocol) ||
		errors.Is(err, mdnice.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
