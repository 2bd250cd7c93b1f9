package mdnice

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	ErrSession     = errors.New("browser session failed")
	ErrLoad        = errors.New("editor page failed to load")
	ErrUI          = errors.New("editor interaction failed")
	ErrExtraction  = errors.New("HTML extraction failed")
	ErrImageUpload = errors.New("image upload failed")
	ErrBatch       = errors.New("every item in the batch failed")

	// Input validation errors.
	ErrEmptyMarkdown     = errors.New("markdown content cannot be empty")
	ErrInvalidPlatform   = errors.New("invalid platform")
	ErrInvalidTheme      = errors.New("invalid theme")
	ErrInvalidUploadMode = errors.New("invalid image upload mode")
	ErrInvalidProtocol   = errors.New("invalid browser protocol")
	ErrReadMarkdown      = errors.New("failed to read markdown source")
	ErrWriteHTML         = errors.New("failed to write HTML file")
	ErrInvalidAssetPath  = errors.New("invalid asset path")
)

// LoadError reports that no editor endpoint could be loaded.
type LoadError struct {
	Tried []string // endpoints in the order they were attempted
	Last  error    // error from the final attempt
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: tried %d endpoint(s) [%s], last error: %v",
		ErrLoad, len(e.Tried), strings.Join(e.Tried, ", "), e.Last)
}

func (e *LoadError) Unwrap() error        { return e.Last }
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// UIError reports a failed editor interaction such as selecting a theme.
type UIError struct {
	Op  string
	Err error
}

func (e *UIError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrUI, e.Op, e.Err)
}

func (e *UIError) Unwrap() error        { return e.Err }
func (e *UIError) Is(target error) bool { return target == ErrUI }

// ExtractionError reports that every extraction strategy came back empty.
// Attempts holds one line per strategy describing why it was rejected.
type ExtractionError struct {
	Platform Platform
	Attempts []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%v for %s: %s", ErrExtraction, e.Platform, strings.Join(e.Attempts, "; "))
}

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// ImageUploadError describes a single image reference that could not be
// relocated. It is recorded and logged, never returned from a conversion.
type ImageUploadError struct {
	Target string
	Err    error
}

func (e *ImageUploadError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrImageUpload, e.Target, e.Err)
}

func (e *ImageUploadError) Unwrap() error        { return e.Err }
func (e *ImageUploadError) Is(target error) bool { return target == ErrImageUpload }

// BatchError is returned when a batch produced no result at all.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("#%d: %v", f.Index, f.Err)
	}
	return fmt.Sprintf("%v (%d item(s)): %s", ErrBatch, len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Is(target error) bool { return target == ErrBatch }

// Unwrap exposes the per-item errors so errors.Is can see through to causes.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
