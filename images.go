package mdnice

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alnah/go-mdnice/internal/fileutil"
)

// ImageKind classifies an image reference target.
type ImageKind string

// Image reference kinds.
const (
	ImageLocal  ImageKind = "local"  // filesystem path
	ImageRemote ImageKind = "remote" // network URL
	ImageData   ImageKind = "data"   // inline data URL
)

// dataImagePrefix marks inline image data.
const dataImagePrefix = "data:image/"

// remoteSchemes are the URL schemes treated as remote targets.
var remoteSchemes = []string{"http://", "https://", "ftp://"}

// imagePattern matches ![alt](target "optional title").
var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"([^"]*)")?\)`)

// ImageRef is one Markdown image reference.
// For local images handed to an Uploader, Target is an absolute path.
type ImageRef struct {
	Alt    string
	Target string
	Title  string
	Kind   ImageKind
}

// Markdown renders the reference back to Markdown syntax.
func (r ImageRef) Markdown() string {
	if r.Title != "" {
		return "![" + r.Alt + "](" + r.Target + ` "` + r.Title + `")`
	}
	return "![" + r.Alt + "](" + r.Target + ")"
}

// Uploader relocates one image and returns its new URL.
// An empty URL with a nil error counts as a failure.
type Uploader interface {
	Upload(ctx context.Context, ref ImageRef) (string, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, ref ImageRef) (string, error)

// Upload calls f(ctx, ref).
func (f UploaderFunc) Upload(ctx context.Context, ref ImageRef) (string, error) {
	return f(ctx, ref)
}

// RewriteStats summarizes one rewrite pass.
type RewriteStats struct {
	Uploaded int
	Skipped  int     // not eligible under the mode, or not an uploadable local file
	Failed   int     // eligible but the upload failed
	Errors   []error // one *ImageUploadError per failure
}

// Classify returns the kind of an image target.
func Classify(target string) ImageKind {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, dataImagePrefix) {
		return ImageData
	}
	for _, s := range remoteSchemes {
		if strings.HasPrefix(lower, s) {
			return ImageRemote
		}
	}
	return ImageLocal
}

// Eligible reports whether an image of kind is uploaded under mode.
// Inline data is only uploaded in UploadAll mode.
func Eligible(kind ImageKind, mode UploadMode) bool {
	switch mode {
	case UploadAll:
		return true
	case UploadLocal:
		return kind == ImageLocal
	case UploadRemote:
		return kind == ImageRemote
	default:
		return false
	}
}

var (
	errEmptyUploadURL = errors.New("uploader returned an empty URL")
	errNotImageFile   = errors.New("not an existing image file")
)

// ImageRewriter relocates Markdown image references through an Uploader.
type ImageRewriter struct {
	uploader Uploader
	mode     UploadMode
	log      *slog.Logger
}

// NewImageRewriter returns a rewriter. A nil uploader makes Rewrite a no-op.
// A nil logger discards output.
func NewImageRewriter(u Uploader, mode UploadMode, log *slog.Logger) *ImageRewriter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ImageRewriter{uploader: u, mode: mode, log: log}
}

// Rewrite uploads every eligible image reference in markdown and replaces
// its target with the returned URL. Relative local targets are resolved
// against baseDir. A failed upload leaves the reference untouched.
func (r *ImageRewriter) Rewrite(ctx context.Context, markdown, baseDir string) (string, RewriteStats) {
	var stats RewriteStats
	if r.uploader == nil {
		return markdown, stats
	}

	matches := imagePattern.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		return markdown, stats
	}

	var b strings.Builder
	b.Grow(len(markdown))
	last := 0
	for _, m := range matches {
		b.WriteString(markdown[last:m[0]])
		last = m[1]

		ref := ImageRef{
			Alt:    markdown[m[2]:m[3]],
			Target: markdown[m[4]:m[5]],
		}
		if m[6] >= 0 {
			ref.Title = markdown[m[6]:m[7]]
		}
		ref.Kind = Classify(ref.Target)

		b.WriteString(r.relocate(ctx, ref, markdown[m[0]:m[1]], baseDir, &stats))
	}
	b.WriteString(markdown[last:])

	if stats.Uploaded+stats.Failed > 0 {
		r.log.Info("images relocated", "uploaded", stats.Uploaded, "failed", stats.Failed, "skipped", stats.Skipped)
	}
	return b.String(), stats
}

// relocate uploads one reference and returns the Markdown to emit for it.
// original is returned verbatim whenever the reference is left alone.
func (r *ImageRewriter) relocate(ctx context.Context, ref ImageRef, original, baseDir string, stats *RewriteStats) string {
	if !Eligible(ref.Kind, r.mode) {
		stats.Skipped++
		return original
	}

	upload := ref
	if ref.Kind == ImageLocal {
		path := resolveLocal(ref.Target, baseDir)
		if !fileutil.FileExists(path) || !fileutil.IsImagePath(path) {
			r.log.Warn("skipping image", "target", ref.Target, "resolved", path, "reason", errNotImageFile)
			stats.Skipped++
			return original
		}
		upload.Target = path
	}

	if err := ctx.Err(); err != nil {
		r.fail(stats, ref.Target, err)
		return original
	}

	url, err := r.uploader.Upload(ctx, upload)
	if err == nil && strings.TrimSpace(url) == "" {
		err = errEmptyUploadURL
	}
	if err != nil {
		r.fail(stats, ref.Target, err)
		return original
	}

	stats.Uploaded++
	r.log.Debug("image uploaded", "target", shortTarget(ref.Target), "url", url)
	ref.Target = strings.TrimSpace(url)
	return ref.Markdown()
}

func (r *ImageRewriter) fail(stats *RewriteStats, target string, err error) {
	uerr := &ImageUploadError{Target: shortTarget(target), Err: err}
	stats.Failed++
	stats.Errors = append(stats.Errors, uerr)
	r.log.Warn("image upload failed", "target", uerr.Target, "err", err)
}

// resolveLocal makes a relative target absolute against baseDir.
func resolveLocal(target, baseDir string) string {
	target = strings.TrimPrefix(target, "file://")
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	if baseDir != "" {
		target = filepath.Join(baseDir, target)
	}
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return target
}

// shortTarget keeps inline data out of logs and errors.
func shortTarget(target string) string {
	const max = 64
	if len(target) <= max {
		return target
	}
	return target[:max] + "..."
}
