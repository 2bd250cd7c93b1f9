package mdnice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdnice/internal/assets"
	"github.com/alnah/go-mdnice/internal/pipeline"
)

// Compile-time interface implementation check.
var _ pipeline.MarkdownPreprocessor = (*pipeline.EditorPreprocessor)(nil)

// Stages reported to the Notifier.
const (
	stageSession   = "session"
	stageLoad      = "load"
	stageRead      = "read"
	stageItem      = "item"
	stageImage     = "image"
	stageTheme     = "theme"
	stageCodeTheme = "code_theme"
	stageMacStyle  = "mac_style"
	stageInject    = "inject"
	stageExtract   = "extract"
	stageSave      = "save"
	stageBatch     = "batch"
)

// Converter drives the mdnice editor to turn Markdown into platform HTML.
// Create with NewConverter and call Convert; each call opens one browser
// session for the whole batch and tears it down before returning.
type Converter struct {
	cfg          converterConfig
	endpoints    Endpoints
	uploader     Uploader
	rewriter     *ImageRewriter
	notifier     Notifier
	resolver     SourceResolver
	sessions     sessionOpener
	preprocessor pipeline.MarkdownPreprocessor
	shell        *pipeline.ShellRenderer
	timings      timings
	log          *slog.Logger
	warnings     []string
}

// NewConverter creates a Converter with default configuration.
// Returns error if the asset path or the document shell is invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			headless:   true,
			timeout:    defaultTimeout,
			retries:    defaultRetries,
			codeTheme:  DefaultCodeTheme,
			macStyle:   true,
			cleanHTML:  true,
			uploadMode: UploadLocal,
			protocol:   ProtocolAuto,
		},
		resolver:     FileResolver{},
		preprocessor: &pipeline.EditorPreprocessor{},
		timings:      defaultTimings(),
		log:          slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.endpoints = BuildEndpoints(c.cfg.editorURLs...)

	loader, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	shellSource, err := loader.LoadTemplate(assets.DefaultShellName)
	if err != nil {
		return nil, fmt.Errorf("loading document shell: %w", err)
	}
	if c.shell, err = pipeline.NewShellRenderer(shellSource); err != nil {
		return nil, fmt.Errorf("initializing document shell: %w", err)
	}
	c.log.Debug("document shell loaded", "custom", loader.HasCustomLoader())

	if c.uploader == nil && c.cfg.uploadModeSet {
		c.warn(fmt.Sprintf("image upload mode %q is set but no uploader is configured; images are left as is", c.cfg.uploadMode))
	}
	c.rewriter = NewImageRewriter(c.uploader, c.cfg.uploadMode, c.log)

	if c.sessions == nil {
		c.sessions = &rodSessions{
			headless:  c.cfg.headless,
			remoteURL: c.cfg.remoteURL,
			token:     c.cfg.remoteToken,
			protocol:  c.cfg.protocol,
			proxy:     c.cfg.proxy,
			log:       c.log,
		}
	}

	return c, nil
}

// Warnings returns configuration problems that did not prevent construction.
func (c *Converter) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func (c *Converter) warn(msg string) {
	c.warnings = append(c.warnings, msg)
	c.log.Warn(msg)
}

// batch is the per-call state shared by every item.
type batch struct {
	session   *session
	editor    *editorController
	extractor *extractor
	writer    *outputWriter
	origin    string
	outputDir string
}

// Convert converts every request through one editor session, in order.
//
// With a single request its error is returned as is. With several, failed
// items are recorded in the outcome and the batch continues; a *BatchError
// is returned only when no item succeeded. When outputDir is set each
// result is saved there. Session and load failures end the call at once.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, outputDir string, reqs ...Request) (out *BatchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no input given", ErrEmptyMarkdown)
	}

	sess, err := retry(ctx, c.log, stageSession, c.cfg.retries, c.timings.retryDelay, c.sessions.Open)
	if err != nil {
		c.notify(stageSession, err, nil)
		return nil, err
	}
	defer sess.Close()

	loader := &pageLoader{
		endpoints: c.endpoints,
		timeout:   c.cfg.timeout,
		settle:    c.timings.settle,
		backoff:   c.timings.backoff,
		log:       c.log,
	}
	idx, err := retry(ctx, c.log, stageLoad, c.cfg.retries, c.timings.retryDelay, func(ctx context.Context) (int, error) {
		return loader.load(ctx, sess.page)
	})
	if err != nil {
		c.notify(stageLoad, err, map[string]any{"endpoints": c.endpoints.URLs()})
		return nil, err
	}

	b := &batch{
		session:   sess,
		editor:    &editorController{page: sess.page, timeout: c.cfg.timeout, timings: c.timings, log: c.log},
		extractor: newExtractor(c.cfg.timeout, c.log),
		writer:    newOutputWriter(outputDir, c.shell),
		origin:    c.endpoints[idx].URL,
		outputDir: outputDir,
	}

	out = &BatchOutcome{}
	for i, req := range reqs {
		index := i + 1
		if i > 0 {
			b.editor.clear(ctx)
		}

		res, err := c.convertOne(ctx, b, index, req)
		if err != nil {
			if len(reqs) == 1 {
				return nil, err
			}
			c.log.Error("item failed", "index", index, "of", len(reqs), "err", err)
			out.Failures = append(out.Failures, Failure{Index: index, Err: err})
			continue
		}
		out.Results = append(out.Results, res)
	}

	if len(out.Results) == 0 {
		berr := &BatchError{Failures: out.Failures}
		c.notify(stageBatch, berr, map[string]any{"items": len(reqs)})
		return out, berr
	}
	if len(out.Failures) > 0 {
		c.log.Warn("batch finished with failures", "succeeded", len(out.Results), "failed", len(out.Failures))
	}
	return out, nil
}

// convertOne runs the pipeline for one item on an already loaded editor.
func (c *Converter) convertOne(ctx context.Context, b *batch, index int, req Request) (Result, error) {
	src, err := c.source(ctx, req)
	if err != nil {
		return Result{}, c.fail(stageRead, index, err)
	}
	if strings.TrimSpace(src.Markdown) == "" {
		return Result{}, c.fail(stageItem, index, ErrEmptyMarkdown)
	}

	platform := req.Platform
	if platform == "" {
		platform = PlatformWechat
	}
	if err := platform.Validate(); err != nil {
		return Result{}, c.fail(stageItem, index, err)
	}
	theme, err := req.Theme.Pick()
	if err != nil {
		return Result{}, c.fail(stageItem, index, err)
	}
	codeTheme := req.CodeTheme
	if codeTheme == "" {
		codeTheme = c.cfg.codeTheme
	}
	macStyle := c.cfg.macStyle
	if req.MacStyle != nil {
		macStyle = *req.MacStyle
	}

	log := c.log.With("index", index, "platform", platform)
	log.Info("converting", "theme", theme, "code_theme", codeTheme, "source", src.Path)

	markdown := c.preprocessor.PreprocessMarkdown(ctx, src.Markdown)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	baseDir := ""
	if src.Path != "" {
		baseDir = filepath.Dir(src.Path)
	}
	markdown, images := c.rewriter.Rewrite(ctx, markdown, baseDir)
	for _, ierr := range images.Errors {
		fields := map[string]any{"index": index}
		var uerr *ImageUploadError
		if errors.As(ierr, &uerr) {
			fields["target"] = uerr.Target
		}
		c.notify(stageImage, ierr, fields)
	}

	if err := b.editor.selectTheme(ctx, theme); err != nil {
		return Result{}, c.fail(stageTheme, index, err)
	}
	if err := b.editor.selectCodeTheme(ctx, codeTheme); err != nil {
		return Result{}, c.fail(stageCodeTheme, index, err)
	}
	if err := b.editor.setMacStyle(ctx, macStyle); err != nil {
		return Result{}, c.fail(stageMacStyle, index, err)
	}
	if err := b.editor.injectContent(ctx, markdown); err != nil {
		return Result{}, c.fail(stageInject, index, err)
	}

	target := &extractionTarget{
		page:     b.session.page,
		platform: platform,
		origin:   b.origin,
		remote:   b.session.remote,
		timings:  c.timings,
	}
	ex, err := retry(ctx, log, stageExtract, c.cfg.retries, c.timings.retryDelay, func(ctx context.Context) (extraction, error) {
		return b.extractor.extract(ctx, target)
	})
	if err != nil {
		return Result{}, c.fail(stageExtract, index, err)
	}

	html := ex.HTML
	if c.cfg.cleanHTML {
		html = CleanHTML(html)
	}
	reportPayload(log, platform, html)

	res := Result{
		Index:    index,
		HTML:     html,
		Strategy: ex.Strategy,
		Theme:    theme,
		Images:   images,
	}
	if b.outputDir != "" {
		path, err := b.writer.save(ctx, document{
			html:       html,
			platform:   platform,
			theme:      theme,
			sourcePath: src.Path,
			markdown:   markdown,
			wrap:       req.Wrap,
		})
		if err != nil {
			return Result{}, c.fail(stageSave, index, err)
		}
		res.Path = path
		log.Info("saved", "path", path)
	}
	return res, nil
}

// source returns the Markdown for req, resolving Source when set.
func (c *Converter) source(ctx context.Context, req Request) (Source, error) {
	if req.Source == "" {
		return Source{Markdown: req.Markdown}, nil
	}
	return c.resolver.Resolve(ctx, req.Source)
}

// fail notifies about err at stage and returns it unchanged.
func (c *Converter) fail(stage string, index int, err error) error {
	c.notify(stage, err, map[string]any{"index": index})
	return err
}

func (c *Converter) notify(stage string, err error, fields map[string]any) {
	notify(c.log, c.notifier, stage, err, fields)
}

// Convert is a one-shot helper: it builds a Converter from opts and converts
// every input (a Markdown file path or raw Markdown) for platform.
func Convert(ctx context.Context, inputs []string, platform Platform, theme ThemeSelector, outputDir string, opts ...Option) (*BatchOutcome, error) {
	c, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	reqs := make([]Request, len(inputs))
	for i, in := range inputs {
		reqs[i] = Request{Source: in, Platform: platform, Theme: theme}
	}
	return c.Convert(ctx, outputDir, reqs...)
}

// ToWechat converts one input to WeChat Official Account HTML.
func ToWechat(ctx context.Context, input string, theme ThemeSelector, opts ...Option) (string, error) {
	return convertSingle(ctx, input, PlatformWechat, theme, opts...)
}

// ToZhihu converts one input to Zhihu HTML.
func ToZhihu(ctx context.Context, input string, theme ThemeSelector, opts ...Option) (string, error) {
	return convertSingle(ctx, input, PlatformZhihu, theme, opts...)
}

// ToJuejin converts one input to Juejin HTML.
func ToJuejin(ctx context.Context, input string, theme ThemeSelector, opts ...Option) (string, error) {
	return convertSingle(ctx, input, PlatformJuejin, theme, opts...)
}

func convertSingle(ctx context.Context, input string, platform Platform, theme ThemeSelector, opts ...Option) (string, error) {
	out, err := Convert(ctx, []string{input}, platform, theme, "", opts...)
	if err != nil {
		return "", err
	}
	return out.Results[0].HTML, nil
}
