package mdnice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MinHTMLLength is the shortest payload accepted from an extraction strategy.
const MinHTMLLength = 50

// Extraction strategy names, in cascade order.
const (
	StrategyEventCapture    = "event-capture"
	StrategyCDPClipboard    = "cdp-clipboard"
	StrategyScriptClipboard = "script-clipboard"
	StrategyCDPDOM          = "cdp-dom"
	StrategyScriptDOM       = "script-dom"
)

// clipboardErrorPrefix marks a clipboard read that failed inside the page.
const clipboardErrorPrefix = "ERROR: "

// Extraction scripts.
const (
	jsInstallCapture = `() => {
	window.__mdniceCapturedHTML = null;
	if (!window.__mdniceCaptureInstalled) {
		const record = (e) => {
			if (!e.clipboardData) return;
			const html = e.clipboardData.getData('text/html');
			if (html) window.__mdniceCapturedHTML = html;
		};
		document.addEventListener('copy', record, true);
		window.addEventListener('copy', record, false);
		window.__mdniceCaptureInstalled = true;
	}
	return true;
}`

	jsResetCapture = `() => { window.__mdniceCapturedHTML = null; return true; }`

	jsReadCapture = `() => window.__mdniceCapturedHTML || ''`

	jsClipboardReadExpr = `(async () => {
	try {
		const items = await navigator.clipboard.read();
		for (const item of items) {
			if (item.types.includes('text/html')) {
				const blob = await item.getType('text/html');
				return await blob.text();
			}
		}
		return null;
	} catch (err) {
		return 'ERROR: ' + err.message;
	}
})()`

	jsScriptClipboard = `async (selector, waitMs) => {
	document.querySelector(selector).click();
	await new Promise((r) => setTimeout(r, waitMs));
	const items = await navigator.clipboard.read();
	for (const item of items) {
		if (item.types.includes('text/html')) {
			const blob = await item.getType('text/html');
			return await blob.text();
		}
	}
	return null;
}`

	jsPreviewHTMLExpr = `(() => {
	const el = document.querySelector('#nice-rich-text-editor');
	return el ? el.innerHTML : null;
})()`

	jsPreviewHTML = `() => {
	const el = document.querySelector('#nice-rich-text-editor');
	return el ? el.innerHTML : '';
}`
)

// scriptClipboardWait is how long the page script waits after clicking
// before reading the clipboard.
const scriptClipboardWait = 800 * time.Millisecond

// extractionTarget is what a strategy works against.
type extractionTarget struct {
	page     editorPage
	platform Platform
	origin   string // URL of the loaded editor
	remote   bool
	timings  timings
}

func (t *extractionTarget) copyButton() string {
	return "#" + t.platform.copyButtonID()
}

// strategy is one way to recover the copy payload.
type strategy interface {
	name() string
	attempt(ctx context.Context, t *extractionTarget) (string, error)
}

// extraction is an accepted payload and the strategy that produced it.
type extraction struct {
	HTML     string
	Strategy string
}

// extractor runs the strategy cascade until one payload is accepted.
type extractor struct {
	strategies []strategy
	minLength  int
	timeout    time.Duration
	log        *slog.Logger
}

func newExtractor(timeout time.Duration, log *slog.Logger) *extractor {
	return &extractor{
		strategies: []strategy{
			eventCapture{},
			cdpClipboard{},
			scriptClipboard{},
			cdpDOM{},
			scriptDOM{},
		},
		minLength: MinHTMLLength,
		timeout:   timeout,
		log:       log,
	}
}

// extract returns the first payload at least minLength long. Strategies
// that error or come back short are recorded and skipped.
func (x *extractor) extract(ctx context.Context, t *extractionTarget) (extraction, error) {
	wctx, cancel := context.WithTimeout(ctx, x.timeout)
	err := t.page.WaitVisible(wctx, t.copyButton())
	cancel()
	if err != nil {
		return extraction{}, &ExtractionError{
			Platform: t.platform,
			Attempts: []string{fmt.Sprintf("copy control %s: %v", t.copyButton(), err)},
		}
	}

	attempts := make([]string, 0, len(x.strategies))
	for _, s := range x.strategies {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, err.Error())
			break
		}
		x.resetCapture(ctx, t.page)

		sctx, cancel := context.WithTimeout(ctx, x.timeout)
		html, err := s.attempt(sctx, t)
		cancel()

		switch {
		case err != nil:
			attempts = append(attempts, fmt.Sprintf("%s: %v", s.name(), err))
			x.log.Debug("extraction strategy failed", "strategy", s.name(), "err", err)
		case len(html) < x.minLength:
			attempts = append(attempts, fmt.Sprintf("%s: payload too short (%d < %d)", s.name(), len(html), x.minLength))
			x.log.Debug("extraction strategy came back short", "strategy", s.name(), "length", len(html))
		default:
			x.log.Info("HTML extracted", "strategy", s.name(), "length", len(html), "platform", t.platform)
			return extraction{HTML: html, Strategy: s.name()}, nil
		}
	}
	return extraction{}, &ExtractionError{Platform: t.platform, Attempts: attempts}
}

// resetCapture clears the capture slot so a stale payload is never read.
func (x *extractor) resetCapture(ctx context.Context, page editorPage) {
	rctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	if _, err := page.Eval(rctx, jsResetCapture); err != nil {
		x.log.Debug("failed to reset capture slot", "err", err)
	}
}

// eventCapture records the payload of the next native copy event.
type eventCapture struct{}

func (eventCapture) name() string { return StrategyEventCapture }

func (eventCapture) attempt(ctx context.Context, t *extractionTarget) (string, error) {
	if _, err := t.page.Eval(ctx, jsInstallCapture); err != nil {
		return "", fmt.Errorf("installing listener: %w", err)
	}
	if err := t.page.Click(ctx, t.copyButton()); err != nil {
		return "", err
	}
	if err := sleep(ctx, t.timings.captureWait); err != nil {
		return "", err
	}
	v, err := t.page.Eval(ctx, jsReadCapture)
	if err != nil {
		return "", fmt.Errorf("reading capture slot: %w", err)
	}
	return v.Str(), nil
}

// cdpClipboard reads the clipboard through Runtime.evaluate after a click.
type cdpClipboard struct{}

func (cdpClipboard) name() string { return StrategyCDPClipboard }

func (cdpClipboard) attempt(ctx context.Context, t *extractionTarget) (string, error) {
	if t.remote {
		// Best effort: the read below reports the real failure.
		_ = t.page.GrantClipboard(ctx, originOf(t.origin))
	}
	if err := t.page.Click(ctx, t.copyButton()); err != nil {
		return "", err
	}
	if err := sleep(ctx, t.timings.clipboardCDP); err != nil {
		return "", err
	}
	v, err := t.page.Evaluate(ctx, jsClipboardReadExpr, true)
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	s := v.Str()
	if msg, ok := strings.CutPrefix(s, clipboardErrorPrefix); ok {
		return "", fmt.Errorf("clipboard read: %s", msg)
	}
	return s, nil
}

// scriptClipboard clicks and reads the clipboard from a single page script.
type scriptClipboard struct{}

func (scriptClipboard) name() string { return StrategyScriptClipboard }

func (scriptClipboard) attempt(ctx context.Context, t *extractionTarget) (string, error) {
	v, err := t.page.Eval(ctx, jsScriptClipboard, t.copyButton(), scriptClipboardWait.Milliseconds())
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

// cdpDOM reads the preview markup through Runtime.evaluate.
type cdpDOM struct{}

func (cdpDOM) name() string { return StrategyCDPDOM }

func (cdpDOM) attempt(ctx context.Context, t *extractionTarget) (string, error) {
	v, err := t.page.Evaluate(ctx, jsPreviewHTMLExpr, false)
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

// scriptDOM reads the preview markup with an ordinary page script.
type scriptDOM struct{}

func (scriptDOM) name() string { return StrategyScriptDOM }

func (scriptDOM) attempt(ctx context.Context, t *extractionTarget) (string, error) {
	v, err := t.page.Eval(ctx, jsPreviewHTML)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}
