package mdnice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Editor DOM selectors.
const (
	editorSelector        = ".CodeMirror"
	previewSelector       = "#nice-rich-text-editor"
	themeMenuSelector     = "#nice-menu-theme"
	codeThemeMenuSelector = "#nice-menu-codetheme"
	macToggleSelector     = "#nice-menu-codetheme-apple"
)

// previewReadyLength is the preview markup length treated as rendered.
const previewReadyLength = 100

// Page scripts used by the editor controller.
const (
	jsAlive = `() => true`

	jsCloseMenus = `() => document.body.click()`

	jsSetMarkdown = `(content) => {
	const editor = document.querySelector('.CodeMirror').CodeMirror;
	if (!editor) throw new Error('CodeMirror instance not found');
	editor.setValue(content);
	editor.refresh();
	const ta = editor.getTextArea ? editor.getTextArea() : null;
	if (ta) {
		ta.dispatchEvent(new Event('change', { bubbles: true }));
		ta.dispatchEvent(new Event('input', { bubbles: true }));
	}
	setTimeout(() => {
		editor.focus();
		editor.execCommand('selectAll');
		editor.replaceSelection(content);
	}, 100);
	return true;
}`

	jsGetMarkdown = `() => {
	const el = document.querySelector('.CodeMirror');
	return el && el.CodeMirror ? el.CodeMirror.getValue() : null;
}`

	jsClearMarkdown = `() => {
	const editor = document.querySelector('.CodeMirror').CodeMirror;
	editor.setValue('');
	editor.refresh();
	return true;
}`

	jsPreviewLength = `() => {
	const el = document.querySelector('#nice-rich-text-editor');
	return el && el.innerHTML ? el.innerHTML.trim().length : 0;
}`

	jsMacStyleState = `() => {
	const item = document.querySelector('#nice-menu-codetheme-apple');
	if (!item) return null;
	const flag = item.querySelector('.nice-codetheme-item-flag');
	if (flag && flag.innerHTML.trim().length > 0) return true;
	if (item.classList.contains('selected') || item.classList.contains('active') || item.classList.contains('checked')) return true;
	return item.getAttribute('aria-checked') === 'true';
}`

	jsActiveTheme = `() => {
	const items = document.querySelectorAll('[id^="nice-menu-theme-"]');
	for (const item of items) {
		const flag = item.querySelector('[class*="flag"]');
		if ((flag && flag.innerHTML.trim().length > 0) ||
			item.classList.contains('selected') || item.classList.contains('active') ||
			item.getAttribute('aria-checked') === 'true') {
			return item.id.slice('nice-menu-theme-'.length);
		}
	}
	return '';
}`
)

var errPageDead = errors.New("editor page is no longer responsive")

// editorController drives the editor's menus and document model.
type editorController struct {
	page    editorPage
	timeout time.Duration
	timings timings
	log     *slog.Logger
}

// alive reports whether the page still evaluates scripts.
func (e *editorController) alive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	v, err := e.page.Eval(ctx, jsAlive)
	return err == nil && v.Bool()
}

// ensureAlive fails with a UIError for op when the page is gone.
func (e *editorController) ensureAlive(ctx context.Context, op string) error {
	if !e.alive(ctx) {
		return &UIError{Op: op, Err: errPageDead}
	}
	return nil
}

// openAndPick opens menu and clicks item, each bounded by the timeout.
func (e *editorController) openAndPick(ctx context.Context, menu, item string) error {
	wctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.page.WaitVisible(wctx, menu); err != nil {
		return err
	}
	if err := e.page.Click(wctx, menu); err != nil {
		return err
	}
	if err := sleep(ctx, e.timings.menuOpen); err != nil {
		return err
	}
	if err := e.page.WaitVisible(wctx, item); err != nil {
		return err
	}
	return e.page.Click(wctx, item)
}

// selectTheme applies an article theme.
func (e *editorController) selectTheme(ctx context.Context, name string) error {
	if err := e.ensureAlive(ctx, "select theme"); err != nil {
		return err
	}
	if err := e.openAndPick(ctx, themeMenuSelector, "#nice-menu-theme-"+name); err != nil {
		return &UIError{Op: "select theme " + name, Err: err}
	}
	if err := sleep(ctx, e.timings.themeApply); err != nil {
		return &UIError{Op: "select theme " + name, Err: err}
	}
	if active := e.activeTheme(ctx); active != "" && active != name {
		e.log.Warn("editor reports a different active theme", "want", name, "active", active)
	}
	e.log.Debug("theme selected", "theme", name)
	return nil
}

// activeTheme returns the theme the editor marks as selected, or "" when
// the menu does not expose one.
func (e *editorController) activeTheme(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	v, err := e.page.Eval(ctx, jsActiveTheme)
	if err != nil || v.Nil() {
		return ""
	}
	return v.Str()
}

// selectCodeTheme applies a code highlight theme. Unknown names are skipped.
func (e *editorController) selectCodeTheme(ctx context.Context, name string) error {
	id, ok := codeThemeIDs[name]
	if !ok {
		e.log.Warn("skipping unknown code theme", "code_theme", name, "known", CodeThemes())
		return nil
	}
	if err := e.ensureAlive(ctx, "select code theme"); err != nil {
		return err
	}
	if err := e.openAndPick(ctx, codeThemeMenuSelector, "#"+id); err != nil {
		return &UIError{Op: "select code theme " + name, Err: err}
	}
	e.closeMenus(ctx)
	if err := sleep(ctx, e.timings.codeApply); err != nil {
		return &UIError{Op: "select code theme " + name, Err: err}
	}
	e.log.Debug("code theme selected", "code_theme", name)
	return nil
}

// setMacStyle sets the mac-style toggle, clicking only when the current
// state differs from enabled.
func (e *editorController) setMacStyle(ctx context.Context, enabled bool) error {
	op := fmt.Sprintf("set mac style %t", enabled)
	if err := e.ensureAlive(ctx, op); err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.page.WaitVisible(wctx, codeThemeMenuSelector); err != nil {
		return &UIError{Op: op, Err: err}
	}
	if err := e.page.Click(wctx, codeThemeMenuSelector); err != nil {
		return &UIError{Op: op, Err: err}
	}
	if err := sleep(ctx, e.timings.menuOpen); err != nil {
		return &UIError{Op: op, Err: err}
	}
	if err := e.page.WaitVisible(wctx, macToggleSelector); err != nil {
		return &UIError{Op: op, Err: err}
	}

	state, err := e.page.Eval(wctx, jsMacStyleState)
	if err != nil {
		return &UIError{Op: op, Err: fmt.Errorf("reading toggle state: %w", err)}
	}
	if state.Nil() {
		return &UIError{Op: op, Err: errors.New("toggle not found")}
	}

	current := state.Bool()
	if current != enabled {
		if err := e.page.Click(wctx, macToggleSelector); err != nil {
			return &UIError{Op: op, Err: err}
		}
		e.log.Debug("mac style toggled", "from", current, "to", enabled)
	} else {
		e.log.Debug("mac style already set", "enabled", enabled)
	}

	e.closeMenus(ctx)
	if err := sleep(ctx, e.timings.codeApply); err != nil {
		return &UIError{Op: op, Err: err}
	}
	return nil
}

// injectContent replaces the editor document and waits for the preview to
// render. A preview that never fills up is logged, not returned.
func (e *editorController) injectContent(ctx context.Context, markdown string) error {
	if err := e.ensureAlive(ctx, "inject content"); err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if _, err := e.page.Eval(wctx, jsSetMarkdown, markdown); err != nil {
		return &UIError{Op: "inject content", Err: err}
	}
	if err := sleep(ctx, e.timings.menuOpen); err != nil {
		return &UIError{Op: "inject content", Err: err}
	}

	got, err := e.page.Eval(wctx, jsGetMarkdown)
	if err != nil {
		return &UIError{Op: "inject content", Err: fmt.Errorf("reading editor back: %w", err)}
	}
	if got.Nil() {
		return &UIError{Op: "inject content", Err: errors.New("editor is not initialized")}
	}
	if normalizeNewlines(got.Str()) != normalizeNewlines(markdown) {
		e.log.Warn("editor content differs from the injected markdown",
			"want_len", len(markdown), "got_len", len(got.Str()))
	}

	if !e.waitPreview(ctx) {
		e.log.Warn("preview did not render within the poll window, continuing",
			"ceiling", e.timings.renderWait)
	}
	return nil
}

// waitPreview polls the preview length until it passes previewReadyLength
// or the render ceiling elapses.
func (e *editorController) waitPreview(ctx context.Context) bool {
	deadline := time.Now().Add(e.timings.renderWait)
	for {
		pctx, cancel := context.WithTimeout(ctx, e.timeout)
		v, err := e.page.Eval(pctx, jsPreviewLength)
		cancel()
		if err == nil && v.Int() > previewReadyLength {
			return true
		}
		if !time.Now().Before(deadline) || ctx.Err() != nil {
			return false
		}
		if sleep(ctx, e.timings.renderStep) != nil {
			return false
		}
	}
}

// clear empties the editor. Failures are logged.
func (e *editorController) clear(ctx context.Context) {
	if !e.alive(ctx) {
		e.log.Warn("page not responsive, skipping editor clear")
		return
	}
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if _, err := e.page.Eval(cctx, jsClearMarkdown); err != nil {
		e.log.Warn("failed to clear editor", "err", err)
		return
	}
	_ = sleep(ctx, e.timings.menuOpen)
}

func (e *editorController) closeMenus(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if _, err := e.page.Eval(cctx, jsCloseMenus); err != nil {
		e.log.Debug("failed to close menus", "err", err)
	}
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
