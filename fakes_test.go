package mdnice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/ysmood/gson"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Scriptable editor page
// ---------------------------------------------------------------------------

// fakePage simulates the editor DOM closely enough for the controller,
// loader and extractor: menus, the mac-style toggle, the CodeMirror
// document and the five extraction channels.
type fakePage struct {
	mu sync.Mutex

	// Failure injection, keyed by URL, selector, or injected markdown.
	navigateErr map[string]error
	visibleErr  map[string]error
	clickErr    map[string]error
	injectErr   map[string]error
	dead        bool

	// Editor state.
	macStyle      *bool // nil: toggle not in the DOM
	activeTheme   string
	pinnedTheme   string // when set, the menu always reports this theme
	markdown      string
	previewLength int

	// Extraction behavior. works lists the strategies that yield HTML.
	works    map[string]bool
	payload  func(markdown string) string
	captured string

	// Recorded interactions.
	navigated []string
	clicks    []string
	injected  []string
	granted   []string
	scripts   []string // every Eval and Evaluate source, in order
}

func newFakePage() *fakePage {
	on := true
	return &fakePage{
		macStyle:      &on,
		previewLength: 500,
		works:         map[string]bool{StrategyEventCapture: true},
		payload:       styledPayload,
	}
}

// styledPayload renders markdown the way the editor's copy output looks.
func styledPayload(markdown string) string {
	return `<section data-tool="mdnice编辑器" data-website="https://www.mdnice.com" style="font-size: 16px; color: black;">` +
		`<p style="margin: 0;">` + markdown + `</p></section>`
}

var _ editorPage = (*fakePage)(nil)

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return p.navigateErr[url]
}

func (p *fakePage) WaitVisible(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead {
		return errPageDead
	}
	if selector == macToggleSelector && p.macStyle == nil {
		return errors.New("toggle missing")
	}
	return p.visibleErr[selector]
}

func (p *fakePage) Click(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.clickErr[selector]; err != nil {
		return err
	}
	p.clicks = append(p.clicks, selector)

	switch {
	case selector == macToggleSelector && p.macStyle != nil:
		v := !*p.macStyle
		p.macStyle = &v
	case strings.HasPrefix(selector, "#nice-menu-theme-"):
		p.activeTheme = strings.TrimPrefix(selector, "#nice-menu-theme-")
	case strings.HasPrefix(selector, "#nice-sidebar-"):
		if p.works[StrategyEventCapture] {
			p.captured = p.payload(p.markdown)
		}
	}
	return nil
}

func (p *fakePage) Eval(_ context.Context, js string, args ...any) (gson.JSON, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, js)
	if p.dead {
		return gson.New(nil), errPageDead
	}

	switch js {
	case jsAlive:
		return gson.New(true), nil
	case jsCloseMenus, jsInstallCapture:
		return gson.New(true), nil
	case jsSetMarkdown:
		md, _ := args[0].(string)
		if err := p.injectErr[md]; err != nil {
			return gson.New(nil), err
		}
		p.markdown = md
		p.injected = append(p.injected, md)
		return gson.New(true), nil
	case jsGetMarkdown:
		return gson.New(p.markdown), nil
	case jsClearMarkdown:
		p.markdown = ""
		return gson.New(true), nil
	case jsPreviewLength:
		if p.markdown == "" {
			return gson.New(0), nil
		}
		return gson.New(p.previewLength), nil
	case jsMacStyleState:
		if p.macStyle == nil {
			return gson.New(nil), nil
		}
		return gson.New(*p.macStyle), nil
	case jsActiveTheme:
		if p.pinnedTheme != "" {
			return gson.New(p.pinnedTheme), nil
		}
		return gson.New(p.activeTheme), nil
	case jsResetCapture:
		p.captured = ""
		return gson.New(true), nil
	case jsReadCapture:
		return gson.New(p.captured), nil
	case jsScriptClipboard:
		if p.works[StrategyScriptClipboard] {
			return gson.New(p.payload(p.markdown)), nil
		}
		return gson.New(nil), nil
	case jsPreviewHTML:
		if p.works[StrategyScriptDOM] {
			return gson.New(p.payload(p.markdown)), nil
		}
		return gson.New(""), nil
	}
	return gson.New(nil), errors.New("fakePage: unexpected script")
}

func (p *fakePage) Evaluate(_ context.Context, expression string, _ bool) (gson.JSON, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, expression)
	if p.dead {
		return gson.New(nil), errPageDead
	}

	switch expression {
	case jsClipboardReadExpr:
		if p.works[StrategyCDPClipboard] {
			return gson.New(p.payload(p.markdown)), nil
		}
		return gson.New("ERROR: Document is not focused."), nil
	case jsPreviewHTMLExpr:
		if p.works[StrategyCDPDOM] {
			return gson.New(p.payload(p.markdown)), nil
		}
		return gson.New(nil), nil
	}
	return gson.New(nil), errors.New("fakePage: unexpected expression")
}

func (p *fakePage) GrantClipboard(_ context.Context, origin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = append(p.granted, origin)
	return nil
}

// evaluated reports how often script was run through Eval or Evaluate.
func (p *fakePage) evaluated(script string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.scripts {
		if s == script {
			n++
		}
	}
	return n
}

func (p *fakePage) clicked(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == selector {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Session opener
// ---------------------------------------------------------------------------

// fakeSessions hands out sessions on one fakePage and counts teardowns.
type fakeSessions struct {
	mu      sync.Mutex
	page    *fakePage
	openErr []error // consumed one per Open call
	opens   int
	closes  int
}

var _ sessionOpener = (*fakeSessions)(nil)

func (f *fakeSessions) Open(ctx context.Context) (*session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if len(f.openErr) > 0 {
		err := f.openErr[0]
		f.openErr = f.openErr[1:]
		if err != nil {
			return nil, err
		}
	}
	s := newSession(f.page, false, discardLogger())
	s.onClose("fake", func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closes++
		return nil
	})
	return s, nil
}

func (f *fakeSessions) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testTimings removes every pause.
func testTimings() timings {
	return timings{}
}
