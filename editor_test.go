package mdnice

// Notes:
// - Drives editorController against fakePage, which tracks clicks and the
//   simulated menu, toggle and document state
// - Zero timings keep every pause and the preview poll instantaneous
// - A dead page fails every controller operation before it touches the DOM

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func newTestEditor(page *fakePage) *editorController {
	return &editorController{
		page:    page,
		timeout: time.Second,
		timings: testTimings(),
		log:     discardLogger(),
	}
}

// ---------------------------------------------------------------------------
// TestEditorController_SelectTheme
// ---------------------------------------------------------------------------

func TestEditorController_SelectTheme(t *testing.T) {
	t.Parallel()

	t.Run("opens the menu then picks the item", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		if err := newTestEditor(page).selectTheme(context.Background(), "rose"); err != nil {
			t.Fatalf("selectTheme() error = %v", err)
		}
		want := []string{themeMenuSelector, "#nice-menu-theme-rose"}
		if !slices.Equal(page.clicks, want) {
			t.Errorf("clicks = %v, want %v", page.clicks, want)
		}
		if page.activeTheme != "rose" {
			t.Errorf("activeTheme = %q, want %q", page.activeTheme, "rose")
		}
	})

	t.Run("click failure is a UIError", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.clickErr = map[string]error{"#nice-menu-theme-ink": errors.New("element detached")}

		err := newTestEditor(page).selectTheme(context.Background(), "ink")
		if !errors.Is(err, ErrUI) {
			t.Fatalf("error = %v, want ErrUI", err)
		}
		var uiErr *UIError
		if !errors.As(err, &uiErr) || !strings.Contains(uiErr.Op, "ink") {
			t.Errorf("UIError.Op should name the theme, got %v", err)
		}
	})

	t.Run("missing menu is a UIError", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.visibleErr = map[string]error{themeMenuSelector: context.DeadlineExceeded}

		err := newTestEditor(page).selectTheme(context.Background(), "rose")
		if !errors.Is(err, ErrUI) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want ErrUI wrapping DeadlineExceeded", err)
		}
	})

	t.Run("dead page fails before clicking", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.dead = true

		err := newTestEditor(page).selectTheme(context.Background(), "rose")
		if !errors.Is(err, errPageDead) || !errors.Is(err, ErrUI) {
			t.Errorf("error = %v, want ErrUI wrapping errPageDead", err)
		}
		if len(page.clicks) != 0 {
			t.Errorf("clicks = %v, want none", page.clicks)
		}
	})

	t.Run("mismatched active theme only warns", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		page := newFakePage()
		page.pinnedTheme = "normal"
		e := newTestEditor(page)
		e.log = slog.New(slog.NewTextHandler(&buf, nil))

		if err := e.selectTheme(context.Background(), "rose"); err != nil {
			t.Fatalf("selectTheme() error = %v", err)
		}
		if !strings.Contains(buf.String(), "different active theme") {
			t.Errorf("expected a warning about the active theme, log:\n%s", buf.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestEditorController_SelectCodeTheme
// ---------------------------------------------------------------------------

func TestEditorController_SelectCodeTheme(t *testing.T) {
	t.Parallel()

	t.Run("known theme clicks its menu entry", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		if err := newTestEditor(page).selectCodeTheme(context.Background(), "monokai"); err != nil {
			t.Fatalf("selectCodeTheme() error = %v", err)
		}
		want := []string{codeThemeMenuSelector, "#nice-menu-codetheme-monokai"}
		if !slices.Equal(page.clicks, want) {
			t.Errorf("clicks = %v, want %v", page.clicks, want)
		}
	})

	t.Run("display name maps to editor id", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		if err := newTestEditor(page).selectCodeTheme(context.Background(), "atom-one-dark"); err != nil {
			t.Fatalf("selectCodeTheme() error = %v", err)
		}
		if page.clicked("#nice-menu-codetheme-atomOneDark") != 1 {
			t.Errorf("clicks = %v, want the atomOneDark entry", page.clicks)
		}
	})

	t.Run("unknown theme is skipped", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		if err := newTestEditor(page).selectCodeTheme(context.Background(), "solarized"); err != nil {
			t.Fatalf("selectCodeTheme() error = %v, want nil", err)
		}
		if len(page.clicks) != 0 {
			t.Errorf("clicks = %v, want none", page.clicks)
		}
	})
}

// ---------------------------------------------------------------------------
// TestEditorController_SetMacStyle
// ---------------------------------------------------------------------------

func TestEditorController_SetMacStyle(t *testing.T) {
	t.Parallel()

	t.Run("matching state does not click the toggle", func(t *testing.T) {
		t.Parallel()

		page := newFakePage() // mac style starts enabled
		if err := newTestEditor(page).setMacStyle(context.Background(), true); err != nil {
			t.Fatalf("setMacStyle() error = %v", err)
		}
		if n := page.clicked(macToggleSelector); n != 0 {
			t.Errorf("toggle clicked %d times, want 0", n)
		}
		if !*page.macStyle {
			t.Error("mac style should stay enabled")
		}
	})

	t.Run("differing state clicks once and is idempotent", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		e := newTestEditor(page)
		for range 2 {
			if err := e.setMacStyle(context.Background(), false); err != nil {
				t.Fatalf("setMacStyle() error = %v", err)
			}
		}
		if n := page.clicked(macToggleSelector); n != 1 {
			t.Errorf("toggle clicked %d times, want 1", n)
		}
		if *page.macStyle {
			t.Error("mac style should be disabled")
		}
	})

	t.Run("missing toggle is a UIError", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.macStyle = nil

		err := newTestEditor(page).setMacStyle(context.Background(), true)
		if !errors.Is(err, ErrUI) {
			t.Errorf("error = %v, want ErrUI", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestEditorController_InjectContent
// ---------------------------------------------------------------------------

func TestEditorController_InjectContent(t *testing.T) {
	t.Parallel()

	t.Run("document holds the markdown", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		md := "# Title\n\nbody"
		if err := newTestEditor(page).injectContent(context.Background(), md); err != nil {
			t.Fatalf("injectContent() error = %v", err)
		}
		if page.markdown != md {
			t.Errorf("markdown = %q, want %q", page.markdown, md)
		}
	})

	t.Run("script failure is a UIError", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.injectErr = map[string]error{"bad": errors.New("CodeMirror instance not found")}

		err := newTestEditor(page).injectContent(context.Background(), "bad")
		if !errors.Is(err, ErrUI) {
			t.Errorf("error = %v, want ErrUI", err)
		}
	})

	t.Run("preview that never renders is not an error", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.previewLength = 10
		if err := newTestEditor(page).injectContent(context.Background(), "x"); err != nil {
			t.Errorf("injectContent() error = %v, want nil", err)
		}
	})
}

func TestEditorController_Clear(t *testing.T) {
	t.Parallel()

	page := newFakePage()
	e := newTestEditor(page)
	if err := e.injectContent(context.Background(), "first"); err != nil {
		t.Fatalf("injectContent() error = %v", err)
	}
	e.clear(context.Background())
	if page.markdown != "" {
		t.Errorf("markdown = %q after clear, want empty", page.markdown)
	}

	// A dead page is skipped without panicking.
	page.dead = true
	e.clear(context.Background())
}
