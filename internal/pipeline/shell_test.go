package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewShellRenderer_InvalidTemplate(t *testing.T) {
	t.Parallel()

	if _, err := NewShellRenderer("{{.Title"); err == nil {
		t.Error("expected parse error for unclosed action")
	}
}

func TestShellRenderer_Wrap(t *testing.T) {
	t.Parallel()

	shell, err := NewShellRenderer(`<html lang="{{.Lang}}"><title>{{.Title}} - {{.PlatformName}}</title>{{.Body}}</html>`)
	if err != nil {
		t.Fatalf("NewShellRenderer() error = %v", err)
	}

	t.Run("fragment is emitted verbatim and fields escaped", func(t *testing.T) {
		t.Parallel()

		got, err := shell.Wrap(context.Background(), `<section style="color: red">hi</section>`, ShellData{
			Title:        "A <b> title",
			PlatformName: "知乎",
		})
		if err != nil {
			t.Fatalf("Wrap() error = %v", err)
		}
		if !strings.Contains(got, `<section style="color: red">hi</section>`) {
			t.Errorf("fragment should be verbatim: %s", got)
		}
		if !strings.Contains(got, "A &lt;b&gt; title - 知乎") {
			t.Errorf("title should be escaped: %s", got)
		}
		if !strings.Contains(got, `lang="zh-CN"`) {
			t.Errorf("default language should be zh-CN: %s", got)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := shell.Wrap(ctx, "<p>x</p>", ShellData{}); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestShellRenderer_ExecutionError(t *testing.T) {
	t.Parallel()

	shell, err := NewShellRenderer(`{{.Missing}}`)
	if err != nil {
		t.Fatalf("NewShellRenderer() error = %v", err)
	}
	_, err = shell.Wrap(context.Background(), "<p>x</p>", ShellData{})
	if !errors.Is(err, ErrShellRender) {
		t.Errorf("error = %v, want ErrShellRender", err)
	}
}
