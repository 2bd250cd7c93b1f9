package mdnice

import (
	"testing"
	"time"
)

func TestOutputName(t *testing.T) {
	t.Parallel()

	now := time.Unix(1760000000, 0)
	tests := []struct {
		name     string
		platform Platform
		source   string
		want     string
	}{
		{name: "file stem", platform: PlatformWechat, source: "/docs/post.md", want: "post_wechat.html"},
		{name: "markdown extension", platform: PlatformZhihu, source: "notes.markdown", want: "notes_zhihu.html"},
		{name: "dotted stem", platform: PlatformJuejin, source: "v1.2-release.md", want: "v1.2-release_juejin.html"},
		{name: "raw content", platform: PlatformWechat, source: "", want: "article_wechat_1760000000.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := OutputName(tt.platform, tt.source, now); got != tt.want {
				t.Errorf("OutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputWriter_Unique(t *testing.T) {
	t.Parallel()

	w := newOutputWriter(t.TempDir(), nil)
	got := []string{w.unique("a.html"), w.unique("a.html"), w.unique("a.html"), w.unique("a_2.html")}
	want := []string{"a.html", "a_2.html", "a_3.html", "a_2_2.html"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unique #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		source   string
		want     string
	}{
		{name: "first heading", markdown: "intro\n\n# Heading", source: "/x/file.md", want: "Heading"},
		{name: "source stem", markdown: "no heading", source: "/x/file.md", want: "file"},
		{name: "generic", markdown: "no heading", want: "文章"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := documentTitle(tt.markdown, tt.source); got != tt.want {
				t.Errorf("documentTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
