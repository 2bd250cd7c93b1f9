package mdnice

import (
	"slices"
	"testing"
)

func TestBuildEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		custom    []string
		wantURLs  []string
		wantKinds []EndpointKind
	}{
		{
			name:      "built-ins only",
			wantURLs:  []string{DefaultEditorURL, BackupEditorURL},
			wantKinds: []EndpointKind{EndpointDefault, EndpointBackup},
		},
		{
			name:      "custom first",
			custom:    []string{"http://localhost:3000/", "http://mirror/"},
			wantURLs:  []string{"http://localhost:3000/", "http://mirror/", DefaultEditorURL, BackupEditorURL},
			wantKinds: []EndpointKind{EndpointCustom, EndpointCustom, EndpointDefault, EndpointBackup},
		},
		{
			name:      "duplicates and blanks dropped",
			custom:    []string{"", BackupEditorURL, "http://a/", "http://a/"},
			wantURLs:  []string{BackupEditorURL, "http://a/", DefaultEditorURL},
			wantKinds: []EndpointKind{EndpointCustom, EndpointCustom, EndpointDefault},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := BuildEndpoints(tt.custom...)
			if !slices.Equal(got.URLs(), tt.wantURLs) {
				t.Errorf("URLs() = %v, want %v", got.URLs(), tt.wantURLs)
			}
			kinds := make([]EndpointKind, len(got))
			for i, ep := range got {
				kinds[i] = ep.Kind
			}
			if !slices.Equal(kinds, tt.wantKinds) {
				t.Errorf("kinds = %v, want %v", kinds, tt.wantKinds)
			}
		})
	}
}

func TestOriginOf(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://xiaoqiangclub.github.io/md/": "https://xiaoqiangclub.github.io",
		"http://localhost:3000/editor?x=1":    "http://localhost:3000",
		"not a url":                           "not a url",
	}
	for in, want := range tests {
		if got := originOf(in); got != want {
			t.Errorf("originOf(%q) = %q, want %q", in, got, want)
		}
	}
}
