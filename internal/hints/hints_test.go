package hints

// Notes:
// - ForBrowserLaunch tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// TestForBrowserLaunch
// ---------------------------------------------------------------------------

func TestForBrowserLaunch_InCI(t *testing.T) {
	stubContainer(t, false)
	clearCIEnv(t)
	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserLaunch()

	if !strings.HasPrefix(hint, "\n  hint: ") {
		t.Errorf("hint %q should start with the hint prefix", hint)
	}
	if !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in CI")
	}
	if !strings.Contains(hint, "ROD_BROWSER_BIN") {
		t.Error("expected ROD_BROWSER_BIN suggestion")
	}
	if !strings.Contains(hint, "--remote") {
		t.Error("expected remote browser suggestion")
	}
}

func TestForBrowserLaunch_InDocker(t *testing.T) {
	stubContainer(t, true)
	clearCIEnv(t)
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	if hint := ForBrowserLaunch(); !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in Docker")
	}
}

func TestForBrowserLaunch_EnvAlreadySet(t *testing.T) {
	stubContainer(t, true)
	clearCIEnv(t)
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chrome")

	hint := ForBrowserLaunch()

	if strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("should not suggest ROD_NO_SANDBOX when already set")
	}
	if strings.Contains(hint, "ROD_BROWSER_BIN") {
		t.Error("should not suggest ROD_BROWSER_BIN when already set")
	}
}

// ---------------------------------------------------------------------------
// Other hints
// ---------------------------------------------------------------------------

func TestForRemoteBrowser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		endpoint   string
		wantScheme bool
	}{
		{name: "with scheme", endpoint: "ws://localhost:3000", wantScheme: false},
		{name: "without scheme", endpoint: "localhost:3000", wantScheme: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForRemoteBrowser(tt.endpoint)
			if got := strings.Contains(hint, "include the scheme"); got != tt.wantScheme {
				t.Errorf("scheme hint present = %v, want %v (%q)", got, tt.wantScheme, hint)
			}
			if !strings.Contains(hint, "--protocol") {
				t.Errorf("hint %q should mention --protocol", hint)
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	hint := ForConfigNotFound([]string{"work.yaml", "/home/u/.config/go-mdnice/work.yaml"})
	if !strings.Contains(hint, "--config") {
		t.Error("expected --config suggestion")
	}
	if !strings.Contains(hint, "/home/u/.config/go-mdnice/work.yaml") {
		t.Error("expected user config path suggestion")
	}
}

func TestForThemeNotFound(t *testing.T) {
	t.Parallel()

	if hint := ForThemeNotFound(nil); hint != "" {
		t.Errorf("ForThemeNotFound(nil) = %q, want empty", hint)
	}
	if hint := ForThemeNotFound([]string{"normal", "rose"}); !strings.Contains(hint, "normal, rose") {
		t.Errorf("ForThemeNotFound() = %q, want list", hint)
	}
}

func TestStaticHints(t *testing.T) {
	t.Parallel()

	for name, hint := range map[string]string{
		"timeout":     ForTimeout(),
		"editor load": ForEditorLoad(),
		"output dir":  ForOutputDirectory(),
	} {
		if !strings.HasPrefix(hint, "\n  hint: ") {
			t.Errorf("%s hint %q lacks prefix", name, hint)
		}
	}
}

func TestFormatHints_Empty(t *testing.T) {
	t.Parallel()

	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
}
