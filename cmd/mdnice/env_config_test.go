package main

// Notes:
// - loadEnvConfig: we test the variables of each tier. Invalid or negative
//   values for timeout and workers are ignored, not errors.
// - warnUnknownEnvVars: we test typo detection and that known vars don't warn.
// - applyEnvConfig: we test that env never overrides a config value.
// - Tests use t.Setenv() which prevents t.Parallel() at parent level.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdnice/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Run("Tier 1 - Essential", func(t *testing.T) {
		t.Setenv("MDNICE_CONFIG", "/path/to/config.yaml")
		t.Setenv("MDNICE_PLATFORMS", "wechat, juejin,")
		t.Setenv("MDNICE_THEME", "rose,ink")
		t.Setenv("MDNICE_TIMEOUT", "2m")

		cfg := loadEnvConfig()

		if cfg.ConfigPath != "/path/to/config.yaml" {
			t.Errorf("ConfigPath = %q, want /path/to/config.yaml", cfg.ConfigPath)
		}
		if !slices.Equal(cfg.Platforms, []string{"wechat", "juejin"}) {
			t.Errorf("Platforms = %v, want [wechat juejin]", cfg.Platforms)
		}
		if cfg.Theme != "rose,ink" {
			t.Errorf("Theme = %q, want rose,ink", cfg.Theme)
		}
		if cfg.Timeout != 2*time.Minute {
			t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
		}
	})

	t.Run("Tier 2 - I/O and browser placement", func(t *testing.T) {
		t.Setenv("MDNICE_INPUT_DIR", "/input")
		t.Setenv("MDNICE_OUTPUT_DIR", "/output")
		t.Setenv("MDNICE_REMOTE_URL", "wss://chrome.example.com")
		t.Setenv("MDNICE_REMOTE_TOKEN", "secret")
		t.Setenv("MDNICE_PROTOCOL", "cdp")
		t.Setenv("MDNICE_PROXY", "http://proxy:8080")

		cfg := loadEnvConfig()

		if cfg.InputDir != "/input" || cfg.OutputDir != "/output" {
			t.Errorf("dirs = %q %q", cfg.InputDir, cfg.OutputDir)
		}
		if cfg.RemoteURL != "wss://chrome.example.com" || cfg.RemoteToken != "secret" {
			t.Errorf("remote = %q %q", cfg.RemoteURL, cfg.RemoteToken)
		}
		if cfg.Protocol != "cdp" || cfg.Proxy != "http://proxy:8080" {
			t.Errorf("protocol/proxy = %q %q", cfg.Protocol, cfg.Proxy)
		}
	})

	t.Run("Tier 3 - Extended", func(t *testing.T) {
		t.Setenv("MDNICE_CODE_THEME", "github")
		t.Setenv("MDNICE_EDITOR_URL", "http://localhost:3000/")
		t.Setenv("MDNICE_ASSET_PATH", "/assets")
		t.Setenv("MDNICE_WORKERS", "3")

		cfg := loadEnvConfig()

		if cfg.CodeTheme != "github" || cfg.EditorURL != "http://localhost:3000/" {
			t.Errorf("extended = %q %q", cfg.CodeTheme, cfg.EditorURL)
		}
		if cfg.AssetPath != "/assets" {
			t.Errorf("AssetPath = %q, want /assets", cfg.AssetPath)
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3", cfg.Workers)
		}
	})

	t.Run("invalid numbers are ignored", func(t *testing.T) {
		t.Setenv("MDNICE_TIMEOUT", "soon")
		t.Setenv("MDNICE_WORKERS", "-2")

		cfg := loadEnvConfig()

		if cfg.Timeout != 0 {
			t.Errorf("Timeout = %v, want 0", cfg.Timeout)
		}
		if cfg.Workers != 0 {
			t.Errorf("Workers = %d, want 0", cfg.Workers)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("MDNICE_THEMES", "rose")
	t.Setenv("MDNICE_THEME", "rose")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	out := buf.String()
	if !strings.Contains(out, "MDNICE_THEMES") {
		t.Errorf("output %q should warn about MDNICE_THEMES", out)
	}
	if strings.Contains(out, "MDNICE_THEME ") || strings.Contains(out, "MDNICE_THEME\n") {
		t.Errorf("output %q should not warn about a known variable", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Priority over config file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("fills empty fields", func(t *testing.T) {
		t.Parallel()

		env := &envConfig{
			Platforms:   []string{"zhihu"},
			Theme:       "ink",
			Timeout:     90 * time.Second,
			RemoteURL:   "ws://host:9222",
			RemoteToken: "tok",
			EditorURL:   "http://localhost:3000/",
		}
		cfg := config.DefaultConfig()
		applyEnvConfig(env, cfg)

		if !slices.Equal(cfg.Platforms, []string{"zhihu"}) || cfg.Theme != "ink" {
			t.Errorf("styling = %v %q", cfg.Platforms, cfg.Theme)
		}
		if cfg.Editor.Timeout != "1m30s" {
			t.Errorf("Editor.Timeout = %q, want 1m30s", cfg.Editor.Timeout)
		}
		if cfg.Browser.RemoteURL != "ws://host:9222" || cfg.Browser.Token != "tok" {
			t.Errorf("browser = %+v", cfg.Browser)
		}
		if !slices.Equal(cfg.Editor.URLs, []string{"http://localhost:3000/"}) {
			t.Errorf("Editor.URLs = %v", cfg.Editor.URLs)
		}
	})

	t.Run("config values win", func(t *testing.T) {
		t.Parallel()

		env := &envConfig{Theme: "ink", OutputDir: "/env-out", CodeTheme: "github"}
		cfg := &config.Config{Theme: "rose", CodeTheme: "monokai"}
		cfg.Output.DefaultDir = "/cfg-out"
		applyEnvConfig(env, cfg)

		if cfg.Theme != "rose" || cfg.CodeTheme != "monokai" || cfg.Output.DefaultDir != "/cfg-out" {
			t.Errorf("config was overridden: %q %q %q", cfg.Theme, cfg.CodeTheme, cfg.Output.DefaultDir)
		}
	})
}
