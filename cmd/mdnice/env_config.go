package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdnice/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files, and keeps
// secrets such as the remote token out of process arguments.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MDNICE_CONFIG: config file path
	Platforms  []string      // MDNICE_PLATFORMS: comma-separated platforms
	Theme      string        // MDNICE_THEME: theme selector
	Timeout    time.Duration // MDNICE_TIMEOUT: per-step timeout

	// Tier 2 - I/O and browser placement
	InputDir    string // MDNICE_INPUT_DIR: default input directory
	OutputDir   string // MDNICE_OUTPUT_DIR: default output directory
	RemoteURL   string // MDNICE_REMOTE_URL: remote browser endpoint
	RemoteToken string // MDNICE_REMOTE_TOKEN: remote browser token
	Protocol    string // MDNICE_PROTOCOL: auto, cdp, managed
	Proxy       string // MDNICE_PROXY: proxy server

	// Tier 3 - Extended
	CodeTheme string // MDNICE_CODE_THEME: code highlight theme
	EditorURL string // MDNICE_EDITOR_URL: custom editor endpoint
	AssetPath string // MDNICE_ASSET_PATH: document shell override directory
	Workers   int    // MDNICE_WORKERS: parallel platforms
}

// knownEnvVars lists valid MDNICE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDNICE_CONFIG":    true,
	"MDNICE_PLATFORMS": true,
	"MDNICE_THEME":     true,
	"MDNICE_TIMEOUT":   true,
	// Tier 2 - I/O and browser placement
	"MDNICE_INPUT_DIR":    true,
	"MDNICE_OUTPUT_DIR":   true,
	"MDNICE_REMOTE_URL":   true,
	"MDNICE_REMOTE_TOKEN": true,
	"MDNICE_PROTOCOL":     true,
	"MDNICE_PROXY":        true,
	// Tier 3 - Extended
	"MDNICE_CODE_THEME": true,
	"MDNICE_EDITOR_URL": true,
	"MDNICE_ASSET_PATH": true,
	"MDNICE_WORKERS":    true,
	"MDNICE_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MDNICE_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MDNICE_CONFIG"),
		Theme:      os.Getenv("MDNICE_THEME"),
		// Tier 2
		InputDir:    os.Getenv("MDNICE_INPUT_DIR"),
		OutputDir:   os.Getenv("MDNICE_OUTPUT_DIR"),
		RemoteURL:   os.Getenv("MDNICE_REMOTE_URL"),
		RemoteToken: os.Getenv("MDNICE_REMOTE_TOKEN"),
		Protocol:    os.Getenv("MDNICE_PROTOCOL"),
		Proxy:       os.Getenv("MDNICE_PROXY"),
		// Tier 3
		CodeTheme: os.Getenv("MDNICE_CODE_THEME"),
		EditorURL: os.Getenv("MDNICE_EDITOR_URL"),
		AssetPath: os.Getenv("MDNICE_ASSET_PATH"),
	}

	if platforms := os.Getenv("MDNICE_PLATFORMS"); platforms != "" {
		for _, p := range strings.Split(platforms, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Platforms = append(cfg.Platforms, p)
			}
		}
	}

	// Parse duration for timeout
	if timeout := os.Getenv("MDNICE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := os.Getenv("MDNICE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDNICE_* variables.
// Helps catch typos like MDNICE_THEMES instead of MDNICE_THEME.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDNICE_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if len(env.Platforms) > 0 && len(cfg.Platforms) == 0 {
		cfg.Platforms = env.Platforms
	}
	if env.Theme != "" && cfg.Theme == "" {
		cfg.Theme = env.Theme
	}
	if env.Timeout > 0 && cfg.Editor.Timeout == "" {
		cfg.Editor.Timeout = env.Timeout.String()
	}

	// Tier 2 - I/O
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}

	// Tier 2 - Browser placement
	if env.RemoteURL != "" && cfg.Browser.RemoteURL == "" {
		cfg.Browser.RemoteURL = env.RemoteURL
	}
	if env.RemoteToken != "" && cfg.Browser.Token == "" {
		cfg.Browser.Token = env.RemoteToken
	}
	if env.Protocol != "" && cfg.Browser.Protocol == "" {
		cfg.Browser.Protocol = env.Protocol
	}
	if env.Proxy != "" && cfg.Proxy.Server == "" {
		cfg.Proxy.Server = env.Proxy
	}

	// Tier 3
	if env.CodeTheme != "" && cfg.CodeTheme == "" {
		cfg.CodeTheme = env.CodeTheme
	}
	if env.EditorURL != "" && len(cfg.Editor.URLs) == 0 {
		cfg.Editor.URLs = []string{env.EditorURL}
	}
	if env.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = env.AssetPath
	}
}
