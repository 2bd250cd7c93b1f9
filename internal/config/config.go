// Package config loads the CLI's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxInputSize limits config files to prevent memory exhaustion (1MB).
const MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxURLLength       = 2048 // Browser limit
	MaxTokenLength     = 512
	MaxNameLength      = 100 // theme, code theme, platform names
	MaxThemeListLength = 1000
	MaxPathLength      = 4096
	MaxHeaderLength    = 1024
)

// Accepted enumerations, mirrored from the library so the file can be
// checked before any browser starts.
var (
	validPlatforms   = []string{"wechat", "zhihu", "juejin"}
	validProtocols   = []string{"", "auto", "cdp", "managed"}
	validUploadModes = []string{"", "local", "remote", "all"}
	validUploaders   = []string{"", "none", "store", "http"}
)

// Config holds all configuration for a conversion run.
type Config struct {
	Platforms []string      `yaml:"platforms"` // default: [wechat]
	Theme     string        `yaml:"theme"`     // name, "random", or comma-separated candidates
	CodeTheme string        `yaml:"codeTheme"` // empty = library default
	MacStyle  *bool         `yaml:"macStyle"`  // nil = library default (true)
	CleanHTML *bool         `yaml:"cleanHTML"` // nil = library default (true)
	Wrap      bool          `yaml:"wrap"`      // wrap saved HTML in a document shell
	Input     InputConfig   `yaml:"input"`
	Output    OutputConfig  `yaml:"output"`
	Editor    EditorConfig  `yaml:"editor"`
	Browser   BrowserConfig `yaml:"browser"`
	Proxy     ProxyConfig   `yaml:"proxy"`
	Images    ImagesConfig  `yaml:"images"`
	Assets    AssetsConfig  `yaml:"assets"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = print HTML to stdout
}

// EditorConfig defines the editor endpoints and timing.
type EditorConfig struct {
	URLs    []string `yaml:"urls"`    // tried before the built-in endpoints
	Timeout string   `yaml:"timeout"` // Go duration, e.g. "45s"
	Retries *int     `yaml:"retries"` // nil = library default (1)
}

// BrowserConfig defines where the browser runs.
type BrowserConfig struct {
	Headless  *bool  `yaml:"headless"`  // nil = true
	RemoteURL string `yaml:"remoteURL"` // empty = launch locally
	Token     string `yaml:"token"`
	Protocol  string `yaml:"protocol"` // auto, cdp, managed
}

// ProxyConfig defines the browser proxy.
type ProxyConfig struct {
	Server   string   `yaml:"server"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Bypass   []string `yaml:"bypass"`
}

// ImagesConfig defines image relocation.
type ImagesConfig struct {
	Uploader  string            `yaml:"uploader"` // none, store, http
	Mode      string            `yaml:"mode"`     // local, remote, all
	RateLimit float64           `yaml:"rateLimit"`
	Burst     int               `yaml:"burst"`
	Store     StoreConfig       `yaml:"store"`
	HTTP      HTTPUploadConfig  `yaml:"http"`
	Headers   map[string]string `yaml:"headers"` // sent with every HTTP upload
}

// StoreConfig configures the local image store.
type StoreConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"baseURL"`
}

// HTTPUploadConfig configures a multipart image host.
type HTTPUploadConfig struct {
	Endpoint  string `yaml:"endpoint"`
	FileField string `yaml:"fileField"`
	URLPath   string `yaml:"urlPath"` // dotted path to the URL in the JSON response, e.g. "data.url"
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded document shell
}

// TimeoutDuration parses Editor.Timeout. An empty value returns 0.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Editor.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Editor.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: editor.timeout %q (must be a positive duration)", ErrInvalidValue, c.Editor.Timeout)
	}
	return d, nil
}

// Validate checks field lengths and enumerations.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	for i, p := range c.Platforms {
		if !slices.Contains(validPlatforms, strings.ToLower(p)) {
			return fmt.Errorf("%w: platforms[%d] %q (must be wechat, zhihu, or juejin)", ErrInvalidValue, i, p)
		}
	}
	if err := validateFieldLength("theme", c.Theme, MaxThemeListLength); err != nil {
		return err
	}
	if err := validateFieldLength("codeTheme", c.CodeTheme, MaxNameLength); err != nil {
		return err
	}

	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	for i, u := range c.Editor.URLs {
		if err := validateFieldLength(fmt.Sprintf("editor.urls[%d]", i), u, MaxURLLength); err != nil {
			return err
		}
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.Editor.Retries != nil && *c.Editor.Retries < 0 {
		return fmt.Errorf("%w: editor.retries %d (must be >= 0)", ErrInvalidValue, *c.Editor.Retries)
	}

	if err := validateFieldLength("browser.remoteURL", c.Browser.RemoteURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.token", c.Browser.Token, MaxTokenLength); err != nil {
		return err
	}
	if err := validateEnum("browser.protocol", c.Browser.Protocol, validProtocols); err != nil {
		return err
	}

	if err := validateFieldLength("proxy.server", c.Proxy.Server, MaxURLLength); err != nil {
		return err
	}
	if c.Proxy.Server == "" && (c.Proxy.Username != "" || len(c.Proxy.Bypass) > 0) {
		return fmt.Errorf("%w: proxy.server is required when proxy credentials or bypass are set", ErrInvalidValue)
	}

	return c.validateImages()
}

func (c *Config) validateImages() error {
	img := c.Images
	if err := validateEnum("images.uploader", img.Uploader, validUploaders); err != nil {
		return err
	}
	if err := validateEnum("images.mode", img.Mode, validUploadModes); err != nil {
		return err
	}
	if img.RateLimit < 0 {
		return fmt.Errorf("%w: images.rateLimit %.2f (must be >= 0)", ErrInvalidValue, img.RateLimit)
	}
	if err := validateFieldLength("images.store.dir", img.Store.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("images.store.baseURL", img.Store.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("images.http.endpoint", img.HTTP.Endpoint, MaxURLLength); err != nil {
		return err
	}
	for k, v := range img.Headers {
		if err := validateFieldLength("images.headers."+k, v, MaxHeaderLength); err != nil {
			return err
		}
	}

	switch strings.ToLower(img.Uploader) {
	case "store":
		if img.Store.Dir == "" || img.Store.BaseURL == "" {
			return fmt.Errorf("%w: images.store.dir and images.store.baseURL are required for the store uploader", ErrInvalidValue)
		}
	case "http":
		if img.HTTP.Endpoint == "" || img.HTTP.URLPath == "" {
			return fmt.Errorf("%w: images.http.endpoint and images.http.urlPath are required for the http uploader", ErrInvalidValue)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateEnum(fieldName, value string, allowed []string) error {
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed[1:], ", "))
}

// DefaultConfig returns a configuration that leaves every choice to the
// library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// decodeStrict parses YAML, rejecting unknown fields and oversized input.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("empty config")
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("input is %d bytes (max %d)", len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths returns the locations LoadConfig tries for a config name:
// the current directory, then the user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-mdnice", name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
