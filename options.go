package mdnice

import (
	"log/slog"
	"time"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	headless   bool
	timeout    time.Duration
	retries    int
	editorURLs []string
	codeTheme  string
	macStyle   bool
	cleanHTML  bool

	uploadMode    UploadMode
	uploadModeSet bool

	assetPath string

	remoteURL   string
	remoteToken string
	protocol    Protocol
	proxy       *Proxy
}

// Defaults used when no option overrides them.
const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 1
)

// timings groups the fixed pauses the editor needs between interactions.
// Tests replace them with zero values.
type timings struct {
	settle       time.Duration // after the readiness marker appears
	backoff      time.Duration // between two endpoints
	retryDelay   time.Duration // between two attempts of a retried step
	menuOpen     time.Duration // after opening a menu
	themeApply   time.Duration // after choosing a theme
	codeApply    time.Duration // after choosing a code theme or toggling mac style
	renderStep   time.Duration // preview poll interval
	renderWait   time.Duration // preview poll ceiling
	captureWait  time.Duration // after clicking the copy control with the listener armed
	clipboardCDP time.Duration // after clicking before reading the clipboard
}

func defaultTimings() timings {
	return timings{
		settle:       3 * time.Second,
		backoff:      2 * time.Second,
		retryDelay:   defaultRetryDelay,
		menuOpen:     500 * time.Millisecond,
		themeApply:   1500 * time.Millisecond,
		codeApply:    time.Second,
		renderStep:   500 * time.Millisecond,
		renderWait:   10 * time.Second,
		captureWait:  1500 * time.Millisecond,
		clipboardCDP: time.Second,
	}
}

// WithHeadless sets whether a locally launched browser runs headless.
// Default: true.
func WithHeadless(headless bool) Option {
	return func(c *Converter) {
		c.cfg.headless = headless
	}
}

// WithTimeout bounds every wait on the editor page.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdnice: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithRetries sets the retry budget for session open, page load and
// extraction. A budget of n allows n+1 attempts.
// Panics if n < 0.
func WithRetries(n int) Option {
	if n < 0 {
		panic("mdnice: WithRetries count must not be negative")
	}
	return func(c *Converter) {
		c.cfg.retries = n
	}
}

// WithEditorURLs puts custom editor endpoints ahead of the built-in ones.
func WithEditorURLs(urls ...string) Option {
	return func(c *Converter) {
		c.cfg.editorURLs = append(c.cfg.editorURLs, urls...)
	}
}

// WithUploader enables image relocation before conversion.
// Panics if mode is not a valid UploadMode.
func WithUploader(u Uploader, mode UploadMode) Option {
	if err := mode.Validate(); err != nil {
		panic("mdnice: " + err.Error())
	}
	return func(c *Converter) {
		c.uploader = u
		c.cfg.uploadMode = mode
		c.cfg.uploadModeSet = true
	}
}

// WithUploadMode sets the relocation mode without an uploader. Conversion
// proceeds without relocation and a warning is recorded.
// Panics if mode is not a valid UploadMode.
func WithUploadMode(mode UploadMode) Option {
	if err := mode.Validate(); err != nil {
		panic("mdnice: " + err.Error())
	}
	return func(c *Converter) {
		c.cfg.uploadMode = mode
		c.cfg.uploadModeSet = true
	}
}

// WithCodeTheme sets the default code highlight theme.
// Unknown names are accepted and skipped at conversion time with a warning.
func WithCodeTheme(name string) Option {
	return func(c *Converter) {
		c.cfg.codeTheme = name
	}
}

// WithMacStyle sets the default state of mac-style code blocks.
// Default: true.
func WithMacStyle(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.macStyle = enabled
	}
}

// WithCleanHTML toggles removal of editor attribution attributes from the
// extracted HTML. Default: true.
func WithCleanHTML(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.cleanHTML = enabled
	}
}

// WithRemoteBrowser attaches to an already running browser service instead
// of launching one. token, if set, is appended as a query parameter.
// Panics if protocol is not a valid Protocol.
func WithRemoteBrowser(endpoint, token string, protocol Protocol) Option {
	if protocol == "" {
		protocol = ProtocolAuto
	}
	if err := protocol.Validate(); err != nil {
		panic("mdnice: " + err.Error())
	}
	return func(c *Converter) {
		c.cfg.remoteURL = endpoint
		c.cfg.remoteToken = token
		c.cfg.protocol = protocol
	}
}

// WithProxy routes browser traffic through a proxy.
func WithProxy(p Proxy) Option {
	return func(c *Converter) {
		c.cfg.proxy = &p
	}
}

// WithAssetPath sets a directory whose templates/document.html overrides the
// built-in document shell used for wrapped output.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithNotifier registers a receiver for error notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Converter) {
		c.notifier = n
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSourceResolver replaces the default FileResolver.
func WithSourceResolver(r SourceResolver) Option {
	return func(c *Converter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// withSessions injects a session opener (tests).
func withSessions(s sessionOpener) Option {
	return func(c *Converter) {
		c.sessions = s
	}
}

// withTimings replaces the interaction pauses (tests).
func withTimings(t timings) Option {
	return func(c *Converter) {
		c.timings = t
	}
}
