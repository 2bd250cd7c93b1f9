package mdnice

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Platform selects which "copy for platform" control the editor exposes.
type Platform string

// Supported platforms.
const (
	PlatformWechat Platform = "wechat"
	PlatformZhihu  Platform = "zhihu"
	PlatformJuejin Platform = "juejin"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformWechat, PlatformZhihu, PlatformJuejin}

// Validate checks that p is a known platform.
func (p Platform) Validate() error {
	if slices.Contains(Platforms, p) {
		return nil
	}
	return fmt.Errorf("%w: %q (must be wechat, zhihu, or juejin)", ErrInvalidPlatform, string(p))
}

// ParsePlatform parses a platform name (case-insensitive).
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// DisplayName returns the platform's name as its users know it.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformWechat:
		return "微信公众号"
	case PlatformZhihu:
		return "知乎"
	case PlatformJuejin:
		return "稀土掘金"
	default:
		return string(p)
	}
}

// copyButtonID returns the DOM id of the platform's copy control.
func (p Platform) copyButtonID() string {
	return "nice-sidebar-" + string(p)
}

// Themes lists the editor's article themes.
var Themes = []string{
	"normal", "shanchui", "rose", "fullStackBlue", "nightPurple",
	"cuteGreen", "extremeBlack", "orangeHeart", "ink", "purple",
	"green", "cyan", "wechatFormat", "blueCyan", "blueMountain",
	"geekBlack", "red", "blue", "scienceBlue", "simple",
}

// DefaultTheme is used when a request leaves the theme empty.
const DefaultTheme = "normal"

// ThemeRandom asks for a random theme among all known themes.
const ThemeRandom = "random"

// ThemeSelector picks the article theme for one item.
//
// A single Name selects that theme. Candidates selects one of them at
// random. Name == ThemeRandom (or Any) selects any known theme at random.
type ThemeSelector struct {
	Name       string
	Candidates []string
	Any        bool
}

// Theme returns a selector for a single theme.
func Theme(name string) ThemeSelector { return ThemeSelector{Name: name} }

// ThemeFrom returns a selector choosing randomly among candidates.
func ThemeFrom(candidates ...string) ThemeSelector { return ThemeSelector{Candidates: candidates} }

// AnyTheme returns a selector choosing randomly among all themes.
func AnyTheme() ThemeSelector { return ThemeSelector{Any: true} }

// Validate checks that the selector can resolve to a known theme.
func (s ThemeSelector) Validate() error {
	_, err := s.resolve(func(n int) int { return 0 })
	return err
}

// Pick resolves the selector to a theme name.
func (s ThemeSelector) Pick() (string, error) {
	return s.resolve(rand.IntN)
}

func (s ThemeSelector) resolve(intn func(int) int) (string, error) {
	switch {
	case s.Any || s.Name == ThemeRandom:
		return Themes[intn(len(Themes))], nil
	case len(s.Candidates) > 0:
		valid := make([]string, 0, len(s.Candidates))
		for _, c := range s.Candidates {
			if slices.Contains(Themes, c) {
				valid = append(valid, c)
			}
		}
		if len(valid) == 0 {
			return "", fmt.Errorf("%w: none of %v is a known theme", ErrInvalidTheme, s.Candidates)
		}
		return valid[intn(len(valid))], nil
	case s.Name == "":
		return DefaultTheme, nil
	case slices.Contains(Themes, s.Name):
		return s.Name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s.Name)
	}
}

// ParseThemeSelector parses the CLI/config form: "random", a single name, or
// a comma-separated candidate list.
func ParseThemeSelector(s string) ThemeSelector {
	s = strings.TrimSpace(s)
	if s == ThemeRandom {
		return AnyTheme()
	}
	if strings.Contains(s, ",") {
		var names []string
		for _, n := range strings.Split(s, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		return ThemeFrom(names...)
	}
	return Theme(s)
}

// codeThemeIDs maps code highlight theme names to their menu entry ids.
var codeThemeIDs = map[string]string{
	"wechat":         "nice-menu-codetheme-wechat",
	"atom-one-dark":  "nice-menu-codetheme-atomOneDark",
	"atom-one-light": "nice-menu-codetheme-atomOneLight",
	"monokai":        "nice-menu-codetheme-monokai",
	"github":         "nice-menu-codetheme-github",
	"vs2015":         "nice-menu-codetheme-vs2015",
	"xcode":          "nice-menu-codetheme-xcode",
}

// DefaultCodeTheme is the code highlight theme used when none is configured.
const DefaultCodeTheme = "atom-one-dark"

// CodeThemes returns the known code highlight theme names, sorted.
func CodeThemes() []string {
	names := make([]string, 0, len(codeThemeIDs))
	for n := range codeThemeIDs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// IsCodeTheme reports whether name is a known code highlight theme.
func IsCodeTheme(name string) bool {
	_, ok := codeThemeIDs[name]
	return ok
}

// UploadMode decides which image references are handed to the Uploader.
type UploadMode string

// Upload modes.
const (
	UploadLocal  UploadMode = "local"  // local files only
	UploadRemote UploadMode = "remote" // network URLs only
	UploadAll    UploadMode = "all"    // everything, including inline data
)

// Validate checks that m is a known upload mode.
func (m UploadMode) Validate() error {
	switch m {
	case UploadLocal, UploadRemote, UploadAll:
		return nil
	}
	return fmt.Errorf("%w: %q (must be local, remote, or all)", ErrInvalidUploadMode, string(m))
}

// Protocol selects how a remote browser is attached to.
type Protocol string

// Remote browser protocols.
const (
	ProtocolAuto    Protocol = "auto"    // detect from the endpoint string
	ProtocolCDP     Protocol = "cdp"     // DevTools websocket (browserless, chrome --remote-debugging-port)
	ProtocolManaged Protocol = "managed" // rod launcher manager service
)

// Validate checks that p is a known protocol.
func (p Protocol) Validate() error {
	switch p {
	case ProtocolAuto, ProtocolCDP, ProtocolManaged:
		return nil
	}
	return fmt.Errorf("%w: %q (must be auto, cdp, or managed)", ErrInvalidProtocol, string(p))
}

// Proxy configures the browser's outbound proxy.
type Proxy struct {
	Server   string   // e.g. "http://proxy.example.com:8080"
	Username string   // optional
	Password string   // optional
	Bypass   []string // hosts that skip the proxy
}

// enabled reports whether a proxy server is configured.
func (p *Proxy) enabled() bool {
	return p != nil && p.Server != ""
}

// Request describes one Markdown item to convert.
type Request struct {
	Markdown  string        // raw Markdown (used when Source is empty)
	Source    string        // path-like input resolved by the SourceResolver
	Platform  Platform      // target platform (default wechat)
	Theme     ThemeSelector // article theme
	CodeTheme string        // code highlight theme (empty = converter default)
	MacStyle  *bool         // mac-style code blocks (nil = converter default)
	Wrap      bool          // wrap saved output in a standalone document shell
}

// Result holds the outcome of one successful item.
type Result struct {
	Index    int          // 1-based position in the batch
	HTML     string       // extracted, cleaned HTML
	Path     string       // saved file path (empty when no output directory)
	Strategy string       // extraction strategy that produced HTML
	Theme    string       // theme actually applied
	Images   RewriteStats // image relocation summary
}

// Failure records one item that could not be converted.
type Failure struct {
	Index int // 1-based position in the batch
	Err   error
}

// BatchOutcome holds the results of a batch in input order alongside the
// items that failed. len(Results)+len(Failures) equals the number of inputs.
type BatchOutcome struct {
	Results  []Result
	Failures []Failure
}

// HTML returns the HTML of every successful item in input order.
func (o *BatchOutcome) HTML() []string {
	out := make([]string, len(o.Results))
	for i, r := range o.Results {
		out[i] = r.HTML
	}
	return out
}

// Paths returns the saved file paths of every successful item.
func (o *BatchOutcome) Paths() []string {
	out := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		if r.Path != "" {
			out = append(out, r.Path)
		}
	}
	return out
}
