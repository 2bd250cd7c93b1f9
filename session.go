package mdnice

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdnice/internal/process"
)

// Viewport applied to every editor page.
const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// sessionOpener opens one browser session per batch.
type sessionOpener interface {
	Open(ctx context.Context) (*session, error)
}

// session owns one editor page and everything needed to tear it down.
type session struct {
	page   editorPage
	remote bool
	log    *slog.Logger

	mu    sync.Mutex
	steps []teardownStep
	once  sync.Once
}

type teardownStep struct {
	name string
	fn   func() error
}

func newSession(page editorPage, remote bool, log *slog.Logger) *session {
	return &session{page: page, remote: remote, log: log}
}

// onClose registers a teardown step. Steps run in reverse registration order.
func (s *session) onClose(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, teardownStep{name: name, fn: fn})
}

// Close runs the teardown chain once. A failing step is logged and does not
// stop the remaining steps.
func (s *session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		steps := s.steps
		s.steps = nil
		s.mu.Unlock()

		for i := len(steps) - 1; i >= 0; i-- {
			step := steps[i]
			if err := runStep(step.fn); err != nil {
				s.log.Warn("teardown step failed", "step", step.name, "err", err)
				continue
			}
			s.log.Debug("teardown step done", "step", step.name)
		}
	})
}

// runStep calls fn, turning a panic into an error.
func runStep(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// rodSessions opens sessions on a local or remote browser through rod.
type rodSessions struct {
	headless  bool
	remoteURL string
	token     string
	protocol  Protocol
	proxy     *Proxy
	log       *slog.Logger
}

var _ sessionOpener = (*rodSessions)(nil)

// Open implements sessionOpener. Errors match ErrSession.
func (r *rodSessions) Open(ctx context.Context) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.remoteURL != "" {
		return r.openRemote(ctx)
	}
	return r.openLocal(ctx)
}

// openLocal launches a browser on this machine.
func (r *rodSessions) openLocal(ctx context.Context) (*session, error) {
	l := r.localLauncher()
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launching browser: %v", ErrSession, err)
	}
	pid := l.PID()

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := newSession(nil, false, r.log)
	s.onClose("launcher", func() error {
		cancel()
		l.Kill()
		// Chrome spawns helpers that may outlive the main process.
		return process.KillProcessGroup(pid)
	})

	browser := rod.New().ControlURL(u).Context(connCtx)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: connecting to browser: %v", ErrSession, err)
	}
	s.onClose("browser", browser.Close)
	r.answerProxyAuth(connCtx, browser)

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: opening page: %v", ErrSession, err)
	}
	s.onClose("page", page.Close)

	rp := &rodPage{page: page, browser: browser}
	if err := rp.GrantClipboard(ctx, ""); err != nil {
		r.log.Debug("clipboard permission not granted", "err", err)
	}
	r.setViewport(page)
	s.page = rp
	r.log.Info("browser session opened", "topology", "local", "headless", r.headless, "proxy", r.proxy.enabled())
	return s, nil
}

// localLauncher configures the launcher for the local topology.
func (r *rodSessions) localLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(r.headless).
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	if r.proxy.enabled() {
		l = l.Proxy(r.proxy.Server)
		if len(r.proxy.Bypass) > 0 {
			l = l.Set(flags.Flag("proxy-bypass-list"), strings.Join(r.proxy.Bypass, ";"))
		}
	}
	return l
}

// openRemote attaches to a browser service. With ProtocolAuto the detected
// protocol is tried first and the other one once on failure.
func (r *rodSessions) openRemote(ctx context.Context) (*session, error) {
	endpoint := withToken(r.remoteURL, r.token)
	primary := r.protocol
	if primary == "" || primary == ProtocolAuto {
		primary = detectProtocol(r.remoteURL)
	}

	s, err := r.attach(ctx, endpoint, primary)
	if err == nil {
		return s, nil
	}
	if r.protocol != "" && r.protocol != ProtocolAuto {
		return nil, fmt.Errorf("%w: %s attach to %s: %v", ErrSession, primary, redactToken(endpoint), err)
	}

	secondary := otherProtocol(primary)
	r.log.Warn("remote attach failed, trying other protocol",
		"protocol", primary, "fallback", secondary, "err", err)
	s, err2 := r.attach(ctx, endpoint, secondary)
	if err2 != nil {
		return nil, fmt.Errorf("%w: attach to %s: %s: %v; %s: %v",
			ErrSession, redactToken(endpoint), primary, err, secondary, err2)
	}
	return s, nil
}

// attach connects with one protocol and prepares the page.
func (r *rodSessions) attach(ctx context.Context, endpoint string, p Protocol) (*session, error) {
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := newSession(nil, true, r.log)
	s.onClose("connection", func() error { cancel(); return nil })

	var browser *rod.Browser
	switch p {
	case ProtocolManaged:
		l, err := launcher.NewManaged(endpoint)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("managed launcher: %w", err)
		}
		client, err := l.Headless(r.headless).Client()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("managed client: %w", err)
		}
		browser = rod.New().Client(client).Context(connCtx)
	default:
		u, err := resolveControlURL(endpoint)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("resolving control url: %w", err)
		}
		browser = rod.New().ControlURL(u).Context(connCtx)
	}

	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	if p == ProtocolManaged {
		// The manager launched this browser for us alone.
		s.onClose("browser", browser.Close)
	}
	r.answerProxyAuth(connCtx, browser)

	rp, err := r.remotePage(browser, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	r.setViewport(rp.page)
	s.page = rp
	r.log.Info("browser session opened", "topology", "remote", "protocol", p, "proxy", r.proxy.enabled())
	return s, nil
}

// remotePage picks the page to drive. Without a proxy the service's first
// existing page is reused; with one, a fresh browser context carries the
// proxy settings and is disposed at teardown.
func (r *rodSessions) remotePage(browser *rod.Browser, s *session) (*rodPage, error) {
	if r.proxy.enabled() {
		bc, err := proto.TargetCreateBrowserContext{
			ProxyServer:     r.proxy.Server,
			ProxyBypassList: strings.Join(r.proxy.Bypass, ","),
		}.Call(browser)
		if err != nil {
			return nil, fmt.Errorf("creating browser context: %w", err)
		}
		id := bc.BrowserContextID
		s.onClose("browser context", func() error {
			return proto.TargetDisposeBrowserContext{BrowserContextID: id}.Call(browser)
		})

		target, err := proto.TargetCreateTarget{URL: "about:blank", BrowserContextID: id}.Call(browser)
		if err != nil {
			return nil, fmt.Errorf("creating page: %w", err)
		}
		page, err := browser.PageFromTarget(target.TargetID)
		if err != nil {
			return nil, fmt.Errorf("attaching page: %w", err)
		}
		s.onClose("page", page.Close)
		return &rodPage{page: page, browser: browser, contextID: id}, nil
	}

	if pages, err := browser.Pages(); err == nil && len(pages) > 0 {
		r.log.Debug("reusing existing page", "target", pages.First().TargetID)
		return &rodPage{page: pages.First(), browser: browser}, nil
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	s.onClose("page", page.Close)
	return &rodPage{page: page, browser: browser}, nil
}

// answerProxyAuth answers proxy authentication challenges with the
// configured credentials until ctx is done. Fetch stays enabled for the
// whole session and one subscription serves every request.
func (r *rodSessions) answerProxyAuth(ctx context.Context, browser *rod.Browser) {
	if !r.proxy.enabled() || r.proxy.Username == "" {
		return
	}
	restore := browser.EnableDomain("", &proto.FetchEnable{HandleAuthRequests: true})
	onPaused, onAuth := proxyAuthHandlers(browser, r.proxy.Username, r.proxy.Password, r.log)
	wait := browser.Context(ctx).EachEvent(onPaused, onAuth)
	go func() {
		wait()
		restore()
	}()
}

// proxyAuthHandlers returns the Fetch callbacks for proxy authentication:
// paused requests continue unchanged, auth challenges get the credentials.
func proxyAuthHandlers(c proto.Client, user, pass string, log *slog.Logger) (func(*proto.FetchRequestPaused), func(*proto.FetchAuthRequired)) {
	onPaused := func(e *proto.FetchRequestPaused) {
		if err := (proto.FetchContinueRequest{RequestID: e.RequestID}).Call(c); err != nil {
			log.Debug("continuing paused request failed", "request", e.RequestID, "err", err)
		}
	}
	onAuth := func(e *proto.FetchAuthRequired) {
		err := proto.FetchContinueWithAuth{
			RequestID: e.RequestID,
			AuthChallengeResponse: &proto.FetchAuthChallengeResponse{
				Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
				Username: user,
				Password: pass,
			},
		}.Call(c)
		if err != nil {
			log.Debug("answering proxy auth failed", "request", e.RequestID, "err", err)
		}
	}
	return onPaused, onAuth
}

func (r *rodSessions) setViewport(page *rod.Page) {
	err := proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}.Call(page)
	if err != nil {
		r.log.Warn("failed to set viewport", "err", err)
	}
}

// resolveControlURL returns a DevTools websocket URL for endpoint.
// HTTP endpoints are resolved through /json/version.
func resolveControlURL(endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint, nil
	}
	return launcher.ResolveURL(endpoint)
}

// detectProtocol guesses the protocol of a remote endpoint from its text.
func detectProtocol(endpoint string) Protocol {
	e := strings.ToLower(endpoint)
	switch {
	case strings.Contains(e, "browserless"), strings.Contains(e, "/devtools/"):
		return ProtocolCDP
	case strings.Contains(e, "rod-manager"), strings.Contains(e, ":7317"):
		return ProtocolManaged
	default:
		return ProtocolCDP
	}
}

func otherProtocol(p Protocol) Protocol {
	if p == ProtocolManaged {
		return ProtocolCDP
	}
	return ProtocolManaged
}

// withToken appends token as a query parameter.
func withToken(endpoint, token string) string {
	if token == "" {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "token=" + url.QueryEscape(token)
}

// redactToken hides the token query parameter in endpoint for logs and errors.
func redactToken(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.RawQuery == "" {
		return endpoint
	}
	q := u.Query()
	if !q.Has("token") {
		return endpoint
	}
	q.Set("token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
