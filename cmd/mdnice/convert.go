package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	mdnice "github.com/alnah/go-mdnice"
	"github.com/alnah/go-mdnice/internal/config"
	"github.com/alnah/go-mdnice/internal/hints"
)

// ErrPartialFailure reports that some items converted and others did not.
var ErrPartialFailure = errors.New("some conversions failed")

// platformRun is the outcome of one platform's batch.
type platformRun struct {
	Platform mdnice.Platform
	Outcome  *mdnice.BatchOutcome
	Err      error
	Duration time.Duration
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	envCfg := loadEnvConfig()

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	platforms, err := resolvePlatforms(cfg.Platforms)
	if err != nil {
		return err
	}
	theme := mdnice.ParseThemeSelector(cfg.Theme)
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("%w%s", err, hints.ForThemeNotFound(mdnice.Themes))
	}

	items, err := resolveInputs(positionalArgs, cfg, env.Stdin)
	if err != nil {
		return err
	}

	// A single document for a single platform goes to stdout unless an
	// output directory is configured; anything larger is saved.
	outputDir := cfg.Output.DefaultDir
	toStdout := outputDir == "" && len(items) == 1 && len(platforms) == 1
	if outputDir == "" && !toStdout {
		outputDir = "."
	}

	logger := newLogger(env, flags.common)
	opts, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}
	conv, err := env.NewConverter(opts...)
	if err != nil {
		return err
	}
	for _, w := range conv.Warnings() {
		fmt.Fprintf(env.Stderr, "warning: %s\n", w)
	}

	runs := convertPlatforms(ctx, conv, platforms, items, theme, cfg.Wrap, outputDir, workers, env.Now)

	if toStdout {
		run := runs[0]
		if run.Err != nil {
			return withHint(run.Err, cfg)
		}
		fmt.Fprintln(env.Stdout, run.Outcome.Results[0].HTML)
		return nil
	}

	return summarize(runs, items, flags.common, env, cfg)
}

// loadConfig loads the config named by the flag, else by MDNICE_CONFIG,
// else returns defaults.
func loadConfig(flagValue, envValue string) (*config.Config, error) {
	name := flagValue
	if name == "" {
		name = envValue
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.timeout != "" {
		cfg.Editor.Timeout = flags.timeout
	}
	if flags.set["retries"] {
		n := flags.retries
		cfg.Editor.Retries = &n
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}

	// Styling
	if len(flags.style.platforms) > 0 {
		cfg.Platforms = flags.style.platforms
	}
	if flags.style.theme != "" {
		cfg.Theme = flags.style.theme
	}
	if flags.style.codeTheme != "" {
		cfg.CodeTheme = flags.style.codeTheme
	}
	if flags.set["mac-style"] {
		v := flags.style.macStyle
		cfg.MacStyle = &v
	}
	if flags.style.noClean {
		v := false
		cfg.CleanHTML = &v
	}
	if flags.style.wrap {
		cfg.Wrap = true
	}

	// Browser
	if len(flags.browser.editorURLs) > 0 {
		cfg.Editor.URLs = flags.browser.editorURLs
	}
	if flags.browser.showBrowser {
		v := false
		cfg.Browser.Headless = &v
	}
	if flags.browser.remote != "" {
		cfg.Browser.RemoteURL = flags.browser.remote
	}
	if flags.browser.token != "" {
		cfg.Browser.Token = flags.browser.token
	}
	if flags.browser.protocol != "" {
		cfg.Browser.Protocol = flags.browser.protocol
	}
	if flags.browser.proxy != "" {
		cfg.Proxy.Server = flags.browser.proxy
	}
	if flags.browser.proxyUser != "" {
		cfg.Proxy.Username = flags.browser.proxyUser
	}
	if flags.browser.proxyPass != "" {
		cfg.Proxy.Password = flags.browser.proxyPass
	}
	if len(flags.browser.proxyBypass) > 0 {
		cfg.Proxy.Bypass = flags.browser.proxyBypass
	}

	// Images
	if flags.images.uploader != "" {
		cfg.Images.Uploader = flags.images.uploader
	}
	if flags.images.mode != "" {
		cfg.Images.Mode = flags.images.mode
	}
	if flags.images.dir != "" {
		cfg.Images.Store.Dir = flags.images.dir
	}
	if flags.images.baseURL != "" {
		cfg.Images.Store.BaseURL = flags.images.baseURL
	}
	if flags.images.endpoint != "" {
		cfg.Images.HTTP.Endpoint = flags.images.endpoint
	}
	if flags.images.urlPath != "" {
		cfg.Images.HTTP.URLPath = flags.images.urlPath
	}
	if flags.set["image-rate"] {
		cfg.Images.RateLimit = flags.images.rate
	}
}

// resolvePlatforms parses and de-duplicates platform names. Empty means wechat.
func resolvePlatforms(names []string) ([]mdnice.Platform, error) {
	if len(names) == 0 {
		return []mdnice.Platform{mdnice.PlatformWechat}, nil
	}
	var platforms []mdnice.Platform
	for _, n := range names {
		p, err := mdnice.ParsePlatform(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}
	return platforms, nil
}

// newLogger builds the stderr logger for library progress.
func newLogger(env *Environment, f commonFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case f.quiet:
		level = slog.LevelError
	case f.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildOptions translates the merged config into library options.
func buildOptions(cfg *config.Config, logger *slog.Logger) ([]mdnice.Option, error) {
	opts := []mdnice.Option{mdnice.WithLogger(logger)}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, mdnice.WithTimeout(timeout))
	}
	if cfg.Editor.Retries != nil {
		opts = append(opts, mdnice.WithRetries(*cfg.Editor.Retries))
	}
	if len(cfg.Editor.URLs) > 0 {
		opts = append(opts, mdnice.WithEditorURLs(cfg.Editor.URLs...))
	}
	if cfg.CodeTheme != "" {
		opts = append(opts, mdnice.WithCodeTheme(cfg.CodeTheme))
	}
	if cfg.MacStyle != nil {
		opts = append(opts, mdnice.WithMacStyle(*cfg.MacStyle))
	}
	if cfg.CleanHTML != nil {
		opts = append(opts, mdnice.WithCleanHTML(*cfg.CleanHTML))
	}
	if cfg.Browser.Headless != nil {
		opts = append(opts, mdnice.WithHeadless(*cfg.Browser.Headless))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdnice.WithAssetPath(cfg.Assets.BasePath))
	}

	if cfg.Browser.RemoteURL != "" {
		protocol := mdnice.Protocol(strings.ToLower(cfg.Browser.Protocol))
		if protocol == "" {
			protocol = mdnice.ProtocolAuto
		}
		if err := protocol.Validate(); err != nil {
			return nil, err
		}
		opts = append(opts, mdnice.WithRemoteBrowser(cfg.Browser.RemoteURL, cfg.Browser.Token, protocol))
	}
	if cfg.Proxy.Server != "" {
		opts = append(opts, mdnice.WithProxy(mdnice.Proxy{
			Server:   cfg.Proxy.Server,
			Username: cfg.Proxy.Username,
			Password: cfg.Proxy.Password,
			Bypass:   cfg.Proxy.Bypass,
		}))
	}

	imageOpt, err := buildImageOption(cfg.Images)
	if err != nil {
		return nil, err
	}
	if imageOpt != nil {
		opts = append(opts, imageOpt)
	}
	return opts, nil
}

// buildImageOption returns the uploader option for the images section, or
// nil when relocation is not configured.
func buildImageOption(img config.ImagesConfig) (mdnice.Option, error) {
	mode := mdnice.UploadMode(strings.ToLower(img.Mode))
	if mode == "" {
		mode = mdnice.UploadLocal
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	var uploader mdnice.Uploader
	switch strings.ToLower(img.Uploader) {
	case "store":
		uploader = mdnice.NewLocalStore(img.Store.Dir, img.Store.BaseURL)
	case "http":
		header := make(http.Header, len(img.Headers))
		for k, v := range img.Headers {
			header.Set(k, v)
		}
		uploader = &mdnice.HTTPUploader{
			Endpoint:  img.HTTP.Endpoint,
			FileField: img.HTTP.FileField,
			URLPath:   strings.Split(img.HTTP.URLPath, "."),
			Header:    header,
		}
	default:
		if img.Mode != "" {
			// Mode without an uploader: the converter records a warning.
			return mdnice.WithUploadMode(mode), nil
		}
		return nil, nil
	}

	if img.RateLimit > 0 {
		burst := img.Burst
		if burst < 1 {
			burst = 1
		}
		uploader = mdnice.RateLimited(uploader, img.RateLimit, burst)
	}
	return mdnice.WithUploader(uploader, mode), nil
}

// convertPlatforms runs one batch per platform, at most workers at a time.
// Results are returned in platform order.
func convertPlatforms(ctx context.Context, conv batchConverter, platforms []mdnice.Platform, items []inputItem,
	theme mdnice.ThemeSelector, wrap bool, outputDir string, workers int, now func() time.Time,
) []platformRun {
	runs := make([]platformRun, len(platforms))

	var g errgroup.Group
	g.SetLimit(mdnice.ResolvePoolSize(workers))
	for i, platform := range platforms {
		g.Go(func() error {
			reqs := make([]mdnice.Request, len(items))
			for j, it := range items {
				reqs[j] = it.request(platform, theme, wrap)
			}
			start := now()
			out, err := conv.Convert(ctx, outputDir, reqs...)
			runs[i] = platformRun{Platform: platform, Outcome: out, Err: err, Duration: now().Sub(start)}
			// Per-platform failures are reported, not propagated.
			return nil
		})
	}
	_ = g.Wait()
	return runs
}

// summarize prints per-item results and returns the overall error.
func summarize(runs []platformRun, items []inputItem, f commonFlags, env *Environment, cfg *config.Config) error {
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var succeeded, failed int
	var errs []error
	for _, run := range runs {
		switch {
		case run.Outcome == nil:
			// The batch never started: every item of this platform failed.
			failed += len(items)
			errs = append(errs, fmt.Errorf("%s: %w", run.Platform, withHint(run.Err, cfg)))
			fmt.Fprintf(env.Stderr, "%s %s: %v\n", fail("✗"), run.Platform, withHint(run.Err, cfg))
			continue
		case run.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", run.Platform, run.Err))
		}

		for _, res := range run.Outcome.Results {
			succeeded++
			if f.quiet {
				continue
			}
			line := fmt.Sprintf("%s %s -> %s", ok("✓"), items[res.Index-1].Label, res.Path)
			if f.verbose {
				line += dim(fmt.Sprintf(" (%s, theme %s, via %s)", run.Platform, res.Theme, res.Strategy))
				if res.Images.Uploaded+res.Images.Failed > 0 {
					line += dim(fmt.Sprintf(" images %d uploaded, %d failed", res.Images.Uploaded, res.Images.Failed))
				}
			}
			fmt.Fprintln(env.Stdout, line)
		}
		for _, fl := range run.Outcome.Failures {
			failed++
			fmt.Fprintf(env.Stderr, "%s %s (%s): %v\n", fail("✗"), items[fl.Index-1].Label, run.Platform, fl.Err)
		}
		if f.verbose {
			fmt.Fprintf(env.Stderr, "%s: %d item(s) in %s\n", run.Platform, len(items), run.Duration.Round(time.Millisecond))
		}
	}

	if failed == 0 {
		return nil
	}
	if succeeded == 0 {
		if len(errs) == 1 {
			return errs[0]
		}
		return errors.Join(errs...)
	}
	return fmt.Errorf("%w: %d of %d conversion(s) failed", ErrPartialFailure, failed, failed+succeeded)
}

// withHint appends a remediation hint to batch-level errors.
func withHint(err error, cfg *config.Config) error {
	var hint string
	switch {
	case errors.Is(err, mdnice.ErrSession) && cfg.Browser.RemoteURL != "":
		hint = hints.ForRemoteBrowser(cfg.Browser.RemoteURL)
	case errors.Is(err, mdnice.ErrSession):
		hint = hints.ForBrowserLaunch()
	case errors.Is(err, mdnice.ErrLoad):
		hint = hints.ForEditorLoad()
	case errors.Is(err, mdnice.ErrWriteHTML):
		hint = hints.ForOutputDirectory()
	case errors.Is(err, context.DeadlineExceeded):
		hint = hints.ForTimeout()
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
