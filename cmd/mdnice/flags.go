package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// styleFlags holds editor styling flags.
type styleFlags struct {
	platforms []string
	theme     string
	codeTheme string
	macStyle  bool
	noClean   bool
	wrap      bool
}

// browserFlags holds editor and browser placement flags.
type browserFlags struct {
	editorURLs  []string
	showBrowser bool
	remote      string
	token       string
	protocol    string
	proxy       string
	proxyUser   string
	proxyPass   string
	proxyBypass []string
}

// imageFlags holds image relocation flags.
type imageFlags struct {
	uploader string
	mode     string
	dir      string
	baseURL  string
	endpoint string
	urlPath  string
	rate     float64
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	output    string
	workers   int
	timeout   string
	retries   int
	assetPath string
	style     styleFlags
	browser   browserFlags
	images    imageFlags

	// set records flags given on the command line, so explicit false or zero
	// values still override the config file.
	set map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
}

// addStyleFlags adds styling flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringSliceVarP(&f.platforms, "platform", "p", nil, "target platforms: wechat, zhihu, juejin (repeatable)")
	fs.StringVar(&f.theme, "theme", "", "article theme, \"random\", or a comma-separated list to pick from")
	fs.StringVar(&f.codeTheme, "code-theme", "", "code highlight theme")
	fs.BoolVar(&f.macStyle, "mac-style", true, "mac-style code blocks")
	fs.BoolVar(&f.noClean, "no-clean", false, "keep editor attribution attributes")
	fs.BoolVar(&f.wrap, "wrap", false, "wrap saved HTML in a standalone document")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringArrayVar(&f.editorURLs, "editor-url", nil, "editor URL tried before the built-in ones (repeatable)")
	fs.BoolVar(&f.showBrowser, "show-browser", false, "run the local browser with a window")
	fs.StringVar(&f.remote, "remote", "", "remote browser endpoint (ws://, http://)")
	fs.StringVar(&f.token, "token", "", "remote browser token")
	fs.StringVar(&f.protocol, "protocol", "", "remote protocol: auto, cdp, managed")
	fs.StringVar(&f.proxy, "proxy", "", "proxy server for browser traffic")
	fs.StringVar(&f.proxyUser, "proxy-user", "", "proxy username")
	fs.StringVar(&f.proxyPass, "proxy-pass", "", "proxy password")
	fs.StringSliceVar(&f.proxyBypass, "proxy-bypass", nil, "hosts that skip the proxy")
}

// addImageFlags adds image relocation flags to a FlagSet.
func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.StringVar(&f.uploader, "image-uploader", "", "image uploader: none, store, http")
	fs.StringVar(&f.mode, "image-mode", "", "images to relocate: local, remote, all")
	fs.StringVar(&f.dir, "image-dir", "", "directory for the store uploader")
	fs.StringVar(&f.baseURL, "image-base-url", "", "public URL of --image-dir")
	fs.StringVar(&f.endpoint, "image-endpoint", "", "upload URL for the http uploader")
	fs.StringVar(&f.urlPath, "image-url-path", "", "dotted path to the URL in the upload response, e.g. data.url")
	fs.Float64Var(&f.rate, "image-rate", 0, "max uploads per second (0 = unlimited)")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "platforms converted in parallel (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-step timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.retries, "retries", 0, "retries for session, load and extraction")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding templates/document.html")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	addBrowserFlags(fs, &f.browser)
	addImageFlags(fs, &f.images)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f, fs.Args(), nil
}
