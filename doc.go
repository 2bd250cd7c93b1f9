// Package mdnice converts Markdown into platform-styled HTML by driving the
// mdnice web editor in a browser.
//
// The editor renders Markdown with its article themes and exposes one "copy"
// control per publishing platform. The HTML placed on the clipboard by that
// control is what WeChat Official Accounts, Zhihu and Juejin accept when
// pasted. This package automates the editor and returns that HTML.
//
// # Quick Start
//
//	html, err := mdnice.ToWechat(ctx, "article.md", mdnice.Theme("rose"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Batches
//
// A Converter opens one browser session per Convert call and converts every
// request through the same editor page, in order:
//
//	conv, err := mdnice.NewConverter(
//	    mdnice.WithTimeout(45 * time.Second),
//	    mdnice.WithCodeTheme("monokai"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := conv.Convert(ctx, "out",
//	    mdnice.Request{Source: "a.md", Platform: mdnice.PlatformZhihu},
//	    mdnice.Request{Source: "b.md", Platform: mdnice.PlatformZhihu, Theme: mdnice.AnyTheme()},
//	)
//
// A failed item is recorded in BatchOutcome.Failures and the batch continues.
// Convert returns a *BatchError only when no item succeeded. A single request
// returns its own error unchanged.
//
// # Conversion Pipeline
//
// Each item goes through these stages:
//
//  1. Source resolution (file path or raw Markdown)
//  2. Markdown preprocessing and optional image relocation
//  3. Theme, code theme and mac-style selection in the editor
//  4. Content injection and preview rendering
//  5. HTML extraction, trying five strategies in order
//  6. Attribute cleanup and optional save to the output directory
//
// # Browser Placement
//
// By default a headless Chrome is launched locally through go-rod. Use
// WithRemoteBrowser to attach to a DevTools endpoint or a rod launcher
// service instead, and WithProxy to route editor traffic through a proxy.
//
// # Images
//
// WithUploader relocates image references before conversion, so pasted
// articles do not point at local files. LocalStore copies images into a
// served directory, HTTPUploader posts them to an image host, and
// RateLimited bounds either one.
package mdnice
