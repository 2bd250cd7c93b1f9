package mdnice

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// editorPage is the slice of a browser tab the converter drives.
// rodPage is the production implementation; tests use fakes.
type editorPage interface {
	// Navigate opens url and returns once the server has responded.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	// Click performs a trusted mouse click on the element matching selector.
	Click(ctx context.Context, selector string) error
	// Eval runs a function expression in the page. Promises are awaited.
	Eval(ctx context.Context, js string, args ...any) (gson.JSON, error)
	// Evaluate runs a raw expression through Runtime.evaluate.
	Evaluate(ctx context.Context, expression string, awaitPromise bool) (gson.JSON, error)
	// GrantClipboard grants clipboard permissions to origin.
	GrantClipboard(ctx context.Context, origin string) error
}

// rodPage adapts a *rod.Page to editorPage.
type rodPage struct {
	page      *rod.Page
	browser   *rod.Browser
	contextID proto.BrowserBrowserContextID // empty for the default context
}

var _ editorPage = (*rodPage)(nil)

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	return p.page.Context(ctx).Navigate(url)
}

func (p *rodPage) WaitVisible(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("finding %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("finding %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (p *rodPage) Evaluate(ctx context.Context, expression string, awaitPromise bool) (gson.JSON, error) {
	res, err := proto.RuntimeEvaluate{
		Expression:    expression,
		AwaitPromise:  awaitPromise,
		ReturnByValue: true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return gson.New(nil), err
	}
	if res.ExceptionDetails != nil {
		return gson.New(nil), fmt.Errorf("evaluation threw: %s", res.ExceptionDetails.Text)
	}
	return res.Result.Value, nil
}

func (p *rodPage) GrantClipboard(ctx context.Context, origin string) error {
	return proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeClipboardReadWrite,
			proto.BrowserPermissionTypeClipboardSanitizedWrite,
		},
		Origin:           origin,
		BrowserContextID: p.contextID,
	}.Call(p.browser.Context(ctx))
}
