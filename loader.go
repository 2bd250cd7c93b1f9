package mdnice

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// pageLoader navigates to the first editor endpoint that becomes ready.
type pageLoader struct {
	endpoints Endpoints
	timeout   time.Duration
	settle    time.Duration
	backoff   time.Duration
	log       *slog.Logger
}

// load tries endpoints in order and returns the index of the one that loaded.
// When all fail it returns a *LoadError listing every endpoint tried.
func (l *pageLoader) load(ctx context.Context, page editorPage) (int, error) {
	tried := make([]string, 0, len(l.endpoints))
	var last error
	for i, ep := range l.endpoints {
		if i > 0 {
			if err := sleep(ctx, l.backoff); err != nil {
				last = err
				break
			}
		}
		tried = append(tried, ep.URL)
		l.log.Debug("loading editor", "url", ep.URL, "kind", ep.Kind)

		if err := l.loadOne(ctx, page, ep.URL); err != nil {
			last = err
			l.log.Warn("editor endpoint failed", "url", ep.URL, "kind", ep.Kind, "err", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		l.log.Info("editor loaded", "url", ep.URL, "kind", ep.Kind)
		return i, nil
	}
	return -1, &LoadError{Tried: tried, Last: last}
}

// loadOne navigates to url, waits for the editor marker, then lets the
// editor finish initializing.
func (l *pageLoader) loadOne(ctx context.Context, page editorPage, url string) error {
	nctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := page.Navigate(nctx, url); err != nil {
		return fmt.Errorf("navigating: %w", err)
	}
	if err := page.WaitVisible(nctx, editorSelector); err != nil {
		return fmt.Errorf("waiting for editor: %w", err)
	}
	return sleep(ctx, l.settle)
}
