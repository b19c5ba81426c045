// internal/waiter/page.go
package waiter

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	readyStateScript = `document.readyState`
	jQueryIdleScript = `jQuery.active == 0`

	readyStateComplete = "complete"
)

const currentPage = "the current page"

// WaitForPageLoad waits for document.readyState to report "complete", meaning
// the page and its static resources have loaded. Script errors count as "not
// ready": evaluation can legitimately fail while a navigation is in flight.
func (w *Waiter) WaitForPageLoad(ctx context.Context, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: "page load",
		Target:    currentPage,
		Policy:    ErrorMeansNotReady,
		Condition: w.documentComplete,
	}, opts...)
}

func (w *Waiter) documentComplete(ctx context.Context) (bool, error) {
	var state string
	if err := w.session.ExecuteScript(ctx, readyStateScript, &state); err != nil {
		return false, err
	}
	return state == readyStateComplete, nil
}

// WaitForIdle waits for jQuery's active request counter to drain to zero.
//
// jQuery is optional. When the page has no jQuery the script throws, and that
// error counts as success: a page without the library has no requests for us
// to wait on, and it must never block the caller. A zero timeout therefore
// still succeeds immediately on such a page.
func (w *Waiter) WaitForIdle(ctx context.Context, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: "jQuery idle wait",
		Target:    currentPage,
		Policy:    ErrorMeansAbsent,
		Condition: w.jQueryIdle,
	}, opts...)
}

func (w *Waiter) jQueryIdle(ctx context.Context) (bool, error) {
	var idle bool
	if err := w.session.ExecuteScript(ctx, jQueryIdleScript, &idle); err != nil {
		return false, err
	}
	return idle, nil
}

// Get navigates to url, then waits for the page to load and for jQuery to go
// idle. Both waits use the same timeout, each on its own budget. A failed
// navigation or a sub-wait timeout is returned as is.
func (w *Waiter) Get(ctx context.Context, url string, opts ...Option) error {
	w.logger.Info("Navigating and settling.", zap.String("url", url))

	if err := w.session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	if err := w.WaitForPageLoad(ctx, opts...); err != nil {
		return err
	}
	if err := w.WaitForIdle(ctx, opts...); err != nil {
		return err
	}

	w.logger.Debug("Page settled.", zap.String("url", url))
	return nil
}
