// internal/browser/session/context_utils.go
package session

import "context"

// CombineContext returns a context that carries the values of primary (the
// chromedp tab context) and is cancelled when either primary or secondary
// (the caller's operational context) is done.
//
// chromedp finds its target through context values, so operations must run
// under a context derived from the tab; the caller's cancellation is linked
// in by a watcher goroutine that exits as soon as either side finishes.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
