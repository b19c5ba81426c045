// internal/browser/session/interfaces.go
package session

import (
	"context"

	"github.com/chromedp/chromedp"
)

// ActionExecutor runs chromedp actions against a live tab. Elements and
// dropdowns hold one instead of the Session itself so they can be driven by a
// recording executor in tests.
type ActionExecutor interface {
	// RunActions executes actions under ctx, combined with the tab context
	// that carries the CDP connection.
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}
