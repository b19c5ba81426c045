// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSessionClosed is returned by every operation after Close.
var ErrSessionClosed = errors.New("session is closed")

// Session drives one chromedp tab. It implements waiter.Session.
type Session struct {
	id            string
	ctx           context.Context
	closeFn       func()
	logger        *zap.Logger
	actionTimeout time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

var (
	_ waiter.Session = (*Session)(nil)
	_ ActionExecutor = (*Session)(nil)
)

// NewSession wraps a tab context created with chromedp.NewContext. closeFn
// releases the tab and its browser and is called once by Close. A zero
// actionTimeout leaves individual driver calls unbounded.
func NewSession(tabCtx context.Context, closeFn func(), logger *zap.Logger, actionTimeout time.Duration) *Session {
	id := uuid.New().String()
	if logger == nil {
		logger = zap.NewNop()
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return &Session{
		id:            id,
		ctx:           tabCtx,
		closeFn:       closeFn,
		logger:        logger.Named("session").With(zap.String("session_id", id)),
		actionTimeout: actionTimeout,
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// Close releases the tab. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.logger.Debug("Closing session.")
		s.closeFn()
	})
}

// RunActions executes actions on the tab, bounded by ctx and the action timeout.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	opCtx := ctx
	if s.actionTimeout > 0 {
		var cancelOp context.CancelFunc
		opCtx, cancelOp = context.WithTimeout(ctx, s.actionTimeout)
		defer cancelOp()
	}

	runCtx, cancel := CombineContext(s.ctx, opCtx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}

	// Report whichever side ended the call, caller first.
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case s.ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrSessionClosed, s.ctx.Err())
	case errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("browser action timed out after %v: %w", s.actionTimeout, opCtx.Err())
	}
	return err
}

// Navigate loads url and returns once the navigation has committed. Waiting
// for the page to finish loading is left to the caller.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating session.", zap.String("url", url))
	return s.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return fmt.Errorf("navigate to %s: %w", url, err)
		}
		if errorText != "" {
			return fmt.Errorf("navigate to %s: %s", url, errorText)
		}
		return nil
	}))
}

// ExecuteScript evaluates script and decodes its value into res.
func (s *Session) ExecuteScript(ctx context.Context, script string, res any) error {
	var raw []byte
	if err := s.RunActions(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return err
	}
	return decodeResult(raw, res)
}

// FindElement returns the first node matching query, or waiter.ErrNoSuchElement.
func (s *Session) FindElement(ctx context.Context, by waiter.Strategy, query string) (waiter.Element, error) {
	opts, err := queryOptions(by)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := s.RunActions(ctx, chromedp.Nodes(query, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s %q: %w", by, query, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s %q", waiter.ErrNoSuchElement, by, query)
	}
	return newElement(s, nodes[0], fmt.Sprintf("%s %q", by, query)), nil
}

// Dropdown wraps el, which must be a <select> found by this session.
func (s *Session) Dropdown(ctx context.Context, el waiter.Element) (waiter.Dropdown, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("element %v was not found by a browser session", el)
	}
	if !strings.EqualFold(e.node.NodeName, "SELECT") {
		return nil, fmt.Errorf("element %s is not a <select>", e)
	}
	return &Dropdown{el: e}, nil
}

// queryOptions maps a locator strategy onto chromedp query options. AtLeast(0)
// keeps the query from blocking when nothing matches yet.
func queryOptions(by waiter.Strategy) ([]chromedp.QueryOption, error) {
	switch by {
	case waiter.ByCSS:
		return []chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0)}, nil
	case waiter.ByXPath:
		return []chromedp.QueryOption{chromedp.BySearch, chromedp.AtLeast(0)}, nil
	case waiter.ByID:
		return []chromedp.QueryOption{chromedp.ByID, chromedp.AtLeast(0)}, nil
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", by)
	}
}

// decodeResult unmarshals a raw CDP value. An undefined result arrives empty
// and decodes as null.
func decodeResult(raw []byte, res any) error {
	if res == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, res); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	return nil
}
