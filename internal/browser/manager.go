// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewait/internal/browser/session"
	"github.com/xkilldash9x/pagewait/internal/config"
)

// ErrManagerClosed is returned by Open once Shutdown has begun.
var ErrManagerClosed = errors.New("browser manager is shut down")

// Manager launches one browser process per session and tears them all down
// on Shutdown.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	sessions map[string]*session.Session
	closed   bool
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewManager creates a manager. No browser is started until Open.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*session.Session),
	}
}

// Open starts the browser named by id (e.g. "chrome_h") and returns a session
// on its first tab. The browser lives until the session is closed, ctx is
// cancelled, or Shutdown runs.
func (m *Manager) Open(ctx context.Context, id string) (*session.Session, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}
	plan, err := Plan(id, m.cfg)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Launching browser.",
		zap.String("browser", plan.Spec.ID),
		zap.Bool("headless", plan.Headless),
		zap.Int("width", plan.Width),
		zap.Int("height", plan.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, plan.AllocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	release := func() {
		cancelTab()
		cancelAlloc()
	}

	if err := m.start(ctx, tabCtx, release); err != nil {
		release()
		return nil, fmt.Errorf("browser %s failed to start: %w", plan.Spec.ID, err)
	}

	// wg.Add must not follow Shutdown's Wait.
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		release()
		return nil, ErrManagerClosed
	}
	m.wg.Add(1)
	var s *session.Session
	s = session.NewSession(tabCtx, func() {
		release()
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.wg.Done()
	}, m.logger.With(zap.String("browser", plan.Spec.ID)), m.cfg.ActionTimeout)
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("Browser launched and responsive.", zap.String("browser", plan.Spec.ID), zap.String("session_id", s.ID()))
	return s, nil
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// start runs the first action on the tab, which allocates the browser. It runs
// under the tab context itself: a deadline on the first Run would stay bound
// to the browser and kill it when it expired.
func (m *Manager) start(ctx, tabCtx context.Context, abort func()) error {
	errc := make(chan error, 1)
	go func() {
		errc <- chromedp.Run(tabCtx, chromedp.Navigate("about:blank"))
	}()

	timer := time.NewTimer(m.cfg.StartupTimeout)
	defer timer.Stop()

	select {
	case err := <-errc:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	case <-timer.C:
		abort()
		<-errc
		return fmt.Errorf("no response within %v", m.cfg.StartupTimeout)
	case <-ctx.Done():
		<-errc
		return ctx.Err()
	}
}

// Shutdown closes every open session and waits for them to finish, at most
// until ctx is done. Open fails with ErrManagerClosed from then on.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	open := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	m.logger.Info("Shutting down browser manager.", zap.Int("open_sessions", len(open)))
	for _, s := range open {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed.")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close.", zap.Error(ctx.Err()))
		return errors.Join(errors.New("browser manager shutdown incomplete"), ctx.Err())
	}
}
