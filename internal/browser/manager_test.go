// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManagerOpenRejectsUnsupported(t *testing.T) {
	m := NewManager(defaultBrowserConfig(), zaptest.NewLogger(t))

	s, err := m.Open(context.Background(), "firefox")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
}

func TestManagerOpenMissingExecutable(t *testing.T) {
	cfg := defaultBrowserConfig()
	cfg.ExecPath = "/nonexistent/pagewait/chrome"
	cfg.StartupTimeout = 10 * time.Second
	m := NewManager(cfg, zaptest.NewLogger(t))

	s, err := m.Open(context.Background(), "chrome_h")
	assert.Nil(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser chrome_h failed to start")
}

func TestManagerOpenCancelledContext(t *testing.T) {
	m := NewManager(defaultBrowserConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Open(ctx, "chrome_h")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManagerShutdownWithoutSessions(t *testing.T) {
	m := NewManager(defaultBrowserConfig(), zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, m.Shutdown(ctx))
}

func TestManagerOpenAfterShutdown(t *testing.T) {
	m := NewManager(defaultBrowserConfig(), zaptest.NewLogger(t))
	require.NoError(t, m.Shutdown(context.Background()))

	s, err := m.Open(context.Background(), "chrome_h")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrManagerClosed)

	assert.NoError(t, m.Shutdown(context.Background()), "a second shutdown is harmless")
}
