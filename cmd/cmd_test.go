// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewait/internal/config"
	"github.com/xkilldash9x/pagewait/internal/mocks"
	"github.com/xkilldash9x/pagewait/internal/observability"
	"github.com/xkilldash9x/pagewait/internal/scenario"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

type fakeBrowser struct {
	*mocks.FakeSession
	closed bool
}

func (b *fakeBrowser) Close() { b.closed = true }

// fakeBrowsers stands in for the browser manager. Every Open gets a fresh
// page from newPage.
type fakeBrowsers struct {
	mu        sync.Mutex
	newPage   func(id string) *mocks.FakeSession
	opened    []string
	browsers  []*fakeBrowser
	shutdowns int
	cfg       config.BrowserConfig
}

func (f *fakeBrowsers) factory(cfg config.BrowserConfig, _ *zap.Logger) (scenario.Opener, func(context.Context) error) {
	f.mu.Lock()
	f.cfg = cfg
	f.mu.Unlock()

	open := func(_ context.Context, id string) (scenario.Browser, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		b := &fakeBrowser{FakeSession: f.newPage(id)}
		f.opened = append(f.opened, id)
		f.browsers = append(f.browsers, b)
		return b, nil
	}
	shutdown := func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.shutdowns++
		return nil
	}
	return open, shutdown
}

// loadedPage is a page that has finished loading and has an #accept button.
func loadedPage(string) *mocks.FakeSession {
	page := mocks.NewFakeSession()
	page.OnScript("document.readyState", mocks.Returns("complete"))
	page.OnScript("document.title", mocks.Returns("Shop"))
	page.Put(waiter.ByCSS, "#accept", mocks.NewFakeElement("accept button"))
	return page
}

// execute runs the command tree with args, returning stdout and stderr.
func execute(t *testing.T, f *fakeBrowsers, args ...string) (string, string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	// viper ignores empty variables, which keeps a developer's overrides out.
	for _, key := range []string{"PAGEWAIT_BROWSER_KIND", "PAGEWAIT_RUNNER_BROWSERS", "PAGEWAIT_WAITER_DEFAULT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	root := newRootCommand(f.factory)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	t.Run("Flag", func(t *testing.T) {
		out, _, err := execute(t, &fakeBrowsers{newPage: loadedPage}, "--version")
		require.NoError(t, err)
		assert.Equal(t, "pagewait version "+Version+"\n", out)
	})

	t.Run("Command", func(t *testing.T) {
		out, _, err := execute(t, &fakeBrowsers{newPage: loadedPage}, "version")
		require.NoError(t, err)
		assert.Equal(t, "pagewait version "+Version+"\n", out)
	})
}

func TestGet(t *testing.T) {
	t.Run("SettlesAndClicks", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		out, _, err := execute(t, f, "get", "https://shop.test/", "--browser", "edge_h", "--click", "css=#accept")
		require.NoError(t, err)

		assert.Contains(t, out, "settled https://shop.test/ in ")
		assert.Contains(t, out, `clicked css "#accept"`)
		assert.Contains(t, out, "title: Shop")

		assert.Equal(t, []string{"edge_h"}, f.opened, "--browser overrides browser.kind")
		require.Len(t, f.browsers, 1)
		assert.Equal(t, []string{"https://shop.test/"}, f.browsers[0].Navigations())
		assert.True(t, f.browsers[0].closed)
		assert.Equal(t, 1, f.shutdowns)
	})

	t.Run("DefaultBrowserFromConfig", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		cfgFile := writeFile(t, "pagewait.yaml", "browser:\n  kind: chrome_s\n  width: 800\n  height: 600\n")

		_, _, err := execute(t, f, "--config", cfgFile, "get", "https://shop.test/")
		require.NoError(t, err)
		assert.Equal(t, []string{"chrome_s"}, f.opened)
		assert.Equal(t, 800, f.cfg.Width)
	})

	t.Run("TimesOut", func(t *testing.T) {
		f := &fakeBrowsers{newPage: func(string) *mocks.FakeSession {
			page := mocks.NewFakeSession()
			page.OnScript("document.readyState", mocks.Returns("loading"))
			return page
		}}
		_, _, err := execute(t, f, "get", "https://slow.test/", "--timeout", "100ms", "--poll", "10ms")
		require.Error(t, err)
		assert.ErrorIs(t, err, waiter.ErrTimeout)
		assert.EqualError(t, err, "page load could not complete on the current page within 0.1 seconds")
		assert.True(t, f.browsers[0].closed, "the browser is closed on failure too")
	})

	t.Run("InvalidClick", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		_, _, err := execute(t, f, "get", "https://shop.test/", "--click", "id=")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --click")
		assert.Empty(t, f.opened, "nothing is launched for bad input")
	})

	t.Run("NeedsURL", func(t *testing.T) {
		_, _, err := execute(t, &fakeBrowsers{newPage: loadedPage}, "get")
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	const passing = `
name: accept
steps:
  - get: https://shop.test/
  - click: css=#accept
`
	t.Run("Passes", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		path := writeFile(t, "accept.yaml", passing)

		out, _, err := execute(t, f, "run", path, "--browsers", "chrome_h,edge_h", "--parallel", "2")
		require.NoError(t, err)

		assert.Contains(t, out, "PASS accept chrome_h (2/2 steps")
		assert.Contains(t, out, "PASS accept edge_h (2/2 steps")
		assert.ElementsMatch(t, []string{"chrome_h", "edge_h"}, f.opened)
		assert.Equal(t, 1, f.shutdowns)
	})

	t.Run("Fails", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		path := writeFile(t, "missing.yaml", `
name: missing
browsers: [chrome_h]
steps:
  - get: https://shop.test/
  - click: css=#nope
    timeout: 50ms
`)
		out, _, err := execute(t, f, "run", path)
		require.Error(t, err)
		assert.EqualError(t, err, "1 of 1 scenarios failed")
		assert.Contains(t, out, "FAIL missing chrome_h (1/2 steps")
		assert.Contains(t, out, `click could not complete on css "#nope" within 0.05 seconds`)
	})

	t.Run("InvalidScenario", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		path := writeFile(t, "bad.yaml", "steps:\n  - hover: css=#a\n")

		_, _, err := execute(t, f, "run", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field hover not found")
		assert.Empty(t, f.opened)
	})
}

func TestConfigErrors(t *testing.T) {
	t.Run("InvalidValues", func(t *testing.T) {
		cfgFile := writeFile(t, "pagewait.yaml", "waiter:\n  poll_interval: 0s\n")
		_, _, err := execute(t, &fakeBrowsers{newPage: loadedPage}, "--config", cfgFile, "get", "https://shop.test/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("UnreadableFile", func(t *testing.T) {
		_, _, err := execute(t, &fakeBrowsers{newPage: loadedPage}, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "version")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("LogsToStderr", func(t *testing.T) {
		f := &fakeBrowsers{newPage: loadedPage}
		out, errOut, err := execute(t, f, "get", "https://shop.test/")
		require.NoError(t, err)
		assert.Contains(t, errOut, "Navigating and settling.")
		assert.NotContains(t, out, "Navigating and settling.")
	})
}
