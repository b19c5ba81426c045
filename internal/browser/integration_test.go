// internal/browser/integration_test.go
package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagewait/internal/browser"
	"github.com/xkilldash9x/pagewait/internal/config"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

const fixturePage = `<!DOCTYPE html>
<html>
<body>
	<button id="late" style="display:none" onclick="document.getElementById('status').textContent = 'clicked'">Go</button>
	<p id="status"></p>
	<input id="ssn" oninput="
		const d = this.value.replace(/\D/g, '');
		this.value = d.length > 3 ? d.slice(0, 3) + '-' + d.slice(3) : d;">
	<select id="colors" multiple>
		<option value="r">Red</option>
		<option value="g" selected>Green</option>
		<option value="b">Blue</option>
	</select>
	<script>
		setTimeout(() => { document.getElementById('late').style.display = ''; }, 300);
	</script>
</body>
</html>`

// requireBrowser skips unless a Chrome binary is available and browser tests
// were asked for.
func requireBrowser(t *testing.T) {
	t.Helper()
	if os.Getenv("PAGEWAIT_BROWSER_TESTS") != "1" {
		t.Skip("set PAGEWAIT_BROWSER_TESTS=1 to run tests against a real browser")
	}
}

func TestChromeEndToEnd(t *testing.T) {
	requireBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixturePage))
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	cfg := config.NewDefaultConfig()
	m := browser.NewManager(cfg.Browser, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		assert.NoError(t, m.Shutdown(ctx))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := m.Open(ctx, "chrome_h")
	require.NoError(t, err)
	defer s.Close()

	w := waiter.New(s, waiter.Settings{DefaultTimeout: 10 * time.Second, PollInterval: 50 * time.Millisecond}, logger)

	require.NoError(t, w.Get(ctx, srv.URL))

	t.Run("IdleWithoutJQuery", func(t *testing.T) {
		require.NoError(t, w.WaitForIdle(ctx, waiter.Within(0)))
	})

	t.Run("ClickAppearsLate", func(t *testing.T) {
		require.NoError(t, w.Click(ctx, waiter.ID("late")))
		var status string
		require.NoError(t, s.ExecuteScript(ctx, `document.getElementById("status").textContent`, &status))
		assert.Equal(t, "clicked", status)
	})

	t.Run("TypeReformatted", func(t *testing.T) {
		req := waiter.Typed("12345").Expecting("123-45")
		require.NoError(t, w.Type(ctx, waiter.ID("ssn"), req))
	})

	t.Run("MultiSelectOrder", func(t *testing.T) {
		require.NoError(t, w.SelectByLabels(ctx, waiter.ID("colors"), []string{"Blue", "Red"}))

		el, err := s.FindElement(ctx, waiter.ByID, "colors")
		require.NoError(t, err)
		dd, err := s.Dropdown(ctx, el)
		require.NoError(t, err)
		selected, err := dd.SelectedOptions(ctx)
		require.NoError(t, err)

		var labels []string
		for _, opt := range selected {
			text, err := opt.Text(ctx)
			require.NoError(t, err)
			labels = append(labels, text)
		}
		if diff := cmp.Diff([]string{"Blue", "Red"}, labels); diff != "" {
			t.Errorf("selection order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("MissingElementTimesOut", func(t *testing.T) {
		err := w.Click(ctx, waiter.CSS("#nope"), waiter.Within(200*time.Millisecond))
		require.Error(t, err)
		assert.ErrorIs(t, err, waiter.ErrTimeout)
	})
}
