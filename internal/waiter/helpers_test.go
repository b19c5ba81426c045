// internal/waiter/helpers_test.go
package waiter_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagewait/internal/mocks"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

const (
	testPoll    = 10 * time.Millisecond
	testTimeout = 300 * time.Millisecond
	// slack absorbs scheduler jitter on loaded CI machines.
	slack = 250 * time.Millisecond
)

// newTestWaiter builds a waiter over a fresh fake page with short timings.
func newTestWaiter(t *testing.T) (*waiter.Waiter, *mocks.FakeSession) {
	t.Helper()
	page := mocks.NewFakeSession()
	return newWaiterFor(t, page), page
}

func newWaiterFor(t *testing.T, s waiter.Session) *waiter.Waiter {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
	return waiter.New(s, waiter.Settings{DefaultTimeout: testTimeout, PollInterval: testPoll}, logger)
}

// becomesTrueAfter returns a check whose condition turns true once d has
// passed since start, and a counter of its evaluations.
func becomesTrueAfter(start time.Time, d time.Duration) (waiter.Check, *int) {
	calls := new(int)
	return waiter.Check{
		Operation: "test condition",
		Target:    "the test page",
		Policy:    waiter.ErrorMeansNotReady,
		Condition: func(context.Context) (bool, error) {
			*calls++
			return time.Since(start) >= d, nil
		},
	}, calls
}

func never(err error) waiter.Check {
	return waiter.Check{
		Operation: "test condition",
		Target:    "the test page",
		Policy:    waiter.ErrorMeansNotReady,
		Condition: func(context.Context) (bool, error) { return false, err },
	}
}
