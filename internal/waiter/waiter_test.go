// internal/waiter/waiter_test.go
package waiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/pagewait/internal/mocks"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

func TestUntil_SucceedsShortlyAfterConditionHolds(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	const becomesTrue = 100 * time.Millisecond
	start := time.Now()
	check, calls := becomesTrueAfter(start, becomesTrue)

	err := w.Until(context.Background(), check, waiter.Within(2*time.Second))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, becomesTrue, "should not succeed before the condition holds")
	assert.Less(t, elapsed, becomesTrue+testPoll+slack, "should succeed within one interval of the condition holding")
	assert.Greater(t, *calls, 1)
}

func TestUntil_TimesOutAtDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	const timeout = 150 * time.Millisecond
	start := time.Now()
	err := w.Until(context.Background(), never(nil), waiter.Within(timeout))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, timeout, "must never time out early")
	assert.Less(t, elapsed, timeout+slack, "must not overrun the deadline unboundedly")

	var timeoutErr *waiter.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, waiter.ErrTimeout)
	assert.Equal(t, "test condition could not complete on the test page within 0.15 seconds", err.Error())
	assert.Equal(t, timeout, timeoutErr.Timeout)
	assert.Greater(t, timeoutErr.Attempts, 1)
}

func TestUntil_ZeroTimeoutEvaluatesOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	t.Run("Satisfied", func(t *testing.T) {
		check, calls := becomesTrueAfter(time.Now(), 0)
		require.NoError(t, w.Until(context.Background(), check, waiter.Within(0)))
		assert.Equal(t, 1, *calls)
	})

	t.Run("NotSatisfied", func(t *testing.T) {
		calls := 0
		check := waiter.Check{
			Operation: "noop",
			Target:    "nothing",
			Condition: func(context.Context) (bool, error) {
				calls++
				return false, nil
			},
		}
		err := w.Until(context.Background(), check, waiter.Within(0))
		assert.ErrorIs(t, err, waiter.ErrTimeout)
		assert.Equal(t, "noop could not complete on nothing within 0 seconds", err.Error())
		assert.Equal(t, 1, calls)
	})

	t.Run("NegativeTreatedAsZero", func(t *testing.T) {
		check, calls := becomesTrueAfter(time.Now(), time.Hour)
		err := w.Until(context.Background(), check, waiter.Within(-time.Second))
		assert.ErrorIs(t, err, waiter.ErrTimeout)
		assert.Equal(t, 1, *calls)
	})
}

func TestUntil_FoldsErrorsPerPolicy(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())
	boom := errors.New("boom")

	t.Run("NotReadyKeepsPolling", func(t *testing.T) {
		err := w.Until(context.Background(), never(boom), waiter.Within(50*time.Millisecond))

		var timeoutErr *waiter.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.NotErrorIs(t, err, boom, "evaluation errors must not escape as the failure")
		assert.Equal(t, boom, timeoutErr.LastErr)
	})

	t.Run("AbsentEndsTheWait", func(t *testing.T) {
		check := never(boom)
		check.Policy = waiter.ErrorMeansAbsent
		assert.NoError(t, w.Until(context.Background(), check, waiter.Within(time.Second)))
	})
}

func TestUntil_CallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	err := w.Until(ctx, never(nil), waiter.Within(5*time.Second))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, waiter.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUntil_SlowEvaluationIsNotCutShort(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	finished := false
	check := waiter.Check{
		Operation: "slow",
		Target:    "the test page",
		Condition: func(ctx context.Context) (bool, error) {
			time.Sleep(80 * time.Millisecond)
			finished = ctx.Err() == nil
			return true, nil
		},
	}

	require.NoError(t, w.Until(context.Background(), check, waiter.Within(20*time.Millisecond)))
	assert.True(t, finished, "evaluation context must outlive the wait deadline")
}

func TestUntil_PollEveryControlsSampling(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWaiterFor(t, mocks.NewFakeSession())

	calls := 0
	check := waiter.Check{
		Operation: "count",
		Target:    "the test page",
		Condition: func(context.Context) (bool, error) {
			calls++
			return false, nil
		},
	}

	_ = w.Until(context.Background(), check, waiter.Within(200*time.Millisecond), waiter.PollEvery(100*time.Millisecond))
	assert.LessOrEqual(t, calls, 3, "a 100ms interval allows at most three samples in 200ms")
	assert.GreaterOrEqual(t, calls, 1)
}

func TestNew_Defaults(t *testing.T) {
	w := waiter.New(mocks.NewFakeSession(), waiter.Settings{}, nil)
	require.NotNil(t, w)
	assert.NotNil(t, w.Session())

	assert.Equal(t, 30*time.Second, waiter.DefaultSettings().DefaultTimeout)
	assert.Equal(t, 500*time.Millisecond, waiter.DefaultSettings().PollInterval)
	assert.Equal(t, 10*time.Second, waiter.TinyTimeout)
	assert.Equal(t, 60*time.Second, waiter.MediumTimeout)
	assert.Equal(t, 120*time.Second, waiter.LongTimeout)
}
