// internal/waiter/waiter.go
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Named timeouts. They document intent at the call site; there is no
// behavioral difference between them beyond their length.
const (
	TinyTimeout    = 10 * time.Second
	DefaultTimeout = 30 * time.Second
	MediumTimeout  = 60 * time.Second
	LongTimeout    = 120 * time.Second
)

const (
	// DefaultPollInterval is the pause between two evaluations.
	DefaultPollInterval = 500 * time.Millisecond
	// MinPollInterval bounds how hard a condition can hammer the page.
	MinPollInterval = 10 * time.Millisecond
)

// Settings are the defaults a Waiter applies when a call does not override them.
type Settings struct {
	DefaultTimeout time.Duration
	PollInterval   time.Duration
}

// DefaultSettings returns DefaultTimeout and DefaultPollInterval.
func DefaultSettings() Settings {
	return Settings{DefaultTimeout: DefaultTimeout, PollInterval: DefaultPollInterval}
}

// Waiter drives conditions against a single Session. It holds no state
// between calls; every call is independent.
type Waiter struct {
	session  Session
	settings Settings
	logger   *zap.Logger
}

// New creates a Waiter over session. Zero fields in settings fall back to the
// package defaults. A nil logger disables logging.
func New(session Session, settings Settings, logger *zap.Logger) *Waiter {
	if settings.DefaultTimeout <= 0 {
		settings.DefaultTimeout = DefaultTimeout
	}
	settings.PollInterval = clampPoll(settings.PollInterval)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Waiter{
		session:  session,
		settings: settings,
		logger:   logger.Named("waiter"),
	}
}

// Session returns the session the waiter drives.
func (w *Waiter) Session() Session { return w.session }

// Option overrides a default for a single call.
type Option func(*callOptions)

type callOptions struct {
	timeout      time.Duration
	pollInterval time.Duration
}

// Within sets the timeout for one call. Zero is a valid timeout: the condition
// is still evaluated once. Negative values are treated as zero.
func Within(d time.Duration) Option {
	return func(o *callOptions) {
		if d < 0 {
			d = 0
		}
		o.timeout = d
	}
}

// PollEvery sets the sampling interval for one call. Values under
// MinPollInterval are clamped.
func PollEvery(d time.Duration) Option {
	return func(o *callOptions) {
		o.pollInterval = clampPoll(d)
	}
}

func clampPoll(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPollInterval
	}
	if d < MinPollInterval {
		return MinPollInterval
	}
	return d
}

func (w *Waiter) resolveOptions(opts []Option) callOptions {
	co := callOptions{
		timeout:      w.settings.DefaultTimeout,
		pollInterval: w.settings.PollInterval,
	}
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

// Until evaluates check until it is satisfied or the timeout elapses.
//
// The first evaluation happens immediately, so a zero timeout still gets one
// attempt. The deadline is wall clock from the start of the call. Evaluations
// run under ctx rather than under the wait deadline, so an evaluation that is
// already running is never cut short; a slow one only consumes budget.
//
// On timeout Until returns a *TimeoutError. If ctx itself is cancelled the
// context error is returned, wrapped.
func (w *Waiter) Until(ctx context.Context, check Check, opts ...Option) error {
	co := w.resolveOptions(opts)
	logger := w.logger.With(
		zap.String("operation", check.Operation),
		zap.String("target", check.Target),
		zap.Duration("timeout", co.timeout),
	)

	var (
		attempts int
		lastErr  error
		outcome  Outcome
	)
	start := time.Now()

	err := wait.PollUntilContextTimeout(ctx, co.pollInterval, co.timeout, true, func(context.Context) (bool, error) {
		attempts++
		outcome, lastErr = check.Evaluate(ctx)
		if lastErr != nil {
			logger.Debug("Condition evaluation failed.",
				zap.Int("attempt", attempts),
				zap.Stringer("outcome", outcome),
				zap.Stringer("policy", check.Policy),
				zap.Error(lastErr))
		}
		return outcome.Done(), nil
	})
	elapsed := time.Since(start)

	if err == nil {
		logger.Debug("Condition satisfied.",
			zap.Int("attempts", attempts),
			zap.Stringer("outcome", outcome),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	// 1. The caller gave up.
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Debug("Wait interrupted by caller.", zap.Int("attempts", attempts), zap.Error(ctxErr))
		return fmt.Errorf("%s on %s interrupted: %w", check.Operation, check.Target, ctxErr)
	}

	// 2. Our own deadline passed.
	if wait.Interrupted(err) || errors.Is(err, context.DeadlineExceeded) {
		timeoutErr := &TimeoutError{
			Operation: check.Operation,
			Target:    check.Target,
			Timeout:   co.timeout,
			Attempts:  attempts,
			LastErr:   lastErr,
		}
		logger.Warn("Wait timed out.",
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", elapsed),
			zap.NamedError("last_error", lastErr))
		return timeoutErr
	}

	return fmt.Errorf("%s on %s: %w", check.Operation, check.Target, err)
}
