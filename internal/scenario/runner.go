// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// Browser is a live session the runner drives and closes.
type Browser interface {
	waiter.Session
	Close()
}

// Opener starts the browser named by id.
type Opener func(ctx context.Context, id string) (Browser, error)

// Runner executes scenarios, one session per browser.
type Runner struct {
	open        Opener
	settings    waiter.Settings
	concurrency int
	launches    *rate.Limiter
	logger      *zap.Logger
}

// NewRunner returns a runner that keeps at most concurrency browsers open.
func NewRunner(open Opener, settings waiter.Settings, concurrency int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		open:        open,
		settings:    settings,
		concurrency: concurrency,
		logger:      logger.Named("runner"),
	}
}

// LimitLaunches paces browser starts to perSecond, so that a wide run does not
// spawn every browser process at the same instant. Zero removes the limit.
func (r *Runner) LimitLaunches(perSecond float64) *Runner {
	if perSecond <= 0 {
		r.launches = nil
		return r
	}
	r.launches = rate.NewLimiter(rate.Limit(perSecond), 1)
	return r
}

// Result is the outcome of one scenario on one browser.
type Result struct {
	Browser string
	// Completed counts the steps that finished successfully.
	Completed int
	Duration  time.Duration
	Err       error
}

// Report collects the results of a run in browser order.
type Report struct {
	RunID    string
	Scenario string
	Results  []Result
}

// Failed reports whether any browser failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// Run executes sc on each browser concurrently. The scenario's own browser
// list wins over fallback. The first failure cancels the remaining browsers;
// the returned error is that first failure.
func (r *Runner) Run(ctx context.Context, sc *Scenario, fallback []string) (*Report, error) {
	browsers := sc.Browsers
	if len(browsers) == 0 {
		browsers = fallback
	}
	if len(browsers) == 0 {
		return nil, errors.New("no browsers to run the scenario on")
	}

	report := &Report{
		RunID:    uuid.New().String(),
		Scenario: sc.Name,
		Results:  make([]Result, len(browsers)),
	}
	logger := r.logger.With(zap.String("run_id", report.RunID), zap.String("scenario", sc.Name))
	logger.Info("Starting scenario.", zap.Strings("browsers", browsers), zap.Int("steps", len(sc.Steps)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, id := range browsers {
		g.Go(func() error {
			report.Results[i] = r.runOne(gctx, sc, id, logger.With(zap.String("browser", id)))
			return report.Results[i].Err
		})
	}
	err := g.Wait()

	if err != nil {
		logger.Warn("Scenario failed.", zap.Error(err))
	} else {
		logger.Info("Scenario passed.")
	}
	return report, err
}

func (r *Runner) runOne(ctx context.Context, sc *Scenario, id string, logger *zap.Logger) Result {
	start := time.Now()
	res := Result{Browser: id}

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: not started: %w", id, err)
		res.Duration = time.Since(start)
		return res
	}

	if r.launches != nil {
		if err := r.launches.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("%s: not started: %w", id, err)
			res.Duration = time.Since(start)
			return res
		}
	}

	b, err := r.open(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", id, err)
		res.Duration = time.Since(start)
		return res
	}
	defer b.Close()

	w := waiter.New(b, r.settings, logger)
	for i, st := range sc.Steps {
		logger.Debug("Running step.", zap.Int("step", i+1), zap.String("action", string(st.Action())))
		if err := execute(ctx, w, st); err != nil {
			res.Err = fmt.Errorf("%s: step %d (%s): %w", id, i+1, st.Action(), err)
			break
		}
		res.Completed++
	}
	res.Duration = time.Since(start)
	return res
}

// execute maps a step onto its waiter operation.
func execute(ctx context.Context, w *waiter.Waiter, st Step) error {
	var opts []waiter.Option
	if st.Timeout != nil {
		opts = append(opts, waiter.Within(*st.Timeout))
	}

	switch st.Action() {
	case ActionGet:
		return w.Get(ctx, st.Get, opts...)
	case ActionWaitReady:
		return w.WaitForPageLoad(ctx, opts...)
	case ActionWaitIdle:
		return w.WaitForIdle(ctx, opts...)
	case ActionClick:
		loc, err := ParseLocator(st.Click)
		if err != nil {
			return err
		}
		return w.Click(ctx, loc, opts...)
	case ActionType:
		loc, err := ParseLocator(st.Type)
		if err != nil {
			return err
		}
		return w.Type(ctx, loc, typeRequest(st), opts...)
	case ActionSelect:
		loc, err := ParseLocator(st.Select)
		if err != nil {
			return err
		}
		return selectStep(ctx, w, loc, st, opts)
	case ActionDeselectAll:
		loc, err := ParseLocator(st.DeselectAll)
		if err != nil {
			return err
		}
		return w.DeselectAll(ctx, loc, opts...)
	}
	return errors.New("step has no single action")
}

func typeRequest(st Step) waiter.TypeRequest {
	req := waiter.Typed(st.Text)
	if st.Expect != nil {
		req = req.Expecting(*st.Expect)
	}
	if st.Tab {
		req = req.WithTab()
	}
	if st.VerifyText {
		req = req.VerifyingText()
	}
	return req
}

func selectStep(ctx context.Context, w *waiter.Waiter, loc waiter.Locator, st Step, opts []waiter.Option) error {
	switch {
	case st.Label != nil:
		return w.SelectByLabel(ctx, loc, *st.Label, opts...)
	case st.Value != nil:
		return w.SelectByValue(ctx, loc, *st.Value, opts...)
	case st.Option != nil:
		return w.Select(ctx, loc, *st.Option, opts...)
	case st.Index != nil:
		return w.SelectByIndex(ctx, loc, *st.Index, opts...)
	case st.Labels != nil:
		return w.SelectByLabels(ctx, loc, st.Labels, opts...)
	case st.Values != nil:
		return w.SelectByValues(ctx, loc, st.Values, opts...)
	case st.Indexes != nil:
		return w.SelectByIndexes(ctx, loc, st.Indexes, opts...)
	}
	return errors.New("select step names no option")
}
