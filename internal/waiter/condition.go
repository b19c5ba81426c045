// internal/waiter/condition.go
package waiter

import "context"

// Condition is one evaluation against the page. It may perform an action
// (click, type, select) as well as inspect state; it is invoked again on every
// poll attempt until it reports true.
type Condition func(ctx context.Context) (bool, error)

// ErrorPolicy decides what an evaluation error means for a Check.
type ErrorPolicy int

const (
	// ErrorMeansNotReady folds any evaluation error into "not yet satisfied".
	// Used for DOM interaction, where errors are stale handles, missing
	// elements, obscured targets and script failures during navigation.
	ErrorMeansNotReady ErrorPolicy = iota

	// ErrorMeansAbsent folds any evaluation error into "satisfied": the page
	// feature being checked does not exist, so there is nothing to wait for.
	// Used only by the idle check.
	ErrorMeansAbsent
)

func (p ErrorPolicy) String() string {
	switch p {
	case ErrorMeansNotReady:
		return "error-means-not-ready"
	case ErrorMeansAbsent:
		return "error-means-absent"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single evaluation.
type Outcome int

const (
	NotYet Outcome = iota
	Satisfied
	// Absent means the evaluation failed under ErrorMeansAbsent; it ends the
	// wait the same way Satisfied does.
	Absent
)

func (o Outcome) String() string {
	switch o {
	case NotYet:
		return "not-yet"
	case Satisfied:
		return "satisfied"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Done reports whether the outcome ends the wait.
func (o Outcome) Done() bool { return o == Satisfied || o == Absent }

// Check bundles a condition with what it is doing, what it acts on and how
// its errors are read. Operation and Target end up in the TimeoutError message.
type Check struct {
	Operation string
	Target    string
	Policy    ErrorPolicy
	Condition Condition
}

// Evaluate runs the condition once and applies the error policy. The
// evaluation error is returned alongside the outcome for diagnostics only.
func (c Check) Evaluate(ctx context.Context) (Outcome, error) {
	ok, err := c.Condition(ctx)
	if err != nil {
		if c.Policy == ErrorMeansAbsent {
			return Absent, err
		}
		return NotYet, err
	}
	if ok {
		return Satisfied, nil
	}
	return NotYet, nil
}
