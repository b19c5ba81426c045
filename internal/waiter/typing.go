// internal/waiter/typing.go
package waiter

import (
	"context"
	"fmt"
)

// Verify selects what is read back after typing.
type Verify int

const (
	// VerifyValue compares the control's "value".
	VerifyValue Verify = iota
	// VerifyText compares the element's displayed text.
	VerifyText
)

func (v Verify) String() string {
	if v == VerifyText {
		return "text"
	}
	return "value"
}

// TypeRequest describes what to type and how to confirm it landed.
// Build one with Typed and refine it with the With/Expecting methods.
type TypeRequest struct {
	text     string
	expected string
	expect   bool
	tab      bool
	verify   Verify
}

// Typed starts a request that types text and expects the control's value to
// equal it afterwards.
func Typed(text string) TypeRequest {
	return TypeRequest{text: text}
}

// Expecting sets the value the page is expected to end up with when it
// reformats input (masks, separators, case changes).
func (r TypeRequest) Expecting(expected string) TypeRequest {
	r.expected = expected
	r.expect = true
	return r
}

// WithTab presses Tab after typing so that blur handlers run before the
// result is read back.
func (r TypeRequest) WithTab() TypeRequest {
	r.tab = true
	return r
}

// VerifyingText reads back the displayed text instead of the value.
func (r TypeRequest) VerifyingText() TypeRequest {
	r.verify = VerifyText
	return r
}

// Text returns what will be typed.
func (r TypeRequest) Text() string { return r.text }

// Expected returns what the read-back must equal.
func (r TypeRequest) Expected() string {
	if r.expect {
		return r.expected
	}
	return r.text
}

func (r TypeRequest) operation() string {
	op := fmt.Sprintf("type %q", r.text)
	if r.tab {
		op += " then Tab"
	}
	if r.expect {
		op += fmt.Sprintf(" expecting %s %q", r.verify, r.expected)
	}
	return op
}

// Type clears the located element, types the request's text, optionally
// presses Tab, then compares the value (or text) with the expected string.
//
// Every attempt starts again from the clear. A failed attempt's partial input
// is overwritten by the next one rather than appended to.
func (w *Waiter) Type(ctx context.Context, loc Locator, req TypeRequest, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: req.operation(),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			el, err := loc.Resolve(ctx, w.session)
			if err != nil {
				return false, err
			}
			if err := el.Clear(ctx); err != nil {
				return false, err
			}
			if err := el.SendKeys(ctx, req.text); err != nil {
				return false, err
			}
			if req.tab {
				if err := el.SendKeys(ctx, KeyTab); err != nil {
					return false, err
				}
			}
			got, err := readBack(ctx, el, req.verify)
			if err != nil {
				return false, err
			}
			return got == req.Expected(), nil
		},
	}, opts...)
}

// ClearAndType types text and waits for the control's value to equal it.
func (w *Waiter) ClearAndType(ctx context.Context, loc Locator, text string, opts ...Option) error {
	return w.Type(ctx, loc, Typed(text), opts...)
}

// ClearTypeAndTab types text, presses Tab, and waits for the control's value
// to still equal text once focus has moved on.
func (w *Waiter) ClearTypeAndTab(ctx context.Context, loc Locator, text string, opts ...Option) error {
	return w.Type(ctx, loc, Typed(text).WithTab(), opts...)
}

func readBack(ctx context.Context, el Element, v Verify) (string, error) {
	if v == VerifyText {
		return el.Text(ctx)
	}
	return el.Attribute(ctx, "value")
}
