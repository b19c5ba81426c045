// internal/waiter/click.go
package waiter

import "context"

// Click clicks the located element until one click goes through without an
// error. Stale handles, missing elements, elements that are not yet clickable
// and obscured elements are all retried.
//
// The click itself is the condition: every attempt clicks again. There is no
// "is it clickable" pre-check, because the only proof a click works is a click
// that worked. An attempt that failed did not complete the click.
func (w *Waiter) Click(ctx context.Context, loc Locator, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: "click",
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			el, err := loc.Resolve(ctx, w.session)
			if err != nil {
				return false, err
			}
			if err := el.Click(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
	}, opts...)
}
