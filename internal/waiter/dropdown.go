// internal/waiter/dropdown.go
package waiter

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// optionReader extracts the comparable identity of an option: its label or its value.
type optionReader func(ctx context.Context, opt Element) (string, error)

func optionLabel(ctx context.Context, opt Element) (string, error) {
	text, err := opt.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func optionValue(ctx context.Context, opt Element) (string, error) {
	return opt.Attribute(ctx, "value")
}

func (w *Waiter) dropdown(ctx context.Context, loc Locator) (Dropdown, error) {
	el, err := loc.Resolve(ctx, w.session)
	if err != nil {
		return nil, err
	}
	return w.session.Dropdown(ctx, el)
}

// -- Single selection --

// SelectByLabel selects the option whose visible label is label and waits
// until it is the first selected option in document order.
func (w *Waiter) SelectByLabel(ctx context.Context, loc Locator, label string, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select option with label %q", label),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			return selectOne(ctx, dd, dd.SelectByLabel, optionLabel, label)
		},
	}, opts...)
}

// SelectByValue selects the option whose value attribute is value and waits
// until it is the first selected option in document order.
func (w *Waiter) SelectByValue(ctx context.Context, loc Locator, value string, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select option with value %q", value),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			return selectOne(ctx, dd, dd.SelectByValue, optionValue, value)
		},
	}, opts...)
}

// Select tries labelOrValue as a visible label first and falls back to
// matching it as a value when selecting by label fails outright. A label
// selection that succeeds but does not verify is not retried by value within
// the same attempt.
func (w *Waiter) Select(ctx context.Context, loc Locator, labelOrValue string, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select option with label or value %q", labelOrValue),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			ok, err := selectOne(ctx, dd, dd.SelectByLabel, optionLabel, labelOrValue)
			if err == nil {
				return ok, nil
			}
			return selectOne(ctx, dd, dd.SelectByValue, optionValue, labelOrValue)
		},
	}, opts...)
}

// SelectByIndex selects the option at index (0-based, document order) and
// waits until that option reports itself selected.
func (w *Waiter) SelectByIndex(ctx context.Context, loc Locator, index int, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select option with index %d", index),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			if err := dd.SelectByIndex(ctx, index); err != nil {
				return false, err
			}
			return indexesSelected(ctx, dd, []int{index})
		},
	}, opts...)
}

func selectOne(ctx context.Context, dd Dropdown, sel func(context.Context, string) error, read optionReader, want string) (bool, error) {
	if err := sel(ctx, want); err != nil {
		return false, err
	}
	first, err := firstSelected(ctx, dd)
	if err != nil || first == nil {
		return false, err
	}
	got, err := read(ctx, first)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// firstSelected returns the first selected option in document order, or nil.
func firstSelected(ctx context.Context, dd Dropdown) (Element, error) {
	all, err := dd.Options(ctx)
	if err != nil {
		return nil, err
	}
	for _, opt := range all {
		ok, err := opt.IsSelected(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return opt, nil
		}
	}
	return nil, nil
}

// -- Multiple selection --

// SelectByLabels replaces the selection of a multi-select with labels, in the
// given order. Each attempt deselects everything, confirms nothing is left
// selected, selects each label in turn and then requires the selected labels,
// read back in order, to equal labels position by position.
func (w *Waiter) SelectByLabels(ctx context.Context, loc Locator, labels []string, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select options with labels %q", labels),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			return selectMany(ctx, dd, dd.SelectByLabel, optionLabel, labels)
		},
	}, opts...)
}

// SelectByValues is SelectByLabels matching on the value attribute.
func (w *Waiter) SelectByValues(ctx context.Context, loc Locator, values []string, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select options with values %q", values),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			return selectMany(ctx, dd, dd.SelectByValue, optionValue, values)
		},
	}, opts...)
}

// SelectByIndexes replaces the selection with the options at indexes. After
// clearing and selecting, every requested position must report selected.
func (w *Waiter) SelectByIndexes(ctx context.Context, loc Locator, indexes []int, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: fmt.Sprintf("select options with indexes %v", indexes),
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			cleared, err := clearSelection(ctx, dd)
			if err != nil || !cleared {
				return false, err
			}
			for _, idx := range indexes {
				if err := dd.SelectByIndex(ctx, idx); err != nil {
					return false, err
				}
			}
			return indexesSelected(ctx, dd, indexes)
		},
	}, opts...)
}

// DeselectAll clears every selection and waits until none remain.
func (w *Waiter) DeselectAll(ctx context.Context, loc Locator, opts ...Option) error {
	return w.Until(ctx, Check{
		Operation: "deselect all options",
		Target:    loc.String(),
		Policy:    ErrorMeansNotReady,
		Condition: func(ctx context.Context) (bool, error) {
			dd, err := w.dropdown(ctx, loc)
			if err != nil {
				return false, err
			}
			return clearSelection(ctx, dd)
		},
	}, opts...)
}

func selectMany(ctx context.Context, dd Dropdown, sel func(context.Context, string) error, read optionReader, want []string) (bool, error) {
	// 1. Start from an empty selection. If anything survives the deselect the
	// attempt is abandoned rather than built on stale state.
	cleared, err := clearSelection(ctx, dd)
	if err != nil || !cleared {
		return false, err
	}

	// 2. Select in the requested order.
	for _, v := range want {
		if err := sel(ctx, v); err != nil {
			return false, err
		}
	}

	// 3. Read back in order and compare position by position.
	selected, err := dd.SelectedOptions(ctx)
	if err != nil {
		return false, err
	}
	got := make([]string, 0, len(selected))
	for _, opt := range selected {
		v, err := read(ctx, opt)
		if err != nil {
			return false, err
		}
		got = append(got, v)
	}
	return slices.Equal(got, want), nil
}

func clearSelection(ctx context.Context, dd Dropdown) (bool, error) {
	if err := dd.DeselectAll(ctx); err != nil {
		return false, err
	}
	remaining, err := dd.SelectedOptions(ctx)
	if err != nil {
		return false, err
	}
	return len(remaining) == 0, nil
}

func indexesSelected(ctx context.Context, dd Dropdown, indexes []int) (bool, error) {
	options, err := dd.Options(ctx)
	if err != nil {
		return false, err
	}
	for _, idx := range indexes {
		if idx < 0 || idx >= len(options) {
			return false, fmt.Errorf("option index %d out of range (%d options)", idx, len(options))
		}
		ok, err := options[idx].IsSelected(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
