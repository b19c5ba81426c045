// internal/browser/session/dropdown.go
package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// Dropdown drives a <select> element through in-page scripts. Options are
// addressed by index, so option handles stay valid across re-renders that
// keep the option list intact.
type Dropdown struct {
	el *Element
}

var _ waiter.Dropdown = (*Dropdown)(nil)

func (d *Dropdown) SelectByLabel(ctx context.Context, label string) error {
	return d.selectBy(ctx, "label", label)
}

func (d *Dropdown) SelectByValue(ctx context.Context, value string) error {
	return d.selectBy(ctx, "value", value)
}

func (d *Dropdown) SelectByIndex(ctx context.Context, index int) error {
	return d.selectBy(ctx, "index", index)
}

func (d *Dropdown) selectBy(ctx context.Context, mode string, key any) error {
	return d.el.wrap("select "+mode+" "+fmt.Sprint(key)+" in", d.el.callOn(ctx, selectOptionJS, nil, mode, key))
}

// DeselectAll clears every option of a multi-select.
func (d *Dropdown) DeselectAll(ctx context.Context) error {
	return d.el.wrap("deselect all options of", d.el.callOn(ctx, deselectAllJS, nil))
}

// SelectedOptions returns selected options ordered by when they were
// selected through this package; options selected by the page come first.
func (d *Dropdown) SelectedOptions(ctx context.Context) ([]waiter.Element, error) {
	var indexes []int
	if err := d.el.callOn(ctx, selectedIndexesJS, &indexes); err != nil {
		return nil, d.el.wrap("read selected options of", err)
	}
	return d.options(indexes), nil
}

func (d *Dropdown) Options(ctx context.Context) ([]waiter.Element, error) {
	var n int
	if err := d.el.callOn(ctx, optionCountJS, &n); err != nil {
		return nil, d.el.wrap("read options of", err)
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return d.options(indexes), nil
}

func (d *Dropdown) options(indexes []int) []waiter.Element {
	out := make([]waiter.Element, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, &optionElement{dropdown: d, index: i})
	}
	return out
}

// optionElement is a live view of the option at index of a dropdown.
type optionElement struct {
	dropdown *Dropdown
	index    int
}

type optionState struct {
	Text     string `json:"text"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func (o *optionElement) state(ctx context.Context) (optionState, error) {
	var st optionState
	if err := o.dropdown.el.callOn(ctx, optionJS, &st, o.index); err != nil {
		return st, o.dropdown.el.wrap("read "+o.String()+" of", err)
	}
	return st, nil
}

// Click selects the option.
func (o *optionElement) Click(ctx context.Context) error {
	return o.dropdown.SelectByIndex(ctx, o.index)
}

func (o *optionElement) Clear(context.Context) error {
	return fmt.Errorf("%s cannot be cleared", o)
}

func (o *optionElement) SendKeys(context.Context, string) error {
	return fmt.Errorf("%s does not accept keys", o)
}

func (o *optionElement) Attribute(ctx context.Context, name string) (string, error) {
	switch name {
	case "value":
		st, err := o.state(ctx)
		return st.Value, err
	case "selected":
		st, err := o.state(ctx)
		return strconv.FormatBool(st.Selected), err
	}
	var v string
	if err := o.dropdown.el.callOn(ctx, optionAttributeJS, &v, o.index, name); err != nil {
		return "", o.dropdown.el.wrap("read attribute "+name+" of "+o.String()+" of", err)
	}
	return v, nil
}

func (o *optionElement) Text(ctx context.Context) (string, error) {
	st, err := o.state(ctx)
	return st.Text, err
}

func (o *optionElement) IsSelected(ctx context.Context) (bool, error) {
	st, err := o.state(ctx)
	return st.Selected, err
}

func (o *optionElement) String() string {
	return "option " + strconv.Itoa(o.index)
}
