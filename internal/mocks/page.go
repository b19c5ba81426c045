// File: internal/mocks/page.go
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrScriptNotDefined is what FakeSession returns for scripts nobody registered,
// standing in for the ReferenceError a real page throws.
var ErrScriptNotDefined = errors.New("ReferenceError: not defined")

// ScriptFunc produces the result of the call-th evaluation (1-based) of a script.
type ScriptFunc func(call int) (any, error)

// Returns is a ScriptFunc that always yields v.
func Returns(v any) ScriptFunc {
	return func(int) (any, error) { return v, nil }
}

// ReturnsAfter fails the first n-1 calls with err and yields v from call n on.
func ReturnsAfter(n int, v any, err error) ScriptFunc {
	return func(call int) (any, error) {
		if call < n {
			return nil, err
		}
		return v, nil
	}
}

type elementKey struct {
	by    waiter.Strategy
	query string
}

// FakeSession is an in-memory page implementing waiter.Session. Scripts and
// elements are registered up front (or mutated mid-test) and every call is
// counted so tests can assert on how often the waiter touched the page.
type FakeSession struct {
	mu sync.Mutex

	scripts     map[string]ScriptFunc
	scriptCalls map[string]int
	elements    map[elementKey]waiter.Element
	findCalls   map[elementKey]int
	navigations []string

	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error
}

var _ waiter.Session = (*FakeSession)(nil)

// NewFakeSession returns an empty page: no scripts defined, no elements.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		scripts:     make(map[string]ScriptFunc),
		scriptCalls: make(map[string]int),
		elements:    make(map[elementKey]waiter.Element),
		findCalls:   make(map[elementKey]int),
	}
}

// OnScript registers the behaviour of script.
func (s *FakeSession) OnScript(script string, fn ScriptFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[script] = fn
}

// ScriptCalls reports how many times script was evaluated.
func (s *FakeSession) ScriptCalls(script string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scriptCalls[script]
}

// Put makes el resolvable by (by, query).
func (s *FakeSession) Put(by waiter.Strategy, query string, el waiter.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[elementKey{by, query}] = el
}

// Remove detaches whatever (by, query) resolved to.
func (s *FakeSession) Remove(by waiter.Strategy, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, elementKey{by, query})
}

// FindCalls reports how many times (by, query) was looked up.
func (s *FakeSession) FindCalls(by waiter.Strategy, query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls[elementKey{by, query}]
}

// Navigations returns every URL passed to Navigate, in order.
func (s *FakeSession) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

func (s *FakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)
	return s.NavigateErr
}

// ExecuteScript runs the registered ScriptFunc and round-trips its result
// through JSON into res, the way a driver decodes a remote evaluation.
func (s *FakeSession) ExecuteScript(_ context.Context, script string, res any) error {
	s.mu.Lock()
	fn, ok := s.scripts[script]
	s.scriptCalls[script]++
	call := s.scriptCalls[script]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrScriptNotDefined, script)
	}
	v, err := fn(call)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode script result: %w", err)
	}
	return json.Unmarshal(data, res)
}

func (s *FakeSession) FindElement(_ context.Context, by waiter.Strategy, query string) (waiter.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := elementKey{by, query}
	s.findCalls[key]++
	el, ok := s.elements[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", waiter.ErrNoSuchElement, by, query)
	}
	return el, nil
}

func (s *FakeSession) Dropdown(_ context.Context, el waiter.Element) (waiter.Dropdown, error) {
	sel, ok := el.(*FakeSelect)
	if !ok {
		return nil, fmt.Errorf("element %s is not a <select>", el)
	}
	return sel, nil
}

// -- Elements --

// FakeElement is an input-like element. Typing appends to its value; the
// optional OnInput and OnBlur hooks stand in for page scripts that reformat
// the value while typing or when focus leaves the field.
type FakeElement struct {
	mu sync.Mutex

	name  string
	value string
	text  string
	attrs map[string]string
	stale bool

	clickErrs []error
	clicks    int

	// ContentEditable makes Text report the typed value.
	ContentEditable bool
	// OnInput rewrites the value after every typed chunk.
	OnInput func(string) string
	// OnBlur rewrites the value when Tab is sent.
	OnBlur func(string) string
	// OnClick runs after every successful click.
	OnClick func()
}

var _ waiter.Element = (*FakeElement)(nil)

// NewFakeElement returns an empty element described as name.
func NewFakeElement(name string) *FakeElement {
	return &FakeElement{name: name, attrs: make(map[string]string)}
}

// SetText sets the rendered text.
func (e *FakeElement) SetText(text string) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	return e
}

// SetAttribute sets a markup attribute.
func (e *FakeElement) SetAttribute(name, value string) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// FailClicks queues errors returned by the next clicks, one per click.
func (e *FakeElement) FailClicks(errs ...error) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clickErrs = append(e.clickErrs, errs...)
	return e
}

// MarkStale detaches the element: every later call fails with ErrStaleElement.
func (e *FakeElement) MarkStale() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = true
}

// Clicks reports how many clicks went through.
func (e *FakeElement) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Value returns the current value without going through the Element API.
func (e *FakeElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *FakeElement) staleErr() error {
	return fmt.Errorf("%w: %s", waiter.ErrStaleElement, e.name)
}

func (e *FakeElement) Click(context.Context) error {
	e.mu.Lock()
	if e.stale {
		e.mu.Unlock()
		return e.staleErr()
	}
	if len(e.clickErrs) > 0 {
		err := e.clickErrs[0]
		e.clickErrs = e.clickErrs[1:]
		e.mu.Unlock()
		return err
	}
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *FakeElement) Clear(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return e.staleErr()
	}
	e.value = ""
	return nil
}

func (e *FakeElement) SendKeys(_ context.Context, keys string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return e.staleErr()
	}
	if keys == waiter.KeyTab {
		if e.OnBlur != nil {
			e.value = e.OnBlur(e.value)
		}
		return nil
	}
	e.value += keys
	if e.OnInput != nil {
		e.value = e.OnInput(e.value)
	}
	return nil
}

func (e *FakeElement) Attribute(_ context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return "", e.staleErr()
	}
	if name == "value" {
		return e.value, nil
	}
	return e.attrs[name], nil
}

func (e *FakeElement) Text(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return "", e.staleErr()
	}
	if e.ContentEditable {
		return e.value, nil
	}
	return e.text, nil
}

func (e *FakeElement) IsSelected(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return false, e.staleErr()
	}
	return false, nil
}

func (e *FakeElement) String() string { return e.name }

// -- Select --

// FakeOption is one <option> of a FakeSelect.
type FakeOption struct {
	Label string
	Value string
}

// FakeSelect is a <select> element and its Dropdown view. It remembers the
// order options were selected in, which is what SelectedOptions reports.
type FakeSelect struct {
	FakeElement

	options  []FakeOption
	order    []int
	multiple bool

	stickyDeselects int
	deselectCalls   int
}

var (
	_ waiter.Element  = (*FakeSelect)(nil)
	_ waiter.Dropdown = (*FakeSelect)(nil)
)

// NewFakeSelect returns a single-select with options in document order.
func NewFakeSelect(name string, options ...FakeOption) *FakeSelect {
	return &FakeSelect{
		FakeElement: FakeElement{name: name, attrs: make(map[string]string)},
		options:     options,
	}
}

// NewFakeMultiSelect returns a <select multiple>.
func NewFakeMultiSelect(name string, options ...FakeOption) *FakeSelect {
	s := NewFakeSelect(name, options...)
	s.multiple = true
	return s
}

// StickyDeselects makes the next n DeselectAll calls leave the oldest
// selection in place, like a page script that re-selects a default.
func (s *FakeSelect) StickyDeselects(n int) *FakeSelect {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stickyDeselects = n
	return s
}

// DeselectCalls reports how many times DeselectAll ran.
func (s *FakeSelect) DeselectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deselectCalls
}

// Preselect selects the options at indexes, in order, bypassing the Dropdown API.
func (s *FakeSelect) Preselect(indexes ...int) *FakeSelect {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indexes {
		s.selectLocked(i)
	}
	return s
}

// SelectedLabels returns the selected labels in selection order.
func (s *FakeSelect) SelectedLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]string, 0, len(s.order))
	for _, i := range s.order {
		labels = append(labels, s.options[i].Label)
	}
	return labels
}

func (s *FakeSelect) selectLocked(i int) {
	if !s.multiple {
		s.order = []int{i}
		return
	}
	for _, j := range s.order {
		if j == i {
			return
		}
	}
	s.order = append(s.order, i)
}

func (s *FakeSelect) selectWhere(match func(FakeOption) bool, what string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return s.staleErr()
	}
	found := false
	for i, opt := range s.options {
		if match(opt) {
			s.selectLocked(i)
			found = true
			if !s.multiple {
				break
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: cannot locate option with %s", waiter.ErrNoSuchElement, what)
	}
	return nil
}

func (s *FakeSelect) SelectByLabel(_ context.Context, label string) error {
	return s.selectWhere(func(o FakeOption) bool { return o.Label == label }, fmt.Sprintf("label %q", label))
}

func (s *FakeSelect) SelectByValue(_ context.Context, value string) error {
	return s.selectWhere(func(o FakeOption) bool { return o.Value == value }, fmt.Sprintf("value %q", value))
}

func (s *FakeSelect) SelectByIndex(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return s.staleErr()
	}
	if index < 0 || index >= len(s.options) {
		return fmt.Errorf("%w: cannot locate option with index %d", waiter.ErrNoSuchElement, index)
	}
	s.selectLocked(index)
	return nil
}

func (s *FakeSelect) DeselectAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return s.staleErr()
	}
	if !s.multiple {
		return errors.New("you may only deselect all options of a multi-select")
	}
	s.deselectCalls++
	if s.stickyDeselects > 0 && len(s.order) > 0 {
		s.stickyDeselects--
		s.order = s.order[:1]
		return nil
	}
	s.order = nil
	return nil
}

func (s *FakeSelect) SelectedOptions(context.Context) ([]waiter.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil, s.staleErr()
	}
	out := make([]waiter.Element, 0, len(s.order))
	for _, i := range s.order {
		out = append(out, &fakeOptionElement{sel: s, index: i})
	}
	return out, nil
}

func (s *FakeSelect) Options(context.Context) ([]waiter.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil, s.staleErr()
	}
	out := make([]waiter.Element, 0, len(s.options))
	for i := range s.options {
		out = append(out, &fakeOptionElement{sel: s, index: i})
	}
	return out, nil
}

// fakeOptionElement is a live view of one option; its selected state is read
// from the owning select on every call.
type fakeOptionElement struct {
	sel   *FakeSelect
	index int
}

func (o *fakeOptionElement) option() FakeOption {
	o.sel.mu.Lock()
	defer o.sel.mu.Unlock()
	return o.sel.options[o.index]
}

func (o *fakeOptionElement) Click(ctx context.Context) error {
	return o.sel.SelectByIndex(ctx, o.index)
}

func (o *fakeOptionElement) Clear(context.Context) error {
	return errors.New("invalid element state: option cannot be cleared")
}

func (o *fakeOptionElement) SendKeys(context.Context, string) error {
	return errors.New("element not interactable: option")
}

func (o *fakeOptionElement) Attribute(_ context.Context, name string) (string, error) {
	if name == "value" {
		return o.option().Value, nil
	}
	return "", nil
}

func (o *fakeOptionElement) Text(context.Context) (string, error) {
	return o.option().Label, nil
}

func (o *fakeOptionElement) IsSelected(context.Context) (bool, error) {
	o.sel.mu.Lock()
	defer o.sel.mu.Unlock()
	for _, i := range o.sel.order {
		if i == o.index {
			return true, nil
		}
	}
	return false, nil
}

func (o *fakeOptionElement) String() string {
	return fmt.Sprintf("%s option[%d]", o.sel.name, o.index)
}
