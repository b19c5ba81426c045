// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// -- Session Mock --

// MockSession mocks waiter.Session.
type MockSession struct {
	mock.Mock
}

var _ waiter.Session = (*MockSession)(nil)

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// ExecuteScript returns the configured error. When a Run function is attached
// to the expectation it can populate res.
func (m *MockSession) ExecuteScript(ctx context.Context, script string, res any) error {
	args := m.Called(ctx, script, res)
	return args.Error(0)
}

func (m *MockSession) FindElement(ctx context.Context, by waiter.Strategy, query string) (waiter.Element, error) {
	args := m.Called(ctx, by, query)
	el, _ := args.Get(0).(waiter.Element)
	return el, args.Error(1)
}

func (m *MockSession) Dropdown(ctx context.Context, el waiter.Element) (waiter.Dropdown, error) {
	args := m.Called(ctx, el)
	dd, _ := args.Get(0).(waiter.Dropdown)
	return dd, args.Error(1)
}

// -- Element Mock --

// MockElement mocks waiter.Element.
type MockElement struct {
	mock.Mock
	// Name is returned by String without going through the mock, so
	// diagnostics never need an expectation.
	Name string
}

var _ waiter.Element = (*MockElement)(nil)

func (m *MockElement) Click(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockElement) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockElement) SendKeys(ctx context.Context, keys string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockElement) Attribute(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) String() string { return m.Name }

// -- Dropdown Mock --

// MockDropdown mocks waiter.Dropdown.
type MockDropdown struct {
	mock.Mock
}

var _ waiter.Dropdown = (*MockDropdown)(nil)

func (m *MockDropdown) SelectByLabel(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockDropdown) SelectByValue(ctx context.Context, value string) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockDropdown) SelectByIndex(ctx context.Context, index int) error {
	args := m.Called(ctx, index)
	return args.Error(0)
}

func (m *MockDropdown) DeselectAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDropdown) SelectedOptions(ctx context.Context) ([]waiter.Element, error) {
	args := m.Called(ctx)
	opts, _ := args.Get(0).([]waiter.Element)
	return opts, args.Error(1)
}

func (m *MockDropdown) Options(ctx context.Context) ([]waiter.Element, error) {
	args := m.Called(ctx)
	opts, _ := args.Get(0).([]waiter.Element)
	return opts, args.Error(1)
}
