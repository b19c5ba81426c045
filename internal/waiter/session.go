// internal/waiter/session.go
package waiter

import (
	"context"
	"errors"
)

// KeyTab is the key sequence sent after typing when a request asks for focus
// to leave the field. Drivers translate it into a Tab key press.
const KeyTab = "\t"

// ErrNoSuchElement is returned by a Session (or a Locator) when a query matches
// nothing on the current page. The waiter treats it as "not yet".
var ErrNoSuchElement = errors.New("no such element")

// ErrStaleElement is returned by drivers when a previously resolved handle no
// longer belongs to the document.
var ErrStaleElement = errors.New("stale element reference")

// Session is the capability surface the waiter consumes from a live browser.
// It is owned by the caller; the waiter never creates or closes one.
//
// A Session is not safe for concurrent use by two waiters. Drive separate
// browsers through separate Sessions.
type Session interface {
	// Navigate loads url in the current window.
	Navigate(ctx context.Context, url string) error

	// ExecuteScript evaluates a JavaScript expression in the page and decodes
	// its result into res (a pointer). A thrown exception is returned as an error.
	ExecuteScript(ctx context.Context, script string, res any) error

	// FindElement resolves a query to a live element. A query that matches
	// nothing returns ErrNoSuchElement (or a nil Element).
	FindElement(ctx context.Context, by Strategy, query string) (Element, error)

	// Dropdown wraps el as a select control. It fails when el is not a <select>.
	Dropdown(ctx context.Context, el Element) (Dropdown, error)
}

// Element is a handle to a single DOM node. Handles can go stale at any point;
// every method may then fail with ErrStaleElement or a driver specific error.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
	// Attribute returns the named attribute. For "value" and "selected" drivers
	// report the live DOM property rather than the markup attribute.
	Attribute(ctx context.Context, name string) (string, error)
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	IsSelected(ctx context.Context) (bool, error)
	// String describes the handle for diagnostics.
	String() string
}

// Dropdown is a <select> control.
type Dropdown interface {
	SelectByLabel(ctx context.Context, label string) error
	SelectByValue(ctx context.Context, value string) error
	SelectByIndex(ctx context.Context, index int) error
	DeselectAll(ctx context.Context) error
	// SelectedOptions returns the selected options in selection order.
	SelectedOptions(ctx context.Context) ([]Element, error)
	// Options returns every option in document order.
	Options(ctx context.Context) ([]Element, error)
}
