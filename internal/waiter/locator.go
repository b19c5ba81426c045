// internal/waiter/locator.go
package waiter

import (
	"context"
	"fmt"
)

// Strategy names how a selector query is interpreted by the driver.
type Strategy string

const (
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
	ByID    Strategy = "id"
)

// Locator identifies the element a condition acts on.
//
// There are two kinds. A handle locator wraps an element that was resolved
// once by the caller; it can go stale mid-poll and is never re-resolved. A
// selector locator is resolved again on every poll attempt, so an element that
// appears, disappears or is re-rendered between attempts is picked up naturally.
type Locator interface {
	Resolve(ctx context.Context, s Session) (Element, error)
	String() string
}

// Handle wraps an already resolved element.
func Handle(el Element) Locator {
	return handle{el: el}
}

type handle struct {
	el Element
}

func (h handle) Resolve(context.Context, Session) (Element, error) {
	if h.el == nil {
		return nil, ErrNoSuchElement
	}
	return h.el, nil
}

func (h handle) String() string {
	if h.el == nil {
		return "<nil element>"
	}
	return h.el.String()
}

// Selector is a deferred locator, re-resolved through the Session on each attempt.
type Selector struct {
	By    Strategy
	Query string
}

// CSS returns a selector locator for a CSS query.
func CSS(query string) Selector { return Selector{By: ByCSS, Query: query} }

// XPath returns a selector locator for an XPath expression.
func XPath(query string) Selector { return Selector{By: ByXPath, Query: query} }

// ID returns a selector locator matching an element id.
func ID(id string) Selector { return Selector{By: ByID, Query: id} }

// Resolve looks the selector up on the current page.
func (s Selector) Resolve(ctx context.Context, sess Session) (Element, error) {
	el, err := sess.FindElement(ctx, s.By, s.Query)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchElement, s)
	}
	return el, nil
}

func (s Selector) String() string {
	return fmt.Sprintf("%s %q", s.By, s.Query)
}
