// internal/browser/session/element.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// Element is a handle to a DOM node resolved by a Session.
type Element struct {
	exec ActionExecutor
	node *cdp.Node
	desc string
}

var _ waiter.Element = (*Element)(nil)

func newElement(exec ActionExecutor, node *cdp.Node, desc string) *Element {
	return &Element{exec: exec, node: node, desc: desc}
}

// Click dispatches a left click at the center of the node, scrolling it into
// view first. A node without a layout box cannot be clicked.
func (e *Element) Click(ctx context.Context) error {
	err := e.exec.RunActions(ctx, chromedp.MouseClickNode(e.node))
	if errors.Is(err, chromedp.ErrInvalidDimensions) {
		return fmt.Errorf("element %s is not displayed: %w", e, err)
	}
	return e.wrap("click", err)
}

// Clear empties an input, textarea or contenteditable node.
func (e *Element) Clear(ctx context.Context) error {
	return e.wrap("clear", e.callOn(ctx, clearJS, nil))
}

// SendKeys focuses the node and types keys. waiter.KeyTab is sent as a Tab press.
func (e *Element) SendKeys(ctx context.Context, keys string) error {
	return e.wrap("send keys to", e.exec.RunActions(ctx, chromedp.KeyEventNode(e.node, keys)))
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	var v string
	if err := e.callOn(ctx, attributeJS, &v, name); err != nil {
		return "", e.wrap("read attribute "+name+" of", err)
	}
	return v, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var v string
	if err := e.callOn(ctx, textJS, &v); err != nil {
		return "", e.wrap("read text of", err)
	}
	return v, nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	var v bool
	if err := e.callOn(ctx, selectedJS, &v); err != nil {
		return false, e.wrap("read selection of", err)
	}
	return v, nil
}

func (e *Element) String() string {
	tag := strings.ToLower(e.node.LocalName)
	if tag == "" {
		tag = strings.ToLower(e.node.NodeName)
	}
	if e.desc == "" {
		return "<" + tag + ">"
	}
	return "<" + tag + "> " + e.desc
}

// callOn runs a function declaration with the node bound to "this" and
// decodes the returned value into res.
func (e *Element) callOn(ctx context.Context, fn string, res any, args ...any) error {
	var raw []byte
	err := e.exec.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		}()
		bind := func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID).WithAwaitPromise(true)
		}
		return chromedp.CallFunctionOn(fn, &raw, bind, args...).Do(ctx)
	}))
	if err != nil {
		return err
	}
	return decodeResult(raw, res)
}

// wrap labels a driver error with the action and element. Errors showing the
// node left the document become waiter.ErrStaleElement.
func (e *Element) wrap(action string, err error) error {
	if err == nil {
		return nil
	}
	if isStale(err) {
		return fmt.Errorf("%s %s: %w", action, e, waiter.ErrStaleElement)
	}
	return fmt.Errorf("%s %s: %w", action, e, err)
}

func isStale(err error) bool {
	var cdpErr *cdproto.Error
	if errors.As(err, &cdpErr) {
		msg := strings.ToLower(cdpErr.Message)
		return strings.Contains(msg, "node with given id") ||
			strings.Contains(msg, "node is detached")
	}
	return false
}
