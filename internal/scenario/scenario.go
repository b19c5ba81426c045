// internal/scenario/scenario.go
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// Action names a step kind.
type Action string

const (
	ActionGet         Action = "get"
	ActionWaitReady   Action = "wait_ready"
	ActionWaitIdle    Action = "wait_idle"
	ActionClick       Action = "click"
	ActionType        Action = "type"
	ActionSelect      Action = "select"
	ActionDeselectAll Action = "deselect_all"
)

// Scenario is a browser script read from YAML:
//
//	name: checkout
//	browsers: [chrome_h, edge_h]
//	steps:
//	  - get: https://shop.example/cart
//	  - click: css=#checkout
//	  - type: id=zip
//	    text: "12345"
//	    expect: "12345-"
//	  - select: id=sizes
//	    labels: [M, L]
//	    timeout: 5s
type Scenario struct {
	Name     string   `yaml:"name"`
	Browsers []string `yaml:"browsers"`
	Steps    []Step   `yaml:"steps"`
}

// Step is one waiter operation. Exactly one of the action keys is set; the
// remaining fields parameterize it.
type Step struct {
	Get         string `yaml:"get,omitempty"`
	WaitReady   bool   `yaml:"wait_ready,omitempty"`
	WaitIdle    bool   `yaml:"wait_idle,omitempty"`
	Click       string `yaml:"click,omitempty"`
	Type        string `yaml:"type,omitempty"`
	Select      string `yaml:"select,omitempty"`
	DeselectAll string `yaml:"deselect_all,omitempty"`

	// type
	Text       string  `yaml:"text,omitempty"`
	Expect     *string `yaml:"expect,omitempty"`
	Tab        bool    `yaml:"tab,omitempty"`
	VerifyText bool    `yaml:"verify_text,omitempty"`

	// select; one of these
	Label   *string  `yaml:"label,omitempty"`
	Value   *string  `yaml:"value,omitempty"`
	Option  *string  `yaml:"option,omitempty"`
	Index   *int     `yaml:"index,omitempty"`
	Labels  []string `yaml:"labels,omitempty"`
	Values  []string `yaml:"values,omitempty"`
	Indexes []int    `yaml:"indexes,omitempty"`

	// Timeout overrides the default for this step. An explicit 0s evaluates
	// the condition once.
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// Action reports which action the step performs, or "" when none or several
// action keys are set.
func (s Step) Action() Action {
	var found []Action
	if s.Get != "" {
		found = append(found, ActionGet)
	}
	if s.WaitReady {
		found = append(found, ActionWaitReady)
	}
	if s.WaitIdle {
		found = append(found, ActionWaitIdle)
	}
	if s.Click != "" {
		found = append(found, ActionClick)
	}
	if s.Type != "" {
		found = append(found, ActionType)
	}
	if s.Select != "" {
		found = append(found, ActionSelect)
	}
	if s.DeselectAll != "" {
		found = append(found, ActionDeselectAll)
	}
	if len(found) != 1 {
		return ""
	}
	return found[0]
}

// Decode reads a scenario. Unknown keys are rejected.
func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario is empty")
		}
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and validates the scenario file at path. The file name is used
// as the scenario name when the file does not set one.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Validate checks every step and locator without touching a browser.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	var errs []error
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	if s.Timeout != nil && *s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", *s.Timeout)
	}
	switch s.Action() {
	case "":
		return errors.New("exactly one action (get, wait_ready, wait_idle, click, type, select, deselect_all) is required")
	case ActionClick:
		_, err := ParseLocator(s.Click)
		return err
	case ActionType:
		_, err := ParseLocator(s.Type)
		return err
	case ActionDeselectAll:
		_, err := ParseLocator(s.DeselectAll)
		return err
	case ActionSelect:
		if _, err := ParseLocator(s.Select); err != nil {
			return err
		}
		if n := s.selectionKinds(); n != 1 {
			return fmt.Errorf("select needs exactly one of label, value, option, index, labels, values, indexes; got %d", n)
		}
	}
	return nil
}

func (s Step) selectionKinds() int {
	n := 0
	for _, set := range []bool{
		s.Label != nil, s.Value != nil, s.Option != nil, s.Index != nil,
		s.Labels != nil, s.Values != nil, s.Indexes != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// ParseLocator reads "css=<query>", "xpath=<expr>" or "id=<id>". A locator
// without a recognised prefix is a CSS query.
func ParseLocator(s string) (waiter.Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return waiter.Selector{}, errors.New("locator is empty")
	}
	if prefix, query, ok := strings.Cut(s, "="); ok {
		var by waiter.Strategy
		switch strings.ToLower(strings.TrimSpace(prefix)) {
		case "css":
			by = waiter.ByCSS
		case "xpath":
			by = waiter.ByXPath
		case "id":
			by = waiter.ByID
		}
		if by != "" {
			if query == "" {
				return waiter.Selector{}, fmt.Errorf("locator %q has an empty query", s)
			}
			return waiter.Selector{By: by, Query: query}, nil
		}
	}
	return waiter.CSS(s), nil
}
