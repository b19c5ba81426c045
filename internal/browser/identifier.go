// internal/browser/identifier.go
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagewait/internal/config"
)

// ErrUnsupportedBrowser is returned for identifiers that cannot be launched.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Kind is a browser family.
type Kind string

const (
	Chrome  Kind = "chrome"
	Edge    Kind = "edge"
	Firefox Kind = "firefox"
	Safari  Kind = "safari"
)

// Variant is the optional suffix of a browser identifier.
type Variant string

const (
	Plain     Variant = ""
	Sized     Variant = "s"
	Headless  Variant = "h"
	Arguments Variant = "a"
)

// Spec is a parsed browser identifier such as "chrome", "edge_s" or "chrome_h".
type Spec struct {
	ID      string
	Kind    Kind
	Variant Variant
}

// variants lists which suffixes each family accepts.
var variants = map[Kind][]Variant{
	Chrome:  {Plain, Sized, Headless, Arguments},
	Edge:    {Plain, Sized, Headless, Arguments},
	Firefox: {Plain, Sized, Headless, Arguments},
	Safari:  {Plain, Sized},
}

// ParseSpec parses a browser identifier. Matching is case-insensitive.
func ParseSpec(id string) (Spec, error) {
	norm := strings.ToLower(strings.TrimSpace(id))
	name, suffix, hasSuffix := strings.Cut(norm, "_")

	kind := Kind(name)
	allowed, ok := variants[kind]
	if !ok || (hasSuffix && suffix == "") || !slices.Contains(allowed, Variant(suffix)) {
		return Spec{}, fmt.Errorf("%w %q: will not start any browser", ErrUnsupportedBrowser, id)
	}
	return Spec{ID: norm, Kind: kind, Variant: Variant(suffix)}, nil
}

// LaunchPlan is everything needed to start one browser process.
type LaunchPlan struct {
	Spec     Spec
	Headless bool
	// Width and Height are zero when the window should be maximized.
	Width, Height int
	// Flags are command line switches without the leading dashes. A true
	// value renders as a bare switch.
	Flags    map[string]any
	ExecPath string
}

// A maximized headless browser has no screen to fill; it gets this window.
const maximizedWidth, maximizedHeight = 1920, 1080

// Plan resolves id against the browser configuration.
func Plan(id string, cfg config.BrowserConfig) (LaunchPlan, error) {
	spec, err := ParseSpec(id)
	if err != nil {
		return LaunchPlan{}, err
	}
	if spec.Kind == Firefox || spec.Kind == Safari {
		return LaunchPlan{}, fmt.Errorf("%w %q: %s does not speak the Chrome DevTools Protocol", ErrUnsupportedBrowser, id, spec.Kind)
	}

	p := LaunchPlan{
		Spec:     spec,
		Headless: cfg.Headless || spec.Variant == Headless,
		Flags:    map[string]any{},
		ExecPath: cfg.ExecPath,
	}

	switch spec.Variant {
	case Sized:
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return LaunchPlan{}, fmt.Errorf("browser %q needs browser.width and browser.height", id)
		}
		p.Width, p.Height = cfg.Width, cfg.Height
	case Arguments:
		if len(splitArgs(cfg.Args)) == 0 {
			return LaunchPlan{}, fmt.Errorf("browser %q needs browser.args", id)
		}
	}

	if spec.Kind == Chrome && spec.Variant != Arguments {
		p.Flags["remote-allow-origins"] = "*"
	}

	switch {
	case p.Width > 0:
		p.Flags["window-size"] = fmt.Sprintf("%d,%d", p.Width, p.Height)
	case p.Headless:
		p.Flags["window-size"] = fmt.Sprintf("%d,%d", maximizedWidth, maximizedHeight)
	default:
		p.Flags["start-maximized"] = true
	}

	if cfg.IgnoreTLSErrors {
		p.Flags["ignore-certificate-errors"] = true
	}
	if runtime.GOOS == "linux" {
		p.Flags["no-sandbox"] = true
		p.Flags["disable-dev-shm-usage"] = true
	}

	for _, arg := range splitArgs(cfg.Args) {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if hasValue {
			p.Flags[name] = value
		} else {
			p.Flags[name] = true
		}
	}

	if p.ExecPath == "" && spec.Kind == Edge {
		path, err := findEdge()
		if err != nil {
			return LaunchPlan{}, err
		}
		p.ExecPath = path
	}
	return p, nil
}

// AllocatorOptions renders the plan as chromedp exec allocator options,
// starting from chromedp's defaults.
func (p LaunchPlan) AllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := slices.Clone(chromedp.DefaultExecAllocatorOptions[:])
	if !p.Headless {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("mute-audio", false),
		)
	}

	names := make([]string, 0, len(p.Flags))
	for name := range p.Flags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, p.Flags[name]))
	}

	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}
	return opts
}

// splitArgs accepts both list entries and comma separated strings. A comma
// only starts a new switch when the next piece begins with a dash or the
// current switch has no value yet, so "--window-size=800,600" stays whole.
func splitArgs(args []string) []string {
	var out []string
	for _, a := range args {
		start := len(out)
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if last := len(out) - 1; last >= start && !strings.HasPrefix(part, "-") && strings.Contains(out[last], "=") {
				out[last] += "," + part
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

var edgeExecutables = []string{
	"microsoft-edge",
	"microsoft-edge-stable",
	"msedge",
	`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
	"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func findEdge() (string, error) {
	for _, name := range edgeExecutables {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("microsoft edge executable not found; set browser.exec_path")
}
