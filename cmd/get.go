// File: cmd/get.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewait/internal/scenario"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

const shutdownTimeout = 10 * time.Second

func newGetCmd(a *app) *cobra.Command {
	var clicks []string

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Open URL and wait until the page has loaded and jQuery is idle",
		Example: `  pagewait get https://example.com
  pagewait get https://shop.example --browser edge_h --click css=#accept --click "id=checkout"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(cmd.Context(), cmd.OutOrStdout(), args[0], clicks)
		},
	}

	cmd.Flags().StringP("browser", "b", "", "browser identifier, e.g. chrome_h or edge_s (overrides config/env)")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "locator to click once the page settled (css=, xpath= or id= prefix); repeatable")
	return cmd
}

func (a *app) runGet(ctx context.Context, out io.Writer, url string, clicks []string) error {
	locs := make([]waiter.Selector, 0, len(clicks))
	for _, c := range clicks {
		loc, err := scenario.ParseLocator(c)
		if err != nil {
			return fmt.Errorf("invalid --click: %w", err)
		}
		locs = append(locs, loc)
	}

	open, shutdown := a.newOpener(a.cfg.Browser, a.logger)
	defer a.shutdown(shutdown)

	b, err := open(ctx, a.cfg.Browser.Kind)
	if err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	defer b.Close()

	w := waiter.New(b, a.waiterSettings(), a.logger)
	start := time.Now()
	if err := w.Get(ctx, url); err != nil {
		return err
	}
	fmt.Fprintf(out, "settled %s in %s\n", url, time.Since(start).Round(time.Millisecond))

	for _, loc := range locs {
		if err := w.Click(ctx, loc); err != nil {
			return err
		}
		fmt.Fprintf(out, "clicked %s\n", loc)
	}

	var title string
	if err := b.ExecuteScript(ctx, "document.title", &title); err != nil {
		a.logger.Warn("Could not read the page title.", zap.Error(err))
	} else if title != "" {
		fmt.Fprintf(out, "title: %s\n", title)
	}
	return nil
}

// shutdown closes every browser, giving up after shutdownTimeout.
func (a *app) shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		a.logger.Warn("Browser shutdown incomplete.", zap.Error(err))
	}
}
