// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewait/internal/scenario"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SCENARIO...",
		Short: "Run scenario files against one or more browsers",
		Long: `run executes each scenario file in turn. A scenario runs on every browser it
lists (or on runner.browsers from the configuration), each in its own session.
The first failing browser cancels the others.`,
		Example: `  pagewait run checkout.yaml
  pagewait run smoke/*.yaml --browsers chrome_h,edge_h --parallel 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenarios(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().StringSlice("browsers", nil, "browsers for scenarios that name none (overrides config/env)")
	cmd.Flags().IntP("parallel", "p", 0, "how many browsers run at once (overrides config/env)")
	return cmd
}

func (a *app) runScenarios(ctx context.Context, out io.Writer, paths []string) error {
	scenarios := make([]*scenario.Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := scenario.Load(p)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	open, shutdown := a.newOpener(a.cfg.Browser, a.logger)
	defer a.shutdown(shutdown)

	runner := scenario.NewRunner(open, a.waiterSettings(), a.cfg.Runner.Concurrency, a.logger).
		LimitLaunches(a.cfg.Runner.LaunchRate)

	failed := 0
	for _, sc := range scenarios {
		report, err := runner.Run(ctx, sc, a.cfg.Runner.Browsers)
		printReport(out, sc, report, err)
		if err == nil {
			continue
		}
		failed++
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Debug("Scenario failed.", zap.String("scenario", sc.Name), zap.Error(err))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}

func printReport(out io.Writer, sc *scenario.Scenario, report *scenario.Report, err error) {
	if report == nil {
		fmt.Fprintf(out, "FAIL %s: %v\n", sc.Name, err)
		return
	}
	for _, res := range report.Results {
		status := "PASS"
		if res.Err != nil {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s %s %s (%d/%d steps, %s)\n",
			status, report.Scenario, res.Browser, res.Completed, len(sc.Steps), res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			fmt.Fprintf(out, "    %v\n", res.Err)
		}
	}
}
