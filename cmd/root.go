// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/pagewait/internal/browser"
	"github.com/xkilldash9x/pagewait/internal/config"
	"github.com/xkilldash9x/pagewait/internal/observability"
	"github.com/xkilldash9x/pagewait/internal/scenario"
	"github.com/xkilldash9x/pagewait/internal/waiter"
)

// OpenerFactory builds the browser opener for a command run and the function
// that shuts every browser it opened down.
type OpenerFactory func(cfg config.BrowserConfig, logger *zap.Logger) (scenario.Opener, func(context.Context) error)

// app carries the state shared by the subcommands of one command tree.
type app struct {
	cfgFile   string
	cfg       *config.Config
	logger    *zap.Logger
	newOpener OpenerFactory
}

// flagKeys maps command line flags onto configuration keys. Flags override
// the config file and the environment.
var flagKeys = map[string]string{
	"browser":  "browser.kind",
	"headless": "browser.headless",
	"timeout":  "waiter.default_timeout",
	"poll":     "waiter.poll_interval",
	"parallel": "runner.concurrency",
	"browsers": "runner.browsers",
}

// NewRootCommand builds the pagewait command tree driving real browsers.
func NewRootCommand() *cobra.Command {
	return newRootCommand(managerOpener)
}

func newRootCommand(newOpener OpenerFactory) *cobra.Command {
	a := &app{newOpener: newOpener}

	root := &cobra.Command{
		Use:   "pagewait",
		Short: "pagewait drives a browser and waits for pages to settle.",
		Long: `pagewait navigates, clicks, types and selects in a real browser, waiting
after every action until the page confirms it took effect.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./pagewait.yaml)")
	root.PersistentFlags().DurationP("timeout", "t", 0, "default wait timeout, e.g. 45s (overrides config/env)")
	root.PersistentFlags().Duration("poll", 0, "poll interval, e.g. 250ms (overrides config/env)")
	root.PersistentFlags().Bool("headless", false, "run browsers headless (overrides config/env)")

	root.AddCommand(newGetCmd(a), newRunCmd(a), newVersionCmd())
	return root
}

// initialize loads configuration and the global logger before any subcommand.
func (a *app) initialize(cmd *cobra.Command) error {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pagewait")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}

	observability.Initialize(cfg.Logger, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
	a.cfg = cfg
	a.logger = observability.GetLogger()
	a.logger.Debug("Configuration loaded.", zap.String("config_file", v.ConfigFileUsed()), zap.String("version", Version))
	return nil
}

func (a *app) waiterSettings() waiter.Settings {
	return waiter.Settings{
		DefaultTimeout: a.cfg.Waiter.DefaultTimeout,
		PollInterval:   a.cfg.Waiter.PollInterval,
	}
}

// managerOpener launches real browsers through a browser.Manager.
func managerOpener(cfg config.BrowserConfig, logger *zap.Logger) (scenario.Opener, func(context.Context) error) {
	m := browser.NewManager(cfg, logger)
	open := func(ctx context.Context, id string) (scenario.Browser, error) {
		s, err := m.Open(ctx, id)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return open, m.Shutdown
}

// Execute runs the command tree under ctx and reports a failure on stderr.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}
