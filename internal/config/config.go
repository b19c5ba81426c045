// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PAGEWAIT_WAITER_DEFAULT_TIMEOUT=45s.
const EnvPrefix = "PAGEWAIT"

// Config holds the whole application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Waiter  WaiterConfig  `mapstructure:"waiter" yaml:"waiter"`
	Runner  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color used for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig describes how sessions are launched.
type BrowserConfig struct {
	// Kind is a browser identifier such as "chrome", "edge_h" or "chrome_s".
	Kind     string `mapstructure:"kind" yaml:"kind"`
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	// Width and Height size the window. Both zero means maximized.
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	// Args are extra command line switches, "--flag" or "--flag=value".
	Args            []string      `mapstructure:"args" yaml:"args"`
	ExecPath        string        `mapstructure:"exec_path" yaml:"exec_path"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	StartupTimeout  time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	// ActionTimeout bounds a single driver call (one click, one script) so
	// that a hung call cannot stall a poll loop.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// WaiterConfig holds the defaults injected into every Waiter.
type WaiterConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// RunnerConfig controls scenario execution.
type RunnerConfig struct {
	// Browsers is used when a scenario file names none.
	Browsers []string `mapstructure:"browsers" yaml:"browsers"`
	// Concurrency caps how many browsers run at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// LaunchRate caps browser launches per second. Zero means unlimited.
	LaunchRate float64 `mapstructure:"launch_rate" yaml:"launch_rate"`
}

// NewDefaultConfig returns the configuration produced by SetDefaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default with v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagewait")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.kind", "chrome")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.width", 0)
	v.SetDefault("browser.height", 0)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.startup_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")

	// -- Waiter --
	v.SetDefault("waiter.default_timeout", "30s")
	v.SetDefault("waiter.poll_interval", "500ms")

	// -- Runner --
	v.SetDefault("runner.browsers", []string{"chrome_h"})
	v.SetDefault("runner.concurrency", 2)
	v.SetDefault("runner.launch_rate", 0)
}

// BindEnv wires PAGEWAIT_* environment variables into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper decodes v, expands home-relative paths and validates
// the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	var err error
	if cfg.Logger.LogFile, err = homedir.Expand(cfg.Logger.LogFile); err != nil {
		return nil, fmt.Errorf("could not expand logger.log_file: %w", err)
	}
	if cfg.Browser.ExecPath, err = homedir.Expand(cfg.Browser.ExecPath); err != nil {
		return nil, fmt.Errorf("could not expand browser.exec_path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the cross-field rules viper cannot express.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Browser.Kind == "" {
		return fmt.Errorf("browser.kind is required")
	}
	if c.Browser.Width < 0 || c.Browser.Height < 0 {
		return fmt.Errorf("browser.width and browser.height must not be negative")
	}
	if (c.Browser.Width == 0) != (c.Browser.Height == 0) {
		return fmt.Errorf("browser.width and browser.height must be set together")
	}
	if c.Browser.StartupTimeout <= 0 {
		return fmt.Errorf("browser.startup_timeout must be positive")
	}
	if c.Waiter.DefaultTimeout < 0 {
		return fmt.Errorf("waiter.default_timeout must not be negative")
	}
	if c.Waiter.PollInterval <= 0 {
		return fmt.Errorf("waiter.poll_interval must be positive")
	}
	if c.Runner.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	if c.Runner.LaunchRate < 0 {
		return fmt.Errorf("runner.launch_rate must not be negative")
	}
	return nil
}
