// Package config loads and validates press-monkey settings through viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Components depend on it instead of the concrete struct so tests can hand
// in small fixtures.
type Interface interface {
	Logger() LoggerConfig
	Pressing() PressingConfig
	Activation() ActivationConfig
	Discovery() DiscoveryConfig
	Browser() BrowserConfig
	Sim() SimConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	PressingCfg   PressingConfig   `mapstructure:"pressing" yaml:"pressing"`
	ActivationCfg ActivationConfig `mapstructure:"activation" yaml:"activation"`
	DiscoveryCfg  DiscoveryConfig  `mapstructure:"discovery" yaml:"discovery"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	SimCfg        SimConfig        `mapstructure:"sim" yaml:"sim"`
}

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Pressing() PressingConfig     { return c.PressingCfg }
func (c *Config) Activation() ActivationConfig { return c.ActivationCfg }
func (c *Config) Discovery() DiscoveryConfig   { return c.DiscoveryCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Sim() SimConfig               { return c.SimCfg }

// LoggerConfig holds all the configuration for the logger.
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

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// PressingConfig tunes the press scheduler.
type PressingConfig struct {
	// Rate is presses per second. It is accepted for compatibility and
	// reported, but cadence is governed by Delay alone.
	Rate           float64       `mapstructure:"rate" yaml:"rate"`
	Hold           time.Duration `mapstructure:"hold" yaml:"hold"`
	Delay          time.Duration `mapstructure:"delay" yaml:"delay"`
	Randomness     float64       `mapstructure:"randomness" yaml:"randomness"`
	StatusInterval time.Duration `mapstructure:"status_interval" yaml:"status_interval"`
	// PurgeDestroyed drops tally rows of destroyed controls before each
	// status flush. Off by default so the tally is a historical record.
	PurgeDestroyed bool  `mapstructure:"purge_destroyed" yaml:"purge_destroyed"`
	Seed           int64 `mapstructure:"seed" yaml:"seed"` // 0 = time based
}

// ActivationConfig describes the surface toggle gesture.
type ActivationConfig struct {
	Presses int           `mapstructure:"presses" yaml:"presses"`
	Window  time.Duration `mapstructure:"window" yaml:"window"`
}

// DiscoveryConfig narrows which controls are considered.
type DiscoveryConfig struct {
	Roles []string `mapstructure:"roles" yaml:"roles"`
}

// BrowserConfig holds settings for the chromedp backend.
type BrowserConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Headless bool          `mapstructure:"headless" yaml:"headless"`
	Selector string        `mapstructure:"selector" yaml:"selector"`
	Dispatch string        `mapstructure:"dispatch" yaml:"dispatch"`
	Button   string        `mapstructure:"button" yaml:"button"`
	Viewport string        `mapstructure:"viewport" yaml:"viewport"`
	Tick     time.Duration `mapstructure:"tick" yaml:"tick"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ScanRate float64       `mapstructure:"scan_rate" yaml:"scan_rate"` // Full page scans per second, 0 for no cap
	Args     []string      `mapstructure:"args" yaml:"args"`
}

// SimConfig holds settings for the in-memory backend.
type SimConfig struct {
	Tick time.Duration `mapstructure:"tick" yaml:"tick"`
}

// DefaultSelector matches the DOM elements the browser backend treats as
// pressable controls.
const DefaultSelector = `button, [role=button], a[href], input[type=button], input[type=submit], summary`

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "press-monkey")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Pressing --
	v.SetDefault("pressing.rate", 1.0)
	v.SetDefault("pressing.hold", "100ms")
	v.SetDefault("pressing.delay", "500ms")
	v.SetDefault("pressing.randomness", 0.1)
	v.SetDefault("pressing.status_interval", "5s")
	v.SetDefault("pressing.purge_destroyed", false)
	v.SetDefault("pressing.seed", 0)

	// -- Activation --
	v.SetDefault("activation.presses", 3)
	v.SetDefault("activation.window", "750ms")

	// -- Discovery --
	v.SetDefault("discovery.roles", []string{})

	// -- Browser --
	v.SetDefault("browser.url", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.selector", DefaultSelector)
	v.SetDefault("browser.dispatch", "synthetic")
	v.SetDefault("browser.button", "left")
	v.SetDefault("browser.viewport", "1280x800")
	v.SetDefault("browser.tick", "16ms")
	v.SetDefault("browser.timeout", "10s")
	v.SetDefault("browser.scan_rate", 20.0)

	// -- Sim --
	v.SetDefault("sim.tick", "10ms")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.PressingCfg.Validate(); err != nil {
		return err
	}
	if err := c.ActivationCfg.Validate(); err != nil {
		return err
	}
	if c.BrowserCfg.ScanRate < 0 {
		return fmt.Errorf("browser.scan_rate must not be negative")
	}
	if c.BrowserCfg.Tick < 0 {
		return fmt.Errorf("browser.tick must not be negative")
	}
	if c.SimCfg.Tick < 0 {
		return fmt.Errorf("sim.tick must not be negative")
	}
	return nil
}

// Validate checks the pressing settings.
func (p *PressingConfig) Validate() error {
	if p.Randomness < 0 || p.Randomness > 1 || p.Randomness != p.Randomness {
		return fmt.Errorf("pressing.randomness must be between 0.0 and 1.0")
	}
	if p.Hold < 0 {
		return fmt.Errorf("pressing.hold must not be negative")
	}
	if p.Delay < 0 {
		return fmt.Errorf("pressing.delay must not be negative")
	}
	if p.Rate < 0 {
		return fmt.Errorf("pressing.rate must not be negative")
	}
	if p.StatusInterval < 0 {
		return fmt.Errorf("pressing.status_interval must not be negative")
	}
	return nil
}

// Validate checks the activation gesture settings.
func (a *ActivationConfig) Validate() error {
	if a.Presses <= 0 {
		return fmt.Errorf("activation.presses must be a positive integer")
	}
	if a.Window <= 0 {
		return fmt.Errorf("activation.window must be a positive duration")
	}
	return nil
}
