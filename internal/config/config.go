// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable override, e.g.
// UIHARNESS_BROWSER_ENGINE=firefox.
const EnvPrefix = "UIHARNESS"

// Supported backend names. The engine name is intentionally not part of this
// package's validation; the browser session owns that check.
const (
	BackendPlaywright = "playwright"
	BackendCDP        = "cdp"
)

// Interface defines the contract for accessing harness configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Application() ApplicationConfig
	Artifacts() ArtifactsConfig
	Wait() WaitConfig

	// Browser Setters
	SetBrowserEngine(string)
	SetBrowserHeadless(bool)
	SetBrowserSlowMoMs(int)
}

// Config holds the entire harness configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	ApplicationCfg ApplicationConfig `mapstructure:"application" yaml:"application"`
	ArtifactsCfg   ArtifactsConfig   `mapstructure:"artifacts" yaml:"artifacts"`
	WaitCfg        WaitConfig        `mapstructure:"wait" yaml:"wait"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Application() ApplicationConfig { return c.ApplicationCfg }
func (c *Config) Artifacts() ArtifactsConfig     { return c.ArtifactsCfg }
func (c *Config) Wait() WaitConfig               { return c.WaitCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserEngine(e string) { c.BrowserCfg.Engine = e }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserSlowMoMs(ms int) { c.BrowserCfg.SlowMoMs = ms }

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

// BrowserConfig holds settings for the browser under automation.
type BrowserConfig struct {
	// Engine is one of chromium, firefox or webkit (case-insensitive).
	Engine              string   `mapstructure:"engine" yaml:"engine"`
	Backend             string   `mapstructure:"backend" yaml:"backend"`
	Headless            bool     `mapstructure:"headless" yaml:"headless"`
	SlowMoMs            int      `mapstructure:"slow_mo_ms" yaml:"slow_mo_ms"`
	ActionTimeoutMs     int      `mapstructure:"action_timeout_ms" yaml:"action_timeout_ms"`
	NavigationTimeoutMs int      `mapstructure:"navigation_timeout_ms" yaml:"navigation_timeout_ms"`
	Args                []string `mapstructure:"args" yaml:"args"`
	Viewport            Viewport `mapstructure:"viewport" yaml:"viewport"`
	IgnoreHTTPSErrors   bool     `mapstructure:"ignore_https_errors" yaml:"ignore_https_errors"`
	// Install downloads the Playwright browsers before the driver starts.
	Install bool `mapstructure:"install" yaml:"install"`
}

// Viewport is the initial page size. Zero values leave the backend default.
type Viewport struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// SlowMo returns the slow-motion delay as a duration.
func (b BrowserConfig) SlowMo() time.Duration {
	return time.Duration(b.SlowMoMs) * time.Millisecond
}

// ActionTimeout returns the default action timeout as a duration.
func (b BrowserConfig) ActionTimeout() time.Duration {
	return time.Duration(b.ActionTimeoutMs) * time.Millisecond
}

// NavigationTimeout returns the default navigation timeout as a duration.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return time.Duration(b.NavigationTimeoutMs) * time.Millisecond
}

// ApplicationConfig describes the application under test.
type ApplicationConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// ArtifactsConfig controls where diagnostic artifacts are written.
type ArtifactsConfig struct {
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	// FullPage captures the whole scrollable page instead of the viewport.
	FullPage bool `mapstructure:"full_page" yaml:"full_page"`
}

// WaitConfig holds the defaults for the polling helpers.
type WaitConfig struct {
	TimeoutMs      int `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	PollIntervalMs int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// Timeout returns the polling timeout as a duration.
func (w WaitConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutMs) * time.Millisecond
}

// PollInterval returns the polling interval as a duration.
func (w WaitConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
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
	v.SetDefault("logger.service_name", "uiharness")
	v.SetDefault("logger.log_file", "Reports/Logs/uiharness.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 7)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.engine", "chromium")
	v.SetDefault("browser.backend", BackendPlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo_ms", 0)
	v.SetDefault("browser.action_timeout_ms", 30000)
	v.SetDefault("browser.navigation_timeout_ms", 30000)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 0)
	v.SetDefault("browser.viewport.height", 0)
	v.SetDefault("browser.ignore_https_errors", false)
	v.SetDefault("browser.install", false)

	// -- Application --
	v.SetDefault("application.base_url", "https://example.com")
	v.SetDefault("application.environment", "Staging")

	// -- Artifacts --
	v.SetDefault("artifacts.screenshot_dir", "Reports/Screenshots")
	v.SetDefault("artifacts.full_page", false)

	// -- Wait --
	v.SetDefault("wait.timeout_ms", 5000)
	v.SetDefault("wait.poll_interval_ms", 100)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
// Environment variables prefixed with EnvPrefix override file and default values.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load resolves the configuration from defaults, an optional YAML file and the
// environment. An empty path searches the working directory for uiharness.yaml;
// a missing file in that case is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("could not resolve config path '%s': %w", path, err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("uiharness")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	return NewConfigFromViper(v)
}

func (c *Config) expandPaths() error {
	dir, err := homedir.Expand(c.ArtifactsCfg.ScreenshotDir)
	if err != nil {
		return fmt.Errorf("could not resolve artifacts.screenshot_dir '%s': %w", c.ArtifactsCfg.ScreenshotDir, err)
	}
	c.ArtifactsCfg.ScreenshotDir = dir

	logFile, err := homedir.Expand(c.LoggerCfg.LogFile)
	if err != nil {
		return fmt.Errorf("could not resolve logger.log_file '%s': %w", c.LoggerCfg.LogFile, err)
	}
	c.LoggerCfg.LogFile = logFile
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.WaitCfg.Validate(); err != nil {
		return fmt.Errorf("wait configuration invalid: %w", err)
	}
	if c.ArtifactsCfg.ScreenshotDir == "" {
		return fmt.Errorf("artifacts.screenshot_dir is required")
	}
	return nil
}

// Validate checks the browser settings. The engine name is not checked here so
// that an unknown engine surfaces from the session as a configuration error.
func (b *BrowserConfig) Validate() error {
	if b.SlowMoMs < 0 {
		return fmt.Errorf("slow_mo_ms must not be negative")
	}
	if b.ActionTimeoutMs <= 0 {
		return fmt.Errorf("action_timeout_ms must be a positive integer")
	}
	if b.NavigationTimeoutMs <= 0 {
		return fmt.Errorf("navigation_timeout_ms must be a positive integer")
	}
	switch strings.ToLower(b.Backend) {
	case BackendPlaywright, BackendCDP:
	default:
		return fmt.Errorf("backend must be one of %q or %q, got %q", BackendPlaywright, BackendCDP, b.Backend)
	}
	if b.Viewport.Width < 0 || b.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}
	return nil
}

// Validate checks the polling defaults.
func (w *WaitConfig) Validate() error {
	if w.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be a positive integer")
	}
	if w.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be a positive integer")
	}
	return nil
}
