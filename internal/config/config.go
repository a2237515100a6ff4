package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete gantry configuration
type Config struct {
	View    ViewConfig    `mapstructure:"view"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ViewConfig controls the initial timeline view
type ViewConfig struct {
	// Mode is the time resolution: "day", "week" or "month"
	Mode string `mapstructure:"mode"`
	// Zoom scales every day width (default: 1.0, range: 0.25 to 4)
	Zoom float64 `mapstructure:"zoom"`
	// MinRangeDays is the shortest visible range; short projects are
	// extended to this many days (default: 30)
	MinRangeDays int `mapstructure:"min_range_days"`
}

// StoreConfig selects and configures the persistence collaborator
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres" or "memory"
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file. Empty means {ConfigDir}/gantry.db
	Path string `mapstructure:"path"`
	// DSN is the Postgres connection string, e.g. postgres://user@host/db
	DSN string `mapstructure:"dsn"`
	// CommitTimeoutMs bounds a single commit round trip
	CommitTimeoutMs int `mapstructure:"commit_timeout_ms"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// ShutdownTimeoutMs is how long in-flight requests get on shutdown
	ShutdownTimeoutMs int `mapstructure:"shutdown_timeout_ms"`
}

// TUIConfig controls the terminal timeline
type TUIConfig struct {
	// CellPixels is how many timeline pixels one terminal column covers
	CellPixels float64 `mapstructure:"cell_pixels"`
	// LabelWidth is the width of the row label column in terminal columns
	LabelWidth int `mapstructure:"label_width"`
	// RowHeight is the pixel height of one row in the render model
	RowHeight float64 `mapstructure:"row_height"`
}

// WatchConfig controls reloading when the store file changes underneath us
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is where gantry.log is written. Empty means {ConfigDir}/logs
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		View: ViewConfig{
			Mode:         "week",
			Zoom:         1.0,
			MinRangeDays: 30,
		},
		Store: StoreConfig{
			Driver:          "sqlite",
			Path:            "",
			DSN:             "",
			CommitTimeoutMs: 5000,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8420",
			ShutdownTimeoutMs: 5000,
		},
		TUI: TUIConfig{
			CellPixels: 10,
			LabelWidth: 24,
			RowHeight:  30,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
	}
}

// CommitTimeout returns the commit timeout as a time.Duration
func (c *StoreConfig) CommitTimeout() time.Duration {
	return time.Duration(c.CommitTimeoutMs) * time.Millisecond
}

// ResolvePath returns the SQLite path, defaulting into the config dir
func (c *StoreConfig) ResolvePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(ConfigDir(), "gantry.db")
}

// ShutdownTimeout returns the shutdown grace period as a time.Duration
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// Debounce returns the watcher debounce window as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDir returns the log directory, defaulting into the config dir
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// View defaults
	viper.SetDefault("view.mode", defaults.View.Mode)
	viper.SetDefault("view.zoom", defaults.View.Zoom)
	viper.SetDefault("view.min_range_days", defaults.View.MinRangeDays)

	// Store defaults
	viper.SetDefault("store.driver", defaults.Store.Driver)
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("store.dsn", defaults.Store.DSN)
	viper.SetDefault("store.commit_timeout_ms", defaults.Store.CommitTimeoutMs)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.shutdown_timeout_ms", defaults.Server.ShutdownTimeoutMs)

	// TUI defaults
	viper.SetDefault("tui.cell_pixels", defaults.TUI.CellPixels)
	viper.SetDefault("tui.label_width", defaults.TUI.LabelWidth)
	viper.SetDefault("tui.row_height", defaults.TUI.RowHeight)

	// Watch defaults
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded values do not validate
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gantry")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gantry"
	}
	return filepath.Join(home, ".config", "gantry")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
