package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/gantry/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify Gantry configuration",
	Long: `View or modify Gantry configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  gantry config set view.mode day
  gantry config set store.driver postgres
  gantry config set store.dsn postgres://gantry@localhost/gantry

Run 'gantry config show' to see every key and its current value.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/gantry/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// configKeys maps every settable key to its value type.
var configKeys = map[string]string{
	"view.mode":                  "string",
	"view.zoom":                  "float",
	"view.min_range_days":        "int",
	"store.driver":               "string",
	"store.path":                 "string",
	"store.dsn":                  "string",
	"store.commit_timeout_ms":    "int",
	"server.addr":                "string",
	"server.shutdown_timeout_ms": "int",
	"tui.cell_pixels":            "float",
	"tui.label_width":            "int",
	"tui.row_height":             "float",
	"watch.enabled":              "bool",
	"watch.debounce_ms":          "int",
	"logging.enabled":            "bool",
	"logging.level":              "string",
	"logging.dir":                "string",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := config.Get()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	writeConfig(out, cfg)
	return nil
}

func writeConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "view:")
	fmt.Fprintf(out, "  mode: %s\n", cfg.View.Mode)
	fmt.Fprintf(out, "  zoom: %g\n", cfg.View.Zoom)
	fmt.Fprintf(out, "  min_range_days: %d\n", cfg.View.MinRangeDays)

	fmt.Fprintln(out, "store:")
	fmt.Fprintf(out, "  driver: %s\n", cfg.Store.Driver)
	fmt.Fprintf(out, "  path: %s\n", cfg.Store.ResolvePath())
	if cfg.Store.DSN != "" {
		fmt.Fprintln(out, "  dsn: (set)")
	} else {
		fmt.Fprintln(out, "  dsn: (none)")
	}
	fmt.Fprintf(out, "  commit_timeout_ms: %d\n", cfg.Store.CommitTimeoutMs)

	fmt.Fprintln(out, "server:")
	fmt.Fprintf(out, "  addr: %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "  shutdown_timeout_ms: %d\n", cfg.Server.ShutdownTimeoutMs)

	fmt.Fprintln(out, "tui:")
	fmt.Fprintf(out, "  cell_pixels: %g\n", cfg.TUI.CellPixels)
	fmt.Fprintf(out, "  label_width: %d\n", cfg.TUI.LabelWidth)
	fmt.Fprintf(out, "  row_height: %g\n", cfg.TUI.RowHeight)

	fmt.Fprintln(out, "watch:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Watch.Enabled)
	fmt.Fprintf(out, "  debounce_ms: %d\n", cfg.Watch.DebounceMs)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.ResolveDir())
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %v", key, sortedConfigKeys())
	}

	typedValue, err := parseConfigValue(key, keyType, value)
	if err != nil {
		return err
	}

	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if used := viper.ConfigFileUsed(); used != "" {
		configFile = used
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

func parseConfigValue(key, keyType, value string) (any, error) {
	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected number", key)
		}
		return f, nil
	}
	return value, nil
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const defaultConfigContent = `# Gantry Configuration
# See: https://github.com/Iron-Ham/gantry

# Initial timeline view
view:
  # Time resolution: day, week or month
  mode: week
  # Scales every day width (0.25 to 4)
  zoom: 1.0
  # Shortest visible range in days; short projects are padded to it
  min_range_days: 30

# Where tasks are read from and committed to
store:
  # sqlite, postgres or memory
  driver: sqlite
  # SQLite database file (default: ~/.config/gantry/gantry.db)
  path: ""
  # Postgres connection string, e.g. postgres://gantry@localhost/gantry
  # Prefer GANTRY_STORE_DSN in the environment or a .env file for secrets
  dsn: ""
  # How long a single commit may take before it is reverted
  commit_timeout_ms: 5000

# HTTP API (gantry serve)
server:
  addr: 127.0.0.1:8420
  shutdown_timeout_ms: 5000

# Terminal timeline (gantry view)
tui:
  # Timeline pixels covered by one terminal column
  cell_pixels: 10
  # Width of the task label column
  label_width: 24
  # Pixel height of one row in the render model
  row_height: 30

# Reload when another process writes the SQLite database
watch:
  enabled: true
  debounce_ms: 200

# Debug logging
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Log directory (default: ~/.config/gantry/logs)
  dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'gantry config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize Gantry's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/gantry/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: GANTRY_* (e.g., GANTRY_STORE_DSN), also read from ./.env")
	return nil
}
