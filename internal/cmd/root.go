package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/gantry/internal/config"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Interactive Gantt timelines for project schedules",
	Long: `Gantry renders a project's tasks and phases on a zoomable timeline and
lets you move or resize task bars by dragging them. Every drag is committed
back to the store and reverted if the store rejects it.

Run the timeline in the terminal with 'gantry view', or serve it over HTTP
with 'gantry serve'.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/gantry/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides store.path)")
	rootCmd.PersistentFlags().String("driver", "", "store driver: sqlite, postgres or memory (overrides store.driver)")
	rootCmd.PersistentFlags().String("mode", "", "initial view mode: day, week or month (overrides view.mode)")
	rootCmd.PersistentFlags().Float64("zoom", 0, "initial zoom factor (overrides view.zoom)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("driver"))
	_ = viper.BindPFlag("view.mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("view.zoom", rootCmd.PersistentFlags().Lookup("zoom"))
}

func initConfig() {
	// A .env in the working directory may carry GANTRY_* overrides such as
	// the Postgres DSN. Variables already in the environment win.
	_ = godotenv.Load()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/gantry")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GANTRY")
	// e.g., GANTRY_STORE_DSN for store.dsn
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger opens the log file configured under logging. Disabled logging
// yields a no-op logger.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
}

// env is what every command that touches a project needs.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	store  store.Store
	mode   schedule.ViewMode
}

// openEnv loads and validates the configuration, opens the log and connects
// to the configured store.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	mode, err := schedule.ParseViewMode(cfg.View.Mode)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: s, mode: mode}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close store", "error", err)
	}
	_ = e.logger.Close()
}
