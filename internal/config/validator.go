package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "view.zoom")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Zoom bounds accepted in configuration.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidViewModes returns the list of valid view modes
func ValidViewModes() []string {
	return []string{"day", "week", "month"}
}

// ValidStoreDrivers returns the list of valid store drivers
func ValidStoreDrivers() []string {
	return []string{"sqlite", "postgres", "memory"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateView()...)
	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateView() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidViewModes(), c.View.Mode) {
		errors = append(errors, ValidationError{
			Field:   "view.mode",
			Value:   c.View.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidViewModes(), ", ")),
		})
	}

	if c.View.Zoom < MinZoom || c.View.Zoom > MaxZoom {
		errors = append(errors, ValidationError{
			Field:   "view.zoom",
			Value:   c.View.Zoom,
			Message: fmt.Sprintf("must be between %.2f and %.2f", MinZoom, MaxZoom),
		})
	}

	if c.View.MinRangeDays < 1 {
		errors = append(errors, ValidationError{
			Field:   "view.min_range_days",
			Value:   c.View.MinRangeDays,
			Message: "must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidStoreDrivers(), c.Store.Driver) {
		errors = append(errors, ValidationError{
			Field:   "store.driver",
			Value:   c.Store.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStoreDrivers(), ", ")),
		})
	}

	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		errors = append(errors, ValidationError{
			Field:   "store.dsn",
			Value:   c.Store.DSN,
			Message: "is required when store.driver is postgres",
		})
	}

	if strings.ContainsRune(c.Store.Path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "store.path",
			Value:   c.Store.Path,
			Message: "contains invalid null character",
		})
	}

	if c.Store.CommitTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "store.commit_timeout_ms",
			Value:   c.Store.CommitTimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "must not be empty",
		})
	}

	if c.Server.ShutdownTimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "server.shutdown_timeout_ms",
			Value:   c.Server.ShutdownTimeoutMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.CellPixels <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.cell_pixels",
			Value:   c.TUI.CellPixels,
			Message: "must be positive",
		})
	}

	const minLabelWidth, maxLabelWidth = 8, 80
	if c.TUI.LabelWidth < minLabelWidth || c.TUI.LabelWidth > maxLabelWidth {
		errors = append(errors, ValidationError{
			Field:   "tui.label_width",
			Value:   c.TUI.LabelWidth,
			Message: fmt.Sprintf("must be between %d and %d", minLabelWidth, maxLabelWidth),
		})
	}

	if c.TUI.RowHeight <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.row_height",
			Value:   c.TUI.RowHeight,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	if c.Watch.DebounceMs < 0 {
		return []ValidationError{{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "contains invalid null character",
		})
	}

	return errors
}
