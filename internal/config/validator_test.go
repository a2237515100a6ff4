package config

import (
	"strings"
	"testing"
)

func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
		want   bool
	}{
		{"day mode", func(c *Config) { c.View.Mode = "day" }, "view.mode", false},
		{"month mode", func(c *Config) { c.View.Mode = "month" }, "view.mode", false},
		{"unknown mode", func(c *Config) { c.View.Mode = "quarter" }, "view.mode", true},
		{"mode is case sensitive", func(c *Config) { c.View.Mode = "Week" }, "view.mode", true},
		{"min zoom", func(c *Config) { c.View.Zoom = 0.25 }, "view.zoom", false},
		{"max zoom", func(c *Config) { c.View.Zoom = 4 }, "view.zoom", false},
		{"zoom too small", func(c *Config) { c.View.Zoom = 0.1 }, "view.zoom", true},
		{"zoom zero", func(c *Config) { c.View.Zoom = 0 }, "view.zoom", true},
		{"zoom too large", func(c *Config) { c.View.Zoom = 5 }, "view.zoom", true},
		{"zero min range", func(c *Config) { c.View.MinRangeDays = 0 }, "view.min_range_days", true},
		{"memory driver", func(c *Config) { c.Store.Driver = "memory" }, "store.driver", false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver", true},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "store.dsn", true},
		{"postgres with dsn", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.DSN = "postgres://localhost/gantry"
		}, "store.dsn", false},
		{"null byte in store path", func(c *Config) { c.Store.Path = "a\x00b" }, "store.path", true},
		{"zero commit timeout", func(c *Config) { c.Store.CommitTimeoutMs = 0 }, "store.commit_timeout_ms", true},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr", true},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeoutMs = -1 }, "server.shutdown_timeout_ms", true},
		{"zero cell pixels", func(c *Config) { c.TUI.CellPixels = 0 }, "tui.cell_pixels", true},
		{"narrow labels", func(c *Config) { c.TUI.LabelWidth = 4 }, "tui.label_width", true},
		{"wide labels", func(c *Config) { c.TUI.LabelWidth = 81 }, "tui.label_width", true},
		{"zero row height", func(c *Config) { c.TUI.RowHeight = 0 }, "tui.row_height", true},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -5 }, "watch.debounce_ms", true},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, "logging.level", false},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level", true},
		{"null byte in log dir", func(c *Config) { c.Logging.Dir = "\x00" }, "logging.dir", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if got := hasFieldError(cfg.Validate(), tt.field); got != tt.want {
				t.Errorf("Validate() error on %s = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.View.Mode = "year"
	cfg.Store.Driver = "mysql"
	cfg.TUI.CellPixels = -1

	if errs := cfg.Validate(); len(errs) != 3 {
		t.Errorf("Validate() returned %d errors, want 3: %v", len(errs), errs)
	}
}
