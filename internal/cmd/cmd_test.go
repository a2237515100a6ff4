package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gantry/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupTestEnvironment isolates config lookups and returns a fresh database
// path.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("GANTRY_LOGGING_ENABLED", "false")
	t.Setenv("GANTRY_STORE_DRIVER", "sqlite")
	return filepath.Join(dir, "gantry.db")
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "gantry" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "gantry")
	}

	// Compare by Name(), not Use which includes args
	expectedCmds := []string{"view", "serve", "import", "export", "projects", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expectedCmds {
		if !cmdMap[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestImportAndExport(t *testing.T) {
	db := setupTestEnvironment(t)

	output, err := executeCommand(rootCmd, "import", testutil.DemoFixture(t), "--db", db)
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Imported project Website relaunch (relaunch)") {
		t.Errorf("import output = %q", output)
	}

	t.Run("projects", func(t *testing.T) {
		output, err := executeCommand(rootCmd, "projects", "--db", db)
		if err != nil {
			t.Fatalf("projects failed: %v", err)
		}
		for _, want := range []string{"relaunch", "Website relaunch", "active", "2024-04-01"} {
			if !strings.Contains(output, want) {
				t.Errorf("projects output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("svg", func(t *testing.T) {
		output, err := executeCommand(rootCmd, "export", "relaunch", "--db", db, "--format", "svg", "--today", "2024-04-10")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.HasPrefix(output, "<svg") || !strings.Contains(output, "User research") {
			t.Errorf("unexpected svg output:\n%.300s", output)
		}
	})

	t.Run("json", func(t *testing.T) {
		output, err := executeCommand(rootCmd, "export", "relaunch", "--db", db, "--format", "json", "--mode", "day", "--today", "2024-04-10")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		var model struct {
			View struct {
				Mode string `json:"mode"`
			} `json:"view"`
			Rows []struct {
				ID string `json:"id"`
			} `json:"rows"`
			Today *struct{} `json:"today"`
		}
		if err := json.Unmarshal([]byte(output), &model); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if model.View.Mode != "day" {
			t.Errorf("view mode = %q, want day", model.View.Mode)
		}
		if len(model.Rows) == 0 {
			t.Error("expected rows in render model")
		}
		if model.Today == nil {
			t.Error("expected today marker inside the project range")
		}
	})

	t.Run("yaml round trip", func(t *testing.T) {
		output, err := executeCommand(rootCmd, "export", "relaunch", "--db", db, "--format", "yaml", "--mode", "week")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		for _, want := range []string{"id: relaunch", "id: research", "start: \"2024-04-01\""} {
			if !strings.Contains(output, want) {
				t.Errorf("yaml output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		if _, err := executeCommand(rootCmd, "export", "missing", "--db", db, "--format", "svg"); err == nil {
			t.Error("expected error for unknown project")
		}
	})
}

func TestExport_UnknownFormat(t *testing.T) {
	db := setupTestEnvironment(t)

	_, err := executeCommand(rootCmd, "export", "relaunch", "--db", db, "--format", "png")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("err = %v, want unknown format", err)
	}
}

func TestImport_MissingFile(t *testing.T) {
	db := setupTestEnvironment(t)

	_, err := executeCommand(rootCmd, "import", filepath.Join(t.TempDir(), "nope.yaml"), "--db", db)
	if err == nil || !strings.Contains(err.Error(), "failed to open fixture") {
		t.Errorf("err = %v, want open failure", err)
	}
}

func TestConfigSet(t *testing.T) {
	setupTestEnvironment(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown key", []string{"config", "set", "view.colour", "red"}, "unknown configuration key"},
		{"bad bool", []string{"config", "set", "watch.enabled", "yes"}, "expected true or false"},
		{"bad int", []string{"config", "set", "watch.debounce_ms", "soon"}, "expected integer"},
		{"fails validation", []string{"config", "set", "view.mode", "quarter"}, "invalid value for view.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(rootCmd, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigInitAndPath(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand(rootCmd, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, "Created config file") {
		t.Errorf("config init output = %q", output)
	}

	if _, err := executeCommand(rootCmd, "config", "init"); err == nil {
		t.Error("second config init should fail")
	}

	output, err = executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(output, "GANTRY_") {
		t.Errorf("config path output = %q", output)
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		keyType string
		value   string
		want    any
	}{
		{"bool", "true", true},
		{"int", "42", 42},
		{"float", "1.5", 1.5},
		{"string", "day", "day"},
	}

	for _, tt := range tests {
		t.Run(tt.keyType, func(t *testing.T) {
			got, err := parseConfigValue("k", tt.keyType, tt.value)
			if err != nil {
				t.Fatalf("parseConfigValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseConfigValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
