// Package testutil provides shared helpers for gantry tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// PostgresDSNEnv names the variable that points tests at a Postgres server.
const PostgresDSNEnv = "GANTRY_TEST_POSTGRES_DSN"

// Date returns a UTC midnight for year-month-day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MustParseDate parses a YYYY-MM-DD string or fails the test.
func MustParseDate(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", s, err)
	}
	return d
}

// FixedClock returns a clock that always reports day.
func FixedClock(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

// TempDB returns a SQLite database path inside a fresh temp directory. The
// file itself is not created.
func TempDB(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "gantry.db")
}

// PostgresDSN returns the test Postgres DSN or skips the test when it is
// not configured.
func PostgresDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skip(PostgresDSNEnv + " not set, skipping test")
	}
	return dsn
}

// DemoFixture returns the path of the demo project fixture shipped with the
// store package.
func DemoFixture(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source")
	}
	path := filepath.Join(filepath.Dir(file), "..", "store", "testdata", "demo.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("demo fixture: %v", err)
	}
	return path
}
