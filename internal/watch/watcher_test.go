package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-r.ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return ""
	}
}

func TestWatcher_NewAndStop(t *testing.T) {
	w, err := New(0, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}

	w.Start()
	time.Sleep(10 * time.Millisecond)

	// Stop must be idempotent.
	w.Stop()
	w.Stop()
}

func TestWatcher_AddFileErrors(t *testing.T) {
	w, err := New(10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml")},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.AddFile(tt.path); err == nil {
				t.Errorf("AddFile(%q) error = nil, want error", tt.path)
			}
		})
	}

	if err := w.AddDatabase(filepath.Join(dir, "missing.db")); err == nil {
		t.Error("AddDatabase() on a missing file should fail")
	}
}

func TestWatcher_DebouncesDatabaseWrites(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "gantry.db")
	if err := os.WriteFile(db, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := newRecorder()
	w.SetCallback(rec.record)
	if err := w.AddDatabase(db); err != nil {
		t.Fatalf("AddDatabase() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A commit touches the database and its WAL; both report the database.
	if err := os.WriteFile(db, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-wal", []byte("wal"), 0o644); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(db)
	if got := rec.wait(t); got != want {
		t.Errorf("reported path = %q, want %q", got, want)
	}

	time.Sleep(150 * time.Millisecond)
	rec.mu.Lock()
	n := len(rec.paths)
	rec.mu.Unlock()
	if n != 1 {
		t.Errorf("got %d notifications for one burst, want 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(fixture, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := newRecorder()
	w.SetCallback(rec.record)
	if err := w.AddFile(fixture); err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-rec.ch:
		t.Fatalf("unexpected notification for %q", p)
	case <-time.After(150 * time.Millisecond):
	}

	if err := os.WriteFile(fixture, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)
}
