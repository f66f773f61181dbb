package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_debouncesBurstIntoOneRebuild(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := New(dir, []string{"txt"}, func() { calls.Add(1) }, zap.NewNop(), WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "ref.txt")
		if err := os.WriteFile(path, []byte("regulation text"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("rebuild never triggered")
	}
	// Let any stray timers fire, then confirm the burst collapsed.
	time.Sleep(400 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 debounced rebuild, got %d", got)
	}
}

func TestWatcher_ignoresFilteredExtensions(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := New(dir, []string{"pdf"}, func() { calls.Add(1) }, zap.NewNop(), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("filtered extension triggered %d rebuilds", calls.Load())
	}
}

func TestWatcher_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "refs")
	w := New(root, nil, func() {}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
}

func TestWatcher_stopCancelsPendingRebuild(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := New(dir, nil, func() { calls.Add(1) }, zap.NewNop(), WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	time.Sleep(400 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("pending rebuild fired after Stop: %d", calls.Load())
	}
}
