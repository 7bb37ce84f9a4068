package configwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/globeandmail/enrich/pkg/log"
)

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`stream = "a"`), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(path, 10*time.Millisecond, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`stream = "b"`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.C:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification after config write")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`stream = "a"`), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(path, 50*time.Millisecond, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`stream = "b"`), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-w.C:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification after burst of writes")
	}

	// The burst should have collapsed into a single pending notification.
	select {
	case <-w.C:
		t.Error("got a second notification for the same burst")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`stream = "a"`), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(path, 10*time.Millisecond, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.C:
		t.Error("got a notification for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStartFailsForMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "config.toml"), 0, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error watching a missing directory")
	}
}
