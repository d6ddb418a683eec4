package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"synthpack-go/internal/container"
	"synthpack-go/internal/unpack"
)

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
}

func TestWatchCatchesUpExistingContainers(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	c := container.Container{"custom_count": uint64(42)}
	if err := container.WriteFile(filepath.Join(inDir, "0001.cbor"), c, ""); err != nil {
		t.Fatalf("write container: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := NewTracker()
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, inDir, outDir, unpack.Options{}, 50*time.Millisecond, tracker, nil)
	}()

	waitForFile(t, filepath.Join(outDir, "metadata_0001.json"))
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	s := tracker.Snapshot()
	if s.Frames != 1 || s.Failed != 0 {
		t.Fatalf("summary mismatch: %+v", s)
	}
}

func TestWatchPicksUpNewContainers(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := NewTracker()
	var notified []FrameResult
	notify := make(chan FrameResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, inDir, outDir, unpack.Options{}, 50*time.Millisecond, tracker, func(res FrameResult) {
			notify <- res
		})
	}()

	// give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)

	c := container.Container{
		"depth": &container.Array{
			Shape: []int{2, 2},
			DType: container.Float32,
			Data:  []float32{1, 2, 3, 4},
		},
	}
	if err := container.WriteFile(filepath.Join(inDir, "0005.cbor"), c, ""); err != nil {
		t.Fatalf("write container: %v", err)
	}

	waitForFile(t, filepath.Join(outDir, "depth_0005.png"))
	waitForFile(t, filepath.Join(outDir, "metadata_0005.json"))

	select {
	case res := <-notify:
		notified = append(notified, res)
	case <-time.After(5 * time.Second):
		t.Fatalf("no notification received")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	if len(notified) == 0 || notified[0].Frame != "0005" || notified[0].Artifacts != 1 {
		t.Fatalf("notification mismatch: %+v", notified)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir(), unpack.Options{}, 0, NewTracker(), nil)
	if err == nil {
		t.Fatalf("expected error for missing input directory")
	}
}

func TestWatchRecordsCorruptContainer(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(inDir, "0009.cbor"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write corrupt container: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := NewTracker()
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, inDir, outDir, unpack.Options{}, 50*time.Millisecond, tracker, nil)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if tracker.Snapshot().Failed == 1 {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	s := tracker.Snapshot()
	if s.Failed != 1 || s.Frames != 0 {
		t.Fatalf("summary mismatch: %+v", s)
	}
}
