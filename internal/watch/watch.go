package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"synthpack-go/internal/container"
	"synthpack-go/internal/unpack"
)

// DefaultSettle is the quiet period a container must hold before it is
// unpacked, so partially written files are left alone.
const DefaultSettle = 500 * time.Millisecond

// Watch unpacks the containers already under inputDir, then follows
// filesystem events and unpacks each new container once its writes
// settle. Unlike a batch run, per-frame failures (including sidecar
// writes) are recorded and the watch keeps going. Returns nil when ctx
// is cancelled.
func Watch(ctx context.Context, inputDir, outputDir string, opts unpack.Options, settle time.Duration, tracker *Tracker, notify func(FrameResult)) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	files, err := container.List(inputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(inputDir); err != nil {
		return err
	}

	handle := func(path string) {
		res := unpackOne(path, outputDir, opts)
		tracker.Add(res)
		if notify != nil {
			notify(res)
		}
	}

	// catch up on containers that predate the watch
	for _, f := range files {
		handle(f.Path)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != container.Ext {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				handle(path)
			}
		}
	}
}

func unpackOne(path, outputDir string, opts unpack.Options) FrameResult {
	frame := container.FrameID(path)
	res := FrameResult{Frame: frame, Time: Timestamp()}

	c, err := container.ReadFile(path)
	if err != nil {
		log.Printf("watch: skipping %s: %v", path, err)
		res.Error = err.Error()
		return res
	}
	res.Datasets = len(c)

	n, err := unpack.Unpack(c, frame, outputDir, opts)
	res.Artifacts = n
	if err != nil {
		log.Printf("watch: unpack %s: %v", path, err)
		res.Error = err.Error()
	}
	return res
}
