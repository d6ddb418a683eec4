package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"synthpack-go/internal/config"
	"synthpack-go/internal/server"
	"synthpack-go/internal/unpack"
	"synthpack-go/internal/watch"
)

type frameEvent struct {
	Type string `json:"type"`
	watch.FrameResult
}

type summaryEvent struct {
	Type string `json:"type"`
	watch.Summary
}

func main() {
	var (
		in     = flag.String("in", "", "Container directory to watch")
		out    = flag.String("out", "output", "Directory for unpacked artifacts")
		port   = flag.Int("port", 8888, "HTTP port for the web UI")
		format = flag.String("format", "png", "Image format for encoded artifacts (png or tif)")
		settle = flag.Duration("settle", watch.DefaultSettle, "Quiet period before a new container is read")
	)
	flag.Parse()

	if *in == "" {
		log.Fatal("missing -in")
	}

	cfg := config.AppConfig{
		InputDir:  *in,
		OutputDir: *out,
		Format:    *format,
		Port:      *port,
		Settle:    *settle,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := watch.NewTracker()
	uiMessages := make(chan any, 16)
	notify := func(res watch.FrameResult) {
		select {
		case uiMessages <- frameEvent{Type: "frame", FrameResult: res}:
		default:
		}
	}

	go func() {
		defer close(uiMessages)
		if err := watch.Watch(ctx, cfg.InputDir, cfg.OutputDir, unpack.Options{Format: cfg.Format}, cfg.Settle, tracker, notify); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}()

	statusFn := func() map[string]any {
		s := tracker.Snapshot()
		return map[string]any{
			"frames":     s.Frames,
			"artifacts":  s.Artifacts,
			"failed":     s.Failed,
			"last_frame": s.LastFrame,
		}
	}

	snapshotFn := func() any {
		return summaryEvent{Type: "summary", Summary: tracker.Snapshot()}
	}

	log.Printf("Starting web UI at http://localhost:%d\n", cfg.Port)
	if err := server.Run(ctx, cfg, uiMessages, statusFn, snapshotFn); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
