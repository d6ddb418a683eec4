package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"synthpack-go/internal/compression"
	"synthpack-go/internal/simulator"
)

func main() {
	var (
		out       = flag.String("out", "frames", "Directory for container output")
		frames    = flag.Int("frames", 5, "Number of camera poses on the orbit")
		size      = flag.Int("size", 512, "Image width and height in pixels")
		interval  = flag.Duration("interval", 0, "Delay between frames (0 writes back to back)")
		algorithm = flag.String("compression", "", "Dataset payload compression (zstd, lz4 or empty)")
	)
	flag.Parse()

	if *frames < 1 {
		log.Fatal("frames must be at least 1")
	}
	if !compression.Valid(*algorithm) {
		log.Fatalf("unknown compression %q", *algorithm)
	}

	scene := simulator.DefaultScene()
	if *size > 0 {
		scene.Width = *size
		scene.Height = *size
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	written, err := simulator.WriteFrames(ctx, *out, scene, *frames, *interval, *algorithm)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("write frames: %v", err)
	}

	fmt.Printf("summary: frames=%d dir=%s elapsed=%s\n", written, *out, time.Since(start).Round(time.Millisecond))
}
