package main

import (
	"flag"
	"fmt"
	"log"

	"synthpack-go/internal/unpack"
)

func main() {
	format := flag.String("format", "png", "Image format for encoded artifacts (png or tif)")
	flag.Parse()

	if flag.NArg() != 2 {
		log.Fatal("usage: synthpack-unpack [-format png|tif] <container-dir> <output-dir>")
	}

	stats, err := unpack.Run(flag.Arg(0), flag.Arg(1), unpack.Options{Format: *format})
	if err != nil {
		log.Fatalf("unpack: %v", err)
	}

	fmt.Printf("summary: containers=%d artifacts=%d skipped=%d\n", stats.Containers, stats.Artifacts, stats.Skipped)
}
