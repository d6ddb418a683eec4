// Package unpack turns render-output containers into image artifacts
// and JSON metadata sidecars.
package unpack

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"synthpack-go/internal/container"
)

// Options controls artifact encoding.
type Options struct {
	// Format selects the artifact image codec: "png" (default) or
	// "tiff".
	Format string
}

// Stats summarizes one Run.
type Stats struct {
	Containers int // containers unpacked
	Artifacts  int // image files written
	Skipped    int // unreadable containers skipped
}

// Run unpacks every container under inputDir into outputDir, creating
// outputDir as needed. A missing inputDir is fatal; unreadable
// containers are skipped with a warning. A sidecar write failure
// aborts the run.
func Run(inputDir, outputDir string, opts Options) (Stats, error) {
	files, err := container.List(inputDir)
	if err != nil {
		return Stats{}, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, f := range files {
		c, err := container.ReadFile(f.Path)
		if err != nil {
			log.Printf("skipping %s: %v", f.Path, err)
			stats.Skipped++
			continue
		}
		n, err := Unpack(c, f.Frame, outputDir, opts)
		if err != nil {
			return stats, err
		}
		stats.Containers++
		stats.Artifacts += n
	}
	return stats, nil
}

// Unpack writes the image artifacts and metadata sidecar for one
// decoded container, overwriting previous outputs for the same frame.
// It returns the number of image files written. Datasets that fail
// image encoding degrade to metadata entries; only an unwritable
// sidecar is an error.
func Unpack(c container.Container, frame, outputDir string, opts Options) (int, error) {
	ext, err := imageExt(opts.Format)
	if err != nil {
		return 0, err
	}

	meta := make(map[string]any, len(c)+1)
	artifacts := 0
	for _, name := range c.Names() {
		value := c[name]
		arr, ok := value.(*container.Array)
		if !ok {
			meta[name] = metadataValue(value)
			continue
		}
		filename, ok := encodeImage(name, arr, frame, outputDir, ext)
		if !ok {
			meta[name] = metadataValue(value)
			continue
		}
		meta[name] = filename
		if name == "depth" {
			meta["depth_scale"] = depthScale
		}
		artifacts++
	}

	path := filepath.Join(outputDir, "metadata_"+frame+".json")
	if err := writeSidecar(path, meta); err != nil {
		return artifacts, fmt.Errorf("metadata for frame %s: %w", frame, err)
	}
	return artifacts, nil
}

// encodeImage routes recognized datasets to their image encoders and
// reports the artifact filename. ok is false when the dataset has no
// matching encoder or its encoder failed; the caller records the value
// as plain metadata instead.
func encodeImage(name string, arr *container.Array, frame, outputDir, ext string) (string, bool) {
	var (
		filename string
		encode   func(*container.Array, string) error
	)
	switch {
	case name == "colors" && arr.NumDims() == 3:
		filename = "rgb_" + frame + ext
		encode = encodeColor
	case name == "depth" && arr.NumDims() == 2:
		filename = "depth_" + frame + ext
		encode = encodeDepth
	case name == "normals" && arr.NumDims() == 3:
		filename = "normals_" + frame + ext
		encode = encodeNormal
	default:
		return "", false
	}
	if err := encode(arr, filepath.Join(outputDir, filename)); err != nil {
		log.Printf("dataset %q frame %s falls back to metadata: %v", name, frame, err)
		return "", false
	}
	return filename, true
}
