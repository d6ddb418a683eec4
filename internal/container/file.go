package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the file extension of on-disk containers.
const Ext = ".cbor"

// ErrNoDirectory reports a container directory that does not exist.
var ErrNoDirectory = errors.New("container directory not found")

// File is one scanned container file.
type File struct {
	Path  string
	Frame string
}

// FrameID derives the frame identifier from a container path: the base
// name truncated at the first dot, so "0001.cbor" and
// "0001.backup.cbor" both map to "0001".
func FrameID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// List returns the container files directly under dir, sorted by path.
// A missing dir is ErrNoDirectory; an empty one yields an empty list.
func List(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoDirectory, dir)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Ext {
			continue
		}
		frame := FrameID(entry.Name())
		if frame == "" {
			continue
		}
		files = append(files, File{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frame,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ReadFile loads and decodes one container file.
func ReadFile(path string) (Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteFile encodes a container and writes it to path.
func WriteFile(path string, c Container, algorithm string) error {
	data, err := Encode(c, algorithm)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
