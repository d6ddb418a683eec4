package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"synthpack-go/internal/container"
)

const (
	tagMultiDimArray = 40
	tagCompressed    = 56600
)

var dtypeNames = map[uint64]string{
	64: "uint8",
	69: "uint16",
	70: "uint32",
	71: "uint64",
	72: "int8",
	77: "int16",
	78: "int32",
	79: "int64",
	84: "float16",
	85: "float32",
	86: "float64",
}

func main() {
	var (
		path  = flag.String("path", "", "Container file or directory to inspect")
		limit = flag.Int("limit", 5, "Max number of containers to describe in full")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("missing -path")
	}

	files, err := listContainers(*path)
	if err != nil {
		log.Fatalf("list containers: %v", err)
	}

	described := 0
	datasets := 0
	for _, file := range files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			log.Printf("read %s: %v", file.Path, err)
			continue
		}

		var payload map[string]any
		if err := cbor.Unmarshal(data, &payload); err != nil {
			log.Printf("decode %s: %v", file.Path, err)
			continue
		}

		datasets += len(payload)
		if described >= *limit {
			continue
		}
		described++

		names := make([]string, 0, len(payload))
		for name := range payload {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("%s: %d datasets\n", file.Frame, len(payload))
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, describe(payload[name]))
		}
	}

	fmt.Printf("summary: containers=%d datasets=%d\n", len(files), datasets)
}

func describe(value any) string {
	tag, ok := value.(cbor.Tag)
	if !ok {
		if b, ok := value.([]byte); ok {
			return fmt.Sprintf("%d bytes", len(b))
		}
		return fmt.Sprintf("%v (%T)", value, value)
	}
	if tag.Number != tagMultiDimArray {
		return fmt.Sprintf("tag %d", tag.Number)
	}
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return "invalid multidim"
	}
	dims, ok := items[0].([]any)
	if !ok {
		return "invalid dims"
	}
	dataTag, ok := items[1].(cbor.Tag)
	if !ok {
		return fmt.Sprintf("dims %v untagged", dims)
	}
	name, ok := dtypeNames[dataTag.Number]
	if !ok {
		return fmt.Sprintf("dims %v tag %d", dims, dataTag.Number)
	}
	if inner, ok := dataTag.Content.(cbor.Tag); ok && inner.Number == tagCompressed {
		if env, ok := inner.Content.([]any); ok && len(env) == 3 {
			return fmt.Sprintf("dims %v %s (%v)", dims, name, env[0])
		}
		return fmt.Sprintf("dims %v %s (compressed)", dims, name)
	}
	return fmt.Sprintf("dims %v %s", dims, name)
}

func listContainers(path string) ([]container.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []container.File{{Path: path, Frame: container.FrameID(path)}}, nil
	}
	return container.List(path)
}
