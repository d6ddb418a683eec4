package unpack

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"synthpack-go/internal/container"
)

func TestWrapUint8(t *testing.T) {
	cases := []struct {
		v    float64
		want uint8
	}{
		{0, 0},
		{255, 255},
		{255.9, 255},
		{256, 0},
		{510, 254},
		{-1, 255},
		{-63.75, 193},
		{127.5, 127},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tc := range cases {
		if got := wrapUint8(tc.v); got != tc.want {
			t.Fatalf("wrapUint8(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestDepthToMillimeters(t *testing.T) {
	cases := []struct {
		v    float64
		want uint16
	}{
		{0, 0},
		{0.0005, 0},
		{1, 1000},
		{1.2345, 1234},
		{65.535, 65535},
		{100, 65535},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(1), 65535},
		{math.Inf(-1), 0},
	}
	for _, tc := range cases {
		if got := depthToMillimeters(tc.v); got != tc.want {
			t.Fatalf("depthToMillimeters(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func checkPixel(t *testing.T, img image.Image, x, y int, r, g, b uint8) {
	t.Helper()
	gotR, gotG, gotB, gotA := img.At(x, y).RGBA()
	wantR, wantG, wantB := uint32(r)*257, uint32(g)*257, uint32(b)*257
	if gotR != wantR || gotG != wantG || gotB != wantB || gotA != 0xffff {
		t.Fatalf("pixel (%d,%d) = (%d,%d,%d,%d), want (%d,%d,%d,65535)",
			x, y, gotR, gotG, gotB, gotA, wantR, wantG, wantB)
	}
}

func TestEncodeColorUint8Passthrough(t *testing.T) {
	arr := &container.Array{
		Shape: []int{2, 2, 3},
		DType: container.Uint8,
		Data: []uint8{
			10, 20, 30, 40, 50, 60,
			70, 80, 90, 100, 110, 120,
		},
	}
	path := filepath.Join(t.TempDir(), "rgb.png")
	if err := encodeColor(arr, path); err != nil {
		t.Fatalf("encodeColor error: %v", err)
	}

	img := decodePNG(t, path)
	checkPixel(t, img, 0, 0, 10, 20, 30)
	checkPixel(t, img, 1, 0, 40, 50, 60)
	checkPixel(t, img, 0, 1, 70, 80, 90)
	checkPixel(t, img, 1, 1, 100, 110, 120)
}

func TestEncodeColorFloatScaling(t *testing.T) {
	arr := &container.Array{
		Shape: []int{1, 2, 3},
		DType: container.Float64,
		Data:  []float64{0.5, 1, 0.25, -0.5, 2, 0},
	}
	path := filepath.Join(t.TempDir(), "rgb.png")
	if err := encodeColor(arr, path); err != nil {
		t.Fatalf("encodeColor error: %v", err)
	}

	img := decodePNG(t, path)
	checkPixel(t, img, 0, 0, 127, 255, 63)
	checkPixel(t, img, 1, 0, 129, 254, 0)
}

func TestEncodeColorAlphaChannel(t *testing.T) {
	arr := &container.Array{
		Shape: []int{1, 1, 4},
		DType: container.Uint8,
		Data:  []uint8{10, 20, 30, 255},
	}
	path := filepath.Join(t.TempDir(), "rgb.png")
	if err := encodeColor(arr, path); err != nil {
		t.Fatalf("encodeColor error: %v", err)
	}
	checkPixel(t, decodePNG(t, path), 0, 0, 10, 20, 30)
}

func TestEncodeColorBadChannels(t *testing.T) {
	arr := &container.Array{
		Shape: []int{1, 1, 2},
		DType: container.Uint8,
		Data:  []uint8{1, 2},
	}
	path := filepath.Join(t.TempDir(), "rgb.png")
	if err := encodeColor(arr, path); err == nil {
		t.Fatalf("expected channel count error")
	}
}

func TestEncodeNormalMapping(t *testing.T) {
	values := []float64{-1, -0.5, 0, 0.5, 1, 1.5}
	flat := make([]float64, 0, len(values)*3)
	for _, v := range values {
		flat = append(flat, v, v, v)
	}
	arr := &container.Array{
		Shape: []int{1, 6, 3},
		DType: container.Float64,
		Data:  flat,
	}
	path := filepath.Join(t.TempDir(), "normals.png")
	if err := encodeNormal(arr, path); err != nil {
		t.Fatalf("encodeNormal error: %v", err)
	}

	img := decodePNG(t, path)
	want := []uint8{0, 63, 127, 191, 255, 62}
	for x, v := range want {
		checkPixel(t, img, x, 0, v, v, v)
	}
}

func TestEncodeDepthImage(t *testing.T) {
	arr := &container.Array{
		Shape: []int{2, 2},
		DType: container.Float32,
		Data:  []float32{0, 1, 100, float32(math.NaN())},
	}
	path := filepath.Join(t.TempDir(), "depth.png")
	if err := encodeDepth(arr, path); err != nil {
		t.Fatalf("encodeDepth error: %v", err)
	}

	img, ok := decodePNG(t, path).(*image.Gray16)
	if !ok {
		t.Fatalf("expected 16-bit grayscale output")
	}
	cases := []struct {
		x, y int
		want uint16
	}{
		{0, 0, 0},
		{1, 0, 1000},
		{0, 1, 65535},
		{1, 1, 0},
	}
	for _, tc := range cases {
		if got := img.Gray16At(tc.x, tc.y).Y; got != tc.want {
			t.Fatalf("depth (%d,%d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestEncodeDepthIntegers(t *testing.T) {
	arr := &container.Array{
		Shape: []int{1, 3},
		DType: container.Uint32,
		Data:  []uint32{0, 65, 1000000},
	}
	path := filepath.Join(t.TempDir(), "depth.png")
	if err := encodeDepth(arr, path); err != nil {
		t.Fatalf("encodeDepth error: %v", err)
	}

	img := decodePNG(t, path).(*image.Gray16)
	want := []uint16{0, 65000, 65535}
	for x, v := range want {
		if got := img.Gray16At(x, 0).Y; got != v {
			t.Fatalf("depth (%d,0) = %d, want %d", x, got, v)
		}
	}
}

func TestWriteImageTIFF(t *testing.T) {
	arr := &container.Array{
		Shape: []int{1, 1, 3},
		DType: container.Uint8,
		Data:  []uint8{12, 34, 56},
	}
	path := filepath.Join(t.TempDir(), "rgb.tif")
	if err := encodeColor(arr, path); err != nil {
		t.Fatalf("encodeColor error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatalf("tiff decode: %v", err)
	}
	checkPixel(t, img, 0, 0, 12, 34, 56)
}
