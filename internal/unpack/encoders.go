package unpack

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"synthpack-go/internal/container"
)

// depthScale converts stored millimeter depth values back to meters.
const depthScale = 0.001

// depthCeiling is the largest depth in meters that fits a 16-bit
// millimeter image.
const depthCeiling = 65.535

// imageExt maps an artifact format name to its file extension. The
// empty format defaults to PNG.
func imageExt(format string) (string, error) {
	switch format {
	case "", "png":
		return ".png", nil
	case "tif", "tiff":
		return ".tif", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// encodeColor writes an H x W x C color array as an 8-bit image.
// uint8 samples pass through untouched; any other dtype is scaled by
// 255 and truncated.
func encodeColor(arr *container.Array, path string) error {
	if raw, ok := arr.Data.([]uint8); ok {
		return writeRGBRaw(arr, raw, path)
	}
	return writeRGBMapped(arr, path, func(v float64) uint8 {
		return wrapUint8(v * 255)
	})
}

// encodeNormal writes an H x W x C normal array as an 8-bit image,
// mapping each component through (v+1)*127.5 with truncation. Values
// outside [-1, 1] wrap rather than clip.
func encodeNormal(arr *container.Array, path string) error {
	return writeRGBMapped(arr, path, func(v float64) uint8 {
		return wrapUint8((v + 1) * 127.5)
	})
}

// encodeDepth writes an H x W depth array as a 16-bit grayscale image
// in millimeters.
func encodeDepth(arr *container.Array, path string) error {
	h, w := arr.DimSize(0), arr.DimSize(1)
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := depthToMillimeters(arr.Float1D(y*w + x))
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	return writeImage(path, img)
}

// depthToMillimeters maps a depth sample in meters to millimeters:
// NaN and -Inf read as 0, +Inf as the ceiling, everything else clips
// to [0, 65.535] before scaling and truncation.
func depthToMillimeters(v float64) uint16 {
	switch {
	case math.IsNaN(v):
		v = 0
	case math.IsInf(v, 1):
		v = depthCeiling
	case math.IsInf(v, -1):
		v = 0
	}
	if v < 0 {
		v = 0
	} else if v > depthCeiling {
		v = depthCeiling
	}
	return uint16(math.Trunc(v * 1000))
}

// wrapUint8 truncates toward zero and wraps modulo 256. NaN and
// infinities map to 0.
func wrapUint8(v float64) uint8 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	t := math.Mod(math.Trunc(v), 256)
	if t < 0 {
		t += 256
	}
	return uint8(t)
}

func rgbDims(arr *container.Array) (h, w, ch int, err error) {
	h, w, ch = arr.DimSize(0), arr.DimSize(1), arr.DimSize(2)
	if ch != 3 && ch != 4 {
		return 0, 0, 0, fmt.Errorf("expected 3 or 4 channels, got %d", ch)
	}
	return h, w, ch, nil
}

func writeRGBRaw(arr *container.Array, raw []uint8, path string) error {
	h, w, ch, err := rgbDims(arr)
	if err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := (y*w + x) * ch
			pi := img.PixOffset(x, y)
			img.Pix[pi] = raw[si]
			img.Pix[pi+1] = raw[si+1]
			img.Pix[pi+2] = raw[si+2]
			if ch == 4 {
				img.Pix[pi+3] = raw[si+3]
			} else {
				img.Pix[pi+3] = 255
			}
		}
	}
	return writeImage(path, img)
}

func writeRGBMapped(arr *container.Array, path string, sample func(float64) uint8) error {
	h, w, ch, err := rgbDims(arr)
	if err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := (y*w + x) * ch
			pi := img.PixOffset(x, y)
			img.Pix[pi] = sample(arr.Float1D(si))
			img.Pix[pi+1] = sample(arr.Float1D(si + 1))
			img.Pix[pi+2] = sample(arr.Float1D(si + 2))
			if ch == 4 {
				img.Pix[pi+3] = sample(arr.Float1D(si + 3))
			} else {
				img.Pix[pi+3] = 255
			}
		}
	}
	return writeImage(path, img)
}

func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(f, img)
	case ".tif":
		err = tiff.Encode(f, img, nil)
	default:
		err = fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
