package converter

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/jmadden/normal2qlog/internal/qlog"
)

// writeTestNormalMap writes a 16-bit PNG holding a smooth field of unit
// normals (upper hemisphere) and returns its path.
func writeTestNormalMap(t *testing.T, dir string) string {
	t.Helper()
	const w, h = 16, 16

	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx := (float64(x)/(w-1))*1.6 - 0.8
			ny := (float64(y)/(h-1))*1.6 - 0.8
			d := 1 - (nx*nx + ny*ny)
			if d < 0 {
				nx, ny = 0, 0
				d = 1
			}
			nz := math.Sqrt(d)
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16((nx + 1) * 0.5 * 65535),
				G: uint16((ny + 1) * 0.5 * 65535),
				B: uint16((nz + 1) * 0.5 * 65535),
				A: 65535,
			})
		}
	}

	path := filepath.Join(dir, "normal.png")
	if err := SaveImage(img, path); err != nil {
		t.Fatalf("failed to write test normal map: %v", err)
	}
	return path
}

func TestConvertFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inPath := writeTestNormalMap(t, dir)
	qlogPath := filepath.Join(dir, "qlog.png")
	backPath := filepath.Join(dir, "back.png")

	opts := qlog.Options{Bias: 0.5, Threads: 1}
	if err := ConvertFile(inPath, qlogPath, opts); err != nil {
		t.Fatalf("forward ConvertFile failed: %v", err)
	}

	opts.Inverse = true
	if err := ConvertFile(qlogPath, backPath, opts); err != nil {
		t.Fatalf("inverse ConvertFile failed: %v", err)
	}

	orig, err := LoadImage(inPath)
	if err != nil {
		t.Fatalf("failed to reload original: %v", err)
	}
	back, err := LoadImage(backPath)
	if err != nil {
		t.Fatalf("failed to load round-tripped image: %v", err)
	}

	if back.Width != orig.Width || back.Height != orig.Height {
		t.Fatalf("shape changed: %dx%d -> %dx%d", orig.Width, orig.Height, back.Width, back.Height)
	}
	for y := 0; y < orig.Height; y++ {
		for x := 0; x < orig.Width; x++ {
			po := orig.Pixel(x, y)
			pb := back.Pixel(x, y)
			for c := 0; c < 3; c++ {
				if diff := math.Abs(float64(po[c]) - float64(pb[c])); diff > 1e-3 {
					t.Fatalf("pixel (%d,%d) channel %d: |%v - %v| = %v", x, y, c, po[c], pb[c], diff)
				}
			}
			if pb[3] != po[3] {
				t.Errorf("pixel (%d,%d): alpha changed from %v to %v", x, y, po[3], pb[3])
			}
		}
	}
}

func TestConvertFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := ConvertFile(filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.png"), qlog.Options{})
	if err == nil {
		t.Errorf("expected error for missing input, got none")
	}
}

func TestSaveImageUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	path := filepath.Join(dir, "out.tga")
	if err := SaveImage(img, path); err == nil {
		t.Errorf("expected error for unsupported extension, got none")
	}
}
