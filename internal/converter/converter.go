package converter

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepteams/webp"

	"github.com/jmadden/normal2qlog/internal/logging"
	"github.com/jmadden/normal2qlog/internal/pixel"
	"github.com/jmadden/normal2qlog/internal/qlog"
)

// ConvertFile reads a normal map from inPath, transforms it according to
// opts, and writes the result to outPath. The output format is chosen by
// the output file's extension.
func ConvertFile(inPath, outPath string, opts qlog.Options) error {
	buf, err := LoadImage(inPath)
	if err != nil {
		return err
	}

	if err := qlog.Transform(buf, opts); err != nil {
		return fmt.Errorf("transform %s: %w", inPath, err)
	}

	if err := SaveImage(buf.ToImage(), outPath); err != nil {
		return err
	}

	logging.Debug("converted %s (%dx%d) -> %s", inPath, buf.Width, buf.Height, outPath)
	return nil
}

// LoadImage decodes an image file into a float pixel buffer. PNG, JPEG,
// GIF and WebP inputs are recognized.
func LoadImage(path string) (*pixel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	logging.Debug("decoded %s as %s", path, format)

	return pixel.FromImage(img), nil
}

// SaveImage encodes an image to a file, picking the encoder from the
// file extension. WebP output is always lossless: the two angular
// channels do not survive chroma subsampling.
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		webpOpts := webp.DefaultOptions()
		webpOpts.Lossless = true
		err = webp.Encode(f, img, webpOpts)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
