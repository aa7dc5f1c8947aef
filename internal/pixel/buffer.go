// Package pixel holds the in-memory float representation of a texture
// that the transform operates on. Images come in through image.Decode in
// whatever depth the file carries; here they become a flat float32 grid
// with one value per channel per texel, and go back out at the depth they
// came in at.
package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Buffer is a width x height grid of texels, each with Channels float32
// values nominally in [0,1]. Data is laid out row-major, texel-major:
// Data[(y*Width+x)*Channels + c].
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Data     []float32

	// HighDepth records whether the source image carried 16 bits per
	// channel, so ToImage can preserve the original precision.
	HighDepth bool
}

// New allocates a zeroed buffer. The transform reads and writes channels
// 0-2, so fewer than 3 channels is rejected here rather than left to
// panic later.
func New(width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixel: invalid dimensions %dx%d", width, height)
	}
	if channels < 3 {
		return nil, fmt.Errorf("pixel: need at least 3 channels, got %d", channels)
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}, nil
}

// Pixel returns the channel slice for texel (x, y). The slice aliases the
// buffer, so writes through it mutate the buffer in place.
func (b *Buffer) Pixel(x, y int) []float32 {
	i := (y*b.Width + x) * b.Channels
	return b.Data[i : i+b.Channels]
}

// Row returns the channel data for one full row of texels.
func (b *Buffer) Row(y int) []float32 {
	i := y * b.Width * b.Channels
	return b.Data[i : i+b.Width*b.Channels]
}

// FromImage converts a decoded image into a 4-channel float buffer
// (R, G, B, A). The generic RGBA() path yields 16-bit samples for every
// color model, so 16-bit PNGs keep their precision.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	buf, err := New(w, h, 4)
	if err != nil {
		// New only fails on degenerate dimensions; a decoded image
		// always has positive bounds.
		panic(err)
	}
	buf.HighDepth = isHighDepth(img)

	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			buf.Data[i+0] = float32(r) / 65535.0
			buf.Data[i+1] = float32(g) / 65535.0
			buf.Data[i+2] = float32(b) / 65535.0
			buf.Data[i+3] = float32(a) / 65535.0
			i += 4
		}
	}
	return buf
}

// ToImage converts the buffer back to an image for encoding, clamping to
// [0,1] at the quantization boundary. Sources decoded at 16 bits per
// channel come back as *image.NRGBA64, everything else as *image.NRGBA.
func (b *Buffer) ToImage() image.Image {
	if b.HighDepth {
		img := image.NewNRGBA64(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				p := b.Pixel(x, y)
				img.SetNRGBA64(x, y, color.NRGBA64{
					R: quantize16(p[0]),
					G: quantize16(p[1]),
					B: quantize16(p[2]),
					A: quantize16(channelOr(p, 3, 1)),
				})
			}
		}
		return img
	}

	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			p := b.Pixel(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: quantize8(p[0]),
				G: quantize8(p[1]),
				B: quantize8(p[2]),
				A: quantize8(channelOr(p, 3, 1)),
			})
		}
	}
	return img
}

func channelOr(p []float32, c int, def float32) float32 {
	if c < len(p) {
		return p[c]
	}
	return def
}

func quantize8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

func quantize16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 65535
	}
	return uint16(v*65535.0 + 0.5)
}

func isHighDepth(img image.Image) bool {
	switch img.ColorModel() {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
		return true
	}
	return false
}
