// Package qlog implements the conversion between basis-vector normal
// maps and quaternion-logarithm normal maps.
//
// A basis normal map stores a unit 3-vector per texel, each component
// linearly packed from [-1,1] into [0,1]. The quaternion-logarithm
// encoding instead stores, in two channels, the half-angle-scaled
// projection of the rotation taking the +Z pole to the normal, with an
// optional power curve ("bias") that reallocates coding precision
// across the angular domain.
package qlog

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/jmadden/normal2qlog/internal/pixel"
)

// epsilon is the float32 machine epsilon, the same threshold the
// denominator and Z-derivation guards are specified against.
const epsilon = 0x1p-23

const piOver4 = math.Pi / 4

// Options selects the transform direction and its parameters.
type Options struct {
	// Inverse converts quaternion-logarithm maps back to basis maps.
	Inverse bool

	// DeriveZ recomputes the normal's Z component from X and Y instead
	// of trusting channel 2. Forward direction only; ignored on inverse.
	DeriveZ bool

	// Bias biases angular precision: positive values concentrate
	// precision near the pole, negative away from it, 0 is linear.
	Bias float32

	// Threads caps the number of worker goroutines; 0 means one per
	// hardware thread.
	Threads int
}

// BiasCoeffs holds the pair of reciprocal power-curve exponents derived
// from a bias value. They are computed once per run and passed by value
// to every pixel, so concurrent rows never share mutable state.
type BiasCoeffs struct {
	Apply  float32
	Remove float32
}

// NewBiasCoeffs derives the exponent pair from a bias value.
//
//	removeBias = 1 + bias        for bias >= 0
//	removeBias = 1 / (1 - bias)  for bias <  0
//	applyBias  = 1 / removeBias
//
// Both branches are strictly positive for any finite bias; NaN and Inf
// are rejected so the power curves cannot poison the whole image.
func NewBiasCoeffs(bias float32) (BiasCoeffs, error) {
	b := float64(bias)
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return BiasCoeffs{}, fmt.Errorf("qlog: bias must be finite, got %v", bias)
	}

	var remove float32
	if bias >= 0 {
		remove = 1 + bias
	} else {
		remove = 1 / (1 - bias)
	}
	return BiasCoeffs{Apply: 1 / remove, Remove: remove}, nil
}

// ApplyThenPack maps an angular value in [-pi/4, pi/4] through the bias
// curve and into [0,1]: normalize by pi/4, raise the magnitude to the
// apply exponent keeping the sign, then shift from [-1,1] to [0,1].
// Values outside the nominal domain are not clamped.
func (c BiasCoeffs) ApplyThenPack(value float32) float32 {
	r := float64(value) / piOver4
	r = math.Copysign(math.Pow(math.Abs(r), float64(c.Apply)), r)
	return float32((r + 1) * 0.5)
}

// UnpackThenRemove is the exact inverse of ApplyThenPack: expand [0,1]
// to [-1,1], undo the bias curve with the remove exponent, and scale
// back to [-pi/4, pi/4].
func (c BiasCoeffs) UnpackThenRemove(value float32) float32 {
	r := float64(value)*2 - 1
	r = math.Copysign(math.Pow(math.Abs(r), float64(c.Remove)), r)
	return float32(r * piOver4)
}

// zFromXY reconstructs the Z component of a unit normal from its X and Y
// components, returning 0 when x*x+y*y reaches 1 within epsilon.
func zFromXY(x, y float32) float32 {
	d := 1 - (x*x + y*y)
	if d < epsilon {
		return 0
	}
	return float32(math.Sqrt(float64(d)))
}

// pixelFunc rewrites channels 0-2 of a single texel in place.
type pixelFunc func(p []float32)

// forwardPixel converts one basis-normal texel to the quaternion-log
// encoding. Channel 2 of the output is unused by the encoding and is
// written as the constant 0.5.
func forwardPixel(c BiasCoeffs, deriveZ bool) pixelFunc {
	return func(p []float32) {
		x := p[0]*2 - 1
		y := p[1]*2 - 1
		z := p[2]*2 - 1

		if deriveZ {
			z = zFromXY(x, y)
		}

		// Guard the projection against division by zero for normals at
		// (or within epsilon of) the pole, where x and y vanish.
		denom := x*x + y*y
		if denom < epsilon {
			denom = 1
		} else {
			denom = float32(math.Sqrt(float64(denom)))
		}

		// Half the angle between the normal and +Z, via the double-angle
		// identity cos(a/2) = sqrt((1+cos a)/2) with cos a = z.
		halfAngle := float32(math.Acos(math.Sqrt(float64(1+z) / 2)))

		u := x * halfAngle / denom
		v := y * halfAngle / denom

		p[0] = c.ApplyThenPack(u)
		p[1] = c.ApplyThenPack(v)
		p[2] = 0.5
	}
}

// inversePixel converts one quaternion-log texel back to a basis normal.
// Channel 2 of the input is ignored.
func inversePixel(c BiasCoeffs) pixelFunc {
	return func(p []float32) {
		u := c.UnpackThenRemove(p[0])
		v := c.UnpackThenRemove(p[1])

		halfAngleSq := u*u + v*v
		denom := halfAngleSq
		if denom < epsilon {
			denom = 1
		}
		denom = float32(math.Sqrt(float64(denom)))

		angle := 2 * float32(math.Sqrt(float64(halfAngleSq)))
		sinAngle := float32(math.Sin(float64(angle)))

		x := u * sinAngle / denom
		y := v * sinAngle / denom
		z := float32(math.Cos(float64(angle)))

		p[0] = (x + 1) * 0.5
		p[1] = (y + 1) * 0.5
		p[2] = (z + 1) * 0.5
	}
}

// Transform rewrites the first three channels of every texel in buf in
// place according to opts. Channels beyond the third pass through
// untouched. Rows are processed by a worker pool; each texel depends
// only on itself and the derived bias coefficients, so the result is
// independent of worker count.
func Transform(buf *pixel.Buffer, opts Options) error {
	if buf.Channels < 3 {
		return fmt.Errorf("qlog: buffer has %d channels, need at least 3", buf.Channels)
	}

	coeffs, err := NewBiasCoeffs(opts.Bias)
	if err != nil {
		return err
	}

	var fn pixelFunc
	if opts.Inverse {
		fn = inversePixel(coeffs)
	} else {
		fn = forwardPixel(coeffs, opts.DeriveZ)
	}

	workers := opts.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > buf.Height {
		workers = buf.Height
	}
	if workers < 1 {
		workers = 1
	}

	rows := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				row := buf.Row(y)
				for x := 0; x < buf.Width; x++ {
					fn(row[x*buf.Channels : (x+1)*buf.Channels])
				}
			}
		}()
	}
	for y := 0; y < buf.Height; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()

	return nil
}
