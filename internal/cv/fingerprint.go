package cv

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/bits"
	"strconv"
	"sync"

	xdraw "golang.org/x/image/draw"
)

const (
	// FingerprintBits is the length of every fingerprint
	FingerprintBits = 64

	sampleSize = 32 // resampled luminance grid edge
	blockSize  = 8  // low-frequency block edge

	// DCT outputs smaller than this are rounding residue of flat input
	coefficientEpsilon = 1e-6
)

// ErrEmptyFrame is returned when a frame has no pixels to fingerprint
var ErrEmptyFrame = errors.New("empty frame")

// Fingerprint is a 64-bit perceptual hash. Bit 63 holds cell (0,0) of the
// 8x8 low-frequency block and bit 0 holds cell (7,7).
type Fingerprint uint64

// Bit reports the value of cell (y,x) of the 8x8 block
func (f Fingerprint) Bit(y, x int) bool {
	return f>>(FingerprintBits-1-(y*blockSize+x))&1 == 1
}

// String renders the fingerprint as 16 hex digits
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Ptr returns a pointer to a copy of f, for use as a baseline
func (f Fingerprint) Ptr() *Fingerprint {
	return &f
}

// OnesCount returns the number of set bits
func (f Fingerprint) OnesCount() int {
	return bits.OnesCount64(uint64(f))
}

// ParseFingerprint parses the 16 hex digit form produced by String
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("fingerprint %q: want 16 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

var (
	cosTableOnce sync.Once
	cosTable     [sampleSize][sampleSize]float64 // [k][n]
)

func dctCosines() *[sampleSize][sampleSize]float64 {
	cosTableOnce.Do(func() {
		for k := 0; k < sampleSize; k++ {
			for n := 0; n < sampleSize; n++ {
				cosTable[k][n] = math.Cos(math.Pi / sampleSize * (float64(n) + 0.5) * float64(k))
			}
		}
	})
	return &cosTable
}

// ComputeFingerprint derives the perceptual fingerprint of img restricted to
// region. A zero or collapsed region fingerprints the full frame.
//
// The frame is converted to luminance, resampled to 32x32 with a bicubic
// filter and transformed with a separable DCT-II. Cell (y,x) of the top-left
// 8x8 block sets its bit when the coefficient exceeds the mean of the 63
// non-DC coefficients; the DC bit is always 0.
func ComputeFingerprint(img image.Image, region Region) (Fingerprint, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, ErrEmptyFrame
	}

	rect, _ := region.Rect(img.Bounds())
	gray := luminance(img, rect)

	small := image.NewGray(image.Rect(0, 0, sampleSize, sampleSize))
	xdraw.CatmullRom.Scale(small, small.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)

	coeffs := dct2D(small)

	var sum float64
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			if x == 0 && y == 0 {
				continue
			}
			sum += coeffs[y][x]
		}
	}
	mean := sum / float64(blockSize*blockSize-1)

	var fp Fingerprint
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			if x == 0 && y == 0 {
				continue
			}
			if coeffs[y][x] > mean {
				fp |= 1 << (FingerprintBits - 1 - (y*blockSize + x))
			}
		}
	}
	return fp, nil
}

// luminance converts rect of img to 8-bit luma using the ITU-R 601 weights
func luminance(img image.Image, rect image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < rect.Dy(); y++ {
			row := rgba.Pix[rgba.PixOffset(rect.Min.X, rect.Min.Y+y):]
			for x := 0; x < rect.Dx(); x++ {
				p := row[x*4 : x*4+3 : x*4+3]
				out.Pix[y*out.Stride+x] = luma(uint32(p[0]), uint32(p[1]), uint32(p[2]))
			}
		}
		return out
	}

	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			r, g, b, _ := img.At(rect.Min.X+x, rect.Min.Y+y).RGBA()
			out.Pix[y*out.Stride+x] = luma(r>>8, g>>8, b>>8)
		}
	}
	return out
}

func luma(r, g, b uint32) uint8 {
	return uint8((r*299 + g*587 + b*114 + 500) / 1000)
}

// dct2D applies the unnormalised DCT-II over rows, then over the resulting
// columns.
func dct2D(src *image.Gray) [sampleSize][sampleSize]float64 {
	cos := dctCosines()

	var rows [sampleSize][sampleSize]float64
	for y := 0; y < sampleSize; y++ {
		line := src.Pix[y*src.Stride : y*src.Stride+sampleSize]
		for k := 0; k < sampleSize; k++ {
			var s float64
			for n, v := range line {
				s += float64(v) * cos[k][n]
			}
			rows[y][k] = s
		}
	}

	var out [sampleSize][sampleSize]float64
	for x := 0; x < sampleSize; x++ {
		for k := 0; k < sampleSize; k++ {
			var s float64
			for n := 0; n < sampleSize; n++ {
				s += rows[n][x] * cos[k][n]
			}
			if math.Abs(s) < coefficientEpsilon {
				s = 0
			}
			out[k][x] = s
		}
	}
	return out
}
