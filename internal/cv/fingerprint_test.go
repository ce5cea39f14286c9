package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFrameSize = 640

func blankFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, testFrameSize, testFrameSize))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// splitFrame paints the left (vertical) or top (horizontal) half black on a
// white page
func splitFrame(vertical bool) *image.RGBA {
	img := blankFrame()
	half := testFrameSize / 2
	for y := 0; y < testFrameSize; y++ {
		for x := 0; x < testFrameSize; x++ {
			if (vertical && x < half) || (!vertical && y < half) {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

// antialiased softens a stretch of the split edge to mid grey, the kind of
// difference two renders of the same page show
func antialiased(img *image.RGBA) *image.RGBA {
	out := Crop(img, FullFrame)
	edge := testFrameSize/2 - 1
	for y := 100; y < 140; y++ {
		out.SetRGBA(edge, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	}
	return out
}

func TestFingerprintDeterministic(t *testing.T) {
	frame := splitFrame(true)

	a, err := ComputeFingerprint(frame, FullFrame)
	require.NoError(t, err)
	b, err := ComputeFingerprint(frame, FullFrame)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 0, Distance(a.Ptr(), b.Ptr()))
}

func TestFingerprintDCBitAlwaysZero(t *testing.T) {
	for _, frame := range []*image.RGBA{blankFrame(), splitFrame(true), splitFrame(false)} {
		fp, err := ComputeFingerprint(frame, FullFrame)
		require.NoError(t, err)
		assert.False(t, fp.Bit(0, 0))
	}
}

func TestFingerprintBlankPage(t *testing.T) {
	fp, err := ComputeFingerprint(blankFrame(), FullFrame)
	require.NoError(t, err)

	// Flat input has no AC energy, so nothing exceeds the mean
	assert.Equal(t, Fingerprint(0), fp)
}

func TestFingerprintVerticalSplit(t *testing.T) {
	fp, err := ComputeFingerprint(splitFrame(true), FullFrame)
	require.NoError(t, err)

	// Only the first row carries energy; its negative odd terms (1 and 5)
	// fall below the negative mean, everything else sits above it.
	assert.False(t, fp.Bit(0, 1))
	assert.False(t, fp.Bit(0, 5))
	assert.True(t, fp.Bit(0, 3))
	assert.True(t, fp.Bit(0, 7))
	assert.True(t, fp.Bit(3, 3))
	assert.Equal(t, 61, fp.OnesCount())
}

func TestFingerprintToleratesAntialiasing(t *testing.T) {
	page := splitFrame(true)

	a, err := ComputeFingerprint(page, FullFrame)
	require.NoError(t, err)
	b, err := ComputeFingerprint(antialiased(page), FullFrame)
	require.NoError(t, err)

	assert.LessOrEqual(t, Distance(a.Ptr(), b.Ptr()), DefaultThreshold)
}

func TestFingerprintSeparatesPages(t *testing.T) {
	blank, err := ComputeFingerprint(blankFrame(), FullFrame)
	require.NoError(t, err)
	vertical, err := ComputeFingerprint(splitFrame(true), FullFrame)
	require.NoError(t, err)
	horizontal, err := ComputeFingerprint(splitFrame(false), FullFrame)
	require.NoError(t, err)

	assert.Greater(t, Distance(blank.Ptr(), vertical.Ptr()), DefaultThreshold)
	assert.Greater(t, Distance(vertical.Ptr(), horizontal.Ptr()), DefaultThreshold)
	assert.Greater(t, Distance(blank.Ptr(), horizontal.Ptr()), DefaultThreshold)
}

func TestFingerprintRegion(t *testing.T) {
	// Black band only in the top quarter; a region below it sees a blank page
	img := blankFrame()
	for y := 0; y < testFrameSize/4; y++ {
		for x := 0; x < testFrameSize/2; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}

	lower, err := ComputeFingerprint(img, DefaultProbeRegion)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(0), lower)

	full, err := ComputeFingerprint(img, FullFrame)
	require.NoError(t, err)
	assert.NotEqual(t, Fingerprint(0), full)
}

func TestFingerprintCollapsedRegionUsesFullFrame(t *testing.T) {
	page := splitFrame(true)

	full, err := ComputeFingerprint(page, FullFrame)
	require.NoError(t, err)
	collapsed, err := ComputeFingerprint(page, NewRegion(0.5, 0.5, 0.5, 0.9))
	require.NoError(t, err)

	assert.Equal(t, full, collapsed)
}

func TestFingerprintNonRGBAInput(t *testing.T) {
	rgba := splitFrame(false)
	nrgba := image.NewNRGBA(rgba.Bounds())
	copy(nrgba.Pix, rgba.Pix)

	a, err := ComputeFingerprint(rgba, FullFrame)
	require.NoError(t, err)
	b, err := ComputeFingerprint(nrgba, FullFrame)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprintEmptyFrame(t *testing.T) {
	_, err := ComputeFingerprint(nil, FullFrame)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = ComputeFingerprint(image.NewRGBA(image.Rect(0, 0, 0, 0)), FullFrame)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestParseFingerprint(t *testing.T) {
	fp := Fingerprint(0x0123456789abcdef)

	parsed, err := ParseFingerprint(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	_, err = ParseFingerprint("xyz")
	assert.Error(t, err)
}
