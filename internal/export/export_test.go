package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePages(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := 1; i <= n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 40, 60))
		for y := 0; y < 60; y++ {
			for x := 0; x < 40; x++ {
				img.Set(x, y, color.RGBA{uint8(i * 40), uint8(x * 4), uint8(y * 4), 255})
			}
		}
		path := filepath.Join(dir, fmt.Sprintf("page_%05d.png", i))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		paths = append(paths, path)
	}
	return paths
}

func TestSelectPages(t *testing.T) {
	assert.Empty(t, SelectPages(nil, false))
	assert.Equal(t, []string{"a"}, SelectPages([]string{"a"}, false))
	assert.Equal(t, []string{"a", "b"}, SelectPages([]string{"a", "b", "c"}, false))
	assert.Equal(t, []string{"a", "b", "c"}, SelectPages([]string{"a", "b", "c"}, true))
}

func TestBuildPDFDropsLastPage(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 3)
	out := filepath.Join(dir, "out", "document.pdf")

	var progress bytes.Buffer
	res, err := BuildPDF(pages, out, Options{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Positive(t, res.Size)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotEmpty(t, progress.String())
}

func TestBuildPDFSinglePage(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 1)
	out := filepath.Join(dir, "single.pdf")

	res, err := BuildPDF(pages, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}

func TestBuildPDFNoPages(t *testing.T) {
	_, err := BuildPDF(nil, filepath.Join(t.TempDir(), "x.pdf"), Options{})
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestBuildPDFExistingOutput(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 2)
	out := filepath.Join(dir, "document.pdf")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	_, err := BuildPDF(pages, out, Options{})
	require.Error(t, err)

	res, err := BuildPDF(pages, out, Options{Overwrite: true, KeepLast: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "overwrite must not append to the old file")
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		ok       bool
	}{
		{"whole document", 1, 5, true},
		{"single page", 3, 3, true},
		{"zero start", 0, 2, false},
		{"past end", 2, 6, false},
		{"reversed", 4, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.from, tt.to, 5)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRange)
			}
		})
	}
}

func TestRangeFileName(t *testing.T) {
	got := RangeFileName(filepath.Join("pdfs", "book.pdf"), 2, 7)
	assert.Equal(t, filepath.Join("pdfs", "book_2-7.pdf"), got)
}

func TestExtractRange(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 4)
	src := filepath.Join(dir, "book.pdf")
	_, err := BuildPDF(pages, src, Options{KeepLast: true})
	require.NoError(t, err)

	res, err := ExtractRange(src, "", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book_2-3.pdf"), res.Path)
	assert.Equal(t, 2, res.Pages)

	n, err := PageCount(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = ExtractRange(src, "", 3, 9)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
