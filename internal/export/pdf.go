// Package export assembles captured pages into a PDF and extracts page
// ranges from existing PDFs.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/schollz/progressbar/v3"

	"jordanella.com/pagecapture-go/internal/logging"
)

// ErrNoPages is returned when there is nothing to export
var ErrNoPages = errors.New("no pages to export")

// Options controls PDF assembly
type Options struct {
	// KeepLast includes the final page. By default it is dropped because a
	// run ends on a page that was captured again while waiting for changes.
	KeepLast bool

	// Overwrite replaces an existing output file instead of failing
	Overwrite bool

	// Progress receives the progress bar; nil disables it
	Progress io.Writer
}

// Result describes a built PDF
type Result struct {
	Path  string
	Pages int
	Size  int64
}

// SelectPages returns the pages that go into the PDF. The last page is
// dropped unless keepLast is set, but at least one page is always kept.
func SelectPages(pages []string, keepLast bool) []string {
	if keepLast || len(pages) <= 1 {
		return pages
	}
	return pages[:len(pages)-1]
}

// BuildPDF writes one PDF page per image, each page sized to its image
func BuildPDF(pages []string, out string, opts Options) (*Result, error) {
	log := logging.NewLogger("export")

	selected := SelectPages(pages, opts.KeepLast)
	if len(selected) == 0 {
		return nil, ErrNoPages
	}

	if _, err := os.Stat(out); err == nil {
		if !opts.Overwrite {
			return nil, fmt.Errorf("PDF %s already exists", out)
		}
		if err := os.Remove(out); err != nil {
			return nil, fmt.Errorf("failed to remove existing PDF: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	imp, err := api.Import("pos:full", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("invalid import settings: %w", err)
	}
	conf := model.NewDefaultConfiguration()

	bar := newBar(len(selected), opts.Progress)
	log.InfoWithContext("Building PDF", map[string]interface{}{
		"pages":   len(selected),
		"dropped": len(pages) - len(selected),
		"output":  out,
	})

	// ImportImagesFile appends to an existing file, so feeding pages one at
	// a time keeps the bar honest
	for i, page := range selected {
		if err := importPage(page, out, imp, conf); err != nil {
			return nil, fmt.Errorf("failed to add page %d (%s): %w", i+1, filepath.Base(page), err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	info, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	log.InfoWithContext("PDF created", map[string]interface{}{
		"output":  out,
		"pages":   len(selected),
		"size_mb": fmt.Sprintf("%.2f", float64(info.Size())/(1024*1024)),
	})

	return &Result{Path: out, Pages: len(selected), Size: info.Size()}, nil
}

func importPage(page, out string, imp *pdfcpu.Import, conf *model.Configuration) error {
	if _, err := os.Stat(page); err != nil {
		return err
	}
	return api.ImportImagesFile([]string{page}, out, imp, conf)
}

func newBar(total int, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Building PDF"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
