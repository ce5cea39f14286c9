package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"jordanella.com/pagecapture-go/internal/logging"
)

// ErrInvalidRange is returned for page ranges outside the document
var ErrInvalidRange = errors.New("invalid page range")

// ValidateRange checks 1 <= from <= to <= count
func ValidateRange(from, to, count int) error {
	switch {
	case from < 1:
		return fmt.Errorf("%w: start page must be at least 1", ErrInvalidRange)
	case to > count:
		return fmt.Errorf("%w: end page %d exceeds page count %d", ErrInvalidRange, to, count)
	case from > to:
		return fmt.Errorf("%w: start page %d is after end page %d", ErrInvalidRange, from, to)
	}
	return nil
}

// RangeFileName is the default output name for pages from..to of in
func RangeFileName(in string, from, to int) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(filepath.Dir(in), fmt.Sprintf("%s_%d-%d.pdf", base, from, to))
}

// PageCount returns the number of pages in a PDF
func PageCount(in string) (int, error) {
	n, err := api.PageCountFile(in)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", in, err)
	}
	return n, nil
}

// ExtractRange writes pages from..to (1-based, inclusive) of in to out
func ExtractRange(in, out string, from, to int) (*Result, error) {
	count, err := PageCount(in)
	if err != nil {
		return nil, err
	}
	if err := ValidateRange(from, to, count); err != nil {
		return nil, err
	}
	if out == "" {
		out = RangeFileName(in, from, to)
	}

	sel := []string{fmt.Sprintf("%d-%d", from, to)}
	if err := api.TrimFile(in, out, sel, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract pages %d-%d: %w", from, to, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	logging.NewLogger("export").InfoWithContext("Page range extracted", map[string]interface{}{
		"input":  in,
		"output": out,
		"from":   from,
		"to":     to,
	})

	return &Result{Path: out, Pages: to - from + 1, Size: info.Size()}, nil
}
