package pager

import (
	"time"

	"jordanella.com/pagecapture-go/internal/cv"
)

// Config holds the tunables of a capture run
type Config struct {
	// Threshold is the largest Hamming distance still treated as the same page
	Threshold int

	// MaxDuplicates consecutive duplicates end the run as end of document
	MaxDuplicates int

	// MaxCaptureRetries consecutive capture failures abort the run. 0 retries forever.
	MaxCaptureRetries int

	// MaxPages stops the run once this many pages are saved. 0 is unlimited.
	MaxPages int

	FocusSettleDelay time.Duration // once, before the first iteration
	PageLoadDelay    time.Duration // before every capture
	RetryDelay       time.Duration // after a failed capture
	PostAdvanceDelay time.Duration // after the next-page input

	// HashRegion is fingerprinted on the main path. Zero means the full frame.
	HashRegion cv.Region

	// ProbeBeforeCapture enables the ROI pre-check, which only logs
	ProbeBeforeCapture bool
	ProbeRegion        cv.Region
}

// DefaultConfig returns the default run configuration
func DefaultConfig() Config {
	return Config{
		Threshold:         cv.DefaultThreshold,
		MaxDuplicates:     10,
		MaxCaptureRetries: 0,
		MaxPages:          0,
		FocusSettleDelay:  1 * time.Second,
		PageLoadDelay:     500 * time.Millisecond,
		RetryDelay:        300 * time.Millisecond,
		PostAdvanceDelay:  1 * time.Second,
		HashRegion:        cv.FullFrame,
		ProbeRegion:       cv.DefaultProbeRegion,
	}
}

// normalize fills invalid fields with defaults
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Threshold < 0 {
		c.Threshold = def.Threshold
	}
	if c.MaxDuplicates <= 0 {
		c.MaxDuplicates = def.MaxDuplicates
	}
	if c.MaxCaptureRetries < 0 {
		c.MaxCaptureRetries = 0
	}
	if c.MaxPages < 0 {
		c.MaxPages = 0
	}
	if c.ProbeRegion.IsZero() {
		c.ProbeRegion = def.ProbeRegion
	}
	return c
}
