// Package config loads capture settings from Settings.ini and per-app
// overrides from a YAML profile file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/input"
	"jordanella.com/pagecapture-go/internal/pager"
)

// SectionName is the ini section holding capture settings
const SectionName = "Capture"

// Settings is the flat, file-backed configuration
type Settings struct {
	// Backend and paths
	Backend      string
	OutputDir    string
	DBPath       string
	LogDir       string
	PDFPath      string
	ProfilesPath string
	BuildPDF     bool

	// Logging
	LogLevel       string
	DebugMode      bool
	LoggingEnabled bool

	// Detection
	Threshold          int
	MaxDuplicates      int
	MaxCaptureRetries  int
	MaxPages           int
	ProbeBeforeCapture bool
	ProbeRegion        cv.Region

	// Delays in milliseconds
	FocusSettleMs int
	PageLoadMs    int
	RetryMs       int
	PostAdvanceMs int
	KeySettleMs   int

	// ADB backend
	ADBPath   string
	ADBSerial string
	NextKey   string
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	def := pager.DefaultConfig()
	return &Settings{
		Backend:        "desktop",
		OutputDir:      "screenshots",
		DBPath:         "data/pagecapture.db",
		LogDir:         "logs",
		PDFPath:        "output.pdf",
		ProfilesPath:   "profiles.yaml",
		BuildPDF:       true,
		LogLevel:       "INFO",
		LoggingEnabled: true,

		Threshold:          def.Threshold,
		MaxDuplicates:      def.MaxDuplicates,
		MaxCaptureRetries:  def.MaxCaptureRetries,
		MaxPages:           def.MaxPages,
		ProbeBeforeCapture: false,
		ProbeRegion:        def.ProbeRegion,

		FocusSettleMs: int(def.FocusSettleDelay / time.Millisecond),
		PageLoadMs:    int(def.PageLoadDelay / time.Millisecond),
		RetryMs:       int(def.RetryDelay / time.Millisecond),
		PostAdvanceMs: int(def.PostAdvanceDelay / time.Millisecond),
		KeySettleMs:   int(input.DefaultSettle / time.Millisecond),

		NextKey: "KEYCODE_DPAD_RIGHT",
	}
}

// LoadFromINI loads settings from the Capture section of an ini file. A
// missing file yields the defaults.
func LoadFromINI(path string) (*Settings, error) {
	settings := NewDefaultSettings()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section(SectionName)

	settings.Backend = strings.ToLower(section.Key("backend").MustString(settings.Backend))
	settings.OutputDir = section.Key("outputDir").MustString(settings.OutputDir)
	settings.DBPath = section.Key("dbPath").MustString(settings.DBPath)
	settings.LogDir = section.Key("logDir").MustString(settings.LogDir)
	settings.PDFPath = section.Key("pdfPath").MustString(settings.PDFPath)
	settings.ProfilesPath = section.Key("profilesPath").MustString(settings.ProfilesPath)
	settings.BuildPDF = section.Key("buildPDF").MustBool(settings.BuildPDF)

	settings.LogLevel = section.Key("logLevel").MustString(settings.LogLevel)
	settings.DebugMode = section.Key("debugMode").MustBool(false)
	settings.LoggingEnabled = section.Key("loggingEnabled").MustBool(true)

	settings.Threshold = section.Key("threshold").MustInt(settings.Threshold)
	settings.MaxDuplicates = section.Key("maxDuplicates").MustInt(settings.MaxDuplicates)
	settings.MaxCaptureRetries = section.Key("maxCaptureRetries").MustInt(settings.MaxCaptureRetries)
	settings.MaxPages = section.Key("maxPages").MustInt(settings.MaxPages)
	settings.ProbeBeforeCapture = section.Key("probeBeforeCapture").MustBool(false)
	settings.ProbeRegion = cv.NewRegion(
		section.Key("probeLeft").MustFloat64(settings.ProbeRegion.Left),
		section.Key("probeTop").MustFloat64(settings.ProbeRegion.Top),
		section.Key("probeRight").MustFloat64(settings.ProbeRegion.Right),
		section.Key("probeBottom").MustFloat64(settings.ProbeRegion.Bottom),
	)

	settings.FocusSettleMs = section.Key("focusSettleMs").MustInt(settings.FocusSettleMs)
	settings.PageLoadMs = section.Key("pageLoadMs").MustInt(settings.PageLoadMs)
	settings.RetryMs = section.Key("retryMs").MustInt(settings.RetryMs)
	settings.PostAdvanceMs = section.Key("postAdvanceMs").MustInt(settings.PostAdvanceMs)
	settings.KeySettleMs = section.Key("keySettleMs").MustInt(settings.KeySettleMs)

	settings.ADBPath = section.Key("adbPath").MustString("")
	settings.ADBSerial = section.Key("adbSerial").MustString("")
	settings.NextKey = section.Key("nextKey").MustString(settings.NextKey)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks values a run cannot start with
func (s *Settings) Validate() error {
	if _, err := cv.ParseCaptureMethod(s.Backend); err != nil {
		return err
	}
	if s.Threshold < 0 || s.Threshold > cv.FingerprintBits {
		return fmt.Errorf("threshold %d out of range 0-%d", s.Threshold, cv.FingerprintBits)
	}
	if s.MaxDuplicates < 1 {
		return fmt.Errorf("maxDuplicates must be at least 1, got %d", s.MaxDuplicates)
	}
	if s.OutputDir == "" {
		return errors.New("outputDir cannot be empty")
	}
	for name, v := range map[string]int{
		"focusSettleMs": s.FocusSettleMs,
		"pageLoadMs":    s.PageLoadMs,
		"retryMs":       s.RetryMs,
		"postAdvanceMs": s.PostAdvanceMs,
		"keySettleMs":   s.KeySettleMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative, got %d", name, v)
		}
	}
	return nil
}

// KeySettle is the pause after each delivered next-page key
func (s *Settings) KeySettle() time.Duration {
	return ms(s.KeySettleMs)
}

// PagerConfig converts the settings to a controller configuration
func (s *Settings) PagerConfig() pager.Config {
	cfg := pager.DefaultConfig()
	cfg.Threshold = s.Threshold
	cfg.MaxDuplicates = s.MaxDuplicates
	cfg.MaxCaptureRetries = s.MaxCaptureRetries
	cfg.MaxPages = s.MaxPages
	cfg.ProbeBeforeCapture = s.ProbeBeforeCapture
	cfg.ProbeRegion = s.ProbeRegion
	cfg.FocusSettleDelay = ms(s.FocusSettleMs)
	cfg.PageLoadDelay = ms(s.PageLoadMs)
	cfg.RetryDelay = ms(s.RetryMs)
	cfg.PostAdvanceDelay = ms(s.PostAdvanceMs)
	return cfg
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// SaveToINI saves settings to an ini file
func SaveToINI(settings *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section(SectionName)

	// Backend and paths
	section.Key("backend").SetValue(settings.Backend)
	section.Key("outputDir").SetValue(settings.OutputDir)
	section.Key("dbPath").SetValue(settings.DBPath)
	section.Key("logDir").SetValue(settings.LogDir)
	section.Key("pdfPath").SetValue(settings.PDFPath)
	section.Key("profilesPath").SetValue(settings.ProfilesPath)
	section.Key("buildPDF").SetValue(fmt.Sprintf("%t", settings.BuildPDF))

	// Logging
	section.Key("logLevel").SetValue(settings.LogLevel)
	section.Key("debugMode").SetValue(fmt.Sprintf("%t", settings.DebugMode))
	section.Key("loggingEnabled").SetValue(fmt.Sprintf("%t", settings.LoggingEnabled))

	// Detection
	section.Key("threshold").SetValue(fmt.Sprintf("%d", settings.Threshold))
	section.Key("maxDuplicates").SetValue(fmt.Sprintf("%d", settings.MaxDuplicates))
	section.Key("maxCaptureRetries").SetValue(fmt.Sprintf("%d", settings.MaxCaptureRetries))
	section.Key("maxPages").SetValue(fmt.Sprintf("%d", settings.MaxPages))
	section.Key("probeBeforeCapture").SetValue(fmt.Sprintf("%t", settings.ProbeBeforeCapture))
	section.Key("probeLeft").SetValue(fmt.Sprintf("%g", settings.ProbeRegion.Left))
	section.Key("probeTop").SetValue(fmt.Sprintf("%g", settings.ProbeRegion.Top))
	section.Key("probeRight").SetValue(fmt.Sprintf("%g", settings.ProbeRegion.Right))
	section.Key("probeBottom").SetValue(fmt.Sprintf("%g", settings.ProbeRegion.Bottom))

	// Delays
	section.Key("focusSettleMs").SetValue(fmt.Sprintf("%d", settings.FocusSettleMs))
	section.Key("pageLoadMs").SetValue(fmt.Sprintf("%d", settings.PageLoadMs))
	section.Key("retryMs").SetValue(fmt.Sprintf("%d", settings.RetryMs))
	section.Key("postAdvanceMs").SetValue(fmt.Sprintf("%d", settings.PostAdvanceMs))
	section.Key("keySettleMs").SetValue(fmt.Sprintf("%d", settings.KeySettleMs))

	// ADB
	section.Key("adbPath").SetValue(settings.ADBPath)
	section.Key("adbSerial").SetValue(settings.ADBSerial)
	section.Key("nextKey").SetValue(settings.NextKey)

	return cfg.SaveTo(path)
}
