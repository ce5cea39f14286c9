package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/pagecapture-go/internal/cv"
)

func TestLoadFromINIMissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadFromINI(filepath.Join(t.TempDir(), "Settings.ini"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultSettings(), settings)

	cfg := settings.PagerConfig()
	assert.Equal(t, 3, cfg.Threshold)
	assert.Equal(t, 10, cfg.MaxDuplicates)
	assert.Equal(t, time.Second, cfg.FocusSettleDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.PageLoadDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, time.Second, cfg.PostAdvanceDelay)
}

func TestLoadFromINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	content := `[Capture]
backend = ADB
outputDir = out/pages
threshold = 5
maxDuplicates = 4
maxPages = 200
probeBeforeCapture = true
probeTop = 0.5
pageLoadMs = 800
adbSerial = 127.0.0.1:16384
debugMode = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	settings, err := LoadFromINI(path)
	require.NoError(t, err)

	assert.Equal(t, "adb", settings.Backend)
	assert.Equal(t, "out/pages", settings.OutputDir)
	assert.Equal(t, 5, settings.Threshold)
	assert.Equal(t, 4, settings.MaxDuplicates)
	assert.Equal(t, 200, settings.MaxPages)
	assert.True(t, settings.ProbeBeforeCapture)
	assert.True(t, settings.DebugMode)
	assert.Equal(t, cv.NewRegion(0.2, 0.5, 0.8, 0.98), settings.ProbeRegion)
	assert.Equal(t, "127.0.0.1:16384", settings.ADBSerial)

	cfg := settings.PagerConfig()
	assert.Equal(t, 800*time.Millisecond, cfg.PageLoadDelay)
	assert.True(t, cfg.ProbeBeforeCapture)
}

func TestLoadFromINIRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "[Capture]\nbackend = vnc\n"},
		{"negative threshold", "[Capture]\nthreshold = -1\n"},
		{"threshold too large", "[Capture]\nthreshold = 65\n"},
		{"zero duplicates", "[Capture]\nmaxDuplicates = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Settings.ini")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFromINI(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveToINIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	settings := NewDefaultSettings()
	settings.Backend = "adb"
	settings.MaxCaptureRetries = 7
	settings.ProbeRegion = cv.NewRegion(0.1, 0.6, 0.9, 0.95)
	require.NoError(t, SaveToINI(settings, path))

	loaded, err := LoadFromINI(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `profiles:
  - id: com.apple.iBooksX
    name: Books
    threshold: 2
    page_load_ms: 1200
    probe_region:
      left: 0.1
      top: 0.8
      right: 0.9
      bottom: 0.95
  - id: com.example.reader
    max_duplicates: 5
    next_key: KEYCODE_PAGE_DOWN
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.apple.iBooksX", "com.example.reader"}, reg.IDs())

	books, ok := reg.Get("com.apple.iBooksX")
	require.True(t, ok)

	base := NewDefaultSettings()
	applied := books.Apply(base)
	assert.Equal(t, 2, applied.Threshold)
	assert.Equal(t, 1200, applied.PageLoadMs)
	assert.Equal(t, cv.NewRegion(0.1, 0.8, 0.9, 0.95), applied.ProbeRegion)
	assert.Equal(t, 10, applied.MaxDuplicates)
	assert.Equal(t, 3, base.Threshold, "Apply must not modify its input")

	reader, ok := reg.Get("com.example.reader")
	require.True(t, ok)
	applied = reader.Apply(base)
	assert.Equal(t, 5, applied.MaxDuplicates)
	assert.Equal(t, "KEYCODE_PAGE_DOWN", applied.NextKey)
}

func TestLoadProfilesMissingFile(t *testing.T) {
	reg, err := LoadProfiles(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg.IDs())

	_, ok := reg.Get("anything")
	assert.False(t, ok)
}

func TestLoadProfilesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "profiles:\n  - name: Books\n"},
		{"inverted region", "profiles:\n  - id: a\n    probe_region: {left: 0.9, top: 0.1, right: 0.1, bottom: 0.5}\n"},
		{"bad yaml", "profiles: [\n"},
		{"threshold above range", "profiles:\n  - id: a\n    threshold: 100\n"},
		{"negative threshold", "profiles:\n  - id: a\n    threshold: -1\n"},
		{"zero max duplicates", "profiles:\n  - id: a\n    max_duplicates: 0\n"},
		{"negative delay", "profiles:\n  - id: a\n    key_settle_ms: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profiles.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadProfiles(path)
			assert.Error(t, err)
		})
	}
}

func TestProfileRegistrySave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	threshold := 4

	reg := NewProfileRegistry()
	reg.Set(Profile{ID: "b.app", Threshold: &threshold})
	reg.Set(Profile{ID: "a.app", NextKey: "KEYCODE_SPACE"})
	require.NoError(t, reg.SaveToFile(path))

	loaded, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.app", "b.app"}, loaded.IDs())

	b, _ := loaded.Get("b.app")
	require.NotNil(t, b.Threshold)
	assert.Equal(t, 4, *b.Threshold)
}

func TestLoadProfilesKeepsRegistryOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("profiles:\n  - id: a\n    threshold: 2\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("profiles:\n  - id: b\n  - id: a\n    threshold: 65\n"), 0644))

	reg, err := LoadProfiles(good)
	require.NoError(t, err)
	require.Error(t, reg.LoadFromFile(bad))

	assert.Equal(t, []string{"a"}, reg.IDs())
	a, _ := reg.Get("a")
	assert.Equal(t, 2, *a.Threshold)
}

func TestValidateRejectsNegativeDelays(t *testing.T) {
	s := NewDefaultSettings()
	s.KeySettleMs = -1
	assert.Error(t, s.Validate())
}

func TestKeySettleSetting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Capture]\nkeySettleMs = 120\n"), 0644))

	s, err := LoadFromINI(path)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, s.KeySettle())
	assert.Equal(t, 50, NewDefaultSettings().KeySettleMs)

	settle := 0
	applied := Profile{ID: "a", KeySettleMs: &settle}.Apply(s)
	assert.Equal(t, time.Duration(0), applied.KeySettle())
}
