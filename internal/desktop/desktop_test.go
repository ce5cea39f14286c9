package desktop

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/input"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	handle func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.handle == nil {
		return nil, nil
	}
	return f.handle(name, args)
}

func TestFilterApps(t *testing.T) {
	raw := []App{
		{Name: "Books", BundleID: "com.apple.iBooksX", Path: "/Applications/Books.app", PID: 10},
		{Name: "Books Helper", BundleID: "com.apple.iBooksX", Path: "/Applications/Books.app", PID: 11},
		{Name: "Finder", BundleID: "com.apple.finder", Path: "/System/Library/CoreServices/Finder.app", PID: 12},
		{Name: "Nested", BundleID: "com.example.nested", Path: "/Applications/Utilities/Nested.app", PID: 13},
		{Name: "NoBundle", BundleID: "", Path: "/Applications/NoBundle.app", PID: 14},
		{Name: "\u1100\u1161\u11a8", BundleID: "com.example.korean", Path: "/Applications/Korean.app", PID: 15},
		{Name: "", BundleID: "com.example.blank", Path: "/Applications/Blank.app", PID: 16},
		{Name: "Tool", BundleID: "com.example.tool", Path: "/Applications/tool", PID: 17},
	}

	apps := FilterApps(raw)
	require.Len(t, apps, 3)

	assert.Equal(t, "com.apple.iBooksX", apps[0].BundleID)
	assert.Equal(t, 10, apps[0].PID, "first instance wins")
	assert.Equal(t, "\uac01", apps[1].Name, "decomposed hangul is recomposed")
	assert.Equal(t, "Unknown", apps[2].Name)
}

func TestFindApp(t *testing.T) {
	apps := []App{
		{Name: "Books", BundleID: "com.apple.iBooksX"},
		{Name: "Kindle", BundleID: "com.amazon.Lassen"},
	}

	app, ok := FindApp(apps, "com.amazon.Lassen")
	require.True(t, ok)
	assert.Equal(t, "Kindle", app.Name)

	app, ok = FindApp(apps, "books")
	require.True(t, ok)
	assert.Equal(t, "com.apple.iBooksX", app.BundleID)

	_, ok = FindApp(apps, "Preview")
	assert.False(t, ok)

	assert.Equal(t, cv.Target{ID: "com.apple.iBooksX", Name: "Books"}, apps[0].Target())
}

func TestListApps(t *testing.T) {
	runner := &fakeRunner{handle: func(name string, args []string) ([]byte, error) {
		return []byte(`[{"name":"Books","bundleId":"com.apple.iBooksX","path":"/Applications/Books.app","pid":42},
			{"name":"Dock","bundleId":"com.apple.dock","path":"/System/Library/CoreServices/Dock.app","pid":7}]`), nil
	}}
	host := NewHostWithRunner(runner)

	apps, err := host.ListApps(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, 42, apps[0].PID)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "osascript", runner.calls[0].name)
	assert.Equal(t, []string{"-l", "JavaScript", "-e"}, runner.calls[0].args[:3])
}

func TestFocusFallsBackToActivate(t *testing.T) {
	runner := &fakeRunner{handle: func(name string, args []string) ([]byte, error) {
		if name == "open" {
			return nil, errors.New("exit status 1")
		}
		return nil, nil
	}}
	host := NewHostWithRunner(runner)

	require.NoError(t, host.Focus(context.Background(), "com.apple.iBooksX"))
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"-b", "com.apple.iBooksX"}, runner.calls[0].args)
	assert.Equal(t, `tell application id "com.apple.iBooksX" to activate`, runner.calls[1].args[1])
}

func TestFocusFailsWhenBothPathsFail(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}

	err := NewHostWithRunner(runner).Focus(context.Background(), "com.example.gone")
	assert.Error(t, err)
}

func TestCurrentForeground(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string) ([]byte, error) {
		return []byte("com.apple.iBooksX\n"), nil
	}}
	var observer input.FocusObserver = NewHostWithRunner(runner)

	id, ok := observer.CurrentForeground(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "com.apple.iBooksX", id)

	runner.handle = func(string, []string) ([]byte, error) { return nil, errors.New("denied") }
	_, ok = observer.CurrentForeground(context.Background())
	assert.False(t, ok)
}

func TestKeySendersFallback(t *testing.T) {
	runner := &fakeRunner{handle: func(name string, args []string) ([]byte, error) {
		if strings.Contains(strings.Join(args, " "), "System Events") {
			return nil, errors.New("not authorised to send keystrokes")
		}
		return []byte("ok"), nil
	}}
	host := NewHostWithRunner(runner)

	fb := input.NewFallback(NewSystemEventsSender(host), NewEventTapSender(host), nil)
	fb.Settle = 0
	assert.True(t, fb.SendNext(context.Background()))

	require.Len(t, runner.calls, 2)
	assert.Equal(t, `tell application "System Events" to key code 124`, runner.calls[0].args[1])
	assert.Equal(t, "124", runner.calls[1].args[len(runner.calls[1].args)-1])
}

func TestParseWindowInfo(t *testing.T) {
	info, err := parseWindowInfo([]byte(`{"found":true,"pid":42,"id":7,"x":100,"y":50.5,"width":800,"height":600}`))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(100, 50, 900, 650), info.Bounds())

	_, err = parseWindowInfo([]byte(`{"found":false,"pid":42}`))
	assert.ErrorIs(t, err, cv.ErrNoVisibleWindow)

	_, err = parseWindowInfo([]byte(`{"found":true,"x":0,"y":0,"width":0,"height":0}`))
	assert.ErrorIs(t, err, cv.ErrNoVisibleWindow)

	_, err = parseWindowInfo([]byte("execution error"))
	assert.Error(t, err)
}

func TestFindWindowPassesPIDAndBundle(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string) ([]byte, error) {
		return []byte(`{"found":true,"pid":42,"x":0,"y":0,"width":10,"height":10}`), nil
	}}

	rect, err := NewHostWithRunner(runner).WindowBounds(context.Background(), cv.Target{ID: "com.apple.iBooksX", PID: 42})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), rect)

	args := runner.calls[0].args
	assert.Equal(t, []string{"42", "com.apple.iBooksX"}, args[len(args)-2:])
}

func TestSourceCapturesWindowAndProbe(t *testing.T) {
	var grabbed []image.Rectangle
	window := image.Rect(100, 100, 1100, 600)

	src := NewSourceWith(
		func(context.Context, cv.Target) (image.Rectangle, error) { return window, nil },
		func(rect image.Rectangle) (*image.RGBA, error) {
			grabbed = append(grabbed, rect)
			return image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), nil
		},
		func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) },
	)

	frame, err := src.CaptureWindow(context.Background(), cv.Target{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1000, frame.Bounds().Dx())

	probe, err := src.CaptureProbe(context.Background(), cv.Target{ID: "x"}, cv.DefaultProbeRegion)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 115), probe.Bounds())

	assert.Equal(t, []image.Rectangle{window, image.Rect(300, 475, 900, 590)}, grabbed)
}

func TestSourceClipsToDisplays(t *testing.T) {
	var grabbed image.Rectangle
	src := NewSourceWith(
		func(context.Context, cv.Target) (image.Rectangle, error) { return image.Rect(-200, 0, 300, 400), nil },
		func(rect image.Rectangle) (*image.RGBA, error) {
			grabbed = rect
			return image.NewRGBA(rect), nil
		},
		func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) },
	)

	frame, err := src.CaptureWindow(context.Background(), cv.Target{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 400), grabbed)
	assert.Equal(t, image.Point{}, frame.Bounds().Min)
}

func TestSourceOffscreenWindow(t *testing.T) {
	src := NewSourceWith(
		func(context.Context, cv.Target) (image.Rectangle, error) { return image.Rect(3000, 0, 3500, 400), nil },
		func(image.Rectangle) (*image.RGBA, error) { t.Fatal("grab must not be called"); return nil, nil },
		func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) },
	)

	_, err := src.CaptureWindow(context.Background(), cv.Target{ID: "x"})
	assert.ErrorIs(t, err, cv.ErrNoVisibleWindow)
}
