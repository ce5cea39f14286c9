package main

import (
	"context"
	"fmt"

	"jordanella.com/pagecapture-go/internal/adb"
	"jordanella.com/pagecapture-go/internal/config"
	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/desktop"
	"jordanella.com/pagecapture-go/internal/input"
	"jordanella.com/pagecapture-go/internal/logging"
)

// layers resolves the settings of a run. Precedence, lowest first: the ini
// file, the target's profile, explicit command line flags.
type layers struct {
	base     *config.Settings
	profiles *config.ProfileRegistry
	flags    func(*config.Settings) *config.Settings
}

func (l layers) applyFlags(s *config.Settings) *config.Settings {
	if l.flags == nil {
		return s
	}
	return l.flags(s)
}

// initial is used before the target is known, e.g. to pick the backend
func (l layers) initial() (*config.Settings, error) {
	s := l.applyFlags(l.base)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// forTarget returns the validated settings for target
func (l layers) forTarget(target cv.Target) (*config.Settings, error) {
	s := l.base
	if l.profiles != nil {
		if p, ok := l.profiles.Get(target.ID); ok {
			logging.NewLogger("cli").InfoWithContext("Applying app profile", map[string]interface{}{
				"target":  target.ID,
				"profile": p.Name,
			})
			s = p.Apply(s)
		}
	}
	s = l.applyFlags(s)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings for %s: %w", target.ID, err)
	}
	return s, nil
}

// session is a target plus the collaborators that drive it
type session struct {
	target   cv.Target
	settings *config.Settings
	source   cv.FrameSource
	advancer input.PageAdvancer
	focus    input.FocusObserver
	close    func()
}

func (s *session) Close() {
	if s.close != nil {
		s.close()
	}
}

// newSession is replaced in tests
var newSession = openSession

// openSession resolves query to a target on the configured backend, settles
// the target's settings and brings the target to the foreground
func openSession(ctx context.Context, l layers, query string) (*session, error) {
	settings, err := l.initial()
	if err != nil {
		return nil, err
	}
	method, err := cv.ParseCaptureMethod(settings.Backend)
	if err != nil {
		return nil, err
	}
	switch method {
	case cv.CaptureMethodADB:
		return openADBSession(ctx, settings, l, query)
	default:
		return openDesktopSession(ctx, l, query)
	}
}

// newAdvancer builds the two-path next-page advancer
func newAdvancer(primary, secondary input.KeySender, settings *config.Settings) *input.Fallback {
	fb := input.NewFallback(primary, secondary, logging.NewLogger("input"))
	fb.Settle = settings.KeySettle()
	return fb
}

func openDesktopSession(ctx context.Context, l layers, query string) (*session, error) {
	if query == "" {
		return nil, fmt.Errorf("an app name or bundle id is required for the desktop backend")
	}

	host := desktop.NewHost()
	apps, err := host.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	app, ok := desktop.FindApp(apps, query)
	if !ok {
		return nil, fmt.Errorf("no running app matches %q", query)
	}
	target := app.Target()

	settings, err := l.forTarget(target)
	if err != nil {
		return nil, err
	}

	if err := host.Focus(ctx, app.BundleID); err != nil {
		return nil, err
	}

	return &session{
		target:   target,
		settings: settings,
		source:   desktop.NewSource(host),
		advancer: newAdvancer(desktop.NewSystemEventsSender(host), desktop.NewEventTapSender(host), settings),
		focus:    host,
	}, nil
}

func openADBSession(ctx context.Context, initial *config.Settings, l layers, query string) (*session, error) {
	ctrl, err := adb.ConnectADB(ctx, initial.ADBPath, initial.ADBSerial)
	if err != nil {
		return nil, err
	}
	closeFn := func() { _ = ctrl.Disconnect(context.Background()) }

	pkg := query
	if pkg == "" {
		// Capture whatever is on screen
		pkg, err = ctrl.CurrentFocus(ctx)
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to detect foreground app: %w", err)
		}
	}

	target := cv.Target{ID: pkg, Name: ctrl.Device()}
	settings, err := l.forTarget(target)
	if err != nil {
		closeFn()
		return nil, err
	}

	if query != "" {
		if err := ctrl.LaunchApp(ctx, pkg); err != nil {
			closeFn()
			return nil, err
		}
	}

	return &session{
		target:   target,
		settings: settings,
		source:   adb.NewSource(ctrl),
		advancer: newAdvancer(adb.NewKeyEventSender(ctrl, settings.NextKey), adb.NewSwipeSender(ctrl), settings),
		focus:    adb.NewFocusObserver(ctrl),
		close:    closeFn,
	}, nil
}
