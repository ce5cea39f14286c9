package desktop

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"jordanella.com/pagecapture-go/internal/cv"
)

// ApplicationsDir is the only folder whose top-level bundles are listed
const ApplicationsDir = "/Applications"

// App is a running application
type App struct {
	Name     string `json:"name"`
	BundleID string `json:"bundleId"`
	Path     string `json:"path"`
	PID      int    `json:"pid"`
}

// Target returns the capture target for the app
func (a App) Target() cv.Target {
	return cv.Target{ID: a.BundleID, Name: a.Name, PID: a.PID}
}

const runningAppsScript = `
ObjC.import('AppKit');
function run() {
	var ws = $.NSWorkspace.sharedWorkspace;
	var apps = ws.runningApplications;
	var out = [];
	for (var i = 0; i < apps.count; i++) {
		var app = apps.objectAtIndex(i);
		var id = ObjC.unwrap(app.bundleIdentifier);
		if (!id) continue;
		var url = ws.URLForApplicationWithBundleIdentifier(id);
		out.push({
			name: ObjC.unwrap(app.localizedName) || '',
			bundleId: id,
			path: url.isNil() ? '' : ObjC.unwrap(url.path),
			pid: app.processIdentifier
		});
	}
	return JSON.stringify(out);
}`

// ListApps returns the user-facing running apps
func (h *Host) ListApps(ctx context.Context) ([]App, error) {
	out, err := h.jxa(ctx, runningAppsScript)
	if err != nil {
		return nil, fmt.Errorf("failed to list running apps: %w", err)
	}

	var raw []App
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse running apps: %w", err)
	}
	return FilterApps(raw), nil
}

// FilterApps keeps bundles installed directly in /Applications, drops
// repeated bundle ids and NFC-normalises names, which arrive decomposed when
// they come from the file system.
func FilterApps(raw []App) []App {
	seen := make(map[string]bool)
	apps := []App{}

	for _, app := range raw {
		if app.BundleID == "" || seen[app.BundleID] {
			continue
		}
		if !strings.HasSuffix(app.Path, ".app") || filepath.Dir(app.Path) != ApplicationsDir {
			continue
		}
		seen[app.BundleID] = true

		app.Name = norm.NFC.String(app.Name)
		if app.Name == "" {
			app.Name = "Unknown"
		}
		apps = append(apps, app)
	}

	return apps
}

// FindApp returns the app whose bundle id or name matches query
func FindApp(apps []App, query string) (App, bool) {
	nq := norm.NFC.String(query)
	for _, app := range apps {
		if app.BundleID == query {
			return app, true
		}
	}
	for _, app := range apps {
		if strings.EqualFold(app.Name, nq) {
			return app, true
		}
	}
	return App{}, false
}
