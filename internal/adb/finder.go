package adb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoDevice is returned when adb lists no usable device
var ErrNoDevice = errors.New("no adb device attached")

// FindADB attempts to locate the ADB executable. preferred may be the binary
// itself or a directory containing it.
func FindADB(preferred string) (string, error) {
	binary := "adb"
	if runtime.GOOS == "windows" {
		binary = "adb.exe"
	}

	if preferred != "" {
		candidates := []string{
			preferred,
			filepath.Join(preferred, binary),
			filepath.Join(preferred, "platform-tools", binary),
		}
		for _, path := range candidates {
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	for _, path := range commonPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// Fall back to PATH
	if adbPath, err := exec.LookPath(binary); err == nil {
		return adbPath, nil
	}

	return "", fmt.Errorf("adb not found, please specify adbPath in config")
}

// commonPaths lists SDK install locations for the current OS
func commonPaths() []string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Android", "Sdk", "platform-tools", "adb.exe"),
			`C:\Android\sdk\platform-tools\adb.exe`,
			`C:\Program Files\Netease\MuMuPlayer-12.0\shell\adb.exe`,
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Android", "sdk", "platform-tools", "adb"),
			"/opt/homebrew/bin/adb",
			"/usr/local/bin/adb",
		}
	default:
		return []string{
			filepath.Join(home, "Android", "Sdk", "platform-tools", "adb"),
			"/usr/bin/adb",
			"/usr/local/bin/adb",
		}
	}
}

// ListDevices returns the serials adb reports in the "device" state
func ListDevices(ctx context.Context, runner Runner, adbPath string) ([]string, error) {
	output, err := runner.Run(ctx, adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return parseDevices(string(output)), nil
}

// parseDevices reads the table printed by "adb devices"
func parseDevices(output string) []string {
	var devices []string
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 || parts[0] == "List" {
			continue
		}
		if parts[1] == "device" {
			devices = append(devices, parts[0])
		}
	}
	return devices
}

// ConnectADB finds adb, picks a device and connects. An empty device picks
// the first attached one.
func ConnectADB(ctx context.Context, adbPath, device string, opts ...Option) (*Controller, error) {
	path, err := FindADB(adbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find ADB: %w", err)
	}

	ctrl := NewController(path, device, opts...)

	if device == "" {
		devices, err := ListDevices(ctx, ctrl.runner, path)
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return nil, ErrNoDevice
		}
		ctrl.device = devices[0]
	}

	if err := ctrl.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}

	return ctrl, nil
}
