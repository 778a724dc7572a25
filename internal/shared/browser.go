package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is replaced in tests.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenURL hands an http(s) URL to the system's default handler, e.g. to stream a track's audio file.
//
// Supports macOS, Linux, and Windows platforms.
func OpenURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not an http(s) URL: %q", ErrInvalidArgument, raw)
	}

	var name string
	var args []string
	switch rt := getRuntime(); rt {
	case "darwin":
		name, args = "open", []string{raw}
	case "linux":
		name, args = "xdg-open", []string{raw}
	case "windows":
		name, args = "cmd", []string{"/c", "start", raw}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", raw, err)
	}
	return nil
}
