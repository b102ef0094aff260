package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the system browser at url so the user can approve the
// Spotify authorization request. Set SPOTSNAP_NO_BROWSER to suppress the
// hand-off; the caller prints the URL instead.
func OpenBrowser(url string) error {
	if os.Getenv("SPOTSNAP_NO_BROWSER") != "" {
		return fmt.Errorf("browser hand-off disabled")
	}

	var name string
	var args []string
	switch rt := getRuntime(); rt {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := exec.Command(name, append(args, url)...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
