package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Opener opens a link outside the terminal, usually in a browser
type Opener func(url string) error

// CommandOpener returns an Opener that runs command with the URL appended.
// An empty command picks the platform's URL handler.
func CommandOpener(command string) Opener {
	args := strings.Fields(command)
	if len(args) == 0 {
		args = systemOpener()
	}

	return func(url string) error {
		cmdArgs := append(append([]string{}, args[1:]...), url)
		cmd := exec.Command(args[0], cmdArgs...)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to open %s: %w", url, err)
		}
		// Reap the child in the background; the reader keeps browsing.
		go func() { _ = cmd.Wait() }()
		return nil
	}
}

func systemOpener() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}
