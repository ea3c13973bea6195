package app

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openURL hands u to the platform's default handler.
func openURL(u string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", u)
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", u)
	default:
		c = exec.Command("xdg-open", u)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", u, err)
	}
	return nil
}
