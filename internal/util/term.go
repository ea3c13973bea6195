package util

import (
	"os"

	"github.com/fatih/color"
)

// IsTTY returns true if stdout is a terminal.
func IsTTY() bool {
	return isCharDevice(os.Stdout)
}

// IsInputTTY returns true if stdin is a terminal, i.e. the user can answer
// prompts.
func IsInputTTY() bool {
	return isCharDevice(os.Stdin)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// InitColor configures color output based on flags and terminal detection.
func InitColor(noColor bool) {
	if noColor || !IsTTY() || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}
