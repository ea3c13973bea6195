package tui

import "github.com/charmbracelet/lipgloss"

// Color palette matching the fatih/color output of the plain commands.
var (
	// ColorGreen for success indicators
	ColorGreen = lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#00D700"}

	// ColorCyan for categories and metadata
	ColorCyan = lipgloss.AdaptiveColor{Light: "#00AFAF", Dark: "#00D7D7"}

	// ColorTeal for borders and dividers
	ColorTeal = lipgloss.AdaptiveColor{Light: "#008787", Dark: "#5FAFAF"}

	// ColorWhite for primary text
	ColorWhite = lipgloss.AdaptiveColor{Light: "#262626", Dark: "#FFFFFF"}

	// ColorGray for secondary text and help
	ColorGray = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#808080"}

	// ColorYellow for highlights and busy state
	ColorYellow = lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD700"}

	// ColorOrange for the cursor
	ColorOrange = lipgloss.AdaptiveColor{Light: "#D75F00", Dark: "#FF8700"}

	// ColorRed for errors
	ColorRed = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
)

// Reusable styles
var (
	// StyleNormal is the base style for regular text
	StyleNormal = lipgloss.NewStyle().Foreground(ColorWhite)

	// StyleHighlight is for selected items
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	// StyleSuccess is for completed actions
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleCategory is for category headings
	StyleCategory = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	// StyleHelp is for help text and hints
	StyleHelp = lipgloss.NewStyle().Foreground(ColorGray)

	// StyleError is for the status line when the last operation failed
	StyleError = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleHeader is for section headers
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	// StyleBorder is for borders and separators
	StyleBorder = lipgloss.NewStyle().
			Foreground(ColorGray).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorTeal)
)
