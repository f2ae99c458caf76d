package outwriter

import (
	"os"

	"github.com/AmirTlinov/compas/internal/contract"
	"golang.org/x/term"
)

// GetMaxTablePathWidth calculates the maximum width for file paths in the
// findings table based on terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Severity + Code + Category + Line + Message with borders/padding
	baseWidth := 12 + 28 + 16 + 8 + 40 + 20

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

// GetMaxMessageWidth is the width findings messages are cut to in tables.
func GetMaxMessageWidth(cfg *contract.Config) int {
	if cfg.Width > 0 && cfg.Width < 100 {
		return 40
	}
	return 80
}
