package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AmirTlinov/compas/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	MediumColor   = color.New(color.FgYellow)              // MediumColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // LowColor represents informational / low-priority signal.
	PassColor     = color.New(color.FgGreen, color.Bold)
)

// GetPlainLabel returns the display label for a severity.
func GetPlainLabel(sev schema.Severity) string {
	switch sev {
	case schema.SeverityCritical:
		return "Critical"
	case schema.SeverityHigh:
		return "High"
	case schema.SeverityMedium:
		return "Medium"
	case schema.SeverityLow:
		return "Low"
	default:
		return string(sev)
	}
}

// GetColorLabel returns a colored severity label for console output (table).
func GetColorLabel(sev schema.Severity) string {
	text := GetPlainLabel(sev)

	switch sev {
	case schema.SeverityCritical:
		return CriticalColor.Sprint(text)
	case schema.SeverityHigh:
		return HighColor.Sprint(text)
	case schema.SeverityMedium:
		return MediumColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// GetStatusLabel returns a colored status label for console output.
func GetStatusLabel(status string) string {
	upper := strings.ToUpper(status)
	switch schema.Status(status) {
	case schema.StatusPass:
		return PassColor.Sprint(upper)
	case schema.StatusFail:
		return HighColor.Sprint(upper)
	case schema.StatusError:
		return CriticalColor.Sprint(upper)
	}
	switch schema.MetricStatus(status) {
	case schema.MetricPass:
		return PassColor.Sprint(upper)
	case schema.MetricFail:
		return HighColor.Sprint(upper)
	default:
		return MediumColor.Sprint(upper)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(schema.ExitError)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".compas_history.db"
	}
	return filepath.Join(homeDir, ".compas_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// Excerpt trims text and caps it at limit runes.
func Excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
