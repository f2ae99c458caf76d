package schema

import (
	"slices"
	"strings"
)

var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns 1 (low) through 4 (critical), or 0 for a non-canonical value.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// Valid reports whether s is a canonical severity.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity accepts only canonical names, ignoring case and surrounding space.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

var statusRanks = map[Status]int{
	StatusPass:  0,
	StatusFail:  1,
	StatusError: 2,
}

// Worse returns the status with higher precedence (error > fail > pass).
func (s Status) Worse(other Status) Status {
	if statusRanks[other] > statusRanks[s] {
		return other
	}
	return s
}

// ExitCode maps the status onto the gate's process exit code.
// Unknown statuses fail closed.
func (s Status) ExitCode() int {
	switch s {
	case StatusPass:
		return ExitPass
	case StatusFail:
		return ExitFail
	default:
		return ExitError
	}
}

// StatesOf summarizes scanner results for an AdapterResult.
func StatesOf(results []ScannerResult) []ScannerState {
	states := make([]ScannerState, len(results))
	for i, r := range results {
		states[i] = ScannerState{
			Name:       r.Scanner,
			Command:    slices.Clone(r.Command),
			ExitCode:   r.ExitCode,
			DurationMs: r.DurationMs,
			Version:    r.Version,
			OK:         r.OK,
			Status:     r.Status,
		}
	}
	return states
}
