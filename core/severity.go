package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/AmirTlinov/compas/schema"
)

// ErrUnknownSeverity is matched by every *UnknownSeverityError.
var ErrUnknownSeverity = errors.New("unknown severity")

// UnknownSeverityError reports a tool-native severity with no canonical mapping.
type UnknownSeverityError struct {
	Source string
	Raw    string
}

func (e *UnknownSeverityError) Error() string {
	return fmt.Sprintf("%s: no canonical severity for %q", e.Source, e.Raw)
}

// Is makes errors.Is(err, ErrUnknownSeverity) true.
func (e *UnknownSeverityError) Is(target error) bool {
	return target == ErrUnknownSeverity
}

// SeverityTable maps lower-cased tool-native severities to canonical ones.
type SeverityTable map[string]schema.Severity

// Sources with their own severity vocabulary.
const (
	SourceSemgrep    = "semgrep"
	SourceGitleaks   = "gitleaks"
	SourceTrufflehog = "trufflehog"
	SourceESLint     = "eslint"
	SourceRuff       = "ruff"
	SourceClippy     = "clippy"
	SourceGosec      = "gosec"
	SourceCanonical  = "canonical"
)

var severityTables = map[string]SeverityTable{
	SourceSemgrep: {
		"critical": schema.SeverityCritical,
		"error":    schema.SeverityCritical,
		"high":     schema.SeverityHigh,
		"warning":  schema.SeverityMedium,
		"medium":   schema.SeverityMedium,
		"info":     schema.SeverityLow,
		"low":      schema.SeverityLow,
	},
	SourceGitleaks: {
		"critical": schema.SeverityCritical,
		"high":     schema.SeverityHigh,
		"medium":   schema.SeverityMedium,
		"warning":  schema.SeverityMedium,
		"low":      schema.SeverityLow,
		"info":     schema.SeverityLow,
	},
	SourceTrufflehog: {
		"verified":   schema.SeverityCritical,
		"critical":   schema.SeverityCritical,
		"unverified": schema.SeverityHigh,
		"high":       schema.SeverityHigh,
	},
	SourceESLint: {
		"2":       schema.SeverityHigh,
		"error":   schema.SeverityHigh,
		"1":       schema.SeverityMedium,
		"warning": schema.SeverityMedium,
	},
	SourceRuff: {
		"error":   schema.SeverityHigh,
		"warning": schema.SeverityMedium,
		"info":    schema.SeverityLow,
	},
	SourceClippy: {
		"error":   schema.SeverityCritical,
		"warning": schema.SeverityMedium,
		"note":    schema.SeverityLow,
		"help":    schema.SeverityLow,
	},
	SourceGosec: {
		"high":   schema.SeverityHigh,
		"medium": schema.SeverityMedium,
		"low":    schema.SeverityLow,
	},
	SourceCanonical: {
		"critical": schema.SeverityCritical,
		"high":     schema.SeverityHigh,
		"medium":   schema.SeverityMedium,
		"low":      schema.SeverityLow,
	},
}

// NormalizeSeverity maps a tool-native severity onto the canonical scale.
// Lookup is case-insensitive and ignores surrounding whitespace. A source without
// a table cannot map anything.
func NormalizeSeverity(source, raw string) (schema.Severity, error) {
	table, ok := severityTables[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return "", &UnknownSeverityError{Source: source, Raw: raw}
	}
	sev, ok := table[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &UnknownSeverityError{Source: source, Raw: raw}
	}
	return sev, nil
}

// SeveritySources lists every source with a severity table, sorted.
func SeveritySources() []string {
	return slices.Sorted(maps.Keys(severityTables))
}

// SeverityTableFor returns a copy of the table for source.
func SeverityTableFor(source string) (SeverityTable, bool) {
	table, ok := severityTables[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, false
	}
	return maps.Clone(table), true
}

// SeverityMappings flattens the tables of sources into rows ordered by source,
// then by canonical rank descending, then by raw value. An empty sources list
// means every source.
func SeverityMappings(sources ...string) ([]schema.SeverityMapping, error) {
	if len(sources) == 0 {
		sources = SeveritySources()
	}
	var rows []schema.SeverityMapping
	for _, source := range sources {
		key := strings.ToLower(strings.TrimSpace(source))
		table, ok := severityTables[key]
		if !ok {
			return nil, fmt.Errorf("no severity table for source %q", source)
		}
		start := len(rows)
		for raw, sev := range table {
			rows = append(rows, schema.SeverityMapping{Source: key, Raw: raw, Canonical: sev})
		}
		slices.SortFunc(rows[start:], func(a, b schema.SeverityMapping) int {
			if c := b.Canonical.Rank() - a.Canonical.Rank(); c != 0 {
				return c
			}
			return strings.Compare(a.Raw, b.Raw)
		})
	}
	return rows, nil
}

// UnknownSeverityFinding is the synthetic finding that replaces an item whose
// severity could not be mapped.
func UnknownSeverityFinding(pluginID, source, item string) schema.Finding {
	return schema.Finding{
		Code:        pluginID + ".severity.unknown",
		Severity:    schema.SeverityCritical,
		Category:    schema.CategoryAdapter,
		Message:     fmt.Sprintf("%s: failed to map severity for item: %s", source, item),
		EvidenceRef: pluginID + ".adapter",
	}
}

// NewFinding validates the parts of a canonical finding.
func NewFinding(code string, sev schema.Severity, category, message, path string, line int, evidenceRef string) (schema.Finding, error) {
	if strings.TrimSpace(code) == "" {
		return schema.Finding{}, errors.New("finding code must not be empty")
	}
	if !sev.Valid() {
		return schema.Finding{}, fmt.Errorf("finding %s: non-canonical severity %q", code, sev)
	}
	if strings.TrimSpace(message) == "" {
		return schema.Finding{}, fmt.Errorf("finding %s: message must not be empty", code)
	}
	if line < 0 {
		return schema.Finding{}, fmt.Errorf("finding %s: line must be positive (received %d)", code, line)
	}
	return schema.Finding{
		Code:        code,
		Severity:    sev,
		Category:    category,
		Message:     message,
		Path:        schema.StrPtr(path),
		Line:        schema.IntPtr(line),
		EvidenceRef: evidenceRef,
	}, nil
}

// NormalizeItems converts raw tool findings into canonical ones. Each item whose
// severity cannot be mapped is dropped and replaced by exactly one synthetic
// critical finding.
func NormalizeItems(pluginID, source string, items []schema.RawFinding) []schema.Finding {
	findings := make([]schema.Finding, 0, len(items))
	for _, item := range items {
		label := item.Item
		if label == "" {
			label = item.Code
		}

		sev, err := NormalizeSeverity(source, item.Severity)
		if err != nil {
			findings = append(findings, UnknownSeverityFinding(pluginID, source, label))
			continue
		}

		code := item.Code
		if code == "" {
			code = source + ".finding"
		}
		message := item.Message
		if strings.TrimSpace(message) == "" {
			message = fmt.Sprintf("%s reported %s", source, code)
		}
		category := item.Category
		if category == "" {
			category = schema.CategoryQuality
		}
		evidenceRef := item.EvidenceRef
		if evidenceRef == "" {
			evidenceRef = source
		}

		f, err := NewFinding(code, sev, category, message, item.Path, max(item.Line, 0), evidenceRef)
		if err != nil {
			findings = append(findings, UnknownSeverityFinding(pluginID, source, label))
			continue
		}
		findings = append(findings, f)
	}
	return findings
}
