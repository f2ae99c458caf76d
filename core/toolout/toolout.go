// Package toolout turns the native output of supported tools into raw findings.
package toolout

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/AmirTlinov/compas/schema"
)

// ParseFunc parses one tool's stdout.
type ParseFunc func(stdout []byte) ([]schema.RawFinding, error)

var parsers = map[schema.ParserName]ParseFunc{
	schema.SemgrepParser:    ParseSemgrep,
	schema.GitleaksParser:   ParseGitleaks,
	schema.TrufflehogParser: ParseTrufflehog,
	schema.ESLintParser:     ParseESLint,
	schema.RuffParser:       ParseRuff,
	schema.ClippyParser:     ParseClippy,
	schema.GosecParser:      ParseGosec,
	schema.FindingsParser:   ParseFindings,
}

// severitySources maps a parser to the severity table its output uses.
var severitySources = map[schema.ParserName]string{
	schema.SemgrepParser:    "semgrep",
	schema.GitleaksParser:   "gitleaks",
	schema.TrufflehogParser: "trufflehog",
	schema.ESLintParser:     "eslint",
	schema.RuffParser:       "ruff",
	schema.ClippyParser:     "clippy",
	schema.GosecParser:      "gosec",
	schema.FindingsParser:   "canonical",
}

// Parse dispatches to the parser registered under name.
func Parse(name schema.ParserName, stdout []byte) ([]schema.RawFinding, error) {
	fn, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported parser %q", name)
	}
	return fn(stdout)
}

// SeveritySource returns the severity table name for a parser.
func SeveritySource(name schema.ParserName) string {
	if src, ok := severitySources[name]; ok {
		return src
	}
	return string(name)
}

// flexInt decodes numbers and numeric strings; anything else is zero.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*n = flexInt(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		*n = flexInt(int(f))
		return nil
	}
	*n = 0
	return nil
}

func isBlank(stdout []byte) bool {
	return len(bytes.TrimSpace(stdout)) == 0
}

// forEachJSONLine calls fn with every non-blank line of stdout.
func forEachJSONLine(stdout []byte, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func unmarshalStrict(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON output: %w", err)
	}
	return nil
}
