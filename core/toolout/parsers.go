package toolout

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/AmirTlinov/compas/schema"
)

// ParseSemgrep parses `semgrep --json` output.
func ParseSemgrep(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, errors.New("semgrep produced no output")
	}
	var payload struct {
		Results []struct {
			CheckID string `json:"check_id"`
			Path    string `json:"path"`
			Start   struct {
				Line flexInt `json:"line"`
			} `json:"start"`
			Extra struct {
				Severity string `json:"severity"`
				Message  string `json:"message"`
			} `json:"extra"`
		} `json:"results"`
	}
	if err := unmarshalStrict(stdout, &payload); err != nil {
		return nil, err
	}

	out := make([]schema.RawFinding, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, schema.RawFinding{
			Code:        firstNonEmpty(r.CheckID, "semgrep.match"),
			Severity:    firstNonEmpty(r.Extra.Severity, "medium"),
			Category:    schema.CategorySecurity,
			Message:     firstNonEmpty(r.Extra.Message, "semgrep finding"),
			Path:        r.Path,
			Line:        int(r.Start.Line),
			EvidenceRef: "semgrep",
			Item:        firstNonEmpty(r.CheckID, "unknown"),
		})
	}
	return out, nil
}

type gitleaksItem struct {
	RuleID      string  `json:"RuleID"`
	Description string  `json:"Description"`
	Match       string  `json:"Match"`
	File        string  `json:"File"`
	StartLine   flexInt `json:"StartLine"`
	Severity    string  `json:"Severity"`
}

// ParseGitleaks parses gitleaks JSON reports, either one array or JSON lines.
// Gitleaks does not grade its findings; ungraded leaks are treated as medium.
func ParseGitleaks(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, nil
	}
	var items []gitleaksItem
	trimmed := bytes.TrimSpace(stdout)
	if trimmed[0] == '[' {
		if err := unmarshalStrict(trimmed, &items); err != nil {
			return nil, err
		}
	} else {
		err := forEachJSONLine(trimmed, func(line []byte) error {
			var item gitleaksItem
			if err := unmarshalStrict(line, &item); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]schema.RawFinding, 0, len(items))
	for _, it := range items {
		out = append(out, schema.RawFinding{
			Code:        firstNonEmpty(it.RuleID, "gitleaks.match"),
			Severity:    firstNonEmpty(it.Severity, "medium"),
			Category:    schema.CategorySecrets,
			Message:     firstNonEmpty(it.Description, it.RuleID, "gitleaks finding"),
			Path:        it.File,
			Line:        int(it.StartLine),
			EvidenceRef: "gitleaks",
			Item:        firstNonEmpty(it.Description, it.RuleID, "unknown"),
		})
	}
	return out, nil
}

type trufflehogLocation struct {
	File string  `json:"file"`
	Line flexInt `json:"line"`
}

// ParseTrufflehog parses `trufflehog --json` output (one JSON object per line).
func ParseTrufflehog(stdout []byte) ([]schema.RawFinding, error) {
	var out []schema.RawFinding
	err := forEachJSONLine(stdout, func(line []byte) error {
		var item struct {
			DetectorName   string `json:"DetectorName"`
			Verified       bool   `json:"Verified"`
			SourceMetadata struct {
				Data struct {
					Filesystem *trufflehogLocation `json:"Filesystem"`
					Git        *trufflehogLocation `json:"Git"`
				} `json:"Data"`
			} `json:"SourceMetadata"`
		}
		if err := unmarshalStrict(line, &item); err != nil {
			return err
		}
		// trufflehog also logs progress lines as JSON; only detector hits matter.
		if item.DetectorName == "" {
			return nil
		}

		loc := item.SourceMetadata.Data.Filesystem
		if loc == nil {
			loc = item.SourceMetadata.Data.Git
		}
		if loc == nil {
			loc = &trufflehogLocation{}
		}

		sev := "unverified"
		if item.Verified {
			sev = "verified"
		}
		out = append(out, schema.RawFinding{
			Code:        "trufflehog." + item.DetectorName,
			Severity:    sev,
			Category:    schema.CategorySecrets,
			Message:     fmt.Sprintf("%s secret detected (%s)", item.DetectorName, sev),
			Path:        loc.File,
			Line:        int(loc.Line),
			EvidenceRef: "trufflehog",
			Item:        item.DetectorName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseESLint parses `eslint --format json` output.
func ParseESLint(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, errors.New("eslint produced no output")
	}
	var files []struct {
		FilePath string `json:"filePath"`
		Messages []struct {
			RuleID   *string `json:"ruleId"`
			Severity int     `json:"severity"`
			Message  string  `json:"message"`
			Line     flexInt `json:"line"`
		} `json:"messages"`
	}
	if err := unmarshalStrict(stdout, &files); err != nil {
		return nil, err
	}

	var out []schema.RawFinding
	for _, f := range files {
		for _, m := range f.Messages {
			code := "eslint.parse"
			if m.RuleID != nil && *m.RuleID != "" {
				code = *m.RuleID
			}
			out = append(out, schema.RawFinding{
				Code:        code,
				Severity:    strconv.Itoa(m.Severity),
				Category:    schema.CategoryQuality,
				Message:     firstNonEmpty(m.Message, "eslint finding"),
				Path:        f.FilePath,
				Line:        int(m.Line),
				EvidenceRef: "eslint",
				Item:        fmt.Sprintf("%s:%d %s", f.FilePath, m.Line, code),
			})
		}
	}
	return out, nil
}

// ParseRuff parses `ruff check --output-format json` output. Ruff does not grade
// violations, so every one is reported as an error.
func ParseRuff(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, nil
	}
	var items []struct {
		Code     *string `json:"code"`
		Message  string  `json:"message"`
		Filename string  `json:"filename"`
		Location struct {
			Row flexInt `json:"row"`
		} `json:"location"`
	}
	if err := unmarshalStrict(stdout, &items); err != nil {
		return nil, err
	}

	out := make([]schema.RawFinding, 0, len(items))
	for _, it := range items {
		code := "ruff.syntax"
		if it.Code != nil && *it.Code != "" {
			code = *it.Code
		}
		out = append(out, schema.RawFinding{
			Code:        code,
			Severity:    "error",
			Category:    schema.CategoryQuality,
			Message:     firstNonEmpty(it.Message, "ruff finding"),
			Path:        it.Filename,
			Line:        int(it.Location.Row),
			EvidenceRef: "ruff",
			Item:        code,
		})
	}
	return out, nil
}

// ParseClippy parses `cargo clippy --message-format=json` output.
func ParseClippy(stdout []byte) ([]schema.RawFinding, error) {
	var out []schema.RawFinding
	err := forEachJSONLine(stdout, func(line []byte) error {
		var msg struct {
			Reason  string `json:"reason"`
			Message struct {
				Level string `json:"level"`
				Text  string `json:"message"`
				Code  *struct {
					Code string `json:"code"`
				} `json:"code"`
				Spans []struct {
					FileName  string  `json:"file_name"`
					LineStart flexInt `json:"line_start"`
					IsPrimary bool    `json:"is_primary"`
				} `json:"spans"`
			} `json:"message"`
		}
		if err := unmarshalStrict(line, &msg); err != nil {
			return err
		}
		if msg.Reason != "compiler-message" {
			return nil
		}

		code := "clippy.diagnostic"
		if msg.Message.Code != nil && msg.Message.Code.Code != "" {
			code = msg.Message.Code.Code
		}
		var path string
		var lineNo int
		for _, span := range msg.Message.Spans {
			if span.IsPrimary {
				path, lineNo = span.FileName, int(span.LineStart)
				break
			}
		}
		out = append(out, schema.RawFinding{
			Code:        code,
			Severity:    msg.Message.Level,
			Category:    schema.CategoryQuality,
			Message:     firstNonEmpty(msg.Message.Text, "clippy diagnostic"),
			Path:        path,
			Line:        lineNo,
			EvidenceRef: "clippy",
			Item:        code,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseGosec parses `gosec -fmt=json` output.
func ParseGosec(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, errors.New("gosec produced no output")
	}
	var payload struct {
		Issues []struct {
			Severity string  `json:"severity"`
			RuleID   string  `json:"rule_id"`
			Details  string  `json:"details"`
			File     string  `json:"file"`
			Line     flexInt `json:"line"`
		} `json:"Issues"`
	}
	if err := unmarshalStrict(stdout, &payload); err != nil {
		return nil, err
	}

	out := make([]schema.RawFinding, 0, len(payload.Issues))
	for _, is := range payload.Issues {
		out = append(out, schema.RawFinding{
			Code:        firstNonEmpty(is.RuleID, "gosec.issue"),
			Severity:    is.Severity,
			Category:    schema.CategorySecurity,
			Message:     firstNonEmpty(is.Details, "gosec issue"),
			Path:        is.File,
			Line:        int(is.Line),
			EvidenceRef: "gosec",
			Item:        firstNonEmpty(is.RuleID, "unknown"),
		})
	}
	return out, nil
}

type canonicalItem struct {
	Code        string  `json:"code"`
	Severity    string  `json:"severity"`
	Category    string  `json:"category"`
	Message     string  `json:"message"`
	Path        string  `json:"path"`
	Line        flexInt `json:"line"`
	EvidenceRef string  `json:"evidence_ref"`
}

// ParseFindings parses first-party checks that already speak the canonical
// finding shape: either {"findings": [...]} or a bare array.
func ParseFindings(stdout []byte) ([]schema.RawFinding, error) {
	if isBlank(stdout) {
		return nil, errors.New("check produced no output")
	}
	trimmed := bytes.TrimSpace(stdout)
	var items []canonicalItem
	if trimmed[0] == '[' {
		if err := unmarshalStrict(trimmed, &items); err != nil {
			return nil, err
		}
	} else {
		var payload struct {
			Findings *[]canonicalItem `json:"findings"`
		}
		if err := unmarshalStrict(trimmed, &payload); err != nil {
			return nil, err
		}
		if payload.Findings == nil {
			return nil, errors.New(`output has no "findings" array`)
		}
		items = *payload.Findings
	}

	out := make([]schema.RawFinding, 0, len(items))
	for _, it := range items {
		out = append(out, schema.RawFinding{
			Code:        it.Code,
			Severity:    it.Severity,
			Category:    it.Category,
			Message:     it.Message,
			Path:        it.Path,
			Line:        int(it.Line),
			EvidenceRef: it.EvidenceRef,
			Item:        firstNonEmpty(it.Code, "unknown"),
		})
	}
	return out, nil
}
