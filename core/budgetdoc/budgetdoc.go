// Package budgetdoc loads baseline and current metric documents with strict validation.
// Documents may be JSON, YAML or TOML; the schema is the same for all three.
package budgetdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/AmirTlinov/compas/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a budget document.
type Format string

// Supported document formats.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
	TOMLFormat Format = "toml"
)

// ErrSchema is matched by every *SchemaError.
var ErrSchema = errors.New("budget document schema violation")

// SchemaError describes why a document was rejected.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrSchema) true.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func schemaErrorf(format string, args ...any) error {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

var metricNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

var (
	topLevelKeys = []string{"metrics", "version"}
	baselineKeys = []string{"higher_is_worse", "max_delta_abs", "max_delta_pct", "severity", "value"}
	currentKeys  = []string{"value"}
)

// FormatFromPath picks a format by file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat
	case ".toml":
		return TOMLFormat
	default:
		return JSONFormat
	}
}

// LoadBaseline reads and validates a baseline document.
func LoadBaseline(path string) (map[string]schema.MetricBudget, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBaseline(data, FormatFromPath(path), path)
}

// LoadCurrent reads and validates a current measurement document.
func LoadCurrent(path string) (map[string]schema.MetricSample, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCurrent(data, FormatFromPath(path), path)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, schemaErrorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, schemaErrorf("cannot read %s: %v", path, err)
	}
	return data, nil
}

// ParseBaseline validates a baseline document. label names the document in errors.
func ParseBaseline(data []byte, format Format, label string) (map[string]schema.MetricBudget, error) {
	metrics, err := parseEnvelope(data, format, label)
	if err != nil {
		return nil, err
	}

	out := make(map[string]schema.MetricBudget, len(metrics))
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		where := fmt.Sprintf("%s.metrics[%s]", label, name)
		obj, err := metricObject(metrics[name], name, where, baselineKeys)
		if err != nil {
			return nil, err
		}

		value, err := mustBeNumber(obj["value"], where+".value")
		if err != nil {
			return nil, err
		}
		maxPct, err := mustBeNumber(obj["max_delta_pct"], where+".max_delta_pct")
		if err != nil {
			return nil, err
		}
		maxAbs, err := mustBeNumber(obj["max_delta_abs"], where+".max_delta_abs")
		if err != nil {
			return nil, err
		}
		higherIsWorse, ok := obj["higher_is_worse"].(bool)
		if !ok {
			return nil, schemaErrorf("%s.higher_is_worse must be boolean", where)
		}
		rawSev, ok := obj["severity"].(string)
		if !ok || strings.TrimSpace(rawSev) == "" {
			return nil, schemaErrorf("%s.severity must be a non-empty string", where)
		}
		sev, ok := schema.ParseSeverity(rawSev)
		if !ok {
			return nil, schemaErrorf("%s.severity must be one of %v", where, schema.AllSeverities)
		}
		if maxPct < 0 {
			return nil, schemaErrorf("%s.max_delta_pct must be >= 0", where)
		}
		if maxAbs < 0 {
			return nil, schemaErrorf("%s.max_delta_abs must be >= 0", where)
		}

		out[name] = schema.MetricBudget{
			Value:         value,
			MaxDeltaPct:   maxPct,
			MaxDeltaAbs:   maxAbs,
			HigherIsWorse: higherIsWorse,
			Severity:      sev,
		}
	}
	return out, nil
}

// ParseCurrent validates a current measurement document. label names the document in errors.
func ParseCurrent(data []byte, format Format, label string) (map[string]schema.MetricSample, error) {
	metrics, err := parseEnvelope(data, format, label)
	if err != nil {
		return nil, err
	}

	out := make(map[string]schema.MetricSample, len(metrics))
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		where := fmt.Sprintf("%s.metrics[%s]", label, name)
		obj, err := metricObject(metrics[name], name, where, currentKeys)
		if err != nil {
			return nil, err
		}
		value, err := mustBeNumber(obj["value"], where+".value")
		if err != nil {
			return nil, err
		}
		out[name] = schema.MetricSample{Value: value}
	}
	return out, nil
}

// parseEnvelope decodes the document and checks the version/metrics wrapper.
func parseEnvelope(data []byte, format Format, label string) (map[string]any, error) {
	payload, err := decode(data, format)
	if err != nil {
		return nil, schemaErrorf("invalid %s in %s: %v", strings.ToUpper(string(format)), label, err)
	}
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil, schemaErrorf("%s must be an object", label)
	}
	if unknown := unknownKeys(doc, topLevelKeys); len(unknown) > 0 {
		return nil, schemaErrorf("%s contains unknown top-level keys: %v", label, unknown)
	}
	if v, err := mustBeNumber(doc["version"], label+".version"); err != nil || v != schema.BudgetDocumentVersion {
		return nil, schemaErrorf("%s must use schema version %d", label, schema.BudgetDocumentVersion)
	}
	metrics, ok := doc["metrics"].(map[string]any)
	if !ok {
		return nil, schemaErrorf("%s.metrics must be an object", label)
	}
	if len(metrics) == 0 {
		return nil, schemaErrorf("%s.metrics must include at least one metric", label)
	}
	return metrics, nil
}

func metricObject(raw any, name, where string, allowed []string) (map[string]any, error) {
	if !metricNamePattern.MatchString(name) {
		return nil, schemaErrorf("invalid metric name '%s'", name)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, schemaErrorf("%s must be an object", where)
	}
	if unknown := unknownKeys(obj, allowed); len(unknown) > 0 {
		return nil, schemaErrorf("%s contains unknown keys: %v", where, unknown)
	}
	var missing []string
	for _, key := range allowed {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, schemaErrorf("%s missing keys: %v", where, missing)
	}
	return obj, nil
}

func unknownKeys(obj map[string]any, allowed []string) []string {
	var unknown []string
	for key := range obj {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// mustBeNumber accepts finite numbers of any decoded representation and
// rejects booleans, strings and non-finite values.
func mustBeNumber(v any, label string) (float64, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, schemaErrorf("%s must be a finite number", label)
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		return 0, schemaErrorf("%s must be a number", label)
	default:
		return 0, schemaErrorf("%s must be a number", label)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, schemaErrorf("%s must be finite", label)
	}
	return f, nil
}

func decode(data []byte, format Format) (any, error) {
	var payload any
	switch format {
	case YAMLFormat:
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	case TOMLFormat:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		payload = doc
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, err
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected data after top-level value")
		}
	}
	return payload, nil
}
