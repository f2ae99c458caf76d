package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/AmirTlinov/compas/schema"
)

// Default values for configuration.
const (
	DefaultPluginID      = "compas"
	DefaultAdapterID     = "compas-adapter"
	DefaultPrecision     = 2
	MaxPrecision         = 6
	DefaultToolTimeout   = 120 * time.Second
	VersionProbeTimeout  = 10 * time.Second
	MaxRawOutputExcerpt  = 4000
	DefaultBlockSeverity = schema.SeverityHigh
)

// DefaultOKExitCodes are the exit codes most scanners use for "clean" and "findings".
var DefaultOKExitCodes = []int{0, 1}

// DefaultVersionArgs is appended to a tool's executable to probe its version.
var DefaultVersionArgs = []string{"--version"}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ToolSpec is a validated external tool definition.
type ToolSpec struct {
	Name        string
	Command     []string
	Parser      schema.ParserName
	Timeout     time.Duration
	OKExitCodes []int
	Blocking    bool
	VersionArgs []string
}

// AcceptsExitCode reports whether code means the tool ran to completion.
func (t ToolSpec) AcceptsExitCode(code int) bool {
	return slices.Contains(t.OKExitCodes, code)
}

// Config holds the runtime configuration for a gate run.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath   string
	PluginID   string
	AdapterID  string
	BlockAt    schema.Severity
	Tools      []ToolSpec
	Output     schema.OutputMode
	OutputFile string
	ReportPath string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Debug      bool

	BaselinePath string
	CurrentPath  string
	InputPath    string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ToolRawInput holds one tool definition from the YAML config file.
type ToolRawInput struct {
	Name        string   `mapstructure:"name"`
	Command     []string `mapstructure:"command"`
	Parser      string   `mapstructure:"parser"`
	Timeout     string   `mapstructure:"timeout"`
	OKExitCodes []int    `mapstructure:"ok_exit_codes"`
	Blocking    *bool    `mapstructure:"blocking"`
	VersionArgs []string `mapstructure:"version_args"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	PluginID         string `mapstructure:"plugin-id"`
	AdapterID        string `mapstructure:"adapter-id"`
	BlockAt          string `mapstructure:"block-at"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	ReportPath       string `mapstructure:"report-path"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Debug            bool   `mapstructure:"debug"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from budgetCmd.Flags() ---
	Baseline string `mapstructure:"baseline"`
	Current  string `mapstructure:"current"`

	// --- Fields from evaluateCmd.Flags() ---
	Input string `mapstructure:"input"`

	// --- Tool definitions from config file ---
	Tools []ToolRawInput `mapstructure:"tools"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Tools != nil {
		clone.Tools = make([]ToolSpec, len(c.Tools))
		for i, t := range c.Tools {
			t.Command = slices.Clone(t.Command)
			t.OKExitCodes = slices.Clone(t.OKExitCodes)
			t.VersionArgs = slices.Clone(t.VersionArgs)
			clone.Tools[i] = t
		}
	}
	return &clone
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ValidateIdentifier checks a plugin, adapter or tool identifier.
func ValidateIdentifier(kind, value string) error {
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("invalid %s '%s'. must match %s", kind, value, identifierPattern)
	}
	return nil
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processTools(cfg, input); err != nil {
		return err
	}
	return resolveRepoPath(ctx, cfg, client, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the history backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(input.HistoryBackend)))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path, non-tool fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.ReportPath = input.ReportPath
	if cfg.ReportPath == "" {
		cfg.ReportPath = input.OutputFile
	}
	cfg.Width = input.Width
	cfg.Debug = input.Debug
	cfg.BaselinePath = input.Baseline
	cfg.CurrentPath = input.Current
	cfg.InputPath = input.Input

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Identity ---
	cfg.PluginID = strings.TrimSpace(input.PluginID)
	if cfg.PluginID == "" {
		cfg.PluginID = DefaultPluginID
	}
	if !identifierPattern.MatchString(cfg.PluginID) {
		return fmt.Errorf("invalid plugin id '%s'. must match %s", input.PluginID, identifierPattern)
	}
	cfg.AdapterID = strings.TrimSpace(input.AdapterID)
	if cfg.AdapterID == "" {
		cfg.AdapterID = DefaultAdapterID
	}
	if !identifierPattern.MatchString(cfg.AdapterID) {
		return fmt.Errorf("invalid adapter id '%s'. must match %s", input.AdapterID, identifierPattern)
	}

	// --- 2. Blocking threshold ---
	if input.BlockAt == "" {
		cfg.BlockAt = DefaultBlockSeverity
	} else {
		sev, ok := schema.ParseSeverity(input.BlockAt)
		if !ok {
			return fmt.Errorf("invalid block-at severity '%s'. must be low, medium, high, critical", input.BlockAt)
		}
		cfg.BlockAt = sev
	}

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	return nil
}

// processTools validates tool definitions and fills in their defaults.
func processTools(cfg *Config, input *ConfigRawInput) error {
	cfg.Tools = make([]ToolSpec, 0, len(input.Tools))
	seen := make(map[string]struct{}, len(input.Tools))

	for i, raw := range input.Tools {
		name := strings.TrimSpace(raw.Name)
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("tool #%d: invalid name '%s'", i+1, raw.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("tool '%s' is defined more than once", name)
		}
		seen[name] = struct{}{}

		if len(raw.Command) == 0 || strings.TrimSpace(raw.Command[0]) == "" {
			return fmt.Errorf("tool '%s': command is required", name)
		}

		parser := schema.ParserName(strings.ToLower(strings.TrimSpace(raw.Parser)))
		if parser == "" {
			parser = schema.ParserName(name)
		}
		if _, ok := schema.ValidParsers[parser]; !ok {
			return fmt.Errorf("tool '%s': unsupported parser '%s'", name, parser)
		}

		timeout := DefaultToolTimeout
		if raw.Timeout != "" {
			d, err := time.ParseDuration(raw.Timeout)
			if err != nil {
				return fmt.Errorf("tool '%s': invalid timeout '%s': %w", name, raw.Timeout, err)
			}
			if d <= 0 {
				return fmt.Errorf("tool '%s': timeout must be positive (received %s)", name, raw.Timeout)
			}
			timeout = d
		}

		okCodes := DefaultOKExitCodes
		if len(raw.OKExitCodes) > 0 {
			okCodes = raw.OKExitCodes
		}

		blocking := true
		if raw.Blocking != nil {
			blocking = *raw.Blocking
		}

		versionArgs := DefaultVersionArgs
		if len(raw.VersionArgs) > 0 {
			versionArgs = raw.VersionArgs
		}

		cfg.Tools = append(cfg.Tools, ToolSpec{
			Name:        name,
			Command:     slices.Clone(raw.Command),
			Parser:      parser,
			Timeout:     timeout,
			OKExitCodes: slices.Clone(okCodes),
			Blocking:    blocking,
			VersionArgs: slices.Clone(versionArgs),
		})
	}
	return nil
}

// resolveRepoPath makes the repository path absolute and snaps it to the Git root
// when there is one. A directory outside Git is still a valid scan target.
func resolveRepoPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, err := os.Stat(absSearchPath)
	if err != nil {
		return fmt.Errorf("repository path %q is not accessible: %w", searchPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repository path %q is not a directory", searchPath)
	}

	cfg.RepoPath = absSearchPath
	if client == nil {
		return nil
	}
	if gitRoot, err := client.GetRepoRoot(ctx, absSearchPath); err == nil && gitRoot != "" {
		cfg.RepoPath = gitRoot
	}
	return nil
}
