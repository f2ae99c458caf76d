package contract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AmirTlinov/compas/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func baseInput() *ConfigRawInput {
	return &ConfigRawInput{
		Precision:   DefaultPrecision,
		Output:      "text",
		Color:       "yes",
		RepoPathStr: ".",
	}
}

func TestProcessAndValidate(t *testing.T) {
	blockingOff := false
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: "invalid output format"},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: "precision must be between"},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "invalid --color value"},
		{name: "invalid block-at", mutate: func(in *ConfigRawInput) { in.BlockAt = "warning" }, expectError: "invalid block-at severity"},
		{name: "invalid plugin id", mutate: func(in *ConfigRawInput) { in.PluginID = "has space" }, expectError: "invalid plugin id"},
		{name: "invalid history backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: "invalid history backend"},
		{
			name:        "mysql without connection string",
			mutate:      func(in *ConfigRawInput) { in.HistoryBackend = "mysql" },
			expectError: "history-db-connect is required",
		},
		{
			name: "tool without command",
			mutate: func(in *ConfigRawInput) {
				in.Tools = []ToolRawInput{{Name: "semgrep"}}
			},
			expectError: "command is required",
		},
		{
			name: "tool with unknown parser",
			mutate: func(in *ConfigRawInput) {
				in.Tools = []ToolRawInput{{Name: "bandit", Command: []string{"bandit", "-f", "json"}}}
			},
			expectError: "unsupported parser",
		},
		{
			name: "duplicate tools",
			mutate: func(in *ConfigRawInput) {
				in.Tools = []ToolRawInput{
					{Name: "semgrep", Command: []string{"semgrep"}},
					{Name: "semgrep", Command: []string{"semgrep"}},
				}
			},
			expectError: "defined more than once",
		},
		{
			name: "bad timeout",
			mutate: func(in *ConfigRawInput) {
				in.Tools = []ToolRawInput{{Name: "semgrep", Command: []string{"semgrep"}, Timeout: "soon"}}
			},
			expectError: "invalid timeout",
		},
		{
			name: "non-blocking tool",
			mutate: func(in *ConfigRawInput) {
				in.Tools = []ToolRawInput{{Name: "ruff", Command: []string{"ruff", "check"}, Blocking: &blockingOff}}
			},
		},
		{
			name:        "missing repo path",
			mutate:      func(in *ConfigRawInput) { in.RepoPathStr = filepath.Join(t.TempDir(), "nope") },
			expectError: "not accessible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(in)

			client := new(MockGitClient)
			client.On("GetRepoRoot", mock.Anything, mock.Anything).Return("", errors.New("not a git repository"))

			cfg := &Config{}
			err := ProcessAndValidate(context.Background(), cfg, client, in)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	in := baseInput()
	in.Tools = []ToolRawInput{{Name: "semgrep", Command: []string{"semgrep", "scan", "--json"}}}
	in.OutputFile = "out.json"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, nil, in))

	assert.Equal(t, DefaultPluginID, cfg.PluginID)
	assert.Equal(t, DefaultAdapterID, cfg.AdapterID)
	assert.Equal(t, schema.SeverityHigh, cfg.BlockAt)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, "out.json", cfg.ReportPath)
	assert.True(t, filepath.IsAbs(cfg.RepoPath))

	require.Len(t, cfg.Tools, 1)
	tool := cfg.Tools[0]
	assert.Equal(t, schema.SemgrepParser, tool.Parser)
	assert.Equal(t, DefaultToolTimeout, tool.Timeout)
	assert.Equal(t, []int{0, 1}, tool.OKExitCodes)
	assert.True(t, tool.Blocking)
	assert.Equal(t, []string{"--version"}, tool.VersionArgs)
	assert.Equal(t, []string{"semgrep", "scan", "--json"}, tool.Command)
	assert.True(t, tool.AcceptsExitCode(1))
	assert.False(t, tool.AcceptsExitCode(2))
}

func TestProcessAndValidate_UsesGitRoot(t *testing.T) {
	dir := t.TempDir()
	in := baseInput()
	in.RepoPathStr = dir

	client := new(MockGitClient)
	client.On("GetRepoRoot", mock.Anything, dir).Return("/mock/repo/root", nil).Once()

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, client, in))
	assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
	client.AssertExpectations(t)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		PluginID: "p13",
		Tools: []ToolSpec{{
			Name:        "gitleaks",
			Command:     []string{"gitleaks", "detect"},
			Timeout:     time.Minute,
			OKExitCodes: []int{0, 1},
		}},
	}
	clone := cfg.Clone()
	clone.Tools[0].Command[0] = "changed"
	clone.PluginID = "p99"

	assert.Equal(t, "gitleaks", cfg.Tools[0].Command[0])
	assert.Equal(t, "p13", cfg.PluginID)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/compas", false},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/compas", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost dbname=compas", false},
		{"postgres no dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("plugin id", "p13"))
	assert.NoError(t, ValidateIdentifier("adapter id", "p13-secrets.v2"))
	assert.Error(t, ValidateIdentifier("plugin id", ""))
	assert.Error(t, ValidateIdentifier("plugin id", "-leading"))
	assert.ErrorContains(t, ValidateIdentifier("adapter id", "has space"), "invalid adapter id")
}

func TestProcessProfilingConfig(t *testing.T) {
	var profile ProfileConfig
	assert.NoError(t, ProcessProfilingConfig(&profile, ""))
	assert.False(t, profile.Enabled)

	assert.NoError(t, ProcessProfilingConfig(&profile, "/tmp/compas"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "/tmp/compas", profile.Prefix)
}
