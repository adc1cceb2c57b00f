package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoader_Load_FileNotExists(t *testing.T) {
	loader := NewConfigLoader()
	cfg, err := loader.Load("/nonexistent/config.yaml")

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.False(t, cfg.Permission.Enabled)
	assert.Empty(t, cfg.Grants)
	assert.Equal(t, SecurityLevelStandard, cfg.Security.GetSecurityLevel())
}

func TestConfigLoader_Load_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
permission:
  enabled: true
  grant_files:
    - project.yaml
    - /etc/has-permission/grants.yaml

security:
  level: strict

grants:
  - scope: fs.read
    pattern: /etc/hosts
  - scope: net
    pattern: "*.example.com"
    when: os == "linux"
  - scope: worker
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	cfg, err := NewConfigLoader().Load(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.Permission.Enabled)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "project.yaml"),
		"/etc/has-permission/grants.yaml",
	}, cfg.Permission.GrantFiles)
	assert.Equal(t, SecurityLevelStrict, cfg.Security.GetSecurityLevel())

	require.Len(t, cfg.Grants, 3)
	assert.Equal(t, "fs.read", cfg.Grants[0].Scope)
	assert.Equal(t, "/etc/hosts", cfg.Grants[0].Pattern)
	assert.Equal(t, `os == "linux"`, cfg.Grants[1].When)
}

func TestConfigLoader_Load_EmptyFile(t *testing.T) {
	for name, content := range map[string]string{
		"empty":         "",
		"comments only": "# nothing here\n",
		"blank lines":   "\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

			cfg, err := NewConfigLoader().Load(configPath)
			require.NoError(t, err)
			assert.Equal(t, DefaultConfig(), cfg)
			assert.Equal(t, string(SecurityLevelStandard), cfg.Security.Level)
		})
	}
}

func TestValidateConfig_Numbers(t *testing.T) {
	err := ValidateConfig([]byte("permission:\n  enabled: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/permission/enabled")

	assert.NoError(t, ValidateConfig([]byte("security:\n  level: permissive\n")))
}

func TestConfigLoader_Load_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown security level",
			content: "security:\n  level: yolo\n",
			want:    "/security/level",
		},
		{
			name:    "grant without scope",
			content: "grants:\n  - pattern: /tmp\n",
			want:    "/grants/0",
		},
		{
			name:    "enabled is not a boolean",
			content: "permission:\n  enabled: sometimes\n",
			want:    "/permission/enabled",
		},
		{
			name:    "unknown top-level key",
			content: "capabilities: []\n",
			want:    "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0o600))

			_, err := NewConfigLoader().Load(configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_ToCapabilities(t *testing.T) {
	cfg := &Config{
		Grants: []CapabilityConfig{
			{Scope: "fs.read", Pattern: "/etc/hosts"},
			{Scope: "child"},
			{Scope: "child"},
		},
	}

	caps := cfg.ToCapabilities()

	require.Len(t, caps, 2)
	assert.Equal(t, capabilities.Capability{Scope: capabilities.ScopeFSRead, Pattern: "/etc/hosts"}, caps[0])
	assert.Equal(t, capabilities.ScopeChild, caps[1].Scope)
}

func TestParseSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityLevelStrict, ParseSecurityLevel("strict"))
	assert.Equal(t, SecurityLevelPermissive, ParseSecurityLevel("permissive"))
	assert.Equal(t, SecurityLevelStandard, ParseSecurityLevel("standard"))
	assert.Equal(t, SecurityLevelStandard, ParseSecurityLevel(""))
	assert.Equal(t, SecurityLevelStandard, ParseSecurityLevel("bogus"))
}
