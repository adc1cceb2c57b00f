// Package system provides infrastructure for system-level configuration.
// This includes loading the system config file (~/.has-permission/config.yaml)
// and the capability grants it declares inline.
package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
)

// Config represents the global configuration file (~/.has-permission/config.yaml).
type Config struct {
	Permission PermissionConfig   `yaml:"permission"`
	Security   SecurityConfig     `yaml:"security"`
	Grants     []CapabilityConfig `yaml:"grants"`
}

// PermissionConfig controls whether the permission model is enforced.
type PermissionConfig struct {
	// Enabled turns enforcement on. When false every check is granted.
	Enabled bool `yaml:"enabled"`

	// GrantFiles lists additional grants files merged into the inline grants.
	// Relative paths are resolved against the config file's directory.
	GrantFiles []string `yaml:"grant_files"`
}

// CapabilityConfig represents a capability grant in the system configuration.
type CapabilityConfig struct {
	Scope   string `yaml:"scope"`
	Pattern string `yaml:"pattern"`
	When    string `yaml:"when"`
}

// SecurityConfig configures capability security policies.
type SecurityConfig struct {
	// Level defines the security policy: "strict", "standard", or "permissive"
	// - strict: Deny all broad capabilities
	// - standard: Confirm broad capabilities interactively (default)
	// - permissive: Allow all capabilities without confirmation
	Level string `yaml:"level"`
}

// SecurityLevel represents the security enforcement level.
type SecurityLevel string

const (
	// SecurityLevelStrict denies broad capabilities
	SecurityLevelStrict SecurityLevel = "strict"

	// SecurityLevelStandard confirms broad capabilities (default)
	SecurityLevelStandard SecurityLevel = "standard"

	// SecurityLevelPermissive allows all capabilities without confirmation
	SecurityLevelPermissive SecurityLevel = "permissive"
)

// ParseSecurityLevel returns the security level named by s, defaulting to Standard.
func ParseSecurityLevel(s string) SecurityLevel {
	switch SecurityLevel(s) {
	case SecurityLevelStrict, SecurityLevelStandard, SecurityLevelPermissive:
		return SecurityLevel(s)
	default:
		return SecurityLevelStandard
	}
}

// GetSecurityLevel returns the configured security level, defaulting to Standard.
func (c *SecurityConfig) GetSecurityLevel() SecurityLevel {
	return ParseSecurityLevel(c.Level)
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Permission: PermissionConfig{
			Enabled:    false,
			GrantFiles: []string{},
		},
		Security: SecurityConfig{
			Level: string(SecurityLevelStandard),
		},
		Grants: []CapabilityConfig{},
	}
}

// DefaultConfigPath returns ~/.has-permission/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".has-permission", "config.yaml"), nil
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	present, err := validateConfigDocument(data)
	if err != nil {
		return nil, fmt.Errorf("invalid system config %s: %w", path, err)
	}
	if !present {
		return DefaultConfig(), nil
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	config.Permission.GrantFiles = resolvePaths(filepath.Dir(path), config.Permission.GrantFiles)

	return config, nil
}

// ToCapabilities converts the inline grants to domain capabilities.
func (c *Config) ToCapabilities() capabilities.Grant {
	caps := capabilities.NewGrant()
	for _, capability := range c.Grants {
		caps.Add(capabilities.Capability{
			Scope:   capabilities.Scope(capability.Scope),
			Pattern: capability.Pattern,
			When:    capability.When,
		})
	}
	return caps
}

func resolvePaths(base string, paths []string) []string {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		resolved = append(resolved, p)
	}
	return resolved
}
