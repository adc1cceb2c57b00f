// Package capabilities provides persistence and prompting for capability grants.
package capabilities

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
)

// FileStore provides file-based persistence for capability grants.
type FileStore struct {
	configPath string
}

// NewFileStore creates a new FileStore.
func NewFileStore(configPath string) *FileStore {
	return &FileStore{
		configPath: configPath,
	}
}

// ConfigPath returns the path to the grants file.
func (s *FileStore) ConfigPath() string {
	return s.configPath
}

type grantEntry struct {
	Scope   string `yaml:"scope"`
	Pattern string `yaml:"pattern,omitempty"`
	When    string `yaml:"when,omitempty"`
}

// grantsFile represents the YAML structure of a grants file.
type grantsFile struct {
	Grants []grantEntry `yaml:"grants"`
}

// Load loads capability grants from the grants file.
// If the file does not exist, it returns an empty Grant without error.
func (s *FileStore) Load() (capabilities.Grant, error) {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return capabilities.NewGrant(), nil
	}

	//nolint:gosec // G304: path is the user-provided grants file
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read grants file: %w", err)
	}

	var file grantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse grants file %s: %w", s.configPath, err)
	}

	grants := capabilities.NewGrant()
	for i, entry := range file.Grants {
		if entry.Scope == "" {
			return nil, fmt.Errorf("grants file %s: entry %d has no scope", s.configPath, i)
		}
		grants.Add(capabilities.Capability{
			Scope:   capabilities.Scope(entry.Scope),
			Pattern: entry.Pattern,
			When:    entry.When,
		})
	}

	return grants, nil
}

// Save saves capability grants to the grants file.
func (s *FileStore) Save(grants capabilities.Grant) error {
	dir := filepath.Dir(s.configPath)
	//nolint:gosec // G301: 0o755 is standard for user config directories
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	entries := make([]grantEntry, len(grants))
	for i, capability := range grants {
		entries[i] = grantEntry{
			Scope:   string(capability.Scope),
			Pattern: capability.Pattern,
			When:    capability.When,
		}
	}

	data, err := yaml.MarshalWithOptions(grantsFile{Grants: entries}, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal grants to YAML: %w", err)
	}

	return os.WriteFile(s.configPath, data, 0o600)
}
