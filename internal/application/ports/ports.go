// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import "github.com/mstuart/has-permission/internal/domain/capabilities"

// GrantStore provides persistence for capability grants.
type GrantStore interface {
	// Load retrieves all granted capabilities.
	// Returns an empty Grant (not error) if no grants exist.
	Load() (capabilities.Grant, error)

	// Save persists the granted capabilities.
	Save(grants capabilities.Grant) error

	// ConfigPath returns the path to the backing store (for user messaging).
	ConfigPath() string
}

// CapabilityPrompter asks the user to confirm capability grants.
type CapabilityPrompter interface {
	// IsInteractive reports whether the user can be prompted.
	IsInteractive() bool

	// PromptForCapability returns whether the capability is granted and
	// whether the user wants the decision persisted.
	PromptForCapability(capability capabilities.Capability) (granted bool, always bool, err error)

	// FormatNonInteractiveError explains how to grant pending capabilities
	// without a terminal.
	FormatNonInteractiveError(pending capabilities.Grant, configPath string) error
}
