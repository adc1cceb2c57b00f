package services

import (
	"fmt"
	"log/slog"

	apperrors "github.com/mstuart/has-permission/internal/application/errors"
	"github.com/mstuart/has-permission/internal/application/ports"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"github.com/mstuart/has-permission/internal/infrastructure/system"
)

// CapabilityGatekeeper handles capability granting decisions, user interaction, and persistence.
// This is an application service responsible for the security boundary between requested and granted capabilities.
type CapabilityGatekeeper struct {
	store         ports.GrantStore
	prompter      ports.CapabilityPrompter
	securityLevel system.SecurityLevel
}

// NewCapabilityGatekeeper creates a new capability gatekeeper.
func NewCapabilityGatekeeper(
	store ports.GrantStore,
	prompter ports.CapabilityPrompter,
	securityLevel system.SecurityLevel,
) *CapabilityGatekeeper {
	return &CapabilityGatekeeper{
		store:         store,
		prompter:      prompter,
		securityLevel: securityLevel,
	}
}

// GrantCapabilities applies the security policy to requested capabilities and
// returns the effective grant: stored grants plus every accepted request.
//
// Narrow capabilities are accepted as requested. Broad ones are denied in
// strict mode, accepted in permissive mode and confirmed interactively in
// standard mode. Accepted capabilities are saved when persist is set, or when
// the user answered "always".
func (g *CapabilityGatekeeper) GrantCapabilities(requested capabilities.Grant, persist bool) (capabilities.Grant, error) {
	for _, capability := range requested {
		if capability.When == "" {
			continue
		}
		if err := capabilities.ValidateCondition(capability.When); err != nil {
			return nil, apperrors.NewValidationError("when", err.Error())
		}
	}

	existing, err := g.store.Load()
	if err != nil {
		return nil, apperrors.NewConfigurationError("grants", "failed to load grants", err)
	}

	missing := g.findMissingCapabilities(requested, existing)
	if len(missing) == 0 {
		return existing, nil
	}

	if g.securityLevel == system.SecurityLevelStandard && !g.prompter.IsInteractive() {
		if pending := broadCapabilities(missing); len(pending) > 0 {
			return nil, g.prompter.FormatNonInteractiveError(pending, g.store.ConfigPath())
		}
	}

	effective := capabilities.NewGrant()
	effective.Merge(existing)
	toSave := capabilities.NewGrant()
	toSave.Merge(existing)
	shouldSave := false

	for _, capability := range missing {
		granted, always, err := g.evaluateCapability(capability)
		if err != nil {
			return nil, err
		}
		if !granted {
			return nil, apperrors.NewGrantError("denied by user", capability)
		}

		effective.Add(capability)
		if persist || always {
			toSave.Add(capability)
			shouldSave = true
		}
	}

	if shouldSave {
		if err := g.store.Save(toSave); err != nil {
			return nil, apperrors.NewConfigurationError("grants", "failed to save grants", err)
		}
		slog.Info("permissions saved", "file", g.store.ConfigPath())
	}

	return effective, nil
}

// RevokeCapabilities removes capabilities from the store and returns how many were removed.
func (g *CapabilityGatekeeper) RevokeCapabilities(revoked capabilities.Grant) (int, error) {
	existing, err := g.store.Load()
	if err != nil {
		return 0, apperrors.NewConfigurationError("grants", "failed to load grants", err)
	}

	removed := 0
	for _, capability := range revoked {
		removed += existing.Remove(capability)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := g.store.Save(existing); err != nil {
		return 0, apperrors.NewConfigurationError("grants", "failed to save grants", err)
	}
	return removed, nil
}

// ListCapabilities returns the stored grants.
func (g *CapabilityGatekeeper) ListCapabilities() (capabilities.Grant, error) {
	grants, err := g.store.Load()
	if err != nil {
		return nil, apperrors.NewConfigurationError("grants", "failed to load grants", err)
	}
	return grants, nil
}

// evaluateCapability applies security policy and user prompts for a single capability.
// Returns: (granted, saveToConfig, error)
func (g *CapabilityGatekeeper) evaluateCapability(capability capabilities.Capability) (bool, bool, error) {
	if !capability.IsBroad() {
		return true, false, nil
	}

	switch g.securityLevel {
	case system.SecurityLevelStrict:
		slog.Error("broad capability denied by security policy",
			"level", g.securityLevel,
			"capability", capability.String(),
			"risk", capability.RiskDescription())
		return false, false, apperrors.NewGrantError(
			fmt.Sprintf("broad capability denied by %s security policy", g.securityLevel), capability)

	case system.SecurityLevelPermissive:
		slog.Warn("auto-granting broad capability (permissive mode)",
			"capability", capability.String())
		return true, false, nil

	default:
		return g.prompter.PromptForCapability(capability)
	}
}

// findMissingCapabilities returns capabilities that are required but not yet granted.
func (g *CapabilityGatekeeper) findMissingCapabilities(required, granted capabilities.Grant) capabilities.Grant {
	missing := capabilities.NewGrant()
	for _, capability := range required {
		if !granted.Contains(capability) {
			missing.Add(capability)
		}
	}
	return missing
}

func broadCapabilities(caps capabilities.Grant) capabilities.Grant {
	broad := capabilities.NewGrant()
	for _, capability := range caps {
		if capability.IsBroad() {
			broad.Add(capability)
		}
	}
	return broad
}
