package capabilities

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"golang.org/x/term"
)

const (
	answerNo     = "no"
	answerOnce   = "once"
	answerAlways = "always"
)

// TerminalPrompter provides interactive terminal prompting for capability grants.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive checks if stdin is attached to a terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptForCapability asks the user whether to grant a capability.
// always is true when the user wants the grant persisted.
func (p *TerminalPrompter) PromptForCapability(capability capabilities.Capability) (granted bool, always bool, err error) {
	answer := answerNo
	description := fmt.Sprintf("%s\nRisk: %s", capability.RiskDescription(), capability.RiskLevel())
	if capability.IsBroad() {
		description += "\n\n⚠️  This permission is broad. Prefer a narrower pattern."
	}

	err = huh.NewSelect[string]().
		Title("Grant "+p.describeCapability(capability)+"?").
		Description(description).
		Options(
			huh.NewOption("No", answerNo),
			huh.NewOption("Yes, for this run", answerOnce),
			huh.NewOption("Yes, and remember", answerAlways),
		).
		Value(&answer).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("prompt failed: %w", err)
	}

	switch answer {
	case answerOnce:
		return true, false, nil
	case answerAlways:
		return true, true, nil
	default:
		return false, false, nil
	}
}

// describeCapability returns a human-readable description of a capability.
func (p *TerminalPrompter) describeCapability(capability capabilities.Capability) string {
	target := capability.Pattern
	if capability.IsUnrestricted() {
		target = "anything"
	}

	switch capability.Scope {
	case capabilities.ScopeAll:
		return "every permission"
	case capabilities.ScopeFS:
		return fmt.Sprintf("Read and write files: %s", target)
	case capabilities.ScopeFSRead:
		return fmt.Sprintf("Read files: %s", target)
	case capabilities.ScopeFSWrite:
		return fmt.Sprintf("Write files: %s", target)
	case capabilities.ScopeChild:
		return fmt.Sprintf("Spawn child processes: %s", target)
	case capabilities.ScopeWorker:
		return "Start worker threads"
	case capabilities.ScopeNet:
		return fmt.Sprintf("Network access: %s", target)
	default:
		return capability.String()
	}
}

// FormatNonInteractiveError creates a helpful error message for non-interactive mode.
func (p *TerminalPrompter) FormatNonInteractiveError(pending capabilities.Grant, configPath string) error {
	var msg strings.Builder
	msg.WriteString("broad permissions need confirmation (running in non-interactive mode)\n\n")
	msg.WriteString("Pending permissions:\n")

	for _, capability := range pending {
		fmt.Fprintf(&msg, "  - %s (%s)\n", p.describeCapability(capability), capability.String())
	}

	msg.WriteString("\nTo grant these permissions:\n")
	msg.WriteString("  1. Run interactively and approve when prompted\n")
	msg.WriteString("  2. Use --security-level=permissive\n")
	fmt.Fprintf(&msg, "  3. Manually edit: %s\n", configPath)

	return errors.New(msg.String())
}
