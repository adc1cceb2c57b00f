// Package capabilities defines domain types for capability management.
package capabilities

import (
	"fmt"
	"strings"
)

// Scope identifies a permission category of the host permission model.
type Scope string

// Known scopes. Any other string is accepted and matched literally.
const (
	ScopeAll       Scope = "*"
	ScopeFS        Scope = "fs"
	ScopeFSRead    Scope = "fs.read"
	ScopeFSWrite   Scope = "fs.write"
	ScopeChild     Scope = "child"
	ScopeWorker    Scope = "worker"
	ScopeAddon     Scope = "addon"
	ScopeWASI      Scope = "wasi"
	ScopeNet       Scope = "net"
	ScopeInspector Scope = "inspector"
)

// IsFilesystem reports whether references of this scope are file paths.
func (s Scope) IsFilesystem() bool {
	return s == ScopeFS || s == ScopeFSRead || s == ScopeFSWrite
}

// Covers reports whether a grant for s also grants other.
func (s Scope) Covers(other Scope) bool {
	switch {
	case s == other, s == ScopeAll:
		return true
	case s == ScopeFS:
		return other == ScopeFSRead || other == ScopeFSWrite
	default:
		return false
	}
}

// Security risk assessment constants - domain knowledge about dangerous patterns
var (
	// Patterns covering the whole filesystem
	rootFilesystemPatterns = []string{"", "*", "**", "/", "/*", "/**"}

	// Broad filesystem patterns that grant excessive access
	broadFilesystemPatterns = append([]string{
		"/etc", "/etc/*", "/etc/**",
		"/root", "/root/*", "/root/**",
		"/home", "/home/*", "/home/**",
	}, rootFilesystemPatterns...)

	// Scopes that allow arbitrary code execution when granted without restriction
	codeExecutionScopes = []Scope{ScopeChild, ScopeAddon, ScopeWASI, ScopeInspector}
)

// RiskLevel represents the security risk level of a capability.
type RiskLevel int

const (
	// RiskLevelLow represents minimal security risk (specific, narrow permissions).
	RiskLevelLow RiskLevel = iota
	// RiskLevelMedium represents moderate security risk (network access, read-only sensitive data).
	RiskLevelMedium
	// RiskLevelHigh represents high security risk (broad permissions, arbitrary code execution).
	RiskLevelHigh
)

// String returns a human-readable representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLevelLow:
		return "low"
	case RiskLevelMedium:
		return "medium"
	case RiskLevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Capability represents a permission grant.
// This is a pure value object in the domain.
type Capability struct {
	Scope   Scope  // fs.read, fs.write, child, net, ...
	Pattern string // e.g. "/etc/**", "*.example.com"; empty grants the whole scope
	When    string // optional expr condition
}

// ParseCapability parses "scope" or "scope:pattern".
func ParseCapability(s string) (Capability, error) {
	s = strings.TrimSpace(s)
	scope, pattern, _ := strings.Cut(s, ":")
	if scope == "" {
		return Capability{}, fmt.Errorf("invalid capability %q: missing scope", s)
	}
	return Capability{Scope: Scope(scope), Pattern: pattern}, nil
}

// Equals checks if two capabilities are equal (value object equality).
func (c Capability) Equals(other Capability) bool {
	return c.Scope == other.Scope && c.Pattern == other.Pattern && c.When == other.When
}

// String returns a human-readable representation of the capability.
func (c Capability) String() string {
	if c.Pattern == "" {
		return string(c.Scope)
	}
	return string(c.Scope) + ":" + c.Pattern
}

// Selects reports whether other has the same scope and pattern, and the same
// condition when c carries one.
func (c Capability) Selects(other Capability) bool {
	if c.Scope != other.Scope || c.Pattern != other.Pattern {
		return false
	}
	return c.When == "" || c.When == other.When
}

// IsUnrestricted reports whether the capability grants its whole scope.
func (c Capability) IsUnrestricted() bool {
	return c.Pattern == "" || c.Pattern == "*"
}

// IsBroad returns true if this capability pattern is overly permissive.
func (c Capability) IsBroad() bool {
	if c.Scope == ScopeAll {
		return true
	}

	switch {
	case c.Scope.IsFilesystem():
		return matchesAny(c.Pattern, broadFilesystemPatterns)

	case c.Scope == ScopeNet:
		return c.IsUnrestricted()

	case isCodeExecutionScope(c.Scope):
		return c.IsUnrestricted()

	default:
		return false
	}
}

// RiskLevel returns the security risk level of this capability.
func (c Capability) RiskLevel() RiskLevel {
	if c.IsBroad() {
		return RiskLevelHigh
	}

	// Network or process spawning, even when narrowed
	if c.Scope == ScopeNet || isCodeExecutionScope(c.Scope) {
		return RiskLevelMedium
	}

	if c.Scope == ScopeFSWrite || c.Scope == ScopeFS {
		return RiskLevelMedium
	}

	if c.Scope == ScopeFSRead && strings.HasPrefix(c.Pattern, "/etc/") {
		return RiskLevelMedium
	}

	return RiskLevelLow
}

// RiskDescription returns a human-readable explanation of the security risk.
func (c Capability) RiskDescription() string {
	switch {
	case c.Scope == ScopeAll:
		return "Process is granted every permission"

	case c.Scope.IsFilesystem():
		if matchesAny(c.Pattern, rootFilesystemPatterns) {
			return "Process can access ALL files on the system"
		}
		if strings.HasPrefix(c.Pattern, "/etc") {
			return "Process can access sensitive system configuration"
		}
		if strings.HasPrefix(c.Pattern, "/root") || strings.HasPrefix(c.Pattern, "/home") {
			return "Process can access user home directories and private files"
		}
		if c.Scope != ScopeFSRead {
			return "Process can modify files on disk: " + c.Pattern
		}
		return "Process can read files: " + c.Pattern

	case c.Scope == ScopeChild:
		if c.IsUnrestricted() {
			return "Process can spawn arbitrary child processes"
		}
		return "Process can spawn: " + c.Pattern

	case c.Scope == ScopeWorker:
		return "Process can start worker threads"

	case c.Scope == ScopeAddon, c.Scope == ScopeWASI, c.Scope == ScopeInspector:
		return "Process can load native or sandbox-escaping code via " + string(c.Scope)

	case c.Scope == ScopeNet:
		if c.IsUnrestricted() {
			return "Process can connect to any host on the internet"
		}
		return "Process can make network requests to: " + c.Pattern

	default:
		return "Process requires permission: " + c.String()
	}
}

// matchesAny checks if pattern exactly matches any string in the list
func matchesAny(pattern string, list []string) bool {
	for _, item := range list {
		if pattern == item {
			return true
		}
	}
	return false
}

func isCodeExecutionScope(s Scope) bool {
	for _, scope := range codeExecutionScopes {
		if s == scope {
			return true
		}
	}
	return false
}
