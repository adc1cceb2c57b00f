// Package haspermission checks whether the current process holds a
// permission scope, and optionally fails with a typed error if not.
//
// Enforcement is delegated to an Oracle. When no oracle is active the
// permission model is considered disabled and every check is granted.
package haspermission

import (
	"reflect"
	"sync/atomic"
)

// Oracle answers permission queries for the host process.
type Oracle interface {
	// Has reports whether scope is granted for reference.
	// An empty reference asks about the scope as a whole; a check made
	// without a reference and one made with "" both arrive here as "".
	Has(scope, reference string) bool
}

// OracleFunc adapts an ordinary function to the Oracle interface.
type OracleFunc func(scope, reference string) bool

// Has calls f(scope, reference).
func (f OracleFunc) Has(scope, reference string) bool {
	return f(scope, reference)
}

// Gate queries an injected Oracle. A Gate with a nil oracle grants everything.
type Gate struct {
	oracle Oracle
}

// NewGate creates a Gate backed by o. Pass nil to disable enforcement.
func NewGate(o Oracle) *Gate {
	return &Gate{oracle: o}
}

// Check reports whether scope is granted, optionally narrowed to a reference
// such as a file path or URL. Only the first reference is used.
func (g *Gate) Check(scope string, reference ...string) bool {
	if g == nil || g.oracle == nil {
		return true
	}
	return g.oracle.Has(scope, firstReference(reference))
}

// CheckValue is Check for scopes coming from untyped data. It returns an
// *InvalidArgumentError when scope is not a string.
func (g *Gate) CheckValue(scope any, reference ...string) (bool, error) {
	s, err := scopeString(scope)
	if err != nil {
		return false, err
	}
	return g.Check(s, reference...), nil
}

// Assert returns a *PermissionError if scope is not granted.
func (g *Gate) Assert(scope string, reference ...string) error {
	if !g.Check(scope, reference...) {
		return NewPermissionError(scope, reference...)
	}
	return nil
}

// AssertValue is Assert for scopes coming from untyped data. An
// *InvalidArgumentError is returned as is.
func (g *Gate) AssertValue(scope any, reference ...string) error {
	s, err := scopeString(scope)
	if err != nil {
		return err
	}
	return g.Assert(s, reference...)
}

type installedOracle struct {
	oracle Oracle
}

var installed atomic.Pointer[installedOracle]

// Install sets the process-wide oracle used by the package-level functions.
// Install(nil) disables enforcement.
func Install(o Oracle) {
	if o == nil {
		installed.Store(nil)
		return
	}
	installed.Store(&installedOracle{oracle: o})
}

// Installed returns the process-wide oracle, or nil when enforcement is disabled.
func Installed() Oracle {
	if p := installed.Load(); p != nil {
		return p.oracle
	}
	return nil
}

func defaultGate() *Gate {
	return NewGate(Installed())
}

// Check reports whether the current process has scope.
//
// It returns true when no oracle is installed.
//
//	haspermission.Check("fs.read")
//	haspermission.Check("fs.read", "/etc/passwd")
func Check(scope string, reference ...string) bool {
	return defaultGate().Check(scope, reference...)
}

// CheckValue is the untyped form of Check.
func CheckValue(scope any, reference ...string) (bool, error) {
	return defaultGate().CheckValue(scope, reference...)
}

// Assert returns a *PermissionError if the current process lacks scope.
func Assert(scope string, reference ...string) error {
	return defaultGate().Assert(scope, reference...)
}

// AssertValue is the untyped form of Assert.
func AssertValue(scope any, reference ...string) error {
	return defaultGate().AssertValue(scope, reference...)
}

func firstReference(reference []string) string {
	if len(reference) == 0 {
		return ""
	}
	return reference[0]
}

func scopeString(scope any) (string, error) {
	switch s := scope.(type) {
	case string:
		return s, nil
	case nil:
		return "", newScopeTypeError()
	}
	// named string types, e.g. capabilities.Scope
	v := reflect.ValueOf(scope)
	if v.Kind() == reflect.String {
		return v.String(), nil
	}
	return "", newScopeTypeError()
}
