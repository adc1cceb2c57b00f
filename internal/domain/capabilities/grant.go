package capabilities

// Grant represents the collection of capabilities granted to the process.
type Grant []Capability

// NewGrant creates a new empty Grant.
func NewGrant() Grant {
	return make(Grant, 0)
}

// Add adds a capability to the grant if it's not already present.
func (g *Grant) Add(capability Capability) {
	if g.Contains(capability) {
		return
	}
	*g = append(*g, capability)
}

// Merge adds every capability of other, skipping duplicates.
func (g *Grant) Merge(other Grant) {
	for _, capability := range other {
		g.Add(capability)
	}
}

// Contains checks if the grant contains a specific capability.
func (g Grant) Contains(capability Capability) bool {
	for _, existing := range g {
		if existing.Equals(capability) {
			return true
		}
	}
	return false
}

// Remove removes every capability selected by capability and returns how
// many were removed. A capability without a condition selects all entries
// with the same scope and pattern, whatever their condition.
func (g *Grant) Remove(capability Capability) int {
	kept := (*g)[:0]
	for _, existing := range *g {
		if !capability.Selects(existing) {
			kept = append(kept, existing)
		}
	}
	removed := len(*g) - len(kept)
	*g = kept
	return removed
}

// ForScope returns the capabilities whose scope covers scope.
func (g Grant) ForScope(scope Scope) Grant {
	out := NewGrant()
	for _, capability := range g {
		if capability.Scope.Covers(scope) {
			out = append(out, capability)
		}
	}
	return out
}
