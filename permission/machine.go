package permission

import "sync"

// Machine holds the current State. It never caches a state forever: every
// platform callback is applied, including re-deliveries of the same state.
type Machine struct {
	mu      sync.RWMutex
	current State
}

// NewMachine returns a Machine in the Undetermined state
func NewMachine() *Machine {
	return &Machine{current: Undetermined}
}

// Current returns the current state
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Apply sets the current state and reports whether it differed from the
// previous one. Callers that want to de-duplicate side effects use the
// returned flag; the machine itself never suppresses a transition.
func (m *Machine) Apply(s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.current != s
	m.current = s
	return changed
}
