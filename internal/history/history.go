// Package history keeps the back/forward trail of items opened in the
// detail view.
package history

// Manager manages the navigation history of item ids.
type Manager struct {
	stack        []string
	currentIndex int
	capacity     int
}

// NewManager creates a new Manager.
// If capacity is 0, history is disabled. Negative capacity is treated as 0.
func NewManager(capacity int) *Manager {
	if capacity < 0 {
		capacity = 0
	}
	return &Manager{
		stack:        make([]string, 0, capacity),
		currentIndex: -1,
		capacity:     capacity,
	}
}

// Record records a newly opened id.
// Recording after going back drops the forward part of the history.
func (m *Manager) Record(id string) {
	if m.capacity == 0 || id == "" {
		return
	}

	if m.currentIndex != -1 && m.currentIndex < len(m.stack)-1 {
		m.stack = m.stack[:m.currentIndex+1]
	}

	if m.currentIndex >= 0 && m.stack[m.currentIndex] == id {
		return
	}

	m.stack = append(m.stack, id)

	// Trim from the oldest end.
	if len(m.stack) > m.capacity {
		m.stack = m.stack[len(m.stack)-m.capacity:]
	}
	m.currentIndex = len(m.stack) - 1
}

// Back steps to the previous id.
func (m *Manager) Back() (id string, ok bool) {
	if m.capacity == 0 || m.currentIndex <= 0 {
		return "", false
	}
	m.currentIndex--
	return m.stack[m.currentIndex], true
}

// Forward steps to the next id.
func (m *Manager) Forward() (id string, ok bool) {
	if m.capacity == 0 {
		return "", false
	}
	if m.currentIndex == -1 || m.currentIndex >= len(m.stack)-1 {
		return "", false
	}
	m.currentIndex++
	return m.stack[m.currentIndex], true
}

// Current returns the id at the current position.
func (m *Manager) Current() (string, bool) {
	if m.currentIndex < 0 || m.currentIndex >= len(m.stack) {
		return "", false
	}
	return m.stack[m.currentIndex], true
}

// Remove drops every occurrence of id. If the current entry goes, the
// position moves to the entry viewed before it.
func (m *Manager) Remove(id string) {
	m.Retain(func(candidate string) bool { return candidate != id })
}

// Retain keeps only the ids for which keep returns true, adjusting the
// current position the same way Remove does. Neighbours left equal by the
// pruning collapse into one entry. It returns how many entries went.
func (m *Manager) Retain(keep func(id string) bool) int {
	if m.capacity == 0 || len(m.stack) == 0 {
		return 0
	}

	newStack := make([]string, 0, len(m.stack))
	newIndex := -1
	for i, id := range m.stack {
		if keep(id) {
			if n := len(newStack); n == 0 || newStack[n-1] != id {
				newStack = append(newStack, id)
			}
		}
		if i == m.currentIndex {
			// A removed current entry falls back to the one viewed before it.
			newIndex = len(newStack) - 1
		}
	}

	removed := len(m.stack) - len(newStack)
	if removed == 0 {
		return 0
	}

	m.stack = newStack
	if len(m.stack) == 0 {
		m.currentIndex = -1
		return removed
	}
	if newIndex < 0 {
		newIndex = 0
	}
	m.currentIndex = newIndex
	return removed
}

// Len is the number of recorded entries.
func (m *Manager) Len() int { return len(m.stack) }

// Clear resets the history.
func (m *Manager) Clear() {
	if m.capacity == 0 {
		return
	}
	m.stack = make([]string, 0, m.capacity)
	m.currentIndex = -1
}
