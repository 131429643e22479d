package engine

import (
	"strings"
	"sync"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// Memory remembers the last colour resolved for each hostname.
// Concurrent writers to the same host resolve last-writer-wins.
type Memory struct {
	mu      sync.RWMutex
	colours map[string]colour.Hex
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{colours: make(map[string]colour.Hex)}
}

// Load returns the colour remembered for host.
func (m *Memory) Load(host string) (colour.Hex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.colours[strings.ToLower(host)]
	return h, ok
}

// Store remembers a colour for host.
func (m *Memory) Store(host string, h colour.Hex) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.colours[strings.ToLower(host)] = h
}

// Len returns the number of remembered hosts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.colours)
}
