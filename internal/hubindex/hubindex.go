// Package hubindex assigns stable integer matrix indices to the depot, the
// configured hubs, and the customer orders, and translates between those
// indices and domain identifiers. Grounded on
// original_source/src/models/hub_config.py's HubIndexManager.
package hubindex

import "fmt"

const DepotIndex = 0

// Manager maps depot/hub/customer identities to matrix row/column indices.
// Matrix layout: [depot, hub_1..hub_H, customer_1..customer_N].
type Manager struct {
	hubIDs          []string
	hubIndex        map[string]int
	customerStart   int
}

// New builds a Manager for the given ordered hub ids.
func New(hubIDs []string) *Manager {
	idx := make(map[string]int, len(hubIDs))
	for i, id := range hubIDs {
		idx[id] = i + 1
	}
	return &Manager{
		hubIDs:        hubIDs,
		hubIndex:      idx,
		customerStart: len(hubIDs) + 1,
	}
}

// DepotIndex returns the depot's matrix index (always 0).
func (m *Manager) DepotIndex() int { return DepotIndex }

// HubIndex returns the matrix index for hubID, or an error if unregistered.
func (m *Manager) HubIndex(hubID string) (int, error) {
	idx, ok := m.hubIndex[hubID]
	if !ok {
		return 0, fmt.Errorf("unknown hub: %q", hubID)
	}
	return idx, nil
}

// CustomerIndex converts a 0-based position in the customer order list to
// its matrix index.
func (m *Manager) CustomerIndex(orderPos int) int {
	return m.customerStart + orderPos
}

// CustomerStartIndex is the first matrix index occupied by a customer.
func (m *Manager) CustomerStartIndex() int { return m.customerStart }

// NumHubs reports how many hubs this manager tracks.
func (m *Manager) NumHubs() int { return len(m.hubIDs) }

// AllHubIndices lists every hub's matrix index, in configuration order.
func (m *Manager) AllHubIndices() []int {
	out := make([]int, len(m.hubIDs))
	for i, id := range m.hubIDs {
		out[i] = m.hubIndex[id]
	}
	return out
}

// HubIDByIndex reverses HubIndex; ok is false for the depot or an unknown
// index.
func (m *Manager) HubIDByIndex(index int) (string, bool) {
	for id, idx := range m.hubIndex {
		if idx == index {
			return id, true
		}
	}
	return "", false
}
