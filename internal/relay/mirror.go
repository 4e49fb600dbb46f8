package relay

import (
	"sync"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// Mirror is a live copy of one chart. Each user notification is applied as a
// single replace or remove under the lock, after the user document has been
// fully decoded, so readers never observe a partially applied user.
type Mirror struct {
	mu    sync.RWMutex
	chart *model.Chart
}

// NewMirror copies c.
func NewMirror(c *model.Chart) *Mirror {
	return &Mirror{chart: c.Clone()}
}

// Snapshot returns a deep copy of the current chart.
func (m *Mirror) Snapshot() *model.Chart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chart.Clone()
}

// ApplyUser decodes doc and swaps the user into the chart.
func (m *Mirror) ApplyUser(doc []byte) (*model.User, error) {
	u, err := model.UnmarshalUser(doc)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.chart.UpsertUser(u); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// RemoveUser drops a user from the chart.
func (m *Mirror) RemoveUser(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chart.RemoveUser(username)
}

// Replace swaps in a freshly loaded chart.
func (m *Mirror) Replace(c *model.Chart) {
	next := c.Clone()
	m.mu.Lock()
	m.chart = next
	m.mu.Unlock()
}

// Creator returns the chart creator, who hosts the chart.
func (m *Mirror) Creator() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chart.Creator
}

// UserCount returns the number of users on the chart.
func (m *Mirror) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chart.Users)
}
