package hermes

import (
	"encoding/json"
	"time"
)

// UserEvent announces that a user's preferences were added, replaced or
// removed. User is the full user document and is empty for removals.
type UserEvent struct {
	ChartID   string          `json:"chart_id"`
	Username  string          `json:"username"`
	User      json.RawMessage `json:"user,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// StatusEvent announces whether a chart accepts user changes.
type StatusEvent struct {
	ChartID         string    `json:"chart_id"`
	ChangesAccepted bool      `json:"changes_accepted"`
	Timestamp       time.Time `json:"timestamp"`
}

// ChartEvent announces a structural change to or the deletion of a chart.
type ChartEvent struct {
	ChartID   string    `json:"chart_id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
