// Package relay fans chart events out to the websocket sessions open on each
// chart and keeps a live mirror of every chart with an open session.
package relay

import "encoding/json"

// MessageType tags a host message.
type MessageType string

const (
	MessageConnectionInit   MessageType = "connection-init"
	MessageChangeStatus     MessageType = "change-status"
	MessageKeepAlive        MessageType = "keep-alive"
	MessageUserAdded        MessageType = "user-added"
	MessageUserChanged      MessageType = "user-changed"
	MessageUserRemoved      MessageType = "user-removed"
	MessageStructureChanged MessageType = "structure-changed"
	MessageChartDeleted     MessageType = "chart-deleted"
	MessageError            MessageType = "error"
)

// Message is the envelope exchanged with websocket clients.
type Message struct {
	Type    MessageType     `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	ChartID string          `json:"chartId"`
}

// InitData is the payload the server answers connection-init with.
type InitData struct {
	ChangesAccepted bool `json:"changesAccepted"`
	Users           int  `json:"users"`
}

func newMessage(t MessageType, chartID string, data interface{}) Message {
	m := Message{Type: t, ChartID: chartID}
	if data != nil {
		if raw, ok := data.(json.RawMessage); ok {
			m.Data = raw
		} else if b, err := json.Marshal(data); err == nil {
			m.Data = b
		}
	}
	return m
}
