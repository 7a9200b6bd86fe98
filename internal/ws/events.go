package ws

import (
	"encoding/json"
	"time"
)

// Event is the structured message sent to WebSocket clients. Data carries a
// job snapshot; clients receiving an event they do not understand should
// ignore it.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}
