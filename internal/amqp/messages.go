package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by entity events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// EntityEvent announces a write to one entity. It carries only the kind, ID
// and action; consumers that need the full record fetch it from the store.
type EntityEvent struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntityEvent creates an event stamped with the current time.
func NewEntityEvent(kind, id, action string) *EntityEvent {
	return &EntityEvent{
		Kind:      kind,
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *EntityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntityEventFromJSON decodes an event from JSON bytes.
func EntityEventFromJSON(data []byte) (*EntityEvent, error) {
	var ev EntityEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
