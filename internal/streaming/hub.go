package streaming

import (
	"context"
	"time"
)

// StreamEvent is a real-time event emitted by the flow engine, the
// orchestrator, or the incident API. Dashboard clients receive it over
// SSE or the websocket push channel.
type StreamEvent struct {
	Type       string         `json:"type"`
	RunID      string         `json:"run_id,omitempty"`
	IncidentID string         `json:"incident_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// EventFilter specifies which events a subscriber wants to receive.
// Expression is an optional CEL predicate evaluated against a single
// `event` variable, e.g. `event.type == "incident_created"`.
type EventFilter struct {
	RunID      string   `json:"run_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// EventHub provides pub/sub for real-time dashboard events.
type EventHub interface {
	Publish(ctx context.Context, event StreamEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error)
}
