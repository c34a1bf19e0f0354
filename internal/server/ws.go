package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/pkg/schema"
)

var incidentEventTypes = []string{
	schema.EventIncidentCreated,
	schema.EventIncidentUpdated,
	schema.EventIncidentDeleted,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`

	Event *streaming.StreamEvent `json:"event,omitempty"`
}

// handleWSIncidents upgrades to a websocket that greets the client, pushes
// incident mutations, and acks any text the client sends.
func (s *Server) handleWSIncidents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel, err := s.deps.Hub.Subscribe(r.Context(), streaming.EventFilter{
		EventTypes: incidentEventTypes,
	})
	if err != nil {
		_ = conn.WriteJSON(wsMessage{
			Type:      "error",
			Message:   "subscription failed",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	defer cancel()

	if err := conn.WriteJSON(wsMessage{
		Type:      schema.EventConnected,
		Message:   "Connected to incident updates",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return
	}

	// Reader: acks client text and detects disconnect.
	incoming := make(chan string)
	go func() {
		defer close(incoming)
		for {
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage {
				select {
				case incoming <- string(msg):
				case <-r.Context().Done():
					return
				}
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			if err := conn.WriteJSON(wsMessage{
				Type:      "ack",
				Message:   msg,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(wsMessage{
				Type:      event.Type,
				Timestamp: event.Timestamp.Format(time.RFC3339),
				Event:     &event,
			}); err != nil {
				return
			}
		}
	}
}
