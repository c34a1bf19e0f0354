package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/pkg/schema"
)

var flowEventTypes = []string{
	schema.EventFlowStarted,
	schema.EventFlowNodeActive,
	schema.EventFlowNodeCompleted,
	schema.EventFlowEdgeActivated,
	schema.EventFlowCompleted,
	schema.EventFlowSuperseded,
}

// handleSSEFlows streams pipeline animation events. An optional `run`
// query narrows to one run, `expr` adds a CEL predicate.
func (s *Server) handleSSEFlows(w http.ResponseWriter, r *http.Request) {
	s.serveSSE(w, r, streaming.EventFilter{
		RunID:      r.URL.Query().Get("run"),
		EventTypes: flowEventTypes,
		Expression: r.URL.Query().Get("expr"),
	})
}

// serveSSE is the common SSE implementation.
func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, filter streaming.EventFilter) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel, err := s.deps.Hub.Subscribe(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
