package schema

// ChatMessage is one prior turn of the assistant conversation.
type ChatMessage struct {
	Sender  string `json:"sender"` // "user" or "ai"
	Message string `json:"message"`
}

// ChatRequest is the payload of POST /api/chat.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is the assistant's answer to one submission.
// Mode, DataSource and ContextSize are passed through from the retrieval
// backend for display; the orchestrator never computes them.
type ChatResponse struct {
	Response     string   `json:"response"`
	Timestamp    string   `json:"timestamp"` // RFC 3339
	Mode         string   `json:"mode,omitempty"`
	DataSource   string   `json:"dataSource,omitempty"`
	ContextSize  *int     `json:"contextSize,omitempty"`
	IncidentRefs []string `json:"incidentRefs,omitempty"`
	LatencyMs    int64    `json:"latencyMs"`
	RunID        string   `json:"runId,omitempty"`
}

// FailureResponseText is the fixed user-visible string shown when the
// backend exchange fails. Re-submission is the only retry path.
const FailureResponseText = "Error: Failed to get response. Please try again."
