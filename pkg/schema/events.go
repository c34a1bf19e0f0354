package schema

// Event type constants for the streaming hub and the audit log.
const (
	// Push-channel lifecycle.
	EventConnected = "connected"

	// Incident mutations, broadcast to dashboard clients.
	EventIncidentCreated = "incident_created"
	EventIncidentUpdated = "incident_updated"
	EventIncidentDeleted = "incident_deleted"

	// Flow run lifecycle, one clean sequence per submission.
	EventFlowStarted       = "flow_started"
	EventFlowNodeActive    = "flow_node_active"
	EventFlowNodeCompleted = "flow_node_completed"
	EventFlowEdgeActivated = "flow_edge_activated"
	EventFlowCompleted     = "flow_completed"
	EventFlowSuperseded    = "flow_superseded"
)
