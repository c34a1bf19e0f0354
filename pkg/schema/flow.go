package schema

// NodeID identifies a stage in the fixed five-node pipeline diagram.
type NodeID string

const (
	NodeClient        NodeID = "client"
	NodeGateway       NodeID = "gateway"
	NodeRetrieval     NodeID = "retrieval-engine"
	NodeLanguageModel NodeID = "language-model"
	NodeDataStore     NodeID = "data-store"
)

// PipelineNodes lists all pipeline stages. The topology never changes at
// runtime; only per-node and per-edge status does.
var PipelineNodes = []NodeID{NodeClient, NodeGateway, NodeRetrieval, NodeLanguageModel, NodeDataStore}

// EdgeKind is the semantic role of a directed pipeline edge.
type EdgeKind string

const (
	EdgeRequest     EdgeKind = "request"      // client -> gateway
	EdgeAIQuery     EdgeKind = "ai-query"     // gateway -> retrieval-engine
	EdgePrompt      EdgeKind = "prompt"       // retrieval-engine -> language-model
	EdgeWrite       EdgeKind = "write"        // gateway -> data-store
	EdgeReadContext EdgeKind = "read-context" // retrieval-engine -> data-store
)

// NodeStatus represents the lifecycle state of a pipeline node within one
// flow run. All nodes start idle; path nodes go idle -> active -> completed,
// off-path nodes go idle -> skipped. Completed and skipped are terminal for
// the run; a new run resets everything to idle first.
type NodeStatus string

const (
	NodeStatusIdle      NodeStatus = "idle"
	NodeStatusActive    NodeStatus = "active"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// Terminal reports whether the status is terminal for a single run.
func (s NodeStatus) Terminal() bool {
	return s == NodeStatusCompleted || s == NodeStatusSkipped
}

// ValidNodeTransitions defines the allowed per-run node status transitions.
var ValidNodeTransitions = map[NodeStatus][]NodeStatus{
	NodeStatusIdle:      {NodeStatusActive, NodeStatusSkipped},
	NodeStatusActive:    {NodeStatusCompleted},
	NodeStatusCompleted: {},
	NodeStatusSkipped:   {},
}

// EdgeHighlight is the derived visual weight of an edge: a pure function of
// (activated, category, edge kind). Clients map these to colors.
type EdgeHighlight string

const (
	HighlightDim   EdgeHighlight = "dim"   // not activated in this run
	HighlightGreen EdgeHighlight = "green" // activated, default tint
	HighlightAmber EdgeHighlight = "amber" // activated write edge on the crud path
	HighlightBlue  EdgeHighlight = "blue"  // activated write edge on the keyword path
)

// HighlightFor returns the highlight for an edge of the given kind under the
// given category. Only activated edges should be passed here; callers use
// HighlightDim for everything else.
func HighlightFor(category Category, kind EdgeKind) EdgeHighlight {
	if kind == EdgeWrite {
		switch category {
		case CategoryCRUD:
			return HighlightAmber
		case CategoryKeyword:
			return HighlightBlue
		}
	}
	return HighlightGreen
}
