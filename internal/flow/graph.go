package flow

import "github.com/incintel/incintel/pkg/schema"

// Edge is a directed pipeline edge with a semantic role. The topology below
// is fixed configuration; runs only ever change per-node and per-edge status.
type Edge struct {
	From schema.NodeID   `json:"from"`
	To   schema.NodeID   `json:"to"`
	Kind schema.EdgeKind `json:"kind"`
}

// PipelineEdges is the full edge set of the five-node pipeline diagram.
var PipelineEdges = []Edge{
	{From: schema.NodeClient, To: schema.NodeGateway, Kind: schema.EdgeRequest},
	{From: schema.NodeGateway, To: schema.NodeRetrieval, Kind: schema.EdgeAIQuery},
	{From: schema.NodeGateway, To: schema.NodeDataStore, Kind: schema.EdgeWrite},
	{From: schema.NodeRetrieval, To: schema.NodeDataStore, Kind: schema.EdgeReadContext},
	{From: schema.NodeRetrieval, To: schema.NodeLanguageModel, Kind: schema.EdgePrompt},
}

// Step is one animation step: a node to activate plus the edge it was
// reached through. The first step of every path has no edge.
type Step struct {
	Node schema.NodeID
	Edge *Edge
}

func edgeOf(kind schema.EdgeKind) *Edge {
	for i := range PipelineEdges {
		if PipelineEdges[i].Kind == kind {
			return &PipelineEdges[i]
		}
	}
	return nil
}

// categoryPaths maps each routing category to its fixed ordered step
// sequence. Encoded as data so the state machine stays testable without any
// rendering layer.
var categoryPaths = map[schema.Category][]Step{
	schema.CategoryGreeting: {
		{Node: schema.NodeClient},
	},
	schema.CategoryKeyword: {
		{Node: schema.NodeClient},
		{Node: schema.NodeGateway, Edge: edgeOf(schema.EdgeRequest)},
		{Node: schema.NodeDataStore, Edge: edgeOf(schema.EdgeWrite)},
	},
	schema.CategoryCRUD: {
		{Node: schema.NodeClient},
		{Node: schema.NodeGateway, Edge: edgeOf(schema.EdgeRequest)},
		{Node: schema.NodeDataStore, Edge: edgeOf(schema.EdgeWrite)},
	},
	schema.CategoryReasoning: {
		{Node: schema.NodeClient},
		{Node: schema.NodeGateway, Edge: edgeOf(schema.EdgeRequest)},
		{Node: schema.NodeRetrieval, Edge: edgeOf(schema.EdgeAIQuery)},
		{Node: schema.NodeDataStore, Edge: edgeOf(schema.EdgeReadContext)},
		{Node: schema.NodeLanguageModel, Edge: edgeOf(schema.EdgePrompt)},
	},
}

// PathFor returns the ordered step sequence for a category. Unknown
// categories route like reasoning, matching the classifier's default.
func PathFor(category schema.Category) []Step {
	if path, ok := categoryPaths[category]; ok {
		return path
	}
	return categoryPaths[schema.CategoryReasoning]
}

// ActiveNodes returns the set of nodes on a category's path.
func ActiveNodes(category schema.Category) map[schema.NodeID]bool {
	steps := PathFor(category)
	nodes := make(map[schema.NodeID]bool, len(steps))
	for _, s := range steps {
		nodes[s.Node] = true
	}
	return nodes
}
