// Package flow drives the five-node pipeline animation for one submission
// at a time. Each run is guarded by a monotonically increasing sequence
// number: a newer run hard-resets the shared node/edge state, cancels the
// prior run's timers, and any write from a stale run is discarded, so every
// submission yields one clean, isolated animation.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/incintel/incintel/internal/logging"
	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/pkg/schema"
)

const defaultStepDelay = 400 * time.Millisecond

// Snapshot is a copy of the engine's node/edge state at one point in time.
type Snapshot struct {
	RunID     string                                   `json:"run_id"`
	Sequence  uint64                                   `json:"sequence"`
	Category  schema.Category                          `json:"category"`
	Nodes     map[schema.NodeID]schema.NodeStatus      `json:"nodes"`
	Edges     map[schema.EdgeKind]schema.EdgeHighlight `json:"edges"`
	StepIndex int                                      `json:"step_index"`
	Done      bool                                     `json:"done"`
	StartedAt time.Time                                `json:"started_at"`
}

// Run is a handle to one started animation. Done is closed when the run
// completes or is superseded or cancelled.
type Run struct {
	ID       string
	Sequence uint64
	Category schema.Category

	done chan struct{}
}

// Done returns a channel closed when the run finishes.
func (r *Run) Done() <-chan struct{} { return r.done }

// Engine owns the shared pipeline state. Safe for concurrent use; exactly
// one run animates at a time.
type Engine struct {
	hub       streaming.EventHub
	logger    *slog.Logger
	stepDelay time.Duration

	mu        sync.Mutex
	seq       uint64
	runID     string
	category  schema.Category
	nodes     map[schema.NodeID]schema.NodeStatus
	edges     map[schema.EdgeKind]schema.EdgeHighlight
	stepIndex int
	done      bool
	startedAt time.Time
	cancel    context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithStepDelay overrides the per-step suspension (default 400ms).
func WithStepDelay(d time.Duration) Option {
	return func(e *Engine) { e.stepDelay = d }
}

// NewEngine creates an Engine publishing step events to the given hub.
func NewEngine(hub streaming.EventHub, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		hub:       hub,
		logger:    logger,
		stepDelay: defaultStepDelay,
		nodes:     idleNodes(),
		edges:     dimEdges(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

func idleNodes() map[schema.NodeID]schema.NodeStatus {
	nodes := make(map[schema.NodeID]schema.NodeStatus, len(schema.PipelineNodes))
	for _, n := range schema.PipelineNodes {
		nodes[n] = schema.NodeStatusIdle
	}
	return nodes
}

func dimEdges() map[schema.EdgeKind]schema.EdgeHighlight {
	edges := make(map[schema.EdgeKind]schema.EdgeHighlight, len(PipelineEdges))
	for _, e := range PipelineEdges {
		edges[e.Kind] = schema.HighlightDim
	}
	return edges
}

// Start begins a new animation run for the category. Any in-flight run is
// superseded: its context is cancelled and its pending writes are discarded
// by the sequence guard. The caller should pass a service-lifetime context,
// not a per-request one, so the animation outlives the HTTP exchange.
func (e *Engine) Start(ctx context.Context, category schema.Category) *Run {
	e.mu.Lock()

	if e.cancel != nil && !e.done {
		e.cancel()
		e.publishLocked(streaming.StreamEvent{
			Type:  schema.EventFlowSuperseded,
			RunID: e.runID,
		})
	}

	runCtx, cancel := context.WithCancel(ctx)

	e.seq++
	e.runID = uuid.New().String()
	e.category = category
	e.nodes = idleNodes()
	e.edges = dimEdges()
	e.stepIndex = 0
	e.done = false
	e.startedAt = time.Now().UTC()
	e.cancel = cancel

	run := &Run{
		ID:       e.runID,
		Sequence: e.seq,
		Category: category,
		done:     make(chan struct{}),
	}

	e.publishLocked(streaming.StreamEvent{
		Type:    schema.EventFlowStarted,
		RunID:   run.ID,
		Payload: map[string]any{"category": string(category)},
	})
	e.mu.Unlock()

	go e.animate(runCtx, run)
	return run
}

// animate walks the category's step sequence. Every mutation goes through
// apply, which drops writes from superseded runs.
func (e *Engine) animate(ctx context.Context, run *Run) {
	defer close(run.done)

	log := e.logger
	ctx = logging.WithRunID(ctx, run.ID)
	ctx = logging.WithCategory(ctx, string(run.Category))

	path := PathFor(run.Category)
	active := ActiveNodes(run.Category)

	for i, step := range path {
		ok := e.apply(run.Sequence, func() {
			e.stepIndex = i + 1
			e.nodes[step.Node] = schema.NodeStatusActive
			// Off-path nodes are re-marked skipped on every step; idempotent.
			for _, n := range schema.PipelineNodes {
				if !active[n] {
					e.nodes[n] = schema.NodeStatusSkipped
				}
			}
			e.publishLocked(streaming.StreamEvent{
				Type:    schema.EventFlowNodeActive,
				RunID:   run.ID,
				Payload: map[string]any{"node": string(step.Node), "step": i + 1},
			})
			if step.Edge != nil {
				e.edges[step.Edge.Kind] = schema.HighlightFor(run.Category, step.Edge.Kind)
				e.publishLocked(streaming.StreamEvent{
					Type:  schema.EventFlowEdgeActivated,
					RunID: run.ID,
					Payload: map[string]any{
						"edge":      string(step.Edge.Kind),
						"highlight": string(e.edges[step.Edge.Kind]),
					},
				})
			}
		})
		if !ok {
			return
		}

		select {
		case <-ctx.Done():
			log.DebugContext(ctx, "flow run cancelled", "node", step.Node)
			return
		case <-time.After(e.stepDelay):
		}

		if !e.apply(run.Sequence, func() {
			e.nodes[step.Node] = schema.NodeStatusCompleted
			e.publishLocked(streaming.StreamEvent{
				Type:    schema.EventFlowNodeCompleted,
				RunID:   run.ID,
				Payload: map[string]any{"node": string(step.Node), "step": i + 1},
			})
		}) {
			return
		}
	}

	if e.apply(run.Sequence, func() {
		e.done = true
		e.publishLocked(streaming.StreamEvent{
			Type:    schema.EventFlowCompleted,
			RunID:   run.ID,
			Payload: map[string]any{"category": string(run.Category)},
		})
	}) {
		log.InfoContext(ctx, "flow run completed", "steps", len(path))
	}
}

// apply executes mutate under the engine lock iff the given sequence is
// still current. Returns false when the run has been superseded.
func (e *Engine) apply(seq uint64, mutate func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		return false
	}
	mutate()
	return true
}

// publishLocked emits a hub event; callers hold e.mu. Publishing is
// non-blocking at the hub so holding the lock is safe.
func (e *Engine) publishLocked(event streaming.StreamEvent) {
	if e.hub == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	_ = e.hub.Publish(context.Background(), event)
}

// Snapshot returns a copy of the current node/edge state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	nodes := make(map[schema.NodeID]schema.NodeStatus, len(e.nodes))
	for k, v := range e.nodes {
		nodes[k] = v
	}
	edges := make(map[schema.EdgeKind]schema.EdgeHighlight, len(e.edges))
	for k, v := range e.edges {
		edges[k] = v
	}
	return Snapshot{
		RunID:     e.runID,
		Sequence:  e.seq,
		Category:  e.category,
		Nodes:     nodes,
		Edges:     edges,
		StepIndex: e.stepIndex,
		Done:      e.done,
		StartedAt: e.startedAt,
	}
}
