// Package orchestrator turns one chat submission into a classified category,
// a pipeline animation run, and an answer. Greetings are answered locally
// after a short think delay; everything else goes through one retrieval
// backend exchange.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/incintel/incintel/internal/classify"
	"github.com/incintel/incintel/internal/flow"
	"github.com/incintel/incintel/internal/logging"
	"github.com/incintel/incintel/internal/rag"
	"github.com/incintel/incintel/pkg/schema"
)

const (
	defaultThinkDelay = 600 * time.Millisecond
	defaultCacheSize  = 128
	dataSourceLabel   = "incident-store"
)

// AnswerClient is the retrieval backend dependency.
type AnswerClient interface {
	Ask(ctx context.Context, query string, history []schema.ChatMessage) (*rag.Answer, error)
}

type cachedAnswer struct {
	text        string
	contextSize *int
	refs        []string
}

// Orchestrator serializes chat submissions. A later Submit supersedes an
// in-flight one: its context is cancelled and the flow engine starts a
// fresh run.
type Orchestrator struct {
	engine *flow.Engine
	client AnswerClient
	logger *slog.Logger
	cache  *lru.Cache[string, cachedAnswer]

	thinkDelay time.Duration

	mu      sync.Mutex
	gen     uint64
	pending bool
	cancel  context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithThinkDelay overrides the simulated greeting think time.
func WithThinkDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.thinkDelay = d }
}

// New creates an Orchestrator.
func New(engine *flow.Engine, client AnswerClient, logger *slog.Logger, opts ...Option) *Orchestrator {
	cache, _ := lru.New[string, cachedAnswer](defaultCacheSize)
	o := &Orchestrator{
		engine:     engine,
		client:     client,
		logger:     logger,
		cache:      cache,
		thinkDelay: defaultThinkDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Pending reports whether a submission is currently being answered.
func (o *Orchestrator) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Submit answers one chat message. The returned response always carries the
// measured end-to-end latency, artificial delays included. A backend failure
// yields the fixed failure text, never an error; the animation is unaffected
// and re-submission is the only retry.
func (o *Orchestrator) Submit(ctx context.Context, question string, history []schema.ChatMessage) (*schema.ChatResponse, error) {
	start := time.Now()
	category := classify.Classify(question)

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	subCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.gen++
	gen := o.gen
	o.pending = true
	o.mu.Unlock()

	// The pending flag clears on every exit path; a superseded submission
	// must not clear state owned by its successor.
	defer func() {
		cancel()
		o.mu.Lock()
		if o.gen == gen {
			o.pending = false
			o.cancel = nil
		}
		o.mu.Unlock()
	}()

	// The animation must outlive this request's deadline.
	run := o.engine.Start(context.WithoutCancel(ctx), category)

	subCtx = logging.WithRunID(subCtx, run.ID)
	subCtx = logging.WithCategory(subCtx, string(category))
	o.logger.InfoContext(subCtx, "submission classified")

	resp := &schema.ChatResponse{RunID: run.ID}

	if category == schema.CategoryGreeting {
		select {
		case <-subCtx.Done():
			return nil, schema.NewError(schema.ErrCodeCancelled, "submission superseded").WithRun(run.ID)
		case <-time.After(o.thinkDelay):
		}
		resp.Response = classify.Respond(question)
	} else {
		o.answer(subCtx, category, question, history, resp)
		if err := subCtx.Err(); err != nil {
			return nil, schema.NewError(schema.ErrCodeCancelled, "submission superseded").WithRun(run.ID)
		}
	}

	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.LatencyMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (o *Orchestrator) answer(ctx context.Context, category schema.Category, question string, history []schema.ChatMessage, resp *schema.ChatResponse) {
	cacheKey := string(category) + "|" + rag.Enhance(question)

	// Follow-up questions depend on the conversation, so only fresh
	// threads may hit the cache.
	if len(history) == 0 {
		if hit, ok := o.cache.Get(cacheKey); ok {
			o.logger.DebugContext(ctx, "answer cache hit")
			resp.Response = hit.text
			resp.Mode = category.Mode()
			resp.DataSource = dataSourceLabel
			resp.ContextSize = hit.contextSize
			resp.IncidentRefs = hit.refs
			return
		}
	}

	answer, err := o.client.Ask(ctx, question, history)
	if err != nil {
		o.logger.ErrorContext(ctx, "retrieval exchange failed", "error", err)
		resp.Response = schema.FailureResponseText
		return
	}

	resp.Response = answer.Text
	resp.Mode = category.Mode()
	resp.DataSource = dataSourceLabel
	resp.ContextSize = answer.ContextSize
	resp.IncidentRefs = answer.IncidentRefs

	if len(history) == 0 {
		o.cache.Add(cacheKey, cachedAnswer{
			text:        answer.Text,
			contextSize: answer.ContextSize,
			refs:        answer.IncidentRefs,
		})
	}
}
