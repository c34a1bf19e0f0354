// Package rag talks to the retrieval backend: it expands the user query,
// wraps it in a field-semantics prompt, and distills the JSON reply into an
// answer with cited incident IDs and a context-size estimate.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/incintel/incintel/internal/expressions"
	"github.com/incintel/incintel/pkg/schema"
)

const (
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
	defaultTimeout         = 120 * time.Second
)

// Client queries the retrieval backend over HTTP.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	logger          *slog.Logger
	jq              *expressions.GoJQEngine
	maxResponseBody int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the request timeout. The default is generous
// because the backend proxies a cloud language model.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a retrieval client for the given backend URL.
func NewClient(baseURL string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		logger:          logger,
		jq:              expressions.NewGoJQEngine(),
		maxResponseBody: defaultMaxResponseBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Ping checks that the retrieval backend is reachable. Any HTTP response
// counts as alive; only transport failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "build retrieval ping").WithCause(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeUpstream,
			"retrieval backend unreachable at %s", c.baseURL).WithCause(err)
	}
	resp.Body.Close()
	return nil
}

// Ask sends the query to the retrieval backend and distills its reply.
func (c *Client) Ask(ctx context.Context, query string, history []schema.ChatMessage) (*Answer, error) {
	prompt := BuildPrompt(query, history)

	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "marshal prompt").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "build retrieval request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeUpstream,
			"retrieval backend unreachable at %s", c.baseURL).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBody))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeUpstream, "read retrieval response").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, schema.NewErrorf(schema.ErrCodeUpstream,
			"retrieval backend returned status %d", resp.StatusCode).
			WithDetails(map[string]any{"body": truncate(string(raw), 512)})
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, schema.NewError(schema.ErrCodeUpstream, "decode retrieval response").WithCause(err)
	}

	text, _ := data["response"].(string)
	if text == "" {
		text = "No response from RAG"
	}

	refs := CanonicalRefs(text)
	if legacy := LegacyRefs(text); len(legacy) > 0 {
		// Legacy IDs mean the retrieval index is serving stale records.
		c.logger.WarnContext(ctx, "legacy incident ids in retrieval reply",
			"legacy_ids", legacy, "query", query)
	}

	return &Answer{
		Text:         text,
		IncidentRefs: refs,
		ContextSize:  contextSize(ctx, c.jq, data, text, refs),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes total)", s[:n], len(s))
}
