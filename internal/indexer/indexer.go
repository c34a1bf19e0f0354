// Package indexer mirrors the incident store into a directory of plain-text
// documents for the retrieval backend. Runs on a cron schedule; a content
// hash skips rewrites when nothing changed.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/incintel/incintel/internal/store"
)

const (
	defaultSchedule = "* * * * *"
	placeholderFile = "placeholder.txt"
	placeholderText = "No incidents loaded yet. Waiting for data from the incident store."
)

var (
	canonicalID = regexp.MustCompile(`^INC-\d{8}-\d{6}$`)
	legacyID    = regexp.MustCompile(`^INC-\d+$`)
)

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Written int
	Skipped int
	Pruned  int
	Changed bool
}

// Indexer periodically snapshots the store into text documents.
type Indexer struct {
	store    store.Store
	dir      string
	logger   *slog.Logger
	schedule cron.Schedule

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	inflightMu sync.Mutex
	inflight   bool

	lastHash string

	cacheMu sync.RWMutex
	cached  []*store.Incident
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithSchedule overrides the sync cron expression (default every minute).
func WithSchedule(expr string) Option {
	return func(ix *Indexer) error {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		schedule, err := parser.Parse(expr)
		if err != nil {
			return fmt.Errorf("parse schedule %q: %w", expr, err)
		}
		ix.schedule = schedule
		return nil
	}
}

// NewIndexer creates an Indexer writing documents under dir.
func NewIndexer(s store.Store, dir string, logger *slog.Logger, opts ...Option) (*Indexer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ix := &Indexer{
		store:  s,
		dir:    dir,
		logger: logger,
	}
	if err := WithSchedule(defaultSchedule)(ix); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Start launches the background sync loop. An immediate sync runs first.
func (ix *Indexer) Start(ctx context.Context) error {
	ix.mu.Lock()
	if ix.done != nil {
		ix.mu.Unlock()
		return fmt.Errorf("indexer already started")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel
	ix.done = make(chan struct{})
	ix.mu.Unlock()

	go ix.loop(loopCtx)
	ix.logger.Info("indexer started", "dir", ix.dir)
	return nil
}

// Stop halts the loop and waits for it to exit.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	cancel, done := ix.cancel, ix.done
	ix.cancel, ix.done = nil, nil
	ix.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	ix.logger.Info("indexer stopped")
}

func (ix *Indexer) loop(ctx context.Context) {
	defer close(ix.done)

	if _, err := ix.Sync(ctx); err != nil {
		ix.logger.Error("initial index sync failed", "error", err)
	}

	for {
		next := ix.schedule.Next(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			if _, err := ix.Sync(ctx); err != nil {
				ix.logger.Error("index sync failed", "error", err)
			}
		}
	}
}

// Sync writes the current incident set to the document directory. Concurrent
// calls are deduplicated; a second caller gets a zero result.
func (ix *Indexer) Sync(ctx context.Context) (SyncResult, error) {
	ix.inflightMu.Lock()
	if ix.inflight {
		ix.inflightMu.Unlock()
		ix.logger.Debug("index sync already running")
		return SyncResult{}, nil
	}
	ix.inflight = true
	ix.inflightMu.Unlock()
	defer func() {
		ix.inflightMu.Lock()
		ix.inflight = false
		ix.inflightMu.Unlock()
	}()

	incidents, err := ix.store.ListIncidents(ctx, store.IncidentFilter{})
	if err != nil {
		return SyncResult{}, fmt.Errorf("list incidents: %w", err)
	}

	ix.cacheMu.Lock()
	ix.cached = incidents
	ix.cacheMu.Unlock()

	hash, err := contentHash(incidents)
	if err != nil {
		return SyncResult{}, err
	}
	if hash == ix.lastHash {
		return SyncResult{}, nil
	}

	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return SyncResult{}, fmt.Errorf("create docs dir: %w", err)
	}

	result := SyncResult{Changed: true}
	current := make(map[string]bool, len(incidents)+1)

	if len(incidents) == 0 {
		if err := os.WriteFile(filepath.Join(ix.dir, placeholderFile), []byte(placeholderText), 0o644); err != nil {
			return result, fmt.Errorf("write placeholder: %w", err)
		}
		current[placeholderFile] = true
	}

	for _, inc := range incidents {
		if legacyID.MatchString(inc.ID) && !canonicalID.MatchString(inc.ID) {
			ix.logger.Warn("skipping incident with legacy id; migration required", "incident_id", inc.ID)
			result.Skipped++
			continue
		}
		name := inc.ID + ".txt"
		if err := os.WriteFile(filepath.Join(ix.dir, name), []byte(FormatIncident(inc)), 0o644); err != nil {
			return result, fmt.Errorf("write %s: %w", name, err)
		}
		current[name] = true
		result.Written++
	}

	pruned, err := ix.prune(current)
	if err != nil {
		return result, err
	}
	result.Pruned = pruned

	ix.lastHash = hash
	ix.logger.Info("index sync complete",
		"written", result.Written, "skipped", result.Skipped, "pruned", result.Pruned)
	return result, nil
}

// Cached returns the incident set captured by the most recent sync.
func (ix *Indexer) Cached() []*store.Incident {
	ix.cacheMu.RLock()
	defer ix.cacheMu.RUnlock()
	out := make([]*store.Incident, len(ix.cached))
	copy(out, ix.cached)
	return out
}

// prune removes text documents for incidents no longer in the store.
func (ix *Indexer) prune(current map[string]bool) (int, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		return 0, fmt.Errorf("read docs dir: %w", err)
	}
	pruned := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") || current[name] {
			continue
		}
		if err := os.Remove(filepath.Join(ix.dir, name)); err != nil {
			return pruned, fmt.Errorf("remove %s: %w", name, err)
		}
		pruned++
	}
	return pruned, nil
}

// FormatIncident renders one incident as the plain-text document shape the
// retrieval backend indexes. No internal tags; they confuse the model.
func FormatIncident(inc *store.Incident) string {
	return fmt.Sprintf(`Incident ID: %s
Title: %s
Status: %s
Severity: %s
Location: %s
Description: %s
Timestamp: %s
---`,
		inc.ID,
		orNA(inc.Title),
		orNA(string(inc.Status)),
		orNA(string(inc.Severity)),
		orNA(inc.Location),
		orNA(inc.Description),
		inc.CreatedAt.UTC().Format(time.RFC3339),
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func contentHash(incidents []*store.Incident) (string, error) {
	raw, err := json.Marshal(incidents)
	if err != nil {
		return "", fmt.Errorf("hash incidents: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
