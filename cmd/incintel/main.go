package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/incintel/incintel/internal/flow"
	"github.com/incintel/incintel/internal/indexer"
	"github.com/incintel/incintel/internal/logging"
	"github.com/incintel/incintel/internal/orchestrator"
	"github.com/incintel/incintel/internal/rag"
	"github.com/incintel/incintel/internal/server"
	"github.com/incintel/incintel/internal/store"
	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/internal/validation"
	"github.com/incintel/incintel/pkg/mcp"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(incintelDir(), 0o755); err != nil {
		return err
	}

	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	hub := streaming.NewMemoryHub()
	engine := flow.NewEngine(hub, logger)
	ragClient := rag.NewClient(cfg.RAGEndpoint, logger)
	orch := orchestrator.New(engine, ragClient, logger,
		orchestrator.WithThinkDelay(time.Duration(cfg.ThinkDelayMs)*time.Millisecond))

	validator, err := validation.NewPayloadValidator()
	if err != nil {
		return err
	}

	// "incintel mcp" exposes the same store and orchestrator over stdio
	// instead of the HTTP API.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		intel := mcp.NewIntelServer(mcp.IntelServerDeps{
			Store:        st,
			Orchestrator: orch,
			Logger:       logger,
		})
		logger.Info("incintel mcp server on stdio", "rag", cfg.RAGEndpoint)
		return intel.Serve(ctx)
	}

	ix, err := indexer.NewIndexer(st, cfg.IndexDir, logger,
		indexer.WithSchedule(cfg.IndexSchedule))
	if err != nil {
		return err
	}
	if err := ix.Start(ctx); err != nil {
		return err
	}
	defer ix.Stop()

	srv := server.NewServer(server.Deps{
		Store:          st,
		Orchestrator:   orch,
		Engine:         engine,
		Hub:            hub,
		Validator:      validator,
		Logger:         logger,
		RetrievalCheck: ragClient.Ping,
	})

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("incintel listening", "addr", cfg.ListenAddr, "rag", cfg.RAGEndpoint)
		if serveErr := httpSrv.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(handler))
}
