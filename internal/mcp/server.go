// Package mcp implements the command/event façade over the indexing core.
// The front end talks to Cortex over an MCP stdio transport: commands are
// tool calls with JSON argument bags, and indexing feedback flows back as
// one-way notifications.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/boswecw/cortex/internal/config"
	"github.com/boswecw/cortex/internal/indexer"
	"github.com/boswecw/cortex/internal/search"
	"github.com/boswecw/cortex/internal/store"
)

// Version is advertised to clients for capability negotiation.
const Version = "1.0.0"

// Serve opens the store, wires the coordinator and the query engine, and
// runs the MCP server over stdio until the client disconnects.
func Serve(cfg *config.Config) error {
	// Log to stderr; stdout is reserved for MCP JSON-RPC messages.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Checkpoint(context.Background()); err != nil {
			slog.Warn("checkpoint on shutdown failed", "error", err)
		}
		st.Close()
	}()

	if err := st.Init(); err != nil {
		return fmt.Errorf("initialise store: %w", err)
	}

	s := server.NewMCPServer("cortex", Version,
		server.WithToolCapabilities(true),
	)

	dataDir, err := cfg.EffectiveDataDir()
	if err != nil {
		return err
	}

	ix := indexer.New(st, indexer.Config{
		MaxFileSize:  cfg.EffectiveMaxFileSize(),
		ExcludeGlobs: cfg.ExcludePatterns,
		DataDir:      dataDir,
	}, &notifier{srv: s})

	h := &handlers{
		indexer: ix,
		engine:  search.New(st, st),
	}
	registerTools(s, h)

	slog.Info("cortex MCP server ready", "version", Version, "db", dbPath)

	err = server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		err = nil
	}

	// A session left running drains at its next checkpoint.
	if ix.Running() {
		_ = ix.Stop()
		ix.Wait()
	}
	return err
}

// handlers provides MCP request handlers with access to the coordinator and
// the query engine.
type handlers struct {
	indexer *indexer.Indexer
	engine  *search.Engine
}
