// tools.go registers the command surface and implements its handlers.
//
// Design: state-machine violations, invalid queries, and missing documents
// are user errors returned as tool-error strings, never transport failures.
// Query-side failures are returned to the caller verbatim — the core never
// swallows a search failure.

package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/boswecw/cortex/internal/search"
	"github.com/boswecw/cortex/internal/store"
)

func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("start_indexing",
			mcp.WithDescription("Start a background indexing session over the given root directories. Fails if a session is already active."),
			mcp.WithArray("paths", mcp.Required(),
				mcp.Description("Absolute paths of directories to index"),
				mcp.Items(map[string]any{"type": "string"})),
		),
		h.startIndexing,
	)

	s.AddTool(
		mcp.NewTool("stop_indexing",
			mcp.WithDescription("Request cooperative cancellation of the running session. The current file finishes; committed work stays searchable."),
		),
		h.stopIndexing,
	)

	s.AddTool(
		mcp.NewTool("get_index_status",
			mcp.WithDescription("Return whether indexing is running, the current progress, and accumulated per-file errors. Safe to poll."),
		),
		h.indexStatus,
	)

	s.AddTool(
		mcp.NewTool("search_files",
			mcp.WithDescription("Full-text search over indexed files. Supports AND (implicit), OR, NOT, \"phrase\" and prefix* syntax."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			mcp.WithString("file_type", mcp.Description("Exact match on lowercased extension")),
			mcp.WithNumber("min_size", mcp.Description("Inclusive lower size bound in bytes")),
			mcp.WithNumber("max_size", mcp.Description("Inclusive upper size bound in bytes; 0 means unbounded")),
			mcp.WithString("date_from", mcp.Description("Inclusive ISO-8601 lower bound on modification time")),
			mcp.WithString("date_to", mcp.Description("Inclusive ISO-8601 upper bound on modification time")),
			mcp.WithNumber("limit", mcp.Description("Page size, clamped to [1,1000], default 50")),
			mcp.WithNumber("offset", mcp.Description("Page start, default 0")),
		),
		h.searchFiles,
	)

	s.AddTool(
		mcp.NewTool("get_file_detail",
			mcp.WithDescription("Return one document's metadata and content preview, optionally with the full extracted text."),
			mcp.WithNumber("file_id", mcp.Required(), mcp.Description("Document identifier")),
			mcp.WithBoolean("include_full_content", mcp.Description("Also return the full extracted text")),
		),
		h.fileDetail,
	)

	s.AddTool(
		mcp.NewTool("get_search_stats",
			mcp.WithDescription("Return aggregate index statistics."),
		),
		h.searchStats,
	)
}

func (h *handlers) startIndexing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := getStringSlice(req, "paths")
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is required and must not be empty"), nil
	}

	// The session must outlive this request; its lifetime belongs to the
	// server, not the tool call.
	if err := h.indexer.Start(context.WithoutCancel(ctx), paths); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"started": true})
}

func (h *handlers) stopIndexing(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.indexer.Stop(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"message": "Indexing stopped"})
}

func (h *handlers) indexStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	running, prog, errs := h.indexer.Status()

	errList := make([]string, 0, len(errs))
	for _, e := range errs {
		errList = append(errList, errorString(e))
	}

	resp := map[string]any{
		"is_indexing": running,
		"errors":      errList,
	}
	if running || prog.TotalFiles > 0 {
		resp["progress"] = map[string]any{
			"total_files":         prog.TotalFiles,
			"indexed_files":       prog.FilesIndexed,
			"current_file":        prog.CurrentFile,
			"progress_percentage": prog.Percentage,
		}
	}
	return jsonResult(resp)
}

func (h *handlers) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil //nolint:nilerr
	}

	filters := store.Filters{
		FileType: getString(req, "file_type", ""),
		MinSize:  int64(getInt(req, "min_size", 0)),
		MaxSize:  int64(getInt(req, "max_size", 0)),
	}
	if from := getString(req, "date_from", ""); from != "" {
		t, err := parseDate(from, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filters.DateFrom = t
	}
	if to := getString(req, "date_to", ""); to != "" {
		t, err := parseDate(to, true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filters.DateTo = t
	}

	limit := getInt(req, "limit", search.DefaultLimit)
	if limit < 1 {
		limit = 1
	}

	res, err := h.engine.Search(ctx, search.Request{
		Query:   query,
		Filters: filters,
		Limit:   limit,
		Offset:  getInt(req, "offset", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hits := make([]store.HitJSON, 0, len(res.Results))
	for i := range res.Results {
		hits = append(hits, res.Results[i].ToJSON())
	}
	return jsonResult(map[string]any{
		"results":       hits,
		"total":         res.Total,
		"query_time_ms": res.QueryTimeMs,
	})
}

func (h *handlers) fileDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID := getInt(req, "file_id", 0)
	if fileID <= 0 {
		return mcp.NewToolResultError("file_id is required"), nil
	}

	detail, err := h.engine.Detail(ctx, int64(fileID), getBool(req, "include_full_content", false))
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("file not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail.ToJSON())
}

func (h *handlers) searchStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.engine.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"total_files":      st.TotalFiles,
		"indexed_files":    st.IndexedFiles,
		"total_size_bytes": st.TotalSizeBytes,
	})
}

// parseDate accepts full RFC3339 timestamps or bare dates. A bare date used
// as an upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date, expected ISO-8601: " + s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.UTC(), nil
}
