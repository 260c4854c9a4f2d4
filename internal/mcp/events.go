// events.go forwards indexing session callbacks to the front end as one-way
// MCP notifications. The payload field names are part of the UI contract and
// must not change.

package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/boswecw/cortex/internal/indexer"
)

// notifier adapts indexer.Events onto the MCP notification stream.
type notifier struct {
	srv *server.MCPServer
}

var _ indexer.Events = (*notifier)(nil)

func (n *notifier) Progress(p indexer.Progress) {
	n.srv.SendNotificationToAllClients("indexing:progress", map[string]any{
		"total_files":         p.TotalFiles,
		"indexed_files":       p.FilesIndexed,
		"current_file":        p.CurrentFile,
		"progress_percentage": p.Percentage,
	})
}

func (n *notifier) FileError(e indexer.FileError) {
	n.srv.SendNotificationToAllClients("indexing:error", map[string]any{
		"file_path":     e.Path,
		"error_message": e.Message,
	})
}

func (n *notifier) Complete(s indexer.Summary) {
	errs := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		errs = append(errs, errorString(e))
	}
	n.srv.SendNotificationToAllClients("indexing:complete", map[string]any{
		"total_files":      s.TotalFiles,
		"indexed_files":    s.IndexedFiles,
		"failed_files":     s.FailedFiles,
		"duration_seconds": s.Duration.Seconds(),
		"errors":           errs,
	})
}

// errorString renders a per-file error for the flat string lists the
// complete event and status response carry.
func errorString(e indexer.FileError) string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}
