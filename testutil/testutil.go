package testutil

import (
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/medcp/medcp/internal/audit"
)

// SetupAuditStore creates a temporary audit store and returns it.
func SetupAuditStore(t *testing.T) *audit.Store {
	t.Helper()
	store, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// NewCallToolRequest builds an MCP tool-call request with the given arguments.
func NewCallToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}
