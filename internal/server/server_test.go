package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medcp/medcp/internal/audit"
	"github.com/medcp/medcp/internal/config"
	"github.com/medcp/medcp/testutil"
)

func graphConfig() *config.GraphConfig {
	return &config.GraphConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "secret",
		Database: "neo4j",
	}
}

func clinicalConfig() *config.ClinicalConfig {
	return &config.ClinicalConfig{
		// port 1 so any accidental connection attempt fails immediately
		Server:   "127.0.0.1:1",
		Database: "EHR",
		Username: "reader",
		Password: "secret",
	}
}

func toolNames(s *Server) []string {
	names := make([]string, 0, len(s.Tools()))
	for _, tool := range s.Tools() {
		names = append(names, tool.Tool.Name)
	}
	return names
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text
}

func TestNew_NoBackends(t *testing.T) {
	_, err := New(config.Config{}, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrNoBackends)
}

func TestNew_ClinicalOnly(t *testing.T) {
	s, err := New(config.Config{Clinical: clinicalConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, []string{"query_clinical_records", "list_clinical_tables"}, toolNames(s))
}

func TestNew_BothBackends(t *testing.T) {
	s, err := New(config.Config{Graph: graphConfig(), Clinical: clinicalConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, []string{
		"get_knowledge_graph_schema",
		"query_knowledge_graph",
		"query_clinical_records",
		"list_clinical_tables",
	}, toolNames(s))
}

func TestNew_NamespacePrefix(t *testing.T) {
	s, err := New(config.Config{Clinical: clinicalConfig(), Namespace: "medcp"}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, []string{"medcp-query_clinical_records", "medcp-list_clinical_tables"}, toolNames(s))
}

// A graph driver that fails to construct is skipped, not fatal, as long as
// another backend remains.
func TestNew_BadGraphURISkipped(t *testing.T) {
	badGraph := graphConfig()
	badGraph.URI = "://not-a-uri"

	s, err := New(config.Config{Graph: badGraph, Clinical: clinicalConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())
	assert.Equal(t, []string{"query_clinical_records", "list_clinical_tables"}, toolNames(s))

	_, err = New(config.Config{Graph: badGraph}, zap.NewNop())
	assert.Error(t, err)
}

func TestHandleClinicalQuery_RejectedBeforeConnection(t *testing.T) {
	s, err := New(config.Config{Clinical: clinicalConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	result, err := s.handleClinicalQuery(context.Background(), testutil.NewCallToolRequest(map[string]interface{}{
		"sql_query": "DELETE FROM Patients",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Only SELECT queries are allowed")
}

func TestHandleClinicalQuery_MissingArgument(t *testing.T) {
	s, err := New(config.Config{Clinical: clinicalConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	result, err := s.handleClinicalQuery(context.Background(), testutil.NewCallToolRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGraphQuery_WriteRejectedBeforeSession(t *testing.T) {
	s, err := New(config.Config{Graph: graphConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	result, err := s.handleGraphQuery(context.Background(), testutil.NewCallToolRequest(map[string]interface{}{
		"cypher_query": "CREATE (n:Drug {name: 'x'})",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Only read queries")
}

// A parameters argument that is not an object is rejected rather than
// silently running the query without bindings.
func TestHandleGraphQuery_BadParametersType(t *testing.T) {
	s, err := New(config.Config{Graph: graphConfig()}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	result, err := s.handleGraphQuery(context.Background(), testutil.NewCallToolRequest(map[string]interface{}{
		"cypher_query": "MATCH (n:Drug {name: $name}) RETURN n",
		"parameters":   "name=aspirin",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "parameters must be an object")
}

func TestRejectionIsAudited(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "audit.db")
	s, err := New(config.Config{Clinical: clinicalConfig(), AuditPath: auditPath}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, err = s.handleClinicalQuery(context.Background(), testutil.NewCallToolRequest(map[string]interface{}{
		"sql_query": "DROP TABLE Patients",
	}))
	require.NoError(t, err)

	entries, err := s.audit.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "query_clinical_records", entries[0].Tool)
	assert.Equal(t, audit.VerdictRejected, entries[0].Verdict)
	assert.Equal(t, "disallowed-statement", entries[0].Reason)
}
