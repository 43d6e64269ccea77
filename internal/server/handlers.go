package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/medcp/medcp/internal/audit"
	"github.com/medcp/medcp/internal/clinical"
	"github.com/medcp/medcp/internal/graph"
	"github.com/medcp/medcp/internal/validate"
)

func (s *Server) handleGraphSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	schema, err := s.graph.Schema(ctx)
	if err != nil {
		s.record(toolGraphSchema, "", audit.VerdictError, "", start)
		if graph.IsProcedureNotFound(err) {
			return mcp.NewToolResultError("Knowledge graph APOC plugin not installed. Please install and enable APOC for biomedical knowledge inference."), nil
		}
		s.log.Error("failed to retrieve knowledge graph schema", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Error retrieving biomedical knowledge schema: %v", err)), nil
	}

	s.record(toolGraphSchema, "", audit.VerdictAccepted, "", start)
	return mcp.NewToolResultText(schema), nil
}

func (s *Server) handleGraphQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	cypherQuery, err := req.RequireString("cypher_query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := map[string]any{}
	if raw, ok := req.GetArguments()["parameters"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("parameters must be an object of name/value pairs"), nil
		}
		params = m
	}

	// The gate runs before a session is even opened.
	if validate.IsWriteQuery(cypherQuery) {
		s.record(toolGraphQuery, cypherQuery, audit.VerdictRejected, string(validate.ReasonWriteDetected), start)
		return mcp.NewToolResultError("Only read queries (MATCH, RETURN, etc.) are allowed for knowledge graph queries"), nil
	}

	results, err := s.graph.ReadQuery(ctx, cypherQuery, params)
	if err != nil {
		s.record(toolGraphQuery, cypherQuery, audit.VerdictError, "", start)
		s.log.Error("knowledge graph query failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Biomedical knowledge graph error: %v", err)), nil
	}

	s.log.Debug("knowledge graph query returned", zap.Int("chars", len(results)))
	s.record(toolGraphQuery, cypherQuery, audit.VerdictAccepted, "", start)
	return mcp.NewToolResultText(results), nil
}

func (s *Server) handleClinicalQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	sqlQuery, err := req.RequireString("sql_query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The gate runs before any connection is opened.
	if verdict := validate.CheckClinicalQuery(sqlQuery); !verdict.OK {
		s.record(toolClinicalQuery, sqlQuery, audit.VerdictRejected, string(verdict.Reason), start)
		return mcp.NewToolResultError("Only SELECT queries are allowed for clinical record queries"), nil
	}

	result, err := s.clinical.Query(ctx, sqlQuery)
	if err != nil {
		s.record(toolClinicalQuery, sqlQuery, audit.VerdictError, "", start)
		s.log.Error("clinical records query failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Electronic health records error: %v", err)), nil
	}

	s.record(toolClinicalQuery, sqlQuery, audit.VerdictAccepted, "", start)
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleClinicalTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	tables, err := s.clinical.ListTables(ctx)
	if err != nil {
		s.record(toolClinicalTables, "", audit.VerdictError, "", start)
		s.log.Error("failed to list clinical tables", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Error listing clinical data tables: %v", err)), nil
	}

	if tables == nil {
		tables = []clinical.Table{}
	}
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error listing clinical data tables: %v", err)), nil
	}

	s.record(toolClinicalTables, "", audit.VerdictAccepted, "", start)
	return mcp.NewToolResultText(string(data)), nil
}

// record writes one audit entry. Audit failures are logged and never fail the
// tool call.
func (s *Server) record(tool, query string, verdict audit.Verdict, reason string, start time.Time) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Record(audit.Entry{
		Tool:     tool,
		Query:    query,
		Verdict:  verdict,
		Reason:   reason,
		Duration: time.Since(start),
	})
	if err != nil {
		s.log.Warn("failed to record audit entry", zap.Error(err))
	}
}
