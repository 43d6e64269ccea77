// Package server builds the MedCP tool registry from a server configuration
// and dispatches tool calls through the read-only query gate.
package server

import (
	"context"
	"errors"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/medcp/medcp/internal/audit"
	"github.com/medcp/medcp/internal/clinical"
	"github.com/medcp/medcp/internal/config"
	"github.com/medcp/medcp/internal/graph"
)

const (
	// Name is the MCP server name advertised to clients.
	Name = "MedCP"
	// Version is the MedCP release version.
	Version = "0.2.0"
)

// Server owns the backend handles and the MCP tool registry. It is built once
// at startup and not mutated afterward; handlers share no mutable state.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	graph    *graph.Client
	clinical *clinical.Client
	audit    *audit.Store
	mcp      *mcpserver.MCPServer
	tools    []mcpserver.ServerTool
}

// New builds the tool registry from the configuration. Graph tools are
// registered only when the graph is configured and its driver constructs;
// clinical tools are registered whenever the clinical backend is configured,
// with connections validated lazily per call. Ending up with zero registered
// backends is a configuration error.
func New(cfg config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, log: log}

	if cfg.AuditPath != "" {
		store, err := audit.Open(cfg.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		s.audit = store
	}

	prefix := config.FormatNamespace(cfg.Namespace)

	if cfg.Graph != nil {
		client, err := graph.NewClient(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
		if err != nil {
			log.Error("failed to initialize knowledge graph driver", zap.Error(err))
		} else {
			s.graph = client
			s.tools = append(s.tools,
				mcpserver.ServerTool{Tool: graphSchemaSpec(prefix), Handler: s.handleGraphSchema},
				mcpserver.ServerTool{Tool: graphQuerySpec(prefix), Handler: s.handleGraphQuery},
			)
			log.Info("knowledge graph driver initialized", zap.String("uri", cfg.Graph.URI))
		}
	}

	if cfg.Clinical != nil {
		s.clinical = clinical.NewClient(clinical.Config{
			Server:   cfg.Clinical.Server,
			Database: cfg.Clinical.Database,
			Username: cfg.Clinical.Username,
			Password: cfg.Clinical.Password,
		})
		s.tools = append(s.tools,
			mcpserver.ServerTool{Tool: clinicalQuerySpec(prefix), Handler: s.handleClinicalQuery},
			mcpserver.ServerTool{Tool: clinicalTablesSpec(prefix), Handler: s.handleClinicalTables},
		)
		log.Info("clinical records backend configured", zap.String("server", cfg.Clinical.Server))
	}

	if len(s.tools) == 0 {
		s.closeAudit()
		return nil, errors.New("no backend tools could be registered")
	}

	s.mcp = mcpserver.NewMCPServer(
		Name,
		Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.mcp.AddTools(s.tools...)

	return s, nil
}

// Tools returns the registered tool set, namespace prefix applied.
func (s *Server) Tools() []mcpserver.ServerTool {
	return s.tools
}

// Close releases the graph driver and the audit store.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if s.graph != nil {
		if err := s.graph.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) closeAudit() {
	if s.audit != nil {
		_ = s.audit.Close()
		s.audit = nil
	}
}

// ServeStdio runs the server over the stdio transport.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcp)
}

// ServeSSE runs the server over the SSE transport on host:port.
func (s *Server) ServeSSE(host string, port int) error {
	sse := mcpserver.NewSSEServer(s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", host, port)),
	)
	return sse.Start(fmt.Sprintf("%s:%d", host, port))
}

// ServeHTTP runs the server over the streamable HTTP transport on host:port
// at the given endpoint path.
func (s *Server) ServeHTTP(host string, port int, path string) error {
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp,
		mcpserver.WithEndpointPath(path),
	)
	return httpServer.Start(fmt.Sprintf("%s:%d", host, port))
}
