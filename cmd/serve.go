package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medcp/medcp/internal/config"
	"github.com/medcp/medcp/internal/server"
)

var (
	serveTransport string
	serveHost      string
	servePort      int
	servePath      string

	graphURI      string
	graphUsername string
	graphPassword string
	graphDatabase string

	clinicalServer   string
	clinicalDatabase string
	clinicalUsername string
	clinicalPassword string

	serveNamespace string
	serveLogLevel  string
	serveAuditDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MedCP server",
	Long: `Start the MedCP server over stdio, SSE, or streamable HTTP.

At least one backend must be configured. Configuration can be provided via
flags or environment variables (KNOWLEDGE_GRAPH_URI, KNOWLEDGE_GRAPH_USERNAME,
KNOWLEDGE_GRAPH_PASSWORD, KNOWLEDGE_GRAPH_DATABASE, CLINICAL_RECORDS_SERVER,
CLINICAL_RECORDS_DATABASE, CLINICAL_RECORDS_USERNAME,
CLINICAL_RECORDS_PASSWORD, MEDCP_NAMESPACE, MEDCP_LOG_LEVEL, MEDCP_AUDIT_DB);
flags take precedence.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "Transport: stdio, sse, or http")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Bind host for network transports")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Bind port for network transports")
	serveCmd.Flags().StringVar(&servePath, "path", "/mcp/", "Endpoint path for the http transport")

	serveCmd.Flags().StringVar(&graphURI, "graph-uri", "", "Knowledge graph connection URI (e.g. bolt://localhost:7687)")
	serveCmd.Flags().StringVar(&graphUsername, "graph-username", "", "Knowledge graph database username")
	serveCmd.Flags().StringVar(&graphPassword, "graph-password", "", "Knowledge graph database password")
	serveCmd.Flags().StringVar(&graphDatabase, "graph-database", config.DefaultGraphDatabase, "Knowledge graph database name")

	serveCmd.Flags().StringVar(&clinicalServer, "clinical-server", "", "EHR database server host")
	serveCmd.Flags().StringVar(&clinicalDatabase, "clinical-database", "", "EHR database name")
	serveCmd.Flags().StringVar(&clinicalUsername, "clinical-username", "", "EHR database username")
	serveCmd.Flags().StringVar(&clinicalPassword, "clinical-password", "", "EHR database password")

	serveCmd.Flags().StringVar(&serveNamespace, "namespace", "", "Tool namespace prefix")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveAuditDB, "audit-db", "", "Path to the invocation audit database (disabled if empty)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := buildServeConfig(cmd)

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close(context.Background())

	logger.Info("starting MedCP server",
		zap.String("transport", serveTransport),
		zap.Bool("knowledge_graph", cfg.Graph != nil),
		zap.Bool("clinical_records", cfg.Clinical != nil),
	)

	switch serveTransport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(serveHost, servePort)
	case "http":
		return srv.ServeHTTP(serveHost, servePort, servePath)
	default:
		return fmt.Errorf("unknown transport %q (use stdio, sse, or http)", serveTransport)
	}
}

// buildServeConfig layers flag values over the environment: the environment
// provides the base and any flag the operator actually set wins. A backend is
// kept only when every required field ends up non-empty.
func buildServeConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()

	g := config.GraphConfig{Database: config.DefaultGraphDatabase}
	if cfg.Graph != nil {
		g = *cfg.Graph
	}
	if cmd.Flags().Changed("graph-uri") {
		g.URI = graphURI
	}
	if cmd.Flags().Changed("graph-username") {
		g.Username = graphUsername
	}
	if cmd.Flags().Changed("graph-password") {
		g.Password = graphPassword
	}
	if cmd.Flags().Changed("graph-database") {
		g.Database = graphDatabase
	}
	if g.Complete() {
		cfg.Graph = &g
	} else {
		cfg.Graph = nil
	}

	c := config.ClinicalConfig{}
	if cfg.Clinical != nil {
		c = *cfg.Clinical
	}
	if cmd.Flags().Changed("clinical-server") {
		c.Server = clinicalServer
	}
	if cmd.Flags().Changed("clinical-database") {
		c.Database = clinicalDatabase
	}
	if cmd.Flags().Changed("clinical-username") {
		c.Username = clinicalUsername
	}
	if cmd.Flags().Changed("clinical-password") {
		c.Password = clinicalPassword
	}
	if c.Complete() {
		cfg.Clinical = &c
	} else {
		cfg.Clinical = nil
	}

	if cmd.Flags().Changed("namespace") {
		cfg.Namespace = serveNamespace
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = serveLogLevel
	}
	if cmd.Flags().Changed("audit-db") {
		cfg.AuditPath = serveAuditDB
	}

	return cfg
}

// newLogger builds a console logger on stderr; stdout belongs to the stdio
// transport.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
