// Package config holds the immutable server configuration. It is assembled
// once at startup from environment variables and CLI flags and never mutated
// afterward.
package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoBackends is returned when neither backend is configured.
var ErrNoBackends = errors.New("at least one database (knowledge graph or clinical records) must be configured")

// DefaultGraphDatabase is the database name used when none is supplied.
const DefaultGraphDatabase = "neo4j"

// GraphConfig is the biomedical knowledge graph connection configuration.
type GraphConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Complete reports whether every required field is present.
func (g GraphConfig) Complete() bool {
	return g.URI != "" && g.Username != "" && g.Password != ""
}

// ClinicalConfig is the electronic health records database configuration.
type ClinicalConfig struct {
	Server   string
	Database string
	Username string
	Password string
}

// Complete reports whether every required field is present.
func (c ClinicalConfig) Complete() bool {
	return c.Server != "" && c.Database != "" && c.Username != "" && c.Password != ""
}

// Config is the complete server configuration. A nil backend config means
// that backend's tools are not registered; a partially-set backend is treated
// as absent.
type Config struct {
	Graph     *GraphConfig
	Clinical  *ClinicalConfig
	Namespace string
	LogLevel  string
	AuditPath string
}

// FromEnv builds a Config from environment variables: KNOWLEDGE_GRAPH_URI,
// KNOWLEDGE_GRAPH_USERNAME, KNOWLEDGE_GRAPH_PASSWORD, KNOWLEDGE_GRAPH_DATABASE,
// CLINICAL_RECORDS_SERVER, CLINICAL_RECORDS_DATABASE, CLINICAL_RECORDS_USERNAME,
// CLINICAL_RECORDS_PASSWORD, MEDCP_NAMESPACE, MEDCP_LOG_LEVEL, MEDCP_AUDIT_DB.
func FromEnv() Config {
	cfg := Config{
		Namespace: os.Getenv("MEDCP_NAMESPACE"),
		LogLevel:  "info",
		AuditPath: os.Getenv("MEDCP_AUDIT_DB"),
	}
	if v := os.Getenv("MEDCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	g := GraphConfig{
		URI:      os.Getenv("KNOWLEDGE_GRAPH_URI"),
		Username: os.Getenv("KNOWLEDGE_GRAPH_USERNAME"),
		Password: os.Getenv("KNOWLEDGE_GRAPH_PASSWORD"),
		Database: os.Getenv("KNOWLEDGE_GRAPH_DATABASE"),
	}
	if g.Complete() {
		if g.Database == "" {
			g.Database = DefaultGraphDatabase
		}
		cfg.Graph = &g
	}

	c := ClinicalConfig{
		Server:   os.Getenv("CLINICAL_RECORDS_SERVER"),
		Database: os.Getenv("CLINICAL_RECORDS_DATABASE"),
		Username: os.Getenv("CLINICAL_RECORDS_USERNAME"),
		Password: os.Getenv("CLINICAL_RECORDS_PASSWORD"),
	}
	if c.Complete() {
		cfg.Clinical = &c
	}

	return cfg
}

// Validate checks that the configuration can produce a usable server.
func (c Config) Validate() error {
	if c.Graph == nil && c.Clinical == nil {
		return ErrNoBackends
	}
	return nil
}

// FormatNamespace normalizes the operator-supplied namespace so that a
// non-empty namespace always carries a single trailing dash.
func FormatNamespace(namespace string) string {
	if namespace == "" {
		return ""
	}
	if strings.HasSuffix(namespace, "-") {
		return namespace
	}
	return namespace + "-"
}
