package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNamespace(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"foo", "foo-"},
		{"foo-", "foo-"},
		{"", ""},
		{"MedCP", "MedCP-"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatNamespace(tt.input), "input: %q", tt.input)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KNOWLEDGE_GRAPH_URI", "KNOWLEDGE_GRAPH_USERNAME", "KNOWLEDGE_GRAPH_PASSWORD", "KNOWLEDGE_GRAPH_DATABASE",
		"CLINICAL_RECORDS_SERVER", "CLINICAL_RECORDS_DATABASE", "CLINICAL_RECORDS_USERNAME", "CLINICAL_RECORDS_PASSWORD",
		"MEDCP_NAMESPACE", "MEDCP_LOG_LEVEL", "MEDCP_AUDIT_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Empty(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Nil(t, cfg.Graph)
	assert.Nil(t, cfg.Clinical)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.ErrorIs(t, cfg.Validate(), ErrNoBackends)
}

func TestFromEnv_Graph(t *testing.T) {
	clearEnv(t)
	t.Setenv("KNOWLEDGE_GRAPH_URI", "bolt://localhost:7687")
	t.Setenv("KNOWLEDGE_GRAPH_USERNAME", "neo4j")
	t.Setenv("KNOWLEDGE_GRAPH_PASSWORD", "secret")

	cfg := FromEnv()
	require.NotNil(t, cfg.Graph)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, DefaultGraphDatabase, cfg.Graph.Database)
	assert.Nil(t, cfg.Clinical)
	assert.NoError(t, cfg.Validate())
}

// A backend missing any required field is treated as absent, never
// half-configured.
func TestFromEnv_PartialGraphIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("KNOWLEDGE_GRAPH_URI", "bolt://localhost:7687")
	t.Setenv("KNOWLEDGE_GRAPH_USERNAME", "neo4j")

	cfg := FromEnv()
	assert.Nil(t, cfg.Graph)
}

func TestFromEnv_Clinical(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLINICAL_RECORDS_SERVER", "ehr-server.hospital.org")
	t.Setenv("CLINICAL_RECORDS_DATABASE", "EHR")
	t.Setenv("CLINICAL_RECORDS_USERNAME", "reader")
	t.Setenv("CLINICAL_RECORDS_PASSWORD", "secret")
	t.Setenv("MEDCP_NAMESPACE", "medcp")
	t.Setenv("MEDCP_LOG_LEVEL", "debug")
	t.Setenv("MEDCP_AUDIT_DB", "/tmp/audit.db")

	cfg := FromEnv()
	require.NotNil(t, cfg.Clinical)
	assert.Equal(t, "EHR", cfg.Clinical.Database)
	assert.Equal(t, "medcp", cfg.Namespace)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/audit.db", cfg.AuditPath)
	assert.NoError(t, cfg.Validate())
}

func TestComplete(t *testing.T) {
	assert.False(t, GraphConfig{}.Complete())
	assert.True(t, GraphConfig{URI: "bolt://h", Username: "u", Password: "p"}.Complete())
	assert.False(t, ClinicalConfig{Server: "h", Database: "d", Username: "u"}.Complete())
	assert.True(t, ClinicalConfig{Server: "h", Database: "d", Username: "u", Password: "p"}.Complete())
}
