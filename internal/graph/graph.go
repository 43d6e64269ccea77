// Package graph executes read-only Cypher queries against the biomedical
// knowledge graph and materializes results into transport-safe JSON.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

const schemaQuery = "CALL apoc.meta.schema();"

// Client wraps a single long-lived driver shared across calls. Sessions are
// acquired per call and released on all exit paths; the driver manages its
// own connection pool.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient constructs the knowledge graph driver. Construction validates the
// URI and credentials format only; no connection is attempted until first use.
func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("knowledge graph driver initialization failed: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Client{driver: driver, database: database}, nil
}

// Close releases the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ReadQuery executes a Cypher query inside a read transaction and returns the
// full record set as a JSON array of row objects. Records are pulled eagerly
// before the transaction closes. The query text must already be vetted by the
// caller; no write check happens here.
func (c *Client) ReadQuery(ctx context.Context, query string, params map[string]any) (string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("serialize knowledge graph results: %w", err)
	}
	return string(data), nil
}

// WriteQuery executes a Cypher query inside a write transaction. It exists
// for internal mutation paths and driver-required transaction functions; the
// tool surface never exposes it.
func (c *Client) WriteQuery(ctx context.Context, query string, params map[string]any) (string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("serialize knowledge graph results: %w", err)
	}
	return string(data), nil
}

// Schema retrieves the graph metadata via apoc.meta.schema, normalizes it and
// returns it as a JSON object keyed by entity label.
func (c *Client) Schema(ctx context.Context) (string, error) {
	raw, err := c.ReadQuery(ctx, schemaQuery, nil)
	if err != nil {
		return "", err
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return "", fmt.Errorf("decode knowledge graph schema: %w", err)
	}
	if len(rows) == 0 {
		return "", errors.New("knowledge graph schema introspection returned no records")
	}

	value, ok := rows[0]["value"].(map[string]any)
	if !ok {
		return "", errors.New("knowledge graph schema introspection returned an unexpected shape")
	}

	data, err := json.Marshal(CleanSchema(value))
	if err != nil {
		return "", fmt.Errorf("serialize knowledge graph schema: %w", err)
	}
	return string(data), nil
}

// IsProcedureNotFound reports whether the error is the Neo4j client error for
// a missing procedure, which for the schema tool means APOC is not installed.
func IsProcedureNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Procedure.ProcedureNotFound")
}

func collectRows(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]map[string]any, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToRows(records), nil
}

// recordsToRows maps eagerly collected records to JSON-marshalable row
// objects, one per record.
func recordsToRows(records []*neo4j.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for key, value := range record.AsMap() {
			row[key] = sanitize(value)
		}
		rows = append(rows, row)
	}
	return rows
}

// sanitize converts driver values into JSON-marshalable ones. Graph entities
// become maps of their properties; anything else non-JSON-native falls back
// to its string form rather than failing serialization.
func sanitize(value any) any {
	switch v := value.(type) {
	case nil, bool, string, int, int64, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitize(item)
		}
		return out
	case dbtype.Node:
		return map[string]any{
			"elementId":  v.ElementId,
			"labels":     v.Labels,
			"properties": sanitize(v.Props),
		}
	case dbtype.Relationship:
		return map[string]any{
			"elementId":  v.ElementId,
			"type":       v.Type,
			"properties": sanitize(v.Props),
		}
	default:
		return fmt.Sprint(v)
	}
}
