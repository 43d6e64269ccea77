// Package clinical provides read access to the electronic health records
// database. Every call opens a dedicated connection and closes it before
// returning; there is no pooling, so throughput is bounded by connection
// setup cost. Callers needing high QPS must wrap this with their own pool.
package clinical

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// NoResultsMessage is returned when a vetted query yields no result columns.
const NoResultsMessage = "Clinical query executed successfully (no results returned)"

const listTablesQuery = `SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME`

// Config is the connection configuration for the clinical records database.
type Config struct {
	Server   string
	Database string
	Username string
	Password string
}

// Table describes one base table in the clinical records database.
type Table struct {
	Schema    string `json:"schema"`
	TableName string `json:"table_name"`
	Type      string `json:"type"`
	FullName  string `json:"full_name"`
}

// Client holds connection parameters only. Connections are validated lazily,
// per call; a misconfigured backend fails at first use, not at startup.
type Client struct {
	cfg        Config
	driverName string
}

// NewClient returns a client for the given configuration.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, driverName: "sqlserver"}
}

func (c *Client) dsn() string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.cfg.Username, c.cfg.Password),
		Host:     c.cfg.Server,
		RawQuery: url.Values{"database": []string{c.cfg.Database}}.Encode(),
	}
	return u.String()
}

func (c *Client) connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.driverName, c.dsn())
	if err != nil {
		return nil, fmt.Errorf("clinical records connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("clinical records connection failed: %w", err)
	}
	return db, nil
}

// Query executes an already-vetted SQL query and returns the result as CSV:
// a header row of column names, then one comma-joined row per record.
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("clinical records query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("clinical records query failed: %w", err)
	}
	if len(columns) == 0 {
		return NoResultsMessage, nil
	}

	lines := []string{strings.Join(columns, ",")}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("clinical records query failed: %w", err)
		}
		lines = append(lines, joinRow(values))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("clinical records query failed: %w", err)
	}

	return strings.Join(lines, "\n"), nil
}

// ListTables returns every base table, ordered by schema then table name.
func (c *Client) ListTables(ctx context.Context) ([]Table, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("listing clinical tables failed: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var schema, name, typ string
		if err := rows.Scan(&schema, &name, &typ); err != nil {
			return nil, fmt.Errorf("listing clinical tables failed: %w", err)
		}
		tables = append(tables, newTable(schema, name, typ))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing clinical tables failed: %w", err)
	}

	return tables, nil
}

func newTable(schema, name, typ string) Table {
	return Table{
		Schema:    schema,
		TableName: name,
		Type:      typ,
		FullName:  schema + "." + name,
	}
}

func joinRow(values []any) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = formatValue(v)
	}
	return strings.Join(fields, ",")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
