package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConnector implements Connector over pgx. The pool is created on
// first use.
type PostgresConnector struct {
	dsn string

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewPostgresConnector creates a lazy connector for one database.
func NewPostgresConnector(dsn string) *PostgresConnector {
	return &PostgresConnector{dsn: dsn}
}

func (c *PostgresConnector) pg(ctx context.Context) (*pgxpool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool == nil {
		pool, err := pgxpool.New(ctx, c.dsn)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		c.pool = pool
	}
	return c.pool, nil
}

// ListTargets lists user tables as schema.table.
func (c *PostgresConnector) ListTargets(ctx context.Context) ([]Target, error) {
	pool, err := c.pg(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var schema, name, typ string
		if err := rows.Scan(&schema, &name, &typ); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		targets = append(targets, Target{
			Name:   schema + "." + name,
			Detail: strings.ToLower(typ),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return targets, nil
}

// Describe returns the column list of a schema.table reference; a bare table
// name defaults to the public schema.
func (c *PostgresConnector) Describe(ctx context.Context, target string) (string, error) {
	pool, err := c.pg(ctx)
	if err != nil {
		return "", err
	}

	schema, table := splitPgRef(target)
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", target, err)
	}
	defer rows.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s\n", schema, table)
	found := false
	for rows.Next() {
		var column, dataType, nullable string
		if err := rows.Scan(&column, &dataType, &nullable); err != nil {
			return "", fmt.Errorf("scan column row: %w", err)
		}
		found = true
		null := "not null"
		if nullable == "YES" {
			null = "nullable"
		}
		fmt.Fprintf(&b, "  %s %s %s\n", column, dataType, null)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate columns: %w", err)
	}
	if !found {
		return "", fmt.Errorf("table %s.%s not found", schema, table)
	}
	return b.String(), nil
}

// Sample returns up to limit rows from a table.
func (c *PostgresConnector) Sample(ctx context.Context, target string, limit int) (string, error) {
	if limit <= 0 {
		limit = 5
	}
	schema, table := splitPgRef(target)
	ident := pgx.Identifier{schema, table}.Sanitize()
	return c.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", ident, limit))
}

// Query runs SQL and formats the result.
func (c *PostgresConnector) Query(ctx context.Context, query string) (string, error) {
	pool, err := c.pg(ctx)
	if err != nil {
		return "", err
	}

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns := make([]string, 0, len(rows.FieldDescriptions()))
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, string(fd.Name))
	}

	var result [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", fmt.Errorf("read row: %w", err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate results: %w", err)
	}
	return formatRows(columns, result), nil
}

// Close releases the pool if it was ever created.
func (c *PostgresConnector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

func splitPgRef(target string) (schema, table string) {
	parts := strings.SplitN(target, ".", 2)
	if len(parts) == 2 && parts[0] != "" {
		return parts[0], parts[1]
	}
	return "public", target
}
