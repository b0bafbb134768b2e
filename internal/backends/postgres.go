package backends

import (
	"context"
	"fmt"

	"dbcopilot/internal/copilot"
)

// KindPostgres identifies the PostgreSQL specialist.
const KindPostgres copilot.Kind = "postgres"

// Postgres tool names. run_sql stays specialist-only.
const (
	ToolPostgresListTables    = "list_tables"
	ToolPostgresDescribeTable = "describe_table"
	ToolPostgresSampleRows    = "sample_rows"
	ToolPostgresRunSQL        = "run_sql"
)

func newPostgresRegistration(conn Connector) *copilot.Registration {
	return &copilot.Registration{
		Kind:         KindPostgres,
		DisplayName:  "PostgreSQL",
		HandoffBlurb: "Relational database: schemas, tables, full SQL with Postgres extensions.",
		Handoff: &copilot.HandoffSpec{
			ToolName:    "transfer_to_postgres_specialist",
			Description: "Transfer the conversation to the PostgreSQL specialist for schema exploration and SQL queries.",
		},
		DiscoveryTools: []string{
			copilot.ToolListDataSources,
			ToolPostgresListTables,
			ToolPostgresDescribeTable,
			ToolPostgresSampleRows,
		},
		// Dialect markers BigQuery lacks: :: casts, catalog schemas, ILIKE.
		ContentSignatures: []string{
			"::",
			"pg_catalog.",
			"information_schema.",
			" ilike ",
			"on conflict",
			"returning ",
			"jsonb",
		},
		Keywords: []string{
			"postgres",
			"postgresql",
			"psql",
			"pg_",
		},
		DialectKeywords: []string{
			"ilike",
			"jsonb",
			"serial",
			"on conflict",
			"returning",
		},
		BuildSpecialist: func(rc copilot.RequestContext) (*copilot.AgentHandle, error) {
			return &copilot.AgentHandle{Kind: KindPostgres, DisplayName: "PostgreSQL"}, nil
		},
		BuildTools: func(rc copilot.RequestContext) (*copilot.ToolSet, error) {
			return buildPostgresTools(conn, rc)
		},
	}
}

func buildPostgresTools(conn Connector, rc copilot.RequestContext) (*copilot.ToolSet, error) {
	set := copilot.NewToolSet()

	set.MustAdd(copilot.MustTool(
		copilot.ToolListDataSources,
		"List the PostgreSQL data sources available in this workspace.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "postgres"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list postgres data sources: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolPostgresListTables,
		"List user tables in the connected PostgreSQL database.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "postgres"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list tables: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolPostgresDescribeTable,
		"Show the columns of a table, given as schema.table or table.",
		copilot.ToolSchema{
			Required: []string{"table"},
			Properties: map[string]copilot.Property{
				"table": {Type: "string", Description: "Table reference as schema.table"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "postgres"); err != nil {
				return "", err
			}
			table, err := stringArg(args, "table")
			if err != nil {
				return "", err
			}
			return conn.Describe(ctx, table)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolPostgresSampleRows,
		"Fetch a few rows from a table.",
		copilot.ToolSchema{
			Required: []string{"table"},
			Properties: map[string]copilot.Property{
				"table": {Type: "string", Description: "Table reference as schema.table"},
				"limit": {Type: "integer", Description: "Maximum rows to return", Default: 5},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "postgres"); err != nil {
				return "", err
			}
			table, err := stringArg(args, "table")
			if err != nil {
				return "", err
			}
			return conn.Sample(ctx, table, intArg(args, "limit", 5))
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolPostgresRunSQL,
		"Run a SQL query against the connected PostgreSQL database.",
		copilot.ToolSchema{
			Required: []string{"sql"},
			Properties: map[string]copilot.Property{
				"sql": {Type: "string", Description: "SQL query text"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "postgres"); err != nil {
				return "", err
			}
			sql, err := stringArg(args, "sql")
			if err != nil {
				return "", err
			}
			return conn.Query(ctx, sql)
		},
	))

	return set, nil
}
