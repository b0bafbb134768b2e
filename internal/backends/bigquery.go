package backends

import (
	"context"
	"fmt"

	"dbcopilot/internal/copilot"
)

// KindBigQuery identifies the BigQuery specialist.
const KindBigQuery copilot.Kind = "bigquery"

// BigQuery tool names. run_sql executes arbitrary queries and is never
// exposed through discovery.
const (
	ToolBigQueryListDatasets  = "list_datasets"
	ToolBigQueryDescribeTable = "describe_table"
	ToolBigQuerySampleRows    = "sample_rows"
	ToolBigQueryRunSQL        = "run_sql"
)

func newBigQueryRegistration(conn Connector) *copilot.Registration {
	return &copilot.Registration{
		Kind:         KindBigQuery,
		DisplayName:  "BigQuery",
		HandoffBlurb: "Analytics warehouse: datasets, partitioned tables, Standard SQL.",
		Handoff: &copilot.HandoffSpec{
			ToolName:    "transfer_to_bigquery_specialist",
			Description: "Transfer the conversation to the BigQuery specialist for dataset exploration and Standard SQL queries.",
		},
		DiscoveryTools: []string{
			copilot.ToolListDataSources,
			ToolBigQueryListDatasets,
			ToolBigQueryDescribeTable,
			ToolBigQuerySampleRows,
		},
		// Backtick-quoted project-qualified tables and Standard SQL functions
		// that Postgres does not share.
		ContentSignatures: []string{
			"from `",
			"`.`",
			"unnest(",
			"safe_cast(",
			"array_agg(",
			"#standardsql",
			"#legacysql",
			"_table_suffix",
		},
		Keywords: []string{
			"bigquery",
			"big query",
			"dataset",
			"gcp project",
		},
		// Shared relational vocabulary counts only alongside a query shape.
		DialectKeywords: []string{
			"unnest",
			"array_agg",
			"safe_cast",
			"partition by",
			"struct<",
		},
		BuildSpecialist: func(rc copilot.RequestContext) (*copilot.AgentHandle, error) {
			return &copilot.AgentHandle{Kind: KindBigQuery, DisplayName: "BigQuery"}, nil
		},
		BuildTools: func(rc copilot.RequestContext) (*copilot.ToolSet, error) {
			return buildBigQueryTools(conn, rc)
		},
	}
}

func buildBigQueryTools(conn Connector, rc copilot.RequestContext) (*copilot.ToolSet, error) {
	set := copilot.NewToolSet()

	set.MustAdd(copilot.MustTool(
		copilot.ToolListDataSources,
		"List the BigQuery datasets available in this workspace.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "bigquery"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list bigquery data sources: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolBigQueryListDatasets,
		"List datasets in the connected BigQuery project.",
		copilot.ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "bigquery"); err != nil {
				return "", err
			}
			targets, err := conn.ListTargets(ctx)
			if err != nil {
				return "", fmt.Errorf("list datasets: %w", err)
			}
			return encodeTargets(targets)
		},
	))

	set.MustAdd(copilot.MustTool(
		ToolBigQueryDescribeTable,
		"Show the schema of a table, given as dataset.table.",
		copilot.ToolSchema{
			Required: []string{"table"},
			Properties: map[string]copilot.Property{
				"table": {Type: "string", Description: "Table reference as dataset.table"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "bigquery"); err != nil {
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
		ToolBigQuerySampleRows,
		"Fetch a few rows from a table, given as dataset.table.",
		copilot.ToolSchema{
			Required: []string{"table"},
			Properties: map[string]copilot.Property{
				"table": {Type: "string", Description: "Table reference as dataset.table"},
				"limit": {Type: "integer", Description: "Maximum rows to return", Default: 5},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "bigquery"); err != nil {
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
		ToolBigQueryRunSQL,
		"Run a Standard SQL query against the connected BigQuery project.",
		copilot.ToolSchema{
			Required: []string{"sql"},
			Properties: map[string]copilot.Property{
				"sql": {Type: "string", Description: "Standard SQL query text"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if err := requireConnector(conn, "bigquery"); err != nil {
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
