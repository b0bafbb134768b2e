package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BigQueryConnector implements Connector over the BigQuery client library.
// Credentials come from application default credentials; the client is
// created on first use.
type BigQueryConnector struct {
	projectID string

	mu     sync.Mutex
	client *bigquery.Client
}

// NewBigQueryConnector creates a lazy connector for one GCP project.
func NewBigQueryConnector(projectID string) *BigQueryConnector {
	return &BigQueryConnector{projectID: projectID}
}

func (c *BigQueryConnector) bq(ctx context.Context) (*bigquery.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		client, err := bigquery.NewClient(ctx, c.projectID)
		if err != nil {
			return nil, fmt.Errorf("create bigquery client: %w", err)
		}
		c.client = client
	}
	return c.client, nil
}

// ListTargets lists datasets in the project.
func (c *BigQueryConnector) ListTargets(ctx context.Context) ([]Target, error) {
	client, err := c.bq(ctx)
	if err != nil {
		return nil, err
	}

	var targets []Target
	it := client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate datasets: %w", err)
		}
		targets = append(targets, Target{Name: ds.DatasetID, Detail: "dataset"})
	}
	return targets, nil
}

// Describe returns the schema of a dataset.table reference.
func (c *BigQueryConnector) Describe(ctx context.Context, target string) (string, error) {
	client, err := c.bq(ctx)
	if err != nil {
		return "", err
	}

	dataset, table, err := splitTableRef(target)
	if err != nil {
		return "", err
	}

	md, err := client.Dataset(dataset).Table(table).Metadata(ctx)
	if err != nil {
		return "", fmt.Errorf("table metadata for %s: %w", target, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s (%d rows)\n", dataset, table, md.NumRows)
	for _, field := range md.Schema {
		mode := "nullable"
		if field.Required {
			mode = "required"
		}
		if field.Repeated {
			mode = "repeated"
		}
		fmt.Fprintf(&b, "  %s %s %s\n", field.Name, field.Type, mode)
	}
	return b.String(), nil
}

// Sample returns up to limit rows from a dataset.table reference.
func (c *BigQueryConnector) Sample(ctx context.Context, target string, limit int) (string, error) {
	dataset, table, err := splitTableRef(target)
	if err != nil {
		return "", err
	}
	if limit <= 0 {
		limit = 5
	}
	return c.Query(ctx, fmt.Sprintf("SELECT * FROM `%s.%s` LIMIT %d", dataset, table, limit))
}

// Query runs a Standard SQL query and formats the result.
func (c *BigQueryConnector) Query(ctx context.Context, query string) (string, error) {
	client, err := c.bq(ctx)
	if err != nil {
		return "", err
	}

	it, err := client.Query(query).Read(ctx)
	if err != nil {
		return "", fmt.Errorf("run query: %w", err)
	}

	var rows [][]any
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("iterate results: %w", err)
		}
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		rows = append(rows, cells)
	}

	// Schema is populated once the iterator has been advanced.
	columns := make([]string, 0, len(it.Schema))
	for _, field := range it.Schema {
		columns = append(columns, field.Name)
	}
	return formatRows(columns, rows), nil
}

// Close releases the client if it was ever created.
func (c *BigQueryConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func splitTableRef(target string) (dataset, table string, err error) {
	parts := strings.SplitN(target, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("table reference must be dataset.table, got %q", target)
	}
	return parts[0], parts[1], nil
}
