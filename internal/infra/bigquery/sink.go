package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/hotelgroup/pnl-sync/internal/pipeline"
)

const (
	tenantsTable = "tenants"
	pnlTable     = "pnl"
)

// Sink writes run outputs to BigQuery. Each table is fully rebuilt per run:
// previous rows are deleted before the new ones are streamed in.
type Sink struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewSink creates a sink for the given project and dataset.
func NewSink(ctx context.Context, projectID, datasetID string, opts ...option.ClientOption) (*Sink, error) {
	if projectID == "" {
		return nil, fmt.Errorf("bigquery sink: project id is required")
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery sink: creating client: %w", err)
	}
	return &Sink{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}

func (s *Sink) truncate(ctx context.Context, table string) error {
	q := s.client.Query(fmt.Sprintf("DELETE FROM `%s.%s.%s` WHERE TRUE", s.projectID, s.datasetID, table))

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("truncating %s: running query: %w", table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("truncating %s: waiting for job: %w", table, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("truncating %s: job error: %w", table, err)
	}
	return nil
}

// ReplaceTenants rebuilds the tenants table from this run's tenant list.
func (s *Sink) ReplaceTenants(ctx context.Context, tenants []pipeline.Tenant, runID string) error {
	if err := s.truncate(ctx, tenantsTable); err != nil {
		return err
	}
	if len(tenants) == 0 {
		return nil
	}

	rows := make([]*TenantRow, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, tenantToRow(t, runID))
	}

	inserter := s.client.Dataset(s.datasetID).Table(tenantsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("inserting tenant rows: %w", err)
	}
	return nil
}

// ReplacePnl rebuilds the pnl table from this run's consolidated output.
func (s *Sink) ReplacePnl(ctx context.Context, output []pipeline.OutputRow, runID string) error {
	if err := s.truncate(ctx, pnlTable); err != nil {
		return err
	}
	if len(output) == 0 {
		return nil
	}

	rows := make([]*PnlRow, 0, len(output))
	for _, r := range output {
		rows = append(rows, outputToRow(r, runID))
	}

	inserter := s.client.Dataset(s.datasetID).Table(pnlTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("inserting pnl rows: %w", err)
	}
	return nil
}
