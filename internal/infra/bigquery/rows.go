// Package bigquery streams run outputs into BigQuery tables so the
// consolidated P&L can be queried alongside the CSV artifacts.
package bigquery

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/hotelgroup/pnl-sync/internal/pipeline"
)

// TenantRow mirrors one tenant reference entry in the tenants table.
type TenantRow struct {
	TenantID  string `bigquery:"tenant_id"` // REQUIRED
	Name      string `bigquery:"name"`      // NULLABLE
	APIKey    string `bigquery:"api_key"`   // NULLABLE
	Currency  string `bigquery:"currency"`  // NULLABLE
	OrgID     string `bigquery:"org_id"`    // NULLABLE
	OrgStatus string `bigquery:"org_status"`

	RunID string `bigquery:"run_id"`
}

// PnlRow mirrors one consolidated output row in the pnl table.
type PnlRow struct {
	AccountCode       string `bigquery:"account_code"`
	Account           string `bigquery:"account"`
	Type              string `bigquery:"type"`
	ReportingCode     string `bigquery:"reporting_code"`
	ReportingName     string `bigquery:"reporting_name"`
	Description       string `bigquery:"description"`
	OrganizationName  string `bigquery:"organization_name"`
	TrackingCategory1 string `bigquery:"tracking_category_1"`
	OrgValue          string `bigquery:"org_value"`
	OrgCurrency       string `bigquery:"org_currency"`
	GroupCurrency     string `bigquery:"group_currency"`
	GroupValue        string `bigquery:"group_value"`
	TrackingCategory2 string `bigquery:"tracking_category_2"`

	Period    civil.Date            `bigquery:"period"` // DATE
	Actual    string                `bigquery:"actual_or_budget"`
	Timestamp bigquery.NullTimestamp `bigquery:"captured_ts"` // TIMESTAMP, NULLABLE

	RunID string `bigquery:"run_id"`
}

func tenantToRow(t pipeline.Tenant, runID string) *TenantRow {
	return &TenantRow{
		TenantID:  t.TenantID,
		Name:      t.Name,
		APIKey:    t.APIKey,
		Currency:  t.Currency,
		OrgID:     t.OrgID,
		OrgStatus: t.OrgStatus,
		RunID:     runID,
	}
}

func outputToRow(r pipeline.OutputRow, runID string) *PnlRow {
	return &PnlRow{
		AccountCode:       r.AccountCode,
		Account:           r.Account,
		Type:              r.Type,
		ReportingCode:     r.ReportingCode,
		ReportingName:     r.ReportingName,
		Description:       r.Description,
		OrganizationName:  r.OrganizationName,
		TrackingCategory1: r.TrackingCategory1,
		OrgValue:          r.OrgValue,
		OrgCurrency:       r.OrgCurrency,
		GroupCurrency:     r.GroupCurrency,
		GroupValue:        r.GroupValue,
		TrackingCategory2: r.TrackingCategory2,
		Period:            civil.DateOf(r.Period),
		Actual:            r.ActualOrBudget,
		Timestamp:         bigquery.NullTimestamp{Timestamp: r.Timestamp, Valid: !r.Timestamp.IsZero()},
		RunID:             runID,
	}
}
