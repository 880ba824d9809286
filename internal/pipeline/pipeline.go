// Package pipeline implements the multi-tenant profit-and-loss consolidation:
// tenant resolution, report flattening, the account join, and the accumulated
// output table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

const reportTimeframe = "MONTH"

// Pipeline orchestrates one consolidation run. Tenants are processed fully
// sequentially; the only mutable state is the accumulator value threaded
// through the run.
type Pipeline struct {
	identity   IdentityService
	accounting AccountingService
	log        zerolog.Logger

	from time.Time
	to   time.Time

	// now stamps output rows; injectable so runs are reproducible in tests.
	now func() time.Time
}

// New builds a pipeline over the given services and report period.
func New(identity IdentityService, accounting AccountingService, from, to time.Time, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		identity:   identity,
		accounting: accounting,
		log:        log,
		from:       from,
		to:         to,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the capture-time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

func (p *Pipeline) reportRequest(tenantID string) xero.ReportRequest {
	return xero.ReportRequest{
		TenantID:       tenantID,
		FromDate:       p.from,
		ToDate:         p.to,
		Timeframe:      reportTimeframe,
		StandardLayout: true,
		PaymentsOnly:   false,
	}
}

// SyncProfitAndLoss runs the full consolidation over the given tenants: per
// tenant it resolves tracking options and the account reference table,
// fetches one tracked P&L report per option, and folds the joined rows into
// the output table.
//
// Error policy per call: tracking categories and accounts recover to empty on
// upstream rejection (the tenant then contributes zero rows); a report fetch
// failure aborts the run.
func (p *Pipeline) SyncProfitAndLoss(ctx context.Context, tenants []Tenant) ([]OutputRow, error) {
	acc := NewAccumulator()
	capturedAt := p.now()

	for _, tenant := range tenants {
		log := p.log.With().Str("tenant_id", tenant.TenantID).Str("tenant_name", tenant.Name).Logger()

		tracking, err := p.resolveTracking(ctx, tenant.TenantID)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: tracking categories: %w", tenant.Name, err)
		}
		accounts, err := p.fetchAccounts(ctx, tenant.TenantID)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: accounts: %w", tenant.Name, err)
		}

		var tracked []TrackedRow
		for _, opt := range tracking.Options {
			req := p.reportRequest(tenant.TenantID)
			req.TrackingCategoryID = tracking.CategoryID
			req.TrackingOptionID = opt.ID

			report, err := p.accounting.GetReportProfitAndLoss(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("tenant %s: profit and loss for option %q: %w", tenant.Name, opt.Name, err)
			}
			tracked = append(tracked, ExtractTrackedRows(report, tenant.Name, opt.Name)...)
		}

		before := acc.Len()
		acc.AddTenant(tenant, accounts, tracked, p.to, capturedAt)
		log.Info().
			Int("tracking_options", len(tracking.Options)).
			Int("accounts", len(accounts)).
			Int("rows", acc.Len()-before).
			Msg("Tenant aggregated")
	}

	p.log.Info().Int("total_rows", acc.Len()).Msg("Consolidation complete")
	return acc.Rows(), nil
}

// CollectNetIncome fetches one untracked P&L report per tenant and extracts
// the net income line. A report fetch failure aborts the run.
func (p *Pipeline) CollectNetIncome(ctx context.Context, tenants []Tenant) ([]NetIncomeRow, error) {
	var rows []NetIncomeRow
	for _, tenant := range tenants {
		report, err := p.accounting.GetReportProfitAndLoss(ctx, p.reportRequest(tenant.TenantID))
		if err != nil {
			return nil, fmt.Errorf("tenant %s: profit and loss: %w", tenant.Name, err)
		}
		rows = append(rows, ExtractNetIncome(report)...)
	}
	return rows, nil
}
