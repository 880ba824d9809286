package pipeline

import (
	"context"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

// IdentityService lists the tenants the current session can reach.
// Satisfied by *xero.Client and by test mocks.
type IdentityService interface {
	GetConnections(ctx context.Context) ([]xero.Connection, error)
}

// AccountingService covers the accounting API calls the pipeline consumes.
// Satisfied by *xero.Client and by test mocks.
type AccountingService interface {
	GetOrganisations(ctx context.Context, tenantID string) ([]xero.Organisation, error)
	GetTrackingCategories(ctx context.Context, tenantID string) ([]xero.TrackingCategory, error)
	GetAccounts(ctx context.Context, tenantID string) ([]xero.Account, error)
	GetReportProfitAndLoss(ctx context.Context, req xero.ReportRequest) (*xero.Report, error)
}
