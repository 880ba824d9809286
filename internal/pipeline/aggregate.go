package pipeline

import "time"

// Accumulator collects the consolidated output table across tenants. It is an
// explicit value folded through the run, not shared state; row order follows
// tenant processing order, then report document order.
type Accumulator struct {
	rows []OutputRow
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// AddTenant joins one tenant's tracked report rows against its account
// reference table and appends the decorated result. Every tracked row is
// retained whether or not an account matches (account fields stay empty);
// account records without report rows are dropped. A tenant with an empty
// account set or an empty tracked set contributes nothing.
func (a *Accumulator) AddTenant(tenant Tenant, accounts []AccountRecord, tracked []TrackedRow, period, capturedAt time.Time) {
	if len(accounts) == 0 || len(tracked) == 0 {
		return
	}

	byID := make(map[string]AccountRecord, len(accounts))
	for _, acct := range accounts {
		byID[acct.AccountID] = acct
	}

	for _, row := range tracked {
		out := OutputRow{
			OrganizationName:  row.OrganizationName,
			TrackingCategory1: row.TrackingCategory1,
			OrgValue:          row.OrgValue,
			OrgCurrency:       tenant.Currency,
			GroupCurrency:     tenant.Currency,
			GroupValue:        row.OrgValue,
			TrackingCategory2: TrackingCategory2Unassigned,
			Period:            period,
			ActualOrBudget:    ActualOrBudgetActual,
			Timestamp:         capturedAt,
		}

		if acct, ok := byID[row.AccountRef]; ok {
			out.AccountCode = acct.AccountCode
			out.Account = acct.Account
			out.Type = acct.Type
			out.ReportingCode = acct.ReportingCode
			out.ReportingName = acct.ReportingName
			out.Description = acct.Description
		}
		if out.Description == "" {
			out.Description = " "
		}

		a.rows = append(a.rows, out)
	}
}

// Rows returns the accumulated table.
func (a *Accumulator) Rows() []OutputRow {
	return a.rows
}

// Len returns the number of accumulated rows.
func (a *Accumulator) Len() int {
	return len(a.rows)
}
