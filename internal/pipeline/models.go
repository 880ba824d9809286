package pipeline

import "time"

// Tenant is one connected, non-demo organisation, as resolved from the Xero
// connection list. Immutable for the duration of a run.
type Tenant struct {
	TenantID  string
	Name      string
	APIKey    string
	Currency  string
	OrgID     string
	OrgStatus string
}

// TrackingOption is one value of the master tracking category.
type TrackingOption struct {
	Name string
	ID   string
}

// TrackingOptions maps the master tracking category to its options. Options
// keep the upstream order so report calls, and therefore output rows, are
// deterministic across runs.
type TrackingOptions struct {
	CategoryID string
	Options    []TrackingOption
}

// Empty reports whether the tenant has no usable tracking dimension.
func (t TrackingOptions) Empty() bool {
	return t.CategoryID == "" || len(t.Options) == 0
}

// AccountRecord is the pipeline-internal projection of one chart-of-accounts
// entry. AccountID is always the string form of the upstream identifier so it
// can be joined against report account references.
type AccountRecord struct {
	AccountID     string
	Account       string // account name
	ReportingCode string
	Type          string
	Description   string
	ReportingName string
	AccountCode   string
}

// ReportRow is one flattened leaf row of a profit-and-loss report.
// AccountRef is empty when the first cell carried no attributes.
type ReportRow struct {
	Label      string
	Value      string
	AccountRef string
}

// TrackedRow is a mode-b extraction result: a report row that carries an
// account reference, annotated with its tenant and tracking option.
type TrackedRow struct {
	OrganizationName  string
	TrackingCategory1 string
	AccountRef        string
	OrgValue          string
}

// NetIncomeRow is a mode-a extraction result.
type NetIncomeRow struct {
	OrgValue string
}

// OutputRow is one row of the consolidated multi-tenant table: a TrackedRow
// joined against its AccountRecord plus run decorations. Account fields stay
// zero-valued when no account matched the reference.
type OutputRow struct {
	AccountCode       string
	Account           string
	Type              string
	ReportingCode     string
	ReportingName     string
	Description       string
	OrganizationName  string
	TrackingCategory1 string
	OrgValue          string
	OrgCurrency       string
	GroupCurrency     string
	GroupValue        string
	TrackingCategory2 string
	Period            time.Time
	ActualOrBudget    string
	Timestamp         time.Time
}

// Decoration constants. No currency conversion or budget data exists in this
// pipeline; the second tracking dimension is never populated.
const (
	TrackingCategory2Unassigned = "Unassigned"
	ActualOrBudgetActual        = "Actual"
)
