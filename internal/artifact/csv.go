// Package artifact persists run outputs as flat CSV files, optionally
// mirrored to a GCS bucket.
package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hotelgroup/pnl-sync/internal/pipeline"
)

// Artifact file names. The consolidated table keeps its historical name; the
// downstream loaders look for it.
const (
	TenantsFile   = "tenants.csv"
	PnlFile       = "all_hotels.csv"
	NetIncomeFile = "net_income.csv"
)

const (
	dateFormat = "2006-01-02"
	tsFormat   = time.RFC3339
)

var tenantHeader = []string{"tenant_id", "name", "api_key", "currency", "org_id", "org_status"}

var pnlHeader = []string{
	"account_code", "account", "type", "reporting_code", "reporting_name",
	"description", "organization_name", "tracking_category_1", "org_value",
	"org_currency", "group_currency", "group_value", "tracking_category_2",
	"period", "actual_or_budget", "timestamp",
}

var netIncomeHeader = []string{"org_value"}

// Store reads and writes run artifacts under a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: creating dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the absolute location of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) writeAll(name string, header []string, rows [][]string) (string, error) {
	path := s.Path(name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("artifact: creating %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("artifact: writing %s header: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("artifact: writing %s rows: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("artifact: flushing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("artifact: closing %s: %w", name, err)
	}
	return path, nil
}

// WriteTenants persists the tenant reference table, replacing any previous
// version.
func (s *Store) WriteTenants(tenants []pipeline.Tenant) (string, error) {
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{t.TenantID, t.Name, t.APIKey, t.Currency, t.OrgID, t.OrgStatus})
	}
	return s.writeAll(TenantsFile, tenantHeader, rows)
}

// ReadTenants loads a previously persisted tenant reference table.
func (s *Store) ReadTenants() ([]pipeline.Tenant, error) {
	f, err := os.Open(s.Path(TenantsFile))
	if err != nil {
		return nil, fmt.Errorf("artifact: opening %s: %w", TenantsFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("artifact: reading %s: %w", TenantsFile, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("artifact: %s is empty", TenantsFile)
	}

	// Header sanity: the file must have been written by WriteTenants.
	if len(records[0]) != len(tenantHeader) || records[0][0] != tenantHeader[0] {
		return nil, fmt.Errorf("artifact: %s has unexpected header %v", TenantsFile, records[0])
	}

	tenants := make([]pipeline.Tenant, 0, len(records)-1)
	for _, rec := range records[1:] {
		tenants = append(tenants, pipeline.Tenant{
			TenantID:  rec[0],
			Name:      rec[1],
			APIKey:    rec[2],
			Currency:  rec[3],
			OrgID:     rec[4],
			OrgStatus: rec[5],
		})
	}
	return tenants, nil
}

// WritePnl persists the consolidated output table, replacing any previous
// version. The table is fully rebuilt each run.
func (s *Store) WritePnl(rows []pipeline.OutputRow) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.AccountCode, r.Account, r.Type, r.ReportingCode, r.ReportingName,
			r.Description, r.OrganizationName, r.TrackingCategory1, r.OrgValue,
			r.OrgCurrency, r.GroupCurrency, r.GroupValue, r.TrackingCategory2,
			r.Period.Format(dateFormat), r.ActualOrBudget, r.Timestamp.Format(tsFormat),
		})
	}
	return s.writeAll(PnlFile, pnlHeader, records)
}

// WriteNetIncome persists the per-tenant net income table.
func (s *Store) WriteNetIncome(rows []pipeline.NetIncomeRow) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.OrgValue})
	}
	return s.writeAll(NetIncomeFile, netIncomeHeader, records)
}
