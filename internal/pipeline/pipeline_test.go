package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

type mockIdentity struct {
	conns []xero.Connection
	err   error
}

func (m *mockIdentity) GetConnections(ctx context.Context) ([]xero.Connection, error) {
	return m.conns, m.err
}

type mockAccounting struct {
	orgs    map[string][]xero.Organisation
	orgErr  error
	cats    map[string][]xero.TrackingCategory
	catErr  error
	accts   map[string][]xero.Account
	acctErr error

	reportFn    func(req xero.ReportRequest) (*xero.Report, error)
	reportCalls []xero.ReportRequest
}

func (m *mockAccounting) GetOrganisations(ctx context.Context, tenantID string) ([]xero.Organisation, error) {
	if m.orgErr != nil {
		return nil, m.orgErr
	}
	return m.orgs[tenantID], nil
}

func (m *mockAccounting) GetTrackingCategories(ctx context.Context, tenantID string) ([]xero.TrackingCategory, error) {
	if m.catErr != nil {
		return nil, m.catErr
	}
	return m.cats[tenantID], nil
}

func (m *mockAccounting) GetAccounts(ctx context.Context, tenantID string) ([]xero.Account, error) {
	if m.acctErr != nil {
		return nil, m.acctErr
	}
	return m.accts[tenantID], nil
}

func (m *mockAccounting) GetReportProfitAndLoss(ctx context.Context, req xero.ReportRequest) (*xero.Report, error) {
	m.reportCalls = append(m.reportCalls, req)
	if m.reportFn == nil {
		return &xero.Report{}, nil
	}
	return m.reportFn(req)
}

func boolPtr(b bool) *bool { return &b }

func newTestPipeline(identity IdentityService, accounting AccountingService) *Pipeline {
	from := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	p := New(identity, accounting, from, to, zerolog.Nop())
	return p.WithClock(func() time.Time { return testCaptured })
}

func TestResolveTenants(t *testing.T) {
	identity := &mockIdentity{conns: []xero.Connection{
		{TenantID: "t1", TenantType: "ORGANISATION", TenantName: "Grand Hotel"},
		{TenantID: "t2", TenantType: "ORGANISATION", TenantName: "Demo Co"},
		{TenantID: "t3", TenantType: "ORGANISATION", TenantName: "Legacy Co"},
		{TenantID: "t4", TenantType: "PRACTICEMANAGER", TenantName: "Practice"},
	}}
	accounting := &mockAccounting{orgs: map[string][]xero.Organisation{
		"t1": {{OrganisationID: "o1", Name: "Grand Hotel", BaseCurrency: "EUR", OrganisationStatus: "ACTIVE", APIKey: "key1", IsDemoCompany: boolPtr(false)}},
		"t2": {{OrganisationID: "o2", IsDemoCompany: boolPtr(true)}},
		"t3": {{OrganisationID: "o3"}}, // IsDemoCompany absent: excluded
	}}

	tenants, err := newTestPipeline(identity, accounting).ResolveTenants(context.Background())
	if err != nil {
		t.Fatalf("ResolveTenants() error = %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("got %d tenants, want 1: %+v", len(tenants), tenants)
	}

	got := tenants[0]
	want := Tenant{TenantID: "t1", Name: "Grand Hotel", APIKey: "key1", Currency: "EUR", OrgID: "o1", OrgStatus: "ACTIVE"}
	if got != want {
		t.Errorf("tenant = %+v, want %+v", got, want)
	}
}

func TestResolveTenants_ConnectionFailureIsFatal(t *testing.T) {
	identity := &mockIdentity{err: errors.New("network down")}

	_, err := newTestPipeline(identity, &mockAccounting{}).ResolveTenants(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "network down") {
		t.Errorf("error = %v, want wrapped upstream error", err)
	}
}

func TestResolveTenants_OrganisationFailureIsFatal(t *testing.T) {
	identity := &mockIdentity{conns: []xero.Connection{
		{TenantID: "t1", TenantType: "ORGANISATION"},
	}}
	accounting := &mockAccounting{orgErr: &xero.BadRequestError{Endpoint: "/Organisation", Body: "nope"}}

	if _, err := newTestPipeline(identity, accounting).ResolveTenants(context.Background()); err == nil {
		t.Fatal("expected error: organisation lookup is outside the recovery guard")
	}
}

func trackedReport(rows ...xero.Row) *xero.Report {
	return &xero.Report{Rows: []xero.Row{{RowType: "Section", Rows: rows}}}
}

func TestSyncProfitAndLoss(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel", Currency: "EUR"}
	accounting := &mockAccounting{
		cats: map[string][]xero.TrackingCategory{
			"t1": {{
				TrackingCategoryID: "tc1",
				Name:               "Department",
				Options: []xero.TrackingOption{
					{TrackingOptionID: "op1", Name: "Rooms"},
					{TrackingOptionID: "op2", Name: "Restaurant"},
				},
			}},
		},
		accts: map[string][]xero.Account{
			"t1": {
				{AccountID: "acc-1", Code: "200", Name: "Room Revenue", Type: "REVENUE"},
				{AccountID: "acc-2", Code: "210", Name: "Food Sales", Type: "REVENUE", Description: "Restaurant"},
			},
		},
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			switch req.TrackingOptionID {
			case "op1":
				return trackedReport(leafRow("Room Revenue", "1200.50", "acc-1")), nil
			case "op2":
				return trackedReport(
					leafRow("Food Sales", "300.00", "acc-2"),
					leafRow("Unknown", "9.99", "acc-404"),
				), nil
			}
			return nil, fmt.Errorf("unexpected option %q", req.TrackingOptionID)
		},
	}

	rows, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant})
	if err != nil {
		t.Fatalf("SyncProfitAndLoss() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	if rows[0].Account != "Room Revenue" || rows[0].TrackingCategory1 != "Rooms" || rows[0].OrgValue != "1200.50" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Account != "Food Sales" || rows[1].TrackingCategory1 != "Restaurant" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	// Unmatched account ref still emitted.
	if rows[2].Account != "" || rows[2].OrgValue != "9.99" || rows[2].Description != " " {
		t.Errorf("rows[2] = %+v", rows[2])
	}

	// One report call per tracking option, carrying the tracking pair.
	if len(accounting.reportCalls) != 2 {
		t.Fatalf("got %d report calls, want 2", len(accounting.reportCalls))
	}
	for _, call := range accounting.reportCalls {
		if call.TrackingCategoryID != "tc1" {
			t.Errorf("report call missing tracking category: %+v", call)
		}
		if call.Timeframe != "MONTH" || !call.StandardLayout || call.PaymentsOnly {
			t.Errorf("report call parameters = %+v", call)
		}
	}
}

func TestSyncProfitAndLoss_NoTrackingCategory(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{
		accts: map[string][]xero.Account{"t1": {{AccountID: "acc-1"}}},
	}

	rows, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant})
	if err != nil {
		t.Fatalf("SyncProfitAndLoss() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
	if len(accounting.reportCalls) != 0 {
		t.Errorf("no tracking options should mean no report calls, got %d", len(accounting.reportCalls))
	}
}

func TestSyncProfitAndLoss_TrackingRejectionRecovered(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{
		catErr: &xero.BadRequestError{Endpoint: "/TrackingCategories", Body: "no permission"},
		accts:  map[string][]xero.Account{"t1": {{AccountID: "acc-1"}}},
	}

	rows, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant})
	if err != nil {
		t.Fatalf("rejection should be recovered, got error %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestSyncProfitAndLoss_TrackingTransportErrorIsFatal(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{catErr: errors.New("connection reset")}

	if _, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant}); err == nil {
		t.Fatal("only BadRequest rejections are recovered; transport errors must propagate")
	}
}

func TestSyncProfitAndLoss_AccountRejectionRecovered(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{
		cats: map[string][]xero.TrackingCategory{
			"t1": {{TrackingCategoryID: "tc1", Options: []xero.TrackingOption{{TrackingOptionID: "op1", Name: "Rooms"}}}},
		},
		acctErr: &xero.BadRequestError{Endpoint: "/Accounts", Body: "no permission"},
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			return trackedReport(leafRow("Room Revenue", "1", "acc-1")), nil
		},
	}

	rows, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant})
	if err != nil {
		t.Fatalf("rejection should be recovered, got error %v", err)
	}
	// Tracked rows exist but the account side is empty: tenant contributes
	// nothing, and the run keeps going.
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestSyncProfitAndLoss_ReportFailureIsFatal(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{
		cats: map[string][]xero.TrackingCategory{
			"t1": {{TrackingCategoryID: "tc1", Options: []xero.TrackingOption{{TrackingOptionID: "op1", Name: "Rooms"}}}},
		},
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			return nil, &xero.BadRequestError{Endpoint: "/Reports/ProfitAndLoss", Body: "bad params"}
		},
	}

	if _, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant}); err == nil {
		t.Fatal("report fetch is outside the recovery guard and must abort the run")
	}
}

// The second tracking category is ignored; only the master's options drive
// report calls.
func TestSyncProfitAndLoss_MasterCategoryOnly(t *testing.T) {
	tenant := Tenant{TenantID: "t1", Name: "Grand Hotel"}
	accounting := &mockAccounting{
		cats: map[string][]xero.TrackingCategory{
			"t1": {
				{TrackingCategoryID: "tc1", Name: "Department", Options: []xero.TrackingOption{{TrackingOptionID: "op1", Name: "Rooms"}}},
				{TrackingCategoryID: "tc2", Name: "Region", Options: []xero.TrackingOption{{TrackingOptionID: "op9", Name: "North"}}},
			},
		},
		accts: map[string][]xero.Account{"t1": {{AccountID: "acc-1", Name: "Room Revenue"}}},
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			return trackedReport(leafRow("Room Revenue", "1", "acc-1")), nil
		},
	}

	if _, err := newTestPipeline(&mockIdentity{}, accounting).SyncProfitAndLoss(context.Background(), []Tenant{tenant}); err != nil {
		t.Fatalf("SyncProfitAndLoss() error = %v", err)
	}
	if len(accounting.reportCalls) != 1 {
		t.Fatalf("got %d report calls, want 1", len(accounting.reportCalls))
	}
	if accounting.reportCalls[0].TrackingCategoryID != "tc1" {
		t.Errorf("report used category %q, want tc1", accounting.reportCalls[0].TrackingCategoryID)
	}
}

func TestCollectNetIncome(t *testing.T) {
	tenants := []Tenant{
		{TenantID: "t1", Name: "Alpha"},
		{TenantID: "t2", Name: "Beta"},
	}
	accounting := &mockAccounting{
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			if req.TrackingCategoryID != "" {
				t.Errorf("net income report must not carry tracking params: %+v", req)
			}
			value := map[string]string{"t1": "100.00", "t2": "-42.50"}[req.TenantID]
			return trackedReport(
				leafRow("Gross Profit", "999", ""),
				leafRow("Net Income", value, ""),
			), nil
		},
	}

	rows, err := newTestPipeline(&mockIdentity{}, accounting).CollectNetIncome(context.Background(), tenants)
	if err != nil {
		t.Fatalf("CollectNetIncome() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].OrgValue != "100.00" || rows[1].OrgValue != "-42.50" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCollectNetIncome_ReportFailureIsFatal(t *testing.T) {
	accounting := &mockAccounting{
		reportFn: func(req xero.ReportRequest) (*xero.Report, error) {
			return nil, errors.New("boom")
		},
	}

	if _, err := newTestPipeline(&mockIdentity{}, accounting).CollectNetIncome(context.Background(), []Tenant{{TenantID: "t1"}}); err == nil {
		t.Fatal("expected error")
	}
}
