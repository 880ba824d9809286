package pipeline

import (
	"testing"
	"time"
)

var (
	testPeriod   = time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	testCaptured = time.Date(2022, 1, 3, 9, 30, 0, 0, time.UTC)
)

func TestAccumulator_JoinMatch(t *testing.T) {
	acc := NewAccumulator()
	tenant := Tenant{Name: "Grand Hotel", Currency: "EUR"}
	accounts := []AccountRecord{
		{AccountID: "42", Account: "Cash", Type: "BANK", ReportingCode: "ASS", ReportingName: "Assets", AccountCode: "090", Description: "Main till"},
	}
	tracked := []TrackedRow{
		{OrganizationName: "Grand Hotel", TrackingCategory1: "Rooms", AccountRef: "42", OrgValue: "100"},
	}

	acc.AddTenant(tenant, accounts, tracked, testPeriod, testCaptured)

	rows := acc.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Account != "Cash" || row.OrgValue != "100" {
		t.Errorf("joined row = %+v", row)
	}
	if row.AccountCode != "090" || row.Type != "BANK" || row.ReportingCode != "ASS" || row.ReportingName != "Assets" {
		t.Errorf("account fields = %+v", row)
	}
	if row.Description != "Main till" {
		t.Errorf("Description = %q", row.Description)
	}
	if row.OrgCurrency != "EUR" || row.GroupCurrency != "EUR" {
		t.Errorf("currencies = %q/%q, want EUR/EUR", row.OrgCurrency, row.GroupCurrency)
	}
	if row.GroupValue != "100" {
		t.Errorf("GroupValue = %q, want mirror of OrgValue", row.GroupValue)
	}
	if row.TrackingCategory2 != TrackingCategory2Unassigned {
		t.Errorf("TrackingCategory2 = %q", row.TrackingCategory2)
	}
	if row.ActualOrBudget != ActualOrBudgetActual {
		t.Errorf("ActualOrBudget = %q", row.ActualOrBudget)
	}
	if !row.Period.Equal(testPeriod) || !row.Timestamp.Equal(testCaptured) {
		t.Errorf("period/timestamp = %v/%v", row.Period, row.Timestamp)
	}
}

// Tracked rows without a matching account are retained with empty account
// fields; the description still falls back to a single space.
func TestAccumulator_UnmatchedRowRetained(t *testing.T) {
	acc := NewAccumulator()
	tenant := Tenant{Name: "Grand Hotel", Currency: "USD"}
	accounts := []AccountRecord{{AccountID: "42", Account: "Cash"}}
	tracked := []TrackedRow{
		{OrganizationName: "Grand Hotel", TrackingCategory1: "Rooms", AccountRef: "99", OrgValue: "55"},
	}

	acc.AddTenant(tenant, accounts, tracked, testPeriod, testCaptured)

	rows := acc.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Account != "" || row.AccountCode != "" {
		t.Errorf("unmatched row should keep empty account fields, got %+v", row)
	}
	if row.OrgValue != "55" || row.GroupValue != "55" {
		t.Errorf("values = %q/%q", row.OrgValue, row.GroupValue)
	}
	if row.Description != " " {
		t.Errorf("Description = %q, want single space", row.Description)
	}
}

func TestAccumulator_DescriptionFill(t *testing.T) {
	acc := NewAccumulator()
	tenant := Tenant{Name: "Grand Hotel", Currency: "EUR"}
	accounts := []AccountRecord{{AccountID: "42", Account: "Cash"}} // no description
	tracked := []TrackedRow{{AccountRef: "42", OrgValue: "1"}}

	acc.AddTenant(tenant, accounts, tracked, testPeriod, testCaptured)

	if got := acc.Rows()[0].Description; got != " " {
		t.Errorf("Description = %q, want single space", got)
	}
}

func TestAccumulator_EmptySidesContributeNothing(t *testing.T) {
	tenant := Tenant{Name: "Grand Hotel"}
	accounts := []AccountRecord{{AccountID: "42"}}
	tracked := []TrackedRow{{AccountRef: "42", OrgValue: "1"}}

	tests := []struct {
		name     string
		accounts []AccountRecord
		tracked  []TrackedRow
	}{
		{"no accounts", nil, tracked},
		{"no tracked rows", accounts, nil},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			acc.AddTenant(tenant, tt.accounts, tt.tracked, testPeriod, testCaptured)
			if acc.Len() != 0 {
				t.Errorf("got %d rows, want 0", acc.Len())
			}
		})
	}
}

// Accumulation order follows tenant order, then tracked-row order within a
// tenant; identical inputs yield identical output.
func TestAccumulator_Deterministic(t *testing.T) {
	build := func() []OutputRow {
		acc := NewAccumulator()
		acc.AddTenant(Tenant{Name: "Alpha", Currency: "EUR"},
			[]AccountRecord{{AccountID: "1", Account: "A"}},
			[]TrackedRow{{AccountRef: "1", OrgValue: "10"}, {AccountRef: "2", OrgValue: "20"}},
			testPeriod, testCaptured)
		acc.AddTenant(Tenant{Name: "Beta", Currency: "GBP"},
			[]AccountRecord{{AccountID: "3", Account: "B"}},
			[]TrackedRow{{AccountRef: "3", OrgValue: "30"}},
			testPeriod, testCaptured)
		return acc.Rows()
	}

	first := build()
	second := build()
	if len(first) != 3 {
		t.Fatalf("got %d rows, want 3", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].OrgValue != "10" || first[1].OrgValue != "20" || first[2].OrgValue != "30" {
		t.Errorf("row order changed: %+v", first)
	}
}
