package pipeline

import "github.com/hotelgroup/pnl-sync/internal/xero"

// netIncomeLabel must match the report cell byte for byte; Xero localizes
// nothing on this line in standard layout.
const netIncomeLabel = "Net Income"

// FlattenReport walks the two-level row hierarchy of a profit-and-loss report
// and emits one ReportRow per leaf sub-row, in document order. Section rows
// without sub-rows contribute nothing. Sub-rows with fewer than two cells
// never fail; the missing label or value is simply empty.
func FlattenReport(report *xero.Report) []ReportRow {
	if report == nil {
		return nil
	}

	var rows []ReportRow
	for _, section := range report.Rows {
		if len(section.Rows) == 0 {
			continue
		}
		for _, sub := range section.Rows {
			rows = append(rows, flattenLeaf(sub))
		}
	}
	return rows
}

func flattenLeaf(row xero.Row) ReportRow {
	var out ReportRow
	if len(row.Cells) > 0 {
		out.Label = row.Cells[0].Value.String()
		if len(row.Cells[0].Attributes) > 0 {
			out.AccountRef = row.Cells[0].Attributes[0].Value
		}
	}
	if len(row.Cells) > 1 {
		out.Value = row.Cells[1].Value.String()
	}
	return out
}

// ExtractNetIncome retains only the rows labelled exactly "Net Income",
// discarding any account reference. A standard-layout report yields at most
// one such row.
func ExtractNetIncome(report *xero.Report) []NetIncomeRow {
	var out []NetIncomeRow
	for _, row := range FlattenReport(report) {
		if row.Label == netIncomeLabel {
			out = append(out, NetIncomeRow{OrgValue: row.Value})
		}
	}
	return out
}

// ExtractTrackedRows retains only the rows that carry an account reference,
// annotating each with the tenant name and the tracking option the report was
// fetched for. Values pass through unmodified.
func ExtractTrackedRows(report *xero.Report, orgName, optionName string) []TrackedRow {
	var out []TrackedRow
	for _, row := range FlattenReport(report) {
		if row.AccountRef == "" {
			continue
		}
		out = append(out, TrackedRow{
			OrganizationName:  orgName,
			TrackingCategory1: optionName,
			AccountRef:        row.AccountRef,
			OrgValue:          row.Value,
		})
	}
	return out
}
