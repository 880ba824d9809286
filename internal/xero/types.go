package xero

import (
	"bytes"
	"encoding/json"
	"time"
)

// Connection is one entry from the identity /connections endpoint.
type Connection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}

// TenantTypeOrganisation marks connections that point at an accounting
// organisation (as opposed to e.g. a practice manager tenant).
const TenantTypeOrganisation = "ORGANISATION"

// Organisation is the accounting API organisation record. Only the fields the
// pipeline consumes are modelled.
type Organisation struct {
	OrganisationID     string `json:"OrganisationID"`
	Name               string `json:"Name"`
	APIKey             string `json:"APIKey"`
	BaseCurrency       string `json:"BaseCurrency"`
	OrganisationStatus string `json:"OrganisationStatus"`

	// IsDemoCompany is a pointer so that an absent field can be told apart
	// from an explicit false. Callers treat absent as demo.
	IsDemoCompany *bool `json:"IsDemoCompany"`
}

type organisationsResponse struct {
	Organisations []Organisation `json:"Organisations"`
}

// TrackingCategory is a user-defined reporting dimension with its options.
type TrackingCategory struct {
	TrackingCategoryID string           `json:"TrackingCategoryID"`
	Name               string           `json:"Name"`
	Status             string           `json:"Status"`
	Options            []TrackingOption `json:"Options"`
}

// TrackingOption is one value of a tracking category.
type TrackingOption struct {
	TrackingOptionID string `json:"TrackingOptionID"`
	Name             string `json:"Name"`
	Status           string `json:"Status"`
}

type trackingCategoriesResponse struct {
	TrackingCategories []TrackingCategory `json:"TrackingCategories"`
}

// Account is one chart-of-accounts entry.
type Account struct {
	AccountID         string `json:"AccountID"`
	Code              string `json:"Code"`
	Name              string `json:"Name"`
	Type              string `json:"Type"`
	Status            string `json:"Status"`
	Description       string `json:"Description"`
	ReportingCode     string `json:"ReportingCode"`
	ReportingCodeName string `json:"ReportingCodeName"`
}

type accountsResponse struct {
	Accounts []Account `json:"Accounts"`
}

// Report is one report entry from the Reports endpoint. Rows nest one level:
// section rows carry sub-rows, sub-rows carry cells.
type Report struct {
	ReportID     string   `json:"ReportID"`
	ReportName   string   `json:"ReportName"`
	ReportType   string   `json:"ReportType"`
	ReportTitles []string `json:"ReportTitles"`
	Rows         []Row    `json:"Rows"`
}

type reportsResponse struct {
	Reports []Report `json:"Reports"`
}

// Row is a report row. Section rows populate Rows, leaf rows populate Cells.
type Row struct {
	RowType string `json:"RowType"`
	Title   string `json:"Title,omitempty"`
	Cells   []Cell `json:"Cells,omitempty"`
	Rows    []Row  `json:"Rows,omitempty"`
}

// Cell is one report cell. The first cell of a leaf row may carry attributes
// referencing the account behind the line.
type Cell struct {
	Value      CellValue       `json:"Value"`
	Attributes []CellAttribute `json:"Attributes,omitempty"`
}

// CellAttribute links a cell to an entity, typically an account ID.
type CellAttribute struct {
	ID    string `json:"Id"`
	Value string `json:"Value"`
}

// CellValue preserves the upstream representation of a cell value. The report
// endpoint mixes strings and bare numbers; downstream stages must see the
// exact upstream text, so numbers are kept as their literal JSON form rather
// than being coerced through float64.
type CellValue string

func (v *CellValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = CellValue(s)
		return nil
	}
	*v = CellValue(data)
	return nil
}

func (v CellValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v CellValue) String() string { return string(v) }

// ReportRequest parameterizes a profit-and-loss report call. FromDate and
// ToDate are required; the tracking pair is optional and must be set together.
type ReportRequest struct {
	TenantID string

	FromDate time.Time
	ToDate   time.Time

	Timeframe      string // e.g. "MONTH"
	StandardLayout bool
	PaymentsOnly   bool

	TrackingCategoryID string
	TrackingOptionID   string
}
