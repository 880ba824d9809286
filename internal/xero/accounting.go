package xero

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	activeFilter = `Status=="ACTIVE"`
	nameOrder    = "Name ASC"

	dateFormat = "2006-01-02"
)

// GetOrganisations fetches the organisation records for a tenant. Xero
// returns a single-element list for organisation tenants.
func (c *Client) GetOrganisations(ctx context.Context, tenantID string) ([]Organisation, error) {
	var resp organisationsResponse
	if err := c.get(ctx, tenantID, accountingPath+"/Organisation", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Organisations, nil
}

// GetTrackingCategories fetches the active tracking categories ordered by
// name, including archived options.
func (c *Client) GetTrackingCategories(ctx context.Context, tenantID string) ([]TrackingCategory, error) {
	q := url.Values{}
	q.Set("where", activeFilter)
	q.Set("order", nameOrder)
	q.Set("includeArchived", "true")

	var resp trackingCategoriesResponse
	if err := c.get(ctx, tenantID, accountingPath+"/TrackingCategories", q, &resp); err != nil {
		return nil, err
	}
	return resp.TrackingCategories, nil
}

// GetAccounts fetches the active chart of accounts ordered by name.
func (c *Client) GetAccounts(ctx context.Context, tenantID string) ([]Account, error) {
	q := url.Values{}
	q.Set("where", activeFilter)
	q.Set("order", nameOrder)

	var resp accountsResponse
	if err := c.get(ctx, tenantID, accountingPath+"/Accounts", q, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// GetReportProfitAndLoss fetches a profit-and-loss report. The response
// carries a single report entry; an empty Reports list is an error because
// the caller has nothing to flatten.
func (c *Client) GetReportProfitAndLoss(ctx context.Context, req ReportRequest) (*Report, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("xero: report request requires a tenant id")
	}
	if req.FromDate.IsZero() || req.ToDate.IsZero() {
		return nil, fmt.Errorf("xero: report request requires from and to dates")
	}
	if (req.TrackingCategoryID == "") != (req.TrackingOptionID == "") {
		return nil, fmt.Errorf("xero: tracking category and option ids must be set together")
	}

	q := url.Values{}
	q.Set("fromDate", req.FromDate.Format(dateFormat))
	q.Set("toDate", req.ToDate.Format(dateFormat))
	if req.Timeframe != "" {
		q.Set("timeframe", req.Timeframe)
	}
	q.Set("standardLayout", strconv.FormatBool(req.StandardLayout))
	q.Set("paymentsOnly", strconv.FormatBool(req.PaymentsOnly))
	if req.TrackingCategoryID != "" {
		q.Set("trackingCategoryID", req.TrackingCategoryID)
		q.Set("trackingOptionID", req.TrackingOptionID)
	}

	var resp reportsResponse
	if err := c.get(ctx, req.TenantID, accountingPath+"/Reports/ProfitAndLoss", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Reports) == 0 {
		return nil, fmt.Errorf("xero: profit and loss response contained no reports")
	}
	return &resp.Reports[0], nil
}
