package pipeline

import (
	"context"
	"errors"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

// fetchAccounts builds the tenant's account reference table: the fixed field
// subset the output schema needs, with the account id normalized to a plain
// string for joining. A BadRequest rejection yields an empty reference set;
// the projection is skipped entirely in that case so there is nothing to
// trip over. Any other error propagates.
func (p *Pipeline) fetchAccounts(ctx context.Context, tenantID string) ([]AccountRecord, error) {
	accounts, err := p.accounting.GetAccounts(ctx, tenantID)
	if err != nil {
		var badReq *xero.BadRequestError
		if errors.As(err, &badReq) {
			p.log.Warn().Str("tenant_id", tenantID).Err(err).Msg("Accounts request rejected, continuing with empty reference set")
			return nil, nil
		}
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}

	records := make([]AccountRecord, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, AccountRecord{
			AccountID:     a.AccountID,
			Account:       a.Name,
			ReportingCode: a.ReportingCode,
			Type:          a.Type,
			Description:   a.Description,
			ReportingName: a.ReportingCodeName,
			AccountCode:   a.Code,
		})
	}
	return records, nil
}
