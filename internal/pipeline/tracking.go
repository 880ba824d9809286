package pipeline

import (
	"context"
	"errors"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

// resolveTracking fetches the tenant's tracking categories and keeps the
// first one as the master dimension. Tenants with several tracking categories
// are only partially modelled; the extras are ignored with a warning.
//
// A BadRequest rejection from Xero is recovered locally: the tenant simply
// has no tracking options and contributes zero report calls. Any other error
// propagates.
func (p *Pipeline) resolveTracking(ctx context.Context, tenantID string) (TrackingOptions, error) {
	cats, err := p.accounting.GetTrackingCategories(ctx, tenantID)
	if err != nil {
		var badReq *xero.BadRequestError
		if errors.As(err, &badReq) {
			p.log.Warn().Str("tenant_id", tenantID).Err(err).Msg("Tracking category request rejected, continuing with none")
			return TrackingOptions{}, nil
		}
		return TrackingOptions{}, err
	}
	if len(cats) == 0 {
		return TrackingOptions{}, nil
	}
	if len(cats) > 1 {
		p.log.Warn().
			Str("tenant_id", tenantID).
			Int("categories", len(cats)).
			Str("master", cats[0].Name).
			Msg("Tenant has multiple tracking categories, using only the first")
	}

	master := cats[0]
	opts := TrackingOptions{CategoryID: master.TrackingCategoryID}
	for _, opt := range master.Options {
		opts.Options = append(opts.Options, TrackingOption{Name: opt.Name, ID: opt.TrackingOptionID})
	}
	return opts, nil
}
