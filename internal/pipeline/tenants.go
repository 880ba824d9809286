package pipeline

import (
	"context"
	"fmt"

	"github.com/hotelgroup/pnl-sync/internal/xero"
)

// ResolveTenants enumerates connected organisations and builds the tenant
// reference table. Demo companies are excluded; an organisation whose
// IsDemoCompany flag is missing counts as a demo company. A failure listing
// connections or fetching organisation metadata is fatal for the run: no
// partial tenant list is produced.
func (p *Pipeline) ResolveTenants(ctx context.Context) ([]Tenant, error) {
	conns, err := p.identity.GetConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving tenants: %w", err)
	}

	var tenants []Tenant
	for _, conn := range conns {
		if conn.TenantType != xero.TenantTypeOrganisation {
			continue
		}

		orgs, err := p.accounting.GetOrganisations(ctx, conn.TenantID)
		if err != nil {
			return nil, fmt.Errorf("resolving tenants: organisation for %s: %w", conn.TenantID, err)
		}
		if len(orgs) == 0 {
			p.log.Warn().Str("tenant_id", conn.TenantID).Msg("Connection has no organisation record, skipping")
			continue
		}

		org := orgs[0]
		if org.IsDemoCompany == nil || *org.IsDemoCompany {
			p.log.Debug().Str("tenant_id", conn.TenantID).Str("name", conn.TenantName).Msg("Skipping demo company")
			continue
		}

		tenants = append(tenants, Tenant{
			TenantID:  conn.TenantID,
			Name:      conn.TenantName,
			APIKey:    org.APIKey,
			Currency:  org.BaseCurrency,
			OrgID:     org.OrganisationID,
			OrgStatus: org.OrganisationStatus,
		})
	}

	p.log.Info().Int("count", len(tenants)).Msg("Resolved tenants")
	return tenants, nil
}
