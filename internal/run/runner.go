// Package run wires the pipeline to its collaborators (Xero client, artifact
// store, optional GCS mirror and BigQuery sink) for one-shot runs triggered
// from the web app or the CLI.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hotelgroup/pnl-sync/internal/artifact"
	"github.com/hotelgroup/pnl-sync/internal/authstore"
	"github.com/hotelgroup/pnl-sync/internal/config"
	infra "github.com/hotelgroup/pnl-sync/internal/infra/bigquery"
	"github.com/hotelgroup/pnl-sync/internal/pipeline"
	"github.com/hotelgroup/pnl-sync/internal/xero"
)

// ErrNotAuthenticated is returned when no OAuth2 token is stored yet.
var ErrNotAuthenticated = errors.New("run: not authenticated; complete the login flow first")

// Result summarizes one finished run.
type Result struct {
	RunID        string
	Rows         int
	ArtifactPath string
}

// Runner builds and executes pipeline runs against the live Xero APIs.
type Runner struct {
	cfg       *config.Config
	tokens    *authstore.Store
	artifacts *artifact.Store
	log       zerolog.Logger
}

// NewRunner creates a runner. The artifact directory is created if needed.
func NewRunner(cfg *config.Config, tokens *authstore.Store, log zerolog.Logger) (*Runner, error) {
	artifacts, err := artifact.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, tokens: tokens, artifacts: artifacts, log: log}, nil
}

// Artifacts exposes the underlying artifact store.
func (r *Runner) Artifacts() *artifact.Store {
	return r.artifacts
}

func (r *Runner) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	tok, err := r.tokens.Token()
	if err != nil {
		if errors.Is(err, authstore.ErrNoToken) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	conf := xero.OAuthConfig(r.cfg.Xero.ClientID, r.cfg.Xero.ClientSecret, r.cfg.Xero.RedirectURL, r.cfg.Xero.Scopes)
	ts := r.tokens.TokenSource(ctx, conf, tok)
	client := xero.NewClient(ctx, ts)

	from, to, err := r.cfg.ReportPeriod()
	if err != nil {
		return nil, err
	}
	return pipeline.New(client, client, from, to, r.log), nil
}

// SyncTenants resolves the tenant directory and persists the tenant
// reference table.
func (r *Runner) SyncTenants(ctx context.Context) ([]pipeline.Tenant, *Result, error) {
	p, err := r.newPipeline(ctx)
	if err != nil {
		return nil, nil, err
	}

	tenants, err := p.ResolveTenants(ctx)
	if err != nil {
		return nil, nil, err
	}

	path, err := r.artifacts.WriteTenants(tenants)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	if err := r.mirror(ctx, runID, artifact.TenantsFile); err != nil {
		return nil, nil, err
	}
	if r.cfg.BigQuery.Project != "" {
		sink, err := infra.NewSink(ctx, r.cfg.BigQuery.Project, r.cfg.BigQuery.Dataset)
		if err != nil {
			return nil, nil, err
		}
		defer sink.Close()
		if err := sink.ReplaceTenants(ctx, tenants, runID); err != nil {
			return nil, nil, err
		}
	}

	return tenants, &Result{RunID: runID, Rows: len(tenants), ArtifactPath: path}, nil
}

// tenantList loads the persisted tenant table, resolving and persisting it
// first when no table exists yet.
func (r *Runner) tenantList(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Tenant, error) {
	if _, err := os.Stat(r.artifacts.Path(artifact.TenantsFile)); os.IsNotExist(err) {
		r.log.Info().Msg("No tenant table found, resolving tenants first")
		tenants, err := p.ResolveTenants(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := r.artifacts.WriteTenants(tenants); err != nil {
			return nil, err
		}
		return tenants, nil
	}
	return r.artifacts.ReadTenants()
}

// SyncPnl runs the full consolidation and persists the output table.
func (r *Runner) SyncPnl(ctx context.Context) ([]pipeline.OutputRow, *Result, error) {
	p, err := r.newPipeline(ctx)
	if err != nil {
		return nil, nil, err
	}

	tenants, err := r.tenantList(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	rows, err := p.SyncProfitAndLoss(ctx, tenants)
	if err != nil {
		return nil, nil, err
	}

	path, err := r.artifacts.WritePnl(rows)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	if err := r.mirror(ctx, runID, artifact.PnlFile); err != nil {
		return nil, nil, err
	}
	if r.cfg.BigQuery.Project != "" {
		sink, err := infra.NewSink(ctx, r.cfg.BigQuery.Project, r.cfg.BigQuery.Dataset)
		if err != nil {
			return nil, nil, err
		}
		defer sink.Close()
		if err := sink.ReplacePnl(ctx, rows, runID); err != nil {
			return nil, nil, err
		}
	}

	return rows, &Result{RunID: runID, Rows: len(rows), ArtifactPath: path}, nil
}

// NetIncome collects the per-tenant net income lines and persists them.
func (r *Runner) NetIncome(ctx context.Context) ([]pipeline.NetIncomeRow, *Result, error) {
	p, err := r.newPipeline(ctx)
	if err != nil {
		return nil, nil, err
	}

	tenants, err := r.tenantList(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	rows, err := p.CollectNetIncome(ctx, tenants)
	if err != nil {
		return nil, nil, err
	}

	path, err := r.artifacts.WriteNetIncome(rows)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	if err := r.mirror(ctx, runID, artifact.NetIncomeFile); err != nil {
		return nil, nil, err
	}

	return rows, &Result{RunID: runID, Rows: len(rows), ArtifactPath: path}, nil
}

func (r *Runner) mirror(ctx context.Context, runID string, names ...string) error {
	if r.cfg.Artifacts.Bucket == "" {
		return nil
	}
	prefix := "runs/" + runID
	if err := r.artifacts.MirrorRun(ctx, r.cfg.Artifacts.Bucket, prefix, names...); err != nil {
		return fmt.Errorf("mirroring artifacts to gs://%s/%s: %w", r.cfg.Artifacts.Bucket, prefix, err)
	}
	r.log.Info().Str("bucket", r.cfg.Artifacts.Bucket).Str("prefix", prefix).Msg("Artifacts mirrored to GCS")
	return nil
}
