package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hotelgroup/pnl-sync/internal/api/handlers"
	"github.com/hotelgroup/pnl-sync/internal/api/middleware"
	"github.com/hotelgroup/pnl-sync/internal/authstore"
	"github.com/hotelgroup/pnl-sync/internal/config"
	"github.com/hotelgroup/pnl-sync/internal/jobs"
	"github.com/hotelgroup/pnl-sync/internal/jobs/inmemory"
	"github.com/hotelgroup/pnl-sync/internal/logger"
	"github.com/hotelgroup/pnl-sync/internal/run"
	"github.com/hotelgroup/pnl-sync/internal/xero"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "config.yaml", "Path to config file (optional)")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if cfg.Artifacts.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - artifacts will only be written locally")
	}

	ctx := context.Background()

	tokens := authstore.NewStore(cfg.TokenFile)
	oauthConf := xero.OAuthConfig(cfg.Xero.ClientID, cfg.Xero.ClientSecret, cfg.Xero.RedirectURL, cfg.Xero.Scopes)

	runner, err := run.NewRunner(cfg, tokens, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create runner")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.RunJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("kind", string(job.Kind)).
			Msg("Processing run job")

		var result *run.Result
		var err error
		switch job.Kind {
		case jobs.RunKindNetIncome:
			_, result, err = runner.NetIncome(ctx)
		default:
			_, result, err = runner.SyncPnl(ctx)
		}
		if err != nil {
			log.Error().Err(err).Str("job_id", job.JobID).Msg("Run failed")
			return err
		}

		job.RowCount = result.Rows
		job.ArtifactPath = result.ArtifactPath

		log.Info().
			Str("job_id", job.JobID).
			Int("rows", result.Rows).
			Msg("Run completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting run worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Run worker stopped with error")
		}
	}()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(oauthConf, tokens, log)
	reportsHandler := handlers.NewReportsHandler(runner, jobQueue, jobStore, log)

	requireToken := middleware.RequireToken(tokens)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		requireToken(http.HandlerFunc(authHandler.Index)).ServeHTTP(w, r)
	})
	mux.HandleFunc("/login", authHandler.Login)
	mux.HandleFunc("/callback", authHandler.Callback)
	mux.Handle("/logout", requireToken(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("/refresh-token", requireToken(http.HandlerFunc(authHandler.RefreshToken)))
	mux.Handle("/export-token", requireToken(http.HandlerFunc(authHandler.ExportToken)))

	mux.Handle("/tenants", requireToken(http.HandlerFunc(reportsHandler.Tenants)))
	mux.Handle("/net-income", requireToken(http.HandlerFunc(reportsHandler.NetIncome)))
	mux.Handle("/p-and-l", requireToken(http.HandlerFunc(reportsHandler.ProfitAndLoss)))

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			reportsHandler.CreateRun(w, r)
		case http.MethodGet:
			reportsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
			if runID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
				return
			}
			reportsHandler.GetRun(w, r, runID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server. The synchronous report endpoints hold the
	// connection open for the whole run, so the write timeout is generous.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting web server")
		fmt.Printf("Visit http://localhost:%s/login to authenticate with Xero\n", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
