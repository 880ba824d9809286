package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hotelgroup/pnl-sync/internal/artifact"
	"github.com/hotelgroup/pnl-sync/internal/authstore"
	"github.com/hotelgroup/pnl-sync/internal/config"
	"github.com/hotelgroup/pnl-sync/internal/logger"
	"github.com/hotelgroup/pnl-sync/internal/run"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "tenants":
		runTenants(log)
	case "sync":
		runSync(log)
	case "net-income":
		runNetIncome(log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("P&L Sync CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  tenants     Resolve the tenant directory and write the tenant table")
	fmt.Println("  sync        Run the full multi-tenant P&L consolidation")
	fmt.Println("  net-income  Collect the per-tenant net income lines")
	fmt.Println("  upload      Upload a local artifact file to GCS")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println("\nAll commands need a stored OAuth2 token; start the web app and")
	fmt.Println("visit /login first, then point -config at the same config file.")
}

func newRunner(log zerolog.Logger, configPath string) (*run.Runner, *config.Config) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	tokens := authstore.NewStore(cfg.TokenFile)
	runner, err := run.NewRunner(cfg, tokens, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create runner")
	}
	return runner, cfg
}

func runTenants(log zerolog.Logger) {
	fs := flag.NewFlagSet("tenants", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	fs.Parse(os.Args[2:])

	runner, _ := newRunner(log, *configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	tenants, result, err := runner.SyncTenants(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Tenant resolution failed")
	}

	for _, t := range tenants {
		fmt.Printf("%s  %s (%s)\n", t.TenantID, t.Name, t.Currency)
	}
	fmt.Printf("Wrote %d tenants to %s\n", result.Rows, result.ArtifactPath)
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	fromDate := fs.String("from", "", "Report start date YYYY-MM-DD (overrides config)")
	toDate := fs.String("to", "", "Report end date YYYY-MM-DD (overrides config)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *fromDate != "" {
		cfg.Report.FromDate = *fromDate
	}
	if *toDate != "" {
		cfg.Report.ToDate = *toDate
	}
	if _, _, err := cfg.ReportPeriod(); err != nil {
		log.Fatal().Err(err).Msg("Invalid report period")
	}

	tokens := authstore.NewStore(cfg.TokenFile)
	runner, err := run.NewRunner(cfg, tokens, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create runner")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("from", cfg.Report.FromDate).
		Str("to", cfg.Report.ToDate).
		Msg("Starting P&L consolidation")

	_, result, err := runner.SyncPnl(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Consolidation failed")
	}

	fmt.Printf("Wrote %d rows to %s (run %s)\n", result.Rows, result.ArtifactPath, result.RunID)
}

func runNetIncome(log zerolog.Logger) {
	fs := flag.NewFlagSet("net-income", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	fs.Parse(os.Args[2:])

	runner, _ := newRunner(log, *configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	rows, result, err := runner.NetIncome(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Net income collection failed")
	}

	for _, row := range rows {
		fmt.Println(row.OrgValue)
	}
	fmt.Printf("Wrote %d rows to %s\n", result.Rows, result.ArtifactPath)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local artifact file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := artifact.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}
