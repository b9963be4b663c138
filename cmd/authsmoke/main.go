package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"smokegomodule/internal/accounts"
	"smokegomodule/internal/config"
	"smokegomodule/internal/metrics"
	"smokegomodule/internal/publish"
	"smokegomodule/internal/runner"
	"smokegomodule/internal/types"
	"smokegomodule/internal/validation"
	"smokegomodule/shared/logging"
	"smokegomodule/shared/utils"

	"github.com/joho/godotenv"
)

// Exit codes
const (
	exitPass  = 0
	exitFail  = 1
	exitFatal = 2
)

type options struct {
	configPath   string
	baseURL      string
	output       string
	reports      string
	table        bool
	verbose      bool
	seedAccounts bool
}

func main() {
	loadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("authsmoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Config file (default $SERVICE_HOME/conf/authsmoke.yaml)")
	fs.StringVar(&opts.baseURL, "base-url", "", "Override target.baseUrl")
	fs.StringVar(&opts.output, "output", "", "Results file (default auth_test_results.json)")
	fs.StringVar(&opts.reports, "report", "", "Extra report formats: junit, markdown, html (comma separated)")
	fs.BoolVar(&opts.table, "table", false, "Print a results table after the summary")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&opts.seedAccounts, "seed-accounts", false, "Upsert the configured account list into MongoDB and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return exitFatal
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitFatal
	}

	logger, err := initLogger(cfg, opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return exitFatal
	}
	defer logger.Close()

	runID := utils.GenerateTraceID()
	logger = logger.WithField("runId", runID)
	ctx = utils.WithTraceID(ctx, runID)

	loader := accounts.NewLoader(cfg.Accounts, nil)
	if opts.seedAccounts {
		return seed(ctx, loader, cfg, logger, stdout)
	}

	list, err := loader.Load(ctx)
	if err != nil {
		logger.WithError(err).Errorw("failed to load accounts", "source", cfg.Accounts.Source)
		fmt.Fprintf(os.Stderr, "failed to load accounts: %v\n", err)
		return exitFatal
	}

	console := validation.NewConsole(stdout)
	console.Header()
	logger.Infow("smoke test started", "baseUrl", cfg.Target.BaseURL, "accounts", len(list))

	collector := metrics.NewCollector()
	started := time.Now()
	results := runner.NewRunner(cfg.Target, cfg.Run, logger,
		runner.WithProgress(console), runner.WithMetrics(collector)).Run(ctx, list)
	report := types.NewReport(runID, cfg.Target.BaseURL, started, results)
	collector.Dump(logger)

	console.Summary(report.Summary)
	if opts.table {
		console.Table(results)
	}

	if err := validation.WriteResults(cfg.Run.OutputFile, results); err != nil {
		logger.WithError(err).Errorw("failed to save results", "path", cfg.Run.OutputFile)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFatal
	}
	console.Saved(cfg.Run.OutputFile)

	for _, format := range cfg.Run.ReportFormats {
		path, err := validation.NewReporter(format, filepath.Dir(cfg.Run.OutputFile)).GenerateReport(report)
		if err != nil {
			logger.WithError(err).Errorw("failed to generate report", "format", format)
			continue
		}
		logger.Infow("report generated", "format", format, "path", path)
	}

	// sinks get their own context so a canceled run is still published
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	fanout := publish.FromConfig(pubCtx, cfg.Publish, logger)
	if fanout.Len() > 0 {
		fanout.Publish(pubCtx, report)
	}
	fanout.Close()

	logger.Infow("smoke test finished", "total", report.Summary.Total, "passed", report.Summary.Passed,
		"failed", report.Summary.Failed, "elapsed", report.Duration.String())

	if report.Summary.Failed > 0 {
		return exitFail
	}
	return exitPass
}

func seed(ctx context.Context, loader *accounts.Loader, cfg *config.Config, logger logging.Logger, stdout io.Writer) int {
	if cfg.Accounts.Mongo.URI == "" {
		fmt.Fprintln(os.Stderr, "accounts.mongo.uri is required to seed accounts")
		return exitFatal
	}
	if err := loader.Seed(ctx, cfg.Accounts.List); err != nil {
		logger.WithError(err).Errorw("failed to seed accounts", "collection", cfg.Accounts.Mongo.Collection)
		fmt.Fprintf(os.Stderr, "failed to seed accounts: %v\n", err)
		return exitFatal
	}
	logger.Infow("accounts seeded", "count", len(cfg.Accounts.List), "collection", cfg.Accounts.Mongo.Collection)
	fmt.Fprintf(stdout, "Seeded %d accounts into %s.%s\n", len(cfg.Accounts.List), cfg.Accounts.Mongo.Database, cfg.Accounts.Mongo.Collection)
	return exitPass
}

func loadConfig(opts options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = utils.ResolveConfFilePath("authsmoke.yaml")
	}

	cfg, err := config.LoadConfigWithDefaults(path)
	if err != nil {
		return nil, err
	}

	if opts.baseURL != "" {
		cfg.Target.BaseURL = opts.baseURL
	}
	if opts.output != "" {
		cfg.Run.OutputFile = opts.output
	}
	if opts.reports != "" {
		cfg.Run.ReportFormats = utils.SplitList(opts.reports)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg *config.Config, verbose bool) (logging.Logger, error) {
	if verbose {
		cfg.Logging.Level = "debug"
	}
	loggerConfig := cfg.Logging.ConvertToLoggerConfig()
	return logging.NewLogger(&loggerConfig)
}

// loadEnvFile loads a .env file for local runs; containers use their environment
func loadEnvFile() {
	if isRunningInContainer() {
		return
	}

	envPaths := []string{
		".env",
		filepath.Join(os.Getenv("SERVICE_HOME"), ".env"),
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("failed to load .env from %s: %v", envPath, err)
		}
	}
}

func isRunningInContainer() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	if os.Getenv("CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
