package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/salesbot/internal/browser"
	"github.com/nao1215/salesbot/internal/config"
	"github.com/nao1215/salesbot/internal/database"
	"github.com/nao1215/salesbot/internal/download"
	"github.com/nao1215/salesbot/internal/log"
	"github.com/nao1215/salesbot/internal/model"
	"github.com/nao1215/salesbot/internal/pipeline"
	"github.com/nao1215/salesbot/internal/report"
	"github.com/spf13/cobra"
)

// defaultEnvFile is loaded before credentials are resolved.
const defaultEnvFile = ".env"

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit the weekly sales data",
		Long: `Run executes the whole task once:

  1. open the intranet website
  2. log in
  3. download the sales spreadsheet
  4. submit one sales form per spreadsheet row
  5. save a screenshot of the sales summary
  6. export the sales results as PDF
  7. log out (always, even after a failure)

A row that cannot be submitted is logged and skipped. Any other failure
stops the remaining steps; logout still runs and the command exits with
status 1 unless --exit-zero is given.

Examples:
  # Run with defaults (headless Chrome, output in ./output)
  salesbot run

  # Watch the browser work
  salesbot run --headless=false --slowmo 500ms

  # Print the run summary as JSON
  salesbot run --json

  # Use a custom configuration file
  salesbot run -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .salesbot in current or home directory)")
	cmd.Flags().String("env-file", defaultEnvFile,
		"Dotenv file loaded before reading BOT_USERNAME and BOT_PASSWORD")

	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory for screenshots, PDFs, summaries and run history")
	cmd.Flags().Bool("headless", true,
		"Run Chrome without a window")
	cmd.Flags().Duration("slowmo", config.DefaultSlowMo,
		"Delay before every browser action")
	cmd.Flags().DurationP("timeout", "t", config.DefaultActionTimeout,
		"Timeout for each browser action")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for the spreadsheet download (host:port)")

	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON")
	cmd.Flags().Bool("exit-zero", false,
		"Exit with status 0 even when the run fails")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the run-history database")

	cmd.Flags().BoolP("json", "j", false,
		"Print the run summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the run summary as Markdown (mutually exclusive with --json)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	creds := config.LoadCredentials(os.Getenv)

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	logger := setupLogger(os.Stderr, cfg.Verbose, logJSON, creds.Password)
	slog.SetDefault(logger)

	if creds.FromFallback {
		logger.Warn("credentials not set in environment, using fallback defaults",
			"credentials", creds,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runReport, err := runTask(ctx, cfg, creds, logger)
	if err != nil {
		return err
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, runReport); err != nil {
		logger.Error("failed to print run summary", "error", err)
	}

	if runReport.Failed() && !cfg.ExitZero {
		return &exitError{code: 1}
	}
	return nil
}

// setupLogger creates the secure logger. The password is scrubbed from
// every message and attribute.
func setupLogger(w io.Writer, verbose, asJSON bool, password string) *slog.Logger {
	if asJSON {
		return log.NewSecureJSONLogger(w, verbose, log.WithSecrets(password))
	}
	return log.NewSecureLogger(w, verbose, log.WithSecrets(password))
}

// buildConfig creates a Config from defaults, the config file and the
// flags the user actually set, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given file must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("headless") {
		if cfg.Headless, err = flags.GetBool("headless"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("slowmo") {
		if cfg.SlowMo, err = flags.GetDuration("slowmo"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	if cfg.ExitZero, err = flags.GetBool("exit-zero"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runTask runs the pipeline in a fresh Chrome session and stores its
// summaries. Only setup problems are returned as errors; the outcome of the
// task itself is in the report.
func runTask(ctx context.Context, cfg *config.Config, creds model.Credentials, logger *slog.Logger) (*model.RunReport, error) {
	downloader, err := download.New(cfg.WorkDir,
		download.WithProxy(cfg.Proxy),
		download.WithTimeout(cfg.DownloadTimeout),
		download.WithUserAgent(cfg.UserAgent),
		download.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create downloader: %w", err)
	}

	chrome := browser.NewChrome(browser.Options{
		Headless: cfg.Headless,
		SlowMo:   cfg.SlowMo,
		Timeout:  cfg.Timeout,
	}, browser.WithLogger(logger))
	defer func() {
		if err := chrome.Close(); err != nil {
			logger.Debug("failed to close browser", "error", err)
		}
	}()

	runner := pipeline.DefaultRunner(pipeline.Dependencies{
		Config:      cfg,
		Credentials: creds,
		Fetcher:     downloader,
		Logger:      logger,
	})
	runReport := runner.Run(ctx, chrome)

	// Summaries are written even when the run was interrupted.
	writeCtx := context.WithoutCancel(ctx)

	artifacts, err := report.WriteFiles(writeCtx, runReport, cfg.OutputDir, getVersion())
	if err != nil {
		logger.Error("failed to write run summary files", "error", err)
	}
	for _, a := range artifacts {
		runReport.AddArtifact(a)
	}

	if cfg.SaveToDB {
		if err := saveRunReport(writeCtx, cfg.DBDir(), runReport, logger); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}

	return runReport, nil
}

// saveRunReport records the run in the run-history database.
func saveRunReport(ctx context.Context, dir string, runReport *model.RunReport, logger *slog.Logger) (err error) {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	if err := db.SaveRun(ctx, runReport); err != nil {
		return err
	}

	logger.Debug("run saved to history", "run", runReport.ID, "db", db.Path())
	return nil
}

// outputReport prints the run summary in the requested format.
func outputReport(w io.Writer, cfg *config.Config, runReport *model.RunReport) error {
	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(w)
	default:
		writer = report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(runReport)
	return err
}
