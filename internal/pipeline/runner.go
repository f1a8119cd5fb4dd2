package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/salesbot/internal/browser"
	"github.com/nao1215/salesbot/internal/config"
	"github.com/nao1215/salesbot/internal/model"
)

// DefaultCleanupTimeout bounds the logout stage when the run context has
// already been cancelled.
const DefaultCleanupTimeout = 10 * time.Second

// Runner executes the main pipeline and then the cleanup stage.
// It never returns an error; the outcome is in the returned report.
type Runner struct {
	pipeline       *Pipeline
	cleanup        Step
	logger         *slog.Logger
	cleanupTimeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger for the runner and its session.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCleanupTimeout sets how long logout may take after cancellation.
func WithCleanupTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.cleanupTimeout = d
		}
	}
}

// NewRunner creates a Runner that runs p and then cleanup.
func NewRunner(p *Pipeline, cleanup Step, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline:       p,
		cleanup:        cleanup,
		cleanupTimeout: DefaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes the task on page and returns its report.
// A pipeline failure is logged and stored in the report. The cleanup stage
// runs exactly once afterwards; if ctx is already done it gets a fresh
// context bounded by the cleanup timeout.
func (r *Runner) Run(ctx context.Context, page browser.Page) *model.RunReport {
	sess := NewSession(page, r.logger)
	r.logger.Info("Bot started.", "run", sess.Report.ID)

	if err := r.pipeline.Execute(ctx, sess); err != nil {
		r.logger.Error("An unexpected error occurred", "error", err)
		sess.Report.Error = err.Error()
	}

	if r.cleanup != nil {
		cleanupCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			cleanupCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), r.cleanupTimeout)
			defer cancel()
		}
		// Logout failures are already logged by RunStep.
		_ = RunStep(cleanupCtx, sess, r.cleanup)
	}

	sess.Report.FinishedAt = time.Now()
	r.logger.Info("Bot execution finished.", "duration", sess.Report.Duration())
	return sess.Report
}

// Dependencies are the collaborators the default runner needs besides the page.
type Dependencies struct {
	// Config supplies URLs, selectors and output paths.
	Config *config.Config

	// Credentials are typed into the login form.
	Credentials model.Credentials

	// Fetcher downloads the spreadsheet.
	Fetcher Fetcher

	// Logger receives every log line of the run.
	Logger *slog.Logger
}

// DefaultRunner builds the standard task: open the intranet, log in,
// download the spreadsheet, submit every record, screenshot the results,
// export them as PDF, and always log out.
func DefaultRunner(deps Dependencies) *Runner {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var loginOpts []LogInStepOption
	if cfg.VerifySelector != "" {
		loginOpts = append(loginOpts, WithVerifySelector(cfg.VerifySelector))
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewOpenIntranetStep(cfg.BaseURL),
		NewLogInStep(cfg.Selectors, deps.Credentials, loginOpts...),
		NewDownloadStep(deps.Fetcher, cfg.SpreadsheetURL),
		NewSubmitSalesStep(cfg.Selectors, cfg.Sheet, WithSpreadsheetPath(cfg.SpreadsheetPath())),
		NewCollectResultsStep(cfg.ScreenshotPath()),
		NewExportPDFStep(cfg.Selectors.Results, cfg.PDFPath()),
	)

	return NewRunner(p, NewLogOutStep(cfg.Selectors.Logout), WithRunnerLogger(logger))
}
