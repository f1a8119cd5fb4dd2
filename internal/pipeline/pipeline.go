package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/salesbot/internal/browser"
	"github.com/nao1215/salesbot/internal/model"
)

// Session is the state shared by all stages of one run.
// It is created once by the Runner and passed to every stage by reference.
type Session struct {
	// Page is the browser tab every stage acts on.
	Page browser.Page

	// Report collects stage results, submissions and artifacts.
	Report *model.RunReport

	// Logger is the logger stages write their messages to.
	Logger *slog.Logger

	// SpreadsheetPath is set by the download stage to the local workbook.
	SpreadsheetPath string
}

// NewSession creates a session with a fresh run report.
func NewSession(page browser.Page, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Page:   page,
		Report: model.NewRunReport(),
		Logger: logger,
	}
}

// Step defines the interface that all pipeline stages implement.
type Step interface {
	// Do executes the stage. A non-nil error aborts the remaining stages.
	Do(ctx context.Context, sess *Session) error

	// Name returns the stage name used in logs and the run report.
	Name() string
}

// Announcer is implemented by stages that log a fixed message on success
// and on failure. Stages that do not implement it only get debug output.
type Announcer interface {
	// Messages returns the success and failure log messages.
	Messages() (success, failure string)
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still returned.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order against sess.
// Cancellation is checked before each step; a cancelled context is recorded
// as a failure of the step that would have run next.
func (p *Pipeline) Execute(ctx context.Context, sess *Session) error {
	var firstErr error
	for _, step := range p.steps {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctxErr,
			)
			err = runCancelled(sess, step, ctxErr)
		} else {
			p.logger.Debug("executing step", "step", step.Name())
			err = RunStep(ctx, sess, step)
		}

		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}

	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// RunStep executes one step, logs its outcome, records a StageResult in
// the session's report and returns the step's error unchanged.
func RunStep(ctx context.Context, sess *Session, step Step) error {
	start := time.Now()
	err := step.Do(ctx, sess)
	sess.Report.AddStage(step.Name(), time.Since(start), err)
	announce(sess.Logger, step, err)
	return err
}

func runCancelled(sess *Session, step Step, err error) error {
	sess.Report.AddStage(step.Name(), 0, err)
	announce(sess.Logger, step, err)
	return err
}

func announce(logger *slog.Logger, step Step, err error) {
	success, failure := "step completed", "step failed"
	level := slog.LevelDebug
	if a, ok := step.(Announcer); ok {
		success, failure = a.Messages()
		level = slog.LevelInfo
	}

	if err != nil {
		logger.Error(failure, "step", step.Name(), "error", err)
		return
	}
	logger.Log(context.Background(), level, success, "step", step.Name())
}
