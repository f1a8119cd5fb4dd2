package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/salesbot/internal/config"
	"github.com/nao1215/salesbot/internal/document"
	"github.com/nao1215/salesbot/internal/model"
	"github.com/nao1215/salesbot/internal/spreadsheet"
)

// Stage names as they appear in logs and run reports.
const (
	StageOpenIntranet        = "open_intranet"
	StageLogIn               = "log_in"
	StageDownloadSpreadsheet = "download_spreadsheet"
	StageSubmitSales         = "submit_sales"
	StageCollectResults      = "collect_results"
	StageExportPDF           = "export_pdf"
	StageLogOut              = "log_out"
)

// OpenIntranetStep navigates the page to the intranet site.
type OpenIntranetStep struct {
	url string
}

// NewOpenIntranetStep creates a step that opens url.
func NewOpenIntranetStep(url string) *OpenIntranetStep {
	return &OpenIntranetStep{url: url}
}

// Name returns the step name.
func (s *OpenIntranetStep) Name() string { return StageOpenIntranet }

// Messages returns the step's log messages.
func (s *OpenIntranetStep) Messages() (string, string) {
	return "Successfully opened the intranet website.", "Failed to open the intranet website"
}

// Do executes the step.
func (s *OpenIntranetStep) Do(ctx context.Context, sess *Session) error {
	return sess.Page.Goto(ctx, s.url)
}

// LogInStep fills and submits the login form.
//
// Without a verification selector the step succeeds as soon as the login
// button was clicked, whether or not the site accepted the credentials.
type LogInStep struct {
	selectors      config.Selectors
	credentials    model.Credentials
	verifySelector string
}

// LogInStepOption configures a LogInStep.
type LogInStepOption func(*LogInStep)

// WithVerifySelector makes the step wait for selector after clicking the
// login button and fail with ErrLoginNotVerified if it never appears.
func WithVerifySelector(selector string) LogInStepOption {
	return func(s *LogInStep) {
		s.verifySelector = selector
	}
}

// NewLogInStep creates a login step.
func NewLogInStep(selectors config.Selectors, creds model.Credentials, opts ...LogInStepOption) *LogInStep {
	s := &LogInStep{
		selectors:   selectors,
		credentials: creds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LogInStep) Name() string { return StageLogIn }

// Messages returns the step's log messages.
func (s *LogInStep) Messages() (string, string) {
	return "Successfully logged in.", "Failed to log in"
}

// Do executes the step.
func (s *LogInStep) Do(ctx context.Context, sess *Session) error {
	page := sess.Page
	if err := page.Fill(ctx, s.selectors.Username, s.credentials.Username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := page.Fill(ctx, s.selectors.Password, s.credentials.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := page.Click(ctx, s.selectors.LoginButton); err != nil {
		return fmt.Errorf("failed to click login button: %w", err)
	}

	if s.verifySelector == "" {
		return nil
	}
	if err := page.WaitVisible(ctx, s.verifySelector); err != nil {
		return fmt.Errorf("%w: %w", ErrLoginNotVerified, err)
	}
	sess.Report.LoginVerified = true
	return nil
}

// Fetcher downloads a remote file and returns the local path.
type Fetcher interface {
	Download(ctx context.Context, url string, overwrite bool) (string, error)
}

// DownloadStep fetches the sales spreadsheet, replacing any earlier copy.
type DownloadStep struct {
	fetcher Fetcher
	url     string
}

// NewDownloadStep creates a download step.
func NewDownloadStep(fetcher Fetcher, url string) *DownloadStep {
	return &DownloadStep{fetcher: fetcher, url: url}
}

// Name returns the step name.
func (s *DownloadStep) Name() string { return StageDownloadSpreadsheet }

// Messages returns the step's log messages.
func (s *DownloadStep) Messages() (string, string) {
	return "Excel file downloaded successfully.", "Failed to download the Excel file"
}

// Do executes the step.
func (s *DownloadStep) Do(ctx context.Context, sess *Session) error {
	path, err := s.fetcher.Download(ctx, s.url, true)
	if err != nil {
		return err
	}
	sess.SpreadsheetPath = path
	addArtifact(sess, model.ArtifactSpreadsheet, path)
	return nil
}

// SubmitSalesStep reads the sales worksheet and submits one form per row.
// A row that fails is recorded and skipped. Only a workbook that cannot be
// opened or read fails the step.
type SubmitSalesStep struct {
	selectors config.Selectors
	sheet     string
	path      string
}

// SubmitSalesStepOption configures a SubmitSalesStep.
type SubmitSalesStepOption func(*SubmitSalesStep)

// WithSpreadsheetPath sets the workbook used when the session has none.
func WithSpreadsheetPath(path string) SubmitSalesStepOption {
	return func(s *SubmitSalesStep) {
		s.path = path
	}
}

// NewSubmitSalesStep creates a submit step reading sheet.
func NewSubmitSalesStep(selectors config.Selectors, sheet string, opts ...SubmitSalesStepOption) *SubmitSalesStep {
	s := &SubmitSalesStep{
		selectors: selectors,
		sheet:     sheet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SubmitSalesStep) Name() string { return StageSubmitSales }

// Messages returns the step's log messages.
func (s *SubmitSalesStep) Messages() (string, string) {
	return "All sales records processed.", "Failed to read or process the Excel file"
}

// Do executes the step.
func (s *SubmitSalesStep) Do(ctx context.Context, sess *Session) error {
	table, err := s.readTable(sess)
	if err != nil {
		return err
	}

	sess.Logger.Info(fmt.Sprintf("Processing %d records from Excel.", table.Len()))

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := model.NewSalesRecord(row.Index, row.Map(model.RequiredColumns))
		if err != nil {
			logSubmitFailure(sess, rec, err)
		} else {
			err = SubmitRecord(ctx, sess, s.selectors, rec)
		}
		sess.Report.AddSubmission(rec, err)
		if err != nil {
			sess.Logger.Warn(fmt.Sprintf("Failed to process record %s", rec), "row", row.Index, "error", err)
		}
	}
	return nil
}

// readTable loads the whole worksheet and closes the workbook before any
// form is submitted.
func (s *SubmitSalesStep) readTable(sess *Session) (*spreadsheet.Table, error) {
	path := sess.SpreadsheetPath
	if path == "" {
		path = s.path
	}
	if path == "" {
		return nil, ErrNoSpreadsheet
	}

	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.ReadTable(s.sheet, true)
}

// SubmitRecord fills the sales form with rec and submits it once.
// A failure is logged with the full record and returned.
func SubmitRecord(ctx context.Context, sess *Session, sel config.Selectors, rec model.SalesRecord) error {
	if err := fillForm(ctx, sess, sel, rec); err != nil {
		logSubmitFailure(sess, rec, err)
		return err
	}
	sess.Logger.Info(fmt.Sprintf("Submitted form for %s.", rec.FullName()), "row", rec.Row)
	return nil
}

func logSubmitFailure(sess *Session, rec model.SalesRecord, err error) {
	sess.Logger.Error(fmt.Sprintf("Failed to submit sales form for %s", rec), "record", rec, "error", err)
}

func fillForm(ctx context.Context, sess *Session, sel config.Selectors, rec model.SalesRecord) error {
	page := sess.Page
	if err := page.Fill(ctx, sel.FirstName, rec.FirstName); err != nil {
		return fmt.Errorf("failed to fill first name: %w", err)
	}
	if err := page.Fill(ctx, sel.LastName, rec.LastName); err != nil {
		return fmt.Errorf("failed to fill last name: %w", err)
	}
	if err := page.SelectOption(ctx, sel.SalesTarget, rec.SalesTarget); err != nil {
		return fmt.Errorf("failed to select sales target: %w", err)
	}
	if err := page.Fill(ctx, sel.SalesResult, rec.Sales); err != nil {
		return fmt.Errorf("failed to fill sales result: %w", err)
	}
	if err := page.Click(ctx, sel.Submit); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}
	return nil
}

// CollectResultsStep saves a screenshot of the current viewport.
type CollectResultsStep struct {
	path string
}

// NewCollectResultsStep creates a step writing the screenshot to path.
func NewCollectResultsStep(path string) *CollectResultsStep {
	return &CollectResultsStep{path: path}
}

// Name returns the step name.
func (s *CollectResultsStep) Name() string { return StageCollectResults }

// Messages returns the step's log messages.
func (s *CollectResultsStep) Messages() (string, string) {
	return "Sales summary screenshot saved.", "Failed to take a screenshot of sales summary"
}

// Do executes the step.
func (s *CollectResultsStep) Do(ctx context.Context, sess *Session) error {
	png, err := sess.Page.Screenshot(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(s.path, png, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	addArtifact(sess, model.ArtifactScreenshot, s.path)
	return nil
}

// ExportPDFStep renders the results table to a PDF document.
type ExportPDFStep struct {
	selector string
	path     string
}

// NewExportPDFStep creates a step exporting the element matched by selector.
func NewExportPDFStep(selector, path string) *ExportPDFStep {
	return &ExportPDFStep{selector: selector, path: path}
}

// Name returns the step name.
func (s *ExportPDFStep) Name() string { return StageExportPDF }

// Messages returns the step's log messages.
func (s *ExportPDFStep) Messages() (string, string) {
	return "Sales results exported as PDF.", "Failed to export sales results as a PDF"
}

// Do executes the step.
func (s *ExportPDFStep) Do(ctx context.Context, sess *Session) error {
	fragment, err := sess.Page.InnerHTML(ctx, s.selector)
	if err != nil {
		return err
	}
	if err := document.NewRenderer(sess.Page).HTMLToPDF(ctx, fragment, s.path); err != nil {
		return err
	}
	addArtifact(sess, model.ArtifactDocument, s.path)
	return nil
}

// LogOutStep clicks the logout control.
type LogOutStep struct {
	selector string
}

// NewLogOutStep creates a logout step.
func NewLogOutStep(selector string) *LogOutStep {
	return &LogOutStep{selector: selector}
}

// Name returns the step name.
func (s *LogOutStep) Name() string { return StageLogOut }

// Messages returns the step's log messages.
func (s *LogOutStep) Messages() (string, string) {
	return "Successfully logged out.", "Failed to log out"
}

// Do executes the step.
func (s *LogOutStep) Do(ctx context.Context, sess *Session) error {
	return sess.Page.Click(ctx, s.selector)
}

// addArtifact fingerprints path and records it. A file that cannot be read
// back is logged and left out of the report.
func addArtifact(sess *Session, kind model.ArtifactKind, path string) {
	a, err := model.NewArtifact(kind, path)
	if err != nil {
		sess.Logger.Debug("failed to fingerprint artifact", "path", path, "error", err)
		return
	}
	sess.Report.AddArtifact(a)
}
