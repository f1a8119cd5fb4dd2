package config

import (
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the RobotSpareBin Industries intranet the bot was written for.
const (
	// DefaultBaseURL is the intranet landing page that hosts the login form.
	DefaultBaseURL = "https://robotsparebinindustries.com/"

	// DefaultSpreadsheetURL is where the weekly sales workbook is published.
	DefaultSpreadsheetURL = "https://robotsparebinindustries.com/SalesData.xlsx"

	// DefaultSheet is the worksheet holding the sales rows.
	DefaultSheet = "data"

	// DefaultOutputDir receives the screenshot, PDF, summaries and run history.
	DefaultOutputDir = "output"

	// DefaultWorkDir is where the spreadsheet is downloaded.
	DefaultWorkDir = "."

	// DefaultScreenshotFile is the results screenshot file name inside the output directory.
	DefaultScreenshotFile = "sales_summary.png"

	// DefaultPDFFile is the results PDF file name inside the output directory.
	DefaultPDFFile = "sales_results.pdf"

	// DefaultDBFile is the run-history database file name inside the output directory.
	DefaultDBFile = "salesbot.db"

	// DefaultSlowMo slows every browser action so a human can follow along.
	DefaultSlowMo = 100 * time.Millisecond

	// DefaultActionTimeout bounds a single browser action (navigation, fill, click).
	DefaultActionTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds the whole spreadsheet download.
	DefaultDownloadTimeout = 60 * time.Second

	// DefaultUserAgent identifies salesbot in HTTP requests.
	DefaultUserAgent = "salesbot/1.0 (+https://github.com/nao1215/salesbot)"

	// AppName is the application name used for XDG directory paths.
	AppName = "salesbot"
)

// Config holds all configuration options for salesbot.
// It is built from defaults, then overlaid with the config file, then with
// CLI flags, and passed through the application explicitly.
type Config struct {
	// BaseURL is the intranet page opened by the first stage.
	BaseURL string

	// SpreadsheetURL is the workbook downloaded by the fetch stage.
	// Its final path segment names the local file.
	SpreadsheetURL string

	// Sheet is the worksheet read from the workbook.
	Sheet string

	// Selectors locate every element the bot interacts with.
	Selectors Selectors

	// VerifySelector, when set, must become visible after login.
	// Empty disables post-login verification.
	VerifySelector string

	// OutputDir receives all artifacts of a run. It is created if missing.
	OutputDir string

	// WorkDir is where the spreadsheet is downloaded.
	WorkDir string

	// ScreenshotFile is the screenshot file name inside OutputDir.
	ScreenshotFile string

	// PDFFile is the PDF file name inside OutputDir.
	PDFFile string

	// Headless runs Chrome without a window.
	Headless bool

	// SlowMo is the delay inserted before each browser action.
	SlowMo time.Duration

	// Timeout bounds each browser action.
	Timeout time.Duration

	// DownloadTimeout bounds the spreadsheet download.
	DownloadTimeout time.Duration

	// Proxy is an optional SOCKS5 proxy address ("host:port") for the download.
	Proxy string

	// UserAgent is sent with the download request.
	UserAgent string

	// Verbose enables debug-level logging.
	Verbose bool

	// ConfigFilePath is the explicit config file path given on the command line.
	ConfigFilePath string

	// JSONReport prints the run summary to stdout as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary to stdout as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// SaveToDB records the run in the run-history database.
	SaveToDB bool

	// ExitZero keeps the exit status at zero even when the pipeline fails.
	ExitZero bool
}

// NewConfig creates a new Config with default values.
// The zero-flag invocation of the bot runs entirely on these defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		SpreadsheetURL:  DefaultSpreadsheetURL,
		Sheet:           DefaultSheet,
		Selectors:       DefaultSelectors(),
		OutputDir:       DefaultOutputDir,
		WorkDir:         DefaultWorkDir,
		ScreenshotFile:  DefaultScreenshotFile,
		PDFFile:         DefaultPDFFile,
		Headless:        true,
		SlowMo:          DefaultSlowMo,
		Timeout:         DefaultActionTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		UserAgent:       DefaultUserAgent,
		SaveToDB:        true,
	}
}

// ScreenshotPath returns the full path of the results screenshot.
func (c *Config) ScreenshotPath() string {
	return filepath.Join(c.OutputDir, c.ScreenshotFile)
}

// PDFPath returns the full path of the results PDF.
func (c *Config) PDFPath() string {
	return filepath.Join(c.OutputDir, c.PDFFile)
}

// DBDir returns the directory holding the run-history database.
func (c *Config) DBDir() string {
	return c.OutputDir
}

// SpreadsheetPath returns where the downloaded workbook is stored.
// The file name is the final path segment of SpreadsheetURL.
func (c *Config) SpreadsheetPath() string {
	name := ""
	if u, err := url.Parse(c.SpreadsheetURL); err == nil {
		name = path.Base(u.Path)
	}
	return filepath.Join(c.WorkDir, name)
}

// XDGConfigDir returns the XDG config directory for salesbot.
// On Linux: ~/.config/salesbot
// On macOS: ~/Library/Application Support/salesbot
// On Windows: %APPDATA%\salesbot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if err := validateURL(c.BaseURL); err != nil {
		return err
	}
	if err := validateURL(c.SpreadsheetURL); err != nil {
		return err
	}

	if c.Sheet == "" {
		return ErrNoSheet
	}

	if err := c.Selectors.Validate(); err != nil {
		return err
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Timeout <= 0 || c.DownloadTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.SlowMo < 0 {
		return ErrInvalidSlowMo
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return ErrNoURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}
