package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still see a readable message.
var (
	// ErrNoURL is returned when the base URL or spreadsheet URL is empty.
	ErrNoURL = errors.New("no URL specified: base_url and spreadsheet_url are required")

	// ErrInvalidURL is returned when a URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL: must be an absolute http or https URL")

	// ErrNoSheet is returned when the worksheet name is empty.
	ErrNoSheet = errors.New("no worksheet specified")

	// ErrEmptySelector is returned when a required page selector is empty.
	ErrEmptySelector = errors.New("empty selector")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSlowMo is returned when the slow-motion delay is negative.
	// Use 0 to disable it.
	ErrInvalidSlowMo = errors.New("invalid slowmo: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
