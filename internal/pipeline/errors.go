package pipeline

import "errors"

var (
	// ErrLoginNotVerified is returned by the login stage when the configured
	// verification selector does not appear after submitting the form.
	ErrLoginNotVerified = errors.New("login could not be verified")

	// ErrNoSpreadsheet is returned by the submit stage when no spreadsheet
	// path is known.
	ErrNoSpreadsheet = errors.New("no spreadsheet to process")
)
