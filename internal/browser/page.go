package browser

import (
	"context"
	"errors"
)

// ErrOptionNotFound is returned by SelectOption when the select element has
// no option with the requested value.
var ErrOptionNotFound = errors.New("option not found")

// ErrElementNotFound is returned when a selector matches nothing.
var ErrElementNotFound = errors.New("element not found")

// Page is one browser tab. Every method blocks until the action completes,
// the per-action timeout expires, or ctx is cancelled.
type Page interface {
	// Goto navigates to url and waits for the page to load.
	Goto(ctx context.Context, url string) error

	// Fill replaces the value of the text input matched by selector.
	Fill(ctx context.Context, selector, value string) error

	// SelectOption selects the option whose value attribute equals value.
	SelectOption(ctx context.Context, selector, value string) error

	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string) error

	// WaitVisible waits until the element matched by selector is visible.
	WaitVisible(ctx context.Context, selector string) error

	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// InnerHTML returns the inner HTML of the element matched by selector.
	InnerHTML(ctx context.Context, selector string) (string, error)

	// PrintPDF renders a complete HTML document to PDF.
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}
