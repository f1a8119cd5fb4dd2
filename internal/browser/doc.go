// Package browser drives the intranet web page.
//
// Page is the narrow interface the pipeline stages use. Chrome implements it
// over chromedp with a single long-lived tab that is launched on first use.
//
// Selectors are CSS by default. Two text forms are also understood:
//
//	text=Submit              element whose visible text is exactly "Submit"
//	button:text('Log in')    button whose visible text contains "Log in"
//
// Both are translated to XPath.
package browser
