// Package main provides the entry point for the salesbot CLI.
//
// salesbot logs into the sales intranet, downloads the weekly sales
// spreadsheet, submits every row through the sales form, and saves a
// screenshot and a PDF export of the results.
//
// Usage:
//
//	salesbot run
//	salesbot history
//
// See --help for all available options.
package main

// main is the entry point for salesbot.
func main() {
	Execute()
}
