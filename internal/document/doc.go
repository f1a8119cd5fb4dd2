// Package document turns an HTML fragment scraped from the intranet into a
// standalone PDF file.
package document
