// Package report provides run summary output.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown for sharing
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. WriteFiles saves
// the JSON and Markdown summaries into the output directory in parallel.
package report
