// Package model defines the data structures shared across salesbot.
//
// This package contains the following main types:
//   - SalesRecord: One spreadsheet row mapped to the four fields the sales form needs
//   - Credentials: The intranet login pair resolved once at startup
//   - Artifact: A file written to the output directory
//   - RunReport: The structured record of one task invocation
//
// Models live in their own package so that the pipeline, report writers and
// the run-history database can share them without import cycles. All of them
// serialize to JSON for summary output and database storage.
package model
