// Package spreadsheet reads worksheets from xlsx workbooks into header-keyed rows.
package spreadsheet
