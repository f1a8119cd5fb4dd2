package model

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Spreadsheet column headers required to build a SalesRecord.
const (
	ColumnFirstName   = "First Name"
	ColumnLastName    = "Last Name"
	ColumnSalesTarget = "Sales Target"
	ColumnSales       = "Sales"
)

// RequiredColumns lists the columns every data row must supply, in form order.
var RequiredColumns = []string{ColumnFirstName, ColumnLastName, ColumnSalesTarget, ColumnSales}

// ErrMissingField is returned when a row lacks one of the required columns
// or leaves it empty. The record's submission then counts as a failed attempt.
var ErrMissingField = errors.New("missing required field")

// SalesRecord is one row of the weekly sales spreadsheet.
// Numeric cells are kept as the strings the form expects; no identity
// beyond row position is tracked.
type SalesRecord struct {
	// Row is the 1-based data row index (the header row is not counted).
	Row int `json:"row"`

	// FirstName fills the first name text input.
	FirstName string `json:"first_name"`

	// LastName fills the last name text input.
	LastName string `json:"last_name"`

	// SalesTarget selects the sales target option by its value.
	SalesTarget string `json:"sales_target"`

	// Sales fills the sales result text input.
	Sales string `json:"sales"`
}

// NewSalesRecord builds a SalesRecord from a header-keyed row.
// Every required column must be present and non-blank. On ErrMissingField
// the returned record still carries the cells that were read.
func NewSalesRecord(row int, values map[string]string) (SalesRecord, error) {
	rec := SalesRecord{Row: row}
	fields := []*string{&rec.FirstName, &rec.LastName, &rec.SalesTarget, &rec.Sales}

	missing := ""
	for i, column := range RequiredColumns {
		v := strings.TrimSpace(values[column])
		if v == "" && missing == "" {
			missing = column
		}
		*fields[i] = v
	}
	if missing != "" {
		return rec, fmt.Errorf("%w: %q (row %d)", ErrMissingField, missing, row)
	}

	return rec, nil
}

// FullName returns "First Last".
func (r SalesRecord) FullName() string {
	return r.FirstName + " " + r.LastName
}

// String renders the record the way it appears in warning logs.
func (r SalesRecord) String() string {
	return fmt.Sprintf("{row: %d, %s: %s, %s: %s, %s: %s, %s: %s}",
		r.Row,
		ColumnFirstName, r.FirstName,
		ColumnLastName, r.LastName,
		ColumnSalesTarget, r.SalesTarget,
		ColumnSales, r.Sales,
	)
}

// LogValue implements slog.LogValuer.
func (r SalesRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("row", r.Row),
		slog.String("first_name", r.FirstName),
		slog.String("last_name", r.LastName),
		slog.String("sales_target", r.SalesTarget),
		slog.String("sales", r.Sales),
	)
}
