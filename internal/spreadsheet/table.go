package spreadsheet

// Table is the content of one worksheet.
type Table struct {
	// Sheet is the worksheet name.
	Sheet string

	// Headers are the trimmed header cells, empty when read without a header.
	Headers []string

	// Rows are the non-blank data rows in sheet order.
	Rows []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Row is one data row.
type Row struct {
	// Index is the 1-based position among data rows.
	Index int

	// SheetRow is the 1-based row number in the worksheet.
	SheetRow int

	values map[string]string
}

// Get returns the cell under column. Column names match case-insensitively
// with surrounding and repeated whitespace ignored.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.values[foldKey(column)]
	return v, ok
}

// Map returns the cells under the given columns, keyed by the names as passed.
// Columns the row does not have are absent from the result.
func (r Row) Map(columns []string) map[string]string {
	m := make(map[string]string, len(columns))
	for _, c := range columns {
		if v, ok := r.Get(c); ok {
			m[c] = v
		}
	}
	return m
}
