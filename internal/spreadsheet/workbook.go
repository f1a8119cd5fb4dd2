package spreadsheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

// ErrSheetNotFound is returned when the workbook has no worksheet with the requested name.
var ErrSheetNotFound = errors.New("worksheet not found")

// foldKey normalizes header names so that "First Name", "first  name " and
// "FIRST NAME" address the same column. A Caser is stateful, so each call gets its own.
func foldKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// Workbook is an open xlsx file.
type Workbook struct {
	path string
	file *excelize.File
}

// Open opens the workbook at path. Callers must Close it.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets lists the worksheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// ReadTable reads a worksheet into rows.
//
// With header true the first row names the columns and every following row
// becomes a data row keyed by those names; header cells that are blank are
// ignored. With header false every row is data and keys are column letters
// ("A", "B", ...). Fully blank rows are skipped in both modes. Cells are read
// as their raw stored values, not their display format.
func (w *Workbook) ReadTable(sheet string, header bool) (*Table, error) {
	if idx, err := w.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheet, w.path)
	}

	raw, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	t := &Table{Sheet: sheet}
	start := 0
	if header {
		if len(raw) == 0 {
			return t, nil
		}
		for _, h := range raw[0] {
			t.Headers = append(t.Headers, strings.TrimSpace(h))
		}
		start = 1
	}

	for i := start; i < len(raw); i++ {
		cells := raw[i]
		if isBlank(cells) {
			continue
		}

		row := Row{
			Index:    len(t.Rows) + 1,
			SheetRow: i + 1,
			values:   make(map[string]string, len(cells)),
		}
		for col, cell := range cells {
			key, ok := t.columnKey(col, header)
			if !ok {
				continue
			}
			row.values[foldKey(key)] = strings.TrimSpace(cell)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func (t *Table) columnKey(col int, header bool) (string, bool) {
	if !header {
		name, err := excelize.ColumnNumberToName(col + 1)
		return name, err == nil
	}
	if col >= len(t.Headers) || t.Headers[col] == "" {
		return "", false
	}
	return t.Headers[col], true
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
