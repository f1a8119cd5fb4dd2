package spreadsheet

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates an xlsx file with one sheet holding rows.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("failed to rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(t.TempDir(), "SalesData.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

// TestReadTable tests reading header-keyed rows.
func TestReadTable(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "data", [][]any{
		{"First Name", " last name ", "Sales Target", "Sales"},
		{"Maria", "Valdez", 10000, 8700},
		{nil, nil, nil, nil},
		{"Ann", "Lee", 5000},
	})

	wb, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })

	table, err := wb.ReadTable("data", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("blank rows are skipped", func(t *testing.T) {
		t.Parallel()
		if table.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", table.Len())
		}
		if table.Rows[1].Index != 2 || table.Rows[1].SheetRow != 4 {
			t.Errorf("unexpected row position: %+v", table.Rows[1])
		}
	})

	t.Run("headers match case-insensitively", func(t *testing.T) {
		t.Parallel()
		v, ok := table.Rows[0].Get("Last Name")
		if !ok || v != "Valdez" {
			t.Errorf("expected Valdez, got %q (%v)", v, ok)
		}
	})

	t.Run("numbers are read raw", func(t *testing.T) {
		t.Parallel()
		v, _ := table.Rows[0].Get("Sales Target")
		if v != "10000" {
			t.Errorf("expected 10000, got %q", v)
		}
	})

	t.Run("short rows lack trailing columns", func(t *testing.T) {
		t.Parallel()
		m := table.Rows[1].Map([]string{"First Name", "Sales"})
		if _, ok := m["Sales"]; ok {
			t.Errorf("expected Sales to be absent, got %v", m)
		}
		if m["First Name"] != "Ann" {
			t.Errorf("expected Ann, got %v", m)
		}
	})
}

// TestReadTableWithoutHeader tests column-letter keys.
func TestReadTableWithoutHeader(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "data", [][]any{
		{"a", "b"},
		{"c", "d"},
	})

	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	table, err := wb.ReadTable("data", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	if v, _ := table.Rows[1].Get("B"); v != "d" {
		t.Errorf("expected d, got %q", v)
	}
}

// TestReadTableEmpty tests worksheets without data rows.
func TestReadTableEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows [][]any
	}{
		{"fully empty", nil},
		{"header only", [][]any{{"First Name", "Last Name", "Sales Target", "Sales"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wb, err := Open(writeWorkbook(t, "data", tt.rows))
			if err != nil {
				t.Fatal(err)
			}
			defer wb.Close()

			table, err := wb.ReadTable("data", true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Len() != 0 {
				t.Errorf("expected no rows, got %d", table.Len())
			}
		})
	}
}

// TestReadTableErrors tests failures to open or find data.
func TestReadTableErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing sheet", func(t *testing.T) {
		t.Parallel()
		wb, err := Open(writeWorkbook(t, "other", [][]any{{"x"}}))
		if err != nil {
			t.Fatal(err)
		}
		defer wb.Close()

		if _, err := wb.ReadTable("data", true); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("expected ErrSheetNotFound, got %v", err)
		}
		if sheets := wb.Sheets(); len(sheets) != 1 || sheets[0] != "other" {
			t.Errorf("unexpected sheets %v", sheets)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
