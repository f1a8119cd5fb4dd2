package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
)

// fakePage is a browser.Page that records every action.
type fakePage struct {
	mu sync.Mutex

	// gotoErr is returned by Goto.
	gotoErr error
	// clickErr maps selectors to errors returned by Click.
	clickErr map[string]error
	// fillErr maps filled values to errors returned by Fill.
	fillErr map[string]error
	// hidden lists selectors WaitVisible reports as missing.
	hidden map[string]bool
	// screenshotErr is returned by Screenshot.
	screenshotErr error
	// fragment is returned by InnerHTML.
	fragment string

	visited []string
	fills   map[string][]string
	selects map[string][]string
	clicks  map[string]int
	// cancelledClicks counts clicks made with an already cancelled context.
	cancelledClicks int
	printed         []string
}

func newFakePage() *fakePage {
	return &fakePage{
		clickErr: make(map[string]error),
		fillErr:  make(map[string]error),
		hidden:   make(map[string]bool),
		fills:    make(map[string][]string),
		selects:  make(map[string][]string),
		clicks:   make(map[string]int),
		fragment: "<table><tr><td>Ann Lee</td></tr></table>",
	}
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return p.gotoErr
}

func (p *fakePage) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills[selector] = append(p.fills[selector], value)
	return p.fillErr[value]
}

func (p *fakePage) SelectOption(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selects[selector] = append(p.selects[selector], value)
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks[selector]++
	if ctx.Err() != nil {
		p.cancelledClicks++
	}
	return p.clickErr[selector]
}

func (p *fakePage) WaitVisible(_ context.Context, selector string) error {
	if p.hidden[selector] {
		return errors.New("timed out waiting for " + selector)
	}
	return nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	return []byte("\x89PNG fake"), nil
}

func (p *fakePage) InnerHTML(context.Context, string) (string, error) {
	return p.fragment, nil
}

func (p *fakePage) PrintPDF(_ context.Context, html string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed = append(p.printed, html)
	return []byte("%PDF-1.4 fake"), nil
}

func (p *fakePage) clickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clicks[selector]
}

// fakeFetcher returns a fixed local path instead of downloading.
type fakeFetcher struct {
	path  string
	err   error
	calls int
}

func (f *fakeFetcher) Download(_ context.Context, _ string, overwrite bool) (string, error) {
	f.calls++
	if !overwrite {
		return "", errors.New("expected overwrite")
	}
	return f.path, f.err
}

// recordingHandler keeps every log record for inspection.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

// messages returns the messages logged at level.
func (h *recordingHandler) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var msgs []string
	for _, r := range h.records {
		if r.Level == level {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

func (h *recordingHandler) has(msg string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message == msg {
			return true
		}
	}
	return false
}

func newRecordingLogger() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{}
	return slog.New(h), h
}

var salesHeader = []any{"First Name", "Last Name", "Sales Target", "Sales"}

// writeSalesWorkbook creates SalesData.xlsx with the given sheet and rows.
func writeSalesWorkbook(t *testing.T, sheet string, rows ...[]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
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
