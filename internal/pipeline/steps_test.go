package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/nao1215/salesbot/internal/config"
	"github.com/nao1215/salesbot/internal/model"
	"github.com/nao1215/salesbot/internal/spreadsheet"
)

func TestOpenIntranetStep(t *testing.T) {
	t.Parallel()

	page := newFakePage()
	sess := NewSession(page, slog.New(slog.DiscardHandler))

	if err := NewOpenIntranetStep("https://example.com/").Do(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.visited) != 1 || page.visited[0] != "https://example.com/" {
		t.Errorf("expected one visit to example.com, got %v", page.visited)
	}
}

func TestLogInStep(t *testing.T) {
	t.Parallel()

	sel := config.DefaultSelectors()

	t.Run("fills credentials from the environment", func(t *testing.T) {
		t.Parallel()

		creds := config.LoadCredentials(func(key string) string {
			return map[string]string{
				config.EnvUsername: "alice",
				config.EnvPassword: "s3cret",
			}[key]
		})
		page := newFakePage()
		sess := NewSession(page, slog.New(slog.DiscardHandler))

		if err := NewLogInStep(sel, creds).Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := page.fills[sel.Username]; len(got) != 1 || got[0] != "alice" {
			t.Errorf("expected username alice, got %v", got)
		}
		if got := page.fills[sel.Password]; len(got) != 1 || got[0] != "s3cret" {
			t.Errorf("expected password from environment, got %v", got)
		}
		if page.clickCount(sel.LoginButton) != 1 {
			t.Errorf("expected one click on login button, got %d", page.clickCount(sel.LoginButton))
		}
	})

	t.Run("falls back to default credentials", func(t *testing.T) {
		t.Parallel()

		creds := config.LoadCredentials(func(string) string { return "" })
		page := newFakePage()
		sess := NewSession(page, slog.New(slog.DiscardHandler))

		if err := NewLogInStep(sel, creds).Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := page.fills[sel.Username]; len(got) != 1 || got[0] != config.FallbackUsername {
			t.Errorf("expected fallback username, got %v", got)
		}
		if got := page.fills[sel.Password]; len(got) != 1 || got[0] != config.FallbackPassword {
			t.Errorf("expected fallback password, got %v", got)
		}
	})

	t.Run("rejected login goes undetected without verification", func(t *testing.T) {
		t.Parallel()

		// The site would show an error banner instead of the form, but
		// nothing checks for it unless a verify selector is configured.
		page := newFakePage()
		page.hidden["#sales-form"] = true
		sess := NewSession(page, slog.New(slog.DiscardHandler))

		err := NewLogInStep(sel, model.Credentials{Username: "x", Password: "wrong"}).Do(context.Background(), sess)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if sess.Report.LoginVerified {
			t.Error("expected login to be unverified")
		}
	})

	t.Run("verification fails when selector never appears", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.hidden["#sales-form"] = true
		sess := NewSession(page, slog.New(slog.DiscardHandler))

		step := NewLogInStep(sel, model.Credentials{Username: "x", Password: "wrong"}, WithVerifySelector("#sales-form"))
		err := step.Do(context.Background(), sess)
		if !errors.Is(err, ErrLoginNotVerified) {
			t.Errorf("expected ErrLoginNotVerified, got %v", err)
		}
		if sess.Report.LoginVerified {
			t.Error("expected login to be unverified")
		}
	})

	t.Run("verification succeeds when selector appears", func(t *testing.T) {
		t.Parallel()

		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		step := NewLogInStep(sel, model.Credentials{Username: "x", Password: "y"}, WithVerifySelector("#sales-form"))
		if err := step.Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sess.Report.LoginVerified {
			t.Error("expected login to be verified")
		}
	})
}

func TestDownloadStep(t *testing.T) {
	t.Parallel()

	t.Run("stores path and records artifact", func(t *testing.T) {
		t.Parallel()

		path := writeSalesWorkbook(t, "data", salesHeader)
		fetcher := &fakeFetcher{path: path}
		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		if err := NewDownloadStep(fetcher, "https://example.com/SalesData.xlsx").Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.SpreadsheetPath != path {
			t.Errorf("expected spreadsheet path %s, got %s", path, sess.SpreadsheetPath)
		}
		if len(sess.Report.Artifacts) != 1 || sess.Report.Artifacts[0].Kind != model.ArtifactSpreadsheet {
			t.Errorf("expected one spreadsheet artifact, got %+v", sess.Report.Artifacts)
		}
	})

	t.Run("propagates download error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("unexpected status")
		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		err := NewDownloadStep(&fakeFetcher{err: wantErr}, "https://example.com/x.xlsx").Do(context.Background(), sess)
		if !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
	})
}

func TestSubmitSalesStep(t *testing.T) {
	t.Parallel()

	sel := config.DefaultSelectors()

	tests := []struct {
		name          string
		rows          [][]any
		failValues    []string
		wantAttempted int
		wantFailed    int
	}{
		{
			name: "attempts every row when all succeed",
			rows: [][]any{
				{"Ann", "Lee", 10000, 12000},
				{"Bob", "Ray", 5000, 4000},
				{"Cid", "Oak", 20000, 21000},
			},
			wantAttempted: 3,
		},
		{
			name: "attempts every row when some fail",
			rows: [][]any{
				{"Ann", "Lee", 10000, 12000},
				{"Bob", "Ray", 5000, 4000},
				{"Cid", "Oak", 20000, 21000},
				{"Dee", "Elm", 15000, 9000},
			},
			failValues:    []string{"Bob", "Dee"},
			wantAttempted: 4,
			wantFailed:    2,
		},
		{
			name: "attempts every row when all fail",
			rows: [][]any{
				{"Ann", "Lee", 10000, 12000},
				{"Bob", "Ray", 5000, 4000},
			},
			failValues:    []string{"Ann", "Bob"},
			wantAttempted: 2,
			wantFailed:    2,
		},
		{
			name: "row with missing field counts as failed attempt",
			rows: [][]any{
				{"Ann", "Lee", 10000, 12000},
				{"Bob", "", 5000, 4000},
			},
			wantAttempted: 2,
			wantFailed:    1,
		},
		{
			name:          "header only sheet submits nothing",
			rows:          nil,
			wantAttempted: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := append([][]any{salesHeader}, tt.rows...)
			path := writeSalesWorkbook(t, "data", rows...)

			page := newFakePage()
			for _, v := range tt.failValues {
				page.fillErr[v] = errors.New("element detached")
			}
			logger, logs := newRecordingLogger()
			sess := NewSession(page, logger)
			sess.SpreadsheetPath = path

			if err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sess.Report.Attempted() != tt.wantAttempted {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempted, sess.Report.Attempted())
			}
			if sess.Report.FailedSubmissions() != tt.wantFailed {
				t.Errorf("expected %d failures, got %d", tt.wantFailed, sess.Report.FailedSubmissions())
			}
			if logs.count(slog.LevelWarn) != tt.wantFailed {
				t.Errorf("expected %d warnings, got %d", tt.wantFailed, logs.count(slog.LevelWarn))
			}
			if logs.count(slog.LevelError) != tt.wantFailed {
				t.Errorf("expected %d errors, got %d", tt.wantFailed, logs.count(slog.LevelError))
			}
			wantMsg := "Processing " + strconv.Itoa(len(tt.rows)) + " records from Excel."
			if !logs.has(wantMsg) {
				t.Errorf("expected log message %q", wantMsg)
			}
		})
	}
}

func TestSubmitSalesStepFillsForm(t *testing.T) {
	t.Parallel()

	sel := config.DefaultSelectors()
	path := writeSalesWorkbook(t, "data", salesHeader, []any{"Ann", "Lee", 10000, 12000})
	page := newFakePage()
	sess := NewSession(page, slog.New(slog.DiscardHandler))
	sess.SpreadsheetPath = path

	if err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := map[string]string{
		sel.FirstName:   "Ann",
		sel.LastName:    "Lee",
		sel.SalesResult: "12000",
	}
	for selector, want := range checks {
		if got := page.fills[selector]; len(got) != 1 || got[0] != want {
			t.Errorf("expected %s filled with %q, got %v", selector, want, got)
		}
	}
	if got := page.selects[sel.SalesTarget]; len(got) != 1 || got[0] != "10000" {
		t.Errorf("expected sales target 10000 selected, got %v", got)
	}
	if page.clickCount(sel.Submit) != 1 {
		t.Errorf("expected one submit click, got %d", page.clickCount(sel.Submit))
	}
	if sess.Report.Submissions[0].Record.FullName() != "Ann Lee" {
		t.Errorf("expected record for Ann Lee, got %+v", sess.Report.Submissions[0].Record)
	}
}

func TestSubmitSalesStepIncompleteRow(t *testing.T) {
	t.Parallel()

	sel := config.DefaultSelectors()
	path := writeSalesWorkbook(t, "data", salesHeader, []any{"Ann", "Lee", 10000})
	page := newFakePage()
	logger, logs := newRecordingLogger()
	sess := NewSession(page, logger)
	sess.SpreadsheetPath = path

	if err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "{row: 1, First Name: Ann, Last Name: Lee, Sales Target: 10000, Sales: }"
	if got := sess.Report.Submissions[0].Record.String(); got != want {
		t.Errorf("expected stored record %q, got %q", want, got)
	}
	if !logs.has("Failed to process record " + want) {
		t.Errorf("expected warning with row contents, got %v", logs.messages(slog.LevelWarn))
	}
	if !logs.has("Failed to submit sales form for " + want) {
		t.Errorf("expected error with row contents, got %v", logs.messages(slog.LevelError))
	}
	if page.clickCount(sel.Submit) != 0 {
		t.Errorf("expected no submit click, got %d", page.clickCount(sel.Submit))
	}
}

func TestSubmitSalesStepErrors(t *testing.T) {
	t.Parallel()

	sel := config.DefaultSelectors()

	t.Run("missing sheet aborts before any submission", func(t *testing.T) {
		t.Parallel()

		path := writeSalesWorkbook(t, "other", salesHeader, []any{"Ann", "Lee", 10000, 12000})
		page := newFakePage()
		sess := NewSession(page, slog.New(slog.DiscardHandler))
		sess.SpreadsheetPath = path

		err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess)
		if !errors.Is(err, spreadsheet.ErrSheetNotFound) {
			t.Errorf("expected ErrSheetNotFound, got %v", err)
		}
		if sess.Report.Attempted() != 0 {
			t.Errorf("expected no attempts, got %d", sess.Report.Attempted())
		}
		if page.clickCount(sel.Submit) != 0 {
			t.Error("expected no submit clicks")
		}
	})

	t.Run("unreadable file aborts", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "SalesData.xlsx")
		if err := os.WriteFile(path, []byte("not a workbook"), 0o600); err != nil {
			t.Fatal(err)
		}
		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))
		sess.SpreadsheetPath = path

		if err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess); err == nil {
			t.Error("expected error for unreadable workbook")
		}
	})

	t.Run("falls back to configured path", func(t *testing.T) {
		t.Parallel()

		path := writeSalesWorkbook(t, "data", salesHeader, []any{"Ann", "Lee", 10000, 12000})
		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		if err := NewSubmitSalesStep(sel, "data", WithSpreadsheetPath(path)).Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.Report.Attempted() != 1 {
			t.Errorf("expected 1 attempt, got %d", sess.Report.Attempted())
		}
	})

	t.Run("no path at all", func(t *testing.T) {
		t.Parallel()

		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		err := NewSubmitSalesStep(sel, "data").Do(context.Background(), sess)
		if !errors.Is(err, ErrNoSpreadsheet) {
			t.Errorf("expected ErrNoSpreadsheet, got %v", err)
		}
	})
}

func TestCollectResultsStep(t *testing.T) {
	t.Parallel()

	t.Run("writes screenshot", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "output", "sales_summary.png")
		sess := NewSession(newFakePage(), slog.New(slog.DiscardHandler))

		if err := NewCollectResultsStep(path).Do(context.Background(), sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected screenshot file: %v", err)
		}
		if !strings.Contains(string(data), "PNG") {
			t.Errorf("expected PNG data, got %q", data)
		}
		if len(sess.Report.Artifacts) != 1 || sess.Report.Artifacts[0].Kind != model.ArtifactScreenshot {
			t.Errorf("expected screenshot artifact, got %+v", sess.Report.Artifacts)
		}
	})

	t.Run("propagates capture error", func(t *testing.T) {
		t.Parallel()

		page := newFakePage()
		page.screenshotErr = errors.New("target closed")
		sess := NewSession(page, slog.New(slog.DiscardHandler))

		err := NewCollectResultsStep(filepath.Join(t.TempDir(), "x.png")).Do(context.Background(), sess)
		if !errors.Is(err, page.screenshotErr) {
			t.Errorf("expected capture error, got %v", err)
		}
	})
}

func TestExportPDFStep(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "output", "sales_results.pdf")
	page := newFakePage()
	sess := NewSession(page, slog.New(slog.DiscardHandler))

	if err := NewExportPDFStep("#sales-results", path).Do(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.printed) != 1 {
		t.Fatalf("expected one print, got %d", len(page.printed))
	}
	if !strings.Contains(page.printed[0], "<td>Ann Lee</td>") {
		t.Errorf("expected fragment in printed document, got %q", page.printed[0])
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected PDF file: %v", err)
	}
	if len(sess.Report.Artifacts) != 1 || sess.Report.Artifacts[0].Kind != model.ArtifactDocument {
		t.Errorf("expected document artifact, got %+v", sess.Report.Artifacts)
	}
}

func TestExportPDFStepEmptyResults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sales_results.pdf")
	page := newFakePage()
	page.fragment = ""
	sess := NewSession(page, slog.New(slog.DiscardHandler))

	if err := NewExportPDFStep("#sales-results", path).Do(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.printed) != 1 || !strings.Contains(page.printed[0], "<body></body>") {
		t.Errorf("expected a blank document to be printed, got %q", page.printed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected PDF file: %v", err)
	}
}
