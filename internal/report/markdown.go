package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/salesbot/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStages(md, report)
	w.writeSubmissions(md, report)
	w.writeArtifacts(md, report)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by salesbot, run `%s`*", report.ID)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Salesbot Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Duration", formatDuration(report.Duration())},
			{"Status", w.getStatusText(report)},
			{"Login verified", strconv.FormatBool(report.LoginVerified)},
		},
	})
	md.PlainText("")

	switch {
	case report.Failed():
		md.Cautionf("The run aborted: %s", report.Error)
	case report.FailedSubmissions() > 0:
		md.Warningf("%d of %d record(s) could not be submitted.", report.FailedSubmissions(), report.Attempted())
	case report.Attempted() == 0:
		md.Note("The spreadsheet had no records to submit.")
	default:
		md.Tip("Every record was submitted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if report.Failed() {
		return "❌ Failed"
	}
	if report.FailedSubmissions() > 0 {
		return "⚠️ Complete with skipped records"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeStages(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Stages")
	md.PlainText("")

	rows := make([][]string, len(report.Stages))
	for i, s := range report.Stages {
		status := "✅ ok"
		if s.Status == model.StatusFailed {
			status = "❌ failed"
		}
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{"`" + s.Name + "`", status, formatDuration(s.Duration), truncateString(errText, 80)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Status", "Duration", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSubmissions(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Submissions")
	md.PlainText("")

	if report.Attempted() == 0 {
		md.PlainText("No records were submitted.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Submission Outcome"),
		piechart.WithShowData(true),
	)
	if n := report.Succeeded(); n > 0 {
		chart.LabelAndIntValue("Submitted", uint64(n))
	}
	if n := report.FailedSubmissions(); n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	rows := make([][]string, 0, len(report.Submissions))
	for _, s := range report.Submissions {
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Row),
			s.Record.FullName(),
			s.Record.SalesTarget,
			s.Record.Sales,
			s.Status.String(),
			truncateString(errText, 60),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Row", "Name", "Target", "Sales", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeArtifacts(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Artifacts) == 0 {
		return
	}

	md.H2("Artifacts")
	md.PlainText("")

	items := make([]string, len(report.Artifacts))
	for i, a := range report.Artifacts {
		items[i] = string(a.Kind) + ": `" + a.Path + "` (" + strconv.FormatInt(a.Size, 10) + " bytes)"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
