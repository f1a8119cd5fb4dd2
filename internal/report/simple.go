package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/salesbot/internal/model"
)

// SimpleWriter outputs human-readable text summaries for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds stage durations and every successful submission.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStages(&sb, report)
	w.writeSubmissions(&sb, report)
	w.writeArtifacts(&sb, report)

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SALESBOT RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:    %s\n", report.ID)
	fmt.Fprintf(sb, "Started:   %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:  %s\n", formatDuration(report.Duration()))
	fmt.Fprintf(sb, "Status:    %s\n", statusText(report))
	fmt.Fprintf(sb, "Records:   %d attempted, %d submitted, %d failed\n",
		report.Attempted(), report.Succeeded(), report.FailedSubmissions())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeStages(sb *strings.Builder, report *model.RunReport) {
	section(sb, "STAGES")

	for _, s := range report.Stages {
		marker := "[+]"
		if s.Status == model.StatusFailed {
			marker = "[!]"
		}
		line := fmt.Sprintf("  %s %-22s %s", marker, s.Name, s.Status)
		if w.verbose {
			line += "  (" + formatDuration(s.Duration) + ")"
		}
		sb.WriteString(line + "\n")
		if s.Error != "" {
			fmt.Fprintf(sb, "      %s\n", s.Error)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSubmissions(sb *strings.Builder, report *model.RunReport) {
	if report.FailedSubmissions() == 0 && !w.verbose {
		return
	}

	section(sb, "SUBMISSIONS")

	for _, s := range report.Submissions {
		if s.Status == model.StatusOK && !w.verbose {
			continue
		}
		fmt.Fprintf(sb, "  row %-4d %-6s %s\n", s.Row, s.Status, s.Record.FullName())
		if s.Error != "" {
			fmt.Fprintf(sb, "           %s\n", s.Error)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeArtifacts(sb *strings.Builder, report *model.RunReport) {
	if len(report.Artifacts) == 0 {
		return
	}

	section(sb, "ARTIFACTS")

	for _, a := range report.Artifacts {
		fmt.Fprintf(sb, "  %-12s %s (%d bytes)\n", a.Kind, a.Path, a.Size)
	}
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
