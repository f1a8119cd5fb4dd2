package report

import (
	"io"
	"time"

	"github.com/nao1215/salesbot/internal/model"
)

// timeLayout is used for every timestamp in summaries.
const timeLayout = "2006-01-02 15:04:05 MST"

// Writer defines the interface for run summary output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns the one-line outcome of a run.
func statusText(report *model.RunReport) string {
	if report.Failed() {
		return "FAILED - " + report.Error
	}
	return "Complete"
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
