package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/salesbot/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is included in the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the salesbot version alongside the report.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a run report with output metadata and the derived counters,
// which are methods on the report and would otherwise not be serialized.
type JSONReport struct {
	Version   string           `json:"version,omitempty"`
	Failed    bool             `json:"failed"`
	Attempted int              `json:"attempted"`
	Succeeded int              `json:"succeeded"`
	Errored   int              `json:"errored"`
	Report    *model.RunReport `json:"report"`
}

// NewJSONReport creates a JSONReport wrapper.
func NewJSONReport(report *model.RunReport, version string) *JSONReport {
	return &JSONReport{
		Version:   version,
		Failed:    report.Failed(),
		Attempted: report.Attempted(),
		Succeeded: report.Succeeded(),
		Errored:   report.FailedSubmissions(),
		Report:    report,
	}
}

// Write outputs the wrapped report in JSON format.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
