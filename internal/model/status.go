package model

import "fmt"

// Status is the outcome of a stage or of a single record submission.
// Every stage distinguishes exactly two outcomes: success and failure.
type Status int

const (
	// StatusOK indicates the stage or submission completed.
	StatusOK Status = iota

	// StatusFailed indicates the stage or submission returned an error.
	StatusFailed
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so statuses appear as words in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ok":
		*s = StatusOK
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}
