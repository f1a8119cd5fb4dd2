package model

import (
	"time"

	"github.com/google/uuid"
)

// RunReport is the structured record of one task invocation.
// It is filled by the pipeline stages as they run and then handed to the
// report writers and the run-history database.
//
// A RunReport is owned by a single goroutine while the pipeline runs.
// It is not safe for concurrent mutation.
type RunReport struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the cleanup stage completed.
	FinishedAt time.Time `json:"finished_at"`

	// Stages holds one result per executed stage, in execution order.
	Stages []StageResult `json:"stages"`

	// Submissions holds one result per attempted record, in row order.
	Submissions []Submission `json:"submissions"`

	// Artifacts lists files written to the output directory.
	Artifacts []Artifact `json:"artifacts,omitempty"`

	// LoginVerified is true only when post-login verification is enabled
	// and the configured selector appeared.
	LoginVerified bool `json:"login_verified"`

	// Error is the message of the error that aborted the main pipeline.
	// Empty when every main stage completed.
	Error string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// StageResult is the outcome of one pipeline stage.
type StageResult struct {
	// Name is the stage name (for example "log_in").
	Name string `json:"name"`

	// Status is ok or failed.
	Status Status `json:"status"`

	// Error is the failure message, if any.
	Error string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// Duration is how long the stage took.
	Duration time.Duration `json:"duration"`
}

// Submission is the outcome of one record's form submission.
type Submission struct {
	// Row is the 1-based data row index.
	Row int `json:"row"`

	// Record is the row data. A blank field means the row was incomplete
	// and never reached the form.
	Record SalesRecord `json:"record"`

	// Status is ok or failed.
	Status Status `json:"status"`

	// Error is the failure message, if any.
	Error string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRunReport creates an empty report with a fresh ID and start time.
func NewRunReport() *RunReport {
	return &RunReport{
		ID:          uuid.NewString(),
		StartedAt:   time.Now(),
		Stages:      make([]StageResult, 0, 7),
		Submissions: make([]Submission, 0),
	}
}

// AddStage appends a stage result.
func (r *RunReport) AddStage(name string, d time.Duration, err error) {
	res := StageResult{Name: name, Status: StatusOK, Duration: d}
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
	}
	r.Stages = append(r.Stages, res)
}

// AddSubmission appends the result of one record's submission.
func (r *RunReport) AddSubmission(rec SalesRecord, err error) {
	s := Submission{Row: rec.Row, Record: rec, Status: StatusOK}
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
	}
	r.Submissions = append(r.Submissions, s)
}

// AddArtifact appends an output file.
func (r *RunReport) AddArtifact(a Artifact) {
	r.Artifacts = append(r.Artifacts, a)
}

// Stage returns the result for the named stage, if it ran.
func (r *RunReport) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Attempted returns the number of records whose submission was attempted.
func (r *RunReport) Attempted() int {
	return len(r.Submissions)
}

// Succeeded returns the number of records submitted without error.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, s := range r.Submissions {
		if s.Status == StatusOK {
			n++
		}
	}
	return n
}

// FailedSubmissions returns the number of records whose submission failed.
func (r *RunReport) FailedSubmissions() int {
	return r.Attempted() - r.Succeeded()
}

// Failed reports whether the main pipeline aborted.
// Per-record failures and a failed logout do not count.
func (r *RunReport) Failed() bool {
	return r.Error != ""
}

// Duration returns the wall time of the run, or zero if it has not finished.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
