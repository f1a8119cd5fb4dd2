// Package pipeline runs the sales task as an ordered list of stages.
//
// Every stage implements Step and receives the same Session, which holds the
// browser page and the run report being filled. Pipeline executes the main
// stages in order and stops at the first failure. Runner wraps a Pipeline
// with the logout stage, which runs exactly once on every path, including
// cancellation and failure of the very first stage.
//
// Per-record failures inside the submit stage are recorded in the report
// and never stop the pipeline.
package pipeline
