package rag

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery indicates a query with no content after trimming.
var ErrEmptyQuery = errors.New("empty query")

// PipelineError wraps a failure with the stage it occurred in, so a handler
// can log where a request died without parsing error strings.
type PipelineError struct {
	Stage State
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// failed wraps err as a PipelineError for the given stage.
func failed(stage State, err error) error {
	return &PipelineError{Stage: stage, Err: err}
}
