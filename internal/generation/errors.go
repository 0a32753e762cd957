package generation

import (
	"errors"
	"fmt"
)

// ErrLoopLimit is returned when the agent loop exhausts its cycle budget
// without the model producing a final text answer.
var ErrLoopLimit = errors.New("agent loop: cycle limit reached without a final answer")

// ErrJobNotFound is returned by registries for unknown generation ids.
var ErrJobNotFound = errors.New("generation job not found")

// ParseError reports model output that could not be decoded as JSON, even
// after extracting the first JSON value from surrounding prose. Raw keeps
// the original output for logging.
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: model output is not valid JSON: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a structurally valid but semantically incomplete
// model response. Index is the position of the offending element.
type ValidationError struct {
	Index int
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "model response is not a JSON array of categories"
	}
	return fmt.Sprintf("category at index %d is missing required field %q", e.Index, e.Field)
}
