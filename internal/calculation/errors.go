package calculation

import (
	"errors"
	"fmt"
)

// ErrRuinNotPresent is returned by the guardrails analyzer when the batch
// shows no ruin probability to mitigate.
var ErrRuinNotPresent = errors.New("batch has zero ruin probability")

// ValidationError reports a malformed or out-of-range input, detected before
// any simulation starts. Field names the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// ComputationError wraps an unexpected failure during a run. Never used for
// ruin, which is a valid simulation outcome.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
