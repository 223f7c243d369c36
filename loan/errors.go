/*
errors.go - Centralized error types for the engine

PURPOSE:
  The engine has exactly two failure modes. Invalid loan parameters are
  rejected before generation begins and carry the full list of violated
  rules. An inconsistent schedule is not an error at all: the reconciler
  reports it as data (ScheduleConsistent=false) and the system keeps
  operating with both the stored and recalculated figures visible.

USAGE:
  Callers can match with errors.Is/errors.As:

    if errors.Is(err, loan.ErrInvalidLoanParameters) { ... }

    var invalid *loan.InvalidLoanParametersError
    if errors.As(err, &invalid) {
        for _, rule := range invalid.Violations { ... }
    }

SEE ALSO:
  - validate.go: Produces the violation lists
  - schedule.go: Returns InvalidLoanParametersError, never generates on
    invalid input
*/
package loan

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidLoanParameters is returned when loan terms violate a
	// principal/rate/term/grace constraint. Generation is never attempted
	// on invalid input.
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")

	// ErrEmptySchedule is returned by operations that require at least one
	// schedule entry.
	ErrEmptySchedule = errors.New("schedule has no entries")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidLoanParametersError carries every validation rule the terms
// violated, so callers can surface all problems at once rather than one
// per round trip.
type InvalidLoanParametersError struct {
	Violations []string
}

func (e *InvalidLoanParametersError) Error() string {
	return fmt.Sprintf("invalid loan parameters: %s", strings.Join(e.Violations, "; "))
}

func (e *InvalidLoanParametersError) Unwrap() error {
	return ErrInvalidLoanParameters
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidLoanParameters) ||
		errors.Is(err, ErrEmptySchedule)
}
