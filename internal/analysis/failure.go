package analysis

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	FailureMissingPrecondition FailureKind = "missing_precondition"
	FailureEstimation          FailureKind = "estimation"
)

// Failure is an analysis-level error: the input was structurally present but
// the game could not be analyzed. Parse problems never surface here; they
// are absorbed during normalization.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func newFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func IsMissingPrecondition(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == FailureMissingPrecondition
}

func IsEstimationFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == FailureEstimation
}
