package review

import (
	"errors"
	"fmt"

	dErrors "claimaudit/pkg/domain-errors"
)

// ErrorCategory classifies collaborator failures.
type ErrorCategory string

const (
	// ErrorTimeout: the collaborator did not answer within its deadline.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorUnavailable: the collaborator answered with a failure or not at all.
	ErrorUnavailable ErrorCategory = "unavailable"
)

// NarrativeUnavailable replaces the narrative when the collaborator fails.
const NarrativeUnavailable = "narrative review unavailable"

// CollaboratorError is a request-level failure of an external collaborator.
type CollaboratorError struct {
	Category     ErrorCategory
	Collaborator string
	Underlying   error
	Retryable    bool
	// Narrative is the fixed sentinel shown in place of the review text.
	Narrative string
}

func (e *CollaboratorError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("collaborator %s [%s]: %v", e.Collaborator, e.Category, e.Underlying)
	}
	return fmt.Sprintf("collaborator %s [%s]", e.Collaborator, e.Category)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Underlying
}

// NewCollaboratorError builds the error and wraps it in the matching domain
// code so transports can map it without knowing this type.
func NewCollaboratorError(category ErrorCategory, collaborator string, underlying error) error {
	ce := &CollaboratorError{
		Category:     category,
		Collaborator: collaborator,
		Underlying:   underlying,
		Retryable:    category == ErrorTimeout,
		Narrative:    NarrativeUnavailable,
	}
	if category == ErrorTimeout {
		return dErrors.Wrap(ce, dErrors.CodeTimeout, collaborator+" timed out")
	}
	return dErrors.Wrap(ce, dErrors.CodeUnavailable, collaborator+" unavailable")
}

// IsTimeout reports whether err is a collaborator timeout.
func IsTimeout(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Category == ErrorTimeout
}

// IsRetryable reports whether the request may be retried as-is.
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Retryable
}

// AsCollaboratorError extracts the collaborator failure from err.
func AsCollaboratorError(err error) (*CollaboratorError, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
