package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every DomainError carries one of them, and callers branch on
// the kind with errors.Is or the Is* helpers below.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidState means the entity is in a status that forbids the
	// operation; ErrStateTransition is the lifecycle refusing a trigger.
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrFeedbackRejected is shown to the user as is.
	ErrFeedbackRejected = errors.New("feedback rejected")
)

// DomainError locates a failure (Domain.Op) and classifies it by Kind.
// Message is safe to return to API clients.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	s := fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes the cause, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches the kind as well as anything in the cause chain.
func (e *DomainError) Is(target error) bool {
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

// NewDomainError creates an error without a cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError attaches domain context to a lower level error.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Sentinel errors returned by repositories and services.
var (
	ErrUserNotFound       = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("user", "Create", ErrAlreadyExists, "user with this email already exists")
	ErrInvalidCredentials = NewDomainError("user", "Login", ErrUnauthorized, "invalid email or password")
	ErrNotAMentor         = NewDomainError("user", "CheckRole", ErrForbidden, "user is not a mentor")
	ErrNotAMentee         = NewDomainError("user", "CheckRole", ErrForbidden, "user is not a mentee")

	ErrCalendarNotFound = NewDomainError("calendar", "Find", ErrNotFound, "calendar not found")

	ErrSessionNotFound   = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrSessionNilSession = NewDomainError("session", "Validate", ErrInvalidInput, "session is required")
	ErrSessionNoTime     = NewDomainError("session", "Validate", ErrInvalidInput, "scheduled time is required")
	ErrSelfMentoring     = NewDomainError("session", "Create", ErrInvalidInput, "mentor and mentee must be different users")

	ErrStudyPlanNotFound = NewDomainError("studyplan", "Find", ErrNotFound, "study plan not found")
	ErrGoalNotFound      = NewDomainError("studyplan", "FindGoal", ErrNotFound, "goal not found")
)

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsValidation reports any invalid-argument kind.
func IsValidation(err error) bool {
	for _, kind := range []error{ErrInvalidInput, ErrInvalidID, ErrEmptyValue, ErrValueOutOfRange} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsIllegalState reports an operation attempted from a forbidding status.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}

// IsForbidden covers both missing and insufficient permissions.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}

func IsFeedbackRejected(err error) bool { return errors.Is(err, ErrFeedbackRejected) }
