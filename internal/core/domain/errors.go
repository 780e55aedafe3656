package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by services wraps exactly one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotFound           = errors.New("resource not found")
	ErrUniqueViolation    = errors.New("unique constraint violation")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNoOp               = errors.New("nothing to update")
	ErrTransientStore     = errors.New("store temporarily unavailable")
)

// Error is a client-facing error of a given kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

// NewError creates an error of the given kind
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validationf builds a VALIDATION_FAILED error
func Validationf(format string, args ...any) error {
	return NewError(ErrValidation, fmt.Sprintf(format, args...))
}

// Auth errors
var (
	ErrInvalidCredentials = NewError(ErrUnauthenticated, "invalid credentials")
	ErrEmailTaken         = NewError(ErrUniqueViolation, "user already exists")
	ErrInvalidAdminCode   = NewError(ErrValidation, "invalid admin registration code")
	ErrOldPasswordWrong   = NewError(ErrValidation, "old password is incorrect")
)

// Entity errors
var (
	ErrUserNotFound      = NewError(ErrNotFound, "user not found")
	ErrLeaderNotFound    = NewError(ErrNotFound, "leader not found")
	ErrZoneNotFound      = NewError(ErrNotFound, "zone not found")
	ErrHouseholdNotFound = NewError(ErrNotFound, "household not found")
	ErrAlertNotFound     = NewError(ErrNotFound, "alert not found")
	ErrRatingNotFound    = NewError(ErrNotFound, "rating not found")
	ErrTaskNotFound      = NewError(ErrNotFound, "task not found")
	ErrNoHousehold       = NewError(ErrNotFound, "you are not associated with any household")
)

// Constraint errors
var (
	ErrZoneNameTaken     = NewError(ErrUniqueViolation, "zone name already exists")
	ErrRatingExists      = NewError(ErrUniqueViolation, "you have already rated this household in this category; update your existing rating instead")
	ErrAlreadyMember     = NewError(ErrUniqueViolation, "user is already a member of this household")
	ErrNotMember         = NewError(ErrPreconditionFailed, "user is not a member of this household")
	ErrZoneHasHouseholds = NewError(ErrPreconditionFailed, "cannot delete zone with households; reassign or delete households first")
	ErrTaskNotCompleted  = NewError(ErrPreconditionFailed, "only completed tasks can be rated")
	ErrNothingToUpdate   = NewError(ErrNoOp, "no valid fields to update")
)

// Kind returns the taxonomy kind of err, or nil if err carries none
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation, ErrUnauthenticated, ErrNotAuthorized, ErrNotFound,
		ErrUniqueViolation, ErrPreconditionFailed, ErrNoOp, ErrTransientStore,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
