package services

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to HTTP status codes; every specific
// error below wraps exactly one of them.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidInput          = errors.New("invalid input")
	ErrAlreadyDone           = errors.New("already done")
	ErrConflict              = errors.New("conflict")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

var (
	ErrQuestNotFound = categorize(ErrNotFound, "quest not found")
	ErrUserNotFound  = categorize(ErrNotFound, "user not found")
	ErrQuestInvalid  = categorize(ErrNotFound, "quest invalid")

	ErrNotAvailable       = categorize(ErrInvalidState, "quest is no longer available")
	ErrNotActive          = categorize(ErrInvalidState, "quest is not active")
	ErrCannotCancelActive = categorize(ErrInvalidState, "cannot cancel active quest")

	ErrSelfAcceptForbidden = categorize(ErrForbidden, "you cannot accept your own quest")
	ErrNotAssignedHero     = categorize(ErrForbidden, "you are not the assigned hero")
	ErrNotOwner            = categorize(ErrForbidden, "not your quest")
	ErrActorMismatch       = categorize(ErrForbidden, "actor does not match authenticated user")

	ErrInvalidOTP         = categorize(ErrInvalidInput, "invalid OTP")
	ErrInsufficientFunds  = categorize(ErrInvalidInput, "insufficient balance")
	ErrInvalidRating      = categorize(ErrInvalidInput, "rating must be between 1 and 5")
	ErrInvalidCredentials = categorize(ErrInvalidInput, "invalid credentials")
	ErrUserExists         = categorize(ErrInvalidInput, "user already exists")
	ErrEmptyMessage       = categorize(ErrInvalidInput, "message text is required")

	ErrAlreadyRated = categorize(ErrAlreadyDone, "already rated")

	ErrConcurrentUpdate = categorize(ErrConflict, "record changed concurrently, retry the request")
)

type categorizedError struct {
	category error
	msg      string
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.category }

func categorize(category error, msg string) error {
	return &categorizedError{category: category, msg: msg}
}

// invalidInput builds an ad-hoc validation error
func invalidInput(format string, args ...interface{}) error {
	return &categorizedError{category: ErrInvalidInput, msg: fmt.Sprintf(format, args...)}
}

// inconsistency reports state that should be impossible, e.g. a quest whose
// hero account no longer exists. The transition that hit it is rolled back.
func inconsistency(format string, args ...interface{}) error {
	return &categorizedError{category: ErrInternalInconsistency, msg: fmt.Sprintf(format, args...)}
}
