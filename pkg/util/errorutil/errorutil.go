package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel causes carried by DomainError. Match them with errors.Is.
var (
	ErrDuplicateUser = errors.New("duplicate user")
	ErrBlockedUser   = errors.New("blocked user")
	ErrUnknownUser   = errors.New("unknown user")
	ErrNotFound      = errors.New("not found")
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidStatus = errors.New("invalid status")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func newKind(code, message string, status int, cause error, details map[string]any) error {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details, Err: cause}
}

func NewValidationError(message string, details map[string]any) error {
	return newKind("VALIDATION_FAILED", message, http.StatusBadRequest, ErrValidation, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return newKind("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, ErrNotFound, details)
}

// NewDuplicateUser reports a national ID or email that is already registered.
func NewDuplicateUser(field string) error {
	return newKind("DUPLICATE_USER", fmt.Sprintf("%s already registered", field), http.StatusConflict, ErrDuplicateUser,
		map[string]any{"field": field})
}

// NewBlockedUser reports a national ID barred from registration and login.
func NewBlockedUser(nationalID string) error {
	return newKind("BLOCKED_USER", "user is blocked", http.StatusForbidden, ErrBlockedUser,
		map[string]any{"national_id": nationalID})
}

// NewUnknownUser reports a user reference that does not resolve.
func NewUnknownUser(details map[string]any) error {
	return newKind("UNKNOWN_USER", "user not registered", http.StatusNotFound, ErrUnknownUser, details)
}

func NewInvalidFile(message string, details map[string]any) error {
	return newKind("INVALID_FILE", message, http.StatusBadRequest, ErrInvalidFile, details)
}

func NewInvalidStatus(message string, details map[string]any) error {
	return newKind("INVALID_STATUS", message, http.StatusUnprocessableEntity, ErrInvalidStatus, details)
}

func NewUnauthorized(message string) error {
	return newKind("UNAUTHORIZED", message, http.StatusUnauthorized, ErrUnauthorized, nil)
}

func NewForbidden(message string) error {
	return newKind("FORBIDDEN", message, http.StatusForbidden, ErrForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
