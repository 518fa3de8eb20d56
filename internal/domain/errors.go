package domain

import (
	"errors"
	"strings"
)

// Error kinds. Every specific error below unwraps to exactly one of them, which
// is what transport layers branch on.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

var (
	// ErrCategoryNotFound is returned when a category id or link id does not resolve.
	ErrCategoryNotFound = kindError(ErrNotFound, "category not found")
	// ErrImageNotFound indicates the image is unknown or inactive.
	ErrImageNotFound = kindError(ErrNotFound, "image not found")
	// ErrBlobNotFound is returned by blob stores for a confirmed missing object.
	ErrBlobNotFound = kindError(ErrNotFound, "blob not found")
	// ErrWebsiteNotFound indicates an unknown website connection.
	ErrWebsiteNotFound = kindError(ErrNotFound, "website connection not found")
	// ErrInvalidToken covers unknown, consumed and expired verification tokens.
	ErrInvalidToken = kindError(ErrValidation, "invalid or expired token")
	// ErrRoleAlreadyGranted is returned when verification is requested for a role the user holds.
	ErrRoleAlreadyGranted = kindError(ErrConflict, "role already granted")
	// ErrLoginRequired is returned when an operation needs an identified user.
	ErrLoginRequired = kindError(ErrUnauthorized, "login required")
	// ErrNotOwner is returned when a user touches another user's resource.
	ErrNotOwner = kindError(ErrForbidden, "resource belongs to another user")
	// ErrRoleRequired is returned when the caller lacks the role an operation needs.
	ErrRoleRequired = kindError(ErrForbidden, "required role not granted")
)

type kindErr struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &kindErr{kind: kind, msg: msg}
}

func (e *kindErr) Error() string { return e.msg }
func (e *kindErr) Unwrap() error { return e.kind }

// ValidationError describes rejected input. Duplicates lists question keys that
// collided with keys already stored in the category or repeated inside the batch.
type ValidationError struct {
	Message    string
	Duplicates []string
}

// Invalid builds a ValidationError without duplicates.
func Invalid(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	if len(e.Duplicates) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Duplicates, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
