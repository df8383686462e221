package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/gardenbarter-backend/internal/platform/apierr"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("Email already registered")
	ErrPasswordMismatch   = errors.New("Passwords don't match")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserNotFound       = errors.New("User not found")
	ErrMissingToken       = errors.New("Missing refresh token")
	ErrUnknownToken       = errors.New("Invalid refresh token")
	ErrExpiredToken       = errors.New("Refresh token expired")
	ErrTokenExpired       = errors.New("Access token expired")
	ErrInvalidToken       = errors.New("Invalid access token")
	ErrForbidden          = errors.New("You do not have permission to perform this action.")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
)

func badRequest(msg string) *apierr.Error {
	return apierr.Wrap(http.StatusBadRequest, "validation_error", ErrValidation, msg)
}

func badRequestf(format string, args ...interface{}) *apierr.Error {
	return badRequest(fmt.Sprintf(format, args...))
}

func notFound(msg string) *apierr.Error {
	return apierr.Wrap(http.StatusNotFound, "not_found", ErrNotFound, msg)
}

func forbidden(msg string) *apierr.Error {
	return apierr.Wrap(http.StatusForbidden, "forbidden", ErrForbidden, msg)
}

func internal(msg string) *apierr.Error {
	return apierr.Wrap(http.StatusInternalServerError, "internal_error", ErrInternal, msg)
}

// validationList carries every message of a multi-field validation failure.
func validationList(msgs []string) *apierr.Error {
	return &apierr.Error{Status: http.StatusBadRequest, Code: "validation_error", Err: apierr.List(msgs)}
}
