package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error carries the HTTP status and a stable machine code alongside the
// human readable cause. Services return it; handlers render it.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Newf builds an Error whose cause is a formatted message.
func Newf(status int, code, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches status and code to a sentinel so errors.Is keeps matching it.
func Wrap(status int, code string, sentinel error, msg string) *Error {
	if msg == "" {
		return &Error{Status: status, Code: code, Err: sentinel}
	}
	return &Error{Status: status, Code: code, Err: &messageError{msg: msg, cause: sentinel}}
}

type messageError struct {
	msg   string
	cause error
}

func (m *messageError) Error() string { return m.msg }
func (m *messageError) Unwrap() error { return m.cause }

// From extracts an *Error, falling back to a generic 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Err: err}
}

func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	ae := From(err)
	if ae.Status == 0 {
		return http.StatusInternalServerError
	}
	return ae.Status
}

// List is a cause made of several independent messages.
type List []string

func (l List) Error() string { return strings.Join(l, "; ") }

// Messages returns the client-facing messages of err.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	ae := From(err)
	var l List
	if errors.As(ae.Err, &l) && len(l) > 0 {
		return append([]string(nil), l...)
	}
	return []string{ae.Error()}
}
