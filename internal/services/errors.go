package services

import (
	"database/sql"
	"errors"
	"fmt"

	"bazaar/internal/repos"
)

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyCompleted  = errors.New("payment already completed")
	ErrInvalidState      = errors.New("invalid state")
	ErrPaymentInitFailed = errors.New("payment initialization failed")
	ErrConflict          = errors.New("conflict")
)

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func fail(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrap(kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// notFound turns sql.ErrNoRows (and repos.ErrNoRows) into a NotFound error
// naming what; other errors pass through.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repos.ErrNoRows) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}
