package service

import "errors"

// Caller-facing failure taxonomy. Handlers map these onto HTTP statuses;
// nothing here is ever panicked.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrValidation      = errors.New("invalid input")
)
