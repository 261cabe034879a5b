package domain

import "errors"

// ErrNotFound covers both a genuinely missing resource and a resource
// owned by someone else. Callers must not be able to tell the two
// apart, so stores never return a distinct "forbidden" error.
var ErrNotFound = errors.New("not found")

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrEmptyTitle     = errors.New("task title is empty")
	ErrInvalidRole    = errors.New("invalid message role")
)
