package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidArgument = "invalid_argument"
	ErrCodeSessionFull     = "session_full"
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeTargetNotFound  = "target_not_found"
	ErrCodeNotInSession    = "not_in_session"
	ErrCodeBadRequest      = "bad_request"
)

var (
	ErrInvalidArgument = errors.New("invalid session or identity")
	ErrSessionFull     = errors.New("session full")
	ErrSessionNotFound = errors.New("session not found")
	ErrTargetNotFound  = errors.New("target not found in session")
	ErrNotInSession    = errors.New("not joined to a session")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
