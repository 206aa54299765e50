package service

import "errors"

// Sentinel errors for the service layer.
var (
	ErrInvalidURL          = errors.New("invalid YouTube URL")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrFormatNotFound      = errors.New("requested quality is not available")
	ErrUpstream            = errors.New("upstream provider failure")
	ErrStorage             = errors.New("storage failure")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrEmailTaken          = errors.New("email already registered")
)

// NotImplementedError marks a recognized platform or feature that is not
// supported yet. Message is safe to show to users.
type NotImplementedError struct {
	Message string
}

func (e *NotImplementedError) Error() string {
	return e.Message
}

func notImplemented(msg string) error {
	return &NotImplementedError{Message: msg}
}
