package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrPermissionDeny        = errors.New("permission denied")
	ErrLoginFailed           = errors.New("login failed")
	ErrInvalidServerResponse = errors.New("invalid server response")
)

const (
	MsgLoginFailed     = "Login failed. Please check your credentials."
	MsgInvalidResponse = "Invalid response from server"
)

// APIError is a non-success reply from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote api returned status %d: %s", e.StatusCode, e.Message)
}

// LoginError carries the human-readable reason a login attempt failed.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoginFailed}
	}
	return []error{ErrLoginFailed, e.Err}
}

// SyncError is the user-visible error state of a failed record operation.
type SyncError struct {
	Op      string
	Message string
	Err     error
}

func (e *SyncError) Error() string { return e.Message }

func (e *SyncError) Unwrap() error { return e.Err }

// DeniedError reports a guard decision other than Allow.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string { return e.Decision.Message() }

func (e *DeniedError) Is(target error) bool { return target == ErrPermissionDeny }
