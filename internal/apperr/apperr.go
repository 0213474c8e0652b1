// Package apperr defines the failure taxonomy shared by the backend client,
// the order store and the upload session. Each kind is a distinct struct type
// so callers can branch with errors.As instead of matching strings.
package apperr

import (
	"errors"
	"strings"
)

// ConfigurationError reports a missing or invalid startup setting. It is
// fatal and never retried.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Key + " is missing. Set it in your configuration."
}

// MissingSetting builds the ConfigurationError used for an absent key.
func MissingSetting(key string) *ConfigurationError {
	return &ConfigurationError{Key: key}
}

// TransportError wraps a network failure reaching the backend. Message is the
// human-readable text shown to the user; Err keeps the cause for logs.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response body the client could not decode.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string { return e.Message }

func (e *ProtocolError) Unwrap() error { return e.Err }

// ApplicationError is an ok:false (or non-2xx) answer carrying the server's
// message, or the operation's default message when the server sent none.
type ApplicationError struct {
	Status  int
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }

// ValidationError is a local rejection: bad file type or size, or an empty
// batch. It never involves the backend.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsProtocol reports whether err is or wraps a ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsApplication reports whether err is or wraps an ApplicationError.
func IsApplication(err error) bool {
	var target *ApplicationError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// Message reduces err to the single line shown to a user. A nil error or one
// with a blank message yields fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return fallback
	}
	return msg
}
