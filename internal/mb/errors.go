package mb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn is returned by operations that need a current user.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrNotFound is returned when a folder or file does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned by SignIn for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPassphraseRequired is returned by Download for an encrypted file
	// when no DecryptionContext is given.
	ErrPassphraseRequired = errors.New("file is encrypted: passphrase required")
)

// ValidationError rejects user input before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RemoteReadError wraps a failed query against the record store. The local
// favorites cache is left untouched when one is returned.
type RemoteReadError struct {
	Op  string
	Err error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("remote read %s: %v", e.Op, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// RemoteWriteError wraps a failed favorite insert or delete. It is only
// ever logged; the local change it follows has already been committed.
type RemoteWriteError struct {
	Op     string
	UserID string
	FileID string
	Err    error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write %s (user=%s file=%s): %v", e.Op, e.UserID, e.FileID, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }
