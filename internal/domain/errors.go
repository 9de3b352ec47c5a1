package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by the service layer. The transport maps them to
// HTTP status codes in one place.
var (
	// ErrNotFound: unknown session or draft id.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a state transition raced or repeated, e.g. accepting a
	// draft that already reached a terminal status.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState: the operation requires a pending draft, e.g. editing
	// a rejected one.
	ErrInvalidState = errors.New("invalid state")

	// ErrSessionEnded: the session no longer accepts messages.
	ErrSessionEnded = errors.New("session ended")
)

// ValidationError reports a draft payload that fails its category's
// required-field set.
type ValidationError struct {
	Category UpdateCategory
	Reasons  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s draft: %s", e.Category, strings.Join(e.Reasons, "; "))
}

// ExternalError wraps a failed call to an external collaborator (parser or
// domain store). The draft involved stays pending.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsExternal reports whether err is an ExternalError.
func IsExternal(err error) bool {
	var ee *ExternalError
	return errors.As(err, &ee)
}
