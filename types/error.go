// error.go defines the error type carrying a decode Status.

package types

import (
	"errors"
	"fmt"
)

// ErrDecode is returned by every failing decode call; Status tells which
// stage failed and Err carries the collaborator's cause.
type ErrDecode struct {
	Status Status
	Err    error
}

var _ error = ErrDecode{}

func (e ErrDecode) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Status, e.Err)
	}
	return e.Status.String()
}

func (e ErrDecode) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDecode{Status: s}) match any ErrDecode of the
// same status regardless of the cause.
func (e ErrDecode) Is(target error) bool {
	t, ok := target.(ErrDecode)
	if !ok {
		return false
	}
	return t.Err == nil && t.Status == e.Status
}

// NewError tags err with status. A nil err still produces an error.
func NewError(status Status, err error) error {
	return ErrDecode{Status: status, Err: err}
}

// Errorf is NewError with a formatted cause.
func Errorf(status Status, format string, args ...any) error {
	return ErrDecode{Status: status, Err: fmt.Errorf(format, args...)}
}

// WithStatus tags err with status unless it is already tagged, in which case
// the more specific status reported by the collaborator is kept.
func WithStatus(err error, status Status) error {
	if err == nil {
		return nil
	}
	var e ErrDecode
	if errors.As(err, &e) {
		return err
	}
	return ErrDecode{Status: status, Err: err}
}

// StatusOf extracts the Status of err: StatusSuccess for nil and
// StatusDecodeFailed for errors that were never tagged.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var e ErrDecode
	if errors.As(err, &e) {
		return e.Status
	}
	return StatusDecodeFailed
}

// HasStatus tells whether err (or anything it wraps) carries a Status.
func HasStatus(err error) bool {
	var e ErrDecode
	return errors.As(err, &e)
}
