package types

import "errors"

var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("invalid input")
)

// ClientError pairs one of the sentinel kinds above with the message that is
// safe to show to API callers. The underlying cause, if any, stays available
// to errors.Is/As but is never written to a response.
type ClientError struct {
	Kind    error
	Message string
	Err     error
}

func NewClientError(kind error, message string) *ClientError {
	return &ClientError{Kind: kind, Message: message}
}

func WrapClientError(kind error, message string, err error) *ClientError {
	return &ClientError{Kind: kind, Message: message, Err: err}
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
