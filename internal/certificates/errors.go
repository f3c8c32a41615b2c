package certificates

import "errors"

var (
	ErrNotFound          = errors.New("certificate not found")
	ErrPayloadMissing    = errors.New("certificate has no payload")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("certificate already reviewed")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidInput      = errors.New("invalid input")
)
