package errors

import "errors"

// Sentinels shared by services and the HTTP error mapper. Wrap them with
// fmt.Errorf("%w: ...") to add detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
