package social

import "errors"

var (
	// ErrInvalidInput marks malformed or missing input.
	ErrInvalidInput = errors.New("social: invalid input")

	// ErrNotFound marks a missing post, comment, or account. The call site
	// knows which resource it asked for.
	ErrNotFound = errors.New("social: not found")
)
