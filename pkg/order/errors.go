package order

import "errors"

// Validation failures are returned before any network call is made.
var (
	// ErrInvalidArgument marks malformed or missing caller input: sizes,
	// prices, signature shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a referenced position or asset that does not exist.
	ErrNotFound = errors.New("not found")
)
