package extract

import "errors"

var (
	// ErrMissingResource indicates a file that cannot be read or a table index out of range
	ErrMissingResource = errors.New("missing resource")

	// ErrMalformedRecord indicates a record that cannot be decoded
	ErrMalformedRecord = errors.New("malformed record")
)
