package cell

import "errors"

var (
	// ErrCellOverflow is returned when a build would exceed the cell
	// payload or reference capacity
	ErrCellOverflow = errors.New("cell capacity exceeded")

	// ErrCursorUnderflow is returned when a read would consume more
	// bits or references than remain in the slice
	ErrCursorUnderflow = errors.New("cell slice underflow")

	// ErrMalformedBOC is returned on structural corruption of a
	// serialized bag of cells
	ErrMalformedBOC = errors.New("malformed bag of cells")

	// ErrChecksumMismatch is returned when the trailing CRC of a
	// serialized bag of cells does not match its content
	ErrChecksumMismatch = errors.New("bag of cells checksum mismatch")

	// ErrUnexpectedRootCount is returned when a bag of cells does not
	// encode exactly one root cell
	ErrUnexpectedRootCount = errors.New("bag of cells must have exactly one root")
)
