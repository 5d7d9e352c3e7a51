package tlb

import "errors"

var (
	// ErrUnsupportedRecordShape is returned when a record discriminant
	// falls outside the closed set of supported layouts
	ErrUnsupportedRecordShape = errors.New("unsupported record shape")

	// ErrUnsupportedMessageShape is returned for message envelopes
	// other than external-incoming and internal
	ErrUnsupportedMessageShape = errors.New("only ext in and int message are supported")

	// ErrNonStandardAddress is returned when an address field is not
	// encoded in the standard workchain plus 256-bit account form
	ErrNonStandardAddress = errors.New("non-standard address encoding")

	// ErrSchemaMismatch is returned when a field read does not match
	// the expected shape
	ErrSchemaMismatch = errors.New("field does not match record schema")
)
