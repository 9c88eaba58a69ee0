package protocol

import "errors"

// Codec fault taxonomy. All faults are local, synchronous and non-retriable;
// decode is all-or-nothing and never returns a partially populated packet.
// Callers match with errors.Is.
var (
	// ErrFrameTypeMismatch is returned when the leading byte of a body does
	// not carry the frame type code the caller asked to decode.
	ErrFrameTypeMismatch = errors.New("frame type mismatch")

	// ErrTruncatedField is returned when a fixed-offset or length-prefixed
	// read would run past the end of the body.
	ErrTruncatedField = errors.New("truncated field")

	// ErrEncoding is returned when a text field does not decode as UTF-8.
	ErrEncoding = errors.New("invalid utf-8 in text field")

	// ErrRangeViolation is returned when an integer field is constructed or
	// mutated outside its one-byte range.
	ErrRangeViolation = errors.New("value out of range")

	// ErrLengthViolation is returned when a text field exceeds 255 UTF-8
	// bytes and therefore cannot round-trip through its one-byte prefix.
	ErrLengthViolation = errors.New("text field exceeds 255 bytes")

	// ErrUnsupportedMode is returned when an envelope entry point is called
	// with an operating mode other than API or escaped API.
	ErrUnsupportedMode = errors.New("unsupported operating mode")

	// ErrInvalidFrame is returned by Strip for envelope-level faults: bad
	// start delimiter, declared length disagreeing with the actual length,
	// a dangling escape byte, or a checksum failure.
	ErrInvalidFrame = errors.New("invalid frame")
)
