package version

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersionFormat is returned when a string does not match the version grammar.
	ErrInvalidVersionFormat = errors.New("invalid version format")

	// ErrDecodeCorruption is returned when encoded bytes violate the layout.
	ErrDecodeCorruption = errors.New("corrupt encoded version")

	// ErrUnknownSortMode is returned by ParseSortMode for unknown names.
	ErrUnknownSortMode = errors.New("unknown sort mode")
)

// FormatError describes where validation of a version string failed.
//
// It matches ErrInvalidVersionFormat via errors.Is.
type FormatError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid version %q at offset %d: %s", e.Input, e.Pos, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidVersionFormat }

// CorruptionError describes where decoding of an encoded version failed.
//
// It matches ErrDecodeCorruption via errors.Is.
type CorruptionError struct {
	Offset int
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt encoded version at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptionError) Unwrap() error { return ErrDecodeCorruption }
