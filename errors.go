package versionfield

import (
	"errors"
	"fmt"

	"github.com/hupe1980/versionfield/blobstore"
	"github.com/hupe1980/versionfield/internal/compress"
	"github.com/hupe1980/versionfield/internal/manifest"
	"github.com/hupe1980/versionfield/internal/segment"
	"github.com/hupe1980/versionfield/query"
	"github.com/hupe1980/versionfield/version"
)

var (
	// ErrInvalidVersionFormat is returned for text that is not a valid version.
	ErrInvalidVersionFormat = version.ErrInvalidVersionFormat
	// ErrDecodeCorruption is returned for bytes that are not a valid encoding.
	ErrDecodeCorruption = version.ErrDecodeCorruption
	// ErrExpensiveQueryDisallowed is returned when the query policy rejects a query.
	ErrExpensiveQueryDisallowed = query.ErrExpensiveQueryDisallowed
	// ErrUnsupportedPatternConstruct is returned for malformed wildcard,
	// regexp or fuzzy input.
	ErrUnsupportedPatternConstruct = query.ErrUnsupportedPatternConstruct
	// ErrCorruptSegment is returned when a stored segment fails to decode.
	ErrCorruptSegment = segment.ErrCorruptSegment

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("versionfield: index closed")
	// ErrNotFound is returned when a document or a saved index does not exist.
	ErrNotFound = errors.New("versionfield: not found")
	// ErrSortModeMismatch is returned when a saved index was built with a
	// different sort mode than the one requested.
	ErrSortModeMismatch = errors.New("versionfield: sort mode mismatch")
	// ErrCorruptIndex is returned when saved index metadata is inconsistent.
	ErrCorruptIndex = errors.New("versionfield: corrupt index")
)

// FormatError describes why a version string was rejected.
type FormatError = version.FormatError

// PatternError describes why a query pattern was rejected.
type PatternError = query.PatternError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already normalized.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorruptIndex) || errors.Is(err, ErrClosed) {
		return err
	}

	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, manifest.ErrInvalid) || errors.Is(err, manifest.ErrIncompatibleVersion) {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	var cm *compress.ChecksumMismatchError
	if errors.As(err, &cm) {
		return fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}
	if errors.Is(err, compress.ErrCorruptBlock) || errors.Is(err, segment.ErrUnsupportedVersion) {
		return fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}

	return err
}
