package converter

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to callers. Every conversion failure wraps exactly
// one of these so transports can map them without string matching.
var (
	// ErrUnsupportedConversion means the (category, target) pair is not in the registry.
	ErrUnsupportedConversion = errors.New("unsupported conversion")

	// ErrMalformedInput means a decoder or library rejected the source bytes.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownFormat means the media type maps to no category; conversion is disabled.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrTooLarge means the source failed the pre-flight size check.
	ErrTooLarge = errors.New("file too large")
)

// malformed wraps a library error as ErrMalformedInput, keeping the cause.
func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformedInput, what, err)
}
