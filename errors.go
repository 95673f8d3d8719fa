// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"errors"
	"fmt"
)

var (
	// ErrSegmentNotFound is returned when the stream does not start with
	// SOI immediately followed by an APP1 segment.
	ErrSegmentNotFound = errors.New("APP1 segment not found")

	// ErrSignatureMismatch is returned when the APP1 payload does not start with "Exif\x00\x00".
	ErrSignatureMismatch = errors.New("Exif signature not found")

	// ErrUnsupportedFormat is returned for an unknown byte order marker or TIFF version.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrTruncated is returned when a structural field cannot be read in full.
	ErrTruncated = errors.New("truncated")

	// ErrMalformed is returned for structurally invalid input, e.g. a directory
	// offset pointing backwards.
	ErrMalformed = errors.New("malformed")

	// ErrOutOfBounds is the low level cause when a read passes the end of the buffer.
	ErrOutOfBounds = errors.New("out of bounds")
)

const (
	sectionJPEG = "jpeg"
	sectionAPP1 = "app1"
	sectionTIFF = "tiff"
)

// FormatError is the fatal error returned by the decode functions.
type FormatError struct {
	// Kind is one of ErrSegmentNotFound, ErrSignatureMismatch,
	// ErrUnsupportedFormat, ErrTruncated or ErrMalformed.
	Kind error

	// Section is "jpeg" for the segment framing, "app1" for the Exif
	// identifier and "tiff" for everything after it.
	Section string

	// Offset is the byte offset into Section where the problem was found.
	// In the tiff section, offset 0 is the first byte of the TIFF header.
	Offset int

	// Err is the underlying cause, if any.
	Err error
}

func (e *FormatError) Error() string {
	s := fmt.Sprintf("jpegexif: %s: %s offset %d", e.Kind, e.Section, e.Offset)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsInvalidFormat reports whether err is a fatal decoding failure caused by the input.
func IsInvalidFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func newFormatError(kind error, section string, offset int, cause error) *FormatError {
	return &FormatError{Kind: kind, Section: section, Offset: offset, Err: cause}
}

func newFormatErrorf(kind error, section string, offset int, format string, args ...any) *FormatError {
	return newFormatError(kind, section, offset, fmt.Errorf(format, args...))
}
