// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"errors"
	"io"
)

const (
	markerSOI  = 0xffd8
	markerEOI  = 0xffd9
	markerAPP1 = 0xffe1
)

// segmentHeader is the framing of one JPEG segment.
type segmentHeader struct {
	marker uint16
	// Payload length, i.e. without the 2 byte length field.
	length int
	// Stream offset of the marker.
	offset int
}

type imageDecoderJPEG struct {
	*streamReader
}

// decode reads the APP1 payload into a pooled buffer.
// The caller must return it with putPooledBytes.
func (e *imageDecoderJPEG) decode() (*pooledBytes, error) {
	soi, err := e.readSegmentHeader()
	if err != nil {
		return nil, err
	}
	if soi.marker != markerSOI {
		return nil, newFormatErrorf(ErrSegmentNotFound, sectionJPEG, soi.offset, "expected SOI, got marker 0x%04x", soi.marker)
	}

	// Exif requires APP1 to be recorded immediately after SOI, we don't look any further.
	app1, err := e.readSegmentHeader()
	if err != nil {
		return nil, err
	}
	if app1.marker != markerAPP1 {
		return nil, newFormatErrorf(ErrSegmentNotFound, sectionJPEG, app1.offset, "expected APP1 after SOI, got marker 0x%04x", app1.marker)
	}

	payloadOffset := e.readerOffset
	payload, err := e.bufferedBytes(app1.length)
	if err != nil {
		return nil, e.wrapReadErr(payloadOffset, err)
	}
	return payload, nil
}

func (e *imageDecoderJPEG) readSegmentHeader() (segmentHeader, error) {
	offset := e.readerOffset
	marker, err := e.read2E()
	if err != nil {
		return segmentHeader{}, e.wrapReadErr(offset, err)
	}
	if marker&0xff00 != 0xff00 {
		return segmentHeader{}, newFormatErrorf(ErrSegmentNotFound, sectionJPEG, offset, "invalid marker 0x%04x", marker)
	}

	// SOI and EOI have no length field.
	if marker == markerSOI || marker == markerEOI {
		return segmentHeader{marker: marker, offset: offset}, nil
	}

	// Read the 16-bit length of the segment. The value includes the 2 bytes for the
	// length itself, so we subtract 2 to get the number of remaining bytes.
	length, err := e.read2E()
	if err != nil {
		return segmentHeader{}, e.wrapReadErr(offset+2, err)
	}
	if length < 2 {
		return segmentHeader{}, newFormatErrorf(ErrMalformed, sectionJPEG, offset+2, "segment length %d", length)
	}

	return segmentHeader{marker: marker, length: int(length) - 2, offset: offset}, nil
}

// wrapReadErr turns a short read into a truncation error.
// Other I/O errors are returned as is.
func (e *imageDecoderJPEG) wrapReadErr(offset int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newFormatError(ErrTruncated, sectionJPEG, offset, err)
	}
	return err
}
