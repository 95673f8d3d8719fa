// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package jpegexif decodes the Exif metadata stored in the APP1 segment of a JPEG file.
//
// The decoder keeps every tag value as typed raw bytes; it does not convert
// units, decode strings or know about maker notes.
package jpegexif

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
)

// Options contains the options for the Decode functions.
type Options struct {
	// The Reader (typically a *os.File) to read the JPEG from.
	// Reading starts at the current position and stops after the APP1 segment.
	// Not used by DecodeAPP1.
	R io.Reader

	// Warnf will be called for each recoverable problem, e.g. a skipped tag.
	// The same problems are collected in Document.Warnings.
	Warnf func(string, ...any)

	// LimitTagSize is the maximum size in bytes of a tag value to read.
	// Tag values larger than this are skipped with a warning.
	// If set to 0, there is no limit other than the APP1 segment size.
	LimitTagSize uint32

	// LimitNumTags is the maximum number of tags to keep per directory.
	// Default value is 5000.
	LimitNumTags uint32
}

const defaultLimitNumTags = 5000

func (opts Options) withDefaults() Options {
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	if opts.LimitNumTags == 0 {
		opts.LimitNumTags = defaultLimitNumTags
	}
	return opts
}

// Document is the decoded Exif data.
type Document struct {
	// Directories holds the IFD chain in file order.
	// Directories[0] describes the main image, Directories[1] (if present) the thumbnail.
	Directories []Directory

	// Exif is the Exif sub-IFD referenced from the first directory, possibly empty.
	Exif Directory

	// GPS is the GPS sub-IFD referenced from the first directory, possibly empty.
	GPS Directory

	// Thumbnail is the embedded thumbnail referenced from the second directory, possibly empty.
	Thumbnail []byte

	// Warnings holds the recoverable problems found while decoding, nil if none.
	// It is a *multierror.Error from github.com/hashicorp/go-multierror.
	Warnings error
}

// Tag is a tag ID with its value.
type Tag struct {
	ID    TagID
	Value TagValue
}

// Directory is an image file directory (IFD): a set of tags keyed by ID.
// The zero value is an empty directory.
type Directory struct {
	tags  []Tag
	index map[TagID]int
}

// set adds or replaces the tag with the given ID.
// A replaced tag keeps its original position.
func (d *Directory) set(id TagID, v TagValue) {
	if i, found := d.index[id]; found {
		d.tags[i].Value = v
		return
	}
	if d.index == nil {
		d.index = make(map[TagID]int)
	}
	d.index[id] = len(d.tags)
	d.tags = append(d.tags, Tag{ID: id, Value: v})
}

// Get returns the value of the tag with the given ID.
func (d Directory) Get(id TagID) (TagValue, bool) {
	i, found := d.index[id]
	if !found {
		return TagValue{}, false
	}
	return d.tags[i].Value, true
}

// Has reports whether the directory contains a tag with the given ID.
func (d Directory) Has(id TagID) bool {
	_, found := d.index[id]
	return found
}

// Len returns the number of tags.
func (d Directory) Len() int {
	return len(d.tags)
}

// IsEmpty reports whether the directory has no tags.
func (d Directory) IsEmpty() bool {
	return len(d.tags) == 0
}

// Tags returns the tags in file order.
func (d Directory) Tags() []Tag {
	return slices.Clone(d.tags)
}

// IDs returns the tag IDs in ascending order.
func (d Directory) IDs() []TagID {
	ids := make([]TagID, len(d.tags))
	for i, t := range d.tags {
		ids[i] = t.ID
	}
	slices.Sort(ids)
	return ids
}

// TagValue is the value of a tag.
// Bytes holds Count elements of Type. Every element wider than one byte is
// stored in little-endian order regardless of the byte order of the file.
type TagValue struct {
	Type  TagType
	Count uint32
	Bytes []byte
}

// Code returns the numeric type code of the value.
func (v TagValue) Code() uint16 {
	return v.Type.Code()
}

func (v TagValue) element(typ TagType, i int) ([]byte, bool) {
	if v.Type != typ || i < 0 || i >= int(v.Count) {
		return nil, false
	}
	size := typ.Size()
	return v.Bytes[i*size : (i+1)*size], true
}

// Uint16 returns element i of a Short value.
func (v TagValue) Uint16(i int) (uint16, bool) {
	b, ok := v.element(TypeShort, i)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

// Uint32 returns element i of a Long value.
func (v TagValue) Uint32(i int) (uint32, bool) {
	b, ok := v.element(TypeLong, i)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// Int32 returns element i of an SLong value.
func (v TagValue) Int32(i int) (int32, bool) {
	b, ok := v.element(TypeSLong, i)
	if !ok {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(b)), true
}

// Uint returns element i of a Short or Long value.
func (v TagValue) Uint(i int) (uint32, bool) {
	switch v.Type {
	case TypeShort:
		n, ok := v.Uint16(i)
		return uint32(n), ok
	case TypeLong:
		return v.Uint32(i)
	default:
		return 0, false
	}
}

// Rational returns element i of a Rational value.
func (v TagValue) Rational(i int) (Rat[uint32], error) {
	b, ok := v.element(TypeRational, i)
	if !ok {
		return nil, fmt.Errorf("no Rational at index %d in %s value", i, v.Type)
	}
	return NewRat(binary.LittleEndian.Uint32(b), binary.LittleEndian.Uint32(b[4:]))
}

// SRational returns element i of an SRational value.
func (v TagValue) SRational(i int) (Rat[int32], error) {
	b, ok := v.element(TypeSRational, i)
	if !ok {
		return nil, fmt.Errorf("no SRational at index %d in %s value", i, v.Type)
	}
	return NewRat(int32(binary.LittleEndian.Uint32(b)), int32(binary.LittleEndian.Uint32(b[4:])))
}

// Decode reads a JPEG stream from opts.R and decodes the Exif data in its APP1 segment.
// The APP1 segment must directly follow the start of image marker.
func Decode(opts Options) (Document, error) {
	if opts.R == nil {
		return Document{}, fmt.Errorf("no reader provided")
	}
	opts = opts.withDefaults()

	dec := &imageDecoderJPEG{streamReader: newStreamReader(opts.R)}
	payload, err := dec.decode()
	if err != nil {
		return Document{}, err
	}
	defer putPooledBytes(payload)

	return decodeAPP1(payload.b, opts)
}

// DecodeFile opens the JPEG file with the given name and decodes its Exif data.
// opts.R is ignored.
func DecodeFile(filename string, opts Options) (Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	opts.R = f
	return Decode(opts)
}

// DecodeAPP1 decodes an APP1 segment payload already extracted from a JPEG,
// starting with the "Exif\x00\x00" identifier. opts.R is ignored.
// The returned Document does not reference payload.
func DecodeAPP1(payload []byte, opts Options) (Document, error) {
	return decodeAPP1(payload, opts.withDefaults())
}
