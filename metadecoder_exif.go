// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	exifHeader            = "Exif\x00\x00"
	byteOrderBigEndian    = 0x4d4d
	byteOrderLittleEndian = 0x4949
	tiffMagic             = 0x002a

	ifdEntrySize = 12
	// The smallest IFD: a 2 byte entry count and a 4 byte next IFD offset.
	minIFDSize = 6
)

// tagEntry is one 12 byte IFD entry as stored in the file.
type tagEntry struct {
	id            uint16
	rawType       uint16
	count         uint32
	valueOrOffset uint32
}

func decodeAPP1(payload []byte, opts Options) (Document, error) {
	if len(payload) < len(exifHeader) || string(payload[:len(exifHeader)]) != exifHeader {
		return Document{}, newFormatErrorf(ErrSignatureMismatch, sectionAPP1, 0, "payload does not start with %q", exifHeader)
	}
	// All offsets in the TIFF structure are relative to the first byte after the identifier.
	return newMetaDecoderEXIF(payload[len(exifHeader):], opts).decode()
}

func newMetaDecoderEXIF(tiff []byte, opts Options) *metaDecoderEXIF {
	return &metaDecoderEXIF{
		c:    newByteCursor(tiff),
		opts: opts,
	}
}

type metaDecoderEXIF struct {
	c         *byteCursor
	byteOrder binary.ByteOrder

	opts     Options
	warnings *multierror.Error
}

func (e *metaDecoderEXIF) decode() (Document, error) {
	if err := e.decodeHeader(); err != nil {
		return Document{}, err
	}

	dirs, err := e.decodeIFDChain()
	if err != nil {
		return Document{}, err
	}

	doc := Document{Directories: dirs}

	if len(dirs) > 0 {
		doc.Exif = e.decodeSubIFD(dirs[0], TagExifIFDPointer, "ExifIFD")
		doc.GPS = e.decodeSubIFD(dirs[0], TagGPSInfoIFDPointer, "GPSInfoIFD")
	}

	if len(dirs) > 1 {
		doc.Thumbnail = e.extractThumbnail(dirs[1])
	}

	doc.Warnings = e.warnings.ErrorOrNil()

	return doc, nil
}

func (e *metaDecoderEXIF) decodeHeader() error {
	byteOrderTag, err := e.c.read2(binary.BigEndian)
	if err != nil {
		return e.truncated(0, "byte order marker", err)
	}

	switch byteOrderTag {
	case byteOrderBigEndian:
		e.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		e.byteOrder = binary.LittleEndian
	default:
		return newFormatErrorf(ErrUnsupportedFormat, sectionTIFF, 0, "unknown byte order marker 0x%04x", byteOrderTag)
	}

	magic, err := e.c.read2(e.byteOrder)
	if err != nil {
		return e.truncated(2, "TIFF version", err)
	}
	if magic != tiffMagic {
		return newFormatErrorf(ErrUnsupportedFormat, sectionTIFF, 2, "unsupported TIFF version 0x%04x", magic)
	}

	return nil
}

// decodeIFDChain decodes IFD0, IFD1 ... following the next IFD offsets until a 0 offset.
// Each offset must point at or after the position it was read from.
func (e *metaDecoderEXIF) decodeIFDChain() ([]Directory, error) {
	var dirs []Directory

	linkPos := e.c.cursor()
	next, err := e.c.read4(e.byteOrder)
	if err != nil {
		return nil, e.truncated(linkPos, "IFD0 offset", err)
	}

	for next != 0 {
		namespace := fmt.Sprintf("IFD%d", len(dirs))
		offset := int(next)
		if offset < e.c.cursor() {
			return nil, newFormatErrorf(ErrMalformed, sectionTIFF, linkPos, "%s offset %d points backwards", namespace, offset)
		}
		if e.c.available(offset) < minIFDSize {
			return nil, newFormatErrorf(ErrTruncated, sectionTIFF, linkPos, "%s offset %d: %d bytes available", namespace, offset, e.c.available(offset))
		}
		if err := e.c.moveTo(offset); err != nil {
			return nil, e.truncated(linkPos, namespace, err)
		}

		dir, n, err := e.decodeIFD(namespace)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)

		linkPos = e.c.cursor() - 4
		next = n
	}

	return dirs, nil
}

// decodeIFD decodes the IFD at the cursor and returns it together with the offset of the next IFD.
// On return the cursor is positioned after the next IFD offset.
func (e *metaDecoderEXIF) decodeIFD(namespace string) (Directory, uint32, error) {
	var dir Directory

	start := e.c.cursor()
	numTags, err := e.c.read2(e.byteOrder)
	if err != nil {
		return dir, 0, e.truncated(start, namespace+" entry count", err)
	}

	if need := int(numTags)*ifdEntrySize + 4; e.c.available(e.c.cursor()) < need {
		return dir, 0, newFormatErrorf(ErrTruncated, sectionTIFF, start, "%s has %d entries, need %d bytes, %d available", namespace, numTags, need, e.c.available(e.c.cursor()))
	}

	var dropped int
	for range int(numTags) {
		id, val, ok, err := e.decodeTag(namespace)
		if err != nil {
			return dir, 0, err
		}
		if !ok {
			continue
		}
		if e.opts.LimitNumTags > 0 && uint32(dir.Len()) >= e.opts.LimitNumTags && !dir.Has(id) {
			dropped++
			continue
		}
		dir.set(id, val)
	}
	if dropped > 0 {
		e.warnf("%s: skipped %d tags over the limit of %d", namespace, dropped, e.opts.LimitNumTags)
	}

	linkPos := e.c.cursor()
	next, err := e.c.read4(e.byteOrder)
	if err != nil {
		return dir, 0, e.truncated(linkPos, namespace+" next IFD offset", err)
	}

	return dir, next, nil
}

// A tag is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for a pointer to another location where the data may be found.
//
// ok is false if the tag was skipped.
func (e *metaDecoderEXIF) decodeTag(namespace string) (id TagID, val TagValue, ok bool, err error) {
	entryPos := e.c.cursor()
	entry, err := e.readEntry()
	if err != nil {
		return 0, val, false, e.truncated(entryPos, namespace+" entry", err)
	}
	id = TagID(entry.id)

	typ, found := tagTypeFromCode(entry.rawType)
	if !found {
		e.warnf("%s: skipped tag 0x%04x: unsupported type %d", namespace, entry.id, entry.rawType)
		return id, val, false, nil
	}

	valLen := uint64(entry.count) * uint64(typ.Size())
	if e.opts.LimitTagSize > 0 && valLen > uint64(e.opts.LimitTagSize) {
		e.warnf("%s: skipped tag 0x%04x: value size %d exceeds limit %d", namespace, entry.id, valLen, e.opts.LimitTagSize)
		return id, val, false, nil
	}

	var offset int
	if valLen <= 4 {
		// The value is stored in the last 4 bytes of the entry.
		// Read them again instead of using valueOrOffset: that was decoded as one
		// uint32, but the field may hold several smaller elements, each in the file byte order.
		offset = e.c.cursor() - 4
	} else {
		offset = int(entry.valueOrOffset)
		if avail := e.c.available(offset); uint64(avail) < valLen {
			e.warnf("%s: skipped tag 0x%04x: value at offset %d needs %d bytes, %d available", namespace, entry.id, offset, valLen, avail)
			return id, val, false, nil
		}
	}

	b, err := e.readValue(typ, entry.count, offset)
	if err != nil {
		e.warnf("%s: skipped tag 0x%04x: %v", namespace, entry.id, err)
		return id, val, false, nil
	}

	return id, TagValue{Type: typ, Count: entry.count, Bytes: b}, true, nil
}

func (e *metaDecoderEXIF) readEntry() (tagEntry, error) {
	b, err := e.c.readBytes(ifdEntrySize)
	if err != nil {
		return tagEntry{}, err
	}
	return tagEntry{
		id:            e.byteOrder.Uint16(b[0:]),
		rawType:       e.byteOrder.Uint16(b[2:]),
		count:         e.byteOrder.Uint32(b[4:]),
		valueOrOffset: e.byteOrder.Uint32(b[8:]),
	}, nil
}

// readValue reads count elements of typ starting at offset into a new slice.
// Elements are read one by one in the file byte order and stored little-endian.
// Rationals are two independent 4 byte words, numerator first.
func (e *metaDecoderEXIF) readValue(typ TagType, count uint32, offset int) ([]byte, error) {
	size := typ.Size()
	b := make([]byte, int(count)*size)

	if size == 1 {
		src, err := e.c.peekBytes(offset, len(b))
		if err != nil {
			return nil, err
		}
		copy(b, src)
		return b, nil
	}

	for i := range int(count) {
		pos := offset + i*size
		dst := b[i*size:]
		switch size {
		case 2:
			v, err := e.c.peek2(pos, e.byteOrder)
			if err != nil {
				return nil, err
			}
			binary.LittleEndian.PutUint16(dst, v)
		case 4:
			v, err := e.c.peek4(pos, e.byteOrder)
			if err != nil {
				return nil, err
			}
			binary.LittleEndian.PutUint32(dst, v)
		case 8:
			num, err := e.c.peek4(pos, e.byteOrder)
			if err != nil {
				return nil, err
			}
			den, err := e.c.peek4(pos+4, e.byteOrder)
			if err != nil {
				return nil, err
			}
			binary.LittleEndian.PutUint32(dst, num)
			binary.LittleEndian.PutUint32(dst[4:], den)
		default:
			return nil, fmt.Errorf("unsupported element size %d", size)
		}
	}

	return b, nil
}

// decodeSubIFD decodes the IFD that the pointer tag id in ifd0 refers to.
// Problems with the pointer or the sub-IFD are warnings and give an empty directory.
func (e *metaDecoderEXIF) decodeSubIFD(ifd0 Directory, id TagID, namespace string) Directory {
	ptr, found := ifd0.Get(id)
	if !found {
		return Directory{}
	}

	offset, ok := ptr.Uint(0)
	if !ok {
		e.warnf("IFD0: skipped %s: pointer tag 0x%04x is %s with count %d", namespace, uint16(id), ptr.Type, ptr.Count)
		return Directory{}
	}
	if avail := e.c.available(int(offset)); avail < minIFDSize {
		e.warnf("IFD0: skipped %s: offset %d: %d bytes available", namespace, offset, avail)
		return Directory{}
	}

	oldPos := e.c.cursor()
	defer func() {
		e.c.moveTo(oldPos)
	}()
	if err := e.c.moveTo(int(offset)); err != nil {
		e.warnf("IFD0: skipped %s: %v", namespace, err)
		return Directory{}
	}

	dir, _, err := e.decodeIFD("IFD0/" + namespace)
	if err != nil {
		e.warnf("IFD0: skipped %s: %v", namespace, err)
		return Directory{}
	}

	return dir
}

// extractThumbnail copies the thumbnail referenced by the offset and length tags in ifd1.
func (e *metaDecoderEXIF) extractThumbnail(ifd1 Directory) []byte {
	offsetTag, hasOffset := ifd1.Get(TagThumbnailOffset)
	lengthTag, hasLength := ifd1.Get(TagThumbnailLength)
	if !hasOffset || !hasLength {
		return nil
	}

	offset, ok1 := offsetTag.Uint(0)
	length, ok2 := lengthTag.Uint(0)
	if !ok1 || !ok2 {
		e.warnf("IFD1: skipped thumbnail: offset is %s, length is %s", offsetTag.Type, lengthTag.Type)
		return nil
	}
	if length == 0 {
		return nil
	}

	b, err := e.c.peekBytes(int(offset), int(length))
	if err != nil {
		e.warnf("IFD1: skipped thumbnail: %v", err)
		return nil
	}

	return bytes.Clone(b)
}

func (e *metaDecoderEXIF) truncated(offset int, what string, err error) error {
	return newFormatError(ErrTruncated, sectionTIFF, offset, fmt.Errorf("%s: %w", what, err))
}

func (e *metaDecoderEXIF) warnf(format string, args ...any) {
	e.opts.Warnf(format, args...)
	e.warnings = multierror.Append(e.warnings, fmt.Errorf(format, args...))
}
