// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

type pooledBytes struct {
	b []byte
}

var pooledBytesPool = &sync.Pool{
	New: func() any {
		return &pooledBytes{
			b: make([]byte, 1024),
		}
	},
}

func getPooledBytes(length int) *pooledBytes {
	b := pooledBytesPool.Get().(*pooledBytes)
	if length > cap(b.b) {
		b.b = make([]byte, length)
	}
	b.b = b.b[:length]
	return b
}

func putPooledBytes(b *pooledBytes) {
	b.b = b.b[:0]
	pooledBytesPool.Put(b)
}

// streamReader reads the JPEG framing from the input stream.
// Every multi-byte field in the framing is big-endian.
// Note that this is not thread safe.
type streamReader struct {
	r   io.Reader
	buf [4]byte

	// Number of bytes consumed from r.
	readerOffset int
}

func newStreamReader(r io.Reader) *streamReader {
	return &streamReader{r: r}
}

func (e *streamReader) read2E() (uint16, error) {
	const n = 2
	if err := e.readNIntoBufE(n); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(e.buf[:n]), nil
}

func (e *streamReader) readNIntoBufE(n int) error {
	n2, err := io.ReadFull(e.r, e.buf[:n])
	e.readerOffset += n2
	return err
}

// bufferedBytes reads length bytes from the stream into a pooled buffer.
// It's important to call putPooledBytes when done.
func (e *streamReader) bufferedBytes(length int) (*pooledBytes, error) {
	pb := getPooledBytes(length)
	n, err := io.ReadFull(e.r, pb.b)
	e.readerOffset += n
	if err != nil {
		putPooledBytes(pb)
		return nil, err
	}
	return pb, nil
}

// byteCursor is a bounds checked view over a borrowed byte slice.
// Reads advance the cursor, peeks read at an absolute offset and leave it alone.
// A failed read or peek returns ErrOutOfBounds and never moves the cursor.
type byteCursor struct {
	b   []byte
	pos int
}

func newByteCursor(b []byte) *byteCursor {
	return &byteCursor{b: b}
}

func (c *byteCursor) cursor() int {
	return c.pos
}

// available returns the number of bytes from offset to the end of the buffer.
func (c *byteCursor) available(offset int) int {
	if offset < 0 || offset >= len(c.b) {
		return 0
	}
	return len(c.b) - offset
}

func (c *byteCursor) moveTo(offset int) error {
	if offset < 0 || offset > len(c.b) {
		return c.boundsErr(offset, 0)
	}
	c.pos = offset
	return nil
}

func (c *byteCursor) boundsErr(offset, n int) error {
	return fmt.Errorf("%w: %d bytes at offset %d, %d available", ErrOutOfBounds, n, offset, c.available(offset))
}

func (c *byteCursor) check(offset, n int) error {
	if offset < 0 || offset > len(c.b) || n < 0 || c.available(offset) < n {
		return c.boundsErr(offset, n)
	}
	return nil
}

func (c *byteCursor) peek1(offset int) (uint8, error) {
	if err := c.check(offset, 1); err != nil {
		return 0, err
	}
	return c.b[offset], nil
}

func (c *byteCursor) peek2(offset int, order binary.ByteOrder) (uint16, error) {
	if err := c.check(offset, 2); err != nil {
		return 0, err
	}
	return order.Uint16(c.b[offset:]), nil
}

func (c *byteCursor) peek4(offset int, order binary.ByteOrder) (uint32, error) {
	if err := c.check(offset, 4); err != nil {
		return 0, err
	}
	return order.Uint32(c.b[offset:]), nil
}

// peekBytes returns n bytes at offset.
// The returned slice aliases the buffer and must be copied before it escapes.
func (c *byteCursor) peekBytes(offset, n int) ([]byte, error) {
	if err := c.check(offset, n); err != nil {
		return nil, err
	}
	return c.b[offset : offset+n], nil
}

func (c *byteCursor) read2(order binary.ByteOrder) (uint16, error) {
	v, err := c.peek2(c.pos, order)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

func (c *byteCursor) read4(order binary.ByteOrder) (uint32, error) {
	v, err := c.peek4(c.pos, order)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

func (c *byteCursor) readBytes(n int) ([]byte, error) {
	b, err := c.peekBytes(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}
