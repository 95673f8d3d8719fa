// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"bytes"
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestByteCursor(t *testing.T) {
	c := qt.New(t)

	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	c.Run("Read", func(c *qt.C) {
		bc := newByteCursor(data)
		v2, err := bc.read2(binary.LittleEndian)
		c.Assert(err, qt.IsNil)
		c.Assert(v2, qt.Equals, uint16(0x0201))
		c.Assert(bc.cursor(), qt.Equals, 2)

		v4, err := bc.read4(binary.BigEndian)
		c.Assert(err, qt.IsNil)
		c.Assert(v4, qt.Equals, uint32(0x03040506))
		c.Assert(bc.cursor(), qt.Equals, 6)
	})

	c.Run("Peek", func(c *qt.C) {
		bc := newByteCursor(data)
		v2, err := bc.peek2(4, binary.BigEndian)
		c.Assert(err, qt.IsNil)
		c.Assert(v2, qt.Equals, uint16(0x0506))
		v4, err := bc.peek4(2, binary.LittleEndian)
		c.Assert(err, qt.IsNil)
		c.Assert(v4, qt.Equals, uint32(0x06050403))
		v1, err := bc.peek1(5)
		c.Assert(err, qt.IsNil)
		c.Assert(v1, qt.Equals, uint8(0x06))
		c.Assert(bc.cursor(), qt.Equals, 0)
	})

	c.Run("Available", func(c *qt.C) {
		bc := newByteCursor(data)
		c.Assert(bc.available(0), qt.Equals, 6)
		c.Assert(bc.available(4), qt.Equals, 2)
		c.Assert(bc.available(6), qt.Equals, 0)
		c.Assert(bc.available(100), qt.Equals, 0)
		c.Assert(bc.available(-1), qt.Equals, 0)
	})

	c.Run("OutOfBounds", func(c *qt.C) {
		bc := newByteCursor(data)
		c.Assert(bc.moveTo(4), qt.IsNil)

		_, err := bc.read4(binary.LittleEndian)
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
		c.Assert(bc.cursor(), qt.Equals, 4)

		_, err = bc.readBytes(3)
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
		c.Assert(bc.cursor(), qt.Equals, 4)

		_, err = bc.peek2(5, binary.LittleEndian)
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
		_, err = bc.peek1(-1)
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
		_, err = bc.peekBytes(7, 0)
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)

		c.Assert(bc.moveTo(7), qt.ErrorIs, ErrOutOfBounds)
		c.Assert(bc.cursor(), qt.Equals, 4)
	})

	c.Run("ReadBytes", func(c *qt.C) {
		bc := newByteCursor(data)
		b, err := bc.readBytes(6)
		c.Assert(err, qt.IsNil)
		c.Assert(b, qt.DeepEquals, data)
		b, err = bc.readBytes(0)
		c.Assert(err, qt.IsNil)
		c.Assert(b, qt.HasLen, 0)
	})
}

func TestStreamReader(t *testing.T) {
	c := qt.New(t)

	sr := newStreamReader(bytes.NewReader([]byte{0xff, 0xd8, 0x01, 0x02, 0x03}))
	v, err := sr.read2E()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint16(0xffd8))
	c.Assert(sr.readerOffset, qt.Equals, 2)

	pb, err := sr.bufferedBytes(3)
	c.Assert(err, qt.IsNil)
	c.Assert(pb.b, qt.DeepEquals, []byte{0x01, 0x02, 0x03})
	c.Assert(sr.readerOffset, qt.Equals, 5)
	putPooledBytes(pb)

	_, err = sr.read2E()
	c.Assert(err, qt.IsNotNil)
}

func TestHexList(t *testing.T) {
	c := qt.New(t)

	c.Assert(hexList(nil), qt.Equals, "")
	c.Assert(hexList([]byte{0x0a}), qt.Equals, "0a")
	c.Assert(hexList([]byte{0xff, 0xd8, 0x00}), qt.Equals, "ff,d8,00")
}
