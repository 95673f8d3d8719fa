// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTagType(t *testing.T) {
	c := qt.New(t)

	c.Assert(TypeShort.String(), qt.Equals, "Short")
	c.Assert(TypeSRational.String(), qt.Equals, "SRational")
	c.Assert(TagType(11).String(), qt.Equals, "TagType(11)")

	for code, size := range map[uint16]int{1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 7: 1, 9: 4, 10: 8} {
		typ, ok := tagTypeFromCode(code)
		c.Assert(ok, qt.IsTrue)
		c.Assert(typ.Size(), qt.Equals, size)
		c.Assert(typ.Code(), qt.Equals, code)
	}

	for _, code := range []uint16{0, 6, 8, 11, 12, 13, 0xffff} {
		_, ok := tagTypeFromCode(code)
		c.Assert(ok, qt.IsFalse, qt.Commentf("code %d", code))
	}

	var supported []string
	for code := range 1 << 16 {
		typ, ok := tagTypeFromCode(uint16(code))
		if !ok {
			c.Assert(typ.Size(), qt.Equals, 0)
			continue
		}
		supported = append(supported, typ.String())
	}
	c.Assert(supported, qt.DeepEquals, []string{"Byte", "ASCII", "Short", "Long", "Rational", "Undefined", "SLong", "SRational"})
}

func TestTagName(t *testing.T) {
	c := qt.New(t)

	c.Assert(TagName(0x0100, false), qt.Equals, "ImageWidth")
	c.Assert(TagName(0x0201, false), qt.Equals, "ThumbnailOffset")
	c.Assert(TagName(0x0002, true), qt.Equals, "GPSLatitude")
	c.Assert(TagName(0x0002, false), qt.Equals, "UnknownTag_0x0002")
	c.Assert(TagName(0xc4a5, false), qt.Equals, "UnknownTag_0xc4a5")
}
