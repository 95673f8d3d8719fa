// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bep/jpegexif"
)

func FuzzDecodeJPG(f *testing.F) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		f.Add(sampleJPEG(order))
		f.Add(jpegWithAPP1(app1Payload(newSampleTIFF(order, 0xffffffff))))
	}
	f.Add(jpegWithAPP1(littleEndianShortPayload))
	f.Add(jpegWithAPP1(bigEndianShortPayload))

	f.Fuzz(func(t *testing.T, imageBytes []byte) {
		doc, err := jpegexif.Decode(jpegexif.Options{R: bytes.NewReader(imageBytes), LimitTagSize: 1 << 20})
		fuzzCheckResult(t, doc, err)
	})
}

func FuzzDecodeAPP1(f *testing.F) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		f.Add(app1Payload(newSampleTIFF(order, uint32(len(sampleThumbnail)))))
	}
	f.Add(littleEndianShortPayload)
	f.Add(bigEndianShortPayload)

	f.Fuzz(func(t *testing.T, payload []byte) {
		doc, err := jpegexif.DecodeAPP1(payload, jpegexif.Options{})
		fuzzCheckResult(t, doc, err)
	})
}

func fuzzCheckResult(t *testing.T, doc jpegexif.Document, err error) {
	t.Helper()
	if err != nil {
		if !jpegexif.IsInvalidFormat(err) {
			t.Fatalf("unknown error in Decode: %v %T", err, err)
		}
		if doc.Directories != nil {
			t.Fatalf("partial document returned with error %v", err)
		}
		return
	}
	if len(doc.Directories) == 0 && (!doc.Exif.IsEmpty() || !doc.GPS.IsEmpty()) {
		t.Fatal("sub-IFDs without IFD0")
	}
	if len(doc.Directories) < 2 && len(doc.Thumbnail) > 0 {
		t.Fatal("thumbnail without IFD1")
	}
	for _, dir := range doc.Directories {
		for _, tag := range dir.Tags() {
			if want := int(tag.Value.Count) * tag.Value.Type.Size(); len(tag.Value.Bytes) != want {
				t.Fatalf("tag 0x%04x: got %d bytes, want %d", tag.ID, len(tag.Value.Bytes), want)
			}
		}
	}
}
