// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONOptions configures EncodeJSON.
type JSONOptions struct {
	// Names adds the standard tag name to each tag.
	Names bool

	// Indent is the number of spaces to indent with, 0 for compact output.
	Indent int
}

// MarshalJSON renders the document as
//
//	{"ifd":[{"0100":{"type":"3","data":"2a,00"}}],"exif":{},"gps":{},"thumbnail":""}
//
// Directories are objects keyed by the tag ID in hex, in ascending ID order.
// Values hold the numeric type code and the value bytes as comma separated hex.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toJSON(JSONOptions{}))
}

// EncodeJSON writes the JSON form of doc followed by a newline to w, see Document.MarshalJSON.
func EncodeJSON(w io.Writer, doc Document, opts JSONOptions) error {
	enc := json.NewEncoder(w)
	if opts.Indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", opts.Indent))
	}
	return enc.Encode(doc.toJSON(opts))
}

type jsonDocument struct {
	IFD       []jsonDirectory `json:"ifd"`
	Exif      jsonDirectory   `json:"exif"`
	GPS       jsonDirectory   `json:"gps"`
	Thumbnail string          `json:"thumbnail"`
}

// jsonDirectory is keyed by the 4 digit hex tag ID.
// encoding/json sorts map keys, which gives ascending ID order.
type jsonDirectory map[string]jsonTagValue

type jsonTagValue struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
	Data string `json:"data"`
}

func (d Document) toJSON(opts JSONOptions) jsonDocument {
	jd := jsonDocument{
		IFD:       make([]jsonDirectory, len(d.Directories)),
		Exif:      d.Exif.toJSON(opts, false),
		GPS:       d.GPS.toJSON(opts, true),
		Thumbnail: hexList(d.Thumbnail),
	}
	for i, dir := range d.Directories {
		jd.IFD[i] = dir.toJSON(opts, false)
	}
	return jd
}

func (d Directory) toJSON(opts JSONOptions, gps bool) jsonDirectory {
	jd := make(jsonDirectory, len(d.tags))
	for _, t := range d.tags {
		v := jsonTagValue{
			Type: fmt.Sprintf("%d", t.Value.Code()),
			Data: hexList(t.Value.Bytes),
		}
		if opts.Names {
			v.Name = TagName(t.ID, gps)
		}
		jd[fmt.Sprintf("%04x", uint16(t.ID))] = v
	}
	return jd
}

// hexList formats b as comma separated 2 digit lowercase hex, e.g. "ff,d8".
func hexList(b []byte) string {
	const digits = "0123456789abcdef"
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0x0f])
	}
	return sb.String()
}
