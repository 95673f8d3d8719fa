// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command jsexif prints the Exif data of a JPEG file as JSON.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bep/jpegexif"
	"github.com/golang/glog"
)

type config struct {
	html   bool
	names  bool
	app1   bool
	indent int
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] jpeg_file [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	// glog writes to files by default.
	flag.Set("logtostderr", "true")

	var cfg config
	registerFlags(flag.CommandLine, &cfg)
	// flag.CommandLine exits on parse errors.
	args, _ := parseArgs(flag.CommandLine, os.Args[1:])
	defer glog.Flush()

	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(os.Stdout, args[0], cfg); err != nil {
		glog.Exitf("jsexif: Error: %v", err)
	}
}

func registerFlags(fs *flag.FlagSet, cfg *config) {
	fs.BoolVar(&cfg.html, "html", false, "wrap the JSON in an HTML page")
	fs.BoolVar(&cfg.names, "names", false, "add the tag names")
	fs.BoolVar(&cfg.app1, "app1", false, "the input file is a raw APP1 payload starting with \"Exif\\x00\\x00\"")
	fs.IntVar(&cfg.indent, "indent", 2, "indent width, 0 for compact JSON")
}

// parseArgs parses args allowing flags both before and after the file name,
// e.g. "jsexif photo.jpg -html". It returns the non-flag arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func run(w io.Writer, filename string, cfg config) error {
	opts := jpegexif.Options{
		Warnf: func(format string, args ...any) {
			glog.Warningf(format, args...)
		},
	}

	var (
		doc jpegexif.Document
		err error
	)
	if cfg.app1 {
		var payload []byte
		payload, err = os.ReadFile(filename)
		if err != nil {
			return err
		}
		doc, err = jpegexif.DecodeAPP1(payload, opts)
	} else {
		doc, err = jpegexif.DecodeFile(filename, opts)
	}
	if err != nil {
		return err
	}

	glog.V(1).Infof("%s: %d directories, %d Exif tags, %d GPS tags, %d byte thumbnail",
		filename, len(doc.Directories), doc.Exif.Len(), doc.GPS.Len(), len(doc.Thumbnail))

	var buf bytes.Buffer
	if err := jpegexif.EncodeJSON(&buf, doc, jpegexif.JSONOptions{Names: cfg.names, Indent: cfg.indent}); err != nil {
		return err
	}

	if !cfg.html {
		_, err = buf.WriteTo(w)
		return err
	}

	_, err = fmt.Fprintf(w, `<!DOCTYPE html><html><body><script>
var exif = %s
document.write('<pre>')
document.write(JSON.stringify(exif, null, 2))
document.write('</pre>')
</script></body></html>
`, bytes.TrimSpace(buf.Bytes()))
	return err
}
