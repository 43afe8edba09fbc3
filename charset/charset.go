// Package charset provides the named character-set lookup the spec treats
// as an external collaborator (§1: "character-set conversion tables
// (assumed available as a named lookup)"). A BodyDescriptor's Charset
// field is just a string; this package is how a caller turns that string
// into something that can actually transcode bytes to UTF-8.
package charset

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Lookup resolves name (an IANA charset name such as "us-ascii",
// "iso-8859-15", or "utf-8") to its encoding.Encoding. It reports an error
// for names it does not recognize rather than guessing.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		name = "us-ascii"
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("charset: unrecognized charset %q", name)
	}
	return enc, nil
}

// NewDecoder wraps r so that reads from the result yield UTF-8, decoded
// from the named charset. An unrecognized charset name falls back to
// passing bytes through unchanged, matching the Body Descriptor's rule
// that malformed/unknown metadata degrades to defaults rather than
// failing the stream.
func NewDecoder(name string, r io.Reader) io.Reader {
	enc, err := Lookup(name)
	if err != nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}
