// Package transfer implements the Transfer Decoders component: byte-stream
// transducers between wire form and binary form for the Content-transfer-
// encoding values defined by RFC 2045. It follows the teacher's shape (a
// Transcoding pair of constructor functions looked up by token in a
// package-level map) but the decoders are rewritten to be lenient the way
// the spec requires, and the quoted-printable encoder is hand-rolled to
// match an exact, tested byte-for-byte algorithm rather than delegating to
// the standard library's writer.
package transfer

import "io"

// Recognized Content-transfer-encoding tokens.
const (
	Identity7Bit    = "7bit"
	Identity8Bit    = "8bit"
	IdentityBinary  = "binary"
	QuotedPrintable = "quoted-printable"
	Base64          = "base64"
)

// writer adapts an io.Writer (and, optionally, the io.Closer it also
// implements) into an io.WriteCloser, matching the teacher's internal
// helper of the same name.
type writer struct {
	io.Writer
	io.Closer
}

func (w *writer) Close() error {
	if w.Closer != nil {
		return w.Closer.Close()
	}
	return nil
}

// Transcoding is a pair of constructors that can encode to, or decode
// from, a transfer encoding.
type Transcoding struct {
	// Encoder wraps w so that bytes written to the result are encoded on
	// their way to w. Callers must Close the result when done.
	Encoder func(w io.Writer) io.WriteCloser
	// Decoder wraps r so that reads from the result yield decoded bytes.
	Decoder func(r io.Reader) io.Reader
}

var identityTranscoding = Transcoding{
	Encoder: func(w io.Writer) io.WriteCloser { return &writer{w, nil} },
	Decoder: func(r io.Reader) io.Reader { return r },
}

// Transcodings maps a lowercased Content-transfer-encoding token to its
// Transcoding. The empty string maps to identity; a token missing from the
// map is also treated as identity by LookupDecoder/LookupEncoder, which
// report it as unrecognized.
var Transcodings = map[string]Transcoding{
	"":              identityTranscoding,
	Identity7Bit:    identityTranscoding,
	Identity8Bit:    identityTranscoding,
	IdentityBinary:  identityTranscoding,
	QuotedPrintable: {Encoder: NewQuotedPrintableEncoder, Decoder: NewQuotedPrintableDecoder},
	Base64:          {Encoder: NewBase64Encoder, Decoder: NewBase64Decoder},
}

// LookupDecoder returns the decoder for token and whether token was
// recognized. An unrecognized token is the InvalidTransferEncoding
// condition from §7; the caller is expected to fall back to identity and
// record a warning rather than failing the stream.
func LookupDecoder(token string) (func(io.Reader) io.Reader, bool) {
	tc, ok := Transcodings[token]
	if !ok {
		return identityTranscoding.Decoder, false
	}
	return tc.Decoder, true
}

// LookupEncoder returns the encoder for token and whether token was
// recognized, mirroring LookupDecoder.
func LookupEncoder(token string) (func(io.Writer) io.WriteCloser, bool) {
	tc, ok := Transcodings[token]
	if !ok {
		return identityTranscoding.Encoder, false
	}
	return tc.Encoder, true
}
