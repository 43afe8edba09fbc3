package transfer

import (
	"bytes"
	"encoding/base64"
	"io"
)

// NewBase64Encoder returns a standard-alphabet base64 encoder. Encoding
// has no lenient corner cases, so this is a thin wrapper over the standard
// library, matching the teacher's own base64.go.
func NewBase64Encoder(w io.Writer) io.WriteCloser {
	enc := base64.NewEncoder(base64.StdEncoding, w)
	return &writer{enc, enc}
}

// NewBase64Decoder returns a lenient standard-alphabet base64 decoder: it
// ignores whitespace and any byte outside the alphabet, and tolerates
// missing trailing '=' padding rather than failing.
func NewBase64Decoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, &base64Filter{r: r})
}

// base64Filter strips bytes that are not part of the standard base64
// alphabet (or its padding character) before handing the stream to the
// standard decoder, and pads a short final group so that missing trailing
// '=' does not turn into an error.
type base64Filter struct {
	r      io.Reader
	buf    []byte // filtered alphabet bytes not yet handed to the decoder
	total  int    // alphabet bytes passed through so far
	eof    bool
	padded bool
}

func isBase64Byte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	default:
		return false
	}
}

func (f *base64Filter) Read(p []byte) (int, error) {
	chunk := make([]byte, 4096)
	for len(f.buf) == 0 {
		if f.eof {
			return 0, io.EOF
		}
		m, err := f.r.Read(chunk)
		for i := 0; i < m; i++ {
			if isBase64Byte(chunk[i]) {
				f.buf = append(f.buf, chunk[i])
				f.total++
			}
		}
		if err != nil {
			f.eof = true
			if err != io.EOF {
				return 0, err
			}
			if !f.padded {
				f.padded = true
				if rem := f.total % 4; rem != 0 {
					f.buf = append(f.buf, bytes.Repeat([]byte{'='}, 4-rem)...)
				}
			}
		}
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
