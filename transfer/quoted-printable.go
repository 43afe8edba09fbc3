package transfer

import (
	"bufio"
	"io"
)

// NewQuotedPrintableDecoder returns a lenient quoted-printable decoder:
// "=HH" becomes the byte HH, "=" followed by CRLF (a soft line break) is
// dropped, and a bare "=" not followed by two hex digits or a line break
// is emitted literally instead of failing.
func NewQuotedPrintableDecoder(r io.Reader) io.Reader {
	return &qpDecoder{r: bufio.NewReader(r)}
}

type qpDecoder struct {
	r       *bufio.Reader
	err     error
	pend    byte // a literal byte still owed to the caller
	hasPend bool
}

func (d *qpDecoder) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if d.hasPend {
			p[n] = d.pend
			n++
			d.hasPend = false
			continue
		}
		if d.err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, d.err
		}
		b, err := d.r.ReadByte()
		if err != nil {
			d.err = err
			continue
		}
		if b != '=' {
			p[n] = b
			n++
			continue
		}

		h1, err1 := d.r.ReadByte()
		if err1 != nil {
			// trailing bare "=" at EOF: emit literally.
			p[n] = '='
			n++
			d.err = err1
			continue
		}
		if h1 == '\r' {
			h2, err2 := d.r.ReadByte()
			if err2 == nil && h2 != '\n' {
				_ = d.r.UnreadByte()
			}
			continue // soft line break, emits nothing
		}
		if h1 == '\n' {
			continue // lone-LF soft break, tolerated
		}
		v1, ok1 := hexVal(h1)
		if !ok1 {
			// not a hex escape: emit the '=' literally and reprocess h1.
			p[n] = '='
			n++
			_ = d.r.UnreadByte()
			continue
		}
		h2, err2 := d.r.ReadByte()
		if err2 != nil {
			// "=" + one hex digit at EOF: emit both literally.
			p[n] = '='
			n++
			d.pend, d.hasPend = h1, true
			d.err = err2
			continue
		}
		v2, ok2 := hexVal(h2)
		if !ok2 {
			// "=" + one hex digit + non-hex: emit '=' and the first digit
			// literally, then reprocess the second byte.
			p[n] = '='
			n++
			d.pend, d.hasPend = h1, true
			_ = d.r.UnreadByte()
			continue
		}
		p[n] = v1<<4 | v2
		n++
	}
	return n, nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// maxLineLen is the maximum number of characters, including a trailing
// soft-break "=", permitted on one output line.
const maxLineLen = 76

// NewQuotedPrintableEncoder returns a quoted-printable encoder matching
// §4.4: printable ASCII (except '=') is literal, space and tab are always
// escaped as "=20"/"=09" (RFC 2045 always permits over-encoding, and doing
// so unconditionally avoids holding a line's worth of lookahead state just
// to detect trailing whitespace), CR/LF are canonicalized to CRLF, and
// every other byte is escaped as uppercase "=HH". Lines are soft-wrapped
// so that no output line, including a trailing "=", exceeds 76 characters.
func NewQuotedPrintableEncoder(w io.Writer) io.WriteCloser {
	return &qpEncoder{w: w}
}

type qpEncoder struct {
	w       io.Writer
	lineLen int
	sawCR   bool
	err     error
}

func (e *qpEncoder) Write(p []byte) (int, error) {
	n := 0
	for _, b := range p {
		if e.err != nil {
			return n, e.err
		}
		if e.sawCR {
			e.sawCR = false
			if b == '\n' {
				e.breakLine()
				n++
				continue
			}
			e.breakLine()
		}
		switch {
		case b == '\r':
			e.sawCR = true
		case b == '\n':
			e.breakLine()
		case b == ' ':
			e.emitEscaped(0x20)
		case b == '\t':
			e.emitEscaped(0x09)
		case b >= 33 && b <= 126 && b != '=':
			e.emitLiteral(b)
		default:
			e.emitEscaped(b)
		}
		n++
	}
	return n, e.err
}

func (e *qpEncoder) Close() error {
	if e.sawCR {
		e.breakLine()
	}
	return e.err
}

func (e *qpEncoder) reserve(need int) {
	if e.lineLen+need > maxLineLen-1 {
		e.raw([]byte("=\r\n"))
		e.lineLen = 0
	}
}

func (e *qpEncoder) emitLiteral(b byte) {
	e.reserve(1)
	e.raw([]byte{b})
	e.lineLen++
}

func (e *qpEncoder) emitEscaped(b byte) {
	const hex = "0123456789ABCDEF"
	e.reserve(3)
	e.raw([]byte{'=', hex[b>>4], hex[b&0xf]})
	e.lineLen += 3
}

func (e *qpEncoder) breakLine() {
	e.raw([]byte("\r\n"))
	e.lineLen = 0
}

func (e *qpEncoder) raw(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}
