package field

import (
	"bytes"
	"errors"
	"io"

	"github.com/emiyakirito/mime4j-go/internal/linebuf"
)

// ErrEndOfHeader is returned by (*Parser).Next once the header block has
// been fully consumed (an empty line was read, or the input ended first).
var ErrEndOfHeader = errors.New("field: end of header")

// Parser reads logical lines from a LineBuffer and groups folded
// continuation lines into Fields, one per call to Next. It is what drives
// the Header Parser component: StartHeader happens before the first call,
// each successful Next is a Field token, and ErrEndOfHeader is EndHeader.
type Parser struct {
	lb   *linebuf.LineBuffer
	done bool
}

// NewParser returns a Parser reading from lb.
func NewParser(lb *linebuf.LineBuffer) *Parser {
	return &Parser{lb: lb}
}

// Next reads the next logical field. It returns ErrEndOfHeader when the
// header block has ended (an empty line was consumed, or input EOF was
// reached, which is a legal way to end a header per §4.2).
func (p *Parser) Next() (*Field, error) {
	if p.done {
		return nil, ErrEndOfHeader
	}

	line, err := p.lb.ReadLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if isEmptyLine(line) {
		p.done = true
		return nil, ErrEndOfHeader
	}
	if errors.Is(err, io.EOF) {
		// A final, unterminated line with content: treat it as one field,
		// then end the header on the next call.
		p.done = true
		return Parse(line), nil
	}

	buf := append([]byte(nil), line...)
	for {
		peek, perr := p.lb.PeekLine()
		if perr != nil && !errors.Is(perr, io.EOF) {
			return nil, perr
		}
		if len(peek) == 0 || !isContinuation(peek) {
			break
		}
		cont, _ := p.lb.ReadLine()
		buf = append(buf, cont...)
	}

	return Parse(buf), nil
}

// isEmptyLine reports whether line is a bare line terminator (or no bytes
// at all), which ends a header block.
func isEmptyLine(line []byte) bool {
	trimmed := bytes.TrimRight(line, "\r\n")
	return len(trimmed) == 0
}

// isContinuation reports whether line begins with a space or tab, marking
// it as a folded continuation of the previous field.
func isContinuation(line []byte) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}
