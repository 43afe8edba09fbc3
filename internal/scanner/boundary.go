package scanner

import (
	"bytes"
	"io"

	"github.com/emiyakirito/mime4j-go/internal/linebuf"
)

// ResultKind classifies how a scan region ended.
type ResultKind int

const (
	// ResultNone is the zero value; never returned from a finished Region.
	ResultNone ResultKind = iota
	// ResultDelimiter means the region ended at "--boundary" + CRLF.
	ResultDelimiter
	// ResultCloseDelimiter means the region ended at "--boundary--".
	ResultCloseDelimiter
	// ResultUnexpectedEOF means the input ended before any active boundary
	// was found.
	ResultUnexpectedEOF
)

// Result reports which boundary matched, at what stack depth, and how.
type Result struct {
	Kind  ResultKind
	Depth int // index into the boundaries slice passed to Scan, 0 = outermost
}

// Scanner locates multipart boundary delimiters in a LineBuffer's raw byte
// stream. Only one Region is active at a time, matching the spec's rule
// that only one body-like stream may be read from at once.
type Scanner struct {
	lb *linebuf.LineBuffer
}

// New returns a Scanner reading raw bytes from lb.
func New(lb *linebuf.LineBuffer) *Scanner {
	return &Scanner{lb: lb}
}

// Region is an io.Reader over the content preceding the next boundary
// match. Once Read returns io.EOF, Result reports how the region ended and
// any bytes following the matched boundary line are pushed back onto the
// underlying LineBuffer for the next reader.
type Region struct {
	lb         *linebuf.LineBuffer
	boundaries []string // outermost first, innermost last
	allowStart bool

	win    []byte
	ready  []byte
	seen   bool // true once any content byte has left this region
	eof    bool // underlying source is exhausted; win will not grow further
	done   bool
	result Result
}

// Scan begins a new region. boundaries must be ordered outermost-first;
// matches are tested against all of them and the innermost (last) wins
// ties. allowStart permits a match at byte offset 0 of the region with no
// leading CRLF, for scanning a preamble that opens directly on a delimiter.
func (s *Scanner) Scan(boundaries []string, allowStart bool) *Region {
	return &Region{lb: s.lb, boundaries: boundaries, allowStart: allowStart}
}

// Result is valid once Read has returned io.EOF.
func (r *Region) Result() Result { return r.result }

func (r *Region) Read(p []byte) (int, error) {
	for {
		if len(r.ready) > 0 {
			n := copy(p, r.ready)
			r.ready = r.ready[n:]
			if n > 0 {
				r.seen = true
			}
			return n, nil
		}
		if r.done {
			return 0, io.EOF
		}
		if r.tryResolve() {
			continue
		}
		if r.eof {
			r.finishUnexpectedEOF()
			continue
		}
		if err := r.fill(); err != nil {
			if err == io.EOF {
				r.eof = true
				continue
			}
			return 0, err
		}
	}
}

// fill pulls more raw bytes into the search window.
func (r *Region) fill() error {
	buf := make([]byte, 4096)
	n, err := r.lb.RawReader().Read(buf)
	if n > 0 {
		r.win = append(r.win, buf[:n]...)
	}
	if n == 0 && err != nil {
		return err
	}
	return nil
}

func (r *Region) finishUnexpectedEOF() {
	r.ready = r.win
	r.win = nil
	r.done = true
	r.result = Result{Kind: ResultUnexpectedEOF}
}

// tryResolve attempts to either flush a safe content prefix or fully
// resolve a boundary match. It returns true if it changed state (the
// caller's Read loop should re-check r.ready/r.done).
func (r *Region) tryResolve() bool {
	idx, bIdx, isStart, ok := r.earliestMatch()
	if ok {
		return r.resolveMatch(idx, bIdx, isStart)
	}
	if r.eof {
		return false // Read's caller handles this via finishUnexpectedEOF
	}

	// No confirmed match yet. Flush everything that cannot possibly be part
	// of a future match: anything before the last '\r' in the window (a
	// match always begins at a '\r', except the allowStart case which only
	// applies before any content has been emitted).
	if r.allowStart && !r.seen {
		for _, b := range r.boundaries {
			if bytes.HasPrefix([]byte("--"+b), r.win) {
				return false // may still become an offset-0 match
			}
		}
	}
	if r.seen || len(r.win) > 0 {
		cut := bytes.LastIndexByte(r.win, '\r')
		if cut < 0 {
			cut = len(r.win)
		}
		if cut > 0 {
			r.ready = r.win[:cut]
			r.win = r.win[cut:]
			return true
		}
	}
	return false
}

// earliestMatch looks for the earliest complete "\r\n--boundary" (or, at
// region offset 0, "--boundary") in the current window, fully confirmed
// through its terminating CRLF/EOF. It returns ok=false if more input is
// needed to decide.
func (r *Region) earliestMatch() (idx, boundaryIdx int, isStart, ok bool) {
	best := -1
	bestBoundary := -1
	bestStart := false

	if r.allowStart && !r.seen && len(r.ready) == 0 {
		for i, b := range r.boundaries {
			marker := "--" + b
			if bytes.HasPrefix(r.win, []byte(marker)) {
				// offset-0 match always wins; take the innermost on ties.
				if best != 0 || i >= bestBoundary {
					best = 0
					bestBoundary = i
					bestStart = true
				}
			}
		}
	}

	if best != 0 {
		for i, b := range r.boundaries {
			marker := "\r\n--" + b
			pos := bytes.Index(r.win, []byte(marker))
			if pos < 0 {
				continue
			}
			if best == -1 || pos < best || (pos == best && i > bestBoundary) {
				best = pos
				bestBoundary = i
				bestStart = false
			}
		}
	}

	if best < 0 {
		return 0, 0, false, false
	}
	return best, bestBoundary, bestStart, true
}

// resolveMatch checks whether the boundary at win[idx:] is fully visible
// (i.e. its classification as delimiter/close-delimiter is decidable with
// the bytes currently buffered) and, if so, finalizes the region.
func (r *Region) resolveMatch(idx, boundaryIdx int, isStart bool) bool {
	boundary := r.boundaries[boundaryIdx]
	contentEnd := idx
	afterMarker := idx + len("--"+boundary)
	if !isStart {
		afterMarker = idx + len("\r\n--"+boundary)
	}

	closeDelim := false
	pos := afterMarker
	if bytes.HasPrefix(r.win[min(pos, len(r.win)):], []byte("--")) {
		closeDelim = true
		pos += 2
	} else if pos+2 > len(r.win) && !r.eof {
		// Not enough buffered yet to know if "--" follows.
		return false
	}

	lineEnd := indexOfLineEnd(r.win, pos)
	if lineEnd < 0 {
		if !r.eof {
			// No terminator buffered yet; ask for more.
			return false
		}
		lineEnd = len(r.win)
	}

	if lineEnd == len(r.win)-1 && r.win[lineEnd] == '\r' && !r.eof {
		return false // the LF of this CRLF may not be buffered yet
	}
	consumed := 0
	if lineEnd < len(r.win) {
		if r.win[lineEnd] == '\r' && lineEnd+1 < len(r.win) && r.win[lineEnd+1] == '\n' {
			consumed = 2
		} else {
			consumed = 1
		}
	}
	regionEnd := lineEnd + consumed

	content := r.win[:contentEnd]
	leftover := r.win[regionEnd:]

	r.ready = content
	r.win = nil
	r.done = true
	if len(leftover) > 0 {
		r.lb.Unread(leftover)
	}
	kind := ResultDelimiter
	if closeDelim {
		kind = ResultCloseDelimiter
	}
	r.result = Result{Kind: kind, Depth: boundaryIdx}
	return true
}

// indexOfLineEnd returns the index of the next '\r' or '\n' at or after
// from, or -1 if the window holds no terminator there. The caller decides
// what -1 means: more input is needed, or, once EOF has been reached
// upstream, the line runs to the end of the window.
func indexOfLineEnd(win []byte, from int) int {
	if from > len(win) {
		from = len(win)
	}
	for i := from; i < len(win); i++ {
		if win[i] == '\r' || win[i] == '\n' {
			return i
		}
	}
	return -1
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
