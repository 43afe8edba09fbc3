// Package stream implements the Entity State Machine and the public
// pull-based token stream described in §4.6 and §6: a cursor that hands
// back one token.Token per call to Next, backed by the Line Buffer,
// Boundary Scanner, Header Parser, and Body Descriptor components.
package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emiyakirito/mime4j-go/charset"
	"github.com/emiyakirito/mime4j-go/entity"
	"github.com/emiyakirito/mime4j-go/header/field"
	"github.com/emiyakirito/mime4j-go/internal/linebuf"
	"github.com/emiyakirito/mime4j-go/internal/scanner"
	"github.com/emiyakirito/mime4j-go/token"
	"github.com/emiyakirito/mime4j-go/transfer"
)

// regionKind distinguishes what a streaming Region's bytes mean, since the
// same scanner.Region machinery backs Preamble, Body, Epilogue, and the
// verbatim capture behind a Raw-mode RawEntity token.
type regionKind int

const (
	regionBody regionKind = iota
	regionPreamble
	regionEpilogue
	regionRaw
)

// Stream is the Entity State Machine: a pull-based cursor over one MIME
// message, advanced one token at a time by Next. Its companion data (the
// current Field, BodyDescriptor, or body reader) lives on the Stream
// itself rather than on the Token, since the spec treats a Token as
// lightweight and the data that goes with it as only valid until the next
// call to Next.
type Stream struct {
	lb *linebuf.LineBuffer
	sc *scanner.Scanner
	opts options

	frames entity.Stack

	headerP       *field.Parser
	headerBytes   int
	awaitDecision bool
	curField      *field.Field

	region      *scanner.Region
	regionKind  regionKind
	rawHeader   []byte
	bodyGen     int

	pending []token.Token

	pendingMode *entity.RecursionMode
	headless    bool

	warnings []Warning
	finished bool
	fatal    error
}

// Parse begins parsing source as a complete RFC 5322 message, starting
// with StartMessage.
func Parse(source io.Reader, opts ...ParseOption) *Stream {
	s := newStream(source, opts)
	s.pushFrame(entity.Message, entity.Default(nil), "")
	s.pending = append(s.pending, token.Token{Kind: token.StartMessage}, token.Token{Kind: token.StartHeader})
	s.openHeader()
	return s
}

// ParseHeadless parses source as a single entity with no outer message
// headers, using forcedContentType in place of a Content-type field (the
// shape of a bodypart read from some other container, e.g. an HTTP
// multipart part). Per the §9 open question, when forcedContentType names
// a multipart type, the synthetic outermost StartMultipart/EndMultipart
// pair is suppressed since there was never a StartMessage to balance it;
// the token stream begins directly with Preamble.
func ParseHeadless(source io.Reader, forcedContentType string, opts ...ParseOption) *Stream {
	s := newStream(source, opts)
	s.headless = true
	d := entity.Default(nil)
	d.ApplyContentType(forcedContentType)
	f := s.pushFrame(entity.Message, d, "")
	f.Silent = true
	s.decideBody()
	return s
}

func newStream(source io.Reader, opts []ParseOption) *Stream {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	lb := linebuf.NewSize(source, o.maxLineLength)
	lb.RequireCR(!o.bareLF)
	return &Stream{lb: lb, sc: scanner.New(lb), opts: o}
}

// Next advances the state machine and returns the next token. Once it
// returns an EndOfStream token, every subsequent call returns
// ErrStreamFinished.
func (s *Stream) Next() (token.Token, error) {
	s.bodyGen++ // invalidates any reader handed out by a prior GetInputStream

	for {
		if t, ok := s.popPending(); ok {
			return t, nil
		}
		if s.fatal != nil {
			return token.Token{}, s.fatal
		}
		if s.finished {
			return token.Token{}, ErrStreamFinished
		}

		switch {
		case s.headerP != nil:
			t, err := s.advanceHeader()
			if err != nil {
				return s.fail(err)
			}
			s.pending = append(s.pending, t)
		case s.awaitDecision:
			s.awaitDecision = false
			s.decideBody()
		case s.region != nil:
			if _, err := io.Copy(io.Discard, s.region); err != nil {
				return s.fail(fmt.Errorf("%w: %v", ErrSourceClosed, err))
			}
			s.afterRegion()
		default:
			// Nothing left to decide and nothing pending: only reachable if
			// the frame stack is empty without having gone through the
			// normal EOF close-out, which would itself have queued
			// EndOfStream. Treat it the same way, defensively.
			s.pending = append(s.pending, token.Token{Kind: token.EndOfStream})
		}
	}
}

func (s *Stream) popPending() (token.Token, bool) {
	if len(s.pending) == 0 {
		return token.Token{}, false
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	if t.Kind == token.EndOfStream {
		s.finished = true
	}
	return t, true
}

func (s *Stream) fail(err error) (token.Token, error) {
	s.fatal = err
	return token.Token{}, err
}

func (s *Stream) warn(kind WarningKind, msg string) {
	s.warnings = append(s.warnings, Warning{Kind: kind, Message: msg})
}

// Warnings returns every non-fatal condition recovered from so far.
func (s *Stream) Warnings() []Warning { return s.warnings }

// GetField returns the field most recently produced by a Field token. Its
// result is undefined once Next has been called again.
func (s *Stream) GetField() *field.Field { return s.curField }

// GetBodyDescriptor returns the Body Descriptor of the innermost entity
// currently being parsed.
func (s *Stream) GetBodyDescriptor() *entity.Descriptor {
	if f := s.frames.Top(); f != nil {
		return f.Descriptor
	}
	return nil
}

// SetRecursionMode changes how the next entity encountered (the next
// Bodypart or Message frame pushed, including one about to be pushed as a
// direct result of the current token) is handled: recursed into as usual,
// treated as an opaque body, or captured verbatim as a single RawEntity.
func (s *Stream) SetRecursionMode(mode entity.RecursionMode) {
	m := mode
	s.pendingMode = &m
}

// GetInputStream returns a reader over the bytes behind the current
// streaming token (Preamble, Body, Epilogue, or RawEntity). A Body reader
// is wrapped in the Transfer Decoder matching the entity's
// Content-transfer-encoding; Preamble, Epilogue, and RawEntity are handed
// back untouched. The reader is valid only until the next call to Next,
// after which reads from it return ErrStaleBodyStream.
func (s *Stream) GetInputStream() io.Reader {
	if s.region == nil {
		return &staleGuard{s: s, gen: -1}
	}
	var r io.Reader = s.region
	switch s.regionKind {
	case regionRaw:
		r = io.MultiReader(bytes.NewReader(s.rawHeader), s.region)
	case regionBody:
		if top := s.frames.Top(); top != nil {
			dec, _ := transfer.LookupDecoder(top.Descriptor.TransferEncoding)
			r = dec(r)
		}
	}
	return &staleGuard{s: s, gen: s.bodyGen, r: r}
}

// GetTextReader returns the current Body reader further transcoded from
// the entity's Content-type charset to UTF-8 — the natural companion to
// GetInputStream for a caller that wants text rather than raw decoded
// bytes. Outside a Body region it behaves exactly like GetInputStream,
// since Preamble/Epilogue/RawEntity bytes aren't charset-interpreted.
func (s *Stream) GetTextReader() io.Reader {
	r := s.GetInputStream()
	if s.region == nil || s.regionKind != regionBody {
		return r
	}
	top := s.frames.Top()
	if top == nil {
		return r
	}
	return charset.NewDecoder(top.Descriptor.Charset, r)
}

type staleGuard struct {
	s   *Stream
	gen int
	r   io.Reader
}

func (g *staleGuard) Read(p []byte) (int, error) {
	if g.r == nil || g.s.bodyGen != g.gen {
		return 0, ErrStaleBodyStream
	}
	return g.r.Read(p)
}

// pushFrame pushes a new frame, applying (and consuming) any recursion
// mode queued by a prior SetRecursionMode call. A Multipart frame leaves a
// queued mode in place for the next Bodypart or Message frame.
func (s *Stream) pushFrame(kind entity.Kind, d *entity.Descriptor, boundary string) *entity.Frame {
	mode := entity.Recurse
	if s.pendingMode != nil && kind != entity.Multipart {
		mode = *s.pendingMode
		s.pendingMode = nil
	}
	f := &entity.Frame{Kind: kind, Descriptor: d, Boundary: boundary, Mode: mode}
	s.frames.Push(f)
	return f
}

func (s *Stream) depthOK() bool {
	if s.frames.Len()+1 > s.opts.maxNestingDepth {
		s.fatal = ErrNestingTooDeep
		return false
	}
	return true
}

// openHeader starts reading the header block of the frame just pushed.
func (s *Stream) openHeader() {
	s.headerBytes = 0
	s.headerP = field.NewParser(s.lb)
}

func (s *Stream) advanceHeader() (token.Token, error) {
	f, err := s.headerP.Next()
	if errors.Is(err, field.ErrEndOfHeader) {
		s.headerP = nil
		s.awaitDecision = true
		return token.Token{Kind: token.EndHeader}, nil
	}
	if err != nil {
		if errors.Is(err, linebuf.ErrLineTooLong) {
			return token.Token{}, ErrLineTooLong
		}
		return token.Token{}, fmt.Errorf("%w: %v", ErrSourceClosed, err)
	}

	if f.Malformed() {
		if s.opts.malformedHeader == FailOnMalformedHeader {
			return token.Token{}, fmt.Errorf("%w: %q", ErrMalformedHeader, f.SourceLines())
		}
		s.warn(WarnMalformedHeader, fmt.Sprintf("unparsable header line: %q", f.SourceLines()))
	}

	s.headerBytes += len(f.SourceLines())
	if s.opts.maxHeaderLength > 0 && s.headerBytes > s.opts.maxHeaderLength {
		return token.Token{}, ErrLineTooLong
	}

	s.curField = f
	if top := s.frames.Top(); top != nil {
		top.Descriptor.ApplyField(f)
	}
	return token.Token{Kind: token.Field}, nil
}

// decideBody runs once a frame's header block has finished, choosing
// between descending into a Multipart container, recursing into a nested
// message/rfc822, or reading the entity's own Body.
func (s *Stream) decideBody() {
	top := s.frames.Top()
	d := top.Descriptor

	switch {
	case d.IsMultipart() && d.Boundary != "" && top.Mode != entity.NoRecurse:
		if !s.depthOK() {
			return
		}
		mp := s.pushFrame(entity.Multipart, d, d.Boundary)
		if s.headless && top.Silent && s.frames.Len() == 2 {
			mp.Silent = true
		} else {
			s.pending = append(s.pending, token.Token{Kind: token.StartMultipart})
		}
		s.startRegion(regionPreamble)

	case d.IsMessageRFC822() && top.Mode != entity.NoRecurse:
		if !s.depthOK() {
			return
		}
		s.beginEntity(entity.Message, entity.InheritedFromParent(d), token.StartMessage)

	default:
		if !d.RecognizedTransferEncoding {
			if s.opts.transferEncoding == FailOnInvalidTransferEncoding {
				s.fatal = fmt.Errorf("%w: %q", ErrInvalidTransferEncoding, d.TransferEncoding)
				return
			}
			s.warn(WarnInvalidTransferEncoding, fmt.Sprintf(
				"unrecognized content-transfer-encoding %q, treating as identity", d.TransferEncoding))
		}
		s.startRegion(regionBody)
	}
}

// beginEntity pushes a frame for a Bodypart or recursed Message and
// arranges for its header (or, under RecursionMode Raw, its entire raw
// bytes) to be produced next.
func (s *Stream) beginEntity(kind entity.Kind, d *entity.Descriptor, startTok token.Kind) {
	f := s.pushFrame(kind, d, "")
	if f.Mode == entity.Raw {
		f.Silent = true
		s.beginRawCapture()
		return
	}
	s.pending = append(s.pending, token.Token{Kind: startTok}, token.Token{Kind: token.StartHeader})
	s.openHeader()
}

// beginRawCapture reads the entity's header block verbatim, without
// tokenizing it, and opens a Body-shaped region for the bytes that follow;
// together they back the single RawEntity token RecursionMode Raw emits in
// place of the usual Start.../Field.../End... sequence.
func (s *Stream) beginRawCapture() {
	var header bytes.Buffer
	for {
		line, err := s.lb.ReadLine()
		header.Write(line)
		blank := len(bytes.TrimRight(line, "\r\n")) == 0
		if blank || errors.Is(err, io.EOF) {
			break
		}
	}
	s.rawHeader = header.Bytes()
	s.startRegion(regionRaw)
}

// startRegion begins scanning a new streaming content region against the
// currently active boundaries and queues its opening token. allowStart is
// always enabled: a region may resolve at offset 0 with no leading CRLF,
// since an empty preamble, an empty body immediately followed by a
// boundary, and an empty epilogue are all legal and all look the same way
// at the byte level (see DESIGN.md).
func (s *Stream) startRegion(kind regionKind) {
	s.region = s.sc.Scan(s.frames.ActiveBoundaries(), true)
	s.regionKind = kind

	switch kind {
	case regionPreamble:
		s.pending = append(s.pending, token.Token{Kind: token.Preamble})
	case regionBody:
		s.pending = append(s.pending, token.Token{Kind: token.Body})
	case regionEpilogue:
		if top := s.frames.Top(); top != nil {
			top.EpilogueSeen = true
		}
		s.pending = append(s.pending, token.Token{Kind: token.Epilogue})
	case regionRaw:
		s.pending = append(s.pending, token.Token{Kind: token.RawEntity})
	}
}

// afterRegion turns a fully-drained region's Result into the next batch of
// structural tokens: either it resolves a boundary match (closing whatever
// frames sit between the region's own frame and the matched Multipart,
// then continuing there) or it hits unexpected end of input, in which case
// every remaining open frame is closed synthetically and the stream ends.
func (s *Stream) afterRegion() {
	result := s.region.Result()
	kind := s.regionKind
	s.region = nil

	if result.Kind == scanner.ResultUnexpectedEOF {
		// An Epilogue runs to the end of whatever encloses it, so one that
		// reaches end of input is never reported; Preamble, Body, and Raw
		// regions only end that way when a boundary was truncated out of
		// the input.
		if kind != regionEpilogue && s.hasActiveMultipart() {
			s.warn(WarnUnexpectedEOF, "input ended before an expected boundary delimiter")
		}
		s.closeAllFrames()
		return
	}

	switch kind {
	case regionBody, regionRaw:
		s.closeFrame(s.frames.Pop())
		s.closeUpTo(result.Depth)
		s.continueAtMultipart(result)
	case regionPreamble:
		// owner IS the multipart itself; nothing to pop before resolving.
		s.closeUpTo(result.Depth)
		s.continueAtMultipart(result)
	case regionEpilogue:
		s.closeFrame(s.frames.Pop())
		if s.frames.Empty() {
			s.pending = append(s.pending, token.Token{Kind: token.EndOfStream})
			return
		}
		s.closeUpTo(result.Depth)
		s.continueAtMultipart(result)
	}
}

// closeUpTo pops and closes every frame above the Multipart frame at
// active-boundary index depth, stopping once that frame is on top. A
// match at an outer Multipart than the one a region's own frame belongs to
// means one or more enclosing multiparts were skipped (non-conformant
// nesting); each is force-closed in turn with an empty Epilogue, same as a
// genuinely empty one.
func (s *Stream) closeUpTo(depth int) {
	mps := s.activeMultipartFrames()
	if depth < 0 || depth >= len(mps) {
		return
	}
	target := mps[depth]
	for {
		top := s.frames.Top()
		if top == nil || top == target {
			return
		}
		s.closeFrame(s.frames.Pop())
	}
}

// continueAtMultipart is called with the matched Multipart frame on top of
// the stack: a close-delimiter moves it into its Epilogue, a plain
// delimiter starts a fresh Bodypart underneath it.
func (s *Stream) continueAtMultipart(result scanner.Result) {
	mp := s.frames.Top()
	if mp == nil {
		s.closeAllFrames()
		return
	}
	if result.Kind == scanner.ResultCloseDelimiter {
		s.startRegion(regionEpilogue)
		return
	}
	if !s.depthOK() {
		return
	}
	s.beginEntity(entity.Bodypart, entity.Default(mp.Descriptor), token.StartBodypart)
}

// closeAllFrames force-closes every remaining frame, innermost first, and
// queues the terminal EndOfStream.
func (s *Stream) closeAllFrames() {
	for !s.frames.Empty() {
		s.closeFrame(s.frames.Pop())
	}
	s.pending = append(s.pending, token.Token{Kind: token.EndOfStream})
}

// closeFrame queues f's matching End token, unless f is Silent. A
// Multipart frame whose own Epilogue region was never read (force-closed
// while skipping or force-closed on unexpected EOF) gets a synthetic empty
// Epilogue first, per the always-emit-Epilogue rule; one that already
// produced a real Epilogue token just gets its EndMultipart.
func (s *Stream) closeFrame(f *entity.Frame) {
	if f == nil || f.Silent {
		return
	}
	switch f.Kind {
	case entity.Message:
		s.pending = append(s.pending, token.Token{Kind: token.EndMessage})
	case entity.Bodypart:
		s.pending = append(s.pending, token.Token{Kind: token.EndBodypart})
	case entity.Multipart:
		if !f.EpilogueSeen {
			s.pending = append(s.pending, token.Token{Kind: token.Epilogue})
		}
		s.pending = append(s.pending, token.Token{Kind: token.EndMultipart})
	}
}

func (s *Stream) activeMultipartFrames() []*entity.Frame {
	var out []*entity.Frame
	for _, f := range s.frames.Frames() {
		if f.Kind == entity.Multipart {
			out = append(out, f)
		}
	}
	return out
}

func (s *Stream) hasActiveMultipart() bool {
	return len(s.activeMultipartFrames()) > 0
}
