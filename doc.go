// Package mime4j implements a streaming, pull-based parser for RFC 5322
// messages and RFC 2045-2049 MIME entities.
//
// Unlike a DOM-style parser that reads an entire message into a tree of
// message.Opaque and message.Multipart values before handing it back, this
// library never builds a tree at all. A stream.Stream is a cursor: each
// call to its Next method advances a state machine by exactly one
// token.Token (StartMessage, Field, StartMultipart, Body, EndBodypart, and
// so on) and the caller decides how much of the message it actually needs
// to look at. A multi-gigabyte attachment never has to be held in memory
// to find out whether the message contains one; a caller that only cares
// about the From header can stop reading after the first few tokens.
//
// The packages below are layered so each can be understood (and tested)
// mostly on its own:
//
//   - internal/linebuf reads logical lines out of an io.Reader, the one
//     place that decides what counts as a line ending.
//   - internal/scanner finds multipart boundary delimiters in a raw byte
//     stream, classifying each as an ordinary delimiter or a closing one.
//   - header/field splits a header block into Field values, joining folded
//     continuation lines; header/field also holds the pluggable registry
//     that turns a field's raw body into a structured value (addresses,
//     dates) on request, entirely separate from the state machine itself.
//   - header/param parses "type/subtype; name=value" header bodies
//     (Content-type, Content-disposition).
//   - transfer implements the Content-transfer-encoding codecs
//     (quoted-printable, base64) as thin io.Reader/io.WriteCloser wrappers.
//   - charset resolves a named character set to something that can
//     transcode a Body reader's bytes to UTF-8.
//   - entity holds the Body Descriptor (the parsed Content-type/Content-
//     transfer-encoding/boundary metadata for one entity) and the frame
//     stack the state machine pushes and pops as it descends into, and
//     climbs back out of, nested parts.
//   - token defines the tagged-variant token stream.Stream emits.
//   - stream ties all of the above together into the Entity State Machine
//     and its public Parse/ParseHeadless/Next API.
//
// cmd/mimewalk is a small command-line tool, built on the same pattern as
// this module's teacher's own internal tools, that prints the token stream
// produced by parsing a file, for manual inspection and debugging.
package mime4j
