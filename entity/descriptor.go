// Package entity implements the Body Descriptor and the entity frame stack
// the Entity State Machine drives. It has no knowledge of tokens or
// scanning; it only tracks what a Content-type/Content-transfer-encoding
// pair means for the entity currently being parsed.
package entity

import (
	"strings"

	"github.com/emiyakirito/mime4j-go/header/field"
	"github.com/emiyakirito/mime4j-go/header/param"
)

// Defaults for an entity with no Content-Type or Content-transfer-encoding
// of its own. The transfer encoding tokens recognized by
// applyTransferEncoding mirror transfer.Transcodings, kept separate so this
// package does not need to import transfer.
const (
	defaultCharset  = "us-ascii"
	defaultEncoding = "7bit"
)

// Descriptor is the Body Descriptor of §3: the parsed MIME metadata for
// one entity, built incrementally as header fields arrive.
type Descriptor struct {
	MIMEType         string
	MIMESubtype      string
	Boundary         string
	Charset          string
	TransferEncoding string
	HasContentLength bool
	ContentLength    int64

	Parent *Descriptor

	// RecognizedTransferEncoding is false when Content-transfer-encoding
	// named a token transfer.Transcodings does not recognize; the stream
	// uses this to raise the non-fatal InvalidTransferEncoding warning.
	RecognizedTransferEncoding bool

	sawContentType bool
}

// Default returns the descriptor a bodypart gets when it has no
// Content-Type field of its own: text/plain, us-ascii, 7bit.
func Default(parent *Descriptor) *Descriptor {
	return &Descriptor{
		MIMEType:                   "text",
		MIMESubtype:                "plain",
		Charset:                    defaultCharset,
		TransferEncoding:           defaultEncoding,
		RecognizedTransferEncoding: true,
		Parent:                     parent,
	}
}

// InheritedFromParent returns the descriptor a message/rfc822 child gets
// when its own inner headers never set Content-Type: it clones the parent
// message's type, subtype, and charset rather than defaulting to
// text/plain, per §3's inheritance rule.
func InheritedFromParent(parent *Descriptor) *Descriptor {
	if parent == nil {
		return Default(nil)
	}
	d := Default(parent)
	d.MIMEType = parent.MIMEType
	d.MIMESubtype = parent.MIMESubtype
	d.Charset = parent.Charset
	return d
}

// ApplyField folds one header field into the descriptor. It never returns
// an error: a malformed Content-Type or Content-transfer-encoding simply
// leaves the existing (default) values in place, per §4.5.
func (d *Descriptor) ApplyField(f *field.Field) {
	switch strings.ToLower(f.Name()) {
	case "content-type":
		d.applyContentType(f.Unfolded())
	case "content-transfer-encoding":
		d.applyTransferEncoding(f.Unfolded())
	case "content-length":
		d.applyContentLength(f.Unfolded())
	}
}

// ApplyContentType is the exported form of applyContentType, for callers
// that construct a Descriptor from a forced Content-type rather than a
// parsed header field (the headless entry point).
func (d *Descriptor) ApplyContentType(body string) {
	d.applyContentType(body)
}

func (d *Descriptor) applyContentType(body string) {
	v, ok := param.Parse(body)
	if !ok {
		return
	}
	d.sawContentType = true
	d.MIMEType = strings.ToLower(v.Type())
	d.MIMESubtype = strings.ToLower(v.Subtype())
	if c := v.Charset(); c != "" {
		d.Charset = c
	}
	if b := v.Boundary(); b != "" {
		d.Boundary = b
	}
}

func (d *Descriptor) applyTransferEncoding(body string) {
	tok := strings.ToLower(strings.TrimSpace(body))
	if tok == "" {
		return
	}
	d.TransferEncoding = tok
	switch tok {
	case "7bit", "8bit", "binary", "quoted-printable", "base64":
		d.RecognizedTransferEncoding = true
	default:
		d.RecognizedTransferEncoding = false
	}
}

func (d *Descriptor) applyContentLength(body string) {
	body = strings.TrimSpace(body)
	var n int64
	for _, c := range body {
		if c < '0' || c > '9' {
			return
		}
		n = n*10 + int64(c-'0')
	}
	d.ContentLength = n
	d.HasContentLength = true
}

// IsMultipart reports whether the descriptor names a multipart/* type.
func (d *Descriptor) IsMultipart() bool { return d.MIMEType == "multipart" }

// IsMessageRFC822 reports whether the descriptor names message/rfc822.
func (d *Descriptor) IsMessageRFC822() bool {
	return d.MIMEType == "message" && d.MIMESubtype == "rfc822"
}

// SawContentType reports whether a Content-Type field was actually parsed,
// as opposed to this descriptor still holding its constructed defaults.
func (d *Descriptor) SawContentType() bool { return d.sawContentType }
