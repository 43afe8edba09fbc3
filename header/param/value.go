// Package param parses parameterized header bodies: Content-Type and
// Content-disposition, plus anything else of the form
// "token/token; name=value; ...". It never fails the caller outright;
// malformed input yields a nil Value and ok == false so a Body Descriptor
// can always fall back to its defaults.
package param

import (
	"mime"
	"strings"
)

// Standard parameter names recognized by the Body Descriptor.
const (
	Charset  = "charset"
	Boundary = "boundary"
	Filename = "filename"
)

// Value is a parsed "type/subtype; params" header body.
type Value struct {
	full   string
	major  string
	minor  string
	params map[string]string
}

// Parse parses s as a parameterized header value. ok is false when s could
// not be parsed at all (not even via the tolerant fallback), in which case
// v is nil and the caller should apply its own defaults.
func Parse(s string) (v *Value, ok bool) {
	mt, params, err := mime.ParseMediaType(s)
	if err != nil {
		mt, params, ok = tolerantParse(s)
		if !ok {
			return nil, false
		}
	}

	major, minor, _ := strings.Cut(mt, "/")
	assembleRFC2231Continuations(params)

	return &Value{
		full:   mt,
		major:  major,
		minor:  minor,
		params: params,
	}, true
}

// Type returns the major type, e.g. "multipart" in "multipart/mixed".
func (v *Value) Type() string { return v.major }

// Subtype returns the minor type, e.g. "mixed" in "multipart/mixed".
func (v *Value) Subtype() string { return v.minor }

// Full returns "type/subtype".
func (v *Value) Full() string { return v.full }

// Parameter returns the named parameter (case-insensitive name) and
// whether it was present.
func (v *Value) Parameter(name string) (string, bool) {
	p, ok := v.params[strings.ToLower(name)]
	return p, ok
}

// Charset returns the "charset" parameter, or "" if absent.
func (v *Value) Charset() string {
	c, _ := v.Parameter(Charset)
	return c
}

// Boundary returns the "boundary" parameter, or "" if absent.
func (v *Value) Boundary() string {
	b, _ := v.Parameter(Boundary)
	return b
}

// Filename returns the "filename" parameter, or "" if absent.
func (v *Value) Filename() string {
	f, _ := v.Parameter(Filename)
	return f
}

// tolerantParse handles the handful of shapes mime.ParseMediaType rejects
// outright but which appear regularly in real mail: a bare type/subtype
// with no trailing semicolon-terminated junk stripped, and parameters
// separated by stray whitespace instead of "; ".
func tolerantParse(s string) (mt string, params map[string]string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, false
	}

	parts := strings.Split(s, ";")
	mt = strings.ToLower(strings.TrimSpace(parts[0]))
	if mt == "" || !strings.Contains(mt, "/") {
		return "", nil, false
	}

	params = map[string]string{}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, val, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		val = strings.Trim(strings.TrimSpace(val), `"`)
		if name != "" {
			params[name] = val
		}
	}
	return mt, params, true
}

// assembleRFC2231Continuations folds parameters like filename*0, filename*1
// (already percent-decoded and merged into the base filename key by
// mime.ParseMediaType for the common case) into their base name when our
// tolerant fallback produced the raw continuation keys instead.
type paramPiece struct {
	index int
	value string
}

func assembleRFC2231Continuations(params map[string]string) {
	groups := map[string][]paramPiece{}
	for k, v := range params {
		base, idxStr, found := strings.Cut(k, "*")
		if !found {
			continue
		}
		idxStr = strings.TrimSuffix(idxStr, "*") // drop charset/lang marker
		idx := 0
		for _, c := range idxStr {
			if c < '0' || c > '9' {
				idx = -1
				break
			}
			idx = idx*10 + int(c-'0')
		}
		if idx < 0 {
			continue
		}
		groups[base] = append(groups[base], paramPiece{idx, v})
	}
	for base, pieces := range groups {
		if _, exists := params[base]; exists {
			continue
		}
		sortPieces(pieces)
		var sb strings.Builder
		for _, p := range pieces {
			sb.WriteString(p.value)
		}
		params[base] = sb.String()
	}
}

func sortPieces(p []paramPiece) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && p[j-1].index > p[j].index; j-- {
			p[j-1], p[j] = p[j], p[j-1]
		}
	}
}
