// Package sanitizer makes user-supplied text safe to embed in marker-delimited
// log files. Non-printable runes are hex-encoded so control sequences cannot
// corrupt a block, and configured glyphs (the record markers) are stripped so
// message text can never forge a block boundary.
package sanitizer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// StripRunes removes every rune in the given set from sanitized text.
func StripRunes(set string) Option {
	return func(s *Sanitizer) {
		for _, r := range set {
			s.strip[r] = struct{}{}
		}
	}
}

// Sanitizer rewrites strings according to its configured rules.
// Not safe for concurrent use; each owner keeps its own instance.
type Sanitizer struct {
	strip map[rune]struct{}
	buf   []byte
}

// New creates a Sanitizer with the provided options.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		strip: make(map[rune]struct{}),
		buf:   make([]byte, 0, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Text sanitizes a string: stripped runes are dropped, non-printable runes
// other than newline and tab are hex-encoded as "<XX>".
func (s *Sanitizer) Text(in string) string {
	clean := true
	for _, r := range in {
		if _, drop := s.strip[r]; drop || !printable(r) {
			clean = false
			break
		}
	}
	if clean {
		return in
	}

	s.buf = s.buf[:0]
	var enc [8]byte
	for _, r := range in {
		if _, drop := s.strip[r]; drop {
			continue
		}
		if printable(r) {
			s.buf = utf8Append(s.buf, r)
			continue
		}
		n := utf8Append(enc[:0], r)
		s.buf = append(s.buf, '<')
		s.buf = append(s.buf, hex.EncodeToString(n)...)
		s.buf = append(s.buf, '>')
	}
	return string(s.buf)
}

// Value renders an arbitrary value as sanitized text. Strings, errors and
// Stringers are rendered directly; everything else is delegated to spew for
// a compact structural dump.
func (s *Sanitizer) Value(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return s.Text(val)
	case error:
		return s.Text(fmt.Sprintf("%T: %s", val, val.Error()))
	case fmt.Stringer:
		return s.Text(val.String())
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		var b bytes.Buffer
		dumper := &spew.ConfigState{
			Indent:                  " ",
			MaxDepth:                10,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		dumper.Fdump(&b, val)
		return s.Text(strings.TrimSpace(b.String()))
	}
}

// printable reports whether the rune may pass through unescaped.
// Newline and tab are allowed so multi-line messages keep their shape.
func printable(r rune) bool {
	if r == '\n' || r == '\t' {
		return true
	}
	return strconv.IsPrint(r)
}

// utf8Append appends the UTF-8 encoding of r to dst.
func utf8Append(dst []byte, r rune) []byte {
	return append(dst, string(r)...)
}
