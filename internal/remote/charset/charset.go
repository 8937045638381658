// Package charset converts text crossing the API boundary between Go strings
// and the 8-bit encoding TRACE32 expects.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultName is the encoding used when nothing else is configured.
const DefaultName = "gbk"

// ErrUnknownCharset is returned by ByName for unsupported names.
var ErrUnknownCharset = errors.New("unknown charset")

// Codec encodes outgoing and decodes incoming text.
//
// Encoding never fails: runes the charset cannot represent are replaced, so a
// mismatched charset produces mangled text rather than an error.
type Codec struct {
	name string
	enc  encoding.Encoding
}

var codecs = map[string]encoding.Encoding{
	"gbk":          simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
}

// ByName returns the codec registered under name (case insensitive).
func ByName(name string) (*Codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultName
	}
	enc, ok := codecs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return &Codec{name: key, enc: enc}, nil
}

// Default returns the GBK codec.
func Default() *Codec {
	return &Codec{name: DefaultName, enc: simplifiedchinese.GBK}
}

// Name returns the registered name of the codec.
func (c *Codec) Name() string { return c.name }

// Encode converts s to the target encoding.
func (c *Codec) Encode(s string) []byte {
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		// Invalid UTF-8 input; fall back to the raw bytes.
		return []byte(s)
	}
	return out
}

// CString encodes s and appends the terminating NUL.
func (c *Codec) CString(s string) []byte {
	return append(c.Encode(s), 0)
}

// Decode converts the bytes of buf up to the first NUL.
func (c *Codec) Decode(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return c.DecodeAll(buf)
}

// DecodeAll converts all of buf, NUL bytes included.
func (c *Codec) DecodeAll(buf []byte) string {
	out, err := c.enc.NewDecoder().Bytes(buf)
	if err != nil {
		return string(buf)
	}
	return string(out)
}

// Fixed encodes s into a zero padded buffer of exactly size bytes, keeping
// room for the terminating NUL. It reports whether s had to be truncated.
func (c *Codec) Fixed(s string, size int) ([]byte, bool) {
	buf := make([]byte, size)
	if size == 0 {
		return buf, s != ""
	}
	enc := c.Encode(s)
	n := copy(buf[:size-1], enc)
	return buf, n < len(enc)
}
