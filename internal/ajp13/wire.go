package ajp13

import (
	"errors"
	"fmt"

	"golang.org/x/net/http/httpguts"
)

// ErrShortBuffer is returned by the decode primitives when the input
// doesn't hold as many bytes as the length prefix promised. The decoder
// only runs these primitives over a fully collected packet payload, so
// there it means the packet is malformed and surfaces as a decode error.
var ErrShortBuffer = errors.New("ajp13: short buffer")

// HeaderField is a single request or response header, in wire order.
type HeaderField struct {
	Key   string
	Value string
}

// Buffer accumulates an encoded packet body. The zero value is ready to
// use.
type Buffer struct {
	b []byte
}

func NewBuffer() *Buffer { return &Buffer{} }

func (buf *Buffer) Bytes() []byte { return buf.b }
func (buf *Buffer) Len() int      { return len(buf.b) }

// Reserve appends n zero bytes, returning their offset for later
// back-patching.
func (buf *Buffer) Reserve(n int) int {
	off := len(buf.b)
	buf.b = append(buf.b, make([]byte, n)...)
	return off
}

func (buf *Buffer) EncodeByte(v byte) {
	buf.b = append(buf.b, v)
}

func (buf *Buffer) EncodeInt16(v uint16) {
	buf.b = append(buf.b, byte(v>>8), byte(v))
}

// EncodeString writes a present string: a length prefix, the bytes, and
// a trailing NUL the length prefix does not count.
func (buf *Buffer) EncodeString(s string) {
	buf.EncodeInt16(uint16(len(s)))
	buf.b = append(buf.b, s...)
	buf.b = append(buf.b, 0)
}

// EncodeAbsentString writes the sentinel for "this optional string is
// not present", distinct from a present empty string.
func (buf *Buffer) EncodeAbsentString() {
	buf.EncodeInt16(0xFFFF)
}

// maxUncodedKeyLen mirrors the fixed-size stack buffer the original
// codec uppercases header names into: names at or past this length skip
// the common-header-code lookup and are always sent as literal strings.
const maxUncodedKeyLen = 16

// EncodeHeaderKV writes one request header as either a substituted code
// or a literal name, followed by its value. It validates the value
// against RFC 7230 field-value grammar; the write still happens (the
// codec doesn't silently drop headers), but an error is returned so the
// caller can decide whether to abort the request.
func (buf *Buffer) EncodeHeaderKV(key, value string) error {
	var verr error
	if !httpguts.ValidHeaderFieldValue(value) {
		verr = fmt.Errorf("ajp13: invalid value for header %q", key)
	}

	if len(key) < maxUncodedKeyLen {
		if code, ok := lookupRequestHeaderCode(key); ok {
			buf.EncodeInt16(code)
		} else {
			buf.EncodeString(key)
		}
	} else {
		buf.EncodeString(key)
	}
	buf.EncodeString(value)
	return verr
}

// cursor reads encoded primitives out of an already-assembled packet
// body, tracking how much has been consumed.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor { return &cursor{data: data} }

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) decodeByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, ErrShortBuffer
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) decodeInt16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrShortBuffer
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

// decodeString reads a length-prefixed, NUL-terminated string. When
// isHeader is true, a length whose top nibble marks it as a common
// header code is resolved through the response header-code table
// instead of being read as a literal.
//
// The remaining-bytes check is strict: it fails only when fewer than
// n+1 bytes (the string plus its NUL) remain, so a string that exactly
// fills the rest of the buffer is accepted.
func (c *cursor) decodeString(isHeader bool) (string, error) {
	length, err := c.decodeInt16()
	if err != nil {
		return "", err
	}
	if isHeader && isCommonHeaderCode(length) {
		name, ok := lookupResponseHeaderName(length)
		if !ok {
			return "", fmt.Errorf("ajp13: unknown common header code %#04x", length)
		}
		return name, nil
	}
	if length == 0xFFFF {
		return "", nil
	}
	n := int(length)
	if c.remaining() < n+1 {
		return "", ErrShortBuffer
	}
	s := string(c.data[c.pos : c.pos+n])
	c.pos += n + 1
	return s, nil
}

