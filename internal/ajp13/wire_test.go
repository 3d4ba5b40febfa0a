package ajp13

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeStringRoundTrip(t *testing.T) {
	buf := NewBuffer()
	buf.EncodeString("hello")

	c := newCursor(buf.Bytes())
	s, err := c.decodeString(false)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, 0, c.remaining())
}

func TestEncodeAbsentString(t *testing.T) {
	buf := NewBuffer()
	buf.EncodeAbsentString()

	c := newCursor(buf.Bytes())
	s, err := c.decodeString(false)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestDecodeStringShortBufferIsStrict(t *testing.T) {
	// length=5 but only 5 bytes of payload follow, with no room for the
	// trailing NUL: must fail, not silently accept.
	data := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	c := newCursor(data)
	_, err := c.decodeString(false)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeStringExactFitSucceeds(t *testing.T) {
	data := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o', 0x00}
	c := newCursor(data)
	s, err := c.decodeString(false)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestDecodeStringCommonHeaderCode(t *testing.T) {
	name, ok := lookupResponseHeaderName(0xA001)
	require.True(t, ok)
	assert.Equal(t, "Content-Type", name)

	buf := NewBuffer()
	buf.EncodeInt16(0xA001)

	// A common-header-code substitution is only resolved when isHeader,
	// and always through the response header-code table.
	c := newCursor(buf.Bytes())
	s, err := c.decodeString(true)
	require.NoError(t, err)
	assert.Equal(t, name, s)
}

func TestEncodeHeaderKVUsesCommonCode(t *testing.T) {
	buf := NewBuffer()
	err := buf.EncodeHeaderKV("Host", "example.com")
	require.NoError(t, err)

	c := newCursor(buf.Bytes())
	code, err := c.decodeInt16()
	require.NoError(t, err)
	assert.True(t, isCommonHeaderCode(code))
}

func TestEncodeHeaderKVLongNameSkipsCommonCode(t *testing.T) {
	buf := NewBuffer()
	longName := "X-A-Header-Name-Too-Long-For-The-Table"
	err := buf.EncodeHeaderKV(longName, "v")
	require.NoError(t, err)

	c := newCursor(buf.Bytes())
	s, err := c.decodeString(false)
	require.NoError(t, err)
	assert.Equal(t, longName, s)
}

func TestEncodeHeaderKVRejectsInvalidValue(t *testing.T) {
	buf := NewBuffer()
	err := buf.EncodeHeaderKV("X-Custom", "bad\nvalue")
	assert.Error(t, err)
}
