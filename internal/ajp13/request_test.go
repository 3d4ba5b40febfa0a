package ajp13

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ajp13gw/internal/chunkqueue"
)

func sampleSession() Session {
	sess := NewSession("10.0.0.9")
	req := sess.Request()
	req.Method = MethodGet
	req.HTTPVersion = "HTTP/1.1"
	req.URI = "/t"
	req.RemoteAddr = "1.2.3.4"
	req.ServerName = "h"
	req.ServerPort = 8080
	return sess
}

func TestEmitRequestChunkFraming(t *testing.T) {
	sess := sampleSession()
	out := chunkqueue.New()

	require.NoError(t, EmitRequestChunk(sess, out))

	got := make([]byte, out.Len())
	_, err := out.StealBytes(got)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(got), HeaderLen+2)
	magic := uint16(got[0])<<8 | uint16(got[1])
	assert.Equal(t, ServerMagic, magic)

	length := int(uint16(got[2])<<8 | uint16(got[3]))
	assert.Equal(t, len(got)-HeaderLen, length)

	assert.Equal(t, PacketForwardRequest, got[4])
	assert.Equal(t, byte(MethodGet), got[5])
	assert.Equal(t, byte(AttrAreDone), got[len(got)-1])
}

func TestEmitForwardRequestForcesContentLength(t *testing.T) {
	sess := sampleSession()
	sess.Request().ContentLength = 42
	sess.Request().Headers = []HeaderField{
		{Key: "content-length", Value: "999"}, // stale client value, must be overridden
		{Key: "X-Custom", Value: "v"},
	}

	buf := NewBuffer()
	require.NoError(t, EmitForwardRequest(buf, sess))

	c := newCursor(buf.Bytes())
	_, _ = c.decodeByte()   // packet type
	_, _ = c.decodeByte()   // method
	_, _ = c.decodeString(false) // protocol
	_, _ = c.decodeString(false) // uri
	_, _ = c.decodeString(false) // remote addr
	_, _ = c.decodeString(false) // remote host
	_, _ = c.decodeString(false) // server name
	_, _ = c.decodeInt16()       // server port
	_, _ = c.decodeByte()        // is-ssl

	count, err := c.decodeInt16()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), count)

	// Content-Length is a common request header, sent as its code.
	key, err := c.decodeInt16()
	require.NoError(t, err)
	value, err := c.decodeString(false)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xA008), key)
	assert.Equal(t, "42", value)
}

func TestEmitForwardRequestAttributes(t *testing.T) {
	sess := sampleSession()
	sess.Request().AuthUser = "alice"
	sess.Request().QueryString = "a=b"
	sess.Request().JVMRoute = "node1"

	buf := NewBuffer()
	require.NoError(t, EmitForwardRequest(buf, sess))
	b := buf.Bytes()

	assert.Contains(t, string(b), "alice")
	assert.Contains(t, string(b), "a=b")
	assert.Contains(t, string(b), "node1")
	assert.Equal(t, byte(AttrAreDone), b[len(b)-1])
}

func TestEmitRequestBodySingleChunk(t *testing.T) {
	in := chunkqueue.New()
	in.AppendBuffer([]byte("hello body"))
	out := chunkqueue.New()

	n, err := EmitRequestBody(in, out)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 0, in.Len())

	framed := make([]byte, out.Len())
	_, err = out.StealBytes(framed)
	require.NoError(t, err)

	c := newCursor(framed)
	magicHi, _ := c.decodeByte()
	magicLo, _ := c.decodeByte()
	assert.Equal(t, byte(ServerMagic>>8), magicHi)
	assert.Equal(t, byte(ServerMagic), magicLo)

	length, err := c.decodeInt16()
	require.NoError(t, err)
	assert.Equal(t, uint16(12), length) // 2-byte length field + 10 data bytes

	dataLen, err := c.decodeInt16()
	require.NoError(t, err)
	assert.Equal(t, uint16(10), dataLen)
}

func TestEmitRequestBodySplitsOversizedInput(t *testing.T) {
	in := chunkqueue.New()
	big := make([]byte, MaxPacketSize) // forces at least two DATA packets
	for i := range big {
		big[i] = byte(i)
	}
	in.AppendBuffer(big)
	out := chunkqueue.New()

	n, err := EmitRequestBody(in, out)
	require.NoError(t, err)
	assert.Equal(t, len(big), n)
	assert.Equal(t, 0, in.Len())
	assert.Greater(t, out.Len(), len(big)) // framing overhead on top of raw data
}
