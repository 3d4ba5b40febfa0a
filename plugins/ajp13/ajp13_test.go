package ajp13

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codec "firestige.xyz/ajp13gw/internal/ajp13"
	"firestige.xyz/ajp13gw/internal/chunkqueue"
)

// The proxy core calls the Decode vtable callback repeatedly as bytes
// trickle in off the wire; a fresh Decoder per call would restart at
// PhaseNeedHeader against bytes the prior call already stole out of in.
// p.decode must resume the same Session's Decoder instead.
func TestDecodeReusesPersistentDecoderAcrossCalls(t *testing.T) {
	p := New()
	sess, err := p.newSession()
	require.NoError(t, err)

	payload := codec.NewBuffer()
	payload.EncodeInt16(200)
	payload.EncodeString("OK")
	payload.EncodeInt16(0)
	raw := payload.Bytes()

	length := 1 + len(raw)
	packet := []byte{0x41, 0x42, byte(length >> 8), byte(length), codec.PacketSendHeaders}
	packet = append(packet, raw...)

	in := chunkqueue.New()
	body := chunkqueue.New()

	// Deliver the header+type bytes in one call...
	in.AppendBuffer(packet[:codec.FullHeaderLen])
	require.NoError(t, p.decode(in, sess, body, nil))
	assert.Equal(t, codec.PhaseNeedPayload, sess.Decoder().Phase())

	// ...and the payload in a second, separate call. A freshly constructed
	// Decoder here would see only the payload bytes and reject them as a
	// bad header.
	in.AppendBuffer(packet[codec.FullHeaderLen:])
	require.NoError(t, p.decode(in, sess, body, nil))

	assert.Equal(t, 200, sess.Response().Status)
	assert.Equal(t, "OK", sess.Response().StatusMsg)
}

// END_RESPONSE must surface as codec.ErrStreamDone through the same
// vtable path the proxy core actually drives.
func TestDecodeSurfacesStreamDoneThroughVtablePath(t *testing.T) {
	p := New()
	sess, err := p.newSession()
	require.NoError(t, err)

	in := chunkqueue.New()
	in.AppendBuffer([]byte{0x41, 0x42, 0x00, 0x02, 0x05, 0x01})
	body := chunkqueue.New()

	err = p.decode(in, sess, body, nil)
	require.ErrorIs(t, err, codec.ErrStreamDone)
	assert.True(t, sess.Closing())
	assert.True(t, in.IsClosed())
	assert.True(t, body.IsClosed())
}
