// Package ajp13 implements the AJP13 wire codec: request encoding,
// response decoding, and the shared framing primitives both directions
// build on.
package ajp13

const (
	// HeaderLen is the wire header the encoder reserves and back-patches:
	// magic(2) + length(2). It never includes the prefix/type byte — that
	// byte is part of the packet body the length field describes.
	HeaderLen = 4

	// FullHeaderLen is the decoder's bytes-consumed bookkeeping unit:
	// HeaderLen plus the one-byte packet type, since the decoder cannot
	// call a packet framed until it has also classified it.
	FullHeaderLen = HeaderLen + 1

	// MaxPacketSize is AJP13_MAX_PACKET_SIZE. No packet, in either
	// direction, may declare a body longer than this.
	MaxPacketSize = 8192
)

// Magic values identify the direction of travel. A packet read with the
// wrong magic for its direction is a framing error, not a short read.
const (
	ServerMagic    uint16 = 0x1234 // server (this proxy) -> container
	ContainerMagic uint16 = 0x4142 // container -> server (this proxy)
)

// Packet type bytes, the first byte of every packet body.
const (
	PacketForwardRequest byte = 0x02
	PacketSendBodyChunk  byte = 0x03
	PacketSendHeaders    byte = 0x04
	PacketEndResponse    byte = 0x05
	PacketGetBodyChunk   byte = 0x06
)

// Request attribute tags, trailing FORWARD_REQUEST's header block.
const (
	AttrRemoteUser  byte = 0x03
	AttrQueryString byte = 0x05
	AttrJVMRoute    byte = 0x06
	AttrAreDone     byte = 0xFF
)

// commonHeaderCodeMask marks an int16 as a substituted well-known header
// name or value rather than a length prefix.
const commonHeaderCodeMask uint16 = 0xA000

func isCommonHeaderCode(v uint16) bool {
	return v&commonHeaderCodeMask == commonHeaderCodeMask
}
