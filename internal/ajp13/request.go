package ajp13

import (
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"firestige.xyz/ajp13gw/internal/chunkqueue"
)

// EmitForwardRequest writes a FORWARD_REQUEST packet body (everything
// after the 4-byte wire header) for sess into buf, in the twelve-field
// order the container expects: packet type, method, protocol, uri,
// remote addr, remote host, server name, server port, is-ssl, headers,
// attributes, request-terminator.
func EmitForwardRequest(buf *Buffer, sess Session) error {
	req := sess.Request()

	buf.EncodeByte(PacketForwardRequest)
	buf.EncodeByte(byte(req.Method))
	buf.EncodeString(req.HTTPVersion)
	buf.EncodeString(req.URI)
	buf.EncodeString(req.RemoteAddr)
	buf.EncodeString("") // remote host: never resolved, always present-empty

	serverName := req.ServerName
	if serverName == "" {
		serverName = sess.ServerBoundIP()
	}
	buf.EncodeString(serverName)
	buf.EncodeInt16(req.ServerPort)
	if req.IsSSL {
		buf.EncodeByte(1)
	} else {
		buf.EncodeByte(0)
	}

	headers := forceContentLength(req.Headers, req.ContentLength)
	buf.EncodeInt16(uint16(len(headers)))
	var errs error
	for _, h := range headers {
		if err := buf.EncodeHeaderKV(h.Key, h.Value); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if req.AuthUser != "" {
		buf.EncodeByte(AttrRemoteUser)
		buf.EncodeString(req.AuthUser)
	}
	if req.QueryString != "" {
		buf.EncodeByte(AttrQueryString)
		buf.EncodeString(req.QueryString)
	}
	if req.JVMRoute != "" {
		buf.EncodeByte(AttrJVMRoute)
		buf.EncodeString(req.JVMRoute)
	}
	buf.EncodeByte(AttrAreDone)

	return errs
}

// forceContentLength returns req.Headers with any existing Content-Length
// entry dropped and a fresh one, reflecting contentLength, inserted
// first — the container trusts this field over whatever arrived on the
// client-facing side.
func forceContentLength(headers []HeaderField, contentLength int64) []HeaderField {
	out := make([]HeaderField, 0, len(headers)+1)
	out = append(out, HeaderField{Key: "Content-Length", Value: strconv.FormatInt(contentLength, 10)})
	for _, h := range headers {
		if strings.EqualFold(h.Key, "Content-Length") {
			continue
		}
		out = append(out, h)
	}
	return out
}

// EmitRequestChunk assembles a complete FORWARD_REQUEST packet,
// including its 4-byte wire header, and appends it to out. The header's
// length field is back-patched once the body is known, mirroring the
// encoder's reserve-then-patch pattern for every packet it writes.
func EmitRequestChunk(sess Session, out *chunkqueue.Queue) error {
	buf := NewBuffer()
	buf.Reserve(HeaderLen)

	if err := EmitForwardRequest(buf, sess); err != nil {
		return err
	}

	b := buf.Bytes()
	bodyLen := len(b) - HeaderLen
	patchHeader(b, ServerMagic, bodyLen)
	out.AppendBuffer(b)
	return nil
}

func patchHeader(b []byte, magic uint16, bodyLen int) {
	b[0] = byte(magic >> 8)
	b[1] = byte(magic)
	b[2] = byte(bodyLen >> 8)
	b[3] = byte(bodyLen)
}

// EmitRequestBody reframes request body bytes sitting in in as a series
// of DATA packets (a bare length-prefixed payload, no packet-type byte)
// in out, the form FORWARD_REQUEST's caller feeds after a GET_BODY_CHUNK
// round-trip. Each packet carries at most MaxPacketSize-2 payload bytes.
// File-backed chunks move without copying; StealInto also carries
// forward temp-file release ownership to the last packet built from a
// drained file, so a body spooled to disk is cleaned up exactly once
// however many packets it was split across.
func EmitRequestBody(in, out *chunkqueue.Queue) (int, error) {
	total := 0
	for in.Len() > 0 {
		n := in.Len()
		if n > MaxPacketSize-2 {
			n = MaxPacketSize - 2
		}

		hdr := NewBuffer()
		hdr.Reserve(HeaderLen)
		hdr.EncodeInt16(uint16(n))
		patchHeader(hdr.Bytes(), ServerMagic, n+2)
		out.AppendBuffer(hdr.Bytes())

		moved, err := in.StealInto(out, n)
		if err != nil {
			return total, err
		}
		total += moved
		if moved < n {
			break
		}
	}
	return total, nil
}
