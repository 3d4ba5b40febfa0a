package ajp13

import (
	"errors"
	"fmt"

	"firestige.xyz/ajp13gw/internal/chunkqueue"
)

// ErrStreamDone is returned by DecodeLoop once an END_RESPONSE packet has
// been fully processed (is-closing applied, both queues closed). Callers
// distinguish it from a nil "suspended, call me again" return and from a
// genuine decode error.
var ErrStreamDone = errors.New("ajp13: response stream complete")

// Phase names where a Decoder sits in its resumable state machine. A
// short read from the network suspends decoding mid-phase; the next
// call to DecodeLoop picks up exactly where it left off.
type Phase int

const (
	PhaseNeedHeader Phase = iota
	PhaseNeedPayload
	PhaseStreamingChunkLen
	PhaseStreamingChunkData
)

func (p Phase) String() string {
	switch p {
	case PhaseNeedHeader:
		return "need-header"
	case PhaseNeedPayload:
		return "need-payload"
	case PhaseStreamingChunkLen:
		return "streaming-chunk-len"
	case PhaseStreamingChunkData:
		return "streaming-chunk-data"
	default:
		return "unknown"
	}
}

// Decoder decodes container-to-server packets against a Session, one
// resumable step at a time. The zero value starts in PhaseNeedHeader,
// the same state NewDecoder returns.
type Decoder struct {
	phase Phase

	packetType byte
	bodyLen    int // packet body length after the type byte; the SEND_BODY_CHUNK phases count it down as bytes are consumed
	scratch    []byte

	streamRemaining int // SEND_BODY_CHUNK: data bytes left to steal for the current chunk
}

func NewDecoder() *Decoder {
	return &Decoder{phase: PhaseNeedHeader}
}

func (d *Decoder) Phase() Phase { return d.phase }

func (d *Decoder) reset() {
	d.phase = PhaseNeedHeader
	d.packetType = 0
	d.bodyLen = 0
	d.scratch = nil
	d.streamRemaining = 0
}

// DecodeLoop consumes as many complete packets as in currently holds,
// dispatching SEND_HEADERS and END_RESPONSE updates into sess's
// Response, streaming SEND_BODY_CHUNK payload bytes into body with a
// zero-copy steal, and calling onGetBodyChunk with the container's
// requested byte count whenever a GET_BODY_CHUNK packet arrives. It
// returns nil, with the Decoder suspended mid-phase, when in runs dry
// before a packet completes; the next call resumes from that phase.
// It returns ErrStreamDone once an END_RESPONSE packet has been fully
// applied (is-closing flag set per the reuse byte, both queues closed);
// any other non-nil return is a decode error.
func (d *Decoder) DecodeLoop(in *chunkqueue.Queue, sess Session, body *chunkqueue.Queue, onGetBodyChunk func(n int) error) error {
	for {
		switch d.phase {
		case PhaseNeedHeader:
			if in.Len() < FullHeaderLen {
				return nil
			}
			hdr := make([]byte, FullHeaderLen)
			if _, err := in.StealBytes(hdr); err != nil {
				return err
			}
			magic := uint16(hdr[0])<<8 | uint16(hdr[1])
			if magic != ContainerMagic {
				return fmt.Errorf("ajp13: bad magic %#04x from container, want %#04x", magic, ContainerMagic)
			}
			length := int(uint16(hdr[2])<<8 | uint16(hdr[3]))
			if length < 1 {
				return fmt.Errorf("ajp13: packet length %d too short to carry a type byte", length)
			}
			d.packetType = hdr[4]
			d.bodyLen = length - 1
			if d.bodyLen > MaxPacketSize {
				return fmt.Errorf("ajp13: packet body %d exceeds max packet size %d", d.bodyLen, MaxPacketSize)
			}

			if d.packetType == PacketSendBodyChunk {
				d.phase = PhaseStreamingChunkLen
			} else {
				d.scratch = make([]byte, 0, d.bodyLen)
				d.phase = PhaseNeedPayload
			}

		case PhaseNeedPayload:
			need := d.bodyLen - len(d.scratch)
			if need == 0 {
				err := d.dispatch(in, body, sess, onGetBodyChunk)
				d.reset()
				if err != nil {
					return err
				}
				continue
			}
			avail := in.Len()
			take := need
			if take > avail {
				take = avail
			}
			if take == 0 {
				return nil
			}
			tmp := make([]byte, take)
			if _, err := in.StealBytes(tmp); err != nil {
				return err
			}
			d.scratch = append(d.scratch, tmp...)

		case PhaseStreamingChunkLen:
			if in.Len() < 2 {
				return nil
			}
			lb := make([]byte, 2)
			if _, err := in.StealBytes(lb); err != nil {
				return err
			}
			d.streamRemaining = int(uint16(lb[0])<<8 | uint16(lb[1]))
			d.bodyLen -= 2
			d.phase = PhaseStreamingChunkData

		case PhaseStreamingChunkData:
			if d.streamRemaining > 0 {
				if in.Len() == 0 {
					return nil
				}
				n := in.Len()
				if n > d.streamRemaining {
					n = d.streamRemaining
				}
				moved, err := in.StealInto(body, n)
				if err != nil {
					return err
				}
				d.streamRemaining -= moved
				d.bodyLen -= moved
				if moved < n {
					return nil
				}
				continue
			}
			if d.bodyLen > 0 {
				if in.Len() < d.bodyLen {
					return nil
				}
				if _, err := in.Skip(d.bodyLen); err != nil {
					return err
				}
				d.bodyLen = 0
			}
			d.reset()
		}
	}
}

func (d *Decoder) dispatch(in, body *chunkqueue.Queue, sess Session, onGetBodyChunk func(n int) error) error {
	switch d.packetType {
	case PacketSendHeaders:
		return decodeSendHeaders(d.scratch, sess.Response())
	case PacketEndResponse:
		return decodeEndResponse(d.scratch, sess, in, body)
	case PacketGetBodyChunk:
		n, err := decodeGetBodyChunk(d.scratch)
		if err != nil {
			return err
		}
		if onGetBodyChunk != nil {
			return onGetBodyChunk(n)
		}
		return nil
	default:
		return fmt.Errorf("ajp13: unexpected packet type %#02x from container", d.packetType)
	}
}

// ParseResponseHeaders decodes a complete SEND_HEADERS body (everything
// after the packet-type byte) directly, for callers that already hold
// the full packet and don't need the resumable Decoder.
func ParseResponseHeaders(body []byte, resp *Response) error {
	return decodeSendHeaders(body, resp)
}

func decodeSendHeaders(data []byte, resp *Response) error {
	c := newCursor(data)

	status, err := c.decodeInt16()
	if err != nil {
		return fmt.Errorf("ajp13: decode status: %w", err)
	}
	reason, err := c.decodeString(false)
	if err != nil {
		return fmt.Errorf("ajp13: decode reason phrase: %w", err)
	}
	numHeaders, err := c.decodeInt16()
	if err != nil {
		return fmt.Errorf("ajp13: decode header count: %w", err)
	}

	headers := make([]HeaderField, 0, numHeaders)
	for i := 0; i < int(numHeaders); i++ {
		key, err := c.decodeString(true)
		if err != nil {
			return fmt.Errorf("ajp13: decode header %d name: %w", i, err)
		}
		// Header values are never substituted via the common-code table,
		// only names are: is_header is false here.
		value, err := c.decodeString(false)
		if err != nil {
			return fmt.Errorf("ajp13: decode header %d value: %w", i, err)
		}
		headers = append(headers, HeaderField{Key: key, Value: value})
	}

	resp.Status = int(status)
	resp.StatusMsg = reason
	resp.Headers = headers
	return nil
}

// decodeEndResponse applies all three effects END_RESPONSE carries: the
// reuse flag lands on the response, a non-zero flag marks the session
// is-closing, and — regardless of reuse — both queues are closed and the
// stream is reported done.
func decodeEndResponse(data []byte, sess Session, in, body *chunkqueue.Queue) error {
	c := newCursor(data)
	reuse, err := c.decodeByte()
	if err != nil {
		return fmt.Errorf("ajp13: decode end-response reuse flag: %w", err)
	}
	resp := sess.Response()
	resp.Reuse = reuse != 0
	if resp.Reuse {
		sess.SetClosing(true)
	}
	in.Close()
	body.Close()
	return ErrStreamDone
}

func decodeGetBodyChunk(data []byte) (int, error) {
	c := newCursor(data)
	n, err := c.decodeInt16()
	if err != nil {
		return 0, fmt.Errorf("ajp13: decode get-body-chunk length: %w", err)
	}
	return int(n), nil
}
