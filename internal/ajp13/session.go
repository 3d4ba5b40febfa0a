package ajp13

import (
	uuid "github.com/satori/go.uuid"
)

// Request holds everything FORWARD_REQUEST needs to serialize. Fields
// map directly onto the twelve steps of the packet layout.
type Request struct {
	Method      Method
	HTTPVersion string
	URI         string
	RemoteAddr  string
	ServerName  string // empty: EmitForwardRequest falls back to the session's bound IP
	ServerPort  uint16
	IsSSL       bool
	Headers     []HeaderField

	ContentLength int64
	AuthUser      string // AttrRemoteUser, empty means absent
	QueryString   string // AttrQueryString, empty means absent
	JVMRoute      string // AttrJVMRoute, empty means absent
}

// Response accumulates what SEND_HEADERS and END_RESPONSE deliver. It is
// built incrementally by the decode loop, one packet at a time.
type Response struct {
	Status     int
	StatusMsg  string
	Headers    []HeaderField
	Reuse      bool // END_RESPONSE's reuse flag
	BodyChunks [][]byte
}

// Session is the per-connection state a codec round-trip runs against:
// the outgoing request, the response under construction, and the decode
// loop's resumable phase. One Session exists per backend connection
// attempt; it does not survive across connections.
type Session interface {
	Request() *Request
	Response() *Response

	// ServerBoundIP is the fallback FORWARD_REQUEST server-name when
	// Request().ServerName is empty — the proxy's own bound socket IP.
	ServerBoundIP() string

	// JVMRouteHint is the sticky-session routing hint from a prior
	// response, if any; empty when there is none yet.
	JVMRouteHint() string
	SetJVMRouteHint(string)

	// ID correlates this session's log lines; it never touches the wire.
	ID() string

	Closing() bool
	SetClosing(bool)

	// Decoder is this session's codec-owned parse state: one resumable
	// Decoder per backend connection, reused across every Decode call so
	// a packet split across reads suspends and resumes correctly instead
	// of restarting from PhaseNeedHeader with its stolen bytes already
	// gone. Lazily created on first use.
	Decoder() *Decoder
}

type session struct {
	req      Request
	resp     Response
	boundIP  string
	jvmRoute string
	id       string
	closing  bool
	decoder  *Decoder
}

// NewSession creates a Session bound to the proxy's own boundIP, used as
// the FORWARD_REQUEST server-name fallback.
func NewSession(boundIP string) Session {
	return &session{
		boundIP: boundIP,
		id:      uuid.NewV4().String(),
	}
}

func (s *session) Request() *Request   { return &s.req }
func (s *session) Response() *Response { return &s.resp }
func (s *session) ServerBoundIP() string { return s.boundIP }
func (s *session) JVMRouteHint() string  { return s.jvmRoute }
func (s *session) SetJVMRouteHint(v string) { s.jvmRoute = v }
func (s *session) ID() string          { return s.id }
func (s *session) Closing() bool       { return s.closing }
func (s *session) SetClosing(v bool)   { s.closing = v }

func (s *session) Decoder() *Decoder {
	if s.decoder == nil {
		s.decoder = NewDecoder()
	}
	return s.decoder
}
