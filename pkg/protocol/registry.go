// Package protocol is the upstream-registry abstraction backend codec
// plugins hang their callbacks on, mirroring the fixed six-entry-point
// shape a native proxy backend module registers.
package protocol

import (
	"fmt"
	"sync"

	"firestige.xyz/ajp13gw/internal/ajp13"
	"firestige.xyz/ajp13gw/internal/chunkqueue"
)

// Vtable is the set of callbacks a backend protocol plugin provides.
// Init/Cleanup bracket a single backend connection's session state;
// Encode/GetRequestChunk drive the outbound half, Decode/ParseHeader the
// inbound half.
type Vtable struct {
	Init    func() (ajp13.Session, error)
	Cleanup func(ajp13.Session) error

	// Encode assembles a FORWARD_REQUEST packet for sess into out.
	Encode func(sess ajp13.Session, out *chunkqueue.Queue) error

	// GetRequestChunk reframes request body bytes waiting in in as DATA
	// packets in out.
	GetRequestChunk func(in, out *chunkqueue.Queue) (int, error)

	// Decode resumes response decoding over in, consuming every packet
	// it holds, updating sess and streaming body bytes into body.
	Decode func(in *chunkqueue.Queue, sess ajp13.Session, body *chunkqueue.Queue, onGetBodyChunk func(int) error) error

	// ParseResponseHeader decodes a single, already-complete SEND_HEADERS
	// body directly, bypassing the resumable decoder.
	ParseResponseHeader func(body []byte, sess ajp13.Session) error
}

type Registry struct {
	mu    sync.RWMutex
	table map[string]Vtable
}

func NewRegistry() *Registry {
	return &Registry{table: make(map[string]Vtable)}
}

func (r *Registry) Register(name string, vt Vtable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.table[name]; exists {
		return fmt.Errorf("protocol: %q already registered", name)
	}
	r.table[name] = vt
	return nil
}

func (r *Registry) Lookup(name string) (Vtable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vt, ok := r.table[name]
	return vt, ok
}

// global is the process-wide registry plugins register against at
// package load, mirroring pkg/plugin's facade.
var global = NewRegistry()

func Register(name string, vt Vtable) error { return global.Register(name, vt) }
func Lookup(name string) (Vtable, bool)     { return global.Lookup(name) }
