// Package ajp13 wires the AJP13 wire codec into the plugin host as a
// "protocol" plugin, mirroring a native proxy backend module's fixed
// six-callback registration.
package ajp13

import (
	"errors"
	"fmt"

	codec "firestige.xyz/ajp13gw/internal/ajp13"
	"firestige.xyz/ajp13gw/internal/chunkqueue"
	"firestige.xyz/ajp13gw/internal/log"
	"firestige.xyz/ajp13gw/pkg/plugin"
	"firestige.xyz/ajp13gw/pkg/protocol"
)

const Name = "ajp13"

type Plugin struct {
	boundIP         string
	headerCodesPath string
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Type:        "protocol",
		Version:     "1.3.0",
		Description: "AJP13 backend wire codec",
	}
}

func (p *Plugin) Init(config map[string]interface{}) error {
	if ip, ok := config["bound_ip"].(string); ok {
		p.boundIP = ip
	}
	if path, ok := config["header_codes_path"].(string); ok && path != "" {
		p.headerCodesPath = path
		if err := codec.LoadHeaderCodesFile(path); err != nil {
			return fmt.Errorf("ajp13 plugin: %w", err)
		}
	}
	return protocol.Register(Name, protocol.Vtable{
		Init:                p.newSession,
		Cleanup:             p.cleanup,
		Encode:              codec.EmitRequestChunk,
		GetRequestChunk:     codec.EmitRequestBody,
		Decode:              p.decode,
		ParseResponseHeader: parseResponseHeader,
	})
}

func (p *Plugin) newSession() (codec.Session, error) {
	return codec.NewSession(p.boundIP), nil
}

func (p *Plugin) cleanup(sess codec.Session) error {
	sess.SetClosing(true)
	return nil
}

// decode resumes sess's own persistent Decoder rather than starting a
// fresh one: the proxy core calls this vtable callback repeatedly as
// bytes trickle in, and a new Decoder on every call would desync framing
// against bytes DecodeLoop already stole out of in on a prior call.
// Any error other than ErrStreamDone is logged once at error level
// before it is returned.
func (p *Plugin) decode(in *chunkqueue.Queue, sess codec.Session, body *chunkqueue.Queue, onGetBodyChunk func(int) error) error {
	err := sess.Decoder().DecodeLoop(in, sess, body, onGetBodyChunk)
	if err != nil && !errors.Is(err, codec.ErrStreamDone) {
		log.GetLogger().WithField("plugin", Name).WithField("session", sess.ID()).Error(err)
	}
	return err
}

func parseResponseHeader(body []byte, sess codec.Session) error {
	return codec.ParseResponseHeaders(body, sess.Response())
}

func (p *Plugin) Start() error {
	log.GetLogger().WithField("plugin", Name).Info("protocol codec ready")
	return nil
}

func (p *Plugin) Stop() error {
	log.GetLogger().WithField("plugin", Name).Info("protocol codec stopped")
	return nil
}

func (p *Plugin) Health() error {
	if _, ok := protocol.Lookup(Name); !ok {
		return fmt.Errorf("ajp13 plugin: not registered with the protocol registry")
	}
	return nil
}
