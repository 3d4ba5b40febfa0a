// Package helloworld is the trivial companion plugin: it does nothing
// but announce itself, the same role mod_helloworld.c plays next to the
// real backend module it sits beside.
package helloworld

import (
	"firestige.xyz/ajp13gw/internal/log"
	"firestige.xyz/ajp13gw/pkg/plugin"
)

const Name = "helloworld"

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Type:        "module",
		Version:     "1.0.0",
		Description: "prints a greeting on init, nothing else",
	}
}

func (p *Plugin) Init(config map[string]interface{}) error {
	log.GetLogger().WithField("plugin", Name).Info("Hello World!!!")
	return nil
}

func (p *Plugin) Start() error  { return nil }
func (p *Plugin) Stop() error   { return nil }
func (p *Plugin) Health() error { return nil }
