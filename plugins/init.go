// Package plugins registers all built-in plugins against the
// process-wide registry installed by internal/plugin's default registry.
package plugins

import (
	"firestige.xyz/ajp13gw/pkg/plugin"

	// Blank-imported for its initialization side effect: it installs the
	// default registry via pkg/plugin.SetRegistry before this package's own
	// init() below runs, so mustRegister always has a live target.
	_ "firestige.xyz/ajp13gw/internal/plugin"
	"firestige.xyz/ajp13gw/plugins/ajp13"
	"firestige.xyz/ajp13gw/plugins/helloworld"
)

func init() {
	mustRegister(ajp13.New())
	mustRegister(helloworld.New())
}

func mustRegister(p plugin.Plugin) {
	if err := plugin.Register(p); err != nil {
		panic(err)
	}
}
