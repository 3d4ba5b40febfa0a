package plugin

import "fmt"

// Registry is the contract internal/plugin's registryImpl satisfies. It is
// declared here, in the package the Plugin interface itself lives in, so
// that package-level Register/Get/List can forward to whichever concrete
// registry the host installed via SetRegistry, without plugin authors
// importing internal/plugin directly.
type Registry interface {
	Register(p Plugin) error
	Get(name string) (Plugin, error)
	List(pluginType string) []Plugin
}

var global Registry

// SetRegistry installs the process-wide registry. Called by every
// internal/plugin.NewRegistry; each call replaces the previous registry.
func SetRegistry(r Registry) {
	global = r
}

// Register attaches p to the process-wide registry installed via
// SetRegistry. Plugin init() functions call this (or Registry.Register
// directly, if they hold a reference) to self-register at package load.
func Register(p Plugin) error {
	if global == nil {
		return fmt.Errorf("plugin registry not initialized")
	}
	return global.Register(p)
}

// Get looks up a registered plugin by name.
func Get(name string) (Plugin, error) {
	if global == nil {
		return nil, fmt.Errorf("plugin registry not initialized")
	}
	return global.Get(name)
}

// List returns every registered plugin of the given type.
func List(pluginType string) []Plugin {
	if global == nil {
		return nil
	}
	return global.List(pluginType)
}
