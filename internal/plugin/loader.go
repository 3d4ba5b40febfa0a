package plugin

import "fmt"

// LoadMode distinguishes how plugins reach the registry. Only StaticMode
// is implemented: every plugin in this binary registers itself via
// blank-imported init() functions at compile time (see plugins/init.go).
// DynamicMode is reserved for a future .so-based loader and currently
// always fails — there is nothing in this deployment's scope that loads
// plugins from disk at runtime.
type LoadMode string

const (
	DynamicMode LoadMode = "dynamic"
	StaticMode  LoadMode = "static"
)

type LoaderConfig struct {
	Mode     LoadMode
	Path     string   // unused in StaticMode
	Patterns []string // unused in StaticMode
}

type Loader struct {
	config   LoaderConfig
	registry *registryImpl
}

func NewLoader(config LoaderConfig, registry *registryImpl) *Loader {
	return &Loader{
		config:   config,
		registry: registry,
	}
}

// Load validates that every statically-registered plugin's dependency
// graph is well-formed. It does not itself register anything — that
// happens via init() side effects before Load is ever called.
func (l *Loader) Load() error {
	if l.config.Mode != StaticMode {
		return fmt.Errorf("unsupported load mode %q: only static plugin loading is implemented", l.config.Mode)
	}
	if _, err := l.registry.GetLoadOrder(); err != nil {
		return fmt.Errorf("plugin dependency validation failed: %w", err)
	}
	return nil
}
