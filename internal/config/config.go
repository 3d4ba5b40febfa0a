// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GlobalConfig represents the top-level static configuration for the
// AJP13 backend codec host. Maps to the `ajp13:` root key in YAML.
type GlobalConfig struct {
	Node    NodeConfig    `mapstructure:"node"`
	Backend BackendConfig `mapstructure:"backend"`
	Log     LogConfig     `mapstructure:"log"`
	Plugin  PluginConfig  `mapstructure:"plugin"`
}

// ─── Node Identity ───

// NodeConfig contains node identification settings. IP is used as the
// "bound socket's IP literal" fallback for FORWARD_REQUEST's server-name
// field when a session carries no explicit server name.
type NodeConfig struct {
	IP       string `mapstructure:"ip"`       // empty = auto-detect
	Hostname string `mapstructure:"hostname"` // empty = os.Hostname()
}

// ─── Backend (AJP13 codec) ───

// BackendConfig holds the AJP13 backend settings. MaxPacketSize is
// validated against AJP13_MAX_PACKET_SIZE but is not passed to the codec,
// which always applies its own fixed MaxPacketSize constant.
type BackendConfig struct {
	MaxPacketSize   int    `mapstructure:"max_packet_size"`   // default 8192 (AJP13_MAX_PACKET_SIZE)
	HeaderCodesPath string `mapstructure:"header_codes_path"` // empty = use the embedded asset
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`   // debug / info / warn / error
	Pattern string           `mapstructure:"pattern"` // logrus formatter pattern, e.g. "%time[%level] - %msg\n"
	Time    string           `mapstructure:"time"`    // time.Format layout
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation (lumberjack-backed).
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Plugin lifecycle ───

// PluginConfig controls the timeouts the plugin host applies to each
// lifecycle transition of every registered plugin.
type PluginConfig struct {
	InitTimeout         time.Duration `mapstructure:"init_timeout"`
	StartTimeout        time.Duration `mapstructure:"start_timeout"`
	StopTimeout         time.Duration `mapstructure:"stop_timeout"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	HealthCheckTimeout  time.Duration `mapstructure:"health_check_timeout"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `ajp13: ...`.
type configRoot struct {
	AJP13 GlobalConfig `mapstructure:"ajp13"`
}

// Load loads configuration from file.
// The YAML file uses `ajp13:` as root key; env vars use AJP13_ prefix
// (e.g., AJP13_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.AJP13

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use "ajp13." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ajp13.backend.max_packet_size", 8192)

	v.SetDefault("ajp13.log.level", "info")
	v.SetDefault("ajp13.log.pattern", "%time [%level] %field - %msg\n")
	v.SetDefault("ajp13.log.time", "2006-01-02 15:04:05")
	v.SetDefault("ajp13.log.outputs.file.enabled", false)
	v.SetDefault("ajp13.log.outputs.file.path", "/var/log/ajp13gw/ajp13gw.log")
	v.SetDefault("ajp13.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("ajp13.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("ajp13.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("ajp13.log.outputs.file.rotation.compress", true)

	v.SetDefault("ajp13.plugin.init_timeout", "5s")
	v.SetDefault("ajp13.plugin.start_timeout", "5s")
	v.SetDefault("ajp13.plugin.stop_timeout", "5s")
	v.SetDefault("ajp13.plugin.health_check_interval", "30s")
	v.SetDefault("ajp13.plugin.health_check_timeout", "3s")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}

	if cfg.Backend.MaxPacketSize <= 0 {
		return fmt.Errorf("backend.max_packet_size must be positive, got %d", cfg.Backend.MaxPacketSize)
	}
	if cfg.Backend.MaxPacketSize > 8192 {
		return fmt.Errorf("backend.max_packet_size %d exceeds AJP13_MAX_PACKET_SIZE (8192)", cfg.Backend.MaxPacketSize)
	}

	if cfg.Node.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Node.Hostname = hostname
	}

	resolvedIP, err := resolveNodeIP(&cfg.Node)
	if err != nil {
		return err
	}
	cfg.Node.IP = resolvedIP

	return nil
}

// resolveNodeIP resolves the node IP address.
// Priority: explicit config/env value → auto-detect → error.
func resolveNodeIP(node *NodeConfig) (string, error) {
	if node.IP != "" {
		return node.IP, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("cannot resolve node IP: failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ip4[0] == 169 && ip4[1] == 254 {
				continue
			}
			return ip4.String(), nil
		}
	}

	return "", fmt.Errorf("cannot resolve node IP: set AJP13_NODE_IP or ajp13.node.ip")
}
