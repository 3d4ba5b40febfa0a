package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper to write a tmp YAML file and return its path.
func writeTmpConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write tmp config: %v", err)
	}
	return p
}

// ── Load & validate round-trip ──

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
    hostname: "test-host"
  backend:
    max_packet_size: 4096
  log:
    level: "debug"
  plugin:
    init_timeout: "2s"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Node.IP != "10.0.0.1" {
		t.Errorf("Node.IP = %q, want 10.0.0.1", cfg.Node.IP)
	}
	if cfg.Node.Hostname != "test-host" {
		t.Errorf("Node.Hostname = %q, want test-host", cfg.Node.Hostname)
	}
	if cfg.Backend.MaxPacketSize != 4096 {
		t.Errorf("Backend.MaxPacketSize = %d, want 4096", cfg.Backend.MaxPacketSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Plugin.InitTimeout.String() != "2s" {
		t.Errorf("Plugin.InitTimeout = %v, want 2s", cfg.Plugin.InitTimeout)
	}
}

// ── Log validation ──

func TestLoadInvalidLogLevel(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
  log:
    level: "invalid"
`))
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v, want 'invalid log level'", err)
	}
}

// ── Backend validation ──

func TestLoadMaxPacketSizeTooLarge(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
  backend:
    max_packet_size: 65536
`))
	if err == nil {
		t.Fatal("expected error: max_packet_size exceeds AJP13_MAX_PACKET_SIZE")
	}
	if !strings.Contains(err.Error(), "max_packet_size") {
		t.Errorf("error = %v, want mention of max_packet_size", err)
	}
}

func TestLoadMaxPacketSizeNonPositive(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
  backend:
    max_packet_size: 0
`))
	if err == nil {
		t.Fatal("expected error: max_packet_size must be positive")
	}
}

// ── Node hostname auto-detect ──

func TestAutoDetectHostname(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Node.Hostname == "" {
		t.Error("expected auto-detected hostname, got empty")
	}
	expected, _ := os.Hostname()
	if cfg.Node.Hostname != expected {
		t.Errorf("Node.Hostname = %q, want %q", cfg.Node.Hostname, expected)
	}
}

// ── Node IP resolution ──

func TestNodeIPExplicit(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "192.168.1.100"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Node.IP != "192.168.1.100" {
		t.Errorf("Node.IP = %q, want 192.168.1.100", cfg.Node.IP)
	}
}

func TestNodeIPAutoDetect(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13: {}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Node.IP == "" {
		t.Error("expected auto-detected Node.IP, got empty")
	}
}

// ── Defaults ──

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.MaxPacketSize != 8192 {
		t.Errorf("Backend.MaxPacketSize = %d, want 8192", cfg.Backend.MaxPacketSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.Outputs.File.Enabled {
		t.Error("Log.Outputs.File.Enabled = true, want false by default")
	}
	if cfg.Log.Outputs.File.Rotation.MaxBackups != 5 {
		t.Errorf("Rotation.MaxBackups = %d, want 5", cfg.Log.Outputs.File.Rotation.MaxBackups)
	}
	if cfg.Plugin.HealthCheckInterval.String() != "30s" {
		t.Errorf("Plugin.HealthCheckInterval = %v, want 30s", cfg.Plugin.HealthCheckInterval)
	}
}

// ── Env Override ──

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AJP13_LOG_LEVEL", "debug")

	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
  log:
    level: "info"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug (from env)", cfg.Log.Level)
	}
}

// ── Header-codes asset override ──

func TestHeaderCodesPathOverride(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
ajp13:
  node:
    ip: "10.0.0.1"
  backend:
    header_codes_path: "/etc/ajp13gw/headercodes.yaml"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.HeaderCodesPath != "/etc/ajp13gw/headercodes.yaml" {
		t.Errorf("Backend.HeaderCodesPath = %q, want override path", cfg.Backend.HeaderCodesPath)
	}
}
