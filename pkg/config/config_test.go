package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Exchange.TCPListen != ":7924" {
		t.Fatalf("tcp listen default = %q", cfg.Exchange.TCPListen)
	}
	if !cfg.Handover.Enable {
		t.Fatalf("handover disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easynfc.yaml")
	yaml := `
app_name: test-peer
log:
  level: debug
  format: json
exchange:
  tcp_listen: ":9000"
  quic_listen: ":9001"
handover:
  enable: false
  transports: [tcp, radio]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "test-peer" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Exchange.TCPListen != ":9000" || cfg.Exchange.QUICListen != ":9001" {
		t.Fatalf("exchange = %+v", cfg.Exchange)
	}
	if cfg.Handover.Enable {
		t.Fatalf("handover.enable not overridden")
	}
	if len(cfg.Handover.Transports) != 2 || cfg.Handover.Transports[0] != "tcp" || cfg.Handover.Transports[1] != "radio" {
		t.Fatalf("transports = %v", cfg.Handover.Transports)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EASYNFC_LOG_LEVEL", "warn")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log.level = %q, want env override", cfg.Log.Level)
	}
}

func TestValidateRejects(t *testing.T) {
	dir := t.TempDir()

	badLevel := filepath.Join(dir, "level.yaml")
	if err := os.WriteFile(badLevel, []byte("log:\n  level: verbose\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(badLevel); err == nil {
		t.Fatalf("accepted invalid log level")
	}

	badTransport := filepath.Join(dir, "transport.yaml")
	if err := os.WriteFile(badTransport, []byte("handover:\n  transports: [carrier-pigeon]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(badTransport); err == nil {
		t.Fatalf("accepted unknown transport")
	}
}
