package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AGENTPULSE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8765 {
		t.Errorf("server = %s:%d, want localhost:8765", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Mirror.Enabled {
		t.Error("mirror enabled by default")
	}
	if cfg.Storage.DBPath != filepath.Join(home, ".agentpulse", "observability.db") {
		t.Errorf("DBPath = %q, want expanded default", cfg.Storage.DBPath)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.json")
	content := `{"server":{"host":"0.0.0.0","port":9000},"storage":{"dbPath":"/var/lib/agentpulse/o.db"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENTPULSE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("server = %s:%d, want 0.0.0.0:9000", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Storage.DBPath != "/var/lib/agentpulse/o.db" {
		t.Errorf("DBPath = %q", cfg.Storage.DBPath)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Storage.StreamPath != filepath.Join(dir, ".agentpulse", "events", "global-stream.jsonl") {
		t.Errorf("StreamPath = %q, want default", cfg.Storage.StreamPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"server":{"port":9000}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENTPULSE_CONFIG", path)
	t.Setenv("AGENTPULSE_SERVER_PORT", "7000")
	t.Setenv("AGENTPULSE_MIRROR_ENABLED", "true")
	t.Setenv("AGENTPULSE_MIRROR_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want env override 7000", cfg.Server.Port)
	}
	if !cfg.Mirror.Enabled || cfg.Mirror.Brokers != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("mirror = %+v, want env values", cfg.Mirror)
	}
}

func TestInvalidPortFallsBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AGENTPULSE_CONFIG", "")
	t.Setenv("AGENTPULSE_SERVER_PORT", "99999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8765 {
		t.Errorf("Port = %d, want default fallback", cfg.Server.Port)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AGENTPULSE_CONFIG", "")

	cfg := DefaultConfig()
	cfg.Server.Port = 8888
	cfg.Mirror.Enabled = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 8888 || !loaded.Mirror.Enabled {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestAddr(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Addr(); got != "localhost:8765" {
		t.Errorf("Addr = %q", got)
	}
}
