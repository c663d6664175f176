// Package config provides configuration types and loading for agentpulse.
package config

// Config is the root configuration struct.
// Top-level groups: Server, Storage, Mirror.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Mirror  MirrorConfig  `json:"mirror"`
}

// ServerConfig contains collector HTTP server settings.
type ServerConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
}

// StorageConfig groups the filesystem locations of the two stores: the
// SQLite projection database and the append-only JSONL event stream.
type StorageConfig struct {
	DBPath     string `json:"dbPath" envconfig:"DB_PATH"`
	StreamPath string `json:"streamPath" envconfig:"STREAM_PATH"`
}

// MirrorConfig configures the optional Kafka event mirror.
type MirrorConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
}

// DefaultConfig returns the built-in defaults: localhost collector with
// state under ~/.agentpulse and the mirror off.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8765,
		},
		Storage: StorageConfig{
			DBPath:     "~/.agentpulse/observability.db",
			StreamPath: "~/.agentpulse/events/global-stream.jsonl",
		},
		Mirror: MirrorConfig{
			Enabled: false,
			Brokers: "localhost:9092",
			Topic:   "agentpulse.events",
		},
	}
}
