package config

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
)

type Config struct {
	Extensions []string `json:"extensions"`
	QueueSize  int      `json:"queue_size"`
	LogChanges bool     `json:"log_changes"`
}

var defaultConfig = Config{
	Extensions: []string{".mm0", ".mm1"},
	QueueSize:  64,
	LogChanges: false,
}

func Default() Config {
	cfg := defaultConfig
	cfg.Extensions = slices.Clone(defaultConfig.Extensions)
	return cfg
}

// Load overlays v, typically the client's initializationOptions, onto the
// defaults. Only fields present in v overwrite.
func Load(v any) (Config, error) {
	cfg := Default()
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	return nil
}

// Tracks reports whether documents at path are handled by the server.
func (c Config) Tracks(path string) bool {
	return slices.Contains(c.Extensions, filepath.Ext(path))
}
