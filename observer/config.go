package observer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultMaxUpdateCount = 100

// Config holds the tunables of a Runtime.
type Config struct {
	// MaxUpdateCount is how many times one watcher may be re-queued inside a
	// single flush before it is treated as an infinite update loop.
	MaxUpdateCount int `yaml:"max_update_count"`
	// Async defers flushes to the next tick. When false every queued watcher
	// is flushed synchronously.
	Async bool `yaml:"async"`
	// Silent suppresses warnings.
	Silent   bool   `yaml:"silent"`
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		MaxUpdateCount: defaultMaxUpdateCount,
		Async:          true,
		LogLevel:       "info",
	}
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse observer config: %w", err)
	}
	if cfg.MaxUpdateCount <= 0 {
		return cfg, fmt.Errorf("parse observer config: max_update_count must be positive, got %d", cfg.MaxUpdateCount)
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("load observer config: %w", err)
	}
	return ParseConfig(data)
}
