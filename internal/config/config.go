package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	AllowAutoCreateNamespaces bool              `json:"allowAutoCreateNamespaces" yaml:"allowAutoCreateNamespaces"`
	DefaultNamespaceName      string            `json:"defaultNamespaceName" yaml:"defaultNamespaceName"`
	NamespaceNameRegex        string            `json:"namespaceNameRegex" yaml:"namespaceNameRegex"`
	NamespaceDefaults         NamespaceDefaults `json:"namespaceDefaults" yaml:"namespaceDefaults"`
	MaxNamespaces             int               `json:"maxNamespaces" yaml:"maxNamespaces"`
	AllowedNamespaces         []string          `json:"allowedNamespaces" yaml:"allowedNamespaces"`
	Tracking                  TrackingDefaults  `json:"tracking" yaml:"tracking"`
}

// NamespaceDefaults captures per-namespace baseline limits.
type NamespaceDefaults struct {
	Partitions      int `json:"partitions" yaml:"partitions"`
	PayloadMaxBytes int `json:"payloadMaxBytes" yaml:"payloadMaxBytes"`
	HeadersMaxBytes int `json:"headersMaxBytes" yaml:"headersMaxBytes"`
}

// TrackingDefaults captures the tailing-cache tunables every namespace's
// tracking stores are opened with, unless overridden per call site.
type TrackingDefaults struct {
	CachedEvents             int           `json:"cachedEvents" yaml:"cachedEvents"`
	FetchDelay               time.Duration `json:"fetchDelay" yaml:"fetchDelay"`
	CleanupDelay             time.Duration `json:"cleanupDelay" yaml:"cleanupDelay"`
	OptimizeEventConsumption bool          `json:"optimizeEventConsumption" yaml:"optimizeEventConsumption"`
	Filter                   string        `json:"filter" yaml:"filter"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoCreateNamespaces: true,
		DefaultNamespaceName:      "default",
		NamespaceNameRegex:        "[a-z0-9-_]{1,64}",
		NamespaceDefaults: NamespaceDefaults{
			Partitions:      16,
			PayloadMaxBytes: 1 << 20,
			HeadersMaxBytes: 16 << 10,
		},
		Tracking: TrackingDefaults{
			CachedEvents:             10000,
			FetchDelay:               1000 * time.Millisecond,
			CleanupDelay:             10000 * time.Millisecond,
			OptimizeEventConsumption: true,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	ext := filepath.Ext(path)
	switch ext {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
