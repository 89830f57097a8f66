package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays EVSTORE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("EVSTORE_ALLOW_AUTO_CREATE_NAMESPACES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowAutoCreateNamespaces = b
		}
	}
	if v := os.Getenv("EVSTORE_DEFAULT_NAMESPACE_NAME"); v != "" {
		cfg.DefaultNamespaceName = v
	}
	if v := os.Getenv("EVSTORE_NAMESPACE_NAME_REGEX"); v != "" {
		cfg.NamespaceNameRegex = v
	}
	if v := os.Getenv("EVSTORE_NAMESPACE_DEFAULTS_PARTITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NamespaceDefaults.Partitions = n
		}
	}
	if v := os.Getenv("EVSTORE_NAMESPACE_DEFAULTS_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NamespaceDefaults.PayloadMaxBytes = n
		}
	}
	if v := os.Getenv("EVSTORE_NAMESPACE_DEFAULTS_HEADERS_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NamespaceDefaults.HeadersMaxBytes = n
		}
	}
	if v := os.Getenv("EVSTORE_MAX_NAMESPACES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxNamespaces = n
		}
	}
	if v := os.Getenv("EVSTORE_ALLOWED_NAMESPACES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedNamespaces = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedNamespaces = append(cfg.AllowedNamespaces, p)
			}
		}
	}
	if v := os.Getenv("EVSTORE_CACHED_EVENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.CachedEvents = n
		}
	}
	if v := os.Getenv("EVSTORE_FETCH_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.FetchDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("EVSTORE_CLEANUP_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.CleanupDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("EVSTORE_OPTIMIZE_EVENT_CONSUMPTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracking.OptimizeEventConsumption = b
		}
	}
	if v := os.Getenv("EVSTORE_FILTER"); v != "" {
		cfg.Tracking.Filter = v
	}
}
