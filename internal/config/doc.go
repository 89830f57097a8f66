// Package config provides loading and environment overlay for the evstore
// runtime configuration. It exposes a Default() baseline, Load for JSON or
// YAML files, and FromEnv for EVSTORE_* overrides; the resulting Config is
// passed to the runtime through runtime.Options.
//
// Example:
//
//	cfg := config.Default()
//	// Optionally load from file and overlay env vars
//	if fileCfg, err := config.Load("/etc/evstore.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	// Pass cfg into runtime.Options
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/evstore", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
