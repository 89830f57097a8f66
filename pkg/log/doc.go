// Package log provides the module's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. The leveled methods format each
// entry with the configured Formatter and write it to every Output directly.
// Each logger also builds a slog.Logger over a bridge handler that feeds the
// same formatter/output pipeline; the Logger methods do not go through it.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"), log.Str("ns", "default"))
//	l.Info("server started", log.Int("port", 8080))
package log
