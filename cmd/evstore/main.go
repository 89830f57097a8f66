package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/evstore/internal/config"
	"github.com/rzbill/evstore/internal/runtime"
	pebblestore "github.com/rzbill/evstore/internal/storage/pebble"
	"github.com/rzbill/evstore/internal/tracking"
	"github.com/rzbill/evstore/pkg/log"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	fsyncMode string
	namespace string
	topic     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evstore",
		Short:         "evstore is an embedded event store with a tailing read cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", envOr("EVSTORE_DATA_DIR", cfgpkg.DefaultDataDir()), "path to the Pebble data directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("EVSTORE_LOG_LEVEL", "info"), "log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", envOr("EVSTORE_LOG_FORMAT", "text"), "log format (text|json)")
	root.PersistentFlags().StringVar(&fsyncMode, "fsync", envOr("EVSTORE_FSYNC", "always"), "WAL fsync policy (always|interval|never)")
	root.PersistentFlags().StringVar(&namespace, "namespace", envOr("EVSTORE_DEFAULT_NAMESPACE_NAME", "default"), "namespace to operate on")
	root.PersistentFlags().StringVar(&topic, "topic", "events", "topic to operate on")

	root.AddCommand(newInitCmd())
	root.AddCommand(newAppendCmd())
	root.AddCommand(newTailCmd())
	root.AddCommand(newStatsCmd())
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() (log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	var formatter log.Formatter
	switch strings.ToLower(logFormat) {
	case "json":
		formatter = log.JSONFormatter{}
	default:
		formatter = log.TextFormatter{}
	}
	return log.NewLogger(
		log.WithLevel(level),
		log.WithFormatter(formatter),
		log.WithOutput(log.NewConsoleOutput()),
	), nil
}

func parseFsyncMode(s string) (pebblestore.FsyncMode, error) {
	switch strings.ToLower(s) {
	case "always":
		return pebblestore.FsyncModeAlways, nil
	case "interval":
		return pebblestore.FsyncModeInterval, nil
	case "never":
		return pebblestore.FsyncModeNever, nil
	default:
		return pebblestore.FsyncModeUnspecified, fmt.Errorf("evstore: unknown fsync mode %q", s)
	}
}

func openRuntime() (*runtime.Runtime, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	fsync, err := parseFsyncMode(fsyncMode)
	if err != nil {
		return nil, err
	}
	cfg, err := cfgpkg.Load("")
	if err != nil {
		return nil, err
	}
	cfgpkg.FromEnv(&cfg)
	return runtime.Open(runtime.Options{
		DataDir: dataDir,
		Fsync:   fsync,
		Config:  cfg,
		Logger:  logger,
	})
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create the data directory and the namespace if they don't exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			meta, err := rt.EnsureNamespace(namespace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "namespace %q ready (partitions=%d data-dir=%s)\n", meta.Name, meta.Partitions, dataDir)
			return nil
		},
	}
}

func newAppendCmd() *cobra.Command {
	var headerPairs []string
	cmd := &cobra.Command{
		Use:   "append [payload]",
		Short: "append one event to the tracking store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			headers, err := parseHeaders(headerPairs)
			if err != nil {
				return err
			}

			store, err := rt.OpenTrackingStore(namespace, topic)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			toks, err := store.Publish(ctx, tracking.TrackedEvent{
				Payload: []byte(args[0]),
				Headers: headers,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appended token=%s\n", hex.EncodeToString(toks[0][:]))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&headerPairs, "header", nil, "header in key=value form, may be repeated")
	return cmd
}

func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("evstore: invalid header %q, expected key=value", p)
		}
		headers[k] = v
	}
	return headers, nil
}

func newTailCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "print events from the tracking store as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			store, err := rt.OpenTrackingStore(namespace, topic)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			stream := store.OpenStream(tracking.Token{}, false)
			defer stream.Close()

			for {
				if !follow {
					if _, ok := stream.Peek(ctx); !ok {
						return nil
					}
				}
				ev, err := stream.NextAvailable(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", hex.EncodeToString(ev.Token[:]), headersString(ev.Headers), ev.Payload)
			}
		},
	}
	cmd.Flags().BoolVar(&follow, "follow", true, "keep tailing after catching up (use --follow=false for a single pass)")
	return cmd
}

func headersString(h map[string]string) string {
	if len(h) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(h))
	for k, v := range h {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print the current event count and namespace metadata for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := rt.CheckHealth(ctx); err != nil {
				return err
			}

			meta, err := rt.EnsureNamespace(namespace)
			if err != nil {
				return err
			}
			l, err := rt.OpenLog(namespace, topic, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "namespace=%s topic=%s partitions=%d events=%d\n", meta.Name, topic, meta.Partitions, l.LastSeq())
			return nil
		},
	}
}
