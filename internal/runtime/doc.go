// Package runtime wires storage, config, and facades into a single-node
// evstore instance. It exposes Open/Close, basic health checks, and helpers
// to open internal components: durable logs and namespace-scoped tracking
// stores.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Open a log and append
//	log, _ := rt.OpenLog("default", "orders", 0)
//	_, _ = log.Append(context.Background(), []eventlog.AppendRecord{{Payload: []byte("hello")}})
//	// Open a namespace-scoped tracking store
//	store, _ := rt.OpenTrackingStore("default", "orders")
package runtime
