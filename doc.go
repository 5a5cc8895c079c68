// Package metrics provides typed, thread-safe gauge instruments for Go
// applications with Prometheus Remote Write support.
//
// Design goals:
//   - Lock-free cells built on atomic operations; no mutex on the hot path
//   - Typed label dimensions fixed at construction (int64, string, bool)
//   - Cells created lazily per label tuple and kept for the process lifetime
//   - Stable collection protocol for exporters
//
// Basic usage:
//
//	var openConns = metrics.NewInt64("/server/open_connections",
//	  metrics.Metadata{Description: "Open connections by protocol"},
//	  metrics.StringField("protocol"))
//
//	openConns.Increment(metrics.String("http"))
//	openConns.DecrementBy(2, metrics.String("grpc"))
//
// To export periodically, start the process-wide reporter:
//
//	config := metrics.DefaultConfig()
//	config.ServiceName = "service"
//	config.RemoteWriteURL = "http://prometheus:9090/api/v1/write"
//
//	if err := metrics.Init(config); err != nil {
//	  log.Fatal(err)
//	}
//	defer metrics.Shutdown()
package metrics
