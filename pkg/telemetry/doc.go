// Package telemetry provides the observability plumbing of rocketscience.
//
// It combines structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus) and diagnostic events behind a single
// Telemetry value that is built once at startup and handed to the components
// that need it.
//
// # Usage
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Logging
//
// Component loggers carry the fields used across the sync layer:
//
//	logger := tel.Logger.NewComponentLogger("repository")
//	logger.WithRequestID(id).WithResource("launches").Info("fetch started")
//
// # Tracing
//
// Each coordinator request opens a repository.<resource> span; the remote
// client adds a remote.fetch client span and write-throughs add store.save.
// Exporters: otlp (gRPC), stdout, none.
//
// # Metrics
//
// Metrics live in a private registry exposed through Metrics.Handler:
//
//	fetch_total{resource,result}
//	fetch_duration_seconds{resource}
//	fallback_total{resource,result}
//	store_writes_total{resource,result}
//	emissions_total{resource,kind}
//	inflight_requests
//
// A disabled or nil *Metrics accepts every call.
//
// # Events
//
// The event publisher delivers sync.started, sync.succeeded, fetch.failed,
// cache.recovered, cache.miss and store.write_failed events to subscribers,
// either inline or from a batching goroutine when EnableAsync is set:
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.Type, e.Message)
//	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))
//
// # Shutdown
//
// Shutdown delivers buffered events and flushes pending spans:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	_ = tel.Shutdown(ctx)
package telemetry
