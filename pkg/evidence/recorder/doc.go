// Package recorder provides the evidence-recording pipeline stage: a
// service.StageFactory that wraps the router-and-forward stage of
// pkg/httpproxy or pkg/thriftproxy, observes one request/response round
// trip, and writes an evidence.EvidenceRecord to storage.
//
// # Recording Flow
//
// Evidence is recorded asynchronously so a slow storage backend never
// sits in the request path:
//
//  1. The stage builds a partial record from the request and the
//     pcontext.Context facts present on entry (peer address, TLS SNI/ALPN).
//  2. It calls the inner Service (router, connector, everything below).
//  3. It fills in the routing decision and response/error from the
//     returned pcontext.Context, response, and error.
//  4. The completed record is enqueued to the Recorder's channel
//     (non-blocking; the stage never waits on storage).
//  5. A background goroutine drains the channel and writes to storage.
//
// # Basic Usage
//
//	rec := recorder.NewRecorder(storage, recorder.DefaultConfig(), "public", generation)
//	defer rec.Close()
//
//	stack.Use("evidence", recorder.NewStage(rec))
//	stack.Use("router", httpproxy.NewRouterStage(table, conn, "public", cfg))
//	stack.Use("connector", connector.NewStage(pool))
//
// # Async Recording
//
// The stage never blocks a request on storage:
//
//   - Recording is enqueued to a buffered channel; a full buffer drops
//     the record and logs a warning rather than stalling the request.
//   - A single background goroutine drains the channel and calls
//     Storage.Store, bounded by Config.WriteTimeout.
//   - Close drains whatever is already queued before returning, so a
//     graceful shutdown loses no already-enqueued record.
//
// # Header Redaction
//
// RequestHeaders are copied into the record with sensitive values
// replaced: any header named in Config.RedactHeaders (matched
// case-insensitively, e.g. "Authorization", "Cookie") is stored as
// "[redacted]" rather than its real value.
//
// # Field Truncation
//
// RequestPath and Error are truncated to Config.MaxFieldLength bytes
// before storage, to keep a pathological request from growing a record
// unboundedly.
//
// # Thread Safety
//
// A Recorder is safe for concurrent use by multiple pipeline workers:
// enqueue only touches a buffered channel, and the background goroutine
// is the sole writer to storage.
package recorder
