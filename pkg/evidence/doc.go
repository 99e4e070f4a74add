// Package evidence provides an audit trail for proxied connections. It
// records one immutable EvidenceRecord per completed HTTP request or
// Thrift message, naming the route and upstream that served it and the
// reload generation it ran under.
//
// # Architecture
//
// The evidence system consists of three layers:
//
//  1. Recorder (pkg/evidence/recorder) - a service.StageFactory that
//     wraps the router-and-forward stage, builds EvidenceRecords from
//     pcontext/request/response facts, and enqueues them asynchronously
//  2. Storage Backend - persists evidence records (in-memory, SQLite)
//  3. Query/Export/Retention - retrieves, exports, and prunes records
//
// # Recording Flow
//
// Evidence is recorded asynchronously so it never adds latency to the
// request path:
//
//	evidence stage (wraps router+connector) → enqueue (async)
//	     ↓
//	Build EvidenceRecord
//	     ↓
//	Storage Backend (in-memory or SQLite, WAL mode)
//
// # Basic Usage
//
//	storage, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: "data/evidence.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer storage.Close()
//
//	rec := recorder.NewRecorder(storage, recorder.DefaultConfig(), "public", generation)
//	defer rec.Close()
//
//	stack.Use("evidence", recorder.NewStage(rec))
//	stack.Use("router", httpproxy.NewRouterStage(table, conn, "public", cfg))
//
// # Querying Evidence
//
//	records, err := storage.Query(ctx, &evidence.Query{Route: "/api", Limit: 100})
//
//	exporter := export.NewJSONExporter(true)
//	exporter.Export(ctx, records, os.Stdout)
//
// # Retention Policies
//
//	pruner := retention.NewPruner(storage, &retention.Config{RetentionDays: 90})
//	pruner.Start(ctx)
//	defer pruner.Stop()
//
// # Thread Safety
//
// Recorder and Storage are safe for concurrent use; Query is stateless.
package evidence
