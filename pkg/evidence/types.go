package evidence

import (
	"context"
	"io"
	"time"
)

// EvidenceRecord is the audit trail for one completed proxied request:
// which route and upstream served it, under which reload generation, and
// how it finished. One record is written per HTTP request or per Thrift
// message (Oneway messages included, since they still consume a route and
// an upstream slot even though they get no reply).
type EvidenceRecord struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // Correlates with access logs

	// Timestamps
	RequestTime  time.Time `json:"request_time"`  // When the request/message was read off the wire
	RouteTime    time.Time `json:"route_time"`    // When a route was matched
	UpstreamTime time.Time `json:"upstream_time"` // When the upstream connection was acquired
	ResponseTime time.Time `json:"response_time"` // When the reply was written (zero for Oneway)
	RecordedTime time.Time `json:"recorded_time"` // When this record was written to storage

	// Request metadata
	Protocol       string            `json:"protocol"` // "http" or "thrift"
	ListenerName   string            `json:"listener_name"`
	ClientAddr     string            `json:"client_addr"`
	RequestMethod  string            `json:"request_method"` // HTTP method, or the Thrift MessageType name
	RequestPath    string            `json:"request_path"`   // HTTP path, or the Thrift method name
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	RequestBytes   int64             `json:"request_bytes"`

	// Routing decision
	Route            string `json:"route"`             // Matched route pattern
	PredicateMatched bool   `json:"predicate_matched"`  // Whether a `when` predicate admitted this route
	Upstream         string `json:"upstream"`           // Selected upstream name
	Generation       uint64 `json:"generation"`         // Reload generation that served this request

	// TLS, if the listener terminated TLS
	TLSSNI  string `json:"tls_sni,omitempty"`
	TLSALPN string `json:"tls_alpn,omitempty"`

	// Response metadata
	ResponseStatus  int           `json:"response_status"`  // HTTP status, or the Thrift exception type (0 = Reply)
	ResponseBytes   int64         `json:"response_bytes"`
	UpstreamLatency time.Duration `json:"upstream_latency"` // Upstream round-trip time

	// Error info, set only when the request failed before or instead of a
	// normal reply.
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"` // pkg/perrors.Kind's string form
}

// Query defines filter parameters for querying evidence records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Protocol string `json:"protocol,omitempty"`
	Route    string `json:"route,omitempty"`
	Upstream string `json:"upstream,omitempty"`

	// Thresholds
	MinStatus *int `json:"min_status,omitempty"`
	MaxStatus *int `json:"max_status,omitempty"`

	// Status is a coarse filter: "success" (no Error set) or "error".
	Status string `json:"status,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "request_time", "upstream_latency", "response_status"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for evidence storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *EvidenceRecord) error

	// Query retrieves evidence records matching the query filters.
	Query(ctx context.Context, query *Query) ([]*EvidenceRecord, error)

	// QueryStream returns a channel of evidence records for memory-efficient
	// streaming, for result sets too large to hold in memory at once. Both
	// channels close when the query completes or errors.
	QueryStream(ctx context.Context, query *Query) (<-chan *EvidenceRecord, <-chan error, error)

	// Count returns the number of evidence records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes evidence records matching the query filters, returning
	// the number deleted. Used for retention policy enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter defines the interface for exporting evidence records to various
// formats.
type Exporter interface {
	Export(ctx context.Context, records []*EvidenceRecord, w io.Writer) error
}
