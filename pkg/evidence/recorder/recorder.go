// Package recorder wires evidence recording into the service pipeline as
// an ordinary stage: it wraps the inner Service (router, connector, and
// everything inside them), observes the request and response on the way
// through, and hands a completed evidence.EvidenceRecord off to an
// async-buffered writer so storage latency never sits in the request
// path.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/relay/pkg/evidence"
	"mercator-hq/relay/pkg/httpproxy"
	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/service"
	"mercator-hq/relay/pkg/thriftproxy"
)

// Config controls the recorder's behavior.
type Config struct {
	// Enabled turns recording on. When false, NewStage returns a
	// passthrough stage that does not even build a Recorder.
	Enabled bool

	// AsyncBuffer is the size of the channel between the pipeline stage
	// and the storage writer goroutine.
	AsyncBuffer int

	// WriteTimeout bounds how long Store may block before a record is
	// dropped and the drop logged.
	WriteTimeout time.Duration

	// RedactHeaders lists header names (case-insensitive) whose values
	// are replaced with a redaction marker before a record is stored,
	// e.g. "Authorization", "Cookie".
	RedactHeaders []string

	// MaxFieldLength truncates RequestPath and Error to this many bytes
	// before storage.
	MaxFieldLength int
}

// DefaultConfig returns the recorder's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    1000,
		WriteTimeout:   5 * time.Second,
		RedactHeaders:  []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key"},
		MaxFieldLength: 500,
	}
}

// Recorder owns the async write path: an in-memory channel drained by a
// single worker goroutine, so a slow or stalled storage backend never
// blocks a request in flight.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	listener   string
	generation uint64

	recordChan chan *evidence.EvidenceRecord
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder builds a Recorder writing to storage and starts its
// worker goroutine. listenerName and generation are stamped onto every
// record this recorder produces.
func NewRecorder(storage evidence.Storage, config *Config, listenerName string, generation uint64) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	r := &Recorder{
		storage:    storage,
		config:     config,
		listener:   listenerName,
		generation: generation,
		recordChan: make(chan *evidence.EvidenceRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "evidence.recorder", "listener", listenerName),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Close stops accepting new records, drains whatever is already queued,
// and waits for the worker to finish. It does not close the underlying
// storage.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return nil
}

// worker drains recordChan until told to stop via done, then drains
// whatever remains queued before returning — a record accepted onto the
// channel is never silently dropped by shutdown.
func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *evidence.EvidenceRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("storing evidence record failed",
			"record_id", record.ID, "error", evidence.NewRecorderError(record.ID, err))
		return
	}
	if elapsed := time.Since(start); elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("evidence store slow", "record_id", record.ID, "elapsed", elapsed)
	}
}

// enqueue hands record to the worker, dropping and logging it if the
// buffer is full rather than blocking the request path.
func (r *Recorder) enqueue(record *evidence.EvidenceRecord) {
	select {
	case r.recordChan <- record:
	default:
		r.logger.Warn("evidence buffer full, dropping record", "record_id", record.ID)
	}
}

// NewStage returns the StageFactory for the evidence-recording stage:
// it wraps inner, timing and observing one request/response round trip,
// and enqueues the resulting record on rec once the inner call returns.
// When config.Enabled is false it returns a plain passthrough so
// recording can be toggled without restructuring the stack.
func NewStage(rec *Recorder) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			if rec == nil || !rec.config.Enabled {
				return inner, nil
			}
			return &recordingStage{rec: rec, inner: inner}, nil
		})
	}
}

type recordingStage struct {
	rec   *Recorder
	inner service.Service
}

func (s *recordingStage) Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
	requestTime := time.Now()
	record := s.rec.newRecord(pc, req, requestTime)

	outPC, resp, err := s.inner.Call(ctx, pc, req)

	s.rec.fillRouting(record, outPC)
	s.rec.fillOutcome(record, resp, err, requestTime)
	s.rec.enqueue(record)

	return outPC, resp, err
}

// newRecord builds the request half of a record from pc and req, before
// the inner call has run.
func (r *Recorder) newRecord(pc pcontext.Context, req any, requestTime time.Time) *evidence.EvidenceRecord {
	record := &evidence.EvidenceRecord{
		ID:           uuid.New().String(),
		RequestTime:  requestTime,
		ListenerName: r.listener,
		Generation:   r.generation,
	}

	if addr, ok := pc.PeerAddr(); ok {
		record.ClientAddr = addr.String()
	}
	if sni, ok := pc.TLSSNI(); ok {
		record.TLSSNI = sni
	}
	if alpn, ok := pc.TLSALPN(); ok {
		record.TLSALPN = alpn
	}

	switch v := req.(type) {
	case *httpproxy.Request:
		record.Protocol = "http"
		record.RequestID = v.Raw.Header.Get("X-Request-Id")
		record.RequestMethod = v.Raw.Method
		record.RequestPath = truncate(v.Raw.URL.Path, r.config.MaxFieldLength)
		record.RequestHeaders = r.redactHeaders(v.Raw.Header)
		record.RequestBytes = v.Raw.ContentLength
	case *thriftproxy.Request:
		record.Protocol = "thrift"
		record.RequestMethod = v.Message.Type.String()
		record.RequestPath = truncate(v.Message.Name, r.config.MaxFieldLength)
		record.RequestBytes = int64(len(v.Message.Payload))
	}

	return record
}

// fillRouting copies routing facts the inner call inserted into pc. It
// is called after the inner call returns, so RouteTime and UpstreamTime
// approximate "by the time routing and connection acquisition were
// done" rather than the exact instant each happened — the pipeline does
// not timestamp those transitions individually.
func (r *Recorder) fillRouting(record *evidence.EvidenceRecord, pc pcontext.Context) {
	now := time.Now()
	if rm, ok := pc.RouteMatch(); ok {
		record.Route = rm.Pattern
		record.PredicateMatched = rm.Matched != nil
		record.RouteTime = now
	}
	if su, ok := pc.SelectedUpstream(); ok {
		record.Upstream = su.Name
		record.UpstreamTime = now
	}
}

// fillOutcome records the response half, or the error that replaced it.
func (r *Recorder) fillOutcome(record *evidence.EvidenceRecord, resp any, err error, requestTime time.Time) {
	record.RecordedTime = time.Now()

	if err != nil {
		record.Error = truncate(err.Error(), r.config.MaxFieldLength)
		if pe, ok := err.(*perrors.Error); ok {
			record.ErrorKind = string(pe.Kind)
			record.ResponseStatus = pe.Kind.StatusClass()
		}
		return
	}

	switch v := resp.(type) {
	case *httpproxy.Response:
		record.ResponseTime = time.Now()
		record.UpstreamLatency = record.ResponseTime.Sub(requestTime)
		if v.Raw != nil {
			record.ResponseStatus = v.Raw.StatusCode
			if v.Raw.ContentLength > 0 {
				record.ResponseBytes = v.Raw.ContentLength
			}
		}
	case *thriftproxy.Response:
		if v.Message != nil {
			record.ResponseTime = time.Now()
			record.UpstreamLatency = record.ResponseTime.Sub(requestTime)
			record.ResponseBytes = int64(len(v.Message.Payload))
			if v.Message.Type == thriftproxy.MessageTypeException {
				record.ResponseStatus = int(v.Message.Type)
			}
		}
		// A nil Message means a Oneway call: no reply, ResponseTime stays
		// zero per evidence.EvidenceRecord's documented contract.
	}
}

// redactHeaders copies req's header map, replacing the value of any
// header named in config.RedactHeaders with a fixed marker so secrets
// never reach storage.
func (r *Recorder) redactHeaders(h map[string][]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		if isRedactedHeader(name, r.config.RedactHeaders) {
			out[name] = "[redacted]"
			continue
		}
		out[name] = values[0]
	}
	return out
}

func isRedactedHeader(name string, redact []string) bool {
	for _, candidate := range redact {
		if equalFold(candidate, name) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return TruncateString(s, maxLen)
}
