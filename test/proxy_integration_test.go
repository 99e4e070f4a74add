//go:build integration

package test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/connector"
	"mercator-hq/relay/pkg/evidence/recorder"
	"mercator-hq/relay/pkg/evidence/storage"
	"mercator-hq/relay/pkg/httpproxy"
	"mercator-hq/relay/pkg/limits/routestage"
	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/router"
	"mercator-hq/relay/pkg/service"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/thriftproxy"
)

// TestProxyIntegration builds the same stage chain cmd/relay assembles
// for one HTTP server (tracing -> metrics -> recorder -> router ->
// limits -> connector), serves it over a real TCP listener, and drives
// it with real HTTP requests against an httptest upstream. It exercises
// routing, rate limiting, evidence recording, and metrics together
// rather than any one package in isolation.
func TestProxyIntegration(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(20 * time.Millisecond)
		}
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello from " + r.URL.Path))
	}))
	defer upstream.Close()

	table, err := router.NewTable([]router.Route{
		{
			Pattern:      "/api/{*rest}",
			LoadBalancer: router.LoadBalancerRoundRobin,
			Upstreams:    []router.Upstream{{Name: "api-1", URI: upstream.URL}},
		},
		{
			Pattern:      "/slow",
			LoadBalancer: router.LoadBalancerRandom,
			Upstreams:    []router.Upstream{{Name: "slow-1", URI: upstream.URL}},
		},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	conn := connector.NewConnector(4, time.Minute)
	defer conn.Close()

	store := storage.NewMemoryStorage()
	defer store.Close()

	recCfg := recorder.DefaultConfig()
	rec := recorder.NewRecorder(store, recCfg, "integration-server", 1)
	// Closed explicitly inside the "evidence recorded" subtest below,
	// which needs the worker drained before it can assert on store.Size().

	tracer, err := tracing.New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("tracing.New failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "relay"}, prometheus.NewRegistry())

	stack := service.NewStack()
	stack.Use("metrics", newTestMetricsStage(collector, "integration-server"))
	stack.Use("recorder", recorder.NewStage(rec))
	stack.Use("router", httpproxy.NewRouterStage(table, conn, "integration-server", httpproxy.DefaultConfig()))
	stack.Use("limits", routestage.NewStage(routestage.Config{
		Routes: map[string]routestage.RouteLimit{
			"/slow": {MaxConcurrent: 1},
		},
	}))
	stack.Use("connector", connector.NewStage(conn))

	built, err := stack.Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	addr := serveHTTP(t, built.Entry, httpproxy.DefaultConfig())

	t.Run("routes to upstream", func(t *testing.T) {
		resp, err := http.Get("http://" + addr + "/api/widgets")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "hello from /api/widgets" {
			t.Errorf("body = %q", body)
		}
		if resp.Header.Get("X-Upstream") != "yes" {
			t.Errorf("missing upstream response header, relay did not proxy the response unmodified")
		}
	})

	t.Run("unmatched path is rejected", func(t *testing.T) {
		resp, err := http.Get("http://" + addr + "/nowhere")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("evidence recorded for every request", func(t *testing.T) {
		rec.Close() // drain and wait for the worker before asserting
		if got := store.Size(); got < 2 {
			t.Errorf("evidence store has %d records, want at least 2", got)
		}
	})

	t.Run("request metrics observed", func(t *testing.T) {
		families, err := collector.Registry().Gather()
		if err != nil {
			t.Fatalf("Gather failed: %v", err)
		}
		found := false
		for _, mf := range families {
			if mf.GetName() == "relay_proxy_requests_total" {
				found = true
			}
		}
		if !found {
			t.Error("relay_proxy_requests_total metric not registered")
		}
	})
}

// TestThriftProxyIntegration runs the Thrift-protocol equivalent of
// TestProxyIntegration's routing path: a router stage wrapping a
// connector stage, round-tripping real framed binary-protocol messages
// against a fake Thrift upstream over a real TCP listener.
func TestThriftProxyIntegration(t *testing.T) {
	upstreamAddr, closeUpstream := newEchoThriftUpstream(t)
	defer closeUpstream()

	table, err := router.NewTable([]router.Route{
		{
			Pattern:      "getWidget",
			LoadBalancer: router.LoadBalancerRandom,
			Upstreams:    []router.Upstream{{Name: "thrift-1", URI: "http://" + upstreamAddr}},
		},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	conn := connector.NewConnector(4, time.Minute)
	defer conn.Close()

	stack := service.NewStack()
	stack.Use("router", thriftproxy.NewRouterStage(table, conn, "integration-thrift", thriftproxy.DefaultConfig()))
	stack.Use("connector", connector.NewStage(conn))

	built, err := stack.Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go thriftproxy.ServeConn(context.Background(), raw, pcontext.New(time.Now()), built.Entry, "integration-thrift", thriftproxy.DefaultConfig())
		}
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer clientConn.Close()

	if err := thriftproxy.WriteMessage(clientConn, &thriftproxy.Message{Name: "getWidget", Type: thriftproxy.MessageTypeCall, SeqID: 7, Payload: []byte("req")}); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	reply, err := thriftproxy.ReadMessage(clientConn, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if reply.Type != thriftproxy.MessageTypeReply || reply.SeqID != 7 || string(reply.Payload) != "ok" {
		t.Fatalf("got %+v, want a Reply preserving seq id 7", reply)
	}

	// A second call on the same connection confirms the pooled upstream
	// connection and keep-alive framing both survive a round trip.
	if err := thriftproxy.WriteMessage(clientConn, &thriftproxy.Message{Name: "getWidget", Type: thriftproxy.MessageTypeCall, SeqID: 8}); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	reply2, err := thriftproxy.ReadMessage(clientConn, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if reply2.SeqID != 8 {
		t.Fatalf("second reply SeqID = %d, want 8", reply2.SeqID)
	}
}

func newTestMetricsStage(collector *metrics.Collector, serverName string) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			return service.ServiceFunc(func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
				start := time.Now()
				outPC, resp, err := inner.Call(ctx, pc, req)
				route := "unmatched"
				if rm, ok := outPC.RouteMatch(); ok {
					route = rm.Pattern
				}
				status := "success"
				if err != nil {
					status = "error"
				}
				collector.RecordRequest(serverName, route, "", status, time.Since(start))
				return outPC, resp, err
			}), nil
		})
	}
}

func serveHTTP(t *testing.T, svc service.Service, cfg httpproxy.Config) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go httpproxy.ServeConn(context.Background(), raw, pcontext.New(time.Now()), svc, "integration-server", cfg)
		}
	}()
	return ln.Addr().String()
}

// newEchoThriftUpstream starts a bare TCP listener that answers every
// Call message with a Reply preserving its sequence id, standing in for
// a real Thrift service so the router/connector stages have a live
// upstream to dial.
func newEchoThriftUpstream(t *testing.T) (addr string, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				for {
					msg, err := thriftproxy.ReadMessage(c, 1<<20)
					if err != nil {
						return
					}
					if msg.Type == thriftproxy.MessageTypeOneway {
						continue
					}
					reply := &thriftproxy.Message{Name: msg.Name, Type: thriftproxy.MessageTypeReply, SeqID: msg.SeqID, Payload: []byte("ok")}
					if err := thriftproxy.WriteMessage(c, reply); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String(), func() { _ = ln.Close() }
}
