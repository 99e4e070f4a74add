package thriftproxy

import (
	"context"
	"net"
	"testing"
	"time"

	"mercator-hq/relay/pkg/connector"
	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/router"
	"mercator-hq/relay/pkg/service"
)

// fakeUpstream echoes back a Reply for every Call it receives (preserving
// sequence id) and answers nothing for Oneway calls, standing in for a
// real Thrift service during these tests.
func fakeUpstream(t *testing.T) (addr string, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				for {
					msg, err := ReadMessage(conn, 1<<20)
					if err != nil {
						return
					}
					if msg.Type == MessageTypeOneway {
						continue
					}
					reply := &Message{Name: msg.Name, Type: MessageTypeReply, SeqID: msg.SeqID, Payload: []byte("ok")}
					if err := WriteMessage(conn, reply); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String(), func() { _ = ln.Close() }
}

func buildTestPipeline(t *testing.T, routes []router.Route) (service.Service, func()) {
	t.Helper()
	table, err := router.NewTable(routes)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	conn := connector.NewConnector(4, time.Minute)

	stack := service.NewStack()
	stack.Use("router", NewRouterStage(table, conn, "test-thrift-server", DefaultConfig()))
	stack.Use("connector", connector.NewStage(conn))

	built, err := stack.Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return built.Entry, func() { conn.Close() }
}

func listenAndServe(t *testing.T, svc service.Service) string {
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
			go ServeConn(context.Background(), raw, pcontext.New(time.Now()), svc, "test-thrift-server", DefaultConfig())
		}
	}()
	return ln.Addr().String()
}

func TestServeConnRoundTripsCall(t *testing.T) {
	upstreamAddr, closeUpstream := fakeUpstream(t)
	defer closeUpstream()

	svc, closeSvc := buildTestPipeline(t, []router.Route{
		{Pattern: "getUser", LoadBalancer: router.LoadBalancerRandom, Upstreams: []router.Upstream{{Name: "up", URI: "http://" + upstreamAddr}}},
	})
	defer closeSvc()

	addr := listenAndServe(t, svc)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := WriteMessage(conn, &Message{Name: "getUser", Type: MessageTypeCall, SeqID: 99, Payload: []byte("req")}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	reply, err := ReadMessage(conn, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if reply.Type != MessageTypeReply || reply.SeqID != 99 || string(reply.Payload) != "ok" {
		t.Fatalf("got %+v", reply)
	}
}

func TestServeConnKeepAliveHandlesMultipleMessages(t *testing.T) {
	upstreamAddr, closeUpstream := fakeUpstream(t)
	defer closeUpstream()

	svc, closeSvc := buildTestPipeline(t, []router.Route{
		{Pattern: "getUser", LoadBalancer: router.LoadBalancerRandom, Upstreams: []router.Upstream{{Name: "up", URI: "http://" + upstreamAddr}}},
	})
	defer closeSvc()

	addr := listenAndServe(t, svc)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := int32(0); i < 3; i++ {
		if err := WriteMessage(conn, &Message{Name: "getUser", Type: MessageTypeCall, SeqID: i}); err != nil {
			t.Fatalf("WriteMessage %d: %v", i, err)
		}
		reply, err := ReadMessage(conn, 1<<20)
		if err != nil {
			t.Fatalf("ReadMessage %d: %v", i, err)
		}
		if reply.SeqID != i {
			t.Fatalf("reply %d: SeqID = %d, want %d", i, reply.SeqID, i)
		}
	}
}

func TestServeConnOnewayGetsNoReplyButConnectionStaysUsable(t *testing.T) {
	upstreamAddr, closeUpstream := fakeUpstream(t)
	defer closeUpstream()

	svc, closeSvc := buildTestPipeline(t, []router.Route{
		{Pattern: "logEvent", LoadBalancer: router.LoadBalancerRandom, Upstreams: []router.Upstream{{Name: "up", URI: "http://" + upstreamAddr}}},
		{Pattern: "getUser", LoadBalancer: router.LoadBalancerRandom, Upstreams: []router.Upstream{{Name: "up", URI: "http://" + upstreamAddr}}},
	})
	defer closeSvc()

	addr := listenAndServe(t, svc)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := WriteMessage(conn, &Message{Name: "logEvent", Type: MessageTypeOneway, SeqID: 1}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	// Follow up with a regular call on the same connection: if the server
	// were (incorrectly) waiting for a Oneway reply first, this would
	// either hang or desynchronize the frame boundary, and the next read
	// would time out or return the wrong sequence id.
	if err := WriteMessage(conn, &Message{Name: "getUser", Type: MessageTypeCall, SeqID: 2}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	reply, err := ReadMessage(conn, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if reply.SeqID != 2 {
		t.Fatalf("reply SeqID = %d, want 2 (the Oneway call before it should not have produced a reply)", reply.SeqID)
	}
}

func TestServeConnNoRouteSendsException(t *testing.T) {
	svc, closeSvc := buildTestPipeline(t, nil)
	defer closeSvc()

	addr := listenAndServe(t, svc)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := WriteMessage(conn, &Message{Name: "unknownMethod", Type: MessageTypeCall, SeqID: 5}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	reply, err := ReadMessage(conn, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if reply.Type != MessageTypeException || reply.SeqID != 5 {
		t.Fatalf("got %+v, want an Exception preserving seq id 5", reply)
	}
}
