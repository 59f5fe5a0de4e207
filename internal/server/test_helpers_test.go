package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"crystal-ball/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitPerSecond = 0
	return cfg
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}
