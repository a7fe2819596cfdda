package frps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/serverinfo", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"0.61.0","bindPort":7000,"curConns":3,"clientCounts":2,"proxyTypeCount":{"tcp":2}}`))
	})
	mux.HandleFunc("GET /api/proxy/tcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proxies":[{"name":"ssh","status":"online","curConns":1}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientHealthz(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "", "")

	if err := c.Healthz(context.Background()); err != nil {
		t.Errorf("Healthz failed: %v", err)
	}
}

func TestClientServerInfo(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "admin", "secret")

	info, err := c.ServerInfo(context.Background())
	if err != nil {
		t.Fatalf("ServerInfo failed: %v", err)
	}
	if info.Version != "0.61.0" {
		t.Errorf("Version = %q, want 0.61.0", info.Version)
	}
	if info.ProxyTypeCount["tcp"] != 2 {
		t.Errorf("ProxyTypeCount[tcp] = %d, want 2", info.ProxyTypeCount["tcp"])
	}
}

func TestClientServerInfoBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "admin", "wrong")

	if _, err := c.ServerInfo(context.Background()); err == nil {
		t.Error("expected error for bad credentials, got nil")
	}
}

func TestClientListProxies(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "", "")

	proxies, err := c.ListProxies(context.Background(), "tcp")
	if err != nil {
		t.Fatalf("ListProxies failed: %v", err)
	}
	if len(proxies) != 1 || proxies[0].Name != "ssh" || proxies[0].Status != "online" {
		t.Errorf("unexpected proxies: %+v", proxies)
	}
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", "")
	if err := c.Healthz(context.Background()); err == nil {
		t.Error("expected error for unreachable server, got nil")
	}
}
