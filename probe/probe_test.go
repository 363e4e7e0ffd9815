package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// listen opens a real listener on an ephemeral port and returns its target.
func listen(t *testing.T) (Target, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return Target{Name: "svc", Host: "127.0.0.1", Port: port}, func() { ln.Close() }
}

func TestCheckPortOpenAndClosed(t *testing.T) {
	target, closeListener := listen(t)
	prober := New(2 * time.Second)

	if res := prober.CheckPort(context.Background(), target); res.Err != nil {
		t.Fatalf("open port reported unreachable: %v", res.Err)
	}

	closeListener()

	if res := prober.CheckPort(context.Background(), target); res.Err == nil {
		t.Fatal("closed port reported reachable")
	}
}

func TestCheckPortsKeepsOrder(t *testing.T) {
	open, closeListener := listen(t)
	defer closeListener()
	closed, closeOther := listen(t)
	closeOther()

	results := New(2 * time.Second).CheckPorts(context.Background(), []Target{open, closed})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("open target failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("closed target passed")
	}
	if Healthy(results) {
		t.Fatal("mixed results reported healthy")
	}
	if !Healthy(results[:1]) {
		t.Fatal("all-pass results reported unhealthy")
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	prober := New(2 * time.Second)

	ok := prober.CheckHealth(context.Background(), srv.URL+"/api/health")
	if !ok.OK() {
		t.Fatalf("healthy endpoint reported down: %+v", ok)
	}

	degraded := prober.CheckHealth(context.Background(), srv.URL+"/other")
	if degraded.Err != nil {
		t.Fatalf("reachable endpoint reported transport error: %v", degraded.Err)
	}
	if degraded.OK() {
		t.Fatal("503 endpoint reported healthy")
	}

	srv.Close()
	dead := prober.CheckHealth(context.Background(), srv.URL+"/api/health")
	if dead.Err == nil {
		t.Fatal("stopped server reported reachable")
	}
	if dead.OK() {
		t.Fatal("transport error reported healthy")
	}
}

func TestCheckPortHonorsContext(t *testing.T) {
	target, closeListener := listen(t)
	defer closeListener()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(2 * time.Second).CheckPort(ctx, target)
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("cancelled dial returned %v, want context.Canceled", res.Err)
	}
}
