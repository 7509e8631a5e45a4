// ABOUTME: Tests for the relay command's server lifecycle
// ABOUTME: Serves on an ephemeral port and checks graceful shutdown

package cmd

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/lmsgo/course-author/config"
)

func relayConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("LMS_API_URL", "")
	t.Setenv("UPLOAD_PROXY_ALLOWED_HOSTS", "127.0.0.1")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	resetFlags(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	cfg.ShutdownGraceTime = 2 * time.Second
	return cfg
}

func TestServeRelay_ServesUntilCancelled(t *testing.T) {
	cfg := relayConfig(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveRelay(ctx, cfg, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveRelay() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not shut down")
	}
}

func TestNewRelayServer(t *testing.T) {
	cfg := relayConfig(t)

	srv := newRelayServer(cfg)
	if srv.Handler == nil {
		t.Fatal("expected a handler")
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("expected a read header timeout")
	}
}

func TestRunRelay_InvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("RELAY_MAX_UPLOAD_MB", "0")
	resetFlags(t)

	exitCode := runRelay(context.Background(), io.Discard)
	if exitCode != exitInvalid {
		t.Errorf("expected exit code %d, got %d", exitInvalid, exitCode)
	}
}
