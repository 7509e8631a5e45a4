// ABOUTME: Relay command serving the same-origin upload proxy
// ABOUTME: Shuts down gracefully on SIGINT/SIGTERM

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/config"
	"github.com/lmsgo/course-author/handlers"
	"github.com/lmsgo/course-author/logger"
	"github.com/lmsgo/course-author/middleware"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the upload relay",
	Long: `Serve POST /internal/upload-proxy, which forwards multipart uploads to
presigned storage URLs whose host is in UPLOAD_PROXY_ALLOWED_HOSTS.

Environment Variables:
  PORT                        Listen port (default: 8080)
  UPLOAD_PROXY_ALLOWED_HOSTS  Comma-separated storage hosts (default: localhost,127.0.0.1,minio)
  RELAY_MAX_UPLOAD_MB         Request body cap (default: 512)
  RELAY_ALL_PROXY             ssh+socks5://user@jumphost:22?private-key=/path for upstream traffic
  RATE_LIMIT_ENABLED          Per-client rate limiting (default: true)
  RATE_LIMIT_RELAY            Uploads per minute per client (default: 60)`,
	Run: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Stdout)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRelay(ctx, os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

// runRelay serves until ctx is done and returns the exit code
func runRelay(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return reportError(w, err)
	}

	if err := serveRelay(ctx, cfg, ln); err != nil {
		return reportError(w, err)
	}
	return exitOK
}

// newRelayServer builds the relay's HTTP server with its middleware chain.
func newRelayServer(cfg *config.Config) *http.Server {
	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRelay, time.Minute)
	}

	mux := http.NewServeMux()
	handlers.NewHandler(cfg).Register(mux, limiter)

	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveRelay runs the relay on ln until ctx is done, then drains
// in-flight uploads for up to ShutdownGraceTime.
func serveRelay(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	srv := newRelayServer(cfg)

	slog.Info("Starting upload relay",
		"addr", ln.Addr().String(),
		"allowed_hosts", cfg.AllowedHosts,
		"max_upload_mb", cfg.RelayMaxUploadMB,
		"rate_limit", cfg.RateLimitEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("relay server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down upload relay", "grace", cfg.ShutdownGraceTime)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGraceTime)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay server: %w", err)
	}
	slog.Info("Upload relay stopped")
	return nil
}
