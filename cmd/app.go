// ABOUTME: Wires the API client, upload transport, journal, and lifecycle for commands
// ABOUTME: One app per command invocation; Close releases everything it opened

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmsgo/course-author/config"
	"github.com/lmsgo/course-author/internal/authoring"
	"github.com/lmsgo/course-author/internal/client"
	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/internal/journal"
	"github.com/lmsgo/course-author/internal/tui/debuglog"
	"github.com/lmsgo/course-author/internal/tui/recentfiles"
	"github.com/lmsgo/course-author/internal/tui/uploadview"
	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/logger"
)

const logoutTimeout = 5 * time.Second

type app struct {
	cfg       *config.Config
	client    *client.Client
	transport *upload.Transport
	journal   *journal.Journal // nil when disabled or unavailable
	manager   *content.Manager
	catalog   *authoring.CachedCatalog
	loggedIn  bool
}

// newApp builds the collaborators and signs in when credentials are configured.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	c := client.New(client.Options{
		BaseURL:        cfg.APIURL,
		OrgID:          cfg.OrgID,
		RequestTimeout: cfg.RequestTimeout,
		OnSessionExpired: func() {
			slog.Warn("Session expired, sign in again", "api", cfg.APIURL)
		},
	})

	a := &app{cfg: cfg, client: c}
	if cfg.Credentials() {
		if err := c.Login(ctx, cfg.Email, cfg.Password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		a.loggedIn = true
	}

	a.transport = upload.NewTransport(upload.Options{
		Client:         c,
		RelayURL:       cfg.RelayURL,
		DirectDisabled: cfg.DirectDisabled,
		Timeout:        cfg.UploadTimeout,
	})

	var recorder content.Recorder
	if cfg.JournalEnabled() {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			slog.Warn("Ingest journal unavailable", "path", cfg.JournalPath, "error", err)
		} else {
			a.journal = j
			recorder = j
		}
	}

	a.manager = content.NewManager(c, a.transport, recorder)
	a.catalog = authoring.NewCachedCatalog(c, cfg.CatalogCacheTTL)
	return a, nil
}

// Close signs out a session opened by newApp and releases resources.
func (a *app) Close() {
	if a.loggedIn {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		if err := a.client.Logout(ctx); err != nil {
			slog.Debug("Logout failed", "error", err)
		}
		cancel()
	}
	a.catalog.Close()
	a.transport.Close()
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			slog.Debug("Failed to close journal", "error", err)
		}
	}
}

// openApp loads configuration and builds the app. On failure the error is
// reported on w and the exit code is returned with a nil app.
func openApp(ctx context.Context, w io.Writer) (*app, int) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, reportError(w, err)
	}
	return a, exitOK
}

// logToFileWhile sends logs to the debug log while a full-screen view draws
// on w, and returns the function that restores stderr logging.
func logToFileWhile(w io.Writer) func() {
	if !uploadview.IsTerminal(w) {
		return func() {}
	}
	f, err := debuglog.Open(recentfiles.DefaultConfigDir())
	if err != nil {
		slog.Debug("Debug log unavailable", "error", err)
		return func() {}
	}
	logger.Init(f)
	return func() {
		logger.Init(os.Stderr)
		debuglog.Close()
	}
}

// rememberFile records path for the authoring form's suggestions.
func rememberFile(path string) {
	if err := recentfiles.New(recentfiles.DefaultConfigDir()).Add(path); err != nil {
		slog.Debug("Failed to record recent file", "path", path, "error", err)
	}
}
