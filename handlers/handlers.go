// ABOUTME: HTTP handlers for the same-origin upload relay
// ABOUTME: Holds the relay's host allow-list, upstream client, and JSON helpers

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lmsgo/course-author/config"
	"github.com/lmsgo/course-author/models"
)

type Handler struct {
	cfg      *config.Config
	allowed  map[string]struct{}
	upstream *http.Client
}

// NewHandler builds a relay handler. A nil config yields an empty
// allow-list, which rejects every destination.
func NewHandler(cfg *config.Config) *Handler {
	h := &Handler{
		cfg:      cfg,
		allowed:  make(map[string]struct{}),
		upstream: noRedirects(&http.Client{}),
	}

	if cfg == nil {
		return h
	}

	for _, host := range cfg.AllowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			h.allowed[host] = struct{}{}
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.RelayAllProxy != "" {
		if dial := tunnelDialContext(cfg.RelayAllProxy); dial != nil {
			transport.DialContext = dial
			slog.Info("Relay upstream tunnel enabled")
		}
	}
	h.upstream = noRedirects(&http.Client{
		Timeout:   cfg.UploadTimeout,
		Transport: transport,
	})

	return h
}

// SetHTTPClient overrides the upstream client (useful for testing). The
// client is copied so that redirects stay disabled.
func (h *Handler) SetHTTPClient(client *http.Client) {
	h.upstream = noRedirects(client)
}

// noRedirects returns a copy of client that hands 3xx responses back
// instead of following them. A followed redirect would reach hosts the
// allow-list never saw and turn the PUT into a GET.
func noRedirects(client *http.Client) *http.Client {
	copied := *client
	copied.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &copied
}

// HostAllowed reports whether the relay may forward to hostname.
func (h *Handler) HostAllowed(hostname string) bool {
	_, ok := h.allowed[strings.ToLower(hostname)]
	return ok
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
