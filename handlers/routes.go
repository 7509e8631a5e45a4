// ABOUTME: Declarative route table for relay endpoints
// ABOUTME: Registers routes on a ServeMux with logging, body caps, and rate limits

package handlers

import (
	"net/http"

	"github.com/lmsgo/course-author/middleware"
)

// UploadProxyPath is where the relay accepts multipart uploads.
const UploadProxyPath = "/internal/upload-proxy"

// Route defines a relay endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/healthz")
	Handler http.HandlerFunc // Handler function
	Upload  bool             // carries a file body: size capped and rate limited
}

// Routes returns all relay routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: h.Health},
		{Method: http.MethodPost, Path: UploadProxyPath, Handler: h.UploadProxy, Upload: true},
	}
}

// Register mounts every route on mux. A nil limiter disables rate limiting.
func (h *Handler) Register(mux *http.ServeMux, limiter *middleware.RateLimiter) {
	var maxBody int64
	if h.cfg != nil {
		maxBody = h.cfg.RelayMaxUploadBytes()
	}

	for _, route := range h.Routes() {
		chain := []func(http.HandlerFunc) http.HandlerFunc{middleware.LogRequest}
		if route.Upload {
			if limiter != nil {
				chain = append(chain, middleware.RateLimit(limiter, middleware.ClientIP))
			}
			chain = append(chain, middleware.LimitBody(maxBody))
		}
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler, chain...))
	}
}
