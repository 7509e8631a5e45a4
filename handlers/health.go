// ABOUTME: HTTP handler for the relay liveness probe
// ABOUTME: Reports status and the size of the configured allow-list

package handlers

import "net/http"

// Health returns relay status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":        "ok",
		"allowed_hosts": len(h.allowed),
		"tunnel":        "not_configured",
	}

	if h.cfg != nil && h.cfg.RelayAllProxy != "" {
		resp["tunnel"] = "configured"
	}

	h.writeJSON(w, http.StatusOK, resp)
}
