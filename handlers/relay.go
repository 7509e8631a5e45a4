// ABOUTME: Upload relay handler forwarding multipart files to presigned storage URLs
// ABOUTME: Enforces the host allow-list before any outbound request is made

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/lmsgo/course-author/middleware"
	"github.com/lmsgo/course-author/models"
)

const (
	// maxDetailBytes caps how much of an upstream error body is echoed back.
	maxDetailBytes = 2048

	// parts above this are spooled to disk while parsing
	multipartMemory = 32 << 20
)

// UploadProxy accepts multipart {file, uploadUrl|upload_url} and PUTs the
// file to the destination when its host is allow-listed.
func (h *Handler) UploadProxy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Upload exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Debug("Relay: invalid multipart body", "request_id", requestID, "error", err)
		h.writeError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	target, msg := h.destination(r.MultipartForm)
	if msg != "" {
		h.writeError(w, msg, http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = models.DefaultMimeType
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPut, target.String(), file)
	if err != nil {
		slog.Error("Relay: failed to create upstream request", "request_id", requestID, "error", err)
		h.writeError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	req.ContentLength = header.Size
	req.Header.Set("Content-Type", contentType)

	resp, err := h.upstream.Do(req)
	if err != nil {
		// url.Error carries the presigned query string
		slog.Warn("Relay: storage unreachable", "request_id", requestID, "host", target.Host, "error", errors.Unwrap(err))
		h.writeError(w, "Storage unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		slog.Warn("Relay: storage rejected upload",
			"request_id", requestID,
			"host", target.Host,
			"status", resp.StatusCode,
		)
		status := resp.StatusCode
		if status >= 300 && status < 400 {
			// a redirect is not a failure the caller can act on
			status = http.StatusBadGateway
		}
		h.writeJSON(w, status, models.RelayErrorResponse{
			Error:   "Upload to storage failed",
			Status:  resp.StatusCode,
			Details: string(details),
		})
		return
	}

	slog.Info("Relay: upload forwarded",
		"request_id", requestID,
		"host", target.Host,
		"bytes", header.Size,
		"content_type", contentType,
	)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// destination validates the upload URL field. A non-empty message means
// the request must be rejected with 400.
func (h *Handler) destination(form *multipart.Form) (*url.URL, string) {
	raw := strings.TrimSpace(firstValue(form, "uploadUrl"))
	if raw == "" {
		raw = strings.TrimSpace(firstValue(form, "upload_url"))
	}
	if raw == "" {
		return nil, "Missing upload URL"
	}

	target, err := url.Parse(raw)
	if err != nil || target.Host == "" {
		return nil, "Invalid upload URL"
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, "Upload URL must use http or https"
	}
	if !h.HostAllowed(target.Hostname()) {
		slog.Warn("Relay: destination not allowed", "host", target.Hostname())
		return nil, "Upload destination not allowed"
	}
	return target, ""
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
